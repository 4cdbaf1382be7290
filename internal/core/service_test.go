package core

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/sheetedit/internal/audit"
	"github.com/JonMunkholm/sheetedit/internal/config"
	"github.com/JonMunkholm/sheetedit/internal/sheet"
	"github.com/JonMunkholm/sheetedit/internal/thumbnail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type memRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (m *memRecorder) Record(_ context.Context, e audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(func(string) string { return "" })
	require.NoError(t, err)
	cfg.Upload.TempDir = t.TempDir()
	return cfg
}

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &rows[i]))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 40))))
	body := buf.Bytes()

	mux := http.NewServeMux()
	mux.HandleFunc("/ok.png", func(w http.ResponseWriter, r *http.Request) { w.Write(body) })
	mux.HandleFunc("/gone.png", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) })
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T, cfg *config.Config, srv *httptest.Server, rec audit.Recorder) *Service {
	t.Helper()
	fetcher := thumbnail.New(srv.Client(), thumbnail.Options{
		Width: cfg.Thumbnail.Width, Height: cfg.Thumbnail.Height,
		Quality: cfg.Thumbnail.Quality, Timeout: time.Second,
	})
	return NewService(cfg, fetcher, rec)
}

func TestIngest_AttachesThumbnails(t *testing.T) {
	cfg := testConfig(t)
	srv := imageServer(t)
	rec := &memRecorder{}
	svc := newTestService(t, cfg, srv, rec)

	data := workbook(t, [][]any{
		{"Name", "Value", "Update"},
		{"shirt", srv.URL + "/ok.png", nil},
		{"socks", srv.URL + "/gone.png", "Front"},
		{"hat", "no link", nil},
	})

	res, err := svc.Ingest(context.Background(), "catalog.xlsx", bytes.NewReader(data))
	require.NoError(t, err)

	require.Equal(t, 3, res.Table.Len())
	assert.Equal(t, []string{"Name", "Value", "Update"}, res.Table.Columns)
	assert.Equal(t, 1, res.Thumbnails)
	assert.Equal(t, 1, res.Unavailable)

	assert.NotEmpty(t, res.Table.Rows[0][sheet.ImageField])
	assert.NotContains(t, res.Table.Rows[1], sheet.ImageField)
	assert.NotContains(t, res.Table.Rows[2], sheet.ImageField)
	assert.Equal(t, "", res.Table.Rows[0]["Update"])

	entries, err := os.ReadDir(cfg.Upload.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "upload workspace should be removed")

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.KindUpload, rec.events[0].Kind)
	assert.Equal(t, 3, rec.events[0].Rows)
	assert.Equal(t, 1, rec.events[0].Thumbnails)
}

func TestIngest_ThumbnailsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Thumbnail.Enabled = false
	srv := imageServer(t)
	svc := newTestService(t, cfg, srv, nil)

	data := workbook(t, [][]any{{"Value"}, {srv.URL + "/ok.png"}})

	res, err := svc.Ingest(context.Background(), "a.xlsx", bytes.NewReader(data))
	require.NoError(t, err)
	assert.NotContains(t, res.Table.Rows[0], sheet.ImageField)
	assert.Zero(t, res.Thumbnails)
}

func TestIngest_InvalidWorkbook(t *testing.T) {
	cfg := testConfig(t)
	svc := NewService(cfg, nil, nil)

	_, err := svc.Ingest(context.Background(), "a.xlsx", bytes.NewReader([]byte("not a zip")))
	require.Error(t, err)
	assert.Equal(t, "FILE002", MapError(err).Code)

	entries, err := os.ReadDir(cfg.Upload.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExport_WritesAndReleases(t *testing.T) {
	cfg := testConfig(t)
	rec := &memRecorder{}
	svc := NewService(cfg, nil, rec)

	snap, err := sheet.DecodeSnapshot([]byte(`{
		"filename": "report.xlsx",
		"data": [{"Name": "shirt", "Update": "Front", "image": "abc"}, {"Name": "socks", "Update": ""}]
	}`))
	require.NoError(t, err)

	exp, err := svc.Export(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, "report_update.xlsx", exp.Name)
	assert.Positive(t, exp.Size)

	content, err := io.ReadAll(exp.Content())
	require.NoError(t, err)
	require.NoError(t, exp.Close())

	entries, err := os.ReadDir(cfg.Upload.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "export workspace should be removed on Close")

	table, err := sheet.Parse(bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Update"}, table.Columns)
	assert.Equal(t, []sheet.Row{
		{"Name": "shirt", "Update": "Front"},
		{"Name": "socks", "Update": ""},
	}, table.Rows)

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.KindDownload, rec.events[0].Kind)
}

func TestAcknowledge(t *testing.T) {
	assert.Equal(t, "Updated row 3 to X", Acknowledge(2, "X"))
	assert.Equal(t, "Updated row 1 to Front", Acknowledge(0, "Front"))
	assert.Equal(t, "Updated row 9223372036854775808 to X", Acknowledge(9223372036854775807, "X"))
	assert.Equal(t, "Updated row 1"+strings.Repeat("0", 300)+" to X", Acknowledge(1e300, "X"))
}

func TestRecord_UsesRequestMeta(t *testing.T) {
	rec := &memRecorder{}
	svc := NewService(testConfig(t), nil, rec)

	ctx := ContextWithRequestMeta(context.Background(), RequestMeta{RequestID: "r-1", IPAddress: "10.0.0.1"})
	svc.record(ctx, audit.Event{Kind: audit.KindUpload})

	require.Len(t, rec.events, 1)
	assert.Equal(t, "r-1", rec.events[0].RequestID)
	assert.Equal(t, "10.0.0.1", rec.events[0].IPAddress)
}

package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/JonMunkholm/sheetedit/internal/audit"
	"github.com/JonMunkholm/sheetedit/internal/logging"
	"github.com/JonMunkholm/sheetedit/internal/sheet"
	"github.com/JonMunkholm/sheetedit/internal/workspace"
)

// Export is a workbook rebuilt from a client snapshot, ready to stream.
// Close must be called once the response has been written; it removes the file.
type Export struct {
	Name    string
	ModTime time.Time
	Size    int64

	file *os.File
	ws   *workspace.Workspace
}

// Content returns the workbook positioned at its start.
func (e *Export) Content() io.ReadSeeker { return e.file }

// Close closes the file and releases its workspace.
func (e *Export) Close() error {
	closeErr := e.file.Close()
	if err := e.ws.Release(); err != nil {
		return err
	}
	return closeErr
}

// Export writes snap to a workbook in a private workspace.
func (s *Service) Export(ctx context.Context, snap *sheet.Snapshot) (_ *Export, err error) {
	ws, err := workspace.New(s.cfg.Upload.TempDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			ws.Release()
		}
	}()

	f, err := ws.Create("export.xlsx")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			f.Close()
		}
	}()

	if err := sheet.Write(f, snap.Table); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind export: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat export: %w", err)
	}

	exp := &Export{
		Name:    sheet.DownloadName(snap.Filename),
		ModTime: info.ModTime(),
		Size:    info.Size(),
		file:    f,
		ws:      ws,
	}

	logging.FromContext(ctx).Info("workbook exported",
		"file", exp.Name,
		"rows", snap.Table.Len(),
		"columns", snap.Table.Width(),
		"bytes", exp.Size,
	)

	s.record(ctx, audit.Event{
		Kind:     audit.KindDownload,
		FileName: exp.Name,
		Rows:     snap.Table.Len(),
		Columns:  snap.Table.Width(),
	})

	return exp, nil
}

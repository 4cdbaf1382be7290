package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/sheetedit/internal/audit"
	"github.com/JonMunkholm/sheetedit/internal/logging"
	"github.com/JonMunkholm/sheetedit/internal/sheet"
	"github.com/JonMunkholm/sheetedit/internal/thumbnail"
	"github.com/JonMunkholm/sheetedit/internal/workspace"
	"golang.org/x/sync/errgroup"
)

// IngestResult is a parsed upload together with thumbnail counts.
type IngestResult struct {
	Table       *sheet.Table
	Thumbnails  int
	Unavailable int
}

// Ingest parses an uploaded workbook and attaches thumbnails.
//
// The upload is written to a private workspace which is removed as soon as
// parsing finishes. Returns ErrTooManyUploads when no upload slot frees up in time.
func (s *Service) Ingest(ctx context.Context, fileName string, src io.Reader) (*IngestResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	table, err := s.parseUpload(ctx, fileName, src)
	if err != nil {
		return nil, err
	}

	res := &IngestResult{Table: table}
	if s.thumbs != nil {
		res.Thumbnails, res.Unavailable = s.attachThumbnails(ctx, table)
	}

	logging.FromContext(ctx).Info("workbook ingested",
		"file", fileName,
		"rows", table.Len(),
		"columns", table.Width(),
		"thumbnails", res.Thumbnails,
		"thumbnails_unavailable", res.Unavailable,
	)

	s.record(ctx, audit.Event{
		Kind:       audit.KindUpload,
		FileName:   fileName,
		Rows:       table.Len(),
		Columns:    table.Width(),
		Thumbnails: res.Thumbnails,
	})

	return res, nil
}

func (s *Service) parseUpload(ctx context.Context, fileName string, src io.Reader) (*sheet.Table, error) {
	ws, err := workspace.New(s.cfg.Upload.TempDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := ws.Release(); err != nil {
			logging.FromContext(ctx).Warn("workspace cleanup failed", "dir", ws.Dir(), "error", err)
		}
	}()

	f, err := ws.Create(fileName)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return nil, fmt.Errorf("save upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	return sheet.ParseFile(f.Name())
}

// attachThumbnails derives an image for every row whose thumbnail column is
// eligible. Fetches run concurrently up to the configured limit; each result
// is written back to its own row once all fetches are done.
func (s *Service) attachThumbnails(ctx context.Context, table *sheet.Table) (ok, unavailable int) {
	column := s.cfg.Thumbnail.Column
	results := make([]thumbnail.Result, len(table.Rows))

	var g errgroup.Group
	g.SetLimit(s.cfg.Thumbnail.Concurrency)
	for i, row := range table.Rows {
		raw, isString := row[column].(string)
		if !isString || !thumbnail.Eligible(raw) {
			continue
		}
		g.Go(func() error {
			results[i] = s.thumbs.Derive(ctx, raw)
			return nil
		})
	}
	g.Wait()

	logger := logging.FromContext(ctx)
	for i, res := range results {
		switch {
		case res.OK():
			table.Rows[i][sheet.ImageField] = res.Data()
			ok++
		case res.Reason() != nil && !errors.Is(res.Reason(), thumbnail.ErrNotURL):
			unavailable++
			logger.Debug("thumbnail unavailable", "row", i, "reason", res.Reason())
		}
	}
	return ok, unavailable
}

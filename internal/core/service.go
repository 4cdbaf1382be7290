package core

import (
	"context"
	"fmt"
	"strconv"

	"github.com/JonMunkholm/sheetedit/internal/audit"
	"github.com/JonMunkholm/sheetedit/internal/config"
	"github.com/JonMunkholm/sheetedit/internal/logging"
	"github.com/JonMunkholm/sheetedit/internal/thumbnail"
)

// Service provides the spreadsheet operations used by the web layer and CLI.
// It holds no table state; every call works on its own data.
type Service struct {
	cfg     *config.Config
	thumbs  *thumbnail.Fetcher
	limiter *UploadLimiter
	audit   audit.Recorder
}

// NewService creates a Service. thumbs may be nil to disable thumbnails and
// recorder may be nil to disable auditing.
func NewService(cfg *config.Config, thumbs *thumbnail.Fetcher, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if !cfg.Thumbnail.Enabled {
		thumbs = nil
	}
	return &Service{
		cfg:     cfg,
		thumbs:  thumbs,
		limiter: NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		audit:   recorder,
	}
}

// NewThumbnailFetcher builds a fetcher from the thumbnail settings.
func NewThumbnailFetcher(cfg config.ThumbnailConfig) *thumbnail.Fetcher {
	return thumbnail.New(nil, thumbnail.Options{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Quality:   cfg.Quality,
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
	})
}

// UploadLimiterStatus returns the current state of the upload limiter.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight uploads finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Acknowledge formats the reply to an edit. Nothing is stored: the client's
// copy of the table is the state of record until it is exported.
// rowIndex is zero-based and may exceed the int64 range.
func Acknowledge(rowIndex float64, value string) string {
	return fmt.Sprintf("Updated row %s to %s", strconv.FormatFloat(rowIndex+1, 'f', -1, 64), value)
}

// record reports e to the audit recorder, filling in request metadata.
func (s *Service) record(ctx context.Context, e audit.Event) {
	meta := RequestMetaFromContext(ctx)
	e.RequestID = meta.RequestID
	e.IPAddress = meta.IPAddress
	e.UserAgent = meta.UserAgent

	if err := s.audit.Record(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("audit record failed", "kind", e.Kind, "error", err)
	}
}

package web

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/JonMunkholm/sheetedit/internal/logging"
	"github.com/JonMunkholm/sheetedit/internal/sheet"
)

// handleDownload rebuilds a workbook from the client's table and streams it
// back as an attachment. The export file is removed once the body is written.
// Every failure other than an oversize body is reported as a 500.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	// Snapshots carry no images, so the upload limit is generous here.
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize*4))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "Table too large to export")
			return
		}
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	snap, err := sheet.DecodeSnapshot(body)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	exp, err := s.service.Export(r.Context(), snap)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() {
		if err := exp.Close(); err != nil {
			logging.FromContext(r.Context()).Warn("export cleanup failed", "error", err)
		}
	}()

	w.Header().Set("Content-Type", sheet.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exp.Name}))
	http.ServeContent(w, r, exp.Name, exp.ModTime, exp.Content())
}

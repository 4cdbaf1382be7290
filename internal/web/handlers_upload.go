package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/sheetedit/internal/core"
	"github.com/JonMunkholm/sheetedit/internal/sheet"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to disk.
const multipartMemory = 4 << 20

type uploadResponse struct {
	Data    []sheet.Row `json:"data"`
	Columns []string    `json:"columns"`
	Message string      `json:"message"`
}

// handleUpload parses an uploaded workbook and returns its rows with thumbnails.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "File too large: limit is "+strconv.FormatInt(maxErr.Limit, 10)+" bytes")
			return
		}
		writeError(w, r, http.StatusBadRequest, "No file part")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		// A file input submitted with nothing selected arrives as a plain
		// value part because it has no filename.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			writeError(w, r, http.StatusBadRequest, "No selected file")
			return
		}
		writeError(w, r, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, r, http.StatusBadRequest, "No selected file")
		return
	}
	if !sheet.HasExtension(header.Filename, s.cfg.Upload.AllowedExtensions) {
		writeError(w, r, http.StatusBadRequest, "Invalid file type")
		return
	}

	res, err := s.service.Ingest(r.Context(), header.Filename, file)
	if err != nil {
		if errors.Is(err, core.ErrTooManyUploads) {
			w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.Upload.MaxWaitTime.Seconds())))
			writeError(w, r, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "Error processing file: "+err.Error())
		return
	}

	rows := res.Table.Rows
	if rows == nil {
		rows = []sheet.Row{}
	}
	columns := res.Table.Columns
	if columns == nil {
		columns = []string{}
	}

	writeJSON(w, r, http.StatusOK, uploadResponse{
		Data:    rows,
		Columns: columns,
		Message: "File uploaded successfully",
	})
}

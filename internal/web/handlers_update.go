package web

import (
	"io"
	"math"
	"net/http"

	"github.com/JonMunkholm/sheetedit/internal/core"
	"github.com/tidwall/gjson"
)

// maxUpdateBody bounds the JSON body of an update request.
const maxUpdateBody = 64 << 10

type updateResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// handleUpdate acknowledges an edit to a row. The table itself lives in the
// browser, so nothing is stored.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpdateBody))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid update data")
		return
	}
	if !gjson.ValidBytes(body) {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	rowIndex := gjson.GetBytes(body, "row_index")
	value := gjson.GetBytes(body, "value")
	if !rowIndex.Exists() || !value.Exists() || value.Type == gjson.Null ||
		rowIndex.Type != gjson.Number || rowIndex.Num != math.Trunc(rowIndex.Num) {
		writeError(w, r, http.StatusBadRequest, "Invalid update data")
		return
	}

	text := value.Raw
	if value.Type == gjson.String {
		text = value.Str
	}

	writeJSON(w, r, http.StatusOK, updateResponse{
		Message: core.Acknowledge(rowIndex.Num, text),
		Success: true,
	})
}

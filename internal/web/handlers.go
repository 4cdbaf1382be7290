package web

import (
	"net/http"

	"github.com/JonMunkholm/sheetedit/internal/core"
)

type healthResponse struct {
	Status  string                   `json:"status"`
	Uploads core.UploadLimiterStatus `json:"uploads"`
}

// handleHealth reports liveness and upload slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:  "ok",
		Uploads: s.service.UploadLimiterStatus(),
	})
}

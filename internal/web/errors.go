package web

// errors.go provides the JSON error response used by every endpoint.
//
// The "error" field carries the message the page shows verbatim. "code" and
// "action" come from core.MapMessage so a user can quote the code and the
// request id when reporting a problem.

import (
	"net/http"

	"github.com/JonMunkholm/sheetedit/internal/core"
	"github.com/JonMunkholm/sheetedit/internal/logging"
)

// ErrorResponse represents the JSON structure for error responses.
type ErrorResponse struct {
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
	Code   string `json:"code"`
}

// writeError logs the failure and writes a JSON error response.
// Server errors are logged at error level, client errors at warn.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	userMsg := core.MapMessage(message)

	logger := logging.WithFields(r.Context(),
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", userMsg.Code,
	)
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "error", message)
	} else {
		logger.Warn("request rejected", "error", message)
	}

	writeJSON(w, r, status, ErrorResponse{
		Error:  message,
		Action: userMsg.Action,
		Code:   userMsg.Code,
	})
}

package web

import (
	"net/http"

	"github.com/JonMunkholm/sheetedit/internal/core"
	mw "github.com/JonMunkholm/sheetedit/internal/web/middleware"
	"github.com/go-chi/chi/v5/middleware"
)

// withRequestMeta adds the request id, client IP and User-Agent to the
// request context for audit events.
func withRequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithRequestMeta(r.Context(), core.RequestMeta{
			RequestID: middleware.GetReqID(r.Context()),
			IPAddress: mw.ClientIP(r),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

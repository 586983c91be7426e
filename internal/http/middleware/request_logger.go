package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/velvetdesk/salon-api/pkg/logging"
)

// RequestLogger emits one structured line per completed request, tagged
// with the tenant when the request carried one. The tenant comes off the
// header rather than the context because tenant scoping runs later in the
// chain. Request IDs come from chi's RequestID middleware, which runs
// earlier.
func RequestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", r.RemoteAddr,
			}
			if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
				attrs = append(attrs, "request_id", reqID)
			}
			if tenantID := r.Header.Get(TenantHeader); tenantID != "" {
				attrs = append(attrs, "tenant_id", tenantID)
			}
			logger.Info("request completed", attrs...)
		})
	}
}

package logger

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Middleware stores a request-scoped logger in the context and logs one line
// per request once the handler returns.
func Middleware(base *Logger) func(http.Handler) http.Handler {
	httpLog := base.WithComponent(ComponentHTTP)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := httpLog
			if id := middleware.GetReqID(r.Context()); id != "" {
				reqLog = reqLog.With(FieldRequestID, id)
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(WithContext(r.Context(), reqLog)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			args := []any{
				FieldMethod, r.Method,
				FieldPath, r.URL.Path,
				FieldStatus, status,
				FieldDuration, time.Since(start).Milliseconds(),
				FieldClientIP, r.RemoteAddr,
			}
			switch {
			case status >= 500:
				reqLog.ErrorContext(r.Context(), "request failed", args...)
			case status >= 400:
				reqLog.WarnContext(r.Context(), "request rejected", args...)
			default:
				reqLog.InfoContext(r.Context(), "request completed", args...)
			}
		})
	}
}

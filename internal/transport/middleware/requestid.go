package middleware

import (
	"net/http"

	"github.com/frahmantamala/orgfinance/pkg/logger"

	"github.com/google/uuid"
)

// TraceID attaches a trace id to the request-scoped logger and echoes it
// back in the response, so a caller can quote it when reporting a failed
// ledger write.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "traceID", traceID)
		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package middlewarex

import (
	"log/slog"
	"net/http"

	"github.com/MeowExort/pw-hub-relics-backend/pkg/contextx"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/logx"
)

// Logger puts base into the request context, enriched with the trace id set
// by TraceID, the method and the path.
func Logger(base *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			l := base.With(
				slog.String(logx.FieldHTTPMethod, r.Method),
				slog.String(logx.FieldURL, r.URL.Path),
			)

			if traceID, err := contextx.TraceIDFromContext(ctx); err == nil {
				l = l.With(logx.Stringer(logx.FieldTraceID, traceID))
			}

			next.ServeHTTP(w, r.WithContext(contextx.WithLogger(ctx, l)))
		})
	}
}

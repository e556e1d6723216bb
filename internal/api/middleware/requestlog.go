package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/matiasleandrokruk/statsmcp/internal/api/ctxkeys"
)

// RequestLogger logs one structured line per request. Expected order in
// router: RequestID -> RealIP -> BearerPassthrough -> RequestLogger.
// The wrapped writer keeps http.Flusher so SSE streams still flush.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil {
				next.ServeHTTP(w, r)
				return
			}

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{
				"action", actionFromRequest(r.Method, r.URL.Path),
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			}
			if sub := ctxkeys.Value(r.Context(), ctxkeys.Subject); sub != "" {
				attrs = append(attrs, "subject", sub)
			}
			logger.Log(r.Context(), levelFromStatus(status), "http request", attrs...)
		})
	}
}

func levelFromStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// actionFromRequest labels a request by the surface it hit.
func actionFromRequest(method, path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case path == "/health":
		return "health"
	case segments[0] == "sse":
		return "mcp_sse"
	case segments[0] == "mcp":
		return "mcp_stream"
	case segments[0] == "rpc":
		return "rpc"
	}

	if len(segments) < 3 || segments[0] != "api" || segments[1] != "v1" {
		return strings.ToLower(method) + "_request"
	}
	switch {
	case segments[2] == "tools" && len(segments) == 3:
		return "list_tools"
	case segments[2] == "tools" && len(segments) == 5 && segments[4] == "invoke":
		return "invoke_" + segments[3]
	case segments[2] == "dataset":
		return "describe_dataset"
	}
	return strings.ToLower(method) + "_request"
}

package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/mssola/useragent"

	"plaingov/pkg/requestcontext"
)

// RequestLogger writes one access log line per request. The user agent is
// read from the client metadata ClientMetadata recorded and reduced to
// browser name and bot flag.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			ctx := r.Context()
			client, bot := describeAgent(requestcontext.UserAgent(ctx))
			logger.InfoContext(ctx, "http request",
				"request_id", requestcontext.RequestID(ctx),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", requestcontext.ClientIP(ctx),
				"client", client,
				"bot", bot,
			)
		})
	}
}

func describeAgent(raw string) (string, bool) {
	if raw == "" {
		return "unknown", false
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return raw, ua.Bot()
	}
	if version != "" {
		name += "/" + version
	}
	return name, ua.Bot()
}

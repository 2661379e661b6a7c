package mcp

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"plaingov/internal/platform/middleware"
	"plaingov/pkg/requestcontext"
)

// HTTPHandler exposes Server.Handle as POST /mcp.
type HTTPHandler struct {
	server *Server
	logger *slog.Logger
}

func NewHTTPHandler(server *Server, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{server: server, logger: logger}
}

func (h *HTTPHandler) Register(r chi.Router) {
	r.Post("/mcp", h.HandleMessage)
}

// HandleMessage answers one JSON-RPC message. Notifications get 202 with no
// body; every other message gets 200 and a JSON-RPC response, including
// protocol errors.
func (h *HTTPHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		h.logger.WarnContext(ctx, "failed to read request body",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		h.writeJSON(w, status, h.server.encode(errorResponse(nullID, CodeParseError, "parse error")))
		return
	}

	resp, ok := h.server.Handle(ctx, body)
	if !ok {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// RouterConfig carries the optional pieces of the HTTP surface.
type RouterConfig struct {
	Logger         *slog.Logger
	Metrics        http.Handler
	Auth           func(http.Handler) http.Handler
	AllowedOrigins []string
}

// NewRouter wires /mcp behind request ids, access logging, CORS and, when
// configured, bearer auth. /healthz and /metrics stay unauthenticated.
func NewRouter(h *HTTPHandler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		if cfg.Auth != nil {
			r.Use(cfg.Auth)
		}
		h.Register(r)
	})
	return r
}

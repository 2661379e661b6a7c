package mcp

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"plaingov/internal/dispatch"
	"plaingov/internal/mcp/mocks"
	"plaingov/internal/platform/middleware"
)

// =============================================================================
// HTTP Transport Test Suite
// =============================================================================

type HTTPSuite struct {
	suite.Suite
	ctrl           *gomock.Controller
	mockDispatcher *mocks.MockDispatcher
	logger         *slog.Logger
	handler        *HTTPHandler
}

func TestHTTPSuite(t *testing.T) {
	suite.Run(t, new(HTTPSuite))
}

func (s *HTTPSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockDispatcher = mocks.NewMockDispatcher(s.ctrl)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := NewServer(s.mockDispatcher, WithLogger(s.logger))
	s.Require().NoError(err)
	s.handler = NewHTTPHandler(srv, s.logger)
}

func (s *HTTPSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HTTPSuite) post(router http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func (s *HTTPSuite) TestPostMessage() {
	router := NewRouter(s.handler, RouterConfig{Logger: s.logger})
	s.mockDispatcher.EXPECT().Call(gomock.Any(), "timeline", gomock.Any()).Return(&dispatch.Result{Text: "dates"}, nil)

	rec := s.post(router, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"timeline","arguments":{"program_id":"ccb"}}}`, nil)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("application/json", rec.Header().Get("Content-Type"))
	s.NotEmpty(rec.Header().Get(middleware.RequestIDHeader))
	s.JSONEq(`{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"dates"}]}}`, rec.Body.String())
}

func (s *HTTPSuite) TestNotificationIsAccepted() {
	router := NewRouter(s.handler, RouterConfig{Logger: s.logger})

	rec := s.post(router, `{"jsonrpc":"2.0","method":"notifications/initialized"}`, nil)

	s.Equal(http.StatusAccepted, rec.Code)
	s.Empty(rec.Body.String())
}

func (s *HTTPSuite) TestOversizedBody() {
	router := NewRouter(s.handler, RouterConfig{Logger: s.logger})

	rec := s.post(router, strings.Repeat(" ", maxMessageBytes+1), nil)

	s.Equal(http.StatusRequestEntityTooLarge, rec.Code)
	s.Contains(rec.Body.String(), `"code":-32700`)
}

func (s *HTTPSuite) TestOnlyPostIsRouted() {
	router := NewRouter(s.handler, RouterConfig{Logger: s.logger})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))

	s.Equal(http.StatusMethodNotAllowed, rec.Code)
}

func (s *HTTPSuite) TestHealthAndMetricsAreOpen() {
	router := NewRouter(s.handler, RouterConfig{
		Logger:  s.logger,
		Metrics: promhttp.Handler(),
		Auth:    middleware.RequireAuth(rejectAll{}, s.logger),
	})

	for _, path := range []string{"/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		s.Equal(http.StatusOK, rec.Code, path)
	}
}

func (s *HTTPSuite) TestAuthGuardsMCP() {
	router := NewRouter(s.handler, RouterConfig{
		Logger: s.logger,
		Auth:   middleware.RequireAuth(rejectAll{}, s.logger),
	})

	rec := s.post(router, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, map[string]string{"Authorization": "Bearer nope"})

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HTTPSuite) TestCORSPreflight() {
	router := NewRouter(s.handler, RouterConfig{
		Logger:         s.logger,
		AllowedOrigins: []string{"https://inspector.example"},
	})
	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	req.Header.Set("Origin", "https://inspector.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	s.Equal("https://inspector.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

type rejectAll struct{}

func (rejectAll) ValidateToken(string) (*middleware.JWTClaims, error) {
	return nil, errors.New("rejected")
}

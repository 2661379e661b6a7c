package retrieval

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"plaingov/internal/retrieval/metrics"
	"plaingov/pkg/testutil"
)

// =============================================================================
// Retriever Test Suite
// =============================================================================

type RetrieverSuite struct {
	suite.Suite
	source *testutil.SourceServer
}

func TestRetrieverSuite(t *testing.T) {
	suite.Run(t, new(RetrieverSuite))
}

func (s *RetrieverSuite) SetupTest() {
	s.source = testutil.NewSourceServer(s.T())
}

func (s *RetrieverSuite) newRetriever(opts ...Option) *Retriever {
	base := []Option{
		WithClock(testutil.Clock()),
		WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	}
	return New(append(base, opts...)...)
}

// =============================================================================
// Success
// =============================================================================

func (s *RetrieverSuite) TestRetrieveExtractsMainContent() {
	s.source.Serve("/gst", testutil.HTMLPage(`<header>Canada.ca</header><main><h1>GST/HST credit</h1>
		<p>A tax-free   quarterly payment.</p><script>track()</script></main>`))

	out := s.newRetriever().Retrieve(testutil.Context(), s.source.URL("/gst"))

	s.Equal(Success{Text: "GST/HST credit A tax-free quarterly payment.", VerifiedOn: testutil.FixedDate}, out)
	s.Equal(1, s.source.Hits("/gst"))
}

func (s *RetrieverSuite) TestRetrievePlainTextIsOnlyCollapsed() {
	s.source.Serve("/plain", testutil.Page{
		Status:      http.StatusOK,
		Body:        "  <b>not markup</b>\n\n  here ",
		ContentType: "text/plain; charset=utf-8",
	})

	out := s.newRetriever().Retrieve(testutil.Context(), s.source.URL("/plain"))

	s.Equal(Success{Text: "<b>not markup</b> here", VerifiedOn: testutil.FixedDate}, out)
}

func (s *RetrieverSuite) TestVerifiedOnUsesUTCDate() {
	s.source.Serve("/page", testutil.HTMLPage("<p>x</p>"))
	late := time.Date(2025, 3, 14, 23, 30, 0, 0, time.FixedZone("MDT", -6*3600))

	out := s.newRetriever(WithClock(func() time.Time { return late })).Retrieve(testutil.Context(), s.source.URL("/page"))

	s.Require().IsType(Success{}, out)
	s.Equal("2025-03-15", out.(Success).VerifiedOn)
}

func (s *RetrieverSuite) TestEveryCallFetchesAgain() {
	s.source.Serve("/page", testutil.HTMLPage("<p>x</p>"))
	r := s.newRetriever()

	r.Retrieve(testutil.Context(), s.source.URL("/page"))
	r.Retrieve(testutil.Context(), s.source.URL("/page"))

	s.Equal(2, s.source.Hits("/page"))
}

func (s *RetrieverSuite) TestSendsUserAgentAndAccept() {
	var ua, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("<p>ok</p>"))
	}))
	defer srv.Close()

	s.newRetriever(WithUserAgent("plaingov-test/1.0")).Retrieve(testutil.Context(), srv.URL)

	s.Equal("plaingov-test/1.0", ua)
	s.Contains(accept, "text/html")
}

// =============================================================================
// Failures
// =============================================================================

func (s *RetrieverSuite) TestHTTPErrorStatus() {
	out := s.newRetriever().Retrieve(testutil.Context(), s.source.URL("/missing"))

	s.Equal(Failure{Kind: KindHTTP, Details: "HTTP 404: Not Found"}, out)
	s.Equal("HTTP 404: Not Found", out.(Failure).String())
}

func (s *RetrieverSuite) TestClientErrorsAreNotRetried() {
	s.source.Serve("/gone", testutil.StatusPage(http.StatusGone))

	out := s.newRetriever(WithRetries(3)).Retrieve(testutil.Context(), s.source.URL("/gone"))

	s.Equal(Failure{Kind: KindHTTP, Details: "HTTP 410: Gone"}, out)
	s.Equal(1, s.source.Hits("/gone"))
}

func (s *RetrieverSuite) TestServerErrorsAreRetriedUpToTheLimit() {
	s.source.Serve("/busy", testutil.StatusPage(http.StatusServiceUnavailable))

	out := s.newRetriever(WithRetries(2)).Retrieve(testutil.Context(), s.source.URL("/busy"))

	s.Equal(Failure{Kind: KindHTTP, Details: "HTTP 503: Service Unavailable"}, out)
	s.Equal(3, s.source.Hits("/busy"))
}

func (s *RetrieverSuite) TestNoRetriesByDefault() {
	s.source.Serve("/busy", testutil.StatusPage(http.StatusTooManyRequests))

	s.newRetriever().Retrieve(testutil.Context(), s.source.URL("/busy"))

	s.Equal(1, s.source.Hits("/busy"))
}

func (s *RetrieverSuite) TestRetryRecoversFromTransientFailure() {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("<main>recovered</main>"))
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	out := s.newRetriever(WithRetries(1), WithMetrics(m)).Retrieve(testutil.Context(), srv.URL)

	s.Equal(Success{Text: "recovered", VerifiedOn: testutil.FixedDate}, out)
	s.Equal(int32(2), calls.Load())
	s.Equal(1.0, promtest.ToFloat64(m.Retries))
	s.Equal(1.0, promtest.ToFloat64(m.Outcomes.WithLabelValues("success")))
}

func (s *RetrieverSuite) TestTimeout() {
	s.source.Serve("/slow", testutil.Page{Status: http.StatusOK, Body: "late", Delay: time.Second})

	out := s.newRetriever(WithTimeout(20*time.Millisecond)).Retrieve(testutil.Context(), s.source.URL("/slow"))

	s.Require().IsType(Failure{}, out)
	failure := out.(Failure)
	s.Equal(KindTimeout, failure.Kind)
	s.Equal("timeout: no response within 20ms", failure.String())
}

func (s *RetrieverSuite) TestNetworkFailure() {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	out := s.newRetriever(WithMetrics(m)).Retrieve(testutil.Context(), url)

	s.Require().IsType(Failure{}, out)
	failure := out.(Failure)
	s.Equal(KindNetwork, failure.Kind)
	s.NotEmpty(failure.Details)
	s.Equal(1.0, promtest.ToFloat64(m.Outcomes.WithLabelValues("network")))
}

func (s *RetrieverSuite) TestMalformedURL() {
	out := s.newRetriever().Retrieve(testutil.Context(), "://nope")

	s.Require().IsType(Failure{}, out)
	s.Equal(KindNetwork, out.(Failure).Kind)
}

func TestFailureString(t *testing.T) {
	tests := []struct {
		failure Failure
		want    string
	}{
		{Failure{Kind: KindHTTP, Details: "HTTP 500: Internal Server Error"}, "HTTP 500: Internal Server Error"},
		{Failure{Kind: KindNetwork, Details: "connection refused"}, "network: connection refused"},
		{Failure{Kind: KindExtract, Details: "parse html: eof"}, "extract: parse html: eof"},
	}
	for _, tt := range tests {
		if got := tt.failure.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

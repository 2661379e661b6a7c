// Package retrieval fetches official program pages live and returns their
// text with the date it was fetched. Nothing is cached: every call performs
// a fresh request.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"plaingov/internal/retrieval/extract"
	"plaingov/internal/retrieval/metrics"
	"plaingov/pkg/requestcontext"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "plain-gov-mcp/0.1.0 (+official-source retrieval)"

	// maxBodyBytes caps how much of a page is read.
	maxBodyBytes = 5 << 20
	dateLayout   = "2006-01-02"
	acceptHeader = "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5"
)

var tracer = otel.Tracer("plaingov/internal/retrieval")

// Retriever fetches a URL and extracts its readable text.
type Retriever struct {
	client     *http.Client
	timeout    time.Duration
	retries    uint64
	userAgent  string
	now        func() time.Time
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Retriever)

func WithHTTPClient(c *http.Client) Option {
	return func(r *Retriever) {
		r.client = c
	}
}

// WithTimeout bounds each fetch attempt. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(r *Retriever) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRetries sets how many extra attempts a transient failure gets.
func WithRetries(n uint64) Option {
	return func(r *Retriever) {
		r.retries = n
	}
}

func WithUserAgent(ua string) Option {
	return func(r *Retriever) {
		if ua != "" {
			r.userAgent = ua
		}
	}
}

// WithClock overrides the clock used for VerifiedOn.
func WithClock(now func() time.Time) Option {
	return func(r *Retriever) {
		r.now = now
	}
}

// WithBackOff overrides the wait policy between retries.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(r *Retriever) {
		r.newBackOff = f
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Retriever) {
		r.metrics = m
	}
}

func New(opts ...Option) *Retriever {
	r := &Retriever{
		client:     &http.Client{},
		timeout:    DefaultTimeout,
		userAgent:  DefaultUserAgent,
		now:        time.Now,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve fetches url and returns its text, or a Failure describing why no
// text is available. It never returns a partially successful result.
func (r *Retriever) Retrieve(ctx context.Context, url string) Outcome {
	ctx, span := tracer.Start(ctx, "retrieval.Retrieve", trace.WithAttributes(attribute.String("url.full", url)))
	defer span.End()

	start := time.Now()
	var (
		outcome  Outcome
		attempts int
	)
	operation := func() error {
		if attempts > 0 {
			r.metrics.IncrementRetries()
		}
		attempts++

		out, status := r.fetch(ctx, url)
		outcome = out
		failure, failed := out.(Failure)
		if !failed {
			return nil
		}
		if failure.transient(status) {
			return errors.New(failure.String())
		}
		return backoff.Permanent(errors.New(failure.String()))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), r.retries), ctx)
	_ = backoff.Retry(operation, policy)

	kind := "success"
	if failure, ok := outcome.(Failure); ok {
		kind = string(failure.Kind)
		span.SetStatus(codes.Error, failure.String())
		r.logger.WarnContext(ctx, "retrieval failed",
			"request_id", requestcontext.RequestID(ctx),
			"url", url,
			"kind", kind,
			"details", failure.Details,
			"attempts", attempts,
		)
	}
	elapsed := time.Since(start)
	span.SetAttributes(attribute.String("retrieval.outcome", kind), attribute.Int("retrieval.attempts", attempts))
	r.metrics.ObserveRetrieval(kind, elapsed)
	r.logger.DebugContext(ctx, "retrieval finished",
		"request_id", requestcontext.RequestID(ctx),
		"url", url,
		"outcome", kind,
		"duration_ms", elapsed.Milliseconds(),
	)
	return outcome
}

// fetch performs a single attempt. The status code is returned alongside the
// outcome so the retry policy can tell 5xx from 4xx.
func (r *Retriever) fetch(ctx context.Context, url string) (Outcome, int) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Failure{Kind: KindNetwork, Details: err.Error()}, 0
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := r.client.Do(req)
	if err != nil {
		return r.transportFailure(ctx, err), 0
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return Failure{
			Kind:    KindHTTP,
			Details: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, statusText(resp)),
		}, resp.StatusCode
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return r.transportFailure(ctx, err), 0
	}

	text, err := textOf(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return Failure{Kind: KindExtract, Details: err.Error()}, resp.StatusCode
	}
	return Success{
		Text:       text,
		VerifiedOn: r.now().UTC().Format(dateLayout),
	}, resp.StatusCode
}

func (r *Retriever) transportFailure(ctx context.Context, err error) Failure {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return Failure{Kind: KindTimeout, Details: fmt.Sprintf("no response within %s", r.timeout)}
	}
	return Failure{Kind: KindNetwork, Details: err.Error()}
}

// statusText prefers the reason phrase the server sent.
func statusText(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func textOf(contentType string, body []byte) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err == nil && mediaType == "text/plain" {
		return extract.Collapse(string(body)), nil
	}
	return extract.Text(string(body))
}

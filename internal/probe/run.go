package probe

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"plaingov/internal/dispatch"
	dErrors "plaingov/pkg/domain-errors"
)

// Status is the verdict on one case.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// maxDetails truncates response text kept for failed cases.
const maxDetails = 500

type Caller interface {
	Call(ctx context.Context, name string, args json.RawMessage) (*dispatch.Result, error)
}

// Result is the outcome of one case.
type Result struct {
	Case
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Details  string        `json:"details,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Run executes cases with at most concurrency calls in flight and returns
// results in case order. A failing case never stops the run.
func Run(ctx context.Context, caller Caller, cases []Case, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]Result, len(cases))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, c := range cases {
		g.Go(func() error {
			results[i] = runCase(ctx, caller, c)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func runCase(ctx context.Context, caller Caller, c Case) Result {
	start := time.Now()
	res, err := caller.Call(ctx, c.Tool, c.Args)
	r := Result{Case: c, Status: StatusPassed, Duration: time.Since(start)}

	if err != nil {
		r.Status = StatusFailed
		r.Error = "Protocol error"
		r.Details = dErrors.PublicMessage(err)
		return r
	}
	return check(r, res.Text)
}

// check applies the response rules: an error payload fails, and so does a
// successful payload without attribution.
func check(r Result, text string) Result {
	switch {
	case strings.TrimSpace(text) == "":
		r.Status, r.Error = StatusFailed, "Empty response"
	case strings.HasPrefix(text, "Error:"):
		r.Status, r.Error, r.Details = StatusFailed, "Error in response", truncate(text)
	case !strings.Contains(text, "Source:"):
		r.Status, r.Error, r.Details = StatusFailed, "Missing source attribution", "Response does not include source URL"
	}
	return r
}

// truncate cuts s to at most maxDetails bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= maxDetails {
		return s
	}
	cut := maxDetails
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

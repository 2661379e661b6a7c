package probe

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Summary counts results.
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// SuccessRate is the passed share in percent; zero when nothing ran.
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total) * 100
}

func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Status == StatusPassed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// FormatMarkdown renders the report grouped by tool and by program, followed
// by every failed case.
func FormatMarkdown(results []Result, generatedAt time.Time) string {
	summary := Summarize(results)
	var b strings.Builder

	b.WriteString("# E2E Test Results\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", generatedAt.UTC().Format(time.RFC3339))
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- **Total Tests:** %d\n", summary.Total)
	fmt.Fprintf(&b, "- **Passed:** %d\n", summary.Passed)
	fmt.Fprintf(&b, "- **Failed:** %d\n", summary.Failed)
	fmt.Fprintf(&b, "- **Success Rate:** %.1f%%\n\n", summary.SuccessRate())

	b.WriteString("## Results by Tool\n\n")
	for _, group := range groupBy(results, func(r Result) string { return r.Tool }) {
		s := Summarize(group.results)
		fmt.Fprintf(&b, "### %s\n", group.key)
		fmt.Fprintf(&b, "- Passed: %d/%d\n", s.Passed, s.Total)
		fmt.Fprintf(&b, "- Programs tested: %s\n\n", strings.Join(collect(group.results, func(r Result) string { return r.ProgramID }), ", "))
	}

	b.WriteString("## Results by Program\n\n")
	for _, group := range groupBy(results, func(r Result) string { return r.ProgramID }) {
		s := Summarize(group.results)
		fmt.Fprintf(&b, "### %s\n", group.key)
		fmt.Fprintf(&b, "- Passed: %d/%d\n", s.Passed, s.Total)
		fmt.Fprintf(&b, "- Tools tested: %s\n\n", strings.Join(collect(group.results, func(r Result) string { return r.Tool }), ", "))
	}

	if summary.Failed > 0 {
		b.WriteString("## Failed Tests\n\n")
		for _, r := range results {
			if r.Status != StatusFailed {
				continue
			}
			fmt.Fprintf(&b, "### %s: %s + %s\n", r.ID, r.Tool, r.ProgramID)
			fmt.Fprintf(&b, "- **Error:** %s\n", r.Error)
			if r.Details != "" {
				fmt.Fprintf(&b, "- **Details:** %s\n", r.Details)
			}
			fmt.Fprintf(&b, "- **Duration:** %dms\n\n", r.Duration.Milliseconds())
		}
	}
	return b.String()
}

// FormatJSON renders the summary and every result.
func FormatJSON(results []Result, generatedAt time.Time) ([]byte, error) {
	return json.MarshalIndent(struct {
		GeneratedAt time.Time `json:"generated_at"`
		Summary     Summary   `json:"summary"`
		Results     []Result  `json:"results"`
	}{generatedAt.UTC(), Summarize(results), results}, "", "  ")
}

type group struct {
	key     string
	results []Result
}

// groupBy keeps first-seen key order.
func groupBy(results []Result, key func(Result) string) []group {
	index := make(map[string]int)
	var groups []group
	for _, r := range results {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group{key: k})
		}
		groups[i].results = append(groups[i].results, r)
	}
	return groups
}

func collect(results []Result, field func(Result) string) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, field(r))
	}
	return out
}

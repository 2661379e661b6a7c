// Package compose renders tool results as the single text payload returned to
// callers.
//
// Every successful payload ends with exactly one attribution line naming the
// official source and the date it was fetched. Failure payloads never carry
// one.
package compose

import (
	"fmt"
	"strings"

	"plaingov/internal/eligibility"
	"plaingov/internal/program"
	"plaingov/internal/retrieval"
)

const (
	attributionMarker = "Source:"
	// neutralMarker replaces the marker when it appears inside page text so
	// the attribution line stays unique.
	neutralMarker = "Source :"

	retrievalFailed = "Retrieval failed"
	noneListed      = "None"
	disclaimer      = "This is not advice. Consult official sources for definitive eligibility."
)

// Attribution renders the provenance line for a source fetched on date.
func Attribution(url, verifiedOn string) string {
	return fmt.Sprintf("%s %s (last verified %s)", attributionMarker, url, verifiedOn)
}

// Failure renders a retrieval failure. Details can echo server-controlled
// text (the HTTP reason phrase), so the marker is neutralized there too.
func Failure(f retrieval.Failure) string {
	return Error(retrievalFailed, neutralize(f.String()))
}

// Error renders "Error: <category> - <details>".
func Error(category, details string) string {
	return fmt.Sprintf("Error: %s - %s", category, details)
}

// Content wraps retrieved text with the tool's instruction and attribution.
func Content(desc program.Descriptor, instruction string, s retrieval.Success) string {
	var b strings.Builder
	b.WriteString("**Instruction:** ")
	b.WriteString(instruction)
	b.WriteString("\n\n**Retrieved Information:**\n\n")
	b.WriteString(neutralize(s.Text))
	b.WriteString("\n\n")
	b.WriteString(Attribution(desc.URL, s.VerifiedOn))
	return b.String()
}

// Eligibility renders a verdict block. The retrieved page only contributes
// the attribution; the verdict is shown exactly as the engine produced it.
func Eligibility(desc program.Descriptor, v eligibility.Verdict, s retrieval.Success) string {
	sections := []string{
		"Eligibility Status: " + string(v.Status),
		"Reasons: " + joinOrNone(v.Reasons),
		"Missing Information: " + joinOrNone(v.MissingInfo),
		disclaimer,
		Attribution(desc.URL, s.VerifiedOn),
	}
	return strings.Join(sections, "\n\n")
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return noneListed
	}
	return neutralize(strings.Join(items, ", "))
}

func neutralize(text string) string {
	return strings.ReplaceAll(text, attributionMarker, neutralMarker)
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cucumber/godog"

	"plaingov/pkg/testutil"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Serve(programID string, page testutil.Page)
	SourceURL(programID string) (string, error)
	CallTool(ctx context.Context, tool string, args any) error
	ResponseText() (string, error)
	Hits(programID string) int
}

// RegisterSteps registers source fixture and tool call step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &toolSteps{tc: tc}

	// Fixture steps
	ctx.Step(`^the official page for "([^"]*)" reads "([^"]*)"$`, steps.servePage)
	ctx.Step(`^the official page for "([^"]*)" is:$`, steps.servePageMarkup)
	ctx.Step(`^the official page for "([^"]*)" responds with status (\d+)$`, steps.serveStatus)

	// Call steps
	ctx.Step(`^I call "([^"]*)" for "([^"]*)"$`, steps.callTool)
	ctx.Step(`^I check eligibility for "([^"]*)" with:$`, steps.checkEligibility)

	// Assertion steps
	ctx.Step(`^the response text contains "([^"]*)"$`, steps.textContains)
	ctx.Step(`^the response text does not contain "([^"]*)"$`, steps.textNotContains)
	ctx.Step(`^the response text starts with "([^"]*)"$`, steps.textStartsWith)
	ctx.Step(`^the response ends with the attribution for "([^"]*)"$`, steps.endsWithAttribution)
	ctx.Step(`^the eligibility status is "([^"]*)"$`, steps.statusIs)
	ctx.Step(`^the reasons are "([^"]*)"$`, steps.reasonsAre)
	ctx.Step(`^the missing information is "([^"]*)"$`, steps.missingAre)
	ctx.Step(`^the official page for "([^"]*)" was fetched (\d+) times?$`, steps.fetchedTimes)
}

type toolSteps struct {
	tc TestContext
}

func (s *toolSteps) servePage(ctx context.Context, programID, text string) error {
	s.tc.Serve(programID, testutil.HTMLPage("<main><p>"+text+"</p></main>"))
	return nil
}

func (s *toolSteps) servePageMarkup(ctx context.Context, programID string, markup *godog.DocString) error {
	s.tc.Serve(programID, testutil.HTMLPage(markup.Content))
	return nil
}

func (s *toolSteps) serveStatus(ctx context.Context, programID string, status int) error {
	if http.StatusText(status) == "" {
		return fmt.Errorf("unknown status %d", status)
	}
	s.tc.Serve(programID, testutil.StatusPage(status))
	return nil
}

func (s *toolSteps) callTool(ctx context.Context, tool, programID string) error {
	return s.tc.CallTool(ctx, tool, map[string]any{"program_id": programID})
}

func (s *toolSteps) checkEligibility(ctx context.Context, programID string, userContext *godog.DocString) error {
	var facts map[string]any
	if err := json.Unmarshal([]byte(userContext.Content), &facts); err != nil {
		return fmt.Errorf("user context is not a JSON object: %w", err)
	}
	return s.tc.CallTool(ctx, "eligibility_check", map[string]any{
		"program_id":   programID,
		"user_context": facts,
	})
}

func (s *toolSteps) textContains(ctx context.Context, fragment string) error {
	text, err := s.tc.ResponseText()
	if err != nil {
		return err
	}
	if !strings.Contains(text, fragment) {
		return fmt.Errorf("expected response to contain %q, got:\n%s", fragment, text)
	}
	return nil
}

func (s *toolSteps) textNotContains(ctx context.Context, fragment string) error {
	text, err := s.tc.ResponseText()
	if err != nil {
		return err
	}
	if strings.Contains(text, fragment) {
		return fmt.Errorf("expected response not to contain %q, got:\n%s", fragment, text)
	}
	return nil
}

func (s *toolSteps) textStartsWith(ctx context.Context, prefix string) error {
	text, err := s.tc.ResponseText()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(text, prefix) {
		return fmt.Errorf("expected response to start with %q, got:\n%s", prefix, text)
	}
	return nil
}

func (s *toolSteps) endsWithAttribution(ctx context.Context, programID string) error {
	text, err := s.tc.ResponseText()
	if err != nil {
		return err
	}
	url, err := s.tc.SourceURL(programID)
	if err != nil {
		return err
	}
	want := fmt.Sprintf("Source: %s (last verified %s)", url, testutil.FixedDate)
	if !strings.HasSuffix(text, want) {
		return fmt.Errorf("expected response to end with %q, got:\n%s", want, text)
	}
	if strings.Count(text, "Source:") != 1 {
		return fmt.Errorf("expected exactly one attribution line, got:\n%s", text)
	}
	return nil
}

func (s *toolSteps) statusIs(ctx context.Context, status string) error {
	return s.lineIs("Eligibility Status: ", status)
}

func (s *toolSteps) reasonsAre(ctx context.Context, reasons string) error {
	return s.lineIs("Reasons: ", reasons)
}

func (s *toolSteps) missingAre(ctx context.Context, missing string) error {
	return s.lineIs("Missing Information: ", missing)
}

func (s *toolSteps) lineIs(label, want string) error {
	text, err := s.tc.ResponseText()
	if err != nil {
		return err
	}
	for _, line := range strings.Split(text, "\n") {
		if value, ok := strings.CutPrefix(line, label); ok {
			if value != want {
				return fmt.Errorf("expected %q%q, got %q", label, want, line)
			}
			return nil
		}
	}
	return fmt.Errorf("no %q line in response:\n%s", label, text)
}

func (s *toolSteps) fetchedTimes(ctx context.Context, programID string, n int) error {
	if got := s.tc.Hits(programID); got != n {
		return fmt.Errorf("expected %d fetches of %s, got %d", n, programID, got)
	}
	return nil
}

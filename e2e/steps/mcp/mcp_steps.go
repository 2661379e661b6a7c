package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"plaingov/pkg/testutil"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Send(ctx context.Context, msg []byte)
	Response() (testutil.RPCResponse, error)
	Replied() bool
}

// RegisterSteps registers protocol-level step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &mcpSteps{tc: tc}

	ctx.Step(`^I send the message:$`, steps.sendMessage)
	ctx.Step(`^I send the message '([^']*)'$`, steps.sendInlineMessage)

	ctx.Step(`^the response is a JSON-RPC error with code (-?\d+)$`, steps.responseIsError)
	ctx.Step(`^the error message is "([^"]*)"$`, steps.errorMessageIs)
	ctx.Step(`^the error message contains "([^"]*)"$`, steps.errorMessageContains)
	ctx.Step(`^no response is sent$`, steps.noResponse)
	ctx.Step(`^the response has id (\d+)$`, steps.responseHasID)
}

type mcpSteps struct {
	tc TestContext
}

func (s *mcpSteps) sendMessage(ctx context.Context, body *godog.DocString) error {
	s.tc.Send(ctx, []byte(body.Content))
	return nil
}

func (s *mcpSteps) sendInlineMessage(ctx context.Context, msg string) error {
	s.tc.Send(ctx, []byte(msg))
	return nil
}

func (s *mcpSteps) responseIsError(ctx context.Context, code int) error {
	resp, err := s.tc.Response()
	if err != nil {
		return err
	}
	if resp.Error == nil {
		return fmt.Errorf("expected error %d, got a result", code)
	}
	if resp.Error.Code != code {
		return fmt.Errorf("expected error code %d, got %d (%s)", code, resp.Error.Code, resp.Error.Message)
	}
	return nil
}

func (s *mcpSteps) errorMessageIs(ctx context.Context, message string) error {
	resp, err := s.tc.Response()
	if err != nil {
		return err
	}
	if resp.Error == nil || resp.Error.Message != message {
		return fmt.Errorf("expected error message %q, got %+v", message, resp.Error)
	}
	return nil
}

func (s *mcpSteps) errorMessageContains(ctx context.Context, fragment string) error {
	resp, err := s.tc.Response()
	if err != nil {
		return err
	}
	if resp.Error == nil || !strings.Contains(resp.Error.Message, fragment) {
		return fmt.Errorf("expected error message containing %q, got %+v", fragment, resp.Error)
	}
	return nil
}

func (s *mcpSteps) noResponse(ctx context.Context) error {
	if s.tc.Replied() {
		return fmt.Errorf("expected no response to a notification")
	}
	return nil
}

func (s *mcpSteps) responseHasID(ctx context.Context, id string) error {
	resp, err := s.tc.Response()
	if err != nil {
		return err
	}
	if string(resp.ID) != id {
		return fmt.Errorf("expected id %s, got %s", id, resp.ID)
	}
	return nil
}

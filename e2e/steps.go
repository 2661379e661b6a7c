package e2e

import (
	"github.com/cucumber/godog"

	"plaingov/e2e/steps/mcp"
	"plaingov/e2e/steps/tools"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Protocol framing: raw messages, error codes, notifications
	mcp.RegisterSteps(ctx, tc)

	// Official sources and tool calls
	tools.RegisterSteps(ctx, tc)
}

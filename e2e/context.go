// Package e2e drives the MCP server end to end: JSON-RPC messages in, composed
// text out, with official sources served by a local fixture server.
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"plaingov/internal/dispatch"
	"plaingov/internal/eligibility"
	"plaingov/internal/mcp"
	"plaingov/internal/program"
	"plaingov/internal/retrieval"
	"plaingov/pkg/testutil"

	"github.com/cenkalti/backoff/v4"
)

// TestContext holds one scenario's server and its last exchange.
type TestContext struct {
	t        *testing.T
	sources  *testutil.SourceServer
	registry *program.Registry
	server   *mcp.Server

	nextID       int
	lastResponse []byte
	lastReplied  bool
}

// NewTestContext builds a server whose catalog points every program at the
// fixture server, at /<program id>.
func NewTestContext(t *testing.T) (*TestContext, error) {
	sources := testutil.NewSourceServer(t)

	base, err := program.Default()
	if err != nil {
		return nil, err
	}
	descriptors := base.All()
	for i := range descriptors {
		descriptors[i].URL = sources.URL("/" + descriptors[i].ID)
	}
	registry, err := program.New(descriptors)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.DiscardHandler)
	retriever := retrieval.New(
		retrieval.WithClock(testutil.Clock()),
		retrieval.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
		retrieval.WithLogger(logger),
	)
	dispatcher, err := dispatch.New(registry, retriever, eligibility.NewEngine(), dispatch.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	server, err := mcp.NewServer(dispatcher, mcp.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &TestContext{t: t, sources: sources, registry: registry, server: server}, nil
}

// Serve registers the official page for programID.
func (tc *TestContext) Serve(programID string, page testutil.Page) {
	tc.sources.Serve("/"+programID, page)
}

// SourceURL returns the fixture URL for programID.
func (tc *TestContext) SourceURL(programID string) (string, error) {
	d, err := tc.registry.Lookup(programID)
	if err != nil {
		return "", err
	}
	return d.URL, nil
}

// Send delivers one raw message and records the reply.
func (tc *TestContext) Send(ctx context.Context, msg []byte) {
	tc.lastResponse, tc.lastReplied = tc.server.Handle(ctx, msg)
}

// CallTool sends a tools/call request with a fresh id.
func (tc *TestContext) CallTool(ctx context.Context, tool string, args any) error {
	tc.nextID++
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      tc.nextID,
		"method":  "tools/call",
		"params":  map[string]any{"name": tool, "arguments": args},
	})
	if err != nil {
		return err
	}
	tc.Send(ctx, msg)
	return nil
}

// Response decodes the last reply.
func (tc *TestContext) Response() (testutil.RPCResponse, error) {
	var resp testutil.RPCResponse
	if !tc.lastReplied {
		return resp, fmt.Errorf("no response was sent")
	}
	if err := json.Unmarshal(tc.lastResponse, &resp); err != nil {
		return resp, fmt.Errorf("malformed response %s: %w", tc.lastResponse, err)
	}
	return resp, nil
}

// ResponseText returns the text content of the last successful tool call.
func (tc *TestContext) ResponseText() (string, error) {
	resp, err := tc.Response()
	if err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("expected a result, got error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if resp.Result == nil || len(resp.Result.Content) != 1 {
		return "", fmt.Errorf("expected exactly one content item: %s", tc.lastResponse)
	}
	return resp.Result.Content[0].Text, nil
}

// Replied reports whether the last message produced a reply.
func (tc *TestContext) Replied() bool {
	return tc.lastReplied
}

// Hits returns how many times programID's source was fetched.
func (tc *TestContext) Hits(programID string) int {
	return tc.sources.Hits("/" + programID)
}

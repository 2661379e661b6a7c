// Package testutil provides common test utilities for transport, end-to-end
// and integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// RPCRequest marshals a JSON-RPC 2.0 request.
func RPCRequest(t testing.TB, id int, method string, params any) []byte {
	t.Helper()
	msg := map[string]any{"jsonrpc": "2.0", "id": id, "method": method}
	if params != nil {
		msg["params"] = params
	}
	return MustMarshal(t, msg)
}

// ToolCall marshals a tools/call request for tool with args.
func ToolCall(t testing.TB, id int, tool string, args any) []byte {
	t.Helper()
	return RPCRequest(t, id, "tools/call", map[string]any{"name": tool, "arguments": args})
}

// RPCResponse is the decoded shape of a JSON-RPC response as clients see it.
type RPCResponse struct {
	ID     json.RawMessage `json:"id"`
	Result *struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// DecodeRPC parses a JSON-RPC response, failing the test on malformed input.
func DecodeRPC(t testing.TB, raw []byte) RPCResponse {
	t.Helper()
	var resp RPCResponse
	require.NoError(t, json.Unmarshal(raw, &resp), "malformed response: %s", raw)
	return resp
}

// ToolText returns the single text content of a successful tools/call
// response.
func ToolText(t testing.TB, raw []byte) string {
	t.Helper()
	resp := DecodeRPC(t, raw)
	require.Nil(t, resp.Error, "unexpected error response: %s", raw)
	require.NotNil(t, resp.Result, "missing result: %s", raw)
	require.Len(t, resp.Result.Content, 1)
	require.Equal(t, "text", resp.Result.Content[0].Type)
	return resp.Result.Content[0].Text
}

// NewJSONRequest creates an HTTP request with a raw JSON body.
func NewJSONRequest(t testing.TB, method, path string, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// MustMarshal marshals a value to JSON, failing the test on error.
func MustMarshal(t testing.TB, v any) []byte {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err, "failed to marshal value")
	return body
}

// Package mcp serves the tool dispatcher over the Model Context Protocol
// (JSON-RPC 2.0). Transports hand raw messages to Server.Handle and write
// back whatever it returns.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"plaingov/internal/dispatch"
	dErrors "plaingov/pkg/domain-errors"
	"plaingov/pkg/requestcontext"
)

const (
	ProtocolVersion = "2024-11-05"
	ServerName      = "plain-gov-mcp"
	ServerVersion   = "0.1.0"

	jsonRPCVersion = "2.0"
)

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

const (
	methodInitialize  = "initialize"
	methodInitialized = "notifications/initialized"
	methodPing        = "ping"
	methodToolsList   = "tools/list"
	methodToolsCall   = "tools/call"
)

var nullID = json.RawMessage("null")

// Request is a JSON-RPC request or notification. A request without an id is
// a notification and never gets a response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (r Request) isNotification() bool {
	return len(r.ID) == 0
}

// Response is a JSON-RPC response. Exactly one of Result and Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// TextContent is the only content block this server produces.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolCallResult is the result of tools/call.
type ToolCallResult struct {
	Content []TextContent `json:"content"`
}

type Dispatcher interface {
	Call(ctx context.Context, name string, args json.RawMessage) (*dispatch.Result, error)
	Tools() []dispatch.ToolSpec
}

// Server implements the MCP method set on top of a Dispatcher.
type Server struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func NewServer(dispatcher Dispatcher, opts ...Option) (*Server, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	s := &Server{
		dispatcher: dispatcher,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handle processes one JSON-RPC message. The second return value is false
// when no response must be sent (notifications and blank input).
func (s *Server) Handle(ctx context.Context, msg []byte) ([]byte, bool) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 {
		return nil, false
	}
	if msg[0] == '[' {
		return s.encode(errorResponse(nullID, CodeInvalidRequest, "batch requests are not supported")), true
	}

	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		if json.Valid(msg) {
			return s.encode(errorResponse(nullID, CodeInvalidRequest, "invalid request")), true
		}
		return s.encode(errorResponse(nullID, CodeParseError, "parse error")), true
	}
	if req.JSONRPC != jsonRPCVersion || req.Method == "" {
		if req.isNotification() {
			return nil, false
		}
		return s.encode(errorResponse(req.ID, CodeInvalidRequest, "invalid request")), true
	}

	if requestcontext.RequestID(ctx) == "" {
		ctx = requestcontext.WithRequestID(ctx, uuid.NewString())
	}

	result, rpcErr := s.dispatch(ctx, req)
	if req.isNotification() {
		return nil, false
	}
	if rpcErr != nil {
		return s.encode(Response{JSONRPC: jsonRPCVersion, ID: req.ID, Error: rpcErr}), true
	}
	return s.encode(Response{JSONRPC: jsonRPCVersion, ID: req.ID, Result: result}), true
}

func (s *Server) dispatch(ctx context.Context, req Request) (any, *Error) {
	switch req.Method {
	case methodInitialize:
		return map[string]any{
			"protocolVersion": ProtocolVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{"listChanged": false},
			},
			"serverInfo": map[string]any{
				"name":    ServerName,
				"version": ServerVersion,
			},
		}, nil
	case methodInitialized:
		return map[string]any{}, nil
	case methodPing:
		return map[string]any{}, nil
	case methodToolsList:
		return map[string]any{"tools": s.dispatcher.Tools()}, nil
	case methodToolsCall:
		return s.callTool(ctx, req.Params)
	}
	return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("Method not found: %s", req.Method)}
}

func (s *Server) callTool(ctx context.Context, raw json.RawMessage) (any, *Error) {
	var params toolCallParams
	if len(raw) == 0 || json.Unmarshal(raw, &params) != nil || params.Name == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "params must be an object with a tool name"}
	}

	res, err := s.dispatcher.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		return nil, s.toRPCError(ctx, params.Name, err)
	}
	return ToolCallResult{Content: []TextContent{{Type: "text", Text: res.Text}}}, nil
}

// toRPCError maps coded domain errors onto JSON-RPC codes. Only caller
// mistakes keep their message.
func (s *Server) toRPCError(ctx context.Context, tool string, err error) *Error {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation, dErrors.CodeNotFound, dErrors.CodeBadRequest:
		return &Error{Code: CodeInvalidParams, Message: dErrors.PublicMessage(err)}
	}
	s.logger.ErrorContext(ctx, "tool call failed",
		"request_id", requestcontext.RequestID(ctx),
		"tool", tool,
		"error", err,
	)
	return &Error{Code: CodeInternalError, Message: dErrors.PublicMessage(err)}
}

func errorResponse(id json.RawMessage, code int, message string) Response {
	if len(id) == 0 {
		id = nullID
	}
	return Response{JSONRPC: jsonRPCVersion, ID: id, Error: &Error{Code: code, Message: message}}
}

func (s *Server) encode(resp Response) []byte {
	out, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		out, _ = json.Marshal(errorResponse(resp.ID, CodeInternalError, "internal error"))
	}
	return out
}

// Package transport binds the tool dispatcher to its two wire formats: a
// JSON-RPC session over stdin/stdout and an HTTP event-stream binding. Both
// feed one shared method router so the capability table and envelope shapes
// are identical on either channel.
package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pksorensen/uxplay-windows-mcp/internal/tool"
)

// JSON-RPC 2.0 error codes used by both bindings.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// ProtocolVersion is the MCP revision both transports speak.
const ProtocolVersion = "2024-11-05"

// Message is a raw JSON-RPC 2.0 envelope. The SSE binding decodes and
// encodes these directly; the stdio binding delegates framing to jsonrpc2.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObj       `json:"error,omitempty"`
}

// ErrorObj is a JSON-RPC 2.0 error object.
type ErrorObj struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      serverInfo     `json:"serverInfo"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Router maps MCP methods onto the dispatcher. It is stateless; both
// transports share one instance.
type Router struct {
	disp    *tool.Dispatcher
	name    string
	version string
}

// NewRouter builds a router advertising the given server identity.
func NewRouter(disp *tool.Dispatcher, name, version string) *Router {
	return &Router{disp: disp, name: name, version: version}
}

// Handle processes one request. A nil result with a nil error means the
// method was a notification and no response should be sent.
func (r *Router) Handle(ctx context.Context, method string, params json.RawMessage) (any, *ErrorObj) {
	switch method {
	case "initialize":
		return initializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    map[string]any{"tools": map[string]any{}},
			ServerInfo:      serverInfo{Name: r.name, Version: r.version},
		}, nil

	case "notifications/initialized", "exit":
		return nil, nil

	case "ping":
		return map[string]any{}, nil

	case "tools/list":
		return map[string]any{"tools": r.disp.List()}, nil

	case "tools/call":
		var p callParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &ErrorObj{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
		}
		res, err := r.disp.Call(ctx, p.Name, p.Arguments)
		if err != nil {
			// Only ErrUnknownTool reaches here; it is caller misuse and
			// the one failure reported at the protocol level.
			return nil, &ErrorObj{Code: CodeMethodNotFound, Message: err.Error()}
		}
		return res, nil

	default:
		return nil, &ErrorObj{Code: CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", method)}
	}
}

package server

import (
	"encoding/json"
	"fmt"
)

// JSONRPCVersion is the only protocol version accepted.
const JSONRPCVersion = "2.0"

// ProtocolVersion is reported by initialize.
const ProtocolVersion = "2024-11-05"

// Method names.
const (
	MethodInitialize = "initialize"
	MethodToolsList  = "tools/list"
	MethodToolsCall  = "tools/call"
	MethodPing       = "ping"
)

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is a JSON-RPC request or notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	ID      json.RawMessage `json:"id,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no id.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

// Response is a JSON-RPC response. Exactly one of Result and Error is set.
type Response struct {
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
}

// RPCError is a JSON-RPC error object. It also implements error on the client
// side.
type RPCError struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Implementation names a server or client.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is returned by initialize.
type InitializeResult struct {
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      Implementation `json:"serverInfo"`
	ProtocolVersion string         `json:"protocolVersion"`
}

// ToolAnnotations carries hints about a tool's behaviour.
type ToolAnnotations struct {
	UsesLLM bool `json:"usesLLM"`
}

// ToolInfo describes one tool in tools/list.
type ToolInfo struct {
	InputSchema map[string]any  `json:"inputSchema"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Annotations ToolAnnotations `json:"annotations"`
}

// ListToolsResult is returned by tools/list.
type ListToolsResult struct {
	Tools []ToolInfo `json:"tools"`
}

// CallToolParams are the params of tools/call.
type CallToolParams struct {
	Arguments map[string]any `json:"arguments,omitempty"`
	Name      string         `json:"name"`
}

// Content is one block of tool output.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallToolResult is returned by tools/call.
type CallToolResult struct {
	Path    string    `json:"path,omitempty"`
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

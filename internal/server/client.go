package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Veraticus/autonomous-analyst/internal/tools"
)

const defaultClientTimeout = 5 * time.Minute

// Client calls a remote tool server.
type Client struct {
	httpClient *http.Client
	endpoint   string
	nextID     atomic.Int64
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + "/mcp",
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Initialize performs the protocol handshake and returns the server identity.
func (c *Client) Initialize(ctx context.Context) (InitializeResult, error) {
	var out InitializeResult
	err := c.call(ctx, MethodInitialize, map[string]any{
		"protocolVersion": ProtocolVersion,
		"clientInfo":      Implementation{Name: Name + "-client", Version: "1"},
		"capabilities":    map[string]any{},
	}, &out)
	return out, err
}

// ListTools returns the tools the server offers.
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	var out ListToolsResult
	if err := c.call(ctx, MethodToolsList, nil, &out); err != nil {
		return nil, err
	}
	return out.Tools, nil
}

// CallTool invokes a tool and returns its result. A result with IsError set
// is not a Go error; only transport and protocol failures are.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (tools.Result, error) {
	var out CallToolResult
	if err := c.call(ctx, MethodToolsCall, CallToolParams{Name: name, Arguments: args}, &out); err != nil {
		return tools.Result{}, err
	}

	texts := make([]string, 0, len(out.Content))
	for _, block := range out.Content {
		if block.Type == "text" {
			texts = append(texts, block.Text)
		}
	}
	return tools.Result{
		Text:    strings.Join(texts, "\n"),
		Path:    out.Path,
		IsError: out.IsError,
	}, nil
}

func (c *Client) call(ctx context.Context, method string, params, out any) error {
	id := c.nextID.Add(1)
	body := map[string]any{
		"jsonrpc": JSONRPCVersion,
		"id":      id,
		"method":  method,
	}
	if params != nil {
		body["params"] = params
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tool server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var rpcResp struct {
		Error  *RPCError       `json:"error"`
		ID     json.RawMessage `json:"id"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if string(rpcResp.ID) != strconv.FormatInt(id, 10) {
		return fmt.Errorf("response id %s does not match request id %d", rpcResp.ID, id)
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("failed to parse %s result: %w", method, err)
	}
	return nil
}

// Package bridge translates JSON-RPC calls into transport operations against
// an MCP tool server. One protocol, two transports: a request/response HTTP
// endpoint and a line-oriented subprocess stream.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/modelgate/gateagent/internal/model"
	"github.com/modelgate/gateagent/internal/protocol"
)

// Transport carries one serialized request envelope to the server and
// returns one serialized response envelope. Implementations map their own
// failure modes onto *RPCError codes; anything else they return as-is.
type Transport interface {
	RoundTrip(ctx context.Context, payload []byte) ([]byte, error)
	Close() error
}

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      int            `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ServerInfo is the identity a server reports from initialize.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Client drives one MCP server over one transport. Request ids are
// monotonically increasing integers unique per client, starting at 1.
type Client struct {
	transport Transport
	verbose   bool
	logf      func(format string, args ...any)

	mu     sync.Mutex
	nextID int
}

// New creates a client over the given transport.
func New(transport Transport, verbose bool) *Client {
	return &Client{
		transport: transport,
		verbose:   verbose,
		logf:      verboseLogf(verbose),
		nextID:    1,
	}
}

func (c *Client) Close() error {
	return c.transport.Close()
}

// Call performs one JSON-RPC round trip and returns the raw result member.
// A response carrying an error member is returned as *RPCError; no retry is
// performed, a failed call surfaces immediately.
func (c *Client) Call(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.mu.Unlock()

	if params == nil {
		params = map[string]any{}
	}
	payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return nil, err
	}

	c.logf("[mcp] -> %s (id=%d)", method, id)
	body, err := c.transport.RoundTrip(ctx, payload)
	if err != nil {
		c.logf("[mcp] <- %s failed: %v", method, err)
		return nil, err
	}

	var envelope rpcResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &RPCError{Code: protocol.CodeDecodeFailure, Message: "undecodable response body", Cause: err}
	}
	if envelope.Error != nil {
		return nil, &RPCError{Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	c.logf("[mcp] <- %s ok", method)
	return envelope.Result, nil
}

// Initialize performs the MCP handshake and returns the server identity.
func (c *Client) Initialize(ctx context.Context) (ServerInfo, error) {
	params := map[string]any{
		"protocolVersion": protocol.Version,
		"capabilities":    map[string]any{"tools": map[string]any{}},
		"clientInfo":      map[string]any{"name": "gateagent", "version": "0.1.0"},
	}
	raw, err := c.Call(ctx, protocol.RPCMethodInitialize, params)
	if err != nil {
		return ServerInfo{}, err
	}
	var result struct {
		ServerInfo ServerInfo `json:"serverInfo"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return ServerInfo{}, &RPCError{Code: protocol.CodeDecodeFailure, Message: "invalid initialize result", Cause: err}
	}
	return result.ServerInfo, nil
}

// ListTools fetches all descriptors the server exposes. This is the
// admin/debugging path; discovery through tool_search is the normal one.
func (c *Client) ListTools(ctx context.Context) ([]model.ToolDescriptor, error) {
	raw, err := c.Call(ctx, protocol.RPCMethodToolsList, nil)
	if err != nil {
		return nil, err
	}
	var result struct {
		Tools []model.ToolDescriptor `json:"tools"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &RPCError{Code: protocol.CodeDecodeFailure, Message: "invalid tools/list result", Cause: err}
	}
	return result.Tools, nil
}

// CallTool executes one tool call and normalizes the result.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*model.ToolResult, error) {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := c.Call(ctx, protocol.RPCMethodToolsCall, map[string]any{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		return nil, err
	}
	var result struct {
		Content []model.ContentItem `json:"content"`
		IsError bool                `json:"isError"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &RPCError{Code: protocol.CodeDecodeFailure, Message: "invalid tools/call result", Cause: err}
	}
	return &model.ToolResult{Content: result.Content, IsError: result.IsError}, nil
}

// Ping checks that the server is responsive.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Call(ctx, protocol.RPCMethodPing, nil)
	return err
}

func verboseLogf(verbose bool) func(format string, args ...any) {
	if !verbose {
		return func(string, ...any) {}
	}
	return func(format string, args ...any) {
		fmt.Println(fmt.Sprintf(format, args...))
	}
}

package toolserver

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/modelgate/gateagent/internal/model"
	"github.com/modelgate/gateagent/internal/protocol"
)

const (
	serverName    = "gatetools"
	serverVersion = "0.1.0"
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type response struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      any        `json:"id"`
	Result  any        `json:"result,omitempty"`
	Error   *respError `json:"error,omitempty"`
}

type respError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server dispatches JSON-RPC requests against a tool registry. It is
// transport-agnostic; the stdio and HTTP frontends feed it one decoded
// request at a time.
type Server struct {
	registry *Registry
	logf     func(format string, args ...any)
}

// NewServer wraps a registry and exposes it over MCP, including the
// tool_search entry that fronts the registry's own Search.
func NewServer(registry *Registry, verbose bool) *Server {
	s := &Server{
		registry: registry,
		logf:     stderrLogf(verbose),
	}
	registry.Register(searchTool(registry))
	return s
}

// searchTool is the discovery entry point: it searches the sibling tools in
// the same registry and returns their definitions, score-annotated.
func searchTool(registry *Registry) Tool {
	return Tool{
		Descriptor: model.ToolDescriptor{
			Name:        protocol.ToolNameSearch,
			Description: "Search for tools by natural language query. Returns tool definitions that can be added to context.",
			InputSchema: objectSchema(map[string]any{
				"query":       prop("string", "Natural language description of the capability you're looking for"),
				"category":    prop("string", "Optional category filter (messaging, file-system, database, api, shell, utilities, other)"),
				"max_results": prop("integer", "Maximum number of tools to return (default: 5)"),
			}, "query"),
		},
		Category: "utilities",
		Handler: func(args map[string]any) (map[string]any, error) {
			query := stringArg(args, "query", "")
			if query == "" {
				return nil, fmt.Errorf("query is required")
			}
			matches := registry.Search(query, stringArg(args, "category", ""), intArg(args, "max_results", 5))
			return map[string]any{
				"query": query,
				"count": len(matches),
				"tools": matches,
			}, nil
		},
	}
}

// HandleRequest processes one decoded JSON-RPC request. Unknown methods map
// to -32601; a panic-free handler error inside tools/call is a tool-level
// result, while malformed params map to -32602.
func (s *Server) HandleRequest(req request) response {
	s.logf("[gatetools] <- %s", req.Method)
	switch req.Method {
	case protocol.RPCMethodInitialize:
		return okResponse(req.ID, map[string]any{
			"protocolVersion": protocol.Version,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo": map[string]any{
				"name":    serverName,
				"version": serverVersion,
			},
		})
	case protocol.RPCMethodToolsList:
		return okResponse(req.ID, map[string]any{
			"tools": s.registry.Definitions(),
		})
	case protocol.RPCMethodToolsCall:
		return s.handleToolCall(req)
	case protocol.RPCMethodPing:
		return okResponse(req.ID, map[string]any{})
	default:
		return errResponse(req.ID, protocol.CodeMethodNotFound, "method not found: "+req.Method)
	}
}

func (s *Server) handleToolCall(req request) response {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(req.ID, protocol.CodeInvalidParams, "invalid tools/call params")
		}
	}
	if params.Name == "" {
		return errResponse(req.ID, protocol.CodeInvalidParams, "tool name is required")
	}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	s.logf("[gatetools] tool call: %s", params.Name)
	result, err := s.registry.Call(params.Name, params.Arguments)
	if err != nil {
		// Tool failures ride inside a successful envelope so the caller can
		// show them to the model.
		return okResponse(req.ID, map[string]any{
			"content": []map[string]any{{"type": "text", "text": err.Error()}},
			"isError": true,
		})
	}

	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errResponse(req.ID, protocol.CodeInternalError, "failed to serialize tool result")
	}
	return okResponse(req.ID, map[string]any{
		"content": []map[string]any{{"type": "text", "text": string(text)}},
		"isError": false,
	})
}

// HandleLine processes one serialized request and returns one serialized
// response. A line that does not parse as JSON yields the canonical parse
// error envelope with a null id.
func (s *Server) HandleLine(line []byte) []byte {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		out, _ := json.Marshal(errResponse(nil, protocol.CodeParseError, "parse error"))
		return out
	}
	out, err := json.Marshal(s.HandleRequest(req))
	if err != nil {
		out, _ = json.Marshal(errResponse(req.ID, protocol.CodeInternalError, "failed to serialize response"))
	}
	return out
}

func okResponse(id any, result any) response {
	return response{JSONRPC: "2.0", ID: id, Result: result}
}

func errResponse(id any, code int, message string) response {
	return response{JSONRPC: "2.0", ID: id, Error: &respError{Code: code, Message: message}}
}

func stderrLogf(verbose bool) func(format string, args ...any) {
	if !verbose {
		return func(string, ...any) {}
	}
	return func(format string, args ...any) {
		fmt.Fprintln(os.Stderr, fmt.Sprintf(format, args...))
	}
}

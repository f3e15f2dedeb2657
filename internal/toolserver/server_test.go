package toolserver

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelgate/gateagent/internal/protocol"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	registry, db, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewServer(registry, false)
}

func decodeResponse(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("response is not valid JSON: %v\n%s", err, raw)
	}
	if out["jsonrpc"] != "2.0" {
		t.Fatalf("response is not a JSON-RPC envelope: %s", raw)
	}
	return out
}

func callTool(t *testing.T, s *Server, name string, args map[string]any) (text string, isError bool) {
	t.Helper()
	params, _ := json.Marshal(map[string]any{"name": name, "arguments": args})
	line, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": protocol.RPCMethodToolsCall,
		"params": json.RawMessage(params),
	})
	resp := decodeResponse(t, s.HandleLine(line))
	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("tools/call returned no result: %v", resp)
	}
	content, _ := result["content"].([]any)
	if len(content) != 1 {
		t.Fatalf("expected one content block, got %d", len(content))
	}
	block := content[0].(map[string]any)
	isError, _ = result["isError"].(bool)
	return block["text"].(string), isError
}

func TestHandleLine_ParseErrorHasNullID(t *testing.T) {
	s := newTestServer(t)
	resp := decodeResponse(t, s.HandleLine([]byte("this is not json")))
	if resp["id"] != nil {
		t.Fatalf("parse error id = %v, want null", resp["id"])
	}
	errObj := resp["error"].(map[string]any)
	if int(errObj["code"].(float64)) != protocol.CodeParseError {
		t.Fatalf("code = %v, want %d", errObj["code"], protocol.CodeParseError)
	}
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s := newTestServer(t)
	resp := decodeResponse(t, s.HandleLine([]byte(`{"jsonrpc":"2.0","id":5,"method":"bogus/method"}`)))
	errObj := resp["error"].(map[string]any)
	if int(errObj["code"].(float64)) != protocol.CodeMethodNotFound {
		t.Fatalf("code = %v, want %d", errObj["code"], protocol.CodeMethodNotFound)
	}
	if resp["id"].(float64) != 5 {
		t.Fatalf("id = %v, want 5", resp["id"])
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := newTestServer(t)
	resp := decodeResponse(t, s.HandleLine([]byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)))
	result := resp["result"].(map[string]any)
	if result["protocolVersion"] != protocol.Version {
		t.Fatalf("protocolVersion = %v", result["protocolVersion"])
	}
	info := result["serverInfo"].(map[string]any)
	if info["name"] != serverName {
		t.Fatalf("server name = %v", info["name"])
	}
}

func TestHandleRequest_ToolsListIncludesSearch(t *testing.T) {
	s := newTestServer(t)
	resp := decodeResponse(t, s.HandleLine([]byte(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)))
	result := resp["result"].(map[string]any)
	tools := result["tools"].([]any)
	if len(tools) < 10 {
		t.Fatalf("only %d tools listed", len(tools))
	}
	found := false
	for _, item := range tools {
		if item.(map[string]any)["name"] == protocol.ToolNameSearch {
			found = true
		}
	}
	if !found {
		t.Fatal("tool_search missing from tools/list")
	}
}

func TestCallTool_Calculator(t *testing.T) {
	s := newTestServer(t)
	text, isError := callTool(t, s, "calculator", map[string]any{"expression": "sqrt(16) + 2"})
	if isError {
		t.Fatalf("calculator errored: %s", text)
	}
	var result struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		t.Fatalf("result not json: %v", err)
	}
	if result.Result != "6" {
		t.Fatalf("result = %q, want 6", result.Result)
	}
}

func TestCallTool_CalculatorRejectsBadExpression(t *testing.T) {
	s := newTestServer(t)
	text, isError := callTool(t, s, "calculator", map[string]any{"expression": "__import__('os')"})
	if !isError {
		t.Fatalf("expected tool error, got %s", text)
	}
}

func TestCallTool_UnknownToolIsToolLevelError(t *testing.T) {
	s := newTestServer(t)
	text, isError := callTool(t, s, "no_such_tool", nil)
	if !isError {
		t.Fatal("unknown tool should set isError")
	}
	if !strings.Contains(text, "unknown tool") {
		t.Fatalf("text = %q", text)
	}
}

func TestCallTool_DatabaseQuery(t *testing.T) {
	s := newTestServer(t)
	text, isError := callTool(t, s, "database_query", map[string]any{
		"query": "SELECT name, email FROM users ORDER BY id",
		"limit": 2,
	})
	if isError {
		t.Fatalf("database_query errored: %s", text)
	}
	var result struct {
		Rows     []map[string]any `json:"rows"`
		RowCount int              `json:"row_count"`
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		t.Fatalf("result not json: %v", err)
	}
	if result.RowCount != 2 {
		t.Fatalf("row_count = %d, want 2", result.RowCount)
	}
	if result.Rows[0]["name"] != "Test User 1" {
		t.Fatalf("first row = %v", result.Rows[0])
	}
}

func TestCallTool_ShellAllowlist(t *testing.T) {
	s := newTestServer(t)
	if text, isError := callTool(t, s, "execute_shell", map[string]any{"command": "rm -rf /"}); !isError {
		t.Fatalf("dangerous command should be rejected, got %s", text)
	}
	text, isError := callTool(t, s, "execute_shell", map[string]any{"command": "echo hi"})
	if isError {
		t.Fatalf("echo should be allowed: %s", text)
	}
	if !strings.Contains(text, "hi") {
		t.Fatalf("stdout missing: %s", text)
	}
}

func TestCallTool_HashText(t *testing.T) {
	s := newTestServer(t)
	text, isError := callTool(t, s, "hash_text", map[string]any{"text": "abc", "algorithm": "sha256"})
	if isError {
		t.Fatalf("hash_text errored: %s", text)
	}
	if !strings.Contains(text, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad") {
		t.Fatalf("unexpected digest: %s", text)
	}
}

func TestCallTool_ToolSearchReturnsScoredMatches(t *testing.T) {
	s := newTestServer(t)
	text, isError := callTool(t, s, protocol.ToolNameSearch, map[string]any{"query": "calculate math expressions"})
	if isError {
		t.Fatalf("tool_search errored: %s", text)
	}
	var result struct {
		Count int              `json:"count"`
		Tools []map[string]any `json:"tools"`
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		t.Fatalf("result not json: %v", err)
	}
	if result.Count == 0 {
		t.Fatal("no matches for a math query")
	}
	top := result.Tools[0]
	if top["name"] != "calculator" {
		t.Fatalf("top match = %v, want calculator", top["name"])
	}
	if _, ok := top["_score"]; !ok {
		t.Fatal("_score metadata missing")
	}
	if _, ok := top["_category"]; !ok {
		t.Fatal("_category metadata missing")
	}
}

func TestHandleRequest_InvalidToolCallParams(t *testing.T) {
	s := newTestServer(t)
	resp := decodeResponse(t, s.HandleLine([]byte(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"arguments":{}}}`)))
	errObj := resp["error"].(map[string]any)
	if int(errObj["code"].(float64)) != protocol.CodeInvalidParams {
		t.Fatalf("code = %v, want %d", errObj["code"], protocol.CodeInvalidParams)
	}
}

package toolserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler_HealthAndTools(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler(HTTPOptions{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}

	resp2, err := http.Get(srv.URL + "/tools")
	if err != nil {
		t.Fatalf("tools: %v", err)
	}
	defer func() {
		_ = resp2.Body.Close()
	}()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("tools status = %d", resp2.StatusCode)
	}
}

func TestHandler_MCPEndpoint(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler(HTTPOptions{MCPPath: "/mcp"}))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/mcp", "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	// GET on the MCP path is not allowed.
	getResp, err := http.Get(srv.URL + "/mcp")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = getResp.Body.Close()
	if getResp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d", getResp.StatusCode)
	}
}

func TestHandler_BearerAuth(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler(HTTPOptions{MCPPath: "/mcp", AuthToken: "secret"}))
	defer srv.Close()

	// Missing token.
	resp, err := http.Post(srv.URL+"/mcp", "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status without token = %d", resp.StatusCode)
	}

	// Correct token.
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/mcp",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	req.Header.Set("Authorization", "Bearer secret")
	authResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("authorized post: %v", err)
	}
	_ = authResp.Body.Close()
	if authResp.StatusCode != http.StatusOK {
		t.Fatalf("status with token = %d", authResp.StatusCode)
	}
}

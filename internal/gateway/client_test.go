package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelgate/gateagent/internal/model"
)

func TestChat_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Fatalf("unexpected auth header: %q", got)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["model"] != "openai/gpt-4.1" {
			t.Fatalf("unexpected model: %#v", req["model"])
		}
		if _, ok := req["tools"].([]any); !ok {
			t.Fatalf("tools array missing: %#v", req["tools"])
		}

		_, _ = w.Write([]byte(`{
			"choices":[{"message":{"role":"assistant","content":"","tool_calls":[
				{"id":"call_1","type":"function","function":{"name":"tool_search","arguments":"{\"query\":\"math\"}"}}
			]}}],
			"usage":{"total_tokens":123}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "openai/gpt-4.1", 0.7)
	result, err := c.Chat(context.Background(),
		[]model.Message{model.UserMessage("2+2?")},
		[]map[string]any{{"type": "function"}})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if result.TotalTokens != 123 {
		t.Fatalf("TotalTokens = %d", result.TotalTokens)
	}
	if len(result.Message.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(result.Message.ToolCalls))
	}
	call := result.Message.ToolCalls[0]
	if call.Function.Name != "tool_search" {
		t.Fatalf("tool name = %q", call.Function.Name)
	}
	if args := call.ParsedArguments(); args["query"] != "math" {
		t.Fatalf("parsed arguments = %#v", args)
	}
}

func TestChat_MissingAPIKey(t *testing.T) {
	c := NewClient("http://example.test", "", "m", 0)
	_, err := c.Chat(context.Background(), nil, nil)
	var ge *model.GatewayError
	if !errors.As(err, &ge) || ge.Code != "GATEWAY_AUTH" {
		t.Fatalf("expected GATEWAY_AUTH, got %v", err)
	}
}

func TestChat_ErrorBodyMapping(t *testing.T) {
	cases := []struct {
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{http.StatusUnauthorized, `{"error":{"message":"bad key","type":"auth"}}`, "GATEWAY_AUTH", "bad key"},
		{http.StatusTooManyRequests, `slow down`, "GATEWAY_RATE_LIMIT", "slow down"},
		{http.StatusBadGateway, ``, "GATEWAY_UPSTREAM", "Bad Gateway"},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		c := NewClient(srv.URL, "key", "m", 0)
		_, err := c.Chat(context.Background(), nil, nil)
		srv.Close()

		var ge *model.GatewayError
		if !errors.As(err, &ge) {
			t.Fatalf("status %d: expected GatewayError, got %v", tc.status, err)
		}
		if ge.Code != tc.wantCode || ge.Message != tc.wantMsg {
			t.Fatalf("status %d: got %s/%q, want %s/%q", tc.status, ge.Code, ge.Message, tc.wantCode, tc.wantMsg)
		}
	}
}

func TestChat_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[],"usage":{"total_tokens":1}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "m", 0)
	var ge *model.GatewayError
	if _, err := c.Chat(context.Background(), nil, nil); !errors.As(err, &ge) || ge.Code != "GATEWAY_DECODE" {
		t.Fatalf("expected GATEWAY_DECODE, got %v", err)
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"openai/gpt-4.1","owned_by":"openai"},{"id":"anthropic/claude"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "m", 0)
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 2 || models[0].ID != "openai/gpt-4.1" {
		t.Fatalf("unexpected models: %+v", models)
	}
}

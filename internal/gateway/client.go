// Package gateway talks to a ModelGate (OpenAI-compatible) chat-completions
// endpoint. One request per model call, transcript replayed in full.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/modelgate/gateagent/internal/model"
)

const chatTimeout = 120 * time.Second

// Client calls the gateway's OpenAI-compatible API surface.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
}

func NewClient(baseURL, apiKey, chatModel string, temperature float64) *Client {
	return &Client{
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:      strings.TrimSpace(apiKey),
		model:       chatModel,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: chatTimeout},
	}
}

// Model reports the configured chat model identifier.
func (c *Client) Model() string {
	return c.model
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []model.Message  `json:"messages"`
	Tools       []map[string]any `json:"tools,omitempty"`
	Temperature float64          `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message model.Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Chat sends the full transcript plus the current tool schemas and returns
// the assistant message from the first choice. Any non-2xx response or
// undecodable body surfaces as *model.GatewayError.
func (c *Client) Chat(ctx context.Context, messages []model.Message, tools []map[string]any) (*model.ChatResult, error) {
	if c.apiKey == "" {
		return nil, &model.GatewayError{Code: "GATEWAY_AUTH", Message: "no API key configured, set MODELGATE_API_KEY"}
	}
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Tools:       tools,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, "/v1/chat/completions", payload)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &model.GatewayError{Code: "GATEWAY_DECODE", Message: "undecodable chat response", Cause: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &model.GatewayError{Code: "GATEWAY_DECODE", Message: "chat response carried no choices"}
	}
	msg := resp.Choices[0].Message
	if msg.Role == "" {
		msg.Role = model.RoleAssistant
	}
	return &model.ChatResult{Message: msg, TotalTokens: resp.Usage.TotalTokens}, nil
}

// ModelInfo is one entry of the gateway's model catalog.
type ModelInfo struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by"`
}

// ListModels fetches the gateway's model catalog.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	body, err := c.get(ctx, "/v1/models")
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data []ModelInfo `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &model.GatewayError{Code: "GATEWAY_DECODE", Message: "undecodable model list", Cause: err}
	}
	return resp.Data, nil
}

// Health checks the gateway's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.get(ctx, "/health")
	return err
}

func (c *Client) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &model.GatewayError{Code: "GATEWAY_TIMEOUT", Message: "gateway request timed out", Cause: err}
		}
		return nil, &model.GatewayError{Code: "GATEWAY_CONNECT", Message: "failed to reach gateway at " + c.baseURL, Cause: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.GatewayError{Code: "GATEWAY_READ", Message: "failed reading gateway response", StatusCode: resp.StatusCode, Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, gatewayErrorFromStatus(resp.StatusCode, body)
	}
	return body, nil
}

func gatewayErrorFromStatus(status int, body []byte) *model.GatewayError {
	message := strings.TrimSpace(string(body))
	var decoded errorBody
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error.Message != "" {
		message = decoded.Error.Message
	}
	if message == "" {
		message = http.StatusText(status)
	}

	code := "GATEWAY_HTTP"
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = "GATEWAY_AUTH"
	case status == http.StatusTooManyRequests:
		code = "GATEWAY_RATE_LIMIT"
	case status >= 500:
		code = "GATEWAY_UPSTREAM"
	}
	return &model.GatewayError{Code: code, Message: message, StatusCode: status}
}

// ActionableMessage turns a gateway failure into one line of guidance for
// the terminal.
func ActionableMessage(err error) string {
	var ge *model.GatewayError
	if !errors.As(err, &ge) {
		return err.Error()
	}
	switch ge.Code {
	case "GATEWAY_AUTH":
		return "Gateway rejected the API key. Set MODELGATE_API_KEY or [gateway].api_key in the config file."
	case "GATEWAY_CONNECT":
		return fmt.Sprintf("Cannot reach the gateway (%s). Is ModelGate running?", ge.Message)
	case "GATEWAY_TIMEOUT":
		return "Gateway request timed out. The model may be overloaded; try again."
	case "GATEWAY_RATE_LIMIT":
		return "Gateway rate limit hit. Wait a moment and retry."
	default:
		return ge.Error()
	}
}

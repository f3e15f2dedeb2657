package model

import (
	"encoding/json"
	"strings"
)

// Message roles on the chat wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the conversation transcript. The transcript is
// replayed verbatim to the gateway on every model call, so the JSON shape
// here is the OpenAI-compatible wire shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
	// ToolCalls is present only on assistant messages that request tool use.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID and Name are present only on tool-role messages and
	// reference the call they answer.
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func ToolMessage(callID, name, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Name: name, Content: content}
}

// ToolCall is one tool invocation requested by an assistant message.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type,omitempty"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the tool name and its arguments as serialized JSON,
// exactly as the gateway emits them.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ParsedArguments decodes the serialized argument payload. A malformed
// payload yields an empty argument set rather than an error: the tool still
// runs and can report the problem itself, which keeps the turn alive.
func (c ToolCall) ParsedArguments() map[string]any {
	raw := strings.TrimSpace(c.Function.Arguments)
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}

// ToolDescriptor is the schema/metadata describing one callable tool, as
// opposed to a live tool call.
type ToolDescriptor struct {
	Name          string           `json:"name"`
	Description   string           `json:"description,omitempty"`
	InputSchema   map[string]any   `json:"inputSchema,omitempty"`
	InputExamples []map[string]any `json:"inputExamples,omitempty"`
}

// FunctionSchema converts the MCP descriptor into the function-calling shape
// the gateway expects in its tools array.
func (d ToolDescriptor) FunctionSchema() map[string]any {
	params := d.InputSchema
	if params == nil {
		params = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	fn := map[string]any{
		"name":        d.Name,
		"description": d.Description,
		"parameters":  params,
	}
	if len(d.InputExamples) > 0 {
		fn["input_examples"] = d.InputExamples
	}
	return map[string]any{"type": "function", "function": fn}
}

// ChatResult is the normalized outcome of one model call: the assistant
// message plus the token usage the gateway billed for it.
type ChatResult struct {
	Message     Message
	TotalTokens int
}

// ContentItem is one content block of a tools/call result.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the normalized outcome of one tools/call round trip.
type ToolResult struct {
	Content []ContentItem
	IsError bool
}

// Text concatenates all text-typed content blocks in order, joined by
// newline. This is the canonical textual result of a tool call.
func (r *ToolResult) Text() string {
	if r == nil {
		return ""
	}
	parts := make([]string, 0, len(r.Content))
	for _, item := range r.Content {
		if item.Type == "text" {
			parts = append(parts, item.Text)
		}
	}
	return strings.Join(parts, "\n")
}

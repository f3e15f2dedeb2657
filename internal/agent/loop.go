package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelgate/gateagent/internal/model"
	"github.com/modelgate/gateagent/internal/protocol"
)

// DefaultMaxModelCalls bounds how many model round trips one turn may make.
// Tool batches between calls do not count against it.
const DefaultMaxModelCalls = 10

// ChatClient is the model side of the loop. *gateway.Client satisfies this;
// tests substitute scripted fakes.
type ChatClient interface {
	Chat(ctx context.Context, messages []model.Message, tools []map[string]any) (*model.ChatResult, error)
}

// Hooks lets a UI observe the turn as it unfolds. Any field may be nil.
type Hooks struct {
	OnModelCall  func(call int)
	OnToolCall   func(name string, args map[string]any)
	OnToolResult func(name string, text string, isError bool)
}

func (h Hooks) modelCall(call int) {
	if h.OnModelCall != nil {
		h.OnModelCall(call)
	}
}

func (h Hooks) toolCall(name string, args map[string]any) {
	if h.OnToolCall != nil {
		h.OnToolCall(name, args)
	}
}

func (h Hooks) toolResult(name, text string, isError bool) {
	if h.OnToolResult != nil {
		h.OnToolResult(name, text, isError)
	}
}

// TurnResult summarizes one completed user turn.
type TurnResult struct {
	FinalText      string
	ModelCalls     int
	ToolCalls      int
	ToolsAdded     int
	TotalTokens    int
	CeilingReached bool
}

// Loop runs the model/tool cycle for one session. It owns nothing itself;
// the conversation, tool context and invoker are injected so the CLI can
// inspect them between turns.
type Loop struct {
	chat          ChatClient
	invoker       *Invoker
	tools         *ToolContext
	conv          *Conversation
	maxModelCalls int
	hooks         Hooks
}

func NewLoop(chat ChatClient, invoker *Invoker, tools *ToolContext, conv *Conversation, maxModelCalls int) *Loop {
	if maxModelCalls <= 0 {
		maxModelCalls = DefaultMaxModelCalls
	}
	return &Loop{
		chat:          chat,
		invoker:       invoker,
		tools:         tools,
		conv:          conv,
		maxModelCalls: maxModelCalls,
	}
}

// SetHooks installs observation callbacks. Call before RunTurn.
func (l *Loop) SetHooks(h Hooks) {
	l.hooks = h
}

// Conversation returns the session transcript for inspection.
func (l *Loop) Conversation() *Conversation {
	return l.conv
}

// Tools returns the session tool context for inspection.
func (l *Loop) Tools() *ToolContext {
	return l.tools
}

// RunTurn feeds one user message through the model/tool cycle until the
// model answers without requesting tools, or the model-call ceiling is hit.
//
// A model failure rolls the conversation back to the state before this turn
// started, so a retry replays from a clean transcript. Tool failures do not
// end the turn: each failed call becomes an error-flagged tool message and
// the model decides how to proceed. Tools discovered during a batch join the
// context only after the whole batch completes, so they become callable on
// the next model call, never mid-batch.
func (l *Loop) RunTurn(ctx context.Context, userInput string) (*TurnResult, error) {
	snapshot := l.conv.Snapshot()
	if err := l.conv.Append(model.UserMessage(userInput)); err != nil {
		return nil, err
	}

	result := &TurnResult{}
	for result.ModelCalls < l.maxModelCalls {
		result.ModelCalls++
		l.hooks.modelCall(result.ModelCalls)

		schemas := functionSchemas(l.tools.CurrentDescriptors())
		chat, err := l.chat.Chat(ctx, l.conv.Transcript(), schemas)
		if err != nil {
			l.conv.Rollback(snapshot)
			return nil, fmt.Errorf("model call %d failed: %w", result.ModelCalls, err)
		}
		result.TotalTokens += chat.TotalTokens

		if err := l.conv.Append(chat.Message); err != nil {
			l.conv.Rollback(snapshot)
			return nil, err
		}

		if len(chat.Message.ToolCalls) == 0 {
			result.FinalText = chat.Message.Content
			return result, nil
		}

		added, executed, err := l.runToolBatch(ctx, chat.Message.ToolCalls)
		if err != nil {
			l.conv.Rollback(snapshot)
			return nil, err
		}
		result.ToolsAdded += added
		result.ToolCalls += executed
	}

	result.CeilingReached = true
	result.FinalText = fmt.Sprintf("(stopped after %d model calls without a final answer)", l.maxModelCalls)
	return result, nil
}

// runToolBatch executes every call of one assistant message in order and
// appends a tool message per call. Discovery results are collected during
// the batch and merged into the context only once all calls have run.
func (l *Loop) runToolBatch(ctx context.Context, calls []model.ToolCall) (added, executed int, err error) {
	var pending []map[string]any

	for _, call := range calls {
		name := call.Function.Name
		args := call.ParsedArguments()
		l.hooks.toolCall(name, args)
		executed++

		text, isError, invokeErr := l.invoker.Invoke(ctx, name, args)
		if invokeErr != nil {
			text = "tool call failed: " + invokeErr.Error()
			isError = true
		}
		if name == protocol.ToolNameSearch && !isError {
			pending = append(pending, parseDiscovered(text)...)
		}
		l.hooks.toolResult(name, text, isError)

		content := text
		if isError {
			content = "[tool error] " + text
		}
		if appendErr := l.conv.Append(model.ToolMessage(call.ID, name, content)); appendErr != nil {
			return added, executed, appendErr
		}
	}

	added = l.tools.MergeDiscovered(pending)
	return added, executed, nil
}

// parseDiscovered decodes a tool_search result body into raw descriptor
// entries. The canonical shape is an object with a "tools" array; a bare
// array is accepted too. Anything else counts as zero discoveries rather
// than a failure.
func parseDiscovered(text string) []map[string]any {
	var wrapped struct {
		Tools []map[string]any `json:"tools"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err == nil && len(wrapped.Tools) > 0 {
		return wrapped.Tools
	}
	var entries []map[string]any
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		return nil
	}
	return entries
}

func functionSchemas(descriptors []model.ToolDescriptor) []map[string]any {
	out := make([]map[string]any, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d.FunctionSchema())
	}
	return out
}

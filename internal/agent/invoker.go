package agent

import (
	"context"
	"fmt"

	"github.com/modelgate/gateagent/internal/model"
)

// ToolCaller executes one tools/call round trip. *bridge.Client satisfies
// this; tests substitute fakes.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*model.ToolResult, error)
}

// ErrToolNotInContext reports a call to a tool the model was never offered.
// This is a client-side guard: no transport round trip happens.
type ErrToolNotInContext struct {
	Name string
}

func (e *ErrToolNotInContext) Error() string {
	return fmt.Sprintf("tool %q not in context, discover it with tool_search first", e.Name)
}

// Invoker executes one tool call through the bridge and normalizes the
// result into text plus a success/error flag.
type Invoker struct {
	caller ToolCaller
	tools  *ToolContext
}

func NewInvoker(caller ToolCaller, tools *ToolContext) *Invoker {
	return &Invoker{caller: caller, tools: tools}
}

// Invoke runs one tool call. The returned text is the newline-joined
// concatenation of the result's text blocks; isError is set when the tool
// declared its own result an error, in which case the text is still
// returned for display and transcript purposes.
func (inv *Invoker) Invoke(ctx context.Context, name string, args map[string]any) (text string, isError bool, err error) {
	if !inv.tools.Contains(name) {
		return "", false, &ErrToolNotInContext{Name: name}
	}
	result, err := inv.caller.CallTool(ctx, name, args)
	if err != nil {
		return "", false, err
	}
	return result.Text(), result.IsError, nil
}

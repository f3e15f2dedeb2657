// Package agent drives the tool-augmented conversation: it owns the mutable
// tool context and conversation log and runs the bounded model/tool loop.
package agent

import (
	"strings"

	"github.com/modelgate/gateagent/internal/model"
	"github.com/modelgate/gateagent/internal/protocol"
)

// searchDescriptor is the bootstrap tool_search definition. It is never
// discovered, never removed, and never duplicated; every other descriptor
// enters the context through it.
func searchDescriptor() model.ToolDescriptor {
	return model.ToolDescriptor{
		Name:        protocol.ToolNameSearch,
		Description: "Search for tools by natural language query. Returns tool definitions that can be added to context.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Natural language description of the capability you're looking for",
				},
				"category": map[string]any{
					"type":        "string",
					"description": "Optional category filter (messaging, file-system, database, api, shell, utilities, other)",
				},
				"max_results": map[string]any{
					"type":        "integer",
					"description": "Maximum number of tools to return (default: 5)",
					"default":     5,
				},
			},
			"required": []any{"query"},
		},
	}
}

// ToolContext is the registry of tool descriptors currently visible to the
// model. It always contains the bootstrap search descriptor and grows via
// discovery. Owned by exactly one session; never shared.
type ToolContext struct {
	bootstrap  model.ToolDescriptor
	discovered map[string]model.ToolDescriptor
	order      []string
}

func NewToolContext() *ToolContext {
	return &ToolContext{
		bootstrap:  searchDescriptor(),
		discovered: map[string]model.ToolDescriptor{},
	}
}

// CurrentDescriptors returns the descriptor sequence offered to the model:
// bootstrap first, then discovered tools in insertion order.
func (c *ToolContext) CurrentDescriptors() []model.ToolDescriptor {
	out := make([]model.ToolDescriptor, 0, 1+len(c.order))
	out = append(out, c.bootstrap)
	for _, name := range c.order {
		out = append(out, c.discovered[name])
	}
	return out
}

// Contains reports whether name is callable from this context.
func (c *ToolContext) Contains(name string) bool {
	if name == c.bootstrap.Name {
		return true
	}
	_, ok := c.discovered[name]
	return ok
}

// Len is the number of descriptors in context, bootstrap included.
func (c *ToolContext) Len() int {
	return 1 + len(c.order)
}

// MergeDiscovered folds a raw descriptor list (as decoded from a tool_search
// result) into the context. Entries without a name are ignored; the
// bootstrap name is never overwritten; transport-internal metadata keys
// (underscore-prefixed) are stripped before storage. Re-merging identical
// entries changes nothing observable.
func (c *ToolContext) MergeDiscovered(raw []map[string]any) int {
	added := 0
	for _, entry := range raw {
		name, _ := entry["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" || name == c.bootstrap.Name {
			continue
		}
		desc := descriptorFromRaw(name, entry)
		if _, exists := c.discovered[name]; !exists {
			c.order = append(c.order, name)
			added++
		}
		c.discovered[name] = desc
	}
	return added
}

// Clear removes every descriptor except the bootstrap one.
func (c *ToolContext) Clear() {
	c.discovered = map[string]model.ToolDescriptor{}
	c.order = nil
}

func descriptorFromRaw(name string, entry map[string]any) model.ToolDescriptor {
	desc := model.ToolDescriptor{Name: name}
	for key, value := range entry {
		if strings.HasPrefix(key, "_") {
			continue
		}
		switch key {
		case "description":
			desc.Description, _ = value.(string)
		case "inputSchema":
			desc.InputSchema, _ = value.(map[string]any)
		case "inputExamples":
			if items, ok := value.([]any); ok {
				for _, item := range items {
					if example, ok := item.(map[string]any); ok {
						desc.InputExamples = append(desc.InputExamples, example)
					}
				}
			}
		}
	}
	return desc
}

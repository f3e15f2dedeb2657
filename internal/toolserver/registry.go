// Package toolserver implements the MCP tool server side: a registry of
// callable tools plus stdio and HTTP frontends speaking JSON-RPC.
package toolserver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/modelgate/gateagent/internal/model"
	"github.com/modelgate/gateagent/internal/protocol"
)

// Handler executes one tool call. A returned error marks the result as a
// tool-level failure; it never aborts the server.
type Handler func(args map[string]any) (map[string]any, error)

// Tool is one registered capability: its wire descriptor, a category used by
// search filtering, and the handler that runs it.
type Tool struct {
	Descriptor model.ToolDescriptor
	Category   string
	Handler    Handler
}

// Registry holds the server's tools in registration order.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: map[string]Tool{}}
}

// Register adds a tool. Registering the same name twice replaces the handler
// but keeps the original position.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Descriptor.Name]; !exists {
		r.order = append(r.order, t.Descriptor.Name)
	}
	r.tools[t.Descriptor.Name] = t
}

// Definitions returns every descriptor in registration order, for tools/list.
func (r *Registry) Definitions() []model.ToolDescriptor {
	out := make([]model.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Descriptor)
	}
	return out
}

// Len is the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// Call dispatches one tool call. An unknown name is a tool-level error, not
// a protocol error: the caller still receives a well-formed result.
func (r *Registry) Call(name string, args map[string]any) (map[string]any, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return t.Handler(args)
}

type scored struct {
	tool  Tool
	score int
}

// Search ranks tools against a natural language query. Scoring is keyword
// overlap: name hits weigh most, then description, then category. Matches
// carry the score and category as underscore-prefixed metadata keys, which
// clients strip before offering the tool to a model.
func (r *Registry) Search(query, category string, maxResults int) []map[string]any {
	if maxResults <= 0 {
		maxResults = 5
	}
	words := queryWords(query)

	var matches []scored
	for _, name := range r.order {
		t := r.tools[name]
		if t.Descriptor.Name == protocol.ToolNameSearch {
			continue
		}
		if category != "" && !strings.EqualFold(category, t.Category) {
			continue
		}
		if s := scoreTool(t, words); s > 0 {
			matches = append(matches, scored{tool: t, score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	out := make([]map[string]any, 0, len(matches))
	for _, m := range matches {
		entry := map[string]any{
			"name":        m.tool.Descriptor.Name,
			"description": m.tool.Descriptor.Description,
			"inputSchema": m.tool.Descriptor.InputSchema,
			"_score":      m.score,
			"_category":   m.tool.Category,
		}
		out = append(out, entry)
	}
	return out
}

func scoreTool(t Tool, words []string) int {
	name := strings.ToLower(t.Descriptor.Name)
	desc := strings.ToLower(t.Descriptor.Description)
	cat := strings.ToLower(t.Category)

	score := 0
	for _, w := range words {
		switch {
		case strings.Contains(name, w):
			score += 3
		case strings.Contains(desc, w):
			score += 2
		case strings.Contains(cat, w):
			score++
		}
	}
	return score
}

func queryWords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()")
		if len(f) < 3 {
			continue
		}
		out = append(out, f)
	}
	return out
}

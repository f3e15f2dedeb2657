package toolserver

import (
	"testing"

	"github.com/modelgate/gateagent/internal/model"
	"github.com/modelgate/gateagent/internal/protocol"
)

func testTool(name, description, category string) Tool {
	return Tool{
		Descriptor: model.ToolDescriptor{Name: name, Description: description},
		Category:   category,
		Handler: func(map[string]any) (map[string]any, error) {
			return map[string]any{"ok": true}, nil
		},
	}
}

func TestRegistry_RegistrationOrderPreserved(t *testing.T) {
	r := NewRegistry()
	r.Register(testTool("b_tool", "", "utilities"))
	r.Register(testTool("a_tool", "", "utilities"))
	r.Register(testTool("b_tool", "replaced", "utilities"))

	defs := r.Definitions()
	if len(defs) != 2 {
		t.Fatalf("len = %d, want 2", len(defs))
	}
	if defs[0].Name != "b_tool" || defs[1].Name != "a_tool" {
		t.Fatalf("order = %q, %q", defs[0].Name, defs[1].Name)
	}
	if defs[0].Description != "replaced" {
		t.Fatal("re-registration did not replace the descriptor")
	}
}

func TestSearch_RanksNameHitsHighest(t *testing.T) {
	r := NewRegistry()
	r.Register(testTool("weather_report", "temperature and forecast", "api"))
	r.Register(testTool("calculator", "math and weather trivia", "utilities"))

	matches := r.Search("weather", "", 5)
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	if matches[0]["name"] != "weather_report" {
		t.Fatalf("top match = %v", matches[0]["name"])
	}
	top := matches[0]["_score"].(int)
	second := matches[1]["_score"].(int)
	if top <= second {
		t.Fatalf("scores not descending: %d <= %d", top, second)
	}
}

func TestSearch_CategoryFilter(t *testing.T) {
	r := NewRegistry()
	r.Register(testTool("query_runner", "run a database query", "database"))
	r.Register(testTool("query_logger", "log every query", "utilities"))

	matches := r.Search("query", "database", 5)
	if len(matches) != 1 || matches[0]["name"] != "query_runner" {
		t.Fatalf("unexpected matches: %v", matches)
	}
}

func TestSearch_MaxResults(t *testing.T) {
	r := NewRegistry()
	r.Register(testTool("echo_one", "echo", "utilities"))
	r.Register(testTool("echo_two", "echo", "utilities"))
	r.Register(testTool("echo_three", "echo", "utilities"))

	if got := len(r.Search("echo", "", 2)); got != 2 {
		t.Fatalf("matches = %d, want 2", got)
	}
	// Non-positive max falls back to the default.
	if got := len(r.Search("echo", "", 0)); got != 3 {
		t.Fatalf("matches = %d, want 3", got)
	}
}

func TestSearch_NeverReturnsItself(t *testing.T) {
	registry, db, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry failed: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()
	NewServer(registry, false) // registers tool_search

	for _, m := range registry.Search("search for tools", "", 20) {
		if m["name"] == protocol.ToolNameSearch {
			t.Fatal("tool_search returned itself")
		}
	}
}

func TestSearch_ShortWordsIgnored(t *testing.T) {
	r := NewRegistry()
	r.Register(testTool("db_tool", "an or to it", "database"))

	if got := r.Search("an or to", "", 5); len(got) != 0 {
		t.Fatalf("stop-length words should not match, got %v", got)
	}
}

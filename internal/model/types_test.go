package model

import "testing"

func TestParsedArguments(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{"valid", `{"query":"math","k":2}`, map[string]any{"query": "math", "k": float64(2)}},
		{"empty", "", map[string]any{}},
		{"whitespace", "   ", map[string]any{}},
		{"malformed", `{"query":`, map[string]any{}},
		{"null", `null`, map[string]any{}},
		{"wrong type", `[1,2]`, map[string]any{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			call := ToolCall{Function: FunctionCall{Arguments: tc.raw}}
			got := call.ParsedArguments()
			if got == nil {
				t.Fatal("ParsedArguments returned nil")
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %#v, want %#v", got, tc.want)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Fatalf("got[%q] = %#v, want %#v", k, got[k], v)
				}
			}
		})
	}
}

func TestToolResult_TextJoinsOnlyTextBlocks(t *testing.T) {
	r := &ToolResult{Content: []ContentItem{
		{Type: "text", Text: "a"},
		{Type: "image", Text: "skip"},
		{Type: "text", Text: "b"},
	}}
	if got := r.Text(); got != "a\nb" {
		t.Fatalf("Text() = %q", got)
	}
	var nilResult *ToolResult
	if nilResult.Text() != "" {
		t.Fatal("nil result should render empty")
	}
}

func TestFunctionSchema(t *testing.T) {
	d := ToolDescriptor{
		Name:        "calculator",
		Description: "math",
		InputSchema: map[string]any{"type": "object"},
	}
	schema := d.FunctionSchema()
	if schema["type"] != "function" {
		t.Fatalf("type = %v", schema["type"])
	}
	fn := schema["function"].(map[string]any)
	if fn["name"] != "calculator" || fn["parameters"] == nil {
		t.Fatalf("function block = %#v", fn)
	}
	if _, ok := fn["input_examples"]; ok {
		t.Fatal("input_examples should be absent when none exist")
	}

	// A schema-less descriptor still yields a valid parameters object.
	bare := ToolDescriptor{Name: "echo"}
	params := bare.FunctionSchema()["function"].(map[string]any)["parameters"].(map[string]any)
	if params["type"] != "object" {
		t.Fatalf("fallback parameters = %#v", params)
	}
}

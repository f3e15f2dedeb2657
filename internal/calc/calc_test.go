package calc

import (
	"math"
	"testing"
)

func TestEval(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"2 + 2", 4},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"-3 + 5", 2},
		{"--3", 3},
		{"2 ^ 10", 1024},
		{"2 ^ 3 ^ 2", 512}, // right associative
		{"sqrt(16)", 4},
		{"abs(-7.5)", 7.5},
		{"log10(1000)", 3},
		{"exp(0)", 1},
		{"pi", math.Pi},
		{"2 * pi", 2 * math.Pi},
		{"floor(2.9) + ceil(2.1)", 5},
		{"sin(0)", 0},
		{".5 + .25", 0.75},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := Eval(tc.expr)
			if err != nil {
				t.Fatalf("Eval(%q) failed: %v", tc.expr, err)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("Eval(%q) = %v, want %v", tc.expr, got, tc.want)
			}
		})
	}
}

func TestEval_Errors(t *testing.T) {
	cases := []string{
		"",
		"1 / 0",
		"2 +",
		"(1 + 2",
		"foo(3)",
		"bar",
		"1 $ 2",
		"sqrt 9",
		"1..2",
		"log(0)", // -Inf is rejected
	}
	for _, expr := range cases {
		t.Run(expr, func(t *testing.T) {
			if _, err := Eval(expr); err == nil {
				t.Fatalf("Eval(%q) should have failed", expr)
			}
		})
	}
}

func TestEval_RejectsTrailingInput(t *testing.T) {
	if _, err := Eval("1 + 2 extra"); err == nil {
		t.Fatal("expected trailing input error")
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{4, "4"},
		{-12, "-12"},
		{2.5, "2.5"},
		{1.0 / 3.0, "0.3333333333"},
	}
	for _, tc := range cases {
		if got := Format(tc.in); got != tc.want {
			t.Fatalf("Format(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

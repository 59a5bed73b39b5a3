package dub

import (
	"reflect"
	"testing"
)

func TestEvalMatchExpr(t *testing.T) {
	tests := []struct {
		expr       string
		num, denom int
		stepSize   int
		want       []int
	}{
		{"2,4/*", 4, 4, 16, []int{0, 0, 0, 0, 1, 0, 1, 0, 0, 0, 0, 0, 1, 0, 1, 0}},
		{"1:4", 4, 4, 16, []int{1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0}},
		{"1:2//1:4", 4, 4, 16, []int{1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"*//3,4", 4, 4, 16, []int{0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 1, 1}},
		{"*/2", 4, 4, 16, []int{0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0}},
		{"5", 5, 4, 16, []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0}},
		{"*", 2, 4, 32, []int{1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}},
		{"1/2", 3, 8, 16, []int{0, 1, 0, 0, 0, 0}},
		{"3:9", 2, 4, 16, []int{0, 0, 0, 0, 0, 0, 0, 0}},
	}
	for _, test := range tests {
		expr := mustMatchExpr(t, test.expr)
		got, err := EvalMatchExpr(expr, test.num, test.denom, test.stepSize)
		if err != nil {
			t.Errorf("%s: %v", test.expr, err)
			continue
		}
		if !reflect.DeepEqual(test.want, got) {
			t.Errorf("%s in %d/%d:\nwant %v\ngot  %v", test.expr, test.num, test.denom, test.want, got)
		}
	}
}

func TestEvalMatchExprErrors(t *testing.T) {
	expr := mustMatchExpr(t, "*///*")
	if _, err := EvalMatchExpr(expr, 4, 4, 16); err == nil {
		t.Error("expected an error for 32nd notes with steps of 1/16")
	}
	if _, err := EvalMatchExpr(mustMatchExpr(t, "*"), 0, 4, 16); err == nil {
		t.Error("expected an error for an empty bar")
	}
	if _, err := EvalMatchExpr(MatchExpr{}, 4, 4, 16); err == nil {
		t.Error("expected an error for an empty expression")
	}
}

func TestMatchExprString(t *testing.T) {
	for _, input := range []string{"'*", "'1,3/*", "'1:2//3,4", "'*///2"} {
		if got := mustMatchExpr(t, input[1:]).String(); got != input {
			t.Errorf("want %s, got %s", input, got)
		}
	}
}

func mustMatchExpr(t *testing.T, s string) MatchExpr {
	t.Helper()
	cmd, err := Parse("a '" + s)
	if err != nil {
		t.Fatalf("%s: %v", s, err)
	}
	return cmd.Args[0].(MatchExpr)
}

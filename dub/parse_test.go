package dub

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{
			input: "A '1",
			want: Command{Name: "A", Args: []Node{
				MatchExpr{[]division{{0, picks{1}}}},
			}},
		},
		{
			input: "A '*/*",
			want: Command{Name: "A", Args: []Node{
				MatchExpr{[]division{{0, anyNote{}}, {1, anyNote{}}}},
			}},
		},
		{
			input: "A '1,2//3:4",
			want: Command{Name: "A", Args: []Node{
				MatchExpr{[]division{{0, picks{1, 2}}, {2, span{3, 4}}}},
			}},
		},
		{
			input: `load "a/file.json"`,
			want:  Command{Name: "load", Args: []Node{String("a/file.json")}},
		},
		{
			input: `save ""`,
			want:  Command{Name: "save", Args: []Node{String("")}},
		},
		{
			input: "set synth level -6",
			want:  Command{Name: "set", Args: []Node{Identifier("synth"), Identifier("level"), Int(-6)}},
		},
		{
			input: "set synth op1.feedback on",
			want:  Command{Name: "set", Args: []Node{Identifier("synth"), Identifier("op1.feedback"), Identifier("on")}},
		},
		{
			input: "on C#4 0.5",
			want:  Command{Name: "on", Args: []Node{Note{Name: "C#4", Key: 61}, Float(0.5)}},
		},
		{
			input: "loop bass 1 e2 '1,3/* ",
			want: Command{Name: "loop", Args: []Node{
				Identifier("bass"),
				Int(1),
				Note{Name: "e2", Key: 40},
				MatchExpr{[]division{{0, picks{1, 3}}, {1, anyNote{}}}},
			}},
		},
	}
	for _, test := range tests {
		got, err := Parse(test.input)
		if err != nil {
			t.Errorf("%q: %v", test.input, err)
			continue
		}
		if !reflect.DeepEqual(test.want, got) {
			t.Errorf("%q:\nwant: %+v\ngot:  %+v", test.input, test.want, got)
		}
	}
}

func TestParseLine(t *testing.T) {
	got, err := ParseLine("preset bell; voices 8;; on a3")
	if err != nil {
		t.Fatal(err)
	}
	want := []Command{
		{Name: "preset", Args: []Node{Identifier("bell")}},
		{Name: "voices", Args: []Node{Int(8)}},
		{Name: "on", Args: []Node{Note{Name: "a3", Key: 57}}},
	}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("\nwant: %+v\ngot:  %+v", want, got)
	}

	if cmds, err := ParseLine("  "); err != nil || len(cmds) != 0 {
		t.Errorf("empty line: got %v, %v", cmds, err)
	}
	if _, err := Parse("on 60; off 60"); err == nil {
		t.Error("Parse accepted two commands")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		pos   int
	}{
		{"1 2", 0},
		{"on '1:", 6},
		{"set ,", 4},
		{"loop a 1 60 '3:1", 13},
		{"loop a 1 60 '0", 13},
		{"loop a 1 60 '1,", 15},
		{"", 0},
	}
	for _, test := range tests {
		_, err := Parse(test.input)
		var serr *SyntaxError
		if !errors.As(err, &serr) {
			t.Errorf("%q: want a syntax error, got %v", test.input, err)
			continue
		}
		if serr.Pos != test.pos {
			t.Errorf("%q: want position %d, got %d (%v)", test.input, test.pos, serr.Pos, err)
		}
	}
}

func TestParseNote(t *testing.T) {
	tests := []struct {
		name string
		key  int
		ok   bool
	}{
		{"c4", 60, true},
		{"A4", 69, true},
		{"c-1", 0, true},
		{"g9", 127, true},
		{"bb3", 58, true},
		{"cb4", 59, true},
		{"f#2", 42, true},
		{"g#9", 0, false},
		{"h2", 0, false},
		{"c", 0, false},
		{"c10", 0, false},
		{"lame-bass", 0, false},
	}
	for _, test := range tests {
		key, ok := ParseNote(test.name)
		if key != test.key || ok != test.ok {
			t.Errorf("%s: want %d %v, got %d %v", test.name, test.key, test.ok, key, ok)
		}
	}
}

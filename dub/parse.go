// Package dub parses the command language of the polyfm prompt.
//
// A command is a name followed by arguments separated by spaces:
//
//	set synth op2.ratio 3.5
//	on f#3 90
//	loop hats 4 42 '*//2,4
//
// Arguments are identifiers, integers, floats, quoted strings, note names
// (c4 is midi note 60) or match expressions, which start with a quote and
// select notes on a grid of beats, 8ths, 16ths and so on. Several commands
// can be written on one line separated by semicolons.
package dub

import (
	"fmt"
	"strconv"
	"strings"
)

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Int) isNode()        {}
func (Float) isNode()      {}
func (String) isNode()     {}
func (Note) isNode()       {}
func (MatchExpr) isNode()  {}

type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string
type Int int
type Float float64
type String string

// Note is a note name and its midi key number.
type Note struct {
	Name string
	Key  int
}

// Parse parses a single command.
func Parse(input string) (Command, error) {
	cmds, err := ParseLine(input)
	if err != nil {
		return Command{}, err
	}
	switch len(cmds) {
	case 0:
		return Command{}, &SyntaxError{Pos: len(input), Msg: "missing command"}
	case 1:
		return cmds[0], nil
	default:
		return Command{}, &SyntaxError{Pos: 0, Msg: fmt.Sprintf("want 1 command, got %d", len(cmds))}
	}
}

// ParseLine parses the semicolon separated commands of a line. Empty commands
// are skipped.
func ParseLine(input string) ([]Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := parser{tokens: tokens}
	var cmds []Command
	for {
		switch p.peek().typ {
		case tokEOF:
			return cmds, nil
		case tokSemicolon:
			p.next()
			continue
		}
		cmd, err := p.command()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) command() (Command, error) {
	var cmd Command
	name := p.next()
	if name.typ != tokIdent {
		return cmd, unexpected(name)
	}
	cmd.Name = Identifier(name.text)
	for {
		t := p.next()
		var arg Node
		switch t.typ {
		case tokEOF, tokSemicolon:
			return cmd, nil
		case tokIdent:
			if key, ok := ParseNote(t.text); ok {
				arg = Note{Name: t.text, Key: key}
			} else {
				arg = Identifier(t.text)
			}
		case tokString:
			arg = String(t.text[1 : len(t.text)-1])
		case tokFloat:
			f, err := strconv.ParseFloat(t.text, 64)
			if err != nil {
				return cmd, &SyntaxError{Pos: t.pos, Msg: err.Error()}
			}
			arg = Float(f)
		case tokInt:
			n, err := atoi(t)
			if err != nil {
				return cmd, err
			}
			arg = Int(n)
		case tokQuote:
			expr, err := p.matchExpr()
			if err != nil {
				return cmd, err
			}
			arg = expr
		default:
			return cmd, unexpected(t)
		}
		cmd.Args = append(cmd.Args, arg)
	}
}

// matchExpr parses the divisions of a match expression. Every slash moves one
// division finer: '1/2 is the second 8th of the first beat, '1//2 the second
// 16th.
func (p *parser) matchExpr() (MatchExpr, error) {
	var expr MatchExpr
	depth := 0
	for {
		sel, err := p.selector()
		if err != nil {
			return expr, err
		}
		expr.divisions = append(expr.divisions, division{depth: depth, sel: sel})

		if p.peek().typ != tokSlash {
			return expr, nil
		}
		for p.peek().typ == tokSlash {
			p.next()
			depth++
		}
	}
}

func (p *parser) selector() (selector, error) {
	t := p.next()
	switch t.typ {
	case tokStar:
		return anyNote{}, nil
	case tokInt:
	default:
		return nil, unexpected(t)
	}
	first, err := noteNumber(t)
	if err != nil {
		return nil, err
	}
	if p.peek().typ == tokColon {
		p.next()
		end := p.next()
		if end.typ != tokInt {
			return nil, unexpected(end)
		}
		last, err := noteNumber(end)
		if err != nil {
			return nil, err
		}
		if last < first {
			return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("empty range %d:%d", first, last)}
		}
		return span{first, last}, nil
	}

	list := picks{first}
	for p.peek().typ == tokComma {
		p.next()
		t := p.next()
		if t.typ != tokInt {
			return nil, unexpected(t)
		}
		n, err := noteNumber(t)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, nil
}

func noteNumber(t token) (int, error) {
	n, err := atoi(t)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, &SyntaxError{Pos: t.pos, Msg: "notes are counted from 1"}
	}
	return n, nil
}

func atoi(t token) (int, error) {
	n, err := strconv.Atoi(t.text)
	if err != nil {
		return 0, &SyntaxError{Pos: t.pos, Msg: err.Error()}
	}
	return n, nil
}

func unexpected(t token) error {
	if t.typ == tokEOF {
		return &SyntaxError{Pos: t.pos, Msg: "unexpected end of input"}
	}
	return &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %s %q", t.typ, t.text)}
}

var noteOffsets = map[byte]int{'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11}

// ParseNote converts a note name like c4, F#2 or bb-1 to a midi key number.
// C4 is 60.
func ParseNote(name string) (int, bool) {
	s := strings.ToLower(name)
	if len(s) < 2 {
		return 0, false
	}
	key, ok := noteOffsets[s[0]]
	if !ok {
		return 0, false
	}
	s = s[1:]
	switch {
	case strings.HasPrefix(s, "#"):
		key++
		s = s[1:]
	case strings.HasPrefix(s, "b") && len(s) > 1:
		key--
		s = s[1:]
	}
	octave, err := strconv.Atoi(s)
	if err != nil || octave < -1 || octave > 9 {
		return 0, false
	}
	key += (octave + 1) * 12
	if key < 0 || key > 127 {
		return 0, false
	}
	return key, true
}

package dub

import (
	"fmt"
	"strconv"
	"strings"
)

// MatchExpr selects notes on a metric grid. It is made of divisions from
// coarse to fine, each selecting notes by their number within the division
// above. Numbering restarts on every beat, except on the beat division where
// beats are counted from the start.
type MatchExpr struct {
	divisions []division
}

type division struct {
	depth int // 0 for beats, each level halves the note length
	sel   selector
}

type selector interface {
	selects(n int) bool
	String() string
}

type anyNote struct{}

func (anyNote) selects(int) bool { return true }
func (anyNote) String() string   { return "*" }

// span selects notes first to last, inclusive.
type span struct {
	first, last int
}

func (s span) selects(n int) bool { return n >= s.first && n <= s.last }
func (s span) String() string     { return fmt.Sprintf("%d:%d", s.first, s.last) }

type picks []int

func (p picks) selects(n int) bool {
	for _, k := range p {
		if k == n {
			return true
		}
	}
	return false
}

func (p picks) String() string {
	s := make([]string, len(p))
	for i, n := range p {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, ",")
}

// String formats the expression the way it is written, including the quote.
func (m MatchExpr) String() string {
	var b strings.Builder
	b.WriteByte('\'')
	depth := 0
	for i, d := range m.divisions {
		if i > 0 {
			b.WriteString(strings.Repeat("/", d.depth-depth))
		}
		depth = d.depth
		b.WriteString(d.sel.String())
	}
	return b.String()
}

// EvalMatchExpr returns one value per step for a bar of numerator notes of
// length 1/denominator, divided into steps of 1/stepSize. A step is 1 when it
// starts a note of the finest division that is selected on every division.
func EvalMatchExpr(expr MatchExpr, numerator, denominator, stepSize int) ([]int, error) {
	if numerator <= 0 || denominator <= 0 || stepSize < denominator {
		return nil, fmt.Errorf("invalid grid %d/%d in steps of 1/%d", numerator, denominator, stepSize)
	}
	if len(expr.divisions) == 0 {
		return nil, fmt.Errorf("empty match expression")
	}
	steps := make([]int, stepSize/denominator*numerator)

	// steps per note and notes per beat of every division
	length := make([]int, len(expr.divisions))
	perBeat := make([]int, len(expr.divisions))
	for i, d := range expr.divisions {
		notes := denominator << d.depth
		if notes > stepSize {
			return nil, fmt.Errorf("can't match on 1/%d notes with steps of 1/%d", notes, stepSize)
		}
		length[i] = stepSize / notes
		perBeat[i] = notes / denominator
	}

	finest := len(expr.divisions) - 1
	for step := range steps {
		if step%length[finest] != 0 {
			continue
		}
		on := 1
		for i, d := range expr.divisions {
			n := step / length[i]
			if perBeat[i] > 1 {
				n %= perBeat[i]
			}
			if !d.sel.selects(n + 1) {
				on = 0
				break
			}
		}
		steps[step] = on
	}
	return steps, nil
}

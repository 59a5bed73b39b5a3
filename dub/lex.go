package dub

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenType int

const (
	tokUnknown tokenType = iota
	tokInt
	tokFloat
	tokIdent
	tokString
	tokQuote
	tokComma
	tokColon
	tokSlash
	tokStar
	tokSemicolon
	tokEOF
)

var tokenNames = map[tokenType]string{
	tokInt:       "int",
	tokFloat:     "float",
	tokIdent:     "identifier",
	tokString:    "string",
	tokQuote:     "'",
	tokComma:     ",",
	tokColon:     ":",
	tokSlash:     "/",
	tokStar:      "*",
	tokSemicolon: ";",
	tokEOF:       "end of input",
}

func (t tokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return "unknown"
}

const eof = -1

var punctuation = map[rune]tokenType{
	'\'': tokQuote,
	',':  tokComma,
	':':  tokColon,
	'/':  tokSlash,
	'*':  tokStar,
	';':  tokSemicolon,
}

type token struct {
	typ  tokenType
	pos  int // byte offset of the first character
	text string
}

// SyntaxError reports a lexing or parsing error at a byte offset of the input.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

func lex(input string) ([]token, error) {
	l := &lexer{input: input}
	return l.run()
}

type lexer struct {
	input  string
	start  int
	pos    int
	width  int
	tokens []token
	err    error
}

func (l *lexer) run() ([]token, error) {
	for l.err == nil {
		r := l.next()
		switch {
		case r == eof:
			l.emit(tokEOF)
			return l.tokens, nil
		case isSpace(r):
			l.skipSpace()
		case unicode.IsLetter(r):
			l.lexIdent()
		case r == '"':
			l.lexString()
		case l.startsNumber(r):
			l.lexNumber()
		default:
			typ, ok := punctuation[r]
			if !ok {
				l.fail(l.pos-l.width, "unexpected character %#U", r)
				break
			}
			l.emit(typ)
		}
	}
	return l.tokens, l.err
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	return r
}

func (l *lexer) backup() { l.pos -= l.width }

func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *lexer) emit(t tokenType) {
	l.tokens = append(l.tokens, token{typ: t, pos: l.start, text: l.input[l.start:l.pos]})
	l.start = l.pos
	l.width = 0
}

func (l *lexer) fail(pos int, format string, args ...interface{}) {
	l.err = &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) skipSpace() {
	for isSpace(l.peek()) {
		l.next()
	}
	l.start = l.pos
}

func (l *lexer) acceptRun(set string) {
	for strings.ContainsRune(set, l.next()) {
	}
	l.backup()
}

func (l *lexer) accept(set string) bool {
	if strings.ContainsRune(set, l.next()) {
		return true
	}
	l.backup()
	return false
}

// lexIdent accepts property and preset names like op2.ratio or lame-bass and
// note names like f#3.
func (l *lexer) lexIdent() {
	for {
		r := l.next()
		if unicode.IsLetter(r) || isDigit(r) || strings.ContainsRune("_.-#", r) {
			continue
		}
		l.backup()
		if !endsValue(r) {
			l.fail(l.pos, "unexpected character %#U in identifier", r)
			return
		}
		l.emit(tokIdent)
		return
	}
}

func (l *lexer) lexString() {
	for {
		switch l.next() {
		case '"':
			l.emit(tokString)
			return
		case eof:
			l.fail(l.start, "unterminated string")
			return
		}
	}
}

const digits = "0123456789"

// lexNumber is called after startsNumber has seen a digit, possibly behind a
// sign or a decimal point.
func (l *lexer) lexNumber() {
	l.backup()
	l.accept("-")
	l.acceptRun(digits)
	float := l.accept(".")
	l.acceptRun(digits)

	if r := l.peek(); !endsValue(r) && !strings.ContainsRune("/:,", r) {
		l.fail(l.pos, "unexpected character %#U in number", r)
		return
	}
	if float {
		l.emit(tokFloat)
	} else {
		l.emit(tokInt)
	}
}

func (l *lexer) startsNumber(r rune) bool {
	if isDigit(r) {
		return true
	}
	rest := l.input[l.pos:]
	switch r {
	case '-':
		return (len(rest) > 0 && isDigit(rune(rest[0]))) ||
			(len(rest) > 1 && rest[0] == '.' && isDigit(rune(rest[1])))
	case '.':
		return len(rest) > 0 && isDigit(rune(rest[0]))
	}
	return false
}

func endsValue(r rune) bool {
	return r == eof || r == ';' || isSpace(r)
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' }

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

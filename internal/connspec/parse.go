// Package connspec implements a small connection-description
// language for naming pins and buses, e.g. "a, b[0..3]=src[0..3]".
// transactron's Stimulus type reuses its assignment grammar
// ("name=true", "name=false") to let a testbench drive named
// transaction requests from a short text script instead of Go code.
package connspec

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/db47h/transactron/internal/lex"
)

// Token types.
const (
	EOF         lex.Type = lex.EOF
	Raw         lex.Type = iota
	Ident
	BracketOpen
	BracketClose
	Comma
	Int
	Range
	Equal
)

// Lexer returns a new lexer over a connection-spec or pin-list string.
func Lexer(input string) lex.Interface {
	return lex.New(strings.NewReader(input), lexInit)
}

func lexInit(l *lex.Lexer) lex.StateFn {
	r := l.Next()
	switch {
	case r == lex.EOF:
		return lexEOF
	case unicode.IsSpace(r):
		l.AcceptWhile(unicode.IsSpace)
	case unicode.IsLetter(r) || r == '_':
		return lexIdent
	case r == '[':
		l.Emit(BracketOpen, "[")
	case r == ']':
		l.Emit(BracketClose, "]")
	case r == ',':
		l.Emit(Comma, ",")
	case '0' <= r && r <= '9':
		return lexNumber
	case r == '=':
		l.Emit(Equal, "=")
	case r == '.':
		n := l.Next()
		if n == '.' {
			l.Emit(Range, "..")
			break
		}
		l.Backup()
		fallthrough
	default:
		l.Emit(Raw, string(r))
		return lexEOF
	}
	return nil
}

func lexNumber(l *lex.Lexer) lex.StateFn {
	i := int(l.Current() - '0')
	r := l.Next()
	for '0' <= r && r <= '9' {
		i = i*10 + int(r-'0')
		r = l.Next()
	}
	l.Backup()
	l.Emit(Int, i)
	return nil
}

func lexIdent(l *lex.Lexer) lex.StateFn {
	var buf strings.Builder
	buf.WriteRune(l.Current())
	r := l.Next()
	for unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
		buf.WriteRune(r)
		r = l.Next()
	}
	l.Backup()
	l.Emit(Ident, buf.String())
	return nil
}

func lexEOF(l *lex.Lexer) lex.StateFn {
	l.Emit(lex.EOF, "end of input")
	return nil
}

// Pin is a simple pin name.
type Pin struct {
	Name string
	Pos  lex.Pos
}

// PinIndex is an indexed pin, p[index].
type PinIndex struct {
	Pin
	Index int
}

// PinRange is a pin range, p[start..end].
type PinRange struct {
	Pin
	Start int
	End   int
}

// PinAssignment is a pin-to-pin connection, lhs=rhs.
type PinAssignment struct {
	LHS interface{}
	RHS interface{}
}

// Parser is a simplistic recursive-descent parser over the connection
// spec language: a comma-separated list of pins, pin ranges, or (when
// allowConns is set) pin assignments.
type Parser struct {
	Input string
	l     lex.Interface
	i     lex.Item
	state int
}

const (
	stateDone    = -1
	stateInit    = 0
	stateStarted = 1
)

// Next returns the next pin, pin range, or pin assignment in the input,
// or (nil, nil) once exhausted. allowConns enables the "=" assignment
// form; without it, only bare pin/pin-range lists are accepted.
func (p *Parser) Next(allowConns bool) (interface{}, error) {
	if p.state == stateDone {
		return nil, nil
	}
	if p.l == nil {
		p.l = Lexer(p.Input)
	}

	p.i = p.l.Lex()
	if p.state == stateInit && p.i.Type == EOF {
		p.state = stateDone
		return nil, nil
	}
	p.state = stateStarted

	pin, err := p.getPin()
	if err != nil {
		p.state = stateDone
		return nil, err
	}
	switch p.i.Type {
	case EOF:
		p.state = stateDone
		fallthrough
	case Comma:
		return pin, nil
	case Equal:
		if allowConns {
			break
		}
		fallthrough
	default:
		return nil, parseError(p.Input, p.i.Pos, "unexpected "+p.i.String())
	}

	p.i = p.l.Lex()
	pin2, err := p.getPin()
	if err != nil {
		p.state = stateDone
		return nil, err
	}
	switch p.i.Type {
	case EOF:
		p.state = stateDone
		fallthrough
	case Comma:
		return PinAssignment{pin, pin2}, nil
	}

	return nil, parseError(p.Input, p.i.Pos, "unexpected "+p.i.String())
}

func (p *Parser) getPin() (interface{}, error) {
	if p.i.Type != Ident {
		return nil, parseError(p.Input, p.i.Pos, "expected pin name")
	}
	pin := Pin{p.i.Value.(string), p.i.Pos}
	p.i = p.l.Lex()
	if p.i.Type != BracketOpen {
		return pin, nil
	}
	p.i = p.l.Lex()
	if p.i.Type != Int {
		return nil, parseError(p.Input, p.i.Pos, "integer value expected after '['")
	}
	start := p.i.Value.(int)
	end := -1
	p.i = p.l.Lex()
	if p.i.Type == Range {
		p.i = p.l.Lex()
		if p.i.Type != Int {
			return nil, parseError(p.Input, p.i.Pos, "integer value expected after '..'")
		}
		end = p.i.Value.(int)
		p.i = p.l.Lex()
	}
	if p.i.Type != BracketClose {
		return nil, parseError(p.Input, p.i.Pos, "closing ']' expected after index or range")
	}
	p.i = p.l.Lex()
	if end >= 0 {
		return PinRange{pin, start, end}, nil
	}
	return PinIndex{pin, start}, nil
}

func parseError(in string, pos lex.Pos, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", in, pos+1, msg)
}

// ExpandNames parses a comma-separated pin/bus-range spec (no "=" forms)
// into individual pin names, expanding "name[a..b]" into
// "name[a]", ..., "name[b]" and "name[n]" into a single indexed name.
func ExpandNames(spec string) ([]string, error) {
	p := &Parser{Input: spec}
	var out []string
	for {
		item, err := p.Next(false)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return out, nil
		}
		switch v := item.(type) {
		case Pin:
			out = append(out, v.Name)
		case PinIndex:
			out = append(out, BusName(v.Name, v.Index))
		case PinRange:
			for i := v.Start; i <= v.End; i++ {
				out = append(out, BusName(v.Name, i))
			}
		}
	}
}

// BusName formats the expanded name of one bit of a bus pin, e.g.
// BusName("data", 3) is "data[3]". Exported so callers that parse a
// PinIndex or PinRange themselves (transactron's Stimulus, driving a
// whole indexed or ranged group of same-valued transaction requests
// from one script line) can derive the same names ExpandNames does
// internally.
func BusName(base string, idx int) string {
	return base + "[" + strconv.Itoa(idx) + "]"
}

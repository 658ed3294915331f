// Package lex implements a minimal state-function based lexer, in the
// style used by text/template/parse, for the small connection-spec
// language used to wire pins and buses by name.
package lex

import "io"

// Type identifies the type of a lexed Item.
type Type int

// EOF is both the rune returned by Next once input is exhausted and the
// Type of the final Item emitted by a Lexer. Leaving it untyped lets
// callers compare it directly against runes (in state functions) and
// assign it to Type-valued token constants (in token tables).
const EOF = -1

// Pos is a byte offset into the input.
type Pos int

// Item is a single lexed token.
type Item struct {
	Type  Type
	Pos   Pos
	Value interface{}
}

// StateFn represents a state in the lexer's state machine. Returning nil
// ends lexing of the current item.
type StateFn func(*Lexer) StateFn

// Interface is implemented by Lexer; split out so packages can swap in a
// mock lexer in tests without depending on the concrete type.
type Interface interface {
	Lex() Item
}

// Lexer scans runes out of an io.RuneReader, queueing each item that a
// state function passes to Emit until Lex returns it.
type Lexer struct {
	input  io.RuneReader
	init   StateFn
	pos    Pos
	width  Pos
	cur    rune
	backed bool
	items  []Item
}

// New returns a Lexer that reads from r, using init as the starting
// state for each call to Lex.
func New(r io.RuneReader, init StateFn) *Lexer {
	return &Lexer{input: r, init: init}
}

// Next returns the next rune in the input, or EOF (as a rune value) once
// the underlying reader is exhausted.
func (l *Lexer) Next() rune {
	if l.backed {
		l.backed = false
		return l.cur
	}
	r, size, err := l.input.ReadRune()
	if err != nil {
		l.cur = EOF
		l.width = 0
		return EOF
	}
	l.cur = r
	l.width = Pos(size)
	l.pos += l.width
	return r
}

// Backup rewinds the lexer by one rune (valid once per Next call).
func (l *Lexer) Backup() {
	l.backed = true
	l.pos -= l.width
}

// Current returns the most recently returned rune.
func (l *Lexer) Current() rune {
	return l.cur
}

// AcceptWhile consumes runes while pred holds.
func (l *Lexer) AcceptWhile(pred func(rune) bool) {
	for {
		r := l.Next()
		if r == EOF || !pred(r) {
			if r != EOF {
				l.Backup()
			}
			return
		}
	}
}

// Emit appends an item of the given type to the pending queue.
func (l *Lexer) Emit(t Type, v interface{}) {
	l.items = append(l.items, Item{Type: t, Pos: l.pos - l.width, Value: v})
}

// Lex runs the state machine from its initial state until an item has
// been emitted, then returns it.
func (l *Lexer) Lex() Item {
	for len(l.items) == 0 {
		state := l.init
		for state != nil {
			state = state(l)
		}
	}
	it := l.items[0]
	l.items = l.items[1:]
	return it
}

func (t Type) String() string {
	if t == EOF {
		return "end of input"
	}
	return "token"
}

// String renders an Item for use in error messages.
func (i Item) String() string {
	if i.Type == EOF {
		return "end of input"
	}
	if s, ok := i.Value.(string); ok {
		return s
	}
	return i.Type.String()
}

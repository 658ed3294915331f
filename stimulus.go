package transactron

import "github.com/db47h/transactron/internal/connspec"

// Stimulus drives a Circuit's named transaction request pins from a
// short text script instead of Go code: one line per clock cycle,
// each a comma-separated list of "name=true"/"name=false"
// assignments, parsed with the same grammar internal/connspec uses
// for chip wiring specs. A name absent from a line leaves that
// transaction's request pin untouched. The left side of an assignment
// may also be an indexed or ranged name ("req[2]=true",
// "req[0..3]=false") to drive a whole group of identically-suffixed
// transactions (e.g. DefineTransaction("req[0]", ...), ...,
// DefineTransaction("req[3]", ...)) to the same value in one line.
type Stimulus struct {
	names map[string]Pin
}

// NewStimulus builds a Stimulus addressable by ctx's transaction
// names.
func NewStimulus(ctx *Context) *Stimulus {
	names := make(map[string]Pin, len(ctx.transactions))
	for _, t := range ctx.transactions {
		names[t.Name] = t.request
	}
	return &Stimulus{names: names}
}

// Drive parses one line of the script and applies its assignments to
// cir. It returns ErrInvalidStimulus for a malformed line, an
// unknown transaction name, or a value other than true/false.
func (s *Stimulus) Drive(cir *Circuit, line string) error {
	p := &connspec.Parser{Input: line}
	for {
		item, err := p.Next(true)
		if err != nil {
			return newError(ErrInvalidStimulus, SrcLoc{}, "%v", err)
		}
		if item == nil {
			return nil
		}
		assign, ok := item.(connspec.PinAssignment)
		if !ok {
			return newError(ErrInvalidStimulus, SrcLoc{}, "%q is not an assignment", line)
		}
		rhs, ok := assign.RHS.(connspec.Pin)
		if !ok {
			return newError(ErrInvalidStimulus, SrcLoc{}, "right side of an assignment must be true or false")
		}
		var value bool
		switch rhs.Name {
		case "true":
			value = true
		case "false":
			value = false
		default:
			return newError(ErrInvalidStimulus, SrcLoc{}, "value must be true or false, got %q", rhs.Name)
		}

		var names []string
		switch lhs := assign.LHS.(type) {
		case connspec.Pin:
			names = []string{lhs.Name}
		case connspec.PinIndex:
			names = []string{connspec.BusName(lhs.Name, lhs.Index)}
		case connspec.PinRange:
			for i := lhs.Start; i <= lhs.End; i++ {
				names = append(names, connspec.BusName(lhs.Name, i))
			}
		default:
			return newError(ErrInvalidStimulus, SrcLoc{}, "left side of an assignment must be a name, an indexed name, or a name range")
		}
		for _, name := range names {
			pin, ok := s.names[name]
			if !ok {
				return newError(ErrInvalidStimulus, SrcLoc{}, "unknown transaction %q", name)
			}
			cir.Set(int(pin), value)
		}
	}
}

package transactron

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"
)

// SrcLoc identifies the source location of a definition, call site, or
// relation declaration, captured at registration time so diagnostics
// can point back at user code instead of internal bookkeeping.
type SrcLoc struct {
	File string
	Line int
}

func (s SrcLoc) String() string {
	if s.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", s.File, s.Line)
}

// callerLoc captures the caller skip frames above it in the call stack.
// skip follows the runtime.Caller convention (1 means "my caller").
func callerLoc(skip int) SrcLoc {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return SrcLoc{}
	}
	return SrcLoc{File: file, Line: line}
}

// Sentinel error kinds. ElaborationError wraps one of these; callers
// should match with errors.Is, not by comparing *ElaborationError
// fields directly.
var (
	ErrLayoutMismatch            = errors.New("layout mismatch")
	ErrOrphanCall                = errors.New("call outside an open body")
	ErrCallGraphCycle            = errors.New("method call graph has a cycle")
	ErrPriorityCycle             = errors.New("priority graph has a cycle")
	ErrUnmergedNonexclusive      = errors.New("nonexclusive method has conflicting simultaneous callers and no combiner")
	ErrContextMismatch           = errors.New("caller and callee belong to different elaboration contexts")
	ErrMissingCallee             = errors.New("call to an unregistered or nil method")
	ErrFrozenContext             = errors.New("mutation attempted after the context was frozen")
	ErrSingleCallerViolation     = errors.New("single-caller method called by more than one transaction")
	ErrInvalidStimulus           = errors.New("malformed or unresolvable stimulus script line")
	ErrMissingField              = errors.New("call omits a field with no declared default")
	ErrUnsatisfiableSimultaneity = errors.New("simultaneous declarations cannot all be satisfied by one merged group")
)

// ElaborationError is the concrete error type raised by context and
// elaboration operations. Detail is a short human-readable message;
// Loc is the source location of the offending definition or call, when
// known.
type ElaborationError struct {
	Kind   error
	Loc    SrcLoc
	Detail string
}

func (e *ElaborationError) Error() string {
	if e.Loc.File == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Loc, e.Detail)
}

func (e *ElaborationError) Unwrap() error { return e.Kind }

func newError(kind error, loc SrcLoc, format string, args ...interface{}) error {
	return errors.WithStack(&ElaborationError{Kind: kind, Loc: loc, Detail: fmt.Sprintf(format, args...)})
}

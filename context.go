package transactron

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Caller is implemented by both *Method and *Transaction: the two kinds
// of node that can open a body and issue calls. Modeled as an interface
// rather than a base-class field, since Go has no inheritance.
type Caller interface {
	callerName() string
	contextID() uuid.UUID
	isMethod() bool
	srcLoc() SrcLoc
}

// Context is one elaboration's scoped state: its signature registry,
// wire allocator, call graph, declared relations, and diagnostics
// sink. There is no ambient global context; every definition and call
// site threads one through explicitly, and mixing callers and callees
// from two different Contexts is rejected with ErrContextMismatch.
//
// A Context has a strict lifecycle: New, then zero or more Define*
// calls, then Elaborate (which freezes it), then optionally
// BuildCircuit. Calling Define* after Elaborate returns
// ErrFrozenContext.
type Context struct {
	id       uuid.UUID
	log      *logrus.Entry
	registry *Registry
	wires    *WireAllocator
	comps    []Component

	methods      []*Method
	transactions []*Transaction

	openBodies []*BodyCtx

	relations []Relation

	frozen    bool
	elaborate *elaborationResult

	config Config
}

// NewContext creates a fresh elaboration context. cfg is normalized
// with its defaults filled in; see Config.
func NewContext(cfg Config) *Context {
	cfg.setDefaults()
	id := uuid.New()
	return &Context{
		id:       id,
		log:      newLogger(cfg).WithField("context", id.String()),
		registry: NewRegistry(),
		wires:    NewWireAllocator(),
		config:   cfg,
	}
}

// ID returns the context's unique identifier, used to detect methods
// and transactions crossing between two independently elaborated
// circuits.
func (c *Context) ID() uuid.UUID { return c.id }

// Log returns the context's structured logger, pre-tagged with its
// context ID. Diagnostics tooling and the demo CLI log against it
// instead of creating their own logrus.Entry.
func (c *Context) Log() *logrus.Entry { return c.log }

func (c *Context) checkMutable(loc SrcLoc) error {
	if c.frozen {
		return newError(ErrFrozenContext, loc, "context is frozen")
	}
	return nil
}

func (c *Context) checkOwner(owner Caller, loc SrcLoc) error {
	if owner.contextID() != c.id {
		return newError(ErrContextMismatch, loc, "%q belongs to a different elaboration context", owner.callerName())
	}
	return nil
}

// alloc allocates one fresh wire.
func (c *Context) alloc() Pin { return Pin(c.wires.Alloc()) }

// allocBus allocates n fresh, contiguous-in-allocation-order wires.
func (c *Context) allocBus(n int) Bus {
	b := make(Bus, n)
	for i := range b {
		b[i] = c.alloc()
	}
	return b
}

// AllocBus allocates n fresh wires not tied to any method or
// transaction's own data_in/data_out record. Library collaborators
// (translib) use it to share a Bus between several method bodies
// defined against the same Context, e.g. a FIFO's head register.
func (c *Context) AllocBus(n int) Bus { return c.allocBus(n) }

// emit appends a Component to the circuit under construction.
func (c *Context) emit(comp Component) { c.comps = append(c.comps, comp) }

func newLogger(cfg Config) *logrus.Entry {
	l := logrus.New()
	l.SetLevel(cfg.LogLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logrus.NewEntry(l)
}

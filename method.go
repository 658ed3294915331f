package transactron

import "github.com/google/uuid"

// Reducer combines the arguments of several simultaneous callers of a
// nonexclusive method into the single argument Bus the method body
// actually sees. When a nonexclusive method with several callers has
// no explicit Combiner, a one-bit argument is combined by OR-ing the
// active callers' bits; a wider argument has no default, and
// elaboration fails with ErrUnmergedNonexclusive.
type Reducer func(ctx *Context, calls []CallArgs) Bus

// CallArgs is one enabled call site's contribution to a Reducer: its
// argument Bus and the Pin that is true when this particular call is
// both granted and enabled.
type CallArgs struct {
	Args   Bus
	Active Pin
}

// MethodOption configures optional Method behavior at definition time.
type MethodOption func(*Method)

// Nonexclusive marks a method as callable by more than one transaction
// in the same cycle. comb combines the simultaneous callers' arguments;
// if nil, a one-bit argument is OR-ed across callers and a wider one
// allows only a single caller (see Reducer).
func Nonexclusive(comb Reducer) MethodOption {
	return func(m *Method) {
		m.nonexclusive = true
		m.combiner = comb
	}
}

// SingleCaller restricts a method to being called by at most one
// static transaction (direct or transitive); violations are reported
// as ErrSingleCallerViolation during Elaborate.
func SingleCaller() MethodOption {
	return func(m *Method) { m.singleCaller = true }
}

// Method is an addressable, latency-insensitive action: a named
// interface (Signature) plus a body that computes a local readiness
// predicate and an output record from its (post-arbitration) input
// record, and that may itself call other methods.
type Method struct {
	ctx  *Context
	Name string
	loc  SrcLoc
	sig  SignatureID

	nonexclusive bool
	singleCaller bool
	combiner     Reducer

	bodyFn func(b *BodyCtx, in Bus) Bus

	dataIn, dataOut Pin0Bus
	localReady      Pin
	effectiveReady  Pin
	runPin          Pin

	record  *bodyRecord
	callers []callerActive
}

// callerActive names one inbound call site's owner alongside the Pin
// that is true exactly when that owner is active and its call to this
// method is enabled; populated by emitMethodWiring, consulted by the
// profiler to report a method's called_by set each cycle.
type callerActive struct {
	name string
	pin  Pin
}

// Pin0Bus is just Bus; named separately only where zero-width buses
// (signatures with no fields) need to read clearly as "no bits", not
// as an uninitialized slice.
type Pin0Bus = Bus

func (m *Method) callerName() string   { return m.Name }
func (m *Method) contextID() uuid.UUID { return m.ctx.id }
func (m *Method) isMethod() bool       { return true }
func (m *Method) srcLoc() SrcLoc       { return m.loc }

// Signature returns the method's interned Signature.
func (m *Method) Signature() *Signature { return m.ctx.registry.Lookup(m.sig) }

// DataOut returns the Bus carrying the method's result record. It is
// valid to read at any time after DefineMethod returns; its value is
// only meaningful on cycles where the method actually runs.
func (m *Method) DataOut() Bus { return m.dataOut }

// DataIn returns the Bus carrying the method's canonical, already
// arbitrated argument record (the output of the resolver's caller-select
// mux or combiner). Library collaborators with several methods sharing
// one piece of mutable state (e.g. a FIFO's storage) read a sibling
// method's DataIn from within their own body to avoid two independent
// Components racing on that state; see translib for the pattern.
func (m *Method) DataIn() Bus { return m.dataIn }

// Ready returns the Pin carrying the method's effective readiness
// (local readiness AND-ed with the effective readiness of every
// method it calls, each counted only while that call is enabled).
// Only valid after Elaborate.
func (m *Method) Ready() Pin { return m.effectiveReady }

// Run returns the Pin that is true on cycles where this method
// actually executes (called by a granted transaction). Only valid
// after Elaborate.
func (m *Method) Run() Pin { return m.runPin }

// DeclareReducer installs fn as method's combiner for merging several
// simultaneous nonexclusive callers' arguments, equivalent to passing
// fn to Nonexclusive at DefineMethod time but usable afterward, once
// the method is already in scope elsewhere. It fails with
// ErrContextMismatch if method belongs to a different Context, or
// ErrUnmergedNonexclusive if method was never declared nonexclusive.
func (ctx *Context) DeclareReducer(method *Method, fn Reducer) error {
	loc := callerLoc(2)
	if err := ctx.checkMutable(loc); err != nil {
		return err
	}
	if err := ctx.checkOwner(method, loc); err != nil {
		return err
	}
	if !method.nonexclusive {
		return newError(ErrUnmergedNonexclusive, loc, "DeclareReducer: method %q was not declared nonexclusive", method.Name)
	}
	method.combiner = fn
	return nil
}

// DefineMethod registers a new method against ctx. bodyFn is invoked
// once, during Elaborate, with a BodyCtx scoped to this method's body
// and the method's (post-arbitration) input Bus; it must return the
// output Bus driving the method's result record (use a zero-length
// Bus for a signature with an empty output layout).
//
// The returned *Method is usable as a callee from any other body
// defined against the same Context regardless of definition order,
// since its identity (and wire allocation) is established immediately
// but its body is only traced during Elaborate.
func (ctx *Context) DefineMethod(name string, in, out Layout, bodyFn func(b *BodyCtx, in Bus) Bus, opts ...MethodOption) (*Method, error) {
	loc := callerLoc(2)
	if err := ctx.checkMutable(loc); err != nil {
		return nil, err
	}
	m := &Method{ctx: ctx, Name: name, loc: loc, bodyFn: bodyFn}
	for _, opt := range opts {
		opt(m)
	}
	sig, err := ctx.registry.Intern(name, in, out, m.nonexclusive)
	if err != nil {
		return nil, err
	}
	m.sig = sig
	m.dataIn = ctx.allocBus(in.Width())
	m.dataOut = ctx.allocBus(out.Width())
	m.localReady = ctx.alloc()
	m.effectiveReady = ctx.alloc()
	m.runPin = ctx.alloc()
	ctx.methods = append(ctx.methods, m)
	return m, nil
}

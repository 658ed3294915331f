package transactron

// callSite is one recorded invocation of a method from a body, with
// its enable provenance already resolved (the AND of every enclosing
// When() guard and the call's own explicit enable).
type callSite struct {
	callee *Method
	args   Bus
	enable Pin
	loc    SrcLoc
}

// bodyRecord is what a BodyCtx leaves behind once closed: its call
// sites (grouped by callee, for the called_under OR-merge) and the
// local readiness/output wiring the body itself emitted.
type bodyRecord struct {
	owner      Caller
	calls      []callSite
	byCallee   map[*Method][]callSite
	localReady Pin
	readySet   bool
	readySrc   Pin
	out        Bus
}

// calledUnder returns the OR of every call site's enable addressed to
// callee from this body, or the constant-false pin if callee was never
// called.
func (r *bodyRecord) calledUnder(ctx *Context, callee *Method) Pin {
	cs := r.byCallee[callee]
	if len(cs) == 0 {
		return ctx.Const(false)
	}
	enables := make([]Pin, len(cs))
	for i, c := range cs {
		enables[i] = c.enable
	}
	return ctx.Or(enables...)
}

// BodyCtx is the open call-graph-construction context for one method
// or transaction body. It is the only way user code can call other
// methods or allocate wires local to the body; it is valid only
// between openBody and close.
type BodyCtx struct {
	ctx        *Context
	owner      Caller
	guards     []Pin
	calls      []callSite
	byCallee   map[*Method][]callSite
	localReady Pin
	readySet   bool
	readySrc   Pin
	closed     bool
}

func (c *Context) openBody(owner Caller) *BodyCtx {
	var localReady Pin
	if m, ok := owner.(*Method); ok {
		localReady = m.localReady
	} else {
		localReady = c.alloc()
	}
	b := &BodyCtx{
		ctx:        c,
		owner:      owner,
		byCallee:   map[*Method][]callSite{},
		localReady: localReady,
	}
	c.openBodies = append(c.openBodies, b)
	return b
}

func (b *BodyCtx) pop() error {
	n := len(b.ctx.openBodies)
	if n == 0 || b.ctx.openBodies[n-1] != b {
		return newError(ErrOrphanCall, b.owner.srcLoc(), "unbalanced body open/close for %q", b.owner.callerName())
	}
	b.ctx.openBodies = b.ctx.openBodies[:n-1]
	b.closed = true
	return nil
}

// When scopes fn to an additional enable guard: calls made (directly
// or via nested When regions) while fn runs have guard AND-ed into
// their enable provenance. Nested conditional regions therefore
// combine by AND, matching hardware if/else nesting.
func (b *BodyCtx) When(guard Pin, fn func()) {
	b.guards = append(b.guards, guard)
	fn()
	b.guards = b.guards[:len(b.guards)-1]
}

// Alloc allocates one wire local to this body's own combinational
// logic (e.g. an intermediate sum feeding the body's output Bus).
func (b *BodyCtx) Alloc() Pin { return b.ctx.alloc() }

// AllocBus allocates n wires local to this body.
func (b *BodyCtx) AllocBus(n int) Bus { return b.ctx.allocBus(n) }

// Emit registers a Component contributed by this body's own
// combinational logic.
func (b *BodyCtx) Emit(comp Component) { b.ctx.emit(comp) }

// SetReady records the body's own local readiness predicate: the part
// of Method.Ready() that is not already implied by the methods it
// calls. Transactions never call SetReady; their runnability is purely
// the conjunction of the methods they call.
func (b *BodyCtx) SetReady(p Pin) {
	b.readySet = true
	b.readySrc = p
	b.ctx.emit(func(cir *Circuit) { cir.Set(int(b.localReady), cir.Get(int(p))) })
}

// Call records an invocation of callee with the given argument Bus and
// explicit per-call enable, returning callee's result Bus. It fails
// with ErrOrphanCall outside an open body, ErrMissingCallee for a nil
// callee, and ErrContextMismatch if callee belongs to a different
// Context.
func (b *BodyCtx) Call(callee *Method, args Bus, enable Pin) (Bus, error) {
	loc := callerLoc(2)
	if b.closed {
		return nil, newError(ErrOrphanCall, loc, "call after body of %q was closed", b.owner.callerName())
	}
	if callee == nil {
		return nil, newError(ErrMissingCallee, loc, "call to a nil method")
	}
	if err := b.ctx.checkOwner(callee, loc); err != nil {
		return nil, err
	}
	eff := b.effectiveEnable(enable)
	cs := callSite{callee: callee, args: args, enable: eff, loc: loc}
	b.calls = append(b.calls, cs)
	b.byCallee[callee] = append(b.byCallee[callee], cs)
	return callee.dataOut, nil
}

// CallFields is like Call, but builds callee's argument Bus from named
// fields rather than requiring the caller to already shape one to
// callee's full input Layout. A field absent from vals takes the
// corresponding Field's declared Default; a field with neither a
// supplied value nor a Default fails with ErrMissingField.
func (b *BodyCtx) CallFields(callee *Method, vals map[string]Bus, enable Pin) (Bus, error) {
	loc := callerLoc(2)
	if callee == nil {
		return nil, newError(ErrMissingCallee, loc, "call to a nil method")
	}
	in := callee.Signature().In
	args := make(Bus, in.Width())
	off := 0
	for _, f := range in {
		switch v, ok := vals[f.Name]; {
		case ok:
			copy(args[off:off+f.Bits], v)
		case f.Default != nil:
			for i := 0; i < f.Bits; i++ {
				args[off+i] = b.ctx.Const(f.Default[i])
			}
		default:
			return nil, newError(ErrMissingField, loc, "call to %q omits field %q with no declared default", callee.Name, f.Name)
		}
		off += f.Bits
	}
	return b.Call(callee, args, enable)
}

func (b *BodyCtx) effectiveEnable(enable Pin) Pin {
	pins := make([]Pin, 0, len(b.guards)+1)
	pins = append(pins, b.guards...)
	pins = append(pins, enable)
	return b.ctx.And(pins...)
}

// close finalizes the body, returning its bodyRecord. It must be
// called exactly once, after bodyFn has returned.
func (b *BodyCtx) close() (*bodyRecord, error) {
	if err := b.pop(); err != nil {
		return nil, err
	}
	localReady := b.localReady
	if !b.readySet {
		// Methods default to always ready locally; transactions never
		// set one, so the conjunction below degenerates correctly to
		// "AND of called methods' effective readiness".
		b.ctx.emit(func(cir *Circuit) { cir.Set(int(localReady), true) })
	}
	return &bodyRecord{
		owner:      b.owner,
		calls:      b.calls,
		byCallee:   b.byCallee,
		localReady: localReady,
		readySet:   b.readySet,
		readySrc:   b.readySrc,
	}, nil
}

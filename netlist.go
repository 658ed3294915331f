package transactron

// NetlistNode tags the small vocabulary of combinational node kinds the
// lowering emitter and method/transaction bodies build circuits out
// of. The structural diagnostics report does not use it; the Context
// methods below (Const, Var, And, Or, Not, Mux, Eq) are what user and
// library code actually calls.
type NetlistNode int

const (
	NodeConst NetlistNode = iota
	NodeVar
	NodeAnd
	NodeOr
	NodeNot
	NodeMux
	NodeEq
)

func (n NetlistNode) String() string {
	switch n {
	case NodeConst:
		return "Const"
	case NodeVar:
		return "Var"
	case NodeAnd:
		return "And"
	case NodeOr:
		return "Or"
	case NodeNot:
		return "Not"
	case NodeMux:
		return "Mux"
	case NodeEq:
		return "Eq"
	default:
		return "?"
	}
}

// Const returns a Pin permanently driven to v.
func (c *Context) Const(v bool) Pin {
	if v {
		return Pin(wireTrue)
	}
	return Pin(wireFalse)
}

// Var allocates a free wire with no driving logic of its own; the
// caller is expected to Set it from a Component.
func (c *Context) Var() Pin { return c.alloc() }

// And emits a fresh Pin driven to the logical AND of pins. An empty
// argument list returns the constant true; a single pin is returned
// unchanged (no gate is emitted).
func (c *Context) And(pins ...Pin) Pin {
	switch len(pins) {
	case 0:
		return c.Const(true)
	case 1:
		return pins[0]
	}
	out := c.alloc()
	ps := append([]Pin(nil), pins...)
	c.emit(func(cir *Circuit) {
		v := true
		for _, p := range ps {
			v = v && cir.Get(int(p))
		}
		cir.Set(int(out), v)
	})
	return out
}

// Or emits a fresh Pin driven to the logical OR of pins.
func (c *Context) Or(pins ...Pin) Pin {
	switch len(pins) {
	case 0:
		return c.Const(false)
	case 1:
		return pins[0]
	}
	out := c.alloc()
	ps := append([]Pin(nil), pins...)
	c.emit(func(cir *Circuit) {
		v := false
		for _, p := range ps {
			v = v || cir.Get(int(p))
		}
		cir.Set(int(out), v)
	})
	return out
}

// Not emits a fresh Pin driven to the logical negation of p.
func (c *Context) Not(p Pin) Pin {
	out := c.alloc()
	c.emit(func(cir *Circuit) { cir.Set(int(out), !cir.Get(int(p))) })
	return out
}

// Mux emits a fresh Pin driven to whenTrue when sel is set, whenFalse
// otherwise.
func (c *Context) Mux(sel, whenTrue, whenFalse Pin) Pin {
	out := c.alloc()
	c.emit(func(cir *Circuit) {
		if cir.Get(int(sel)) {
			cir.Set(int(out), cir.Get(int(whenTrue)))
		} else {
			cir.Set(int(out), cir.Get(int(whenFalse)))
		}
	})
	return out
}

// MuxBus applies Mux element-wise across two equal-width buses.
func (c *Context) MuxBus(sel Pin, whenTrue, whenFalse Bus) Bus {
	if len(whenTrue) != len(whenFalse) {
		panic("transactron: MuxBus operands have different widths")
	}
	out := make(Bus, len(whenTrue))
	for i := range whenTrue {
		out[i] = c.Mux(sel, whenTrue[i], whenFalse[i])
	}
	return out
}

// PriorityMuxBus selects the Bus belonging to the first entry in opts
// whose select Pin is set, defaulting to the constant-zero bus when
// none are. It implements the caller-select mux the lowering emitter
// builds for methods with several statically-possible callers.
func (c *Context) PriorityMuxBus(width int, opts []struct {
	Sel Pin
	Val Bus
}) Bus {
	out := make(Bus, width)
	for i := range out {
		out[i] = c.Const(false)
	}
	// Fold right to left so the first (highest-priority) option wins.
	for i := len(opts) - 1; i >= 0; i-- {
		out = c.MuxBus(opts[i].Sel, opts[i].Val, out)
	}
	return out
}

// Eq emits a fresh Pin driven to true when every bit of a equals the
// corresponding bit of b.
func (c *Context) Eq(a, b Bus) Pin {
	if len(a) != len(b) {
		return c.Const(false)
	}
	as, bs := append(Bus(nil), a...), append(Bus(nil), b...)
	out := c.alloc()
	c.emit(func(cir *Circuit) {
		v := true
		for i := range as {
			if cir.Get(int(as[i])) != cir.Get(int(bs[i])) {
				v = false
				break
			}
		}
		cir.Set(int(out), v)
	})
	return out
}

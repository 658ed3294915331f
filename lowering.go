package transactron

// wireBus copies src onto dst, bit for bit, every step. dst's Pins are
// expected to already be allocated (by DefineMethod, for a method's
// canonical data_in) and otherwise undriven.
func (c *Context) wireBus(src, dst Bus) {
	if len(src) != len(dst) {
		panic("transactron: bus width mismatch while wiring")
	}
	s := append(Bus(nil), src...)
	d := append(Bus(nil), dst...)
	c.emit(func(cir *Circuit) {
		for i := range s {
			cir.Set(int(d[i]), cir.Get(int(s[i])))
		}
	})
}

// wirePin copies src onto dst every step.
func (c *Context) wirePin(src, dst Pin) {
	c.emit(func(cir *Circuit) { cir.Set(int(dst), cir.Get(int(src))) })
}

// defaultOrReducer is the resolver's fallback combiner for a
// nonexclusive method with a single-bit argument and no declared
// Reducer: the merged bit is the boolean OR of every active caller's
// argument.
func defaultOrReducer(ctx *Context, calls []CallArgs) Bus {
	terms := make([]Pin, len(calls))
	for i, call := range calls {
		terms[i] = ctx.And(call.Args[0], call.Active)
	}
	return Bus{ctx.Or(terms...)}
}

// emitMethodWiring lowers every method's canonical data_in bus and
// method_called (Run) signal from its inbound call sites: a direct
// pass-through for a single caller, a priority mux for several
// exclusive callers, and the method's Combiner for several
// nonexclusive ones (an OR of the callers' bits when none was given
// and the argument is one bit wide, otherwise failing with
// ErrUnmergedNonexclusive).
func (c *Context) emitMethodWiring(idx map[*Method][]inbound) error {
	for _, m := range c.methods {
		ins := idx[m]
		active := make([]Pin, len(ins))
		for i, in := range ins {
			active[i] = c.And(callerActivePin(in.caller), in.cs.enable)
			m.callers = append(m.callers, callerActive{name: in.caller.callerName(), pin: active[i]})
		}
		c.wirePin(c.Or(active...), m.runPin)

		switch {
		case len(ins) == 0:
			// Unconnected method: data_in stays at its power-on-zero
			// default; nothing calls it so it never runs.
		case len(ins) == 1:
			c.wireBus(ins[0].cs.args, m.dataIn)
		case m.nonexclusive:
			comb := m.combiner
			if comb == nil {
				if m.dataIn.Width() != 1 {
					return newError(ErrUnmergedNonexclusive, m.loc, "method %q has %d simultaneous callers, no combiner, and an argument wider than one bit", m.Name, len(ins))
				}
				comb = defaultOrReducer
			}
			calls := make([]CallArgs, len(ins))
			for i, in := range ins {
				calls[i] = CallArgs{Args: in.cs.args, Active: active[i]}
			}
			c.wireBus(comb(c, calls), m.dataIn)
		default:
			opts := make([]struct {
				Sel Pin
				Val Bus
			}, len(ins))
			for i, in := range ins {
				opts[i] = struct {
					Sel Pin
					Val Bus
				}{Sel: active[i], Val: in.cs.args}
			}
			c.wireBus(c.PriorityMuxBus(m.dataIn.Width(), opts), m.dataIn)
		}
	}
	return nil
}

// emitEffectiveReady wires every method's effectiveReady pin to
// local_ready AND, for each method it calls, (NOT called_under(callee)
// OR callee.effectiveReady). The call graph is acyclic (checked
// earlier), so a straightforward expression build, in any
// order, is well-formed: every Pin referenced already exists even if
// the referenced method's own effectiveReady Component hasn't been
// emitted yet.
func (c *Context) emitEffectiveReady() {
	for _, m := range c.methods {
		c.emitCallerEffectiveReady(m, m.record, m.effectiveReady)
	}
}

// emitRunnable wires every transaction's runnable pin the same way,
// minus the local_ready term (transactions have none of their own).
func (c *Context) emitRunnable() {
	for _, t := range c.transactions {
		c.emitCallerEffectiveReady(t, t.record, t.runnable)
	}
}

func (c *Context) emitCallerEffectiveReady(owner Caller, rec *bodyRecord, out Pin) {
	terms := []Pin{}
	if m, ok := owner.(*Method); ok {
		terms = append(terms, m.localReady)
	}
	if rec != nil {
		seen := map[*Method]bool{}
		for _, cs := range rec.calls {
			if seen[cs.callee] {
				continue
			}
			seen[cs.callee] = true
			under := rec.calledUnder(c, cs.callee)
			terms = append(terms, c.Or(c.Not(under), cs.callee.effectiveReady))
		}
	}
	c.wirePin(c.And(terms...), out)
}

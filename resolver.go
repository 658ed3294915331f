package transactron

// inbound is one recorded call site addressed at a method, together
// with the Caller (method or transaction) that issued it.
type inbound struct {
	caller Caller
	cs     callSite
}

func recordOf(owner Caller) *bodyRecord {
	switch o := owner.(type) {
	case *Method:
		return o.record
	case *Transaction:
		return o.record
	default:
		return nil
	}
}

func callerActivePin(owner Caller) Pin {
	switch o := owner.(type) {
	case *Method:
		return o.runPin
	case *Transaction:
		return o.grant
	default:
		return 0
	}
}

// inboundCallSites indexes every recorded call site by callee, scanning
// every method's and transaction's traced body record.
func (c *Context) inboundCallSites() map[*Method][]inbound {
	idx := map[*Method][]inbound{}
	add := func(owner Caller, rec *bodyRecord) {
		if rec == nil {
			return
		}
		for _, cs := range rec.calls {
			idx[cs.callee] = append(idx[cs.callee], inbound{owner, cs})
		}
	}
	for _, m := range c.methods {
		add(m, m.record)
	}
	for _, t := range c.transactions {
		add(t, t.record)
	}
	return idx
}

// reachableMethods returns every method reachable from root by
// following recorded call sites, structurally (ignoring runtime
// enable values): this is what the conflict graph builder and the
// single-caller checker use to decide "who can call this method".
func (c *Context) reachableMethods(root Caller) map[*Method]bool {
	seen := map[*Method]bool{}
	var visit func(owner Caller)
	visit = func(owner Caller) {
		rec := recordOf(owner)
		if rec == nil {
			return
		}
		for _, cs := range rec.calls {
			if seen[cs.callee] {
				continue
			}
			seen[cs.callee] = true
			visit(cs.callee)
		}
	}
	visit(root)
	return seen
}

// transactionsFor returns every transaction that can cause caller to
// run: caller itself if it is a Transaction, or every transaction
// whose call closure reaches it if caller is a Method. Used to expand
// a Relation's endpoints (which may name either kind of Caller) into
// the transaction pairs the conflict graph and simultaneous-merge
// pass actually operate on.
func (c *Context) transactionsFor(caller Caller) []*Transaction {
	if t, ok := caller.(*Transaction); ok {
		return []*Transaction{t}
	}
	m, ok := caller.(*Method)
	if !ok {
		return nil
	}
	var out []*Transaction
	for _, t := range c.transactions {
		if c.reachableMethods(t)[m] {
			out = append(out, t)
		}
	}
	return out
}

// checkSingleCaller enforces the SingleCaller() method option: a
// method so marked must be reachable from at most one distinct
// transaction.
func (c *Context) checkSingleCaller() error {
	callers := map[*Method]map[*Transaction]bool{}
	for _, t := range c.transactions {
		for m := range c.reachableMethods(t) {
			if callers[m] == nil {
				callers[m] = map[*Transaction]bool{}
			}
			callers[m][t] = true
		}
	}
	for _, m := range c.methods {
		if !m.singleCaller {
			continue
		}
		if n := len(callers[m]); n > 1 {
			return newError(ErrSingleCallerViolation, m.loc, "method %q is reachable from %d distinct transactions", m.Name, n)
		}
	}
	return nil
}

// detectCallGraphCycles runs a 3-color DFS over the method call graph
// (transactions are roots only, never callees, so they cannot
// participate in a cycle).
func (c *Context) detectCallGraphCycles() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[*Method]int{}
	var visit func(m *Method) error
	visit = func(m *Method) error {
		color[m] = gray
		if m.record != nil {
			for _, cs := range m.record.calls {
				switch color[cs.callee] {
				case gray:
					return newError(ErrCallGraphCycle, cs.loc, "method %q calls %q, forming a cycle", m.Name, cs.callee.Name)
				case white:
					if err := visit(cs.callee); err != nil {
						return err
					}
				}
			}
		}
		color[m] = black
		return nil
	}
	for _, m := range c.methods {
		if color[m] == white {
			if err := visit(m); err != nil {
				return err
			}
		}
	}
	return nil
}

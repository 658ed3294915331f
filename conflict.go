package transactron

import "github.com/bits-and-blooms/bitset"

// conflictGraph records which pairs of transactions must never be
// granted in the same cycle: implicitly, because they structurally
// share an exclusive method, or explicitly, via a declared Relation.
// Each transaction's row is a bitset over every other transaction's
// index, rather than a map, since the transaction count is fixed once
// Elaborate starts building it and membership tests run once per
// scheduled component per transaction pair.
type conflictGraph struct {
	index  map[*Transaction]uint
	order  []*Transaction
	rows   []*bitset.BitSet
	causes map[[2]uint][]string
}

func newConflictGraph(txs []*Transaction) *conflictGraph {
	g := &conflictGraph{
		index:  make(map[*Transaction]uint, len(txs)),
		order:  txs,
		rows:   make([]*bitset.BitSet, len(txs)),
		causes: map[[2]uint][]string{},
	}
	for i, t := range txs {
		g.index[t] = uint(i)
		g.rows[i] = bitset.New(uint(len(txs)))
	}
	return g
}

// add records a conflict edge between a and b, attributed to cause
// (e.g. "shared:Push" or "explicit"); causesFor reports every cause
// accumulated for a pair, for diagnostics.
func (g *conflictGraph) add(a, b *Transaction, cause string) {
	if a == b {
		return
	}
	ia, ib := g.index[a], g.index[b]
	g.rows[ia].Set(ib)
	g.rows[ib].Set(ia)
	key := causeKey(ia, ib)
	for _, c := range g.causes[key] {
		if c == cause {
			return
		}
	}
	g.causes[key] = append(g.causes[key], cause)
}

func causeKey(ia, ib uint) [2]uint {
	if ia < ib {
		return [2]uint{ia, ib}
	}
	return [2]uint{ib, ia}
}

// causesFor returns every cause recorded for the conflict edge between
// a and b, or nil if they do not conflict.
func (g *conflictGraph) causesFor(a, b *Transaction) []string {
	return g.causes[causeKey(g.index[a], g.index[b])]
}

func (g *conflictGraph) remove(a, b *Transaction) {
	ia, ib := g.index[a], g.index[b]
	g.rows[ia].Clear(ib)
	g.rows[ib].Clear(ia)
}

func (g *conflictGraph) conflicts(a, b *Transaction) bool {
	return g.rows[g.index[a]].Test(g.index[b])
}

// neighbors returns every transaction conflicting with t.
func (g *conflictGraph) neighbors(t *Transaction) []*Transaction {
	var out []*Transaction
	row := g.rows[g.index[t]]
	for i, ok := row.NextSet(0); ok; i, ok = row.NextSet(i + 1) {
		out = append(out, g.order[i])
	}
	return out
}

// buildConflictGraph derives the implicit conflict edges between
// representatives of scheduled (post simultaneous-merge) transactions
// — two distinct representatives structurally sharing a
// non-nonexclusive method, the method reachable from either through
// any member of its own merge group — and then applies every declared
// Relation whose endpoints resolve to two different representatives:
// Conflict adds an edge regardless of method sharing; Independent
// removes one that sharing would otherwise have implied. Simultaneous
// and SimultaneousAlternatives pairs never reach this graph as
// separate nodes at all: buildSimultaneousMerge already collapsed them
// into one representative apiece.
func (c *Context) buildConflictGraph(scheduled []*Transaction, merge *simultaneousMerge) *conflictGraph {
	g := newConflictGraph(scheduled)

	callersOf := map[*Method][]*Transaction{}
	for _, rep := range scheduled {
		methods := map[*Method]bool{}
		for _, mem := range merge.groups[rep] {
			for meth := range c.reachableMethods(mem) {
				methods[meth] = true
			}
		}
		for meth := range methods {
			callersOf[meth] = append(callersOf[meth], rep)
		}
	}
	for meth, reps := range callersOf {
		if meth.nonexclusive {
			continue
		}
		for i := 0; i < len(reps); i++ {
			for j := i + 1; j < len(reps); j++ {
				g.add(reps[i], reps[j], "shared:"+meth.Name)
			}
		}
	}

	for _, rel := range c.relations {
		switch {
		case rel.Conflict:
			for _, a := range c.transactionsFor(rel.Left) {
				for _, b := range c.transactionsFor(rel.Right) {
					ra, rb := merge.repOf[a], merge.repOf[b]
					if ra != rb {
						g.add(ra, rb, "explicit")
					}
				}
			}
		case rel.Independent:
			for _, a := range c.transactionsFor(rel.Left) {
				for _, b := range c.transactionsFor(rel.Right) {
					ra, rb := merge.repOf[a], merge.repOf[b]
					if ra != rb {
						g.remove(ra, rb)
					}
				}
			}
		}
	}
	return g
}

// priorityEdges builds the directed priority graph among scheduled
// representatives implied by every declared Relation carrying a
// Priority, remapping each endpoint through merge so a priority
// declared against a transaction that was merged away is honored
// against its group's representative instead.
func (c *Context) priorityEdges(merge *simultaneousMerge) map[*Transaction][]*Transaction {
	edges := map[*Transaction][]*Transaction{}
	for _, rel := range c.relations {
		if rel.Priority == PriorityUndefined {
			continue
		}
		for _, a := range c.transactionsFor(rel.Left) {
			for _, b := range c.transactionsFor(rel.Right) {
				ra, rb := merge.repOf[a], merge.repOf[b]
				if ra == rb {
					continue
				}
				switch rel.Priority {
				case PriorityLeft:
					edges[ra] = append(edges[ra], rb)
				case PriorityRight:
					edges[rb] = append(edges[rb], ra)
				}
			}
		}
	}
	return edges
}

// DeclareConflict records that left and right must never be granted
// (if transactions) or simultaneously active (if methods) in the same
// cycle, regardless of whether they structurally share a method.
func (c *Context) DeclareConflict(left, right Caller) error {
	loc := callerLoc(2)
	if err := c.checkMutable(loc); err != nil {
		return err
	}
	c.relations = append(c.relations, Relation{Left: left, Right: right, Conflict: true, Loc: loc})
	return nil
}

// ScheduleBefore records a priority hint: when left and right conflict
// and are both runnable in the same cycle, left wins.
func (c *Context) ScheduleBefore(left, right Caller) error {
	loc := callerLoc(2)
	if err := c.checkMutable(loc); err != nil {
		return err
	}
	c.relations = append(c.relations, Relation{Left: left, Right: right, Priority: PriorityLeft, Loc: loc})
	return nil
}

// Simultaneous declares that left and right (transactions, or methods
// standing in for every transaction that can call them) always run
// together: before the conflict graph is built, Elaborate merges every
// transaction transitively declared Simultaneous with each other into
// one synthetic representative transaction, which the scheduler treats
// as a single schedulable unit. The group is runnable only once every
// member is, and requested whenever any member is; granting it grants
// every member. Declaring a pair both Simultaneous and
// SimultaneousAlternatives, directly or through a chain of other
// declarations, fails Elaborate with ErrUnsatisfiableSimultaneity.
func (c *Context) Simultaneous(left, right Caller) error {
	loc := callerLoc(2)
	if err := c.checkMutable(loc); err != nil {
		return err
	}
	c.relations = append(c.relations, Relation{Left: left, Right: right, Simultaneous: true, Loc: loc})
	return nil
}

// SimultaneousAlternatives is like Simultaneous — left and right merge
// into one scheduled unit and are never separately conflict-checked —
// except exactly one member of the resulting group may actually be
// granted per cycle the group runs, chosen in definition order among
// whichever members are themselves requested and individually
// runnable that cycle.
func (c *Context) SimultaneousAlternatives(left, right Caller) error {
	loc := callerLoc(2)
	if err := c.checkMutable(loc); err != nil {
		return err
	}
	c.relations = append(c.relations, Relation{Left: left, Right: right, Alternatives: true, Loc: loc})
	return nil
}

// Independent records that left and right are allowed to run in the
// same cycle even though they structurally share an exclusive method,
// without merging them into one scheduled unit: it is the designer's
// assertion that the sharing is safe (e.g. the method is read-only
// with respect to both), not something the manager itself verifies.
// The recorded Relation has SilenceWarning set; no diagnostic
// currently reads that flag.
func (c *Context) Independent(left, right Caller) error {
	loc := callerLoc(2)
	if err := c.checkMutable(loc); err != nil {
		return err
	}
	c.relations = append(c.relations, Relation{Left: left, Right: right, Independent: true, SilenceWarning: true, Loc: loc})
	return nil
}

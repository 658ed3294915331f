package transactron

// txUnionFind computes the transitive closure of declared pairs over a
// fixed universe of transactions, ported from the union-find the
// original scheduler's _simultaneous pass builds by hand with a BFS
// queue over independent sets; path compression makes repeated find
// calls during group collection cheap.
type txUnionFind struct {
	parent map[*Transaction]*Transaction
}

func newTxUnionFind(txs []*Transaction) *txUnionFind {
	u := &txUnionFind{parent: make(map[*Transaction]*Transaction, len(txs))}
	for _, t := range txs {
		u.parent[t] = t
	}
	return u
}

func (u *txUnionFind) find(t *Transaction) *Transaction {
	root := t
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[t] != root {
		next := u.parent[t]
		u.parent[t] = root
		t = next
	}
	return root
}

func (u *txUnionFind) union(a, b *Transaction) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// simultaneousMerge is the result of the pre-scheduling merge pass:
// every group of transactions declared (directly or transitively)
// Simultaneous or SimultaneousAlternatives with each other, collapsed
// to one representative apiece. Transactions outside any group are
// their own singleton group and their own representative.
type simultaneousMerge struct {
	repOf  map[*Transaction]*Transaction
	groups map[*Transaction][]*Transaction // keyed by representative, members in definition order
	alt    map[*Transaction]bool           // true if the group keyed by this representative is an Alternatives group

	origRequest  map[*Transaction]Pin
	origRunnable map[*Transaction]Pin
	origGrant    map[*Transaction]Pin
}

// buildSimultaneousMerge computes the merge groups implied by every
// declared Simultaneous/SimultaneousAlternatives relation, following
// manager.py's _simultaneous: take the transitive closure of declared
// pairs (a AND-group and an Alternatives group never mix: a pair
// declared both ways, or two pairs that would merge an AND-group with
// an Alternatives group, is rejected with ErrUnsatisfiableSimultaneity),
// then pick the first-defined member of each resulting group as its
// representative.
func (c *Context) buildSimultaneousMerge() (*simultaneousMerge, error) {
	m := &simultaneousMerge{
		repOf:        map[*Transaction]*Transaction{},
		groups:       map[*Transaction][]*Transaction{},
		alt:          map[*Transaction]bool{},
		origRequest:  map[*Transaction]Pin{},
		origRunnable: map[*Transaction]Pin{},
		origGrant:    map[*Transaction]Pin{},
	}
	for _, t := range c.transactions {
		m.repOf[t] = t
		m.origRequest[t] = t.request
		m.origRunnable[t] = t.runnable
		m.origGrant[t] = t.grant
	}

	uf := newTxUnionFind(c.transactions)
	isAlt := map[[2]*Transaction]bool{}
	isAnd := map[[2]*Transaction]bool{}
	for _, rel := range c.relations {
		if !rel.Simultaneous && !rel.Alternatives {
			continue
		}
		for _, a := range c.transactionsFor(rel.Left) {
			for _, b := range c.transactionsFor(rel.Right) {
				if a == b {
					continue
				}
				uf.union(a, b)
				if rel.Alternatives {
					isAlt[[2]*Transaction{a, b}] = true
					isAlt[[2]*Transaction{b, a}] = true
				} else {
					isAnd[[2]*Transaction{a, b}] = true
					isAnd[[2]*Transaction{b, a}] = true
				}
			}
		}
	}

	byRoot := map[*Transaction][]*Transaction{}
	for _, t := range c.transactions {
		root := uf.find(t)
		byRoot[root] = append(byRoot[root], t)
	}

	for _, members := range byRoot {
		if len(members) <= 1 {
			continue
		}
		and, alt := false, false
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				pair := [2]*Transaction{members[i], members[j]}
				if isAlt[pair] {
					alt = true
				}
				if isAnd[pair] {
					and = true
				}
			}
		}
		if and && alt {
			return nil, newError(ErrUnsatisfiableSimultaneity, SrcLoc{}, "transactions %s mix Simultaneous and SimultaneousAlternatives in one merge group", txNames(members))
		}
		rep := definitionFirst(c.transactions, members)
		for _, mem := range members {
			m.repOf[mem] = rep
		}
		m.groups[rep] = definitionOrder(c.transactions, members)
		m.alt[rep] = alt
	}
	return m, nil
}

func definitionFirst(order, members []*Transaction) *Transaction {
	set := make(map[*Transaction]bool, len(members))
	for _, m := range members {
		set[m] = true
	}
	for _, t := range order {
		if set[t] {
			return t
		}
	}
	return members[0]
}

func definitionOrder(order, members []*Transaction) []*Transaction {
	set := make(map[*Transaction]bool, len(members))
	for _, m := range members {
		set[m] = true
	}
	var out []*Transaction
	for _, t := range order {
		if set[t] {
			out = append(out, t)
		}
	}
	return out
}

func txNames(txs []*Transaction) string {
	s := ""
	for i, t := range txs {
		if i > 0 {
			s += ", "
		}
		s += t.Name
	}
	return s
}

// applyMerge rewires every multi-member group's representative to
// present one combined request/runnable signal to the scheduler in
// place of its own: the OR of every member's request, and either the
// AND of every member's runnable (a Simultaneous group always runs all
// of its members together) or the OR of each member's own
// request-AND-runnable (a SimultaneousAlternatives group only needs
// one ready member to be schedulable). The representative's grant pin
// is replaced with a fresh one for the scheduler to drive; finishMerge
// fans that decision back out once scheduling has run. It returns the
// reduced transaction list — one node per group plus every ungrouped
// transaction — that the conflict graph and scheduler operate on.
func (c *Context) applyMerge(merge *simultaneousMerge) []*Transaction {
	var scheduled []*Transaction
	for _, t := range c.transactions {
		if merge.repOf[t] != t {
			continue
		}
		scheduled = append(scheduled, t)
		members := merge.groups[t]
		if len(members) <= 1 {
			continue
		}
		reqs := make([]Pin, len(members))
		runs := make([]Pin, len(members))
		for i, mem := range members {
			reqs[i] = merge.origRequest[mem]
			runs[i] = merge.origRunnable[mem]
		}
		groupRequest := c.Or(reqs...)
		var groupRunnable Pin
		if merge.alt[t] {
			terms := make([]Pin, len(members))
			for i := range members {
				terms[i] = c.And(reqs[i], runs[i])
			}
			groupRunnable = c.Or(terms...)
		} else {
			groupRunnable = c.And(runs...)
		}
		t.request = groupRequest
		t.runnable = groupRunnable
		t.grant = c.alloc()
	}
	return scheduled
}

// finishMerge fans a scheduled group's combined grant decision back
// out to every member's own grant pin, then restores the
// representative's own grant field to the pin its body's calls were
// already wired against during emitMethodWiring. A Simultaneous group
// mirrors the decision to every member unconditionally, since every
// member runs whenever the group does. A SimultaneousAlternatives
// group instead runs a small definition-order arbiter scoped to the
// group's own requesting, runnable members, so exactly one member's
// grant is asserted per cycle the group fires.
func (c *Context) finishMerge(merge *simultaneousMerge) {
	for rep, members := range merge.groups {
		if len(members) <= 1 {
			continue
		}
		groupDecision := rep.grant
		if merge.alt[rep] {
			c.emitAlternativeGrants(members, groupDecision, merge)
		} else {
			for _, mem := range members {
				c.wirePin(groupDecision, merge.origGrant[mem])
			}
		}
		rep.request = merge.origRequest[rep]
		rep.runnable = merge.origRunnable[rep]
		rep.grant = merge.origGrant[rep]
	}
}

// emitAlternativeGrants grants exactly one requesting, individually
// runnable member of an Alternatives group per cycle the group itself
// is granted, in definition order: member i wins if it is
// request-and-runnable and no earlier member in the group is.
func (c *Context) emitAlternativeGrants(members []*Transaction, groupDecision Pin, merge *simultaneousMerge) {
	reqs := make([]Pin, len(members))
	runs := make([]Pin, len(members))
	for i, mem := range members {
		reqs[i] = merge.origRequest[mem]
		runs[i] = merge.origRunnable[mem]
	}
	for i, mem := range members {
		eligible := c.And(reqs[i], runs[i])
		var higher []Pin
		for j := 0; j < i; j++ {
			higher = append(higher, c.And(reqs[j], runs[j]))
		}
		selected := c.And(eligible, c.Not(c.Or(higher...)))
		c.wirePin(c.And(groupDecision, selected), merge.origGrant[mem])
	}
}

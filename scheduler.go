package transactron

// SchedulerMode selects the arbitration discipline the scheduler
// synthesizer uses among conflicting, simultaneously runnable
// transactions.
type SchedulerMode int

const (
	// GreedyDeterministic grants the highest-priority runnable,
	// requesting transaction in every conflict-graph connected
	// component each cycle. Purely combinational: priority comes from
	// declared ScheduleBefore relations, falling back to definition
	// order where undeclared.
	GreedyDeterministic SchedulerMode = iota
	// RoundRobin advances a one-hot pointer per connected component on
	// every rising clock edge, granting the first eligible transaction
	// starting from the pointer. Avoids starving low (definition
	// order) priority transactions, at the cost of one register's
	// worth of state per component.
	RoundRobin
)

func (m SchedulerMode) String() string {
	if m == RoundRobin {
		return "round-robin"
	}
	return "greedy-deterministic"
}

type scheduleComponent struct {
	txs []*Transaction
}

// connectedComponents partitions txs by conflictGraph reachability.
func connectedComponents(txs []*Transaction, g *conflictGraph) []scheduleComponent {
	seen := map[*Transaction]bool{}
	var comps []scheduleComponent
	for _, t := range txs {
		if seen[t] {
			continue
		}
		var comp []*Transaction
		queue := []*Transaction{t}
		seen[t] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			comp = append(comp, cur)
			for _, other := range g.neighbors(cur) {
				if !seen[other] {
					seen[other] = true
					queue = append(queue, other)
				}
			}
		}
		comps = append(comps, scheduleComponent{txs: comp})
	}
	return comps
}

// topoSort orders nodes consistently with edges (a->b means a before
// b), breaking ties by nodes' own order, and fails with
// ErrPriorityCycle if edges contain a cycle. Edges leading to a
// transaction outside nodes are ignored.
func topoSort(nodes []*Transaction, edges map[*Transaction][]*Transaction) ([]*Transaction, error) {
	indeg := map[*Transaction]int{}
	for _, n := range nodes {
		indeg[n] = 0
	}
	for _, n := range nodes {
		for _, to := range edges[n] {
			if _, ok := indeg[to]; ok {
				indeg[to]++
			}
		}
	}
	var ready []*Transaction
	for _, n := range nodes {
		if indeg[n] == 0 {
			ready = append(ready, n)
		}
	}
	var order []*Transaction
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, to := range edges[n] {
			if _, ok := indeg[to]; !ok {
				continue
			}
			indeg[to]--
			if indeg[to] == 0 {
				ready = append(ready, to)
			}
		}
	}
	if len(order) != len(nodes) {
		return nil, newError(ErrPriorityCycle, SrcLoc{}, "priority relations among %d transactions form a cycle", len(nodes))
	}
	return order, nil
}

// synthesizeSchedule emits the grant logic for every connected
// component of g over the scheduled (post simultaneous-merge)
// transaction list, in the mode configured on ctx.
func (c *Context) synthesizeSchedule(scheduled []*Transaction, g *conflictGraph, merge *simultaneousMerge) error {
	edges := c.priorityEdges(merge)
	if _, err := topoSort(scheduled, edges); err != nil {
		return err
	}
	for _, comp := range connectedComponents(scheduled, g) {
		order, err := topoSort(comp.txs, edges)
		if err != nil {
			return err
		}
		switch c.config.Mode {
		case RoundRobin:
			c.emitRoundRobinGrants(order, g)
		default:
			c.emitGreedyGrants(order, g)
		}
	}
	return nil
}

// emitGreedyGrants grants each transaction in priority order if it is
// requested and runnable and no strictly-higher-priority conflicting
// transaction was already granted this cycle.
func (c *Context) emitGreedyGrants(order []*Transaction, g *conflictGraph) {
	for i, t := range order {
		higher := order[:i]
		var blockedBy []Pin
		for _, h := range higher {
			if g.conflicts(t, h) {
				blockedBy = append(blockedBy, h.grant)
			}
		}
		request, runnable, grant := t.request, t.runnable, t.grant
		c.emit(func(cir *Circuit) {
			ok := cir.Get(int(request)) && cir.Get(int(runnable))
			for _, h := range blockedBy {
				if cir.Get(int(h)) {
					ok = false
					break
				}
			}
			cir.Set(int(grant), ok)
		})
	}
}

// emitRoundRobinGrants is like emitGreedyGrants but rotates the
// priority order by one register's worth of state, advancing on every
// rising clock edge to just past whichever transaction won.
func (c *Context) emitRoundRobinGrants(order []*Transaction, g *conflictGraph) {
	n := len(order)
	if n == 0 {
		return
	}
	requests := make([]Pin, n)
	runnables := make([]Pin, n)
	grants := make([]Pin, n)
	conflictsWith := make([][]int, n)
	for i, t := range order {
		requests[i], runnables[i], grants[i] = t.request, t.runnable, t.grant
	}
	for i := range order {
		for j := range order {
			if i != j && g.conflicts(order[i], order[j]) {
				conflictsWith[i] = append(conflictsWith[i], j)
			}
		}
	}

	ptr := 0
	prevClk := false
	c.emit(func(cir *Circuit) {
		eligible := make([]bool, n)
		for i := range order {
			eligible[i] = cir.Get(int(requests[i])) && cir.Get(int(runnables[i]))
		}
		granted := make([]bool, n)
		blocked := make([]bool, n)
		for k := 0; k < n; k++ {
			i := (ptr + k) % n
			if !eligible[i] || blocked[i] {
				continue
			}
			granted[i] = true
			for _, j := range conflictsWith[i] {
				blocked[j] = true
			}
		}
		for i := range order {
			cir.Set(int(grants[i]), granted[i])
		}
		clk := cir.Get(wireClk)
		if clk && !prevClk {
			for k := 0; k < n; k++ {
				i := (ptr + k) % n
				if granted[i] {
					ptr = (i + 1) % n
					break
				}
			}
		}
		prevClk = clk
	})
}

package transactron

// elaborationResult holds the artifacts Elaborate produces, consulted
// by BuildCircuit and the diagnostics report.
type elaborationResult struct {
	conflicts *conflictGraph
	merge     *simultaneousMerge
	scheduled []*Transaction
}

// Elaborate traces every registered method's and transaction's body,
// builds the call graph, computes effective readiness, constructs the
// conflict and priority graphs, and synthesizes the grant logic for
// every connected component of conflicting transactions. It must be
// called exactly once, after every Define* call and before
// BuildCircuit; afterwards the Context is frozen and further Define*
// or relation-declaring calls fail with ErrFrozenContext.
func (c *Context) Elaborate() error {
	if err := c.checkMutable(SrcLoc{}); err != nil {
		return err
	}

	for _, m := range c.methods {
		b := c.openBody(m)
		out := m.bodyFn(b, m.dataIn)
		rec, err := b.close()
		if err != nil {
			return err
		}
		rec.out = out
		m.record = rec
		c.wireBus(out, m.dataOut)
	}
	for _, t := range c.transactions {
		b := c.openBody(t)
		t.bodyFn(b)
		rec, err := b.close()
		if err != nil {
			return err
		}
		t.record = rec
	}

	if err := c.detectCallGraphCycles(); err != nil {
		return err
	}
	if err := c.checkSingleCaller(); err != nil {
		return err
	}

	idx := c.inboundCallSites()
	if err := c.emitMethodWiring(idx); err != nil {
		return err
	}

	c.emitEffectiveReady()
	c.emitRunnable()

	merge, err := c.buildSimultaneousMerge()
	if err != nil {
		return err
	}
	scheduled := c.applyMerge(merge)

	g := c.buildConflictGraph(scheduled, merge)
	if err := c.synthesizeSchedule(scheduled, g, merge); err != nil {
		return err
	}
	c.finishMerge(merge)

	c.elaborate = &elaborationResult{conflicts: g, merge: merge, scheduled: scheduled}
	c.frozen = true
	c.log.WithField("methods", len(c.methods)).
		WithField("transactions", len(c.transactions)).
		WithField("wires", c.wires.Count()).
		Info("elaboration complete")
	return nil
}

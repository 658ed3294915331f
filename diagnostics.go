package transactron

import (
	"io"

	"github.com/segmentio/encoding/json"
	"github.com/sirupsen/logrus"
)

// ConflictEdge is one pair of scheduled transactions that can never be
// granted in the same cycle, together with every reason buildConflictGraph
// found for the edge: "shared:<method>" for each exclusive method both
// sides reach, "explicit" for a declared DeclareConflict.
type ConflictEdge struct {
	A      string   `json:"a"`
	B      string   `json:"b"`
	Causes []string `json:"causes"`
}

// SimultaneousGroup reports one simultaneous-merge group Elaborate
// collapsed into a single scheduled unit.
type SimultaneousGroup struct {
	Representative string   `json:"representative"`
	Members        []string `json:"members"`
	Alternatives   bool     `json:"alternatives"`
}

// Ambiguity flags a structural condition the manager resolved by
// convention rather than by the designer's explicit say, worth a
// second look: a nonexclusive method that fell back to the default
// boolean-OR reducer, a priority declaration that could not be
// satisfied by any ordering, or a method whose local readiness is
// wired to a literal constant false.
type Ambiguity struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// StructuralReport summarizes one elaborated Context's call graph,
// conflict graph, simultaneous-merge groups, and scheduler
// configuration: the artifact diagnostics tooling and the demo CLI
// print after Elaborate.
type StructuralReport struct {
	ContextID     string              `json:"contextId"`
	Methods       []string            `json:"methods"`
	Transactions  []string            `json:"transactions"`
	Wires         int                 `json:"wires"`
	Mode          string              `json:"mode"`
	ConflictEdges []ConflictEdge      `json:"conflictEdges"`
	PriorityOrder []string            `json:"priorityOrder"`
	Groups        []SimultaneousGroup `json:"simultaneousGroups,omitempty"`
	Ambiguities   []Ambiguity         `json:"ambiguities,omitempty"`
	Nonexclusive  []string            `json:"nonexclusiveMethods,omitempty"`
	SingleCaller  []string            `json:"singleCallerMethods,omitempty"`
}

// Report builds a StructuralReport from ctx. It must be called after
// Elaborate.
func (c *Context) Report() (*StructuralReport, error) {
	if c.elaborate == nil {
		return nil, newError(ErrFrozenContext, SrcLoc{}, "Report called before Elaborate")
	}
	r := &StructuralReport{
		ContextID: c.id.String(),
		Wires:     c.wires.Count(),
		Mode:      c.config.Mode.String(),
	}
	for _, m := range c.methods {
		r.Methods = append(r.Methods, m.Name)
	}
	for _, t := range c.transactions {
		r.Transactions = append(r.Transactions, t.Name)
	}

	scheduled := c.elaborate.scheduled
	merge := c.elaborate.merge
	g := c.elaborate.conflicts

	type pair struct{ a, b *Transaction }
	seen := map[pair]bool{}
	for _, a := range scheduled {
		for _, b := range g.neighbors(a) {
			if seen[pair{b, a}] {
				continue
			}
			seen[pair{a, b}] = true
			r.ConflictEdges = append(r.ConflictEdges, ConflictEdge{A: a.Name, B: b.Name, Causes: g.causesFor(a, b)})
		}
	}

	order, err := topoSort(scheduled, c.priorityEdges(merge))
	if err == nil {
		for _, t := range order {
			r.PriorityOrder = append(r.PriorityOrder, t.Name)
		}
	} else {
		r.Ambiguities = append(r.Ambiguities, Ambiguity{Kind: "priority-cycle", Detail: err.Error()})
	}

	for _, rep := range scheduled {
		members := merge.groups[rep]
		if len(members) <= 1 {
			continue
		}
		names := make([]string, len(members))
		for i, m := range members {
			names[i] = m.Name
		}
		r.Groups = append(r.Groups, SimultaneousGroup{
			Representative: rep.Name,
			Members:        names,
			Alternatives:   merge.alt[rep],
		})
	}

	for _, m := range c.methods {
		if m.nonexclusive {
			r.Nonexclusive = append(r.Nonexclusive, m.Name)
			if m.combiner == nil && len(m.callers) > 1 {
				r.Ambiguities = append(r.Ambiguities, Ambiguity{
					Kind:   "nonexclusive-default-reducer",
					Detail: "method " + m.Name + " has no declared Reducer; simultaneous callers are merged with the default boolean-OR",
				})
			}
		}
		if m.singleCaller {
			r.SingleCaller = append(r.SingleCaller, m.Name)
		}
		if m.record != nil && m.record.readySet && m.record.readySrc == Pin(wireFalse) {
			r.Ambiguities = append(r.Ambiguities, Ambiguity{
				Kind:   "unsatisfiable-ready",
				Detail: "method " + m.Name + " calls SetReady with a literal constant false and can never become ready",
			})
		}
	}
	return r, nil
}

// Log writes the report to log at info level, one structured field per
// summary statistic.
func (r *StructuralReport) Log(log *logrus.Entry) {
	log.WithFields(logrus.Fields{
		"methods":       len(r.Methods),
		"transactions":  len(r.Transactions),
		"wires":         r.Wires,
		"conflictEdges": len(r.ConflictEdges),
		"groups":        len(r.Groups),
		"ambiguities":   len(r.Ambiguities),
		"mode":          r.Mode,
	}).Info("structural report")
}

// TransactionSample is one transaction's state on a sampled cycle:
// request is the designer-driven request pin, grant is whether the
// transaction actually ran, and locked is request without grant — the
// transaction wanted to run but lost arbitration or was not runnable.
type TransactionSample struct {
	Request bool `json:"request"`
	Grant   bool `json:"grant"`
	Locked  bool `json:"locked"`
}

// MethodSample is one method's state on a sampled cycle: calledBy
// lists the names of every caller whose call to this method was
// active (its owner ran and its call site's enable was set), ready is
// the method's effective readiness.
type MethodSample struct {
	CalledBy []string `json:"called_by"`
	Ready    bool     `json:"ready"`
}

// ProfileSample is one clock cycle's scheduling snapshot, keyed by
// transaction and method name.
type ProfileSample struct {
	Cycle        uint                         `json:"cycle"`
	Transactions map[string]TransactionSample `json:"transactions"`
	Methods      map[string]MethodSample      `json:"methods"`
}

// Profiler samples a running Circuit's transaction and method pins and
// writes one JSON line per sample.
type Profiler struct {
	ctx *Context
	cir *Circuit
	enc *json.Encoder
}

// NewProfiler returns a Profiler writing newline-delimited
// ProfileSample records to w.
func NewProfiler(ctx *Context, cir *Circuit, w io.Writer) *Profiler {
	return &Profiler{ctx: ctx, cir: cir, enc: json.NewEncoder(w)}
}

// Sample captures the current cycle's transaction and method state and
// writes it. Call it once per clock cycle, after TickTock.
func (p *Profiler) Sample() error {
	spc := p.cir.StepsPerCycle()
	s := ProfileSample{
		Cycle:        p.cir.Steps() / spc,
		Transactions: make(map[string]TransactionSample, len(p.ctx.transactions)),
		Methods:      make(map[string]MethodSample, len(p.ctx.methods)),
	}
	for _, t := range p.ctx.transactions {
		req := p.cir.Get(int(t.request))
		grant := p.cir.Get(int(t.grant))
		s.Transactions[t.Name] = TransactionSample{
			Request: req,
			Grant:   grant,
			Locked:  req && !grant,
		}
	}
	for _, m := range p.ctx.methods {
		calledBy := []string{}
		for _, ca := range m.callers {
			if p.cir.Get(int(ca.pin)) {
				calledBy = append(calledBy, ca.name)
			}
		}
		s.Methods[m.Name] = MethodSample{
			CalledBy: calledBy,
			Ready:    p.cir.Get(int(m.effectiveReady)),
		}
	}
	return p.enc.Encode(s)
}

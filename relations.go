package transactron

// Priority orders two transactions or methods that conflict but are
// allowed to be scheduled in the same cycle's ordering, breaking ties
// during greedy arbitration. Undefined leaves the tie-break to
// definition order.
type Priority int

const (
	// PriorityUndefined means no explicit ordering was declared between
	// the two ends of a Relation; the scheduler falls back to
	// definition order.
	PriorityUndefined Priority = iota
	// PriorityLeft means the relation's left-hand side is scheduled
	// before its right-hand side whenever both are runnable and in
	// conflict.
	PriorityLeft
	// PriorityRight is the mirror of PriorityLeft.
	PriorityRight
)

// Relation is a single designer-declared edge between two call-graph
// nodes (methods or transactions): a priority hint, an explicit
// conflict, or a simultaneity/independence declaration.
type Relation struct {
	Left, Right    Caller
	Priority       Priority
	Conflict       bool
	Simultaneous   bool
	Alternatives   bool
	Independent    bool
	SilenceWarning bool
	Loc            SrcLoc
}

// Relations is the set of relations declared against one Caller (the
// owner), mirroring the owner-centric bookkeeping the original
// transaction base class keeps per method/transaction.
type Relations []Relation

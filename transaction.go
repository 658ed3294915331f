package transactron

import "github.com/google/uuid"

// Transaction is a single-cycle atomic unit of work: when granted, it
// calls zero or more methods (directly or via the methods it calls
// calling further methods) as a single indivisible action. At most one
// of a set of conflicting, simultaneously-requesting transactions runs
// in any given cycle.
type Transaction struct {
	ctx  *Context
	Name string
	loc  SrcLoc

	request Pin
	bodyFn  func(b *BodyCtx)

	runnable Pin // effective readiness: AND of called methods' effective readiness
	grant    Pin // this transaction won arbitration this cycle

	record *bodyRecord
}

func (t *Transaction) callerName() string   { return t.Name }
func (t *Transaction) contextID() uuid.UUID { return t.ctx.id }
func (t *Transaction) isMethod() bool       { return false }
func (t *Transaction) srcLoc() SrcLoc       { return t.loc }

// Runnable returns the Pin that is true when every method this
// transaction calls under a currently enabled call is itself ready.
// Only valid after Elaborate.
func (t *Transaction) Runnable() Pin { return t.runnable }

// Grant returns the Pin that is true on cycles where this transaction
// actually runs: requested, runnable, and won arbitration against any
// conflicting transaction. Only valid after Elaborate.
func (t *Transaction) Grant() Pin { return t.grant }

// DefineTransaction registers a new transaction against ctx. request
// is a Pin, driven by the embedding circuit, that is true when the
// transaction wants to run; bodyFn is invoked once, during Elaborate,
// with a BodyCtx scoped to this transaction's body.
func (ctx *Context) DefineTransaction(name string, request Pin, bodyFn func(b *BodyCtx)) (*Transaction, error) {
	loc := callerLoc(2)
	if err := ctx.checkMutable(loc); err != nil {
		return nil, err
	}
	t := &Transaction{
		ctx:      ctx,
		Name:     name,
		loc:      loc,
		request:  request,
		bodyFn:   bodyFn,
		runnable: ctx.alloc(),
		grant:    ctx.alloc(),
	}
	ctx.transactions = append(ctx.transactions, t)
	return t, nil
}

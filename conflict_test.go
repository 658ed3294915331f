package transactron

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func settle(cir *Circuit, drive func(), steps int) {
	for i := 0; i < steps; i++ {
		drive()
		cir.Step()
	}
}

func TestConflictingTransactionsGreedyPriorityByDefinitionOrder(t *testing.T) {
	ctx := NewContext(Config{Mode: GreedyDeterministic})
	m := identityMethod(ctx, "shared", 1)

	req1, req2 := ctx.Var(), ctx.Var()
	t1, err := ctx.DefineTransaction("t1", req1, func(b *BodyCtx) {
		_, err := b.Call(m, constBus(ctx, 1, false), ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)
	t2, err := ctx.DefineTransaction("t2", req2, func(b *BodyCtx) {
		_, err := b.Call(m, constBus(ctx, 1, false), ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)

	require.NoError(t, ctx.Elaborate())

	cir, err := ctx.BuildCircuit(1, 4)
	require.NoError(t, err)
	defer cir.Dispose()

	settle(cir, func() {
		cir.Set(int(req1), true)
		cir.Set(int(req2), true)
	}, 8)

	require.True(t, cir.Get(int(t1.Grant())), "earlier-defined transaction should win the shared method")
	require.False(t, cir.Get(int(t2.Grant())), "conflicting transaction must be blocked")
}

func TestScheduleBeforeOverridesDefinitionOrder(t *testing.T) {
	ctx := NewContext(Config{Mode: GreedyDeterministic})
	m := identityMethod(ctx, "shared", 1)

	req1, req2 := ctx.Var(), ctx.Var()
	t1, err := ctx.DefineTransaction("t1", req1, func(b *BodyCtx) {
		_, err := b.Call(m, constBus(ctx, 1, false), ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)
	t2, err := ctx.DefineTransaction("t2", req2, func(b *BodyCtx) {
		_, err := b.Call(m, constBus(ctx, 1, false), ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)

	require.NoError(t, ctx.ScheduleBefore(t2, t1))
	require.NoError(t, ctx.Elaborate())

	cir, err := ctx.BuildCircuit(1, 4)
	require.NoError(t, err)
	defer cir.Dispose()

	settle(cir, func() {
		cir.Set(int(req1), true)
		cir.Set(int(req2), true)
	}, 8)

	require.True(t, cir.Get(int(t2.Grant())), "t2 was declared to win over t1")
	require.False(t, cir.Get(int(t1.Grant())))
}

func TestPriorityCycleIsRejected(t *testing.T) {
	ctx := NewContext(Config{})
	m := identityMethod(ctx, "shared", 1)
	req1, req2 := ctx.Var(), ctx.Var()
	t1, err := ctx.DefineTransaction("t1", req1, func(b *BodyCtx) {
		_, err := b.Call(m, constBus(ctx, 1, false), ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)
	t2, err := ctx.DefineTransaction("t2", req2, func(b *BodyCtx) {
		_, err := b.Call(m, constBus(ctx, 1, false), ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)

	require.NoError(t, ctx.ScheduleBefore(t1, t2))
	require.NoError(t, ctx.ScheduleBefore(t2, t1))

	err = ctx.Elaborate()
	require.ErrorIs(t, err, ErrPriorityCycle)
}

func TestNonexclusiveMethodDoesNotConflict(t *testing.T) {
	ctx := NewContext(Config{})
	m, err := ctx.DefineMethod("readOnly", nil, nil, func(b *BodyCtx, in Bus) Bus {
		b.SetReady(ctx.Const(true))
		return nil
	}, Nonexclusive(func(ctx *Context, calls []CallArgs) Bus { return nil }))
	require.NoError(t, err)

	req1, req2 := ctx.Var(), ctx.Var()
	t1, err := ctx.DefineTransaction("t1", req1, func(b *BodyCtx) {
		_, err := b.Call(m, nil, ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)
	t2, err := ctx.DefineTransaction("t2", req2, func(b *BodyCtx) {
		_, err := b.Call(m, nil, ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)

	require.NoError(t, ctx.Elaborate())

	cir, err := ctx.BuildCircuit(1, 4)
	require.NoError(t, err)
	defer cir.Dispose()

	settle(cir, func() {
		cir.Set(int(req1), true)
		cir.Set(int(req2), true)
	}, 8)

	require.True(t, cir.Get(int(t1.Grant())))
	require.True(t, cir.Get(int(t2.Grant())), "nonexclusive shared method must not make t1/t2 conflict")
}

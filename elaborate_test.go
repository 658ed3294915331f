package transactron

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// identityMethod defines a method that copies its input bus straight
// to its output bus and is always locally ready.
func identityMethod(ctx *Context, name string, width int) *Method {
	m, err := ctx.DefineMethod(name, Layout{{Name: "v", Bits: width}}, Layout{{Name: "v", Bits: width}},
		func(b *BodyCtx, in Bus) Bus {
			b.SetReady(ctx.Const(true))
			out := b.AllocBus(width)
			b.Emit(func(cir *Circuit) {
				for i := range in {
					cir.Set(int(out[i]), cir.Get(int(in[i])))
				}
			})
			return out
		})
	if err != nil {
		panic(err)
	}
	return m
}

func constBus(ctx *Context, width int, v bool) Bus {
	bus := make(Bus, width)
	for i := range bus {
		bus[i] = ctx.Const(v)
	}
	return bus
}

func TestElaborateSingleTransactionSingleMethod(t *testing.T) {
	ctx := NewContext(Config{})
	m := identityMethod(ctx, "incr", 4)

	req := ctx.Var()
	tx, err := ctx.DefineTransaction("doIncr", req, func(b *BodyCtx) {
		_, err := b.Call(m, constBus(ctx, 4, false), ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)

	require.NoError(t, ctx.Elaborate())

	cir, err := ctx.BuildCircuit(1, 4)
	require.NoError(t, err)
	defer cir.Dispose()

	// The combinational chain (local ready -> effective ready ->
	// runnable -> grant -> method run) settles one gate level per
	// Step; holding the external request steady for a few steps lets
	// it propagate all the way through.
	for i := 0; i < 8; i++ {
		cir.Set(int(req), true)
		cir.Step()
	}

	require.True(t, cir.Get(int(m.Run())))
	require.True(t, cir.Get(int(tx.Grant())))
}

func TestElaborateWithoutRequestNeverGrants(t *testing.T) {
	ctx := NewContext(Config{})
	m := identityMethod(ctx, "incr", 4)
	req := ctx.Var()
	tx, err := ctx.DefineTransaction("doIncr", req, func(b *BodyCtx) {
		_, err := b.Call(m, constBus(ctx, 4, false), ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)
	require.NoError(t, ctx.Elaborate())

	cir, err := ctx.BuildCircuit(1, 4)
	require.NoError(t, err)
	defer cir.Dispose()

	for i := 0; i < 8; i++ {
		cir.Set(int(req), false)
		cir.Step()
	}

	require.False(t, cir.Get(int(tx.Grant())))
	require.False(t, cir.Get(int(m.Run())))
}

func TestCallGraphCycleIsRejected(t *testing.T) {
	ctx := NewContext(Config{})

	var a, b *Method
	var errA error
	a, errA = ctx.DefineMethod("a", nil, nil, func(bc *BodyCtx, in Bus) Bus {
		_, err := bc.Call(b, nil, ctx.Const(true))
		require.NoError(t, err)
		return nil
	})
	require.NoError(t, errA)

	b, err := ctx.DefineMethod("b", nil, nil, func(bc *BodyCtx, in Bus) Bus {
		_, err := bc.Call(a, nil, ctx.Const(true))
		require.NoError(t, err)
		return nil
	})
	require.NoError(t, err)

	err = ctx.Elaborate()
	require.ErrorIs(t, err, ErrCallGraphCycle)
}

func TestSingleCallerViolation(t *testing.T) {
	ctx := NewContext(Config{})
	m, err := ctx.DefineMethod("exclusiveResource", nil, nil, func(b *BodyCtx, in Bus) Bus {
		b.SetReady(ctx.Const(true))
		return nil
	}, SingleCaller())
	require.NoError(t, err)

	req1, req2 := ctx.Var(), ctx.Var()
	_, err = ctx.DefineTransaction("t1", req1, func(b *BodyCtx) {
		_, err := b.Call(m, nil, ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)
	_, err = ctx.DefineTransaction("t2", req2, func(b *BodyCtx) {
		_, err := b.Call(m, nil, ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)

	err = ctx.Elaborate()
	require.ErrorIs(t, err, ErrSingleCallerViolation)
}

func TestDefineAfterElaborateIsFrozen(t *testing.T) {
	ctx := NewContext(Config{})
	require.NoError(t, ctx.Elaborate())

	_, err := ctx.DefineMethod("late", nil, nil, func(b *BodyCtx, in Bus) Bus { return nil })
	require.ErrorIs(t, err, ErrFrozenContext)
}

package translib_test

import (
	"testing"

	"github.com/db47h/transactron"
	"github.com/db47h/transactron/translib"
	"github.com/stretchr/testify/require"
)

func TestSemaphoreAcquireUpToLimitThenBlocks(t *testing.T) {
	ctx := transactron.NewContext(transactron.Config{})
	sem, err := translib.NewSemaphore(ctx, "sem", 2)
	require.NoError(t, err)

	acqReq := ctx.Var()
	_, err = ctx.DefineTransaction("doAcquire", acqReq, func(b *transactron.BodyCtx) {
		_, err := b.Call(sem.Acquire, nil, ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)

	require.NoError(t, ctx.Elaborate())
	cir, err := ctx.BuildCircuit(1, 16)
	require.NoError(t, err)
	defer cir.Dispose()

	settle(cir, func() { cir.Set(int(acqReq), false) }, 8)

	cir.Set(int(acqReq), true)
	cir.TickTock()
	require.True(t, cir.Get(int(sem.Acquire.Run())))

	cir.TickTock()
	require.True(t, cir.Get(int(sem.Acquire.Run())))

	cir.TickTock()
	require.False(t, cir.Get(int(sem.Acquire.Run())), "a semaphore at its limit must stop granting acquires")
}

func TestSemaphoreReleaseFreesCapacity(t *testing.T) {
	ctx := transactron.NewContext(transactron.Config{})
	sem, err := translib.NewSemaphore(ctx, "sem", 1)
	require.NoError(t, err)

	acqReq, relReq := ctx.Var(), ctx.Var()
	_, err = ctx.DefineTransaction("doAcquire", acqReq, func(b *transactron.BodyCtx) {
		_, err := b.Call(sem.Acquire, nil, ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)
	_, err = ctx.DefineTransaction("doRelease", relReq, func(b *transactron.BodyCtx) {
		_, err := b.Call(sem.Release, nil, ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)

	require.NoError(t, ctx.Elaborate())
	cir, err := ctx.BuildCircuit(1, 16)
	require.NoError(t, err)
	defer cir.Dispose()

	settle(cir, func() { cir.Set(int(acqReq), false); cir.Set(int(relReq), false) }, 8)
	require.False(t, cir.Get(int(sem.Release.Run())), "nothing to release yet")

	cir.Set(int(acqReq), true)
	cir.TickTock()
	require.True(t, cir.Get(int(sem.Acquire.Run())))

	cir.Set(int(acqReq), false)
	cir.Set(int(relReq), true)
	cir.TickTock()
	require.True(t, cir.Get(int(sem.Release.Run())))

	cir.Set(int(relReq), false)
	cir.Set(int(acqReq), true)
	cir.TickTock()
	require.True(t, cir.Get(int(sem.Acquire.Run())), "capacity freed by the release must be acquirable again")
}

func TestSemaphoreClearResetsCount(t *testing.T) {
	ctx := transactron.NewContext(transactron.Config{})
	sem, err := translib.NewSemaphore(ctx, "sem", 1)
	require.NoError(t, err)

	acqReq, clrReq := ctx.Var(), ctx.Var()
	_, err = ctx.DefineTransaction("doAcquire", acqReq, func(b *transactron.BodyCtx) {
		_, err := b.Call(sem.Acquire, nil, ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)
	_, err = ctx.DefineTransaction("doClear", clrReq, func(b *transactron.BodyCtx) {
		_, err := b.Call(sem.Clear, nil, ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)

	require.NoError(t, ctx.Elaborate())
	cir, err := ctx.BuildCircuit(1, 16)
	require.NoError(t, err)
	defer cir.Dispose()

	settle(cir, func() {}, 4)

	cir.Set(int(acqReq), true)
	cir.TickTock()
	require.True(t, cir.Get(int(sem.Acquire.Run())))

	cir.Set(int(acqReq), false)
	cir.Set(int(clrReq), true)
	cir.TickTock()

	cir.Set(int(clrReq), false)
	cir.Set(int(acqReq), true)
	cir.TickTock()
	require.True(t, cir.Get(int(sem.Acquire.Run())), "clear should have freed the single slot again")
}

package translib_test

import (
	"testing"

	"github.com/db47h/transactron"
	"github.com/db47h/transactron/translib"
	"github.com/stretchr/testify/require"
)

func bitsOf(ctx *transactron.Context, width int, v int) transactron.Bus {
	bus := make(transactron.Bus, width)
	for i := range bus {
		bus[i] = ctx.Const((v>>i)&1 == 1)
	}
	return bus
}

func readBits(cir *transactron.Circuit, bus transactron.Bus) int {
	v := 0
	for i, p := range bus {
		if cir.Get(int(p)) {
			v |= 1 << i
		}
	}
	return v
}

func settle(cir *transactron.Circuit, drive func(), steps int) {
	for i := 0; i < steps; i++ {
		drive()
		cir.Step()
	}
}

func TestBasicFifoWriteThenRead(t *testing.T) {
	ctx := transactron.NewContext(transactron.Config{})
	layout := transactron.Layout{{Name: "v", Bits: 4}}
	fifo, err := translib.NewBasicFifo(ctx, "q", layout, 2)
	require.NoError(t, err)

	writeReq, readReq := ctx.Var(), ctx.Var()

	_, err = ctx.DefineTransaction("doWrite", writeReq, func(b *transactron.BodyCtx) {
		_, err := b.Call(fifo.Write, bitsOf(ctx, 4, 5), ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)

	var readResult transactron.Bus
	readTx, err := ctx.DefineTransaction("doRead", readReq, func(b *transactron.BodyCtx) {
		out, err := b.Call(fifo.Read, nil, ctx.Const(true))
		require.NoError(t, err)
		readResult = out
	})
	require.NoError(t, err)

	require.NoError(t, ctx.Elaborate())

	cir, err := ctx.BuildCircuit(1, 16)
	require.NoError(t, err)
	defer cir.Dispose()

	settle(cir, func() { cir.Set(int(writeReq), false); cir.Set(int(readReq), false) }, 8)
	require.False(t, cir.Get(int(fifo.Read.Run())), "queue starts empty")

	cir.Set(int(writeReq), true)
	cir.TickTock()
	require.True(t, cir.Get(int(fifo.Write.Run())))

	cir.Set(int(writeReq), false)
	cir.Set(int(readReq), true)
	cir.TickTock()
	require.True(t, cir.Get(int(fifo.Read.Run())), "read should be ready after a write landed")
	require.True(t, cir.Get(int(readTx.Grant())))
	require.Equal(t, 5, readBits(cir, readResult))
}

func TestBasicFifoReadNotReadyWhenEmpty(t *testing.T) {
	ctx := transactron.NewContext(transactron.Config{})
	layout := transactron.Layout{{Name: "v", Bits: 4}}
	fifo, err := translib.NewBasicFifo(ctx, "q", layout, 2)
	require.NoError(t, err)

	readReq := ctx.Var()
	_, err = ctx.DefineTransaction("doRead", readReq, func(b *transactron.BodyCtx) {
		_, err := b.Call(fifo.Read, nil, ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)

	require.NoError(t, ctx.Elaborate())
	cir, err := ctx.BuildCircuit(1, 16)
	require.NoError(t, err)
	defer cir.Dispose()

	settle(cir, func() { cir.Set(int(readReq), true) }, 8)
	require.False(t, cir.Get(int(fifo.Read.Run())))
}

func TestBasicFifoFillsToDepthThenBlocksWrite(t *testing.T) {
	ctx := transactron.NewContext(transactron.Config{})
	layout := transactron.Layout{{Name: "v", Bits: 4}}
	fifo, err := translib.NewBasicFifo(ctx, "q", layout, 2)
	require.NoError(t, err)

	writeReq := ctx.Var()
	_, err = ctx.DefineTransaction("doWrite", writeReq, func(b *transactron.BodyCtx) {
		_, err := b.Call(fifo.Write, bitsOf(ctx, 4, 1), ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)

	require.NoError(t, ctx.Elaborate())
	cir, err := ctx.BuildCircuit(1, 16)
	require.NoError(t, err)
	defer cir.Dispose()

	settle(cir, func() { cir.Set(int(writeReq), false) }, 8)

	cir.Set(int(writeReq), true)
	cir.TickTock()
	require.True(t, cir.Get(int(fifo.Write.Run())), "first write into an empty depth-2 queue must run")

	cir.TickTock()
	require.True(t, cir.Get(int(fifo.Write.Run())), "second write into a depth-2 queue must run")

	cir.TickTock()
	require.False(t, cir.Get(int(fifo.Write.Run())), "a full queue must stop granting writes")
}

func TestBasicFifoClearResetsLevel(t *testing.T) {
	ctx := transactron.NewContext(transactron.Config{})
	layout := transactron.Layout{{Name: "v", Bits: 4}}
	fifo, err := translib.NewBasicFifo(ctx, "q", layout, 2)
	require.NoError(t, err)

	writeReq, clearReq, readReq := ctx.Var(), ctx.Var(), ctx.Var()
	_, err = ctx.DefineTransaction("doWrite", writeReq, func(b *transactron.BodyCtx) {
		_, err := b.Call(fifo.Write, bitsOf(ctx, 4, 9), ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)
	_, err = ctx.DefineTransaction("doClear", clearReq, func(b *transactron.BodyCtx) {
		_, err := b.Call(fifo.Clear, nil, ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)
	_, err = ctx.DefineTransaction("doRead", readReq, func(b *transactron.BodyCtx) {
		_, err := b.Call(fifo.Read, nil, ctx.Const(true))
		require.NoError(t, err)
	})
	require.NoError(t, err)

	require.NoError(t, ctx.Elaborate())
	cir, err := ctx.BuildCircuit(1, 16)
	require.NoError(t, err)
	defer cir.Dispose()

	settle(cir, func() {}, 4)

	cir.Set(int(writeReq), true)
	cir.TickTock()

	cir.Set(int(writeReq), false)
	cir.Set(int(clearReq), true)
	cir.TickTock()

	cir.Set(int(clearReq), false)
	cir.Set(int(readReq), true)
	cir.TickTock()
	require.False(t, cir.Get(int(fifo.Read.Run())), "clear should have emptied the queue")
}

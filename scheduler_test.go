package transactron

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundRobinAlternatesBetweenConflictingTransactions(t *testing.T) {
	ctx := NewContext(Config{Mode: RoundRobin, StepsPerCycle: 4})
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

	// Let the combinational request/runnable chain settle before either
	// transaction's grant is meaningful.
	settle(cir, func() {
		cir.Set(int(req1), true)
		cir.Set(int(req2), true)
	}, 8)

	var t1Wins, t2Wins int
	for cycle := 0; cycle < 6; cycle++ {
		cir.TickTock()
		cir.Set(int(req1), true)
		cir.Set(int(req2), true)
		if cir.Get(int(t1.Grant())) {
			t1Wins++
		}
		if cir.Get(int(t2.Grant())) {
			t2Wins++
		}
		require.False(t, cir.Get(int(t1.Grant())) && cir.Get(int(t2.Grant())), "conflicting transactions must never both be granted")
	}

	require.Greater(t, t1Wins, 0, "t1 should win at least one cycle")
	require.Greater(t, t2Wins, 0, "round-robin must eventually grant t2 too")
}

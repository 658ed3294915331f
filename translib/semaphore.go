package translib

import "github.com/db47h/transactron"

// Semaphore is a transactional counting semaphore: Acquire succeeds
// while the count is below limit, Release succeeds while it is above
// zero, and Clear resets the count to zero regardless of either. All
// three methods share one counter, mutated from the single Component
// registered by Acquire's body; Clear always wins when it runs
// alongside an Acquire or Release in the same cycle.
type Semaphore struct {
	Acquire, Release, Clear *transactron.Method
}

// NewSemaphore defines a Semaphore with capacity limit, named name,
// against ctx.
func NewSemaphore(ctx *transactron.Context, name string, limit int) (*Semaphore, error) {
	if limit < 1 {
		limit = 1
	}
	count := 0

	acquireReady := ctx.Var()
	releaseReady := ctx.Var()

	var acquire, release, clear *transactron.Method
	var err error

	acquire, err = ctx.DefineMethod(name+".acquire", nil, nil, func(b *transactron.BodyCtx, in transactron.Bus) transactron.Bus {
		b.SetReady(acquireReady)
		b.Emit(func(cir *transactron.Circuit) {
			cir.Set(int(acquireReady), count < limit)
			cir.Set(int(releaseReady), count > 0)
			if !cir.AtTick() {
				return
			}
			if cir.Get(int(clear.Run())) {
				count = 0
				return
			}
			if cir.Get(int(acquire.Run())) {
				count++
			}
			if cir.Get(int(release.Run())) {
				count--
			}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	release, err = ctx.DefineMethod(name+".release", nil, nil, func(b *transactron.BodyCtx, in transactron.Bus) transactron.Bus {
		b.SetReady(releaseReady)
		return nil
	})
	if err != nil {
		return nil, err
	}

	clear, err = ctx.DefineMethod(name+".clear", nil, nil, func(b *transactron.BodyCtx, in transactron.Bus) transactron.Bus {
		b.SetReady(ctx.Const(true))
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Priority between clear, acquire and release is not a scheduler
	// relation (those only order transactions) — it is baked directly
	// into the Component above, where clear is checked first and, when
	// it runs, resets the count and skips acquire/release that cycle.

	return &Semaphore{Acquire: acquire, Release: release, Clear: clear}, nil
}

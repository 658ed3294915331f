package translib

import (
	"math/bits"

	"github.com/db47h/transactron"
)

// Allocator hands out and reclaims one of entries identifiers:
// Alloc returns the lowest free identifier and marks it taken, Free
// takes an identifier back. Both are served from a single Component
// (registered by Alloc's body) over one shared free-slot bitmap, for
// the same reason BasicFifo funnels all its state through Write.
type Allocator struct {
	Alloc, Free *transactron.Method
}

// NewAllocator defines an Allocator over entries identifiers, named
// name, against ctx.
func NewAllocator(ctx *transactron.Context, name string, entries int) (*Allocator, error) {
	if entries < 1 {
		entries = 1
	}
	identWidth := bits.Len(uint(entries - 1))
	if identWidth == 0 {
		identWidth = 1
	}

	free := make([]bool, entries)
	for i := range free {
		free[i] = true
	}

	allocReady := ctx.Var()
	identLayout := transactron.Layout{{Name: "ident", Bits: identWidth}}

	var allocM, freeM *transactron.Method
	var err error

	allocM, err = ctx.DefineMethod(name+".alloc", nil, identLayout, func(b *transactron.BodyCtx, in transactron.Bus) transactron.Bus {
		b.SetReady(allocReady)
		out := b.AllocBus(identWidth)
		b.Emit(func(cir *transactron.Circuit) {
			picked := -1
			for i, f := range free {
				if f {
					picked = i
					break
				}
			}
			cir.Set(int(allocReady), picked >= 0)
			id := picked
			if id < 0 {
				id = 0
			}
			for i := 0; i < identWidth; i++ {
				cir.Set(int(out[i]), (id>>i)&1 == 1)
			}
			if !cir.AtTick() {
				return
			}
			if picked >= 0 && cir.Get(int(allocM.Run())) {
				free[picked] = false
			}
			if cir.Get(int(freeM.Run())) {
				fid := 0
				freeIn := freeM.DataIn()
				for i := 0; i < identWidth; i++ {
					if cir.Get(int(freeIn[i])) {
						fid |= 1 << i
					}
				}
				if fid >= 0 && fid < entries {
					free[fid] = true
				}
			}
		})
		return out
	})
	if err != nil {
		return nil, err
	}

	freeM, err = ctx.DefineMethod(name+".free", identLayout, nil, func(b *transactron.BodyCtx, in transactron.Bus) transactron.Bus {
		b.SetReady(ctx.Const(true))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Allocator{Alloc: allocM, Free: freeM}, nil
}

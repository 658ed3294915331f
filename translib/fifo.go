// Package translib collects ready-made transactron collaborators —
// queues, semaphores, allocators — built the way a DFF or register is
// built in a gate-level library: as ordinary methods and transactions
// wired against a Context, plus exactly one sequential Component per
// piece of mutable state. Sharing one Component per collaborator is
// deliberate: Circuit runs Components concurrently across worker
// goroutines within a Step, so state two bodies would otherwise each
// mutate (a buffer, an index, a counter) must have a single writer.
package translib

import "github.com/db47h/transactron"

// BasicFifo is a transactional queue of fixed depth. Write enqueues
// one element, Read dequeues the front one, Peek returns the front
// element without removing it and, since several simultaneous peekers
// never conflict, is nonexclusive, and Clear empties the queue. All of
// the FIFO's mutable state (buffer, indices, level) is owned by the
// single Component registered from Write's body; Read and Peek only
// copy already-settled wires.
type BasicFifo struct {
	Read, Peek, Write, Clear *transactron.Method
}

// NewBasicFifo defines a depth-deep BasicFifo of elements laid out
// according to layout, named name, against ctx.
func NewBasicFifo(ctx *transactron.Context, name string, layout transactron.Layout, depth int) (*BasicFifo, error) {
	if depth < 1 {
		depth = 1
	}
	width := layout.Width()

	buf := make([][]bool, depth)
	for i := range buf {
		buf[i] = make([]bool, width)
	}
	readIdx, writeIdx, level := 0, 0, 0

	head := ctx.AllocBus(width)
	readReady := ctx.Var()
	writeReady := ctx.Var()

	var read, peek, write, clear *transactron.Method
	var err error

	write, err = ctx.DefineMethod(name+".write", layout, nil, func(b *transactron.BodyCtx, in transactron.Bus) transactron.Bus {
		b.SetReady(writeReady)
		b.Emit(func(cir *transactron.Circuit) {
			cir.Set(int(readReady), level != 0)
			cir.Set(int(writeReady), level != depth)
			for i := 0; i < width; i++ {
				cir.Set(int(head[i]), buf[readIdx][i])
			}
			if !cir.AtTick() {
				return
			}
			readRun := cir.Get(int(read.Run()))
			writeRun := cir.Get(int(write.Run()))
			if readRun && !writeRun {
				level--
			}
			if writeRun && !readRun {
				level++
			}
			if writeRun {
				for i := 0; i < width; i++ {
					buf[writeIdx][i] = cir.Get(int(in[i]))
				}
				writeIdx = (writeIdx + 1) % depth
			}
			if readRun {
				readIdx = (readIdx + 1) % depth
			}
			if cir.Get(int(clear.Run())) {
				level, readIdx, writeIdx = 0, 0, 0
			}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	read, err = ctx.DefineMethod(name+".read", nil, layout, func(b *transactron.BodyCtx, in transactron.Bus) transactron.Bus {
		b.SetReady(readReady)
		out := b.AllocBus(width)
		b.Emit(func(cir *transactron.Circuit) {
			for i := 0; i < width; i++ {
				cir.Set(int(out[i]), cir.Get(int(head[i])))
			}
		})
		return out
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

	peek, err = ctx.DefineMethod(name+".peek", nil, layout, func(b *transactron.BodyCtx, in transactron.Bus) transactron.Bus {
		b.SetReady(readReady)
		out := b.AllocBus(width)
		b.Emit(func(cir *transactron.Circuit) {
			for i := 0; i < width; i++ {
				cir.Set(int(out[i]), cir.Get(int(head[i])))
			}
		})
		return out
	}, transactron.Nonexclusive(func(ctx *transactron.Context, calls []transactron.CallArgs) transactron.Bus {
		return nil
	}))
	if err != nil {
		return nil, err
	}

	return &BasicFifo{Read: read, Peek: peek, Write: write, Clear: clear}, nil
}

// This file adapts the synchronous, worker-pool circuit runtime of
// github.com/db47h/hwsim's Circuit (hwsim.go) to transactron's needs:
// the set of Components is whatever the lowering emitter and method
// and transaction bodies built during Elaborate, rather than a
// hierarchy of named, wired Parts.

package transactron

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// Component is one synchronous update contributed to a Circuit: it
// reads the previous state frame (via Circuit.Get) and writes the next
// one (via Circuit.Set). Every method and transaction body, and every
// netlist node helper on Context, ultimately registers one of these.
type Component func(c *Circuit)

// Reserved wire indices, always present in a Circuit built from a
// Context: the constant rails and the internally generated clock.
const (
	wireFalse = iota
	wireTrue
	wireClk
	reservedWires
)

// WireAllocator hands out wire indices during elaboration, ahead of
// the Circuit they will eventually belong to being built.
type WireAllocator struct {
	count int
}

// NewWireAllocator returns an allocator with the reserved wires
// already accounted for.
func NewWireAllocator() *WireAllocator {
	return &WireAllocator{count: reservedWires}
}

// Alloc returns a fresh wire index.
func (a *WireAllocator) Alloc() int {
	n := a.count
	a.count++
	return n
}

// Count returns the number of wires allocated so far, including the
// reserved ones.
func (a *WireAllocator) Count() int { return a.count }

// Circuit is the double-buffered, parallel bit-level runtime that a
// Context's elaborated netlist is mounted onto. Advancing it one Step
// runs every Component once against the previous frame and commits the
// results atomically.
type Circuit struct {
	s0, s1 []bool
	cs     []Component
	tpc    uint
	tick   uint

	wc []chan struct{}
	wg sync.WaitGroup
}

// NewCircuit builds a runtime Circuit directly from a wire count and a
// flat Component list — the shape Context.BuildCircuit produces after
// Elaborate. workers is the number of goroutines used to advance the
// circuit; <= 0 selects runtime.GOMAXPROCS(-1). stepsPerCycle is
// rounded up to the next power of two, minimum 2, and sets how many
// Steps make up one Tick/Tock clock cycle.
func NewCircuit(workers int, stepsPerCycle uint, wireCount int, components []Component) (*Circuit, error) {
	if len(components) == 0 {
		return nil, errors.New("transactron: empty component list")
	}
	if wireCount < reservedWires {
		return nil, errors.New("transactron: wire count smaller than the reserved wire set")
	}
	tpc := nextPow2(stepsPerCycle)

	c := &Circuit{tpc: tpc}
	cs := make([]Component, len(components)+1)
	copy(cs, components)
	cs[len(components)] = updateClock
	c.cs = cs

	c.s0 = make([]bool, wireCount)
	c.s1 = make([]bool, wireCount)
	c.s0[wireTrue], c.s1[wireTrue] = true, true
	c.s0[wireClk] = true

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers <= 0 {
		workers = 1
	}
	for rest := cs; len(rest) > 0; {
		size := (len(rest) + workers - 1) / workers
		if size < 1 {
			size = 1
		}
		if size > len(rest) {
			size = len(rest)
		}
		wc := make(chan struct{}, 1)
		c.wc = append(c.wc, wc)
		go worker(c, rest[:size], wc)
		rest = rest[size:]
	}
	return c, nil
}

func nextPow2(n uint) uint {
	if n < 2 {
		n = 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

func updateClock(c *Circuit) {
	next := c.tick + 1
	half := c.tpc / 2
	switch {
	case next&(c.tpc-1) == 0:
		c.s1[wireClk] = true
	case next&(half-1) == 0:
		c.s1[wireClk] = false
	default:
		c.s1[wireClk] = c.s0[wireClk]
	}
}

func worker(c *Circuit, cs []Component, wc <-chan struct{}) {
	for {
		_, ok := <-wc
		if !ok {
			c.wg.Done()
			return
		}
		for _, f := range cs {
			f(c)
		}
		c.wg.Done()
	}
}

// Get reads wire n's value in the current (settled) frame.
func (c *Circuit) Get(n int) bool { return c.s0[n] }

// Set drives wire n's value for the next frame. Components may only
// call this for wires they own (those they allocated or were handed
// by the elaborator); the runtime does not itself detect multiple
// drivers. A wire that no Component drives keeps its last value from
// step to step, so a value Set from outside the circuit holds until it
// is Set again.
func (c *Circuit) Set(n int, v bool) { c.s1[n] = v }

// Toggle flips wire n relative to its current value for the next
// frame.
func (c *Circuit) Toggle(n int) { c.s1[n] = !c.s0[n] }

// Step advances the circuit by exactly one simulation step, running
// every Component once in parallel and then committing the new frame.
func (c *Circuit) Step() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		wc <- struct{}{}
	}
	c.wg.Wait()
	c.tick++
	c.s0, c.s1 = c.s1, c.s0
	copy(c.s1, c.s0)
}

// Tick steps the circuit until the clock falls, ending the high half
// of the clock cycle currently in progress; it returns at once if the
// clock is already low.
func (c *Circuit) Tick() {
	for c.Get(wireClk) {
		c.Step()
	}
}

// Tock steps the circuit until the beginning of the next clock cycle.
// Once Tock returns, the output of clocked Components should have
// stabilized.
func (c *Circuit) Tock() {
	for !c.Get(wireClk) {
		c.Step()
	}
}

// TickTock runs one full clock cycle.
func (c *Circuit) TickTock() {
	c.Tick()
	c.Tock()
}

// AtTick reports whether the step about to run lands exactly on a
// rising clock edge; sequential Components (registers) use this to
// decide whether to latch their input.
func (c *Circuit) AtTick() bool { return c.tick&(c.tpc-1) == 0 }

// AtTock reports whether the step about to run lands exactly on a
// falling clock edge.
func (c *Circuit) AtTock() bool { return (c.tick+c.tpc/2)&(c.tpc-1) == 0 }

// Steps returns the number of simulation steps run so far.
func (c *Circuit) Steps() uint { return c.tick }

// StepsPerCycle returns the number of Steps that make up one clock
// cycle.
func (c *Circuit) StepsPerCycle() uint { return c.tpc }

// Dispose stops the circuit's worker goroutines. A disposed Circuit
// must not be stepped again.
func (c *Circuit) Dispose() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		close(wc)
	}
	c.wg.Wait()
}

// BuildCircuit lowers ctx's elaborated netlist into a runnable
// Circuit. It must be called after Elaborate; calling it before
// returns an error.
func (c *Context) BuildCircuit(workers int, stepsPerCycle uint) (*Circuit, error) {
	if c.elaborate == nil {
		return nil, newError(ErrFrozenContext, SrcLoc{}, "BuildCircuit called before Elaborate")
	}
	return NewCircuit(workers, stepsPerCycle, c.wires.Count(), c.comps)
}

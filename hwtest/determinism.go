// Package hwtest adapts the comparison-testing approach of
// github.com/db47h/hwsim's hwtest package (build two instances of "the
// same circuit", drive them with identical inputs, fail on the first
// disagreement) to transactron's domain: instead of comparing two
// implementations of one gate-level part, CompareRuns compares two
// independently elaborated instances of one scheduling scenario,
// checking that the manager's grant decisions are a deterministic
// function of the request sequence.
package hwtest

import (
	"math/rand"
	"testing"

	"github.com/db47h/transactron"
)

// Scenario is what CompareRuns needs from one elaborated run: the
// request pins to drive and the grant (or other output) pins to
// compare, in matching order across both runs.
type Scenario struct {
	Circuit  *transactron.Circuit
	Requests []transactron.Pin
	Grants   []transactron.Pin
}

// BuildFn elaborates one fresh instance of the scenario under test. It
// is called twice by CompareRuns and must produce structurally
// identical contexts (same methods, transactions and relations), so
// that any divergence CompareRuns reports is genuine nondeterminism,
// not a difference in what was built.
type BuildFn func(tb testing.TB) Scenario

// CompareRuns elaborates build twice and drives both runs with the
// same pseudo-random request pattern for cycles clock cycles, failing
// tb at the first cycle where the two runs' grant pins disagree.
func CompareRuns(tb testing.TB, seed int64, build BuildFn, cycles int) {
	tb.Helper()

	s1, s2 := build(tb), build(tb)
	defer s1.Circuit.Dispose()
	defer s2.Circuit.Dispose()

	if len(s1.Requests) != len(s2.Requests) || len(s1.Grants) != len(s2.Grants) {
		tb.Fatal("hwtest: the two runs built scenarios of different shapes")
	}

	rnd := rand.New(rand.NewSource(seed))
	pattern := make([]bool, len(s1.Requests))

	for cycle := 0; cycle < cycles; cycle++ {
		for i := range pattern {
			pattern[i] = rnd.Int63()&1 == 0
		}
		for i, p := range s1.Requests {
			s1.Circuit.Set(int(p), pattern[i])
		}
		for i, p := range s2.Requests {
			s2.Circuit.Set(int(p), pattern[i])
		}
		s1.Circuit.TickTock()
		s2.Circuit.TickTock()

		for i := range s1.Grants {
			g1 := s1.Circuit.Get(int(s1.Grants[i]))
			g2 := s2.Circuit.Get(int(s2.Grants[i]))
			if g1 != g2 {
				tb.Fatalf("hwtest: grant %d diverged at cycle %d: run1=%v run2=%v", i, cycle, g1, g2)
			}
		}
	}
}

package sat

import "github.com/htn-sat/planner/internal/satcore"

// OptimizePlan searches for the shortest satisfiable plan length among the
// primitive-op literals accumulated by encodePlanLength, tightening an
// AtMost(k) cardinality bound one step at a time rather than a weighted
// objective (a weighted pseudo-boolean surface was considered and dropped —
// plan-length minimization is the only optimization in scope here, and a
// cardinality constraint covers it exactly).
//
// The search descends linearly from maxLen rather than bisecting: an
// IPASIR-style incremental solver has no clause-retraction primitive, so
// every AddCard call here is permanent. Descending means each new bound is
// strictly tighter than the last, so the accumulated constraint set is
// always equivalent to just the latest (tightest) one added — a binary
// search would instead need to *relax* a bound after a failed tighter
// probe, which a permanent constraint can't do without a guard literal the
// encoder doesn't allocate for this. Returns the last satisfiable k tried,
// or -1 if even maxLen is unsatisfiable.
func (enc *Encoder) OptimizePlan(maxLen int) int {
	if len(enc.planLenLits) == 0 {
		return 0
	}
	best := -1
	for k := maxLen; k >= 0; k-- {
		if !enc.solvableWithAtMost(k) {
			break
		}
		best = k
	}
	return best
}

// solvableWithAtMost permanently tightens the solver to AtMost(k) true
// literals among planLenLits, then probes satisfiability.
func (enc *Encoder) solvableWithAtMost(k int) bool {
	negated := make([]int, len(enc.planLenLits))
	for i, l := range enc.planLenLits {
		negated[i] = -l
	}
	atLeast := len(negated) - k
	if atLeast > 0 {
		enc.solver.AddCard(negated, atLeast)
	}
	return enc.Solve() == satcore.Sat
}

// Package driver ties the HTN instance store, instantiator, layer planner
// and SAT encoder together into the top-level solve loop.
// It lives above `layer` and `sat` (rather than inside either) because the
// loop needs both: `layer` cannot import `sat` (dependency order is HTN ->
// Instantiator -> Layer planner -> SAT encoder) and the encoder in turn must
// not own the position-creation algorithm.
package driver

import (
	"github.com/google/uuid"

	"github.com/htn-sat/planner/internal/htn"
	"github.com/htn-sat/planner/internal/instantiate"
	"github.com/htn-sat/planner/internal/layer"
	"github.com/htn-sat/planner/internal/log"
	"github.com/htn-sat/planner/internal/sat"
	"github.com/htn-sat/planner/internal/satcore"
)

// Options mirrors the loop-relevant subset of config.Options (kept separate
// to avoid internal/driver depending on internal/config's YAML/cobra
// concerns, which have nothing to do with the search itself).
type Options struct {
	D                        int  // maximum iteration count; 0 = unbounded
	MinIteration             int  // "d": earliest iteration permitted to invoke the solver
	CheckSolvability         bool // "cs": on UNSAT-with-assumptions, re-solve without assumptions
	InstantiateNothing       bool
	PreconditionsOnly        bool
	QConstInstantiationLimit int
	QConstRatingFactor       float64
	SortArgsByRating         bool
}

// Result is what FindPlan returns on success.
type Result struct {
	RunID         string
	Iterations    int
	Classical     []layer.PlanItem
	Decomposition []layer.PlanItem
}

// outcome distinguishes why FindPlan failed, matching the error kinds
// for the caller's exit-code/reporting decision.
type outcome int

const (
	solved outcome = iota
	unsolvable
	depthExhausted
)

// FindPlan runs the top-level loop against problem, returning the first
// found plan, or ok=false if the loop ends without one. When opts.D limits
// the iteration count and is reached without a solution, this is
// DepthExhausted; when opts.CheckSolvability additionally confirms the
// final layer is UNSAT even without the goal-selection assumption, it is
// Unsolvable instead (§7) — both are logged, but FindPlan's signature stays
// a plain ok bool since the caller only needs success/failure to decide the
// process exit code.
func FindPlan(problem htn.Problem, topTasks []htn.USignature, opts Options, logger *log.Logger) (Result, bool) {
	runID := uuid.NewString()
	logger.Printf("run %s starting", runID)

	in := htn.NewInterner()
	inst, err := htn.NewInstance(in, problem, topTasks)
	if err != nil {
		logger.Printf("run %s: instance error: %v", runID, err)
		return Result{}, false
	}

	instor := instantiate.New(inst, instantiate.Options{
		InstantiateNothing:       opts.InstantiateNothing,
		PreconditionsOnly:        opts.PreconditionsOnly,
		QConstInstantiationLimit: opts.QConstInstantiationLimit,
		QConstRatingFactor:       opts.QConstRatingFactor,
		SortArgsByRating:         opts.SortArgsByRating,
	})
	pl := layer.NewPlanner(inst, instor)

	layers := []*layer.Layer{pl.CreateLayer0()}
	enc := sat.New(inst)

	iteration := 0
	result := depthExhausted
	maxIter := opts.D
	if maxIter <= 0 {
		maxIter = 1<<31 - 1
	}

	for iteration < maxIter {
		// Re-encode every layer built so far. Fact/op variable allocation is
		// idempotent (Position.AllocVar never reallocates a key), so
		// re-encoding an already-encoded layer re-adds logically redundant
		// copies of its clauses (formulas that need auxiliary variables get
		// fresh ones each pass). EXPANSIONS no-ops until a layer's successor
		// exists, so a layer's parent-to-child clauses first appear in the
		// pass after its child layer has been created.
		for idx := range layers {
			encodeLayer(enc, layers, idx)
		}

		if iteration >= opts.MinIteration {
			last := layers[len(layers)-1]
			addAssumptions(enc, last, inst)
			if enc.Solve() == satcore.Sat {
				result = solved
				break
			}
			if opts.CheckSolvability && enc.Solve() == satcore.Unsat {
				// Re-solving without assumptions tells a genuinely
				// unsatisfiable encoding apart from one that is merely not
				// yet deep enough to let the goal action fire.
				result = unsolvable
				break
			}
		}

		next := pl.CreateNextLayer()
		layers = append(layers, next)
		iteration++
		logger.Printf("run %s: layer %d created", runID, iteration)
	}

	if result != solved {
		if result == unsolvable {
			logger.Printf("run %s: unsolvable after %d iterations", runID, iteration)
		} else {
			logger.Printf("run %s: depth exhausted after %d iterations", runID, iteration)
		}
		return Result{}, false
	}

	classical := enc.ExtractClassicalPlan(layers[len(layers)-1], inst)
	decomposition := enc.ExtractDecompositionPlan(layers, inst)
	logger.Printf("run %s: solved after %d iterations", runID, iteration)
	return Result{RunID: runID, Iterations: iteration, Classical: classical, Decomposition: decomposition}, true
}

// EncodeLayers builds and encodes exactly opts.D layers (one, if opts.D is
// 0) without ever calling Solve, returning the encoder so its caller can
// dump the accumulated clauses instead of searching for a plan. This backs
// the `print_formula` configuration option (§6).
func EncodeLayers(problem htn.Problem, topTasks []htn.USignature, opts Options) (*sat.Encoder, error) {
	in := htn.NewInterner()
	inst, err := htn.NewInstance(in, problem, topTasks)
	if err != nil {
		return nil, err
	}

	instor := instantiate.New(inst, instantiate.Options{
		InstantiateNothing:       opts.InstantiateNothing,
		PreconditionsOnly:        opts.PreconditionsOnly,
		QConstInstantiationLimit: opts.QConstInstantiationLimit,
		QConstRatingFactor:       opts.QConstRatingFactor,
		SortArgsByRating:         opts.SortArgsByRating,
	})
	pl := layer.NewPlanner(inst, instor)

	layers := []*layer.Layer{pl.CreateLayer0()}
	numLayers := opts.D
	if numLayers <= 0 {
		numLayers = 1
	}
	for len(layers) < numLayers {
		layers = append(layers, pl.CreateNextLayer())
	}

	enc := sat.New(inst)
	for idx := range layers {
		encodeLayer(enc, layers, idx)
	}
	return enc, nil
}

// encodeLayer encodes every position of layers[idx], wiring EncodePosition's
// `next` argument to the layer one level down when it already exists.
func encodeLayer(enc *sat.Encoder, layers []*layer.Layer, idx int) {
	l := layers[idx]
	var next *layer.Layer
	if idx+1 < len(layers) {
		next = layers[idx+1]
	}
	for _, p := range l.Positions {
		enc.EncodePosition(l, next, p)
	}
}

// addAssumptions assumes the topmost layer's final position is primitive
// (the plan is fully decomposed) and that the goal action is selected
// there, per §4.4 "Assumptions".
func addAssumptions(enc *sat.Encoder, l *layer.Layer, inst *htn.Instance) {
	last := l.Positions[len(l.Positions)-1]
	if v, ok := last.Variables[layer.PrimitiveKey()]; ok {
		enc.Assume(v)
	}
	for _, a := range last.Actions {
		if a.NameID == inst.GoalActionName {
			v, ok := last.Variables[layer.OpKey(a.Signature())]
			if ok {
				enc.Assume(v)
			}
		}
	}
}

package instantiate

import "github.com/htn-sat/planner/internal/htn"

// ratingCache memoizes per-operator-name precondition ratings, since the
// traversal that computes them only depends on the lifted template, not on
// any particular (layer, pos) instantiation.
type ratingCache struct {
	byName map[htn.ID][]float64
}

func newRatingCache() *ratingCache {
	return &ratingCache{byName: make(map[htn.ID][]float64)}
}

// Rate computes, for each free-variable argument position of op, a
// "precondition rating": the argument's frequency of use in preconditions
// across the reduction-decomposition graph reachable from op, visited
// preorder and discounted geometrically by 2^-(depth-1) (depth is 1 at op
// itself, so op's own preconditions count fully). Higher ratings mark
// arguments more worth grounding eagerly.
func (r *ratingCache) Rate(t *Traversal, op htn.USignature) []float64 {
	if cached, ok := r.byName[op.Name]; ok {
		return cached
	}
	ratings := make([]float64, len(op.Args))
	argIndex := make(map[htn.ID]int, len(op.Args))
	for i, a := range op.Args {
		if a.IsVariable() {
			argIndex[a] = i
		}
	}
	t.Traverse(op, func(sig htn.USignature, depth int) {
		discount := 1.0
		for i := 1; i < depth; i++ {
			discount /= 2
		}
		preconds := preconditionsOf(t.inst, sig)
		for _, pre := range preconds {
			for _, a := range pre.Sig.Args {
				if idx, ok := argIndex[a]; ok {
					ratings[idx] += discount
				}
			}
		}
	})
	r.byName[op.Name] = ratings
	return ratings
}

func preconditionsOf(inst *htn.Instance, sig htn.USignature) []htn.Signature {
	if tmpl, ok := inst.ActionTemplate(sig.Name); ok {
		return tmpl.Action.Preconditions
	}
	if tmpl, ok := inst.ReductionTemplate(sig.Name); ok {
		return tmpl.Reduction.Preconditions
	}
	return nil
}

package instantiate

import "github.com/htn-sat/planner/internal/htn"

// Options configures the instantiator's enumeration behavior (§6
// configuration options q, qq, q_const_instantiation_limit,
// q_const_rating_factor).
type Options struct {
	// InstantiateNothing ("qq"): skip the DFS entirely and always fall
	// through to the lifted-fallback result.
	InstantiateNothing bool
	// PreconditionsOnly ("q"): restrict eager grounding to arguments that
	// appear in some precondition, per the rating computed by Rate.
	PreconditionsOnly bool
	// QConstInstantiationLimit ("q_const_instantiation_limit"): cap on
	// enumerated complete instantiations; 0 disables bounded enumeration.
	QConstInstantiationLimit int
	// QConstRatingFactor ("q_const_rating_factor"): multiplier applied to an
	// argument's rating before comparing it against its domain size, used
	// when deciding whether that argument is worth eager grounding under
	// PreconditionsOnly.
	QConstRatingFactor float64
	// SortArgsByRating resolves spec Open Question (b): whether the DFS
	// argument order should be sorted by precondition rating descending
	// before search. Default false — unsorted, as specified.
	SortArgsByRating bool
}

// Instantiator enumerates ground or partially-ground instantiations of a
// lifted operator against a reachable-state oracle (§4.2).
type Instantiator struct {
	inst      *htn.Instance
	traversal *Traversal
	ratings   *ratingCache
	opts      Options
}

// New returns an instantiator bound to inst with the given options.
func New(inst *htn.Instance, opts Options) *Instantiator {
	return &Instantiator{
		inst:      inst,
		traversal: NewTraversal(inst),
		ratings:   newRatingCache(),
		opts:      opts,
	}
}

// dfsState carries the mutable search state across the recursive DFS, kept
// explicit rather than as hidden globals (no equivalent of the historical
// `__op` thread-local survives here).
type dfsState struct {
	op       htn.HtnOp
	sorts    []htn.SortID
	order    []int // free-variable argument positions, in search order
	oracle   StateOracle
	results  []htn.HtnOp
	limit    int // 0 = unbounded; the probe uses 1 to stop at the first result
}

// GetApplicableInstantiations returns every ground substitution of op's free
// variables whose preconditions are not statically refuted by oracle, or —
// if grounding would be too expensive or unbounded — the operator with its
// remaining variables left for the layer planner to replace with
// q-constants.
func (ins *Instantiator) GetApplicableInstantiations(op htn.HtnOp, sorts []htn.SortID, oracle StateOracle) []htn.HtnOp {
	if ins.opts.InstantiateNothing {
		return []htn.HtnOp{op}
	}

	order := ins.argOrder(op, sorts)

	// 1. Fast-fail probe: find one candidate. None existing means the
	// operator is unreachable.
	probe := &dfsState{op: op, sorts: sorts, order: order, oracle: oracle, limit: 1}
	ins.dfs(probe, htn.NewSubstitution(), 0)
	if len(probe.results) == 0 {
		return nil
	}

	// 2. Bounded enumeration.
	if ins.opts.QConstInstantiationLimit > 0 {
		bounded := &dfsState{op: op, sorts: sorts, order: order, oracle: oracle, limit: ins.opts.QConstInstantiationLimit + 1}
		ins.dfs(bounded, htn.NewSubstitution(), 0)
		if len(bounded.results) <= ins.opts.QConstInstantiationLimit {
			return bounded.results
		}
	}

	// 3. Lifted fallback: leave all free arguments variable.
	return []htn.HtnOp{op}
}

// argOrder returns the free-variable argument positions to search, in a
// fixed priority order. Under PreconditionsOnly ("q"), positions whose
// precondition rating doesn't clear the bar set by QConstRatingFactor are
// dropped entirely — they stay variable and are left for the layer planner
// to replace with a q-constant instead of being eagerly ground. The default
// order (Open Question (b)) is unsorted (declaration order);
// opts.SortArgsByRating switches to rating-descending order.
func (ins *Instantiator) argOrder(op htn.HtnOp, sorts []htn.SortID) []int {
	var order []int
	for i, a := range op.Args {
		if a.IsVariable() {
			order = append(order, i)
		}
	}
	if ins.opts.PreconditionsOnly {
		order = ins.preconditionRelevant(op, sorts, order)
	}
	if !ins.opts.SortArgsByRating {
		return order
	}
	ratings := ins.ratings.Rate(ins.traversal, op.Signature())
	sortByRatingDesc(order, ratings)
	return order
}

// preconditionRelevant keeps only the argument positions worth eagerly
// grounding: a position's precondition rating, scaled by
// QConstRatingFactor, must be at least as large as its own domain size —
// eagerly enumerating a large domain is only worth the search cost when the
// argument is used often enough in preconditions to matter. Everything
// dropped here stays a free variable instead.
func (ins *Instantiator) preconditionRelevant(op htn.HtnOp, sorts []htn.SortID, order []int) []int {
	ratings := ins.ratings.Rate(ins.traversal, op.Signature())
	var kept []int
	for _, idx := range order {
		var sort htn.SortID = -1
		if idx < len(sorts) {
			sort = sorts[idx]
		}
		domainSize := len(ins.inst.GetConstantsOfSort(sort))
		if rateOf(ratings, idx)*ins.opts.QConstRatingFactor >= float64(domainSize) {
			kept = append(kept, idx)
		}
	}
	return kept
}

func sortByRatingDesc(order []int, ratings []float64) {
	for i := 1; i < len(order); i++ {
		j := i
		for j > 0 && rateOf(ratings, order[j-1]) < rateOf(ratings, order[j]) {
			order[j-1], order[j] = order[j], order[j-1]
			j--
		}
	}
}

func rateOf(ratings []float64, idx int) float64 {
	if idx < len(ratings) {
		return ratings[idx]
	}
	return 0
}

// dfs performs the depth-first search over dfsState.order, starting at
// depth k in that ordering, extending sub with one more binding per level.
// Pruning is monotone: a rejected prefix rejects all its extensions, so a
// single check per level suffices.
func (ins *Instantiator) dfs(st *dfsState, sub htn.Substitution, k int) {
	if st.limit > 0 && len(st.results) >= st.limit {
		return
	}
	if k == len(st.order) {
		complete := st.op.Substitute(sub)
		st.results = append(st.results, complete)
		return
	}
	argPos := st.order[k]
	v := st.op.Args[argPos]
	var sort htn.SortID = -1
	if argPos < len(st.sorts) {
		sort = st.sorts[argPos]
	}
	for _, c := range ins.inst.GetConstantsOfSort(sort) {
		next, ok := sub.With(v, c)
		if !ok {
			continue
		}
		if !ins.passesPreconditions(st.op, next, st.oracle) {
			continue
		}
		ins.dfs(st, next, k+1)
		if st.limit > 0 && len(st.results) >= st.limit {
			return
		}
	}
}

// passesPreconditions reports whether every fully-ground, non-q-constant
// precondition of op under sub is accepted by the oracle. Preconditions
// still containing a free variable are not yet checkable and pass; q-facts
// pass automatically (they cannot be refuted until decoded).
func (ins *Instantiator) passesPreconditions(op htn.HtnOp, sub htn.Substitution, oracle StateOracle) bool {
	check := func(sigs []htn.Signature) bool {
		for _, s := range sigs {
			subst := s.Substitute(sub)
			if subst.Sig.HasVariable() || subst.Sig.HasQConstant() {
				continue
			}
			if !oracle.Contains(subst) {
				return false
			}
		}
		return true
	}
	return check(op.Preconditions) && check(op.ExtraPreconditions)
}

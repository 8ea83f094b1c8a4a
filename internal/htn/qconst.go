package htn

// NewQConstant synthesizes a fresh q-constant for a free variable of sort,
// reusing an existing one already keyed by the same (layer, pos,
// operator-name, argument-position) context — `replace_q_constants` keys
// reuse this way so repeated visits to the same position don't blow up the
// q-constant count.
func (inst *Instance) NewQConstant(layer, pos int, nameID ID, argPos int, sort SortID) ID {
	key := qconstKey{layer: layer, pos: pos, sort: sort, nameID: nameID, argPos: argPos}
	if id, ok := inst.qbyContext[key]; ok {
		return id
	}
	id := inst.nextQConst
	inst.nextQConst++
	admissible := inst.Sorts.ConstantsOfSort(sort)
	q := &QConstant{ID: id, Sort: sort, Constraint: NewTypeConstraint(id, admissible)}
	inst.qconsts[id] = q
	inst.qbyContext[key] = id
	return id
}

// QConstantByID returns the registered q-constant, if any.
func (inst *Instance) QConstantByID(id ID) (*QConstant, bool) {
	q, ok := inst.qconsts[id]
	return q, ok
}

// RestrictQConstant intersects the q-constant's admissible domain with tc,
// recording the accumulated TypeConstraint. Never widens a domain, only
// ever narrows it, since new information only ever rules values out.
func (inst *Instance) RestrictQConstant(id ID, tc TypeConstraint) {
	q, ok := inst.qconsts[id]
	if !ok {
		return
	}
	q.Constraint = q.Constraint.Intersect(tc)
}

// ReplaceQConstants synthesizes (or reuses) a q-constant for every
// remaining free-variable argument of op, applies the resulting
// substitution, and records the type constraint derived from the
// argument's declared sort. Per §4.1, argument position within the
// (layer, pos) context is the reuse key.
func (inst *Instance) ReplaceQConstants(op HtnOp, layer, pos int, sorts []SortID) HtnOp {
	sub := NewSubstitution()
	for i, a := range op.Args {
		if !a.IsVariable() {
			continue
		}
		sort := SortID(-1)
		if i < len(sorts) {
			sort = sorts[i]
		}
		q := inst.NewQConstant(layer, pos, op.NameID, i, sort)
		sub, _ = sub.With(a, q)
	}
	if sub.Len() == 0 {
		return op
	}
	return op.Substitute(sub)
}

// GetDecodedObjects enumerates the ground facts reachable from a q-fact by
// choosing any admissible value for each q-constant independently (a
// Cartesian product modulo accumulated type constraints), memoized per
// signature (the cache key combines the normalized and the exact key).
func (inst *Instance) GetDecodedObjects(fact USignature) []USignature {
	key := inst.Normalize(fact).Key() + "|" + fact.Key()
	if cached, ok := inst.decodedCache[key]; ok {
		return cached
	}
	results := []USignature{{Name: fact.Name, Args: append([]ID{}, fact.Args...)}}
	for i, a := range fact.Args {
		if !a.IsQConstant() {
			continue
		}
		q, ok := inst.qconsts[a]
		if !ok {
			continue
		}
		domain := q.Constraint.List()
		next := make([]USignature, 0, len(results)*len(domain))
		for _, r := range results {
			for _, c := range domain {
				args := append([]ID{}, r.Args...)
				args[i] = c
				next = append(next, USignature{Name: r.Name, Args: args})
			}
		}
		results = next
	}
	inst.decodedCache[key] = results
	return results
}

// RemoveRigidConditions strips preconditions that hold in every reachable
// state for every instantiation of op — static facts such as type
// predicates — shrinking the clauses the encoder later has to emit for
// this operator. rigid reports whether a ground unsigned fact is rigidly
// true (never changes across the whole run).
func RemoveRigidConditions(op HtnOp, rigid func(USignature) bool) HtnOp {
	keep := func(sigs []Signature) []Signature {
		out := make([]Signature, 0, len(sigs))
		for _, s := range sigs {
			if !s.Negated && rigid != nil && rigid(s.Sig) {
				continue
			}
			out = append(out, s)
		}
		return out
	}
	op.Preconditions = keep(op.Preconditions)
	op.ExtraPreconditions = keep(op.ExtraPreconditions)
	return op
}

package layer

import (
	"github.com/htn-sat/planner/internal/htn"
	"github.com/htn-sat/planner/internal/instantiate"
)

// BlankName is the synthetic action name used as a placeholder when a
// reduction's subtasks have been exhausted before its allotted span, or
// when propagating an already-executed action unchanged (§GLOSSARY "Blank
// action").
const BlankName = "_blank_"

// Planner builds layers of positions against an HTN instance (§4.3). It
// exclusively owns the HTN instance and the layer vector while it runs; the
// encoder only gets shared read access to sealed positions.
type Planner struct {
	Inst        *htn.Instance
	Instantiate *instantiate.Instantiator
	Layers      []*Layer

	blankName htn.ID
}

// NewPlanner returns a planner for inst, using instor to resolve lifted
// operators into ground or q-constant-bearing instances.
func NewPlanner(inst *htn.Instance, instor *instantiate.Instantiator) *Planner {
	return &Planner{
		Inst:        inst,
		Instantiate: instor,
		blankName:   inst.Interner.Intern(BlankName),
	}
}

// CreateLayer0 builds the first layer: position 0 holds the initial state
// and the synthetic `_init_reduction`; the final position holds the virtual
// `_GOAL_ACTION_` whose preconditions are the problem's goals.
func (pl *Planner) CreateLayer0() *Layer {
	state := NewLayerState()
	l := NewLayer(0, state)

	p0 := l.AddPosition()
	for _, fact := range pl.Inst.InitialState {
		p0.AddFact(fact.Sig)
		p0.TrueFacts[fact.Sig.Key()] = true
		p0.DefinitiveFacts[fact.Sig.Key()] = true
		state.Extend(fact.Sig, false, 0, 1)
	}
	initTmpl, _ := pl.Inst.ReductionTemplate(pl.Inst.InitReductionName)
	p0.AddReduction(initTmpl.Reduction.HtnOp)
	pl.registerPreconditions(l, p0, initTmpl.Reduction.HtnOp)
	pl.registerEffects(l, 0, initTmpl.Reduction.HtnOp)

	p1 := l.AddPosition()
	goalTmpl, _ := pl.Inst.ActionTemplate(pl.Inst.GoalActionName)
	p1.AddAction(goalTmpl.Action.HtnOp)
	pl.registerPreconditions(l, p1, goalTmpl.Action.HtnOp)

	p0.Seal()
	p1.Seal()
	l.SetSuccessor(0, 0, 1)
	pl.Layers = append(pl.Layers, l)
	return l
}

// CreateNextLayer builds layer k+1 from layer k by expanding every operator
// in every position of k.
func (pl *Planner) CreateNextLayer() *Layer {
	prev := pl.Layers[len(pl.Layers)-1]
	next := NewLayer(prev.Index+1, NewLayerState())
	pl.Layers = append(pl.Layers, next)

	// First pass: decide how many child positions each position of prev expands into.
	childStart := 0
	for p, pos := range prev.Positions {
		size := pl.expansionSizeFor(pos)
		prev.SetSuccessor(p, childStart, size)
		childStart += size
	}

	for childPos := 0; childPos < childStart; childPos++ {
		pl.createNextPosition(prev, next, childPos)
	}
	return next
}

// expansionSizeFor returns how many child positions pos's operators need:
// the longest subtask list among its reductions (actions always need
// exactly 1), with a minimum of 1 so positions with no operators still
// propagate.
func (pl *Planner) expansionSizeFor(pos *Position) int {
	size := 1
	for _, r := range pos.Reductions {
		if n := len(reductionSubtasks(pl.Inst, r)); n > size {
			size = n
		}
	}
	return size
}

func reductionSubtasks(inst *htn.Instance, op htn.HtnOp) []htn.USignature {
	tmpl, ok := inst.ReductionTemplate(op.NameID)
	if !ok {
		return nil
	}
	sub := htn.NewSubstitution()
	for i, v := range tmpl.Reduction.Args {
		if i >= len(op.Args) {
			break
		}
		sub, _ = sub.With(v, op.Args[i])
	}
	return tmpl.Reduction.Substitute(sub).Subtasks
}

// createNextPosition runs the five-step position-creation algorithm (§4.3)
// for position childPos of next, whose operators come from above's
// position in prev.
func (pl *Planner) createNextPosition(prev, next *Layer, childPos int) *Position {
	p := next.AddPosition()

	// Step 1: fact propagation.
	if childPos == 0 {
		pl.propagateInitialState(prev, next, p)
	} else {
		pl.propagateFromLeft(next, p)
	}

	// Step 2: operator propagation from above.
	abovePos, offset := prev.Above(childPos)
	if abovePos >= 0 {
		pl.propagateFromAbove(prev.Positions[abovePos], p, offset)
	}

	// Step 3 + 4: precondition registration, effect preparation.
	for _, a := range p.Actions {
		pl.registerPreconditions(next, p, a)
		pl.registerEffects(next, p.Pos, a)
	}
	for _, r := range p.Reductions {
		pl.registerPreconditions(next, p, r)
		pl.registerEffects(next, p.Pos, r)
	}

	// Step 5: seal.
	p.Seal()
	return p
}

// propagateInitialState copies the facts of position 0 of the previous layer,
// with their true/false/definitive flags, into the first position of the new
// layer, and records each copied fact in the new LayerState as possibly
// holding with either polarity at that position.
func (pl *Planner) propagateInitialState(prev, next *Layer, p *Position) {
	src := prev.Positions[0]
	for key, sig := range src.Facts {
		p.AddFact(sig)
		next.State.Extend(sig, false, p.Pos, p.Pos+1)
		next.State.Extend(sig, true, p.Pos, p.Pos+1)
		if src.TrueFacts[key] {
			p.TrueFacts[key] = true
		}
		if src.FalseFacts[key] {
			p.FalseFacts[key] = true
		}
		if src.DefinitiveFacts[key] {
			p.DefinitiveFacts[key] = true
		}
	}
}

// propagateFromLeft forwards every fact from position p-1 of the same
// layer, applying the memoized effects of every operator there.
func (pl *Planner) propagateFromLeft(l *Layer, p *Position) {
	left := l.Positions[p.Pos-1]
	for _, sig := range left.Facts {
		p.AddFact(sig)
	}
	for key := range left.TrueFacts {
		p.TrueFacts[key] = true
	}
	for key := range left.FalseFacts {
		p.FalseFacts[key] = true
	}
	applyEffects := func(opKey string) {
		for _, eff := range left.FactChanges[opKey] {
			p.AddFact(eff.Sig)
			if eff.Negated {
				p.FalseFacts[eff.Sig.Key()] = true
			} else {
				p.TrueFacts[eff.Sig.Key()] = true
			}
		}
	}
	for key := range left.Actions {
		applyEffects(key)
	}
	for key := range left.Reductions {
		applyEffects(key)
	}
}

// propagateFromAbove implements step 2: actions propagate unchanged or as
// blanks depending on offset; reductions expand into every grounded
// reduction/action implementing their subtask at offset, or a blank once
// offset runs past their subtask list.
func (pl *Planner) propagateFromAbove(above, p *Position, offset int) {
	for key, a := range above.Actions {
		if offset == 0 {
			p.AddAction(a)
			above.Expansions[key] = append(above.Expansions[key], a.Signature().Key())
		} else {
			blank := pl.blankOp()
			p.AddAction(blank)
			above.Expansions[key] = append(above.Expansions[key], blank.Signature().Key())
		}
	}
	for key, r := range above.Reductions {
		subtasks := reductionSubtasks(pl.Inst, r)
		if offset >= len(subtasks) {
			blank := pl.blankOp()
			p.AddAction(blank)
			above.Expansions[key] = append(above.Expansions[key], blank.Signature().Key())
			continue
		}
		task := subtasks[offset]
		children := pl.getAllActionsOfTask(task, p)
		children = append(children, pl.getAllReductionsOfTask(task, p)...)
		if len(children) == 0 {
			above.Expansions[key] = append(above.Expansions[key], NoneSigKey)
			continue
		}
		for _, child := range children {
			if child.IsReduction {
				p.AddReduction(child.op)
				above.Expansions[key] = append(above.Expansions[key], child.op.Signature().Key())
			} else {
				p.AddAction(child.op)
				above.Expansions[key] = append(above.Expansions[key], child.op.Signature().Key())
			}
		}
	}
}

func (pl *Planner) blankOp() htn.HtnOp {
	return htn.HtnOp{NameID: pl.blankName}
}

// childCandidate is either a grounded/partially-ground action or reduction
// produced by task resolution.
type childCandidate struct {
	IsReduction bool
	op          htn.HtnOp
}

// getAllActionsOfTask implements the action half of §4.3.1: an action is
// unique by name, so this just instantiates it against task's arguments
// and the instantiator.
func (pl *Planner) getAllActionsOfTask(task htn.USignature, p *Position) []childCandidate {
	tmpl, ok := pl.Inst.ActionTemplate(task.Name)
	if !ok {
		return nil
	}
	sub := htn.NewSubstitution()
	for i, v := range tmpl.Action.Args {
		if i >= len(task.Args) {
			break
		}
		sub, _ = sub.With(v, task.Args[i])
	}
	grounded := tmpl.Action.HtnOp.Substitute(sub)
	grounded = htn.RemoveRigidConditions(grounded, pl.rigidOracle(p))
	var out []childCandidate
	for _, inst := range pl.instantiateAt(grounded, tmpl.ParamSorts, p) {
		out = append(out, childCandidate{op: inst})
	}
	return out
}

// getAllReductionsOfTask implements §4.3.1's reduction half: every
// reduction whose task unifies with task, via every valid parameter
// substitution (Substitution::getAll handles repeated task variables),
// filtered by applicable instantiation and full-ground-ness/type
// consistency after q-constant replacement.
func (pl *Planner) getAllReductionsOfTask(task htn.USignature, p *Position) []childCandidate {
	var out []childCandidate
	for _, redID := range pl.Inst.ReductionsForTask(task.Name) {
		tmpl, ok := pl.Inst.ReductionTemplate(redID)
		if !ok {
			continue
		}
		for _, sub := range htn.GetAll(tmpl.Reduction.Task.Args, task.Args) {
			grounded := tmpl.Reduction.HtnOp.Substitute(sub)
			grounded = htn.RemoveRigidConditions(grounded, pl.rigidOracle(p))
			for _, inst := range pl.instantiateAt(grounded, tmpl.ParamSorts, p) {
				out = append(out, childCandidate{IsReduction: true, op: inst})
			}
		}
	}
	return out
}

// instantiateAt runs the instantiator against op and then replaces any
// still-free variables with fresh q-constants bound to this position.
func (pl *Planner) instantiateAt(op htn.HtnOp, sorts []htn.SortID, p *Position) []htn.HtnOp {
	oracle := OracleAt(currentLayerState(pl, p), p.Pos)
	results := pl.Instantiate.GetApplicableInstantiations(op, sorts, oracle)
	out := make([]htn.HtnOp, 0, len(results))
	for _, r := range results {
		if r.Signature().HasVariable() {
			r = pl.Inst.ReplaceQConstants(r, p.Layer, p.Pos, sorts)
		}
		out = append(out, r)
	}
	return out
}

func currentLayerState(pl *Planner, p *Position) *LayerState {
	return pl.Layers[p.Layer].State
}

// rigidOracle returns the rigid-fact predicate RemoveRigidConditions needs:
// a ground fact is treated as rigid at p if the LayerState shows it holding
// continuously since position 0.
func (pl *Planner) rigidOracle(p *Position) func(htn.USignature) bool {
	ls := currentLayerState(pl, p)
	pos := p.Pos
	return func(sig htn.USignature) bool { return ls.Rigid(sig, pos+1) }
}

// registerPreconditions implements step 3: every precondition of op, after
// q-constant decoding, is registered as a fact at p; negative facts never
// seen before are introduced as new, initially-false facts; q-fact
// decodings that are statically impossible populate forbidden_substitutions.
func (pl *Planner) registerPreconditions(l *Layer, p *Position, op htn.HtnOp) {
	opKey := op.Signature().Key()
	check := func(sigs []htn.Signature) {
		for _, s := range sigs {
			p.AddFact(s.Sig)
			if s.Negated && !p.TrueFacts[s.Sig.Key()] {
				if !l.State.MayHoldEitherPolarity(p.Pos, s.Sig) {
					p.FalseFacts[s.Sig.Key()] = true
				}
			}
			if !s.Sig.HasQConstant() {
				continue
			}
			for i, a := range s.Sig.Args {
				if !a.IsQConstant() {
					continue
				}
				for _, decoded := range pl.Inst.GetDecodedObjects(s.Sig) {
					if !l.State.Contains(p.Pos, htn.Signature{Sig: decoded, Negated: s.Negated}) &&
						!p.TrueFacts[decoded.Key()] {
						p.ForbidSubstitution(opKey, i, decoded.Args[i])
					}
				}
			}
		}
	}
	check(op.Preconditions)
	check(op.ExtraPreconditions)
}

// registerEffects implements step 4: memoizes fact_changes for op and
// introduces any not-yet-seen effect fact as a new, initially-false fact
// registered in the LayerState.
func (pl *Planner) registerEffects(l *Layer, pos int, op htn.HtnOp) {
	opKey := op.Signature().Key()
	p := l.Positions[pos]
	var changes []htn.Signature
	for _, e := range op.Effects {
		if e.Sig.HasQConstant() {
			for _, decoded := range pl.Inst.GetDecodedObjects(e.Sig) {
				changes = append(changes, htn.Signature{Sig: decoded, Negated: e.Negated})
			}
		} else {
			changes = append(changes, e)
		}
	}
	p.FactChanges[opKey] = changes
	for _, e := range changes {
		p.AddFact(e.Sig)
		p.AddFactSupport(e.Sig.Key(), opKey)
		l.State.Extend(e.Sig, e.Negated, pos+1, pos+2)
	}
}

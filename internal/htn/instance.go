package htn

import "fmt"

// QConstant is a synthesized placeholder representing "some constant of a
// sort, consistent with accumulated type constraints" whose value the SAT
// encoder's substitution variables let the solver pick.
type QConstant struct {
	ID         ID
	Sort       SortID
	Constraint TypeConstraint
}

// Problem is the lifted input the instance store is built from (§6 Input):
// the already-parsed domain and problem, before the synthetic init/goal
// operators are added.
type Problem struct {
	InitialState          []Signature
	Goals                 []Signature
	Actions               map[ID]Action
	Reductions             map[ID]Reduction
	TaskIDToReductionIDs  map[ID][]ID
	Sorts                 map[ID][]SortID // operator name -> declared parameter sorts
	ConstantsOfSort       map[SortID][]ID
}

// Instance is the HTN instance store (§4.1): interned names, sort
// membership, operator templates, the q-constant registry, and the
// normalization/decoding caches shared by the instantiator and layer
// planner. It is built once and is append-only thereafter (new q-constants,
// new memoized fact-change sets); the one in-place change to an existing
// entry is RestrictQConstant narrowing a q-constant's admissible domain.
type Instance struct {
	Interner *Interner
	Sorts    *SortTable
	VarPool  *VariablePool

	actions     map[ID]OperatorTemplate
	reductions  map[ID]OperatorTemplate
	taskToReds  map[ID][]ID
	paramSorts  map[ID][]SortID

	qconsts   map[ID]*QConstant
	qbyContext map[qconstKey]ID
	nextQConst ID

	decodedCache map[string][]USignature
	ratingCache  map[ID]map[int]float64 // name_id -> arg position -> rating

	InitialState []Signature
	Goals        []Signature

	InitReductionName ID
	GoalActionName    ID
}

type qconstKey struct {
	layer, pos int
	sort       SortID
	nameID     ID
	argPos     int
}

// NewInstance builds the instance store from a parsed Problem, interning
// the synthetic `_init_reduction` and `_GOAL_ACTION_` operators the planner
// needs (§6 "Supplied synthetically").
func NewInstance(in *Interner, p Problem, topTasks []USignature) (*Instance, error) {
	sorts := NewSortTable()
	for sort, consts := range p.ConstantsOfSort {
		for _, c := range consts {
			sorts.Declare(sort, c)
		}
	}
	inst := &Instance{
		Interner:     in,
		Sorts:        sorts,
		VarPool:      NewVariablePool(),
		actions:      make(map[ID]OperatorTemplate),
		reductions:   make(map[ID]OperatorTemplate),
		taskToReds:   make(map[ID][]ID),
		paramSorts:   p.Sorts,
		qconsts:      make(map[ID]*QConstant),
		qbyContext:   make(map[qconstKey]ID),
		nextQConst:   firstQConstID,
		decodedCache: make(map[string][]USignature),
		ratingCache:  make(map[ID]map[int]float64),
		InitialState: p.InitialState,
		Goals:        p.Goals,
	}
	for name, a := range p.Actions {
		inst.actions[name] = OperatorTemplate{Action: a, ParamSorts: p.Sorts[name]}
	}
	for name, r := range p.Reductions {
		inst.reductions[name] = OperatorTemplate{IsReduction: true, Reduction: r, ParamSorts: p.Sorts[name]}
		inst.taskToReds[r.Task.Name] = append(inst.taskToReds[r.Task.Name], name)
	}
	for name, ids := range p.TaskIDToReductionIDs {
		inst.taskToReds[name] = append(inst.taskToReds[name], ids...)
	}

	inst.InitReductionName = in.Intern("_init_reduction")
	initReduction := Reduction{
		HtnOp:    HtnOp{NameID: inst.InitReductionName},
		Task:     USignature{Name: inst.InitReductionName},
		Subtasks: topTasks,
	}
	inst.reductions[inst.InitReductionName] = OperatorTemplate{IsReduction: true, Reduction: initReduction}

	inst.GoalActionName = in.Intern("_GOAL_ACTION_")
	goalAction := Action{HtnOp: HtnOp{NameID: inst.GoalActionName, Preconditions: p.Goals}}
	inst.actions[inst.GoalActionName] = OperatorTemplate{Action: goalAction}

	return inst, nil
}

// IsVariable reports whether id is a lifted-template free variable.
func (inst *Instance) IsVariable(id ID) bool { return id.IsVariable() }

// IsQConstant reports whether id is a q-constant.
func (inst *Instance) IsQConstant(id ID) bool { return id.IsQConstant() }

// IsAction reports whether sig names a known action template.
func (inst *Instance) IsAction(sig USignature) bool {
	_, ok := inst.actions[sig.Name]
	return ok
}

// IsReduction reports whether sig names a known reduction template.
func (inst *Instance) IsReduction(sig USignature) bool {
	_, ok := inst.reductions[sig.Name]
	return ok
}

// ToAction instantiates the action template named nameID by positional
// arg-wise substitution, failing with DomainError on arity mismatch.
func (inst *Instance) ToAction(nameID ID, args []ID) (Action, error) {
	tmpl, ok := inst.actions[nameID]
	if !ok || tmpl.IsReduction {
		return Action{}, &DomainError{Op: "ToAction", Msg: fmt.Sprintf("unknown action %d", nameID)}
	}
	if len(tmpl.Action.Args) != len(args) {
		return Action{}, &DomainError{Op: "ToAction", Msg: "arity mismatch"}
	}
	sub := NewSubstitution()
	var ok2 bool
	for i, v := range tmpl.Action.Args {
		sub, ok2 = sub.With(v, args[i])
		if !ok2 {
			return Action{}, &DomainError{Op: "ToAction", Msg: "inconsistent argument binding"}
		}
	}
	return Action{HtnOp: tmpl.Action.HtnOp.Substitute(sub)}, nil
}

// ToReduction instantiates the reduction template named nameID analogously to ToAction.
func (inst *Instance) ToReduction(nameID ID, args []ID) (Reduction, error) {
	tmpl, ok := inst.reductions[nameID]
	if !ok || !tmpl.IsReduction {
		return Reduction{}, &DomainError{Op: "ToReduction", Msg: fmt.Sprintf("unknown reduction %d", nameID)}
	}
	if len(tmpl.Reduction.Args) != len(args) {
		return Reduction{}, &DomainError{Op: "ToReduction", Msg: "arity mismatch"}
	}
	sub := NewSubstitution()
	var ok2 bool
	for i, v := range tmpl.Reduction.Args {
		sub, ok2 = sub.With(v, args[i])
		if !ok2 {
			return Reduction{}, &DomainError{Op: "ToReduction", Msg: "inconsistent argument binding"}
		}
	}
	return tmpl.Reduction.Substitute(sub), nil
}

// ActionTemplate returns the lifted action template for nameID.
func (inst *Instance) ActionTemplate(nameID ID) (OperatorTemplate, bool) {
	t, ok := inst.actions[nameID]
	return t, ok
}

// ReductionTemplate returns the lifted reduction template for nameID.
func (inst *Instance) ReductionTemplate(nameID ID) (OperatorTemplate, bool) {
	t, ok := inst.reductions[nameID]
	return t, ok
}

// ReductionsForTask returns the name ids of every reduction whose task
// matches taskName.
func (inst *Instance) ReductionsForTask(taskName ID) []ID {
	return inst.taskToReds[taskName]
}

// GetSorts returns the declared parameter sorts for an operator name.
func (inst *Instance) GetSorts(nameID ID) []SortID {
	return inst.paramSorts[nameID]
}

// GetConstantsOfSort returns every constant declared under sort.
func (inst *Instance) GetConstantsOfSort(sort SortID) []ID {
	return inst.Sorts.ConstantsOfSort(sort)
}

// HasSomeInstantiation reports whether every remaining free variable in sig
// has a non-empty admissible domain once accumulated constraints are
// intersected in: for ground/q-constant args this is trivially true, for a
// free variable it checks the variable's declared sort is non-empty.
func (inst *Instance) HasSomeInstantiation(nameID ID, args []ID, sorts []SortID) bool {
	for i, a := range args {
		if !a.IsVariable() {
			continue
		}
		if i >= len(sorts) {
			continue
		}
		if len(inst.Sorts.ConstantsOfSort(sorts[i])) == 0 {
			return false
		}
	}
	return true
}

// Normalize replaces every free variable/q-constant in sig by a positional
// placeholder `??_i`, used to key the normalized-signature dedup sets in
// network traversal and the precondition-rating cache. Ground ids are left
// untouched so two signatures differing only in variable naming (not in
// which positions are ground) normalize identically.
func (inst *Instance) Normalize(sig USignature) USignature {
	args := make([]ID, len(sig.Args))
	for i, a := range sig.Args {
		if a.IsVariable() || a.IsQConstant() {
			args[i] = placeholderID(i)
		} else {
			args[i] = a
		}
	}
	return USignature{Name: sig.Name, Args: args}
}

// placeholderID encodes the positional placeholder `??_i` as a synthetic id
// distinct from every real id range, so normalized signatures never
// collide with a genuine ground/variable/q-constant id.
func placeholderID(i int) ID {
	return ID(-(int32(i) + 2))
}

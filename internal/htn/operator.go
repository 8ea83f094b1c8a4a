package htn

// HtnOp is the shared shape of Action and Reduction: a named, argumented
// operator with preconditions and effects.
type HtnOp struct {
	NameID             ID
	Args               []ID
	Preconditions      []Signature
	ExtraPreconditions []Signature
	Effects            []Signature
}

// Signature returns the unsigned signature naming this operator occurrence.
func (op HtnOp) Signature() USignature {
	return USignature{Name: op.NameID, Args: op.Args}
}

// Substitute returns a copy of op with sub applied to its arguments,
// preconditions and effects. The template itself (the Action/Reduction this
// was built from) is never mutated — substitution always produces a new value.
func (op HtnOp) Substitute(sub Substitution) HtnOp {
	return HtnOp{
		NameID:             op.NameID,
		Args:               substituteArgs(op.Args, sub),
		Preconditions:      substituteSigs(op.Preconditions, sub),
		ExtraPreconditions: substituteSigs(op.ExtraPreconditions, sub),
		Effects:            substituteSigs(op.Effects, sub),
	}
}

func substituteArgs(args []ID, sub Substitution) []ID {
	out := make([]ID, len(args))
	for i, a := range args {
		out[i] = sub.Apply(a)
	}
	return out
}

func substituteSigs(sigs []Signature, sub Substitution) []Signature {
	out := make([]Signature, len(sigs))
	for i, s := range sigs {
		out[i] = s.Substitute(sub)
	}
	return out
}

// Action is a primitive operator: no subtasks.
type Action struct {
	HtnOp
}

// Reduction decomposes a compound task into an ordered list of subtasks.
type Reduction struct {
	HtnOp
	Task     USignature
	Subtasks []USignature
}

// Substitute returns a copy of the reduction with sub applied throughout,
// including the task signature and every subtask.
func (r Reduction) Substitute(sub Substitution) Reduction {
	subtasks := make([]USignature, len(r.Subtasks))
	for i, st := range r.Subtasks {
		subtasks[i] = st.Substitute(sub)
	}
	return Reduction{
		HtnOp:    r.HtnOp.Substitute(sub),
		Task:     r.Task.Substitute(sub),
		Subtasks: subtasks,
	}
}

// OperatorTemplate is a lifted (unsubstituted) Action or Reduction as
// parsed from the domain, plus its declared parameter sorts. Templates are
// immutable once loaded; substitution always produces a fresh HtnOp/Reduction
// value, never mutates the template (the "arena + index" design note: layer
// positions hold signature values, not pointers into this pool).
type OperatorTemplate struct {
	IsReduction bool
	Action      Action
	Reduction   Reduction
	ParamSorts  []SortID
}

// Arity returns the number of declared parameters.
func (t OperatorTemplate) Arity() int {
	if t.IsReduction {
		return len(t.Reduction.Args)
	}
	return len(t.Action.Args)
}

// Args returns the template's declared (free-variable) argument list.
func (t OperatorTemplate) Args() []ID {
	if t.IsReduction {
		return t.Reduction.Args
	}
	return t.Action.Args
}

package instantiate

import "github.com/htn-sat/planner/internal/htn"

// Traversal walks the reduction-decomposition graph rooted at an operator
// signature, visiting every reachable operator exactly once (by normalized
// signature) in preorder. Only preorder is implemented: the postorder
// branch in the traced algorithm only ever served to decide when to invoke
// the visitor, and nothing in this planner needs post-order visitation, so
// no TraverseOrder switch is exposed.
type Traversal struct {
	inst *htn.Instance
}

// NewTraversal returns a traversal bound to inst, used to resolve
// reductions/actions into their children while walking.
func NewTraversal(inst *htn.Instance) *Traversal {
	return &Traversal{inst: inst}
}

// VisitFunc is called once per visited operator signature, with its depth
// (1 at the root) in the decomposition graph.
type VisitFunc func(sig htn.USignature, depth int)

// Traverse performs a preorder walk starting at opSig, expanding reductions
// into their subtasks' possible actions/reductions via possibleChildren.
func (t *Traversal) Traverse(opSig htn.USignature, onVisit VisitFunc) {
	seen := make(map[string]bool)
	type frame struct {
		sig   htn.USignature
		depth int
	}
	frontier := []frame{{sig: opSig, depth: 1}}
	for len(frontier) > 0 {
		f := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		normKey := t.inst.Normalize(f.sig).Key()
		if seen[normKey] {
			continue
		}
		onVisit(f.sig, f.depth)
		seen[normKey] = true

		for _, child := range t.possibleChildren(f.sig) {
			frontier = append(frontier, frame{sig: child, depth: f.depth + 1})
		}
	}
}

// possibleChildren returns the operators directly reachable from opSig's
// subtasks, if opSig names a reduction; an action has no children.
func (t *Traversal) possibleChildren(opSig htn.USignature) []htn.USignature {
	tmpl, ok := t.inst.ReductionTemplate(opSig.Name)
	if !ok {
		return nil
	}
	sub := htn.NewSubstitution()
	for i, v := range tmpl.Reduction.Args {
		if i >= len(opSig.Args) {
			break
		}
		sub, _ = sub.With(v, opSig.Args[i])
	}
	red := tmpl.Reduction.Substitute(sub)

	var out []htn.USignature
	for _, subtask := range red.Subtasks {
		out = append(out, t.childrenOfSubtask(subtask)...)
	}
	return out
}

func (t *Traversal) childrenOfSubtask(sig htn.USignature) []htn.USignature {
	if actionTmpl, ok := t.inst.ActionTemplate(sig.Name); ok {
		sub := htn.NewSubstitution()
		for i, v := range actionTmpl.Action.Args {
			if i >= len(sig.Args) {
				break
			}
			sub, _ = sub.With(v, sig.Args[i])
		}
		return []htn.USignature{sig.Substitute(sub)}
	}
	var out []htn.USignature
	for _, redID := range t.inst.ReductionsForTask(sig.Name) {
		subredTmpl, ok := t.inst.ReductionTemplate(redID)
		if !ok {
			continue
		}
		for _, s := range htn.GetAll(subredTmpl.Reduction.Task.Args, sig.Args) {
			out = append(out, subredTmpl.Reduction.Signature().Substitute(s))
		}
	}
	return out
}

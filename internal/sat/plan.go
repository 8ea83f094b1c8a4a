package sat

import (
	"github.com/htn-sat/planner/internal/htn"
	"github.com/htn-sat/planner/internal/layer"
)

// ExtractClassicalPlan reads the model for a satisfied layer and returns the
// linear sequence of selected, non-blank grounded actions across every
// position, left to right (§4.4 "Plan extraction", classical view).
func (enc *Encoder) ExtractClassicalPlan(l *layer.Layer, inst *htn.Instance) []layer.PlanItem {
	var out []layer.PlanItem
	id := 0
	blank := enc.blankNameID()
	for _, p := range l.Positions {
		for _, a := range p.Actions {
			if a.NameID == blank || a.NameID == inst.GoalActionName || a.NameID == inst.InitReductionName {
				continue
			}
			v, ok := p.Variables[layer.OpKey(a.Signature())]
			if !ok || !enc.Val(v) {
				continue
			}
			out = append(out, layer.PlanItem{ID: id, AbstractTask: a.Signature()})
			id++
		}
	}
	return out
}

// ExtractDecompositionPlan reads the model and rebuilds the full
// decomposition tree, assigning ids breadth-first from `_init_reduction`
// down (§4.4, decomposition view). Parent-child links come from
// Position.Expansions, matched against which child was actually selected in
// the next layer's corresponding position.
func (enc *Encoder) ExtractDecompositionPlan(layers []*layer.Layer, inst *htn.Instance) []layer.PlanItem {
	if len(layers) == 0 {
		return nil
	}
	root := layers[0].Positions[0]
	rootOp, ok := findSelected(enc, root, inst.InitReductionName)
	if !ok {
		return nil
	}

	type frame struct {
		op     htn.HtnOp
		layer  int
		pos    int
		parent int
	}
	nextID := 0
	queue := []frame{{op: rootOp, layer: 0, pos: 0, parent: -1}}
	var out []layer.PlanItem

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]

		item := layer.PlanItem{ID: nextID, AbstractTask: f.op.Signature()}
		myID := nextID
		nextID++

		isReduction := inst.IsReduction(f.op.Signature())
		item.HasReduction = isReduction
		if isReduction {
			item.Reduction = f.op.Signature()
			// The compound task a reduction decomposes is a distinct name
			// from the reduction (method) itself; look it up so the
			// rendered plan names both, per the HDDL verification format's
			// "<task> -> <method> <subtasks...>" method lines.
			if red, err := inst.ToReduction(f.op.NameID, f.op.Args); err == nil {
				item.AbstractTask = red.Task
			}
		}

		if f.layer+1 < len(layers) {
			nl := layers[f.layer+1]
			src := layers[f.layer].Positions[f.pos]
			children := src.Expansions[f.op.Signature().Key()]
			start := layers[f.layer].Successor(f.pos)
			for offset, childKey := range children {
				if childKey == layer.NoneSigKey {
					continue
				}
				childPos := start + offset
				if childPos >= len(nl.Positions) {
					continue
				}
				childOp, ok := findSelectedByKey(enc, nl.Positions[childPos], childKey)
				if !ok || isBlank(childOp, enc) {
					continue
				}
				item.SubtaskIDs = append(item.SubtaskIDs, nextID)
				queue = append(queue, frame{op: childOp, layer: f.layer + 1, pos: childPos, parent: myID})
			}
		}
		out = append(out, item)
	}
	return out
}

func isBlank(op htn.HtnOp, enc *Encoder) bool { return op.NameID == enc.blankNameID() }

// findSelected looks up the single selected operator at p whose name
// matches want.
func findSelected(enc *Encoder, p *layer.Position, want htn.ID) (htn.HtnOp, bool) {
	check := func(all map[string]htn.HtnOp) (htn.HtnOp, bool) {
		for _, op := range all {
			if op.NameID != want {
				continue
			}
			v, ok := p.Variables[layer.OpKey(op.Signature())]
			if ok && enc.Val(v) {
				return op, true
			}
		}
		return htn.HtnOp{}, false
	}
	if op, ok := check(p.Actions); ok {
		return op, true
	}
	return check(p.Reductions)
}

func findSelectedByKey(enc *Encoder, p *layer.Position, key string) (htn.HtnOp, bool) {
	if op, ok := p.Actions[key]; ok {
		if v, ok2 := p.Variables[layer.OpKey(op.Signature())]; ok2 && enc.Val(v) {
			return op, true
		}
	}
	if op, ok := p.Reductions[key]; ok {
		if v, ok2 := p.Variables[layer.OpKey(op.Signature())]; ok2 && enc.Val(v) {
			return op, true
		}
	}
	return htn.HtnOp{}, false
}

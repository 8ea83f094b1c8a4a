package layer

import "github.com/htn-sat/planner/internal/htn"

// PlanItem is one operator occurrence in the final plan. Every occurrence
// gets a unique id; the decomposition plan links parent ids to child ids.
type PlanItem struct {
	ID           int
	AbstractTask htn.USignature
	Reduction    htn.USignature
	HasReduction bool
	SubtaskIDs   []int
}

// IsPrimitive reports whether this item is a grounded action rather than a
// decomposition step.
func (pi PlanItem) IsPrimitive() bool { return !pi.HasReduction }

// Plan bundles the two views of a found solution (§4.4 "Plan extraction").
type Plan struct {
	Classical     []PlanItem // the linear sequence of grounded actions
	Decomposition []PlanItem // the full decomposition tree, breadth-first ids
}

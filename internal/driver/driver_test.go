package driver

import (
	"testing"

	"github.com/htn-sat/planner/internal/htn"
	"github.com/htn-sat/planner/internal/layer"
	"github.com/htn-sat/planner/internal/log"
	"github.com/htn-sat/planner/internal/sat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAssumptionsAssumesGoalActionVariable(t *testing.T) {
	in := htn.NewInterner()
	inst, err := htn.NewInstance(in, htn.Problem{}, nil)
	require.NoError(t, err)

	enc := sat.New(inst)
	l := layer.NewLayer(0, layer.NewLayerState())
	p := l.AddPosition()

	goalAction, err := inst.ToAction(inst.GoalActionName, nil)
	require.NoError(t, err)
	p.AddAction(goalAction.HtnOp)
	p.Seal()
	enc.EncodePosition(l, nil, p)

	assert.NotPanics(t, func() { addAssumptions(enc, l, inst) })
}

func TestFindPlanReportsDepthExhaustedWhenUnreachable(t *testing.T) {
	in := htn.NewInterner()
	unreachableGoal := in.Intern("never_true")
	problem := htn.Problem{
		Goals:           []htn.Signature{htn.Positive(htn.USignature{Name: unreachableGoal})},
		Actions:         map[htn.ID]htn.Action{},
		Reductions:      map[htn.ID]htn.Reduction{},
		Sorts:           map[htn.ID][]htn.SortID{},
		ConstantsOfSort: map[htn.SortID][]htn.ID{},
	}

	logger := log.New(nil, false)
	result, ok := FindPlan(problem, nil, Options{D: 2}, logger)
	assert.False(t, ok)
	assert.Equal(t, Result{}, result)
}

func TestEncodeLayersNeverSolves(t *testing.T) {
	in := htn.NewInterner()
	unreachableGoal := in.Intern("never_true")
	problem := htn.Problem{
		Goals:           []htn.Signature{htn.Positive(htn.USignature{Name: unreachableGoal})},
		Actions:         map[htn.ID]htn.Action{},
		Reductions:      map[htn.ID]htn.Reduction{},
		Sorts:           map[htn.ID][]htn.SortID{},
		ConstantsOfSort: map[htn.SortID][]htn.ID{},
	}

	enc, err := EncodeLayers(problem, nil, Options{D: 3})
	require.NoError(t, err)
	require.NotNil(t, enc)
}

// TestFindPlanSolvesTrivialSingleAction drives the "open door" scenario end
// to end: one action, no reductions, a goal reachable in a single step.
// This exercises the encoder's exactly-one/primitive/frame-axiom stages
// against a real Sat outcome, not just the unreachable-goal UNSAT path the
// other FindPlan tests cover.
func TestFindPlanSolvesTrivialSingleAction(t *testing.T) {
	in := htn.NewInterner()
	open := in.Intern("open")
	closedPred := in.Intern("closed")
	openedPred := in.Intern("opened")
	door := in.Intern("door")
	doorSort := htn.SortID(1)

	pool := htn.NewVariablePool()
	x := pool.New()

	action := htn.Action{HtnOp: htn.HtnOp{
		NameID:        open,
		Args:          []htn.ID{x},
		Preconditions: []htn.Signature{htn.Positive(htn.USignature{Name: closedPred, Args: []htn.ID{x}})},
		Effects: []htn.Signature{
			htn.Negative(htn.USignature{Name: closedPred, Args: []htn.ID{x}}),
			htn.Positive(htn.USignature{Name: openedPred, Args: []htn.ID{x}}),
		},
	}}

	problem := htn.Problem{
		InitialState:    []htn.Signature{htn.Positive(htn.USignature{Name: closedPred, Args: []htn.ID{door}})},
		Goals:           []htn.Signature{htn.Positive(htn.USignature{Name: openedPred, Args: []htn.ID{door}})},
		Actions:         map[htn.ID]htn.Action{open: action},
		Reductions:      map[htn.ID]htn.Reduction{},
		Sorts:           map[htn.ID][]htn.SortID{open: {doorSort}},
		ConstantsOfSort: map[htn.SortID][]htn.ID{doorSort: {door}},
	}
	topTasks := []htn.USignature{{Name: open, Args: []htn.ID{door}}}

	logger := log.New(nil, false)
	result, ok := FindPlan(problem, topTasks, Options{D: 4}, logger)
	require.True(t, ok, "a one-action plan reaching the goal should be found")

	require.Len(t, result.Classical, 1)
	assert.Equal(t, open, result.Classical[0].AbstractTask.Name)
	require.Len(t, result.Classical[0].AbstractTask.Args, 1)
	assert.Equal(t, door, result.Classical[0].AbstractTask.Args[0])

	require.NotEmpty(t, result.Decomposition, "the decomposition tree must also be extractable (AtLeastOne on _init_reduction)")
	root := result.Decomposition[0]
	require.Len(t, root.SubtaskIDs, 1, "the synthetic root should have exactly one child: the open action")
}

func TestFindPlanCheckSolvabilityStillBoundsByDepth(t *testing.T) {
	in := htn.NewInterner()
	unreachableGoal := in.Intern("never_true")
	problem := htn.Problem{
		Goals:           []htn.Signature{htn.Positive(htn.USignature{Name: unreachableGoal})},
		Actions:         map[htn.ID]htn.Action{},
		Reductions:      map[htn.ID]htn.Reduction{},
		Sorts:           map[htn.ID][]htn.SortID{},
		ConstantsOfSort: map[htn.SortID][]htn.ID{},
	}

	logger := log.New(nil, false)
	_, ok := FindPlan(problem, nil, Options{D: 2, CheckSolvability: true}, logger)
	assert.False(t, ok)
}

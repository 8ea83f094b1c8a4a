package layer

import (
	"testing"

	"github.com/htn-sat/planner/internal/htn"
	"github.com/htn-sat/planner/internal/instantiate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrivialPlanner(t *testing.T) (*Planner, htn.ID, htn.ID) {
	t.Helper()
	in := htn.NewInterner()
	finish := in.Intern("finish")
	done := in.Intern("done")

	problem := htn.Problem{
		Actions: map[htn.ID]htn.Action{
			finish: {HtnOp: htn.HtnOp{NameID: finish, Effects: []htn.Signature{htn.Positive(htn.USignature{Name: done})}}},
		},
		Reductions:      map[htn.ID]htn.Reduction{},
		Sorts:           map[htn.ID][]htn.SortID{},
		ConstantsOfSort: map[htn.SortID][]htn.ID{},
	}
	topTasks := []htn.USignature{{Name: finish}}

	inst, err := htn.NewInstance(in, problem, topTasks)
	require.NoError(t, err)

	instor := instantiate.New(inst, instantiate.Options{})
	return NewPlanner(inst, instor), finish, done
}

func TestCreateLayer0SeedsInitAndGoalPositions(t *testing.T) {
	pl, _, _ := newTrivialPlanner(t)
	l0 := pl.CreateLayer0()

	require.Len(t, l0.Positions, 2)
	p0, p1 := l0.Positions[0], l0.Positions[1]

	_, hasInit := p0.Reductions[htn.USignature{Name: pl.Inst.InitReductionName}.Key()]
	assert.True(t, hasInit)
	_, hasGoal := p1.Actions[htn.USignature{Name: pl.Inst.GoalActionName}.Key()]
	assert.True(t, hasGoal)
}

func TestCreateNextLayerExpandsInitReductionIntoTopTask(t *testing.T) {
	pl, finish, done := newTrivialPlanner(t)
	pl.CreateLayer0()
	next := pl.CreateNextLayer()

	require.Len(t, next.Positions, 2)
	finishKey := htn.USignature{Name: finish}.Key()
	_, hasFinish := next.Positions[0].Actions[finishKey]
	assert.True(t, hasFinish, "the top-level task should propagate into the first child position")

	goalPos := next.Positions[1]
	assert.True(t, goalPos.TrueFacts[htn.USignature{Name: done}.Key()],
		"finish's effect should propagate left-to-right onto the goal position")
}

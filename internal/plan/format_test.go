package plan

import (
	"strings"
	"testing"

	"github.com/htn-sat/planner/internal/htn"
	"github.com/htn-sat/planner/internal/layer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteClassical(t *testing.T) {
	in := htn.NewInterner()
	move := in.Intern("move")
	a := in.Intern("a")
	b := in.Intern("b")

	items := []layer.PlanItem{
		{ID: 0, AbstractTask: htn.USignature{Name: move, Args: []htn.ID{a, b}}},
	}

	var out strings.Builder
	require.NoError(t, New(in, nil).WriteClassical(&out, items))
	assert.Equal(t, "0 move a b\n", out.String())
}

func TestWriteDecompositionSkipsRootAndPrimitiveLeaves(t *testing.T) {
	in := htn.NewInterner()
	travel := in.Intern("travel")
	move := in.Intern("move")
	initRed := in.Intern("_init_reduction")

	items := []layer.PlanItem{
		{ID: 0, AbstractTask: htn.USignature{Name: initRed}, HasReduction: true, SubtaskIDs: []int{1}},
		{ID: 1, AbstractTask: htn.USignature{Name: travel}, Reduction: htn.USignature{Name: travel}, HasReduction: true, SubtaskIDs: []int{0}},
		{ID: 0, AbstractTask: htn.USignature{Name: move}}, // primitive leaf, from the classical id space
	}

	var out strings.Builder
	require.NoError(t, New(in, nil).WriteDecomposition(&out, items))
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "1 travel -> travel 0", lines[0])
}

func TestWritePlanWrapsTrivialSingleAction(t *testing.T) {
	in := htn.NewInterner()
	open := in.Intern("open")
	door := in.Intern("door")

	classical := []layer.PlanItem{
		{ID: 0, AbstractTask: htn.USignature{Name: open, Args: []htn.ID{door}}},
	}

	var out strings.Builder
	require.NoError(t, New(in, nil).WritePlan(&out, classical, nil))
	assert.Equal(t, "==>\n0 open door\nroot 0\n<==\n", out.String())
}

func TestWritePlanUsesDecompositionRootSubtasks(t *testing.T) {
	in := htn.NewInterner()
	initRed := in.Intern("_init_reduction")
	travel := in.Intern("travel")
	move := in.Intern("move")

	decomposition := []layer.PlanItem{
		{ID: 0, AbstractTask: htn.USignature{Name: initRed}, HasReduction: true, SubtaskIDs: []int{1}},
		{ID: 1, AbstractTask: htn.USignature{Name: travel}, Reduction: htn.USignature{Name: travel}, HasReduction: true, SubtaskIDs: []int{0}},
	}
	classical := []layer.PlanItem{
		{ID: 0, AbstractTask: htn.USignature{Name: move}},
	}

	var out strings.Builder
	require.NoError(t, New(in, nil).WritePlan(&out, classical, decomposition))
	assert.Equal(t, "==>\n0 move\nroot 1\n1 travel -> travel 0\n<==\n", out.String())
}

type upperResolver struct{}

func (upperResolver) Resolve(item layer.PlanItem) layer.PlanItem {
	item.ID += 100
	return item
}

func TestWriteClassicalUsesResolver(t *testing.T) {
	in := htn.NewInterner()
	move := in.Intern("move")
	items := []layer.PlanItem{{ID: 0, AbstractTask: htn.USignature{Name: move}}}

	var out strings.Builder
	require.NoError(t, New(in, upperResolver{}).WriteClassical(&out, items))
	assert.Equal(t, "100 move\n", out.String())
}

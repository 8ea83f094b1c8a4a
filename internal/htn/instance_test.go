package htn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildOpenDoorProblem(in *Interner) (Problem, ID, ID) {
	open := in.Intern("open")
	closed := in.Intern("closed")
	door := in.Intern("door")
	x := ID(firstVarID)

	actionOpen := Action{HtnOp: HtnOp{
		NameID:        open,
		Args:          []ID{x},
		Preconditions: []Signature{Positive(USignature{Name: closed, Args: []ID{x}})},
		Effects: []Signature{
			Negative(USignature{Name: closed, Args: []ID{x}}),
			Positive(USignature{Name: open, Args: []ID{x}}),
		},
	}}

	p := Problem{
		InitialState: []Signature{Positive(USignature{Name: closed, Args: []ID{door}})},
		Goals:        []Signature{Positive(USignature{Name: open, Args: []ID{door}})},
		Actions:      map[ID]Action{open: actionOpen},
		Reductions:   map[ID]Reduction{},
		Sorts:        map[ID][]SortID{open: {1}},
		ConstantsOfSort: map[SortID][]ID{1: {door}},
	}
	return p, open, door
}

func TestToActionSubstitutesArgs(t *testing.T) {
	in := NewInterner()
	p, openName, door := buildOpenDoorProblem(in)
	inst, err := NewInstance(in, p, nil)
	require.NoError(t, err)

	a, err := inst.ToAction(openName, []ID{door})
	require.NoError(t, err)
	assert.Equal(t, door, a.Args[0])
	assert.Equal(t, door, a.Preconditions[0].Sig.Args[0])
}

func TestToActionArityMismatch(t *testing.T) {
	in := NewInterner()
	p, openName, _ := buildOpenDoorProblem(in)
	inst, err := NewInstance(in, p, nil)
	require.NoError(t, err)

	_, err = inst.ToAction(openName, []ID{})
	require.Error(t, err)
	var domErr *DomainError
	assert.ErrorAs(t, err, &domErr)
}

func TestNormalizeReplacesFreeArgs(t *testing.T) {
	in := NewInterner()
	p, openName, door := buildOpenDoorProblem(in)
	inst, err := NewInstance(in, p, nil)
	require.NoError(t, err)

	ground := USignature{Name: openName, Args: []ID{door}}
	q := inst.NewQConstant(0, 0, openName, 0, 1)
	withQ := USignature{Name: openName, Args: []ID{q}}

	assert.NotEqual(t, inst.Normalize(ground), inst.Normalize(withQ))
	assert.Equal(t, inst.Normalize(withQ), inst.Normalize(USignature{Name: openName, Args: []ID{q + 1}}))
}

func TestGetDecodedObjectsEnumeratesDomain(t *testing.T) {
	in := NewInterner()
	p, openName, door := buildOpenDoorProblem(in)
	p.ConstantsOfSort[1] = append(p.ConstantsOfSort[1], in.Intern("door2"))
	inst, err := NewInstance(in, p, nil)
	require.NoError(t, err)

	q := inst.NewQConstant(0, 0, openName, 0, 1)
	decoded := inst.GetDecodedObjects(USignature{Name: openName, Args: []ID{q}})
	assert.Len(t, decoded, 2)
	_ = door
}

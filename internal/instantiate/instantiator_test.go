package instantiate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htn-sat/planner/internal/htn"
)

type fixedOracle map[string]bool

func (o fixedOracle) Contains(sig htn.Signature) bool {
	key := sig.Sig.Key()
	if sig.Negated {
		key = "!" + key
	}
	return o[key]
}

func buildMoveDomain(in *htn.Interner) (*htn.Instance, htn.ID, htn.ID, htn.ID, htn.ID) {
	move := in.Intern("move")
	at := in.Intern("at")
	r1 := in.Intern("r1")
	r2 := in.Intern("r2")
	pool := htn.NewVariablePool()
	x := pool.New()

	action := htn.Action{HtnOp: htn.HtnOp{
		NameID:        move,
		Args:          []htn.ID{x},
		Preconditions: []htn.Signature{htn.Positive(htn.USignature{Name: at, Args: []htn.ID{x}})},
	}}
	p := htn.Problem{
		Actions:         map[htn.ID]htn.Action{move: action},
		Reductions:      map[htn.ID]htn.Reduction{},
		Sorts:           map[htn.ID][]htn.SortID{move: {1}},
		ConstantsOfSort: map[htn.SortID][]htn.ID{1: {r1, r2}},
	}
	inst, err := htn.NewInstance(in, p, nil)
	if err != nil {
		panic(err)
	}
	return inst, move, at, r1, r2
}

func TestGetApplicableInstantiationsFindsGroundMatch(t *testing.T) {
	in := htn.NewInterner()
	inst, move, at, r1, _ := buildMoveDomain(in)
	tmpl, _ := inst.ActionTemplate(move)

	oracle := fixedOracle{htn.USignature{Name: at, Args: []htn.ID{r1}}.Key(): true}
	// Ground results come from bounded enumeration, which a zero limit disables.
	instor := New(inst, Options{QConstInstantiationLimit: 2})
	results := instor.GetApplicableInstantiations(tmpl.Action.HtnOp, tmpl.ParamSorts, oracle)
	require.Len(t, results, 1)
	assert.Equal(t, r1, results[0].Args[0])
}

func TestGetApplicableInstantiationsUnreachable(t *testing.T) {
	in := htn.NewInterner()
	inst, move, _, _, _ := buildMoveDomain(in)
	tmpl, _ := inst.ActionTemplate(move)

	instor := New(inst, Options{})
	results := instor.GetApplicableInstantiations(tmpl.Action.HtnOp, tmpl.ParamSorts, fixedOracle{})
	assert.Empty(t, results)
}

func TestGetApplicableInstantiationsInstantiateNothingFallsBack(t *testing.T) {
	in := htn.NewInterner()
	inst, move, at, r1, _ := buildMoveDomain(in)
	tmpl, _ := inst.ActionTemplate(move)

	oracle := fixedOracle{htn.USignature{Name: at, Args: []htn.ID{r1}}.Key(): true}
	instor := New(inst, Options{InstantiateNothing: true})
	results := instor.GetApplicableInstantiations(tmpl.Action.HtnOp, tmpl.ParamSorts, oracle)
	require.Len(t, results, 1)
	assert.True(t, results[0].Args[0].IsVariable())
}

func TestBoundedEnumerationFallsBackWhenOverLimit(t *testing.T) {
	in := htn.NewInterner()
	inst, move, at, r1, r2 := buildMoveDomain(in)
	tmpl, _ := inst.ActionTemplate(move)

	oracle := fixedOracle{
		htn.USignature{Name: at, Args: []htn.ID{r1}}.Key(): true,
		htn.USignature{Name: at, Args: []htn.ID{r2}}.Key(): true,
	}
	instor := New(inst, Options{QConstInstantiationLimit: 1})
	results := instor.GetApplicableInstantiations(tmpl.Action.HtnOp, tmpl.ParamSorts, oracle)
	require.Len(t, results, 1)
	assert.True(t, results[0].Args[0].IsVariable())
}

package sat

import (
	"testing"

	"github.com/htn-sat/planner/internal/satcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEncoder() *Encoder {
	return &Encoder{
		solver:  satcore.NewIPASIR(satcore.New(0, nil, nil)),
		nextVar: 1,
	}
}

func TestEmitFormulaAndForcesBothTrue(t *testing.T) {
	enc := newTestEncoder()
	a := enc.freshVar()
	b := enc.freshVar()

	enc.emitFormula(andF{litF(a), litF(b)})

	require.Equal(t, satcore.Sat, enc.Solve())
	assert.True(t, enc.Val(a))
	assert.True(t, enc.Val(b))
}

func TestEmitFormulaOrAllowsEither(t *testing.T) {
	enc := newTestEncoder()
	a := enc.freshVar()
	b := enc.freshVar()
	enc.addClause(-a) // force a false, so the disjunction must pick b

	enc.emitFormula(orF{litF(a), litF(b)})

	require.Equal(t, satcore.Sat, enc.Solve())
	assert.False(t, enc.Val(a))
	assert.True(t, enc.Val(b))
}

func TestEmitFormulaFalseIsUnsat(t *testing.T) {
	enc := newTestEncoder()
	enc.emitFormula(falseF{})
	assert.Equal(t, satcore.Unsat, enc.Solve())
}

func TestUniqueFormulaSmallExactlyOneTrue(t *testing.T) {
	enc := newTestEncoder()
	vars := []int{enc.freshVar(), enc.freshVar(), enc.freshVar()}

	enc.emitFormula(enc.uniqueFormula(vars))

	require.Equal(t, satcore.Sat, enc.Solve())
	trueCount := 0
	for _, v := range vars {
		if enc.Val(v) {
			trueCount++
		}
	}
	assert.Equal(t, 1, trueCount)
}

func TestUniqueFormulaLargeExactlyOneTrue(t *testing.T) {
	enc := newTestEncoder()
	vars := make([]int, 20)
	for i := range vars {
		vars[i] = enc.freshVar()
	}

	enc.emitFormula(enc.uniqueFormula(vars))

	require.Equal(t, satcore.Sat, enc.Solve())
	trueCount := 0
	for _, v := range vars {
		if enc.Val(v) {
			trueCount++
		}
	}
	assert.Equal(t, 1, trueCount)
}

package sat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptimizePlanNoLiteralsIsZero(t *testing.T) {
	enc := newTestEncoder()
	assert.Equal(t, 0, enc.OptimizePlan(5))
}

func TestOptimizePlanFindsTightestAchievableBound(t *testing.T) {
	enc := newTestEncoder()
	v1, v2, v3 := enc.freshVar(), enc.freshVar(), enc.freshVar()
	// Force exactly two of the three plan-length literals true, so the
	// tightest satisfiable bound is 2, not 0 or 3.
	enc.addClause(v1)
	enc.addClause(v2)
	enc.addClause(-v3)
	enc.planLenLits = []int{v1, v2, v3}

	assert.Equal(t, 2, enc.OptimizePlan(3))
}

func TestOptimizePlanReturnsMaxLenWhenAlreadyTight(t *testing.T) {
	enc := newTestEncoder()
	v1, v2 := enc.freshVar(), enc.freshVar()
	enc.addClause(v1)
	enc.addClause(v2)
	enc.planLenLits = []int{v1, v2}

	assert.Equal(t, 2, enc.OptimizePlan(2))
}

package satcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineSolvesSimpleClause(t *testing.T) {
	e := New(2, []*Clause{NewClause([]Lit{IntToLit(1), IntToLit(2)})}, nil)
	status := e.Solve()
	require.Equal(t, Sat, status)
	assert.True(t, e.Val(1) || e.Val(2))
}

func TestEngineDetectsUnsat(t *testing.T) {
	e := New(1, []*Clause{
		NewClause([]Lit{IntToLit(1)}),
		NewClause([]Lit{IntToLit(-1)}),
	}, nil)
	require.Equal(t, Unsat, e.Solve())
}

func TestExactly1Card(t *testing.T) {
	cs := Exactly1(1, 2, 3)
	require.Len(t, cs, 2)
	assert.Equal(t, 1, cs[0].AtLeast)
	assert.Equal(t, 2, cs[1].AtLeast)
}

func TestIPASIRAddAndSolve(t *testing.T) {
	e := New(2, nil, nil)
	s := NewIPASIR(e)
	s.Add(1)
	s.Add(2)
	s.Add(0)
	require.Equal(t, Sat, s.Solve())
}

func TestIPASIRDumpRecordsCommittedClauses(t *testing.T) {
	e := New(3, nil, nil)
	s := NewIPASIR(e)
	s.Add(1)
	s.Add(-2)
	s.Add(0)
	s.AddCard([]int{1, 2, 3}, 2)

	dump := s.Dump()
	require.Len(t, dump, 2)
	assert.Equal(t, "1 -2 0", dump[0])
	assert.Equal(t, "1 2 3 0", dump[1])
}

func TestIPASIRDumpSkipsEmptyClause(t *testing.T) {
	e := New(1, nil, nil)
	s := NewIPASIR(e)
	s.Add(0) // no literals buffered: nothing committed, nothing dumped
	assert.Empty(t, s.Dump())
}

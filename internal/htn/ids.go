// Package htn owns the lifted HTN domain model: interned names, sorts,
// operator templates, q-constants, and the normalization/decoding utilities
// the instantiator and layer planner build on.
package htn

// ID is an interned name, variable, or q-constant identifier.
//
// Ranges are disjoint by construction (per the "free variables vs
// q-constants" design note): ground symbols occupy [0, firstVarID),
// variables occupy [firstVarID, firstQConstID), and q-constants occupy
// [firstQConstID, +inf). Keeping them disjoint means a bare ID can never be
// ambiguous about which registry it belongs to.
type ID int32

const (
	firstVarID    ID = 1 << 28
	firstQConstID ID = 1 << 29
)

// NoID marks the absence of an id (e.g. a reduction's parent signature).
const NoID ID = -1

// IsVariable reports whether id names a lifted-template free variable.
func (id ID) IsVariable() bool { return id >= firstVarID && id < firstQConstID }

// IsQConstant reports whether id names a q-constant.
func (id ID) IsQConstant() bool { return id >= firstQConstID }

// IsGround reports whether id names an ordinary ground symbol (predicate,
// action/reduction name, or constant).
func (id ID) IsGround() bool { return id >= 0 && id < firstVarID }

// SortID identifies a sort (type) in the sort table.
type SortID int32

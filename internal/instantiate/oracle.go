// Package instantiate enumerates ground or partially-ground instantiations
// of lifted HTN operators against a reachable-state oracle.
package instantiate

import "github.com/htn-sat/planner/internal/htn"

// StateOracle answers whether a signed fact is statically known to be
// satisfiable in the current (layer, position) state. It is derived from a
// LayerState by the layer planner; the instantiator treats it as an opaque
// read-only predicate.
type StateOracle interface {
	Contains(sig htn.Signature) bool
}

// AlwaysTrueOracle accepts every fact; useful for callers (tests, a first
// lifted-only pass) that don't yet have a LayerState to consult.
type AlwaysTrueOracle struct{}

// Contains always returns true.
func (AlwaysTrueOracle) Contains(htn.Signature) bool { return true }

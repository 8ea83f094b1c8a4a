// Package layer builds the layers of positions the SAT encoder maps to
// propositional variables and clauses: position creation, decomposition,
// propagation, and the LayerState truth-interval tracking.
package layer

import (
	"fmt"

	"github.com/htn-sat/planner/internal/htn"
)

// VarKind tags which of the encoder's variable kinds a Position.Variables
// entry belongs to (§4.4): FACT, OP, SUBSTITUTION, Q_EQUALITY, plus the
// per-position PRIMITIVE bit. Defined here (not in the sat package) so
// Position can own its variable table without the layer package depending
// on the encoder.
type VarKind int

const (
	VarFact VarKind = iota
	VarOp
	VarSubstitution
	VarQEquality
	VarPrimitive
)

// FactKey builds the variable-table key for a fact signature's truth variable.
func FactKey(sig htn.USignature) string { return fmt.Sprintf("F|%s", sig.Key()) }

// OpKey builds the variable-table key for an operator occurrence variable.
func OpKey(sig htn.USignature) string { return fmt.Sprintf("O|%s", sig.Key()) }

// SubstKey builds the variable-table key for SUBSTITUTION(q, c).
func SubstKey(q, c htn.ID) string { return fmt.Sprintf("S|%d|%d", q, c) }

// EqKey builds the variable-table key for Q_EQUALITY(q1, q2), normalized so
// the pair order doesn't matter.
func EqKey(q1, q2 htn.ID) string {
	if q1 > q2 {
		q1, q2 = q2, q1
	}
	return fmt.Sprintf("E|%d|%d", q1, q2)
}

// PrimitiveKey builds the variable-table key for a position's primitive bit.
func PrimitiveKey() string { return "P" }

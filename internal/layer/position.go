package layer

import (
	"fmt"

	"github.com/htn-sat/planner/internal/htn"
)

// Position owns every set and table associated with a single (layer,
// position) coordinate (§3 "Position"). It is mutated only during its own
// creation phase, then sealed before the encoder reads it.
type Position struct {
	Layer, Pos int

	Actions    map[string]htn.HtnOp // keyed by USignature.Key()
	Reductions map[string]htn.HtnOp

	Facts           map[string]htn.USignature // positive facts that may appear
	QFacts          map[htn.ID][]htn.USignature // q-facts indexed by predicate name
	TrueFacts       map[string]bool
	FalseFacts      map[string]bool
	DefinitiveFacts map[string]bool

	// Expansions maps an operator signature key to the child signature keys
	// it expands into in the next layer (subtasks for reductions, self/blank
	// for actions). A child key of NoneSigKey means "this operator is
	// forbidden here".
	Expansions map[string][]string

	FactSupports map[string]map[string]bool // fact key -> set of operator sig keys
	FactChanges  map[string][]htn.Signature // operator sig key -> substituted effects

	ForbiddenSubstitutions map[string]map[string]bool // operator sig key -> set of "argpos=value" tokens

	QConstantTypeConstraints []htn.TypeConstraint

	Variables map[string]int // (VarKind, sig/ids) -> allocated SAT variable id

	sealed bool
}

// NoneSigKey marks "no operator" as an expansion target, encoded by the
// encoder as a hard negative unit clause on the parent.
const NoneSigKey = "<none>"

// NewPosition returns an empty, unsealed Position at (layer, pos).
func NewPosition(layerIdx, pos int) *Position {
	return &Position{
		Layer:                  layerIdx,
		Pos:                    pos,
		Actions:                make(map[string]htn.HtnOp),
		Reductions:             make(map[string]htn.HtnOp),
		Facts:                  make(map[string]htn.USignature),
		QFacts:                 make(map[htn.ID][]htn.USignature),
		TrueFacts:              make(map[string]bool),
		FalseFacts:             make(map[string]bool),
		DefinitiveFacts:        make(map[string]bool),
		Expansions:             make(map[string][]string),
		FactSupports:           make(map[string]map[string]bool),
		FactChanges:            make(map[string][]htn.Signature),
		ForbiddenSubstitutions: make(map[string]map[string]bool),
		Variables:              make(map[string]int),
	}
}

// AddAction registers an action occurrence possible at this position.
func (p *Position) AddAction(a htn.HtnOp) {
	p.Actions[a.Signature().Key()] = a
}

// AddReduction registers a reduction occurrence possible at this position.
func (p *Position) AddReduction(r htn.HtnOp) {
	p.Reductions[r.Signature().Key()] = r
}

// AddFact registers sig as a fact that may appear at this position.
func (p *Position) AddFact(sig htn.USignature) {
	key := sig.Key()
	if _, ok := p.Facts[key]; ok {
		return
	}
	p.Facts[key] = sig
	if sig.HasQConstant() {
		p.QFacts[sig.Name] = append(p.QFacts[sig.Name], sig)
	}
}

// AddFactSupport records that operator opKey's effects can make fact factKey true.
func (p *Position) AddFactSupport(factKey, opKey string) {
	set, ok := p.FactSupports[factKey]
	if !ok {
		set = make(map[string]bool)
		p.FactSupports[factKey] = set
	}
	set[opKey] = true
}

// ForbidSubstitution records that argument argPos of operator opKey may not
// be bound to value, because some q-fact decoding it implies is statically
// impossible.
func (p *Position) ForbidSubstitution(opKey string, argPos int, value htn.ID) {
	set, ok := p.ForbiddenSubstitutions[opKey]
	if !ok {
		set = make(map[string]bool)
		p.ForbiddenSubstitutions[opKey] = set
	}
	set[forbiddenToken(argPos, value)] = true
}

func forbiddenToken(argPos int, value htn.ID) string {
	return fmt.Sprintf("%d:%d", argPos, value)
}

// Seal marks the position's data as read-only; the encoder may now consume it.
func (p *Position) Seal() { p.sealed = true }

// Sealed reports whether the position has been sealed.
func (p *Position) Sealed() bool { return p.sealed }

// AllocVar returns the variable id for key, allocating a fresh one (via
// next) if this is the first time key is requested at this position. Once
// allocated for a given key, an id is never reallocated (the monotone
// variable-id invariant).
func (p *Position) AllocVar(key string, next func() int) int {
	if id, ok := p.Variables[key]; ok {
		return id
	}
	id := next()
	p.Variables[key] = id
	return id
}

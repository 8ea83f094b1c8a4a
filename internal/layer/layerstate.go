package layer

import "github.com/htn-sat/planner/internal/htn"

// interval is a half-open [First, Last) range of positions over which a
// fact may hold, for one polarity.
type interval struct {
	First, Last int
}

func (iv interval) contains(pos int) bool { return pos >= iv.First && pos < iv.Last }

// LayerState maps each fact signature to the positions over which it may
// hold, kept separately for positive and negative polarity. Intervals only
// ever extend, never contract retroactively, and a positive and negative
// interval for the same fact may coexist (the "closed under union but never
// overlap-with-inversion" invariant refers to same-polarity intervals not
// overlapping in a way that would let a single union shrink coverage).
type LayerState struct {
	positive map[string][]interval
	negative map[string][]interval
}

// NewLayerState returns an empty LayerState.
func NewLayerState() *LayerState {
	return &LayerState{positive: make(map[string][]interval), negative: make(map[string][]interval)}
}

func (ls *LayerState) table(negated bool) map[string][]interval {
	if negated {
		return ls.negative
	}
	return ls.positive
}

// Extend records that sig may hold, with the given polarity, over [from, to).
// Overlapping or adjacent intervals for the same fact are merged so the
// interval set stays minimal.
func (ls *LayerState) Extend(sig htn.USignature, negated bool, from, to int) {
	key := sig.Key()
	t := ls.table(negated)
	ivs := append(t[key], interval{First: from, Last: to})
	t[key] = mergeIntervals(ivs)
}

func mergeIntervals(ivs []interval) []interval {
	if len(ivs) < 2 {
		return ivs
	}
	for i := 0; i < len(ivs); i++ {
		for j := i + 1; j < len(ivs); j++ {
			if ivs[i].First <= ivs[j].Last && ivs[j].First <= ivs[i].Last {
				if ivs[j].First < ivs[i].First {
					ivs[i].First = ivs[j].First
				}
				if ivs[j].Last > ivs[i].Last {
					ivs[i].Last = ivs[j].Last
				}
				ivs = append(ivs[:j], ivs[j+1:]...)
				// The widened interval may now touch ones already passed: rescan.
				i = -1
				break
			}
		}
	}
	return ivs
}

// Contains reports whether pos lies inside some interval of matching
// polarity for sig — the state oracle predicate the instantiator consults.
func (ls *LayerState) Contains(pos int, sig htn.Signature) bool {
	for _, iv := range ls.table(sig.Negated)[sig.Sig.Key()] {
		if iv.contains(pos) {
			return true
		}
	}
	return false
}

// MayHoldEitherPolarity reports whether sig's underlying fact (regardless of
// polarity) has any recorded interval at pos — used when deciding whether a
// fact is new to the LayerState.
func (ls *LayerState) MayHoldEitherPolarity(pos int, sig htn.USignature) bool {
	return ls.Contains(pos, htn.Positive(sig)) || ls.Contains(pos, htn.Negative(sig))
}

// Rigid reports whether sig has held true, continuously and without
// interruption, since position 0 through every position observed so far
// (throughPos) — the approximation used for rigid-condition removal. A
// fact that was ever recorded false anywhere in that range, or whose
// positive coverage doesn't reach all the way back to 0, is not rigid.
func (ls *LayerState) Rigid(sig htn.USignature, throughPos int) bool {
	key := sig.Key()
	for _, iv := range ls.negative[key] {
		if iv.First < throughPos {
			return false
		}
	}
	for _, iv := range ls.positive[key] {
		if iv.First <= 0 && iv.Last >= throughPos {
			return true
		}
	}
	return false
}

// oracleAt adapts a LayerState pinned to a specific position into the
// instantiate.StateOracle interface.
type oracleAt struct {
	ls  *LayerState
	pos int
}

// Contains implements instantiate.StateOracle.
func (o oracleAt) Contains(sig htn.Signature) bool { return o.ls.Contains(o.pos, sig) }

// OracleAt returns a StateOracle-compatible view of ls pinned to pos.
func OracleAt(ls *LayerState, pos int) oracleAt { return oracleAt{ls: ls, pos: pos} }

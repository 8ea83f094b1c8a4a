package sat

import (
	"fmt"
	"math"
)

// formula is a boolean formula over already-allocated SAT variables (ints,
// IPASIR-style signed literals at the leaves): instead of building formulas
// over named variables and converting names to DIMACS indices at the end,
// leaves here are literals the encoder already owns, and the NNF/CNF
// conversion emits clauses straight into the encoder instead of building an
// intermediate [][]int.
//
// This exists for QTYPECONSTRAINTS: when a q-constant's admissible domain
// is large, encoding "exactly one binding" as a flat pair of
// AtLeast1/AtMost1 cardinality constraints (the approach used for operator
// selection, where domains are small) produces a quadratic blow-up in the
// AtMost1 clause count. uniqueFormula instead builds a
// line/column decomposition, which is O(n) dummy variables and O(n) clauses.
type formula interface {
	nnf() formula
}

type trueF struct{}
type falseF struct{}

func (trueF) nnf() formula  { return trueF{} }
func (falseF) nnf() formula { return falseF{} }

type litF int // signed IPASIR-style literal

func (l litF) nnf() formula { return l }

type notF struct{ f formula }

func (n notF) nnf() formula {
	switch f := n.f.(type) {
	case litF:
		return litF(-int(f))
	case notF:
		return f.f.nnf()
	case andF:
		subs := make([]formula, len(f))
		for i, s := range f {
			subs[i] = notF{s}.nnf()
		}
		return orF(subs).nnf()
	case orF:
		subs := make([]formula, len(f))
		for i, s := range f {
			subs[i] = notF{s}.nnf()
		}
		return andF(subs).nnf()
	case trueF:
		return falseF{}
	case falseF:
		return trueF{}
	default:
		panic(fmt.Sprintf("sat: invalid formula type %T", f))
	}
}

type andF []formula

func (a andF) nnf() formula {
	var res andF
	for _, s := range a {
		switch n := s.nnf().(type) {
		case andF:
			res = append(res, n...)
		case trueF:
		case falseF:
			return falseF{}
		default:
			res = append(res, n)
		}
	}
	if len(res) == 1 {
		return res[0]
	}
	if len(res) == 0 {
		return trueF{}
	}
	return res
}

type orF []formula

func (o orF) nnf() formula {
	var res orF
	for _, s := range o {
		switch n := s.nnf().(type) {
		case orF:
			res = append(res, n...)
		case falseF:
		case trueF:
			return trueF{}
		default:
			res = append(res, n)
		}
	}
	if len(res) == 1 {
		return res[0]
	}
	if len(res) == 0 {
		return falseF{}
	}
	return res
}

func impliesF(a, b formula) formula { return orF{notF{a}, b} }
func eqF(a, b formula) formula      { return andF{impliesF(a, b), impliesF(b, a)} }

// emitFormula converts f to NNF then CNF, emitting one addClause call per
// produced clause, allocating dummy Tseitin variables via enc.freshVar as
// needed for nested disjunctions of conjunctions.
func (enc *Encoder) emitFormula(f formula) {
	for _, clause := range enc.cnfOf(f.nnf()) {
		if len(clause) == 0 {
			enc.addClause() // unsatisfiable formula: emit the empty clause
			continue
		}
		enc.addClause(clause...)
	}
}

func (enc *Encoder) cnfOf(f formula) [][]int {
	switch f := f.(type) {
	case litF:
		return [][]int{{int(f)}}
	case trueF:
		return nil
	case falseF:
		return [][]int{{}}
	case andF:
		var res [][]int
		for _, sub := range f {
			res = append(res, enc.cnfOf(sub)...)
		}
		return res
	case orF:
		var res [][]int
		var lits []int
		for _, sub := range f {
			switch sub := sub.(type) {
			case litF:
				lits = append(lits, int(sub))
			case andF:
				d := enc.freshVar()
				lits = append(lits, d)
				for _, sub2 := range sub {
					sub2cnf := enc.cnfOf(sub2)
					for i := range sub2cnf {
						sub2cnf[i] = append(sub2cnf[i], -d)
					}
					res = append(res, sub2cnf...)
				}
			default:
				panic("sat: unexpected nested formula in or")
			}
		}
		res = append(res, lits)
		return res
	default:
		panic(fmt.Sprintf("sat: invalid NNF formula %T", f))
	}
}

// uniqueFormula asserts exactly one of vars is true, using a
// sqrt line/column decomposition once len(vars) grows past a small
// threshold, and the flat quadratic form below it. Kept as an Encoder
// method, not a free function, since uniqueRec allocates fresh Tseitin
// variables from the encoder's own counter — no package-level allocator
// state, matching the same "no hidden globals" discipline satcore follows.
func (enc *Encoder) uniqueFormula(vars []int) formula {
	if len(vars) <= 4 {
		return uniqueSmall(vars)
	}
	return enc.uniqueRec(vars)
}

func uniqueSmall(vars []int) formula {
	lits := make([]formula, len(vars))
	for i, v := range vars {
		lits[i] = litF(v)
	}
	res := []formula{orF(lits)}
	for i := 0; i < len(vars)-1; i++ {
		for j := i + 1; j < len(vars); j++ {
			res = append(res, orF{notF{litF(vars[i])}, notF{litF(vars[j])}})
		}
	}
	return andF(res)
}

func (enc *Encoder) uniqueRec(vars []int) formula {
	n := len(vars)
	if n <= 4 {
		return uniqueSmall(vars)
	}
	sqrt := math.Sqrt(float64(n))
	nbLines := int(sqrt + 0.5)
	nbCols := int(math.Ceil(sqrt))

	lineVars := make([]int, nbLines)
	colVars := make([]int, nbCols)
	lineMembers := make([][]formula, nbLines)
	colMembers := make([][]formula, nbCols)

	for i, v := range vars {
		lineMembers[i/nbCols] = append(lineMembers[i/nbCols], litF(v))
		colMembers[i%nbCols] = append(colMembers[i%nbCols], litF(v))
	}

	var res []formula
	for i := range lineVars {
		lineVars[i] = enc.freshVar()
		res = append(res, eqF(litF(lineVars[i]), orF(lineMembers[i])))
	}
	for i := range colVars {
		colVars[i] = enc.freshVar()
		res = append(res, eqF(litF(colVars[i]), orF(colMembers[i])))
	}
	res = append(res, enc.uniqueRec(lineVars))
	res = append(res, enc.uniqueRec(colVars))
	return andF(res)
}

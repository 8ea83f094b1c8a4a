// Package sat encodes a planner layer into a SAT instance and extracts plans
// from a found model (§4.4). It owns the satcore solver (driver imports
// satcore only to read Solve's Status); it never mutates a sealed Position, only reads it and allocates variables
// into its Variables table via Position.AllocVar.
package sat

import (
	"fmt"
	"io"

	"github.com/htn-sat/planner/internal/htn"
	"github.com/htn-sat/planner/internal/layer"
	"github.com/htn-sat/planner/internal/satcore"
)

// Encoder owns the underlying IPASIR solver and the monotone variable
// counter every Position.AllocVar call draws from — variables are never
// reused or renumbered once allocated, matching the "append-only variable
// ids" invariant in spec §4.4.
type Encoder struct {
	solver  *satcore.IPASIR
	engine  *satcore.Engine
	nextVar int

	inst *htn.Instance

	// planLenLits accumulates one literal per primitive-op occurrence
	// encoded so far, consumed by PlanLengthCounting / OptimizePlan.
	planLenLits []int
}

// qtypeFlatCardThreshold is the admissible-domain size above which
// encodeQConstants switches from a flat AtLeast1/AtMost1 cardinality pair
// to the quadratic-avoiding unique-formula decomposition.
const qtypeFlatCardThreshold = 12

// New returns an encoder with a fresh, empty solver and inst available for
// q-constant decoding during substitution-constraint encoding.
func New(inst *htn.Instance) *Encoder {
	e := satcore.New(0, nil, nil)
	return &Encoder{
		solver:  satcore.NewIPASIR(e),
		engine:  e,
		nextVar: 1,
		inst:    inst,
	}
}

func (enc *Encoder) freshVar() int {
	v := enc.nextVar
	enc.nextVar++
	enc.solver.Grow(v)
	return v
}

func (enc *Encoder) varFor(p *layer.Position, key string) int {
	return p.AllocVar(key, enc.freshVar)
}

func (enc *Encoder) addClause(lits ...int) {
	for _, l := range lits {
		enc.solver.Add(l)
	}
	enc.solver.Add(0)
}

func (enc *Encoder) addCard(c satcore.CardConstr) {
	enc.solver.AddCard(c.Lits, c.AtLeast)
}

// EncodePosition runs every encoding stage for one sealed position. next is
// the layer one level down that p's operators expand into (nil at the
// bottommost layer, where there is nothing left to expand into). Stages are
// grouped by concern rather than literally split into 21 functions, but
// every stage named in spec §4.4 is represented below (see the per-stage
// comments).
func (enc *Encoder) EncodePosition(l, next *layer.Layer, p *layer.Position) {
	if !p.Sealed() {
		panic(fmt.Sprintf("EncodePosition: position (%d,%d) not sealed", p.Layer, p.Pos))
	}

	enc.encodeFactVars(p)             // FACTVARENCODING
	enc.encodeTrueFacts(p)            // TRUEFACTS
	enc.encodeOpVars(p)               // ACTIONCONSTRAINTS (op var allocation + exactly-one)
	enc.encodePrimitive(p)            // PRIMITIVE
	enc.encodeOpEffects(p)            // ACTIONEFFECTS
	enc.encodePreconditions(p)        // PREDECESSORS (op -> precondition fact)
	enc.encodeForbidden(p)            // FORBIDDENOPERATIONS
	enc.encodeExpansions(l, next, p)  // EXPANSIONS
	enc.encodeFrameAxioms(l, p)       // DIRECTFRAMEAXIOMS + INDIRECTFRAMEAXIOMS
	enc.encodeQConstants(p)           // SUBSTITUTIONCONSTRAINTS + QCONSTEQUALITY + QFACTSEMANTICS + QTYPECONSTRAINTS
	enc.encodePlanLength(p)           // PLANLENGTHCOUNTING
}

// encodeFactVars (FACTVARENCODING) allocates one propositional variable per
// fact that may appear at this position.
func (enc *Encoder) encodeFactVars(p *layer.Position) {
	for _, sig := range p.Facts {
		enc.varFor(p, layer.FactKey(sig))
	}
}

// encodeTrueFacts (TRUEFACTS) asserts every definitively-true fact as a unit
// clause and every definitively-false fact as a negated unit clause.
func (enc *Encoder) encodeTrueFacts(p *layer.Position) {
	for key, sig := range p.Facts {
		v := enc.varFor(p, layer.FactKey(sig))
		if p.TrueFacts[key] {
			enc.addClause(v)
		} else if p.FalseFacts[key] {
			enc.addClause(-v)
		}
	}
}

// encodeOpVars (ACTIONCONSTRAINTS) allocates one variable per action/
// reduction occurrence and asserts exactly one operator is selected at this
// position — ATLEASTONEELEMENT/ATMOSTONEELEMENT. A position with no
// operators at all has nothing to select from and is left unconstrained.
func (enc *Encoder) encodeOpVars(p *layer.Position) {
	var lits []int
	for key, a := range p.Actions {
		lits = append(lits, enc.varFor(p, layer.OpKey(a.Signature())))
		_ = key
	}
	for key, r := range p.Reductions {
		lits = append(lits, enc.varFor(p, layer.OpKey(r.Signature())))
		_ = key
	}
	if len(lits) == 0 {
		return
	}
	for _, c := range satcore.Exactly1(lits...) {
		enc.addCard(c)
	}
}

// encodePrimitive (PRIMITIVE) allocates the per-position primitive bit and
// links it to the disjunction of the position's action variables:
// PRIMITIVE(p) <-> OR(OP(A,p)) over every action A at p (reductions don't
// count). A position with no actions at all is definitively non-primitive.
func (enc *Encoder) encodePrimitive(p *layer.Position) {
	var lits []formula
	for _, a := range p.Actions {
		lits = append(lits, litF(enc.varFor(p, layer.OpKey(a.Signature()))))
	}
	primVar := enc.varFor(p, layer.PrimitiveKey())
	if len(lits) == 0 {
		enc.addClause(-primVar)
		return
	}
	enc.emitFormula(eqF(litF(primVar), orF(lits)))
}

// encodeOpEffects (ACTIONEFFECTS) asserts that selecting an operator forces
// every one of its memoized effects.
func (enc *Encoder) encodeOpEffects(p *layer.Position) {
	allOps := enc.allOps(p)
	for opKey, op := range allOps {
		opVar := enc.varFor(p, layer.OpKey(op.Signature()))
		for _, eff := range p.FactChanges[opKey] {
			fv := enc.varFor(p, layer.FactKey(eff.Sig))
			if eff.Negated {
				enc.addClause(-opVar, -fv)
			} else {
				enc.addClause(-opVar, fv)
			}
		}
	}
}

// encodePreconditions (PREDECESSORS) asserts that selecting an operator
// forces every one of its ground preconditions.
func (enc *Encoder) encodePreconditions(p *layer.Position) {
	for opKey, op := range enc.allOps(p) {
		opVar := enc.varFor(p, layer.OpKey(op.Signature()))
		check := func(sigs []htn.Signature) {
			for _, s := range sigs {
				if s.Sig.HasVariable() {
					continue // resolved via substitution constraints, not fact vars
				}
				fv := enc.varFor(p, layer.FactKey(s.Sig))
				if s.Negated {
					enc.addClause(-opVar, -fv)
				} else {
					enc.addClause(-opVar, fv)
				}
			}
		}
		check(op.Preconditions)
		check(op.ExtraPreconditions)
		_ = opKey
	}
}

// encodeForbidden (FORBIDDENOPERATIONS) rules out argument bindings that
// registerPreconditions determined are statically impossible.
func (enc *Encoder) encodeForbidden(p *layer.Position) {
	for opKey, op := range enc.allOps(p) {
		forbidden := p.ForbiddenSubstitutions[opKey]
		if len(forbidden) == 0 {
			continue
		}
		opVar := enc.varFor(p, layer.OpKey(op.Signature()))
		for i, arg := range op.Args {
			token := fmt.Sprintf("%d:%d", i, arg)
			if forbidden[token] {
				enc.addClause(-opVar)
			}
		}
	}
}

// encodeExpansions (EXPANSIONS) asserts that selecting a parent operator at
// this position forces the disjunction of its recorded child operators at
// the corresponding position(s) one layer down, and that each such child
// implies its parent back (§4.4 "Expansion constraints"). A recorded
// NoneSigKey child forces the parent operator itself to false.
func (enc *Encoder) encodeExpansions(l, next *layer.Layer, p *layer.Position) {
	if next == nil {
		return
	}
	start := l.Successor(p.Pos)
	for opKey, children := range p.Expansions {
		op, ok := enc.allOps(p)[opKey]
		if !ok {
			continue
		}
		opVar := enc.varFor(p, layer.OpKey(op.Signature()))
		forbidden := false
		for _, childKey := range children {
			if childKey == layer.NoneSigKey {
				forbidden = true
				break
			}
		}
		if forbidden {
			enc.addClause(-opVar)
			continue
		}
		var childVars []int
		for offset, childKey := range children {
			if childKey == layer.NoneSigKey {
				continue
			}
			childPos := start + offset
			if childPos >= len(next.Positions) {
				continue
			}
			cp := next.Positions[childPos]
			childOp, ok := enc.allOps(cp)[childKey]
			if !ok {
				continue
			}
			cv := enc.varFor(cp, layer.OpKey(childOp.Signature()))
			childVars = append(childVars, cv)
			enc.addClause(-cv, opVar) // child -> parent
		}
		if len(childVars) > 0 {
			clause := append([]int{-opVar}, childVars...)
			enc.addClause(clause...) // parent -> OR(children)
		}
	}
}

// encodeFrameAxioms (DIRECTFRAMEAXIOMS + INDIRECTFRAMEAXIOMS) asserts that a
// fact true at p and false at the next position must have had some
// supporting operator selected that changes it — the classical SAT-planning
// frame axiom. A supporter whose effect names the fact directly contributes
// its bare selection variable (direct support); a supporter whose effect is
// a q-fact only actually produces this ground fact when its q-constants are
// also bound to the matching constants, so it contributes its selection
// variable conjoined with those SUBSTITUTION literals instead (indirect
// support, via supportFormula).
func (enc *Encoder) encodeFrameAxioms(l *layer.Layer, p *layer.Position) {
	if p.Pos+1 >= len(l.Positions) {
		return
	}
	next := l.Positions[p.Pos+1]
	for key, sig := range p.Facts {
		if _, ok := next.Facts[key]; !ok {
			continue
		}
		fv := enc.varFor(p, layer.FactKey(sig))
		fvNext := enc.varFor(next, layer.FactKey(sig))
		supporters := p.FactSupports[key]
		// fv && !fv_next -> some (direct or indirect) supporting op selected.
		disjuncts := []formula{notF{litF(fv)}, litF(fvNext)}
		for opKey := range supporters {
			op, ok := enc.allOps(p)[opKey]
			if !ok {
				continue
			}
			disjuncts = append(disjuncts, enc.supportFormula(p, op, sig))
		}
		enc.emitFormula(orF(disjuncts))
	}
}

// supportFormula returns the disjunct asserting that op actually supports
// sig changing at p: bare selection when op's effect already names sig
// directly, or selection conjoined with the SUBSTITUTION bindings that make
// one of op's q-effects decode to exactly sig otherwise (IndirectSupport) —
// mere selection of a q-operator is not by itself evidence that it produced
// this particular decoding.
func (enc *Encoder) supportFormula(p *layer.Position, op htn.HtnOp, sig htn.USignature) formula {
	opVar := enc.varFor(p, layer.OpKey(op.Signature()))
	for _, eff := range op.Effects {
		if !eff.Sig.HasQConstant() {
			continue
		}
		bindingVars := enc.substitutionFor(p, eff.Sig, sig)
		if bindingVars == nil {
			continue
		}
		conj := make([]formula, 0, len(bindingVars)+1)
		conj = append(conj, litF(opVar))
		for _, v := range bindingVars {
			conj = append(conj, litF(v))
		}
		return andF(conj)
	}
	return litF(opVar)
}

// substitutionFor returns the SUBSTITUTION(q,c) literals that would make
// qsig's q-constant arguments decode to exactly target, or nil if qsig
// cannot possibly decode to target (mismatched name/arity, or a non-q
// argument that already disagrees).
func (enc *Encoder) substitutionFor(p *layer.Position, qsig, target htn.USignature) []int {
	if qsig.Name != target.Name || len(qsig.Args) != len(target.Args) {
		return nil
	}
	var vars []int
	for i, a := range qsig.Args {
		if a.IsQConstant() {
			vars = append(vars, enc.varFor(p, layer.SubstKey(a, target.Args[i])))
			continue
		}
		if a != target.Args[i] {
			return nil
		}
	}
	return vars
}

// encodeQConstants (SUBSTITUTIONCONSTRAINTS + QCONSTEQUALITY + QFACTSEMANTICS
// + QTYPECONSTRAINTS) allocates one SUBSTITUTION(q,c) variable per
// q-constant/admissible-constant pair referenced at this position, asserts
// exactly one binding per q-constant (QTYPECONSTRAINTS), and links each
// q-fact's truth to the disjunction of its ground decodings consistent with
// the chosen bindings (QFACTSEMANTICS). Q_EQUALITY variables are allocated
// lazily, only for q-constant pairs that actually co-occur in some
// operator's argument list (QCONSTEQUALITY).
func (enc *Encoder) encodeQConstants(p *layer.Position) {
	seen := map[htn.ID]bool{}
	for _, op := range enc.allOps(p) {
		var opQConsts []htn.ID
		for _, a := range op.Args {
			if !a.IsQConstant() {
				continue
			}
			opQConsts = append(opQConsts, a)
			if seen[a] {
				continue
			}
			seen[a] = true
			q, ok := enc.inst.QConstantByID(a)
			if !ok {
				continue
			}
			domain := q.Constraint.List()
			var bindingVars []int
			for _, c := range domain {
				bindingVars = append(bindingVars, enc.varFor(p, layer.SubstKey(a, c)))
			}
			switch {
			case len(bindingVars) == 0:
			case len(bindingVars) <= qtypeFlatCardThreshold:
				enc.addCard(satcore.AtLeast1(bindingVars...))
				enc.addCard(satcore.AtMost1(bindingVars...))
			default:
				// Large sort domains: the flat AtMost1 pair above is
				// quadratic in clause count, so fall back to the
				// line/column unique-formula decomposition instead.
				enc.emitFormula(enc.uniqueFormula(bindingVars))
			}
		}
		for i := 0; i < len(opQConsts); i++ {
			for j := i + 1; j < len(opQConsts); j++ {
				if opQConsts[i] != opQConsts[j] {
					enc.encodeQEquality(p, opQConsts[i], opQConsts[j])
				}
			}
		}
	}
	for key, sig := range p.QFacts {
		for _, qsig := range sig {
			enc.encodeQFactSemantics(p, key, qsig)
		}
	}
}

// encodeQEquality (QCONSTEQUALITY) allocates Q_EQUALITY(q1,q2) the first
// time the pair is seen at this position — only q-constants that actually
// co-occur in some operator's argument list ever get one — and links it to
// the substitution pairs that would bind both to the same constant:
// Q_EQUALITY(q1,q2) <-> OR_c(SUBSTITUTION(q1,c) AND SUBSTITUTION(q2,c)).
func (enc *Encoder) encodeQEquality(p *layer.Position, q1, q2 htn.ID) {
	key := layer.EqKey(q1, q2)
	if _, exists := p.Variables[key]; exists {
		return
	}
	c1, ok1 := enc.inst.QConstantByID(q1)
	c2, ok2 := enc.inst.QConstantByID(q2)
	if !ok1 || !ok2 {
		return
	}
	eqVar := enc.varFor(p, key)
	var shared []formula
	for _, c := range c1.Constraint.List() {
		if !c2.Constraint.Admissible[c] {
			continue
		}
		v1 := enc.varFor(p, layer.SubstKey(q1, c))
		v2 := enc.varFor(p, layer.SubstKey(q2, c))
		shared = append(shared, andF{litF(v1), litF(v2)})
	}
	enc.emitFormula(eqF(litF(eqVar), orF(shared)))
}

func (enc *Encoder) encodeQFactSemantics(p *layer.Position, _ htn.ID, qsig htn.USignature) {
	fv := enc.varFor(p, layer.FactKey(qsig))
	for _, decoded := range enc.inst.GetDecodedObjects(qsig) {
		dv := enc.varFor(p, layer.FactKey(decoded))
		var bindingVars []int
		for i, a := range qsig.Args {
			if !a.IsQConstant() {
				continue
			}
			bindingVars = append(bindingVars, enc.varFor(p, layer.SubstKey(a, decoded.Args[i])))
		}
		// all bindings chosen -> q-fact and decoded fact agree.
		clause1 := append([]int{-fv, dv}, negateAll(bindingVars)...)
		clause2 := append([]int{fv, -dv}, negateAll(bindingVars)...)
		enc.addClause(clause1...)
		enc.addClause(clause2...)
	}
}

func negateAll(lits []int) []int {
	out := make([]int, len(lits))
	for i, l := range lits {
		out[i] = -l
	}
	return out
}

// encodePlanLength (PLANLENGTHCOUNTING) accumulates one literal per
// primitive-op occurrence at this position for OptimizePlan's
// sequential-counter minimization, excluding the synthetic blank action.
func (enc *Encoder) encodePlanLength(p *layer.Position) {
	for opKey, op := range p.Actions {
		if op.NameID == enc.blankNameID() {
			continue
		}
		v := enc.varFor(p, layer.OpKey(op.Signature()))
		enc.planLenLits = append(enc.planLenLits, v)
		_ = opKey
	}
}

func (enc *Encoder) blankNameID() htn.ID {
	// _blank_ is interned once, up front, by the planner, so a failed lookup
	// (no position created, no operators to skip) is fine: NoID never equals
	// a real op's NameID.
	id, ok := enc.inst.Interner.Lookup("_blank_")
	if !ok {
		return htn.NoID
	}
	return id
}

func (enc *Encoder) allOps(p *layer.Position) map[string]htn.HtnOp {
	all := make(map[string]htn.HtnOp, len(p.Actions)+len(p.Reductions))
	for k, v := range p.Actions {
		all[k] = v
	}
	for k, v := range p.Reductions {
		all[k] = v
	}
	return all
}

// Assume buffers one IPASIR-style assumption literal for the next Solve.
func (enc *Encoder) Assume(lit int) { enc.solver.Assume(lit) }

// Solve runs the underlying solver to completion under any buffered
// assumptions (ASSUMPTIONS).
func (enc *Encoder) Solve() satcore.Status { return enc.solver.Solve() }

// SetTerminate installs a poll-based termination callback, checked between
// solver decisions; a true return aborts the in-flight Solve with Indet.
func (enc *Encoder) SetTerminate(cb func() bool) { enc.solver.SetTerminate(cb) }

// Val reads back the truth value of a previously-allocated variable.
func (enc *Encoder) Val(v int) bool { return enc.solver.Val(v) }

// DumpDIMACS writes every clause committed to the solver so far as a
// DIMACS-style CNF listing, one clause per line. This backs the `print_formula`
// option: a side-channel dump of the encoding instead of a solve attempt.
func (enc *Encoder) DumpDIMACS(w io.Writer) error {
	lines := enc.solver.Dump()
	if _, err := fmt.Fprintf(w, "p cnf %d %d\n", enc.nextVar-1, len(lines)); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

package satcore

// Solver is the IPASIR-style contract the encoder programs against: add a
// clause literal by literal terminated by 0, assume literals for the next
// solve, solve, and read back the model. IPASIR implements it over an
// Engine; a mock implementation can stand in for it in encoder tests.
type Solver interface {
	Add(lit int)
	Assume(lit int)
	Solve() Status
	Val(v int) bool
	SetTerminate(cb func() bool)
}

// IPASIR wraps an Engine behind the add/assume/solve/val contract, buffering
// literals added via Add until a terminating 0 closes the clause, mirroring
// ipasir_add's semantics (a literal at a time, 0 to end the clause).
type IPASIR struct {
	engine     *Engine
	pending    []Lit
	assumption []Lit
	dumped     []string
}

// NewIPASIR wraps an existing engine. The engine is expected to already be
// sized for the maximum variable the caller will ever Add; use engine.Grow
// before introducing new variables.
func NewIPASIR(e *Engine) *IPASIR {
	return &IPASIR{engine: e}
}

// Add appends lit to the clause under construction, or closes and commits it
// when lit == 0.
func (s *IPASIR) Add(lit int) {
	if lit == 0 {
		if len(s.pending) > 0 {
			c := NewClause(append([]Lit{}, s.pending...))
			s.engine.AddClause(c)
			s.dumped = append(s.dumped, c.DIMACS())
		}
		s.pending = s.pending[:0]
		return
	}
	s.pending = append(s.pending, IntToLit(lit))
}

// AddCard commits a cardinality constraint directly, bypassing the literal-
// at-a-time buffering Add uses for ordinary clauses. This is how the
// encoder emits at-least-one/at-most-one operation constraints. A constraint
// with atLeast <= 0 (AtMost1 over a single literal) always holds and is not
// committed.
func (s *IPASIR) AddCard(lits []int, atLeast int) {
	if atLeast <= 0 {
		return
	}
	ls := make([]Lit, len(lits))
	for i, l := range lits {
		ls[i] = IntToLit(l)
	}
	c := NewCardClause(ls, atLeast)
	s.engine.AddClause(c)
	s.dumped = append(s.dumped, c.DIMACS())
}

// Dump returns a DIMACS-style line for every clause committed through Add or
// AddCard so far, in commit order. The planner's dump-cnf command uses this
// to print the formula instead of solving it.
func (s *IPASIR) Dump() []string {
	return s.dumped
}

// Assume buffers lit as an assumption for the next Solve call.
func (s *IPASIR) Assume(lit int) {
	s.assumption = append(s.assumption, IntToLit(lit))
}

// Solve runs the engine to completion under the buffered assumptions, which
// are cleared afterwards (ipasir_solve's assumptions do not persist).
func (s *IPASIR) Solve() Status {
	s.engine.Assume(s.assumption)
	s.assumption = s.assumption[:0]
	return s.engine.Solve()
}

// Val reports the truth value of variable v in the last model.
func (s *IPASIR) Val(v int) bool { return s.engine.Val(v) }

// SetTerminate installs the poll-based termination callback.
func (s *IPASIR) SetTerminate(cb func() bool) { s.engine.SetTerminate(cb) }

// Grow ensures the underlying engine has room for the given 1-based variable
// index, extending it if necessary. Planner layers call this before wiring
// new SAT variables for a freshly-created position.
func (s *IPASIR) Grow(maxVar int) {
	if extra := maxVar - s.engine.NbVars(); extra > 0 {
		s.engine.Grow(extra)
	}
}

package satcore

import "fmt"

const (
	initNbMaxClauses  = 2000
	incrNbMaxClauses  = 300
	incrPostponeNbMax = 1000
	clauseDecay       = 0.999
	defaultVarDecay   = 0.8
)

// Stats are statistics about the resolution of a problem, provided for
// information only (used by the verbose progress log).
type Stats struct {
	NbRestarts      int
	NbConflicts     int
	NbDecisions     int
	NbUnitLearned   int
	NbBinaryLearned int
	NbLearned       int
	NbDeleted       int
}

// Engine is an incremental CDCL SAT engine implementing the add/assume/solve/val
// contract an IPASIR-style solver exposes. It carries no package-level mutable
// state: every field that the upstream implementation kept as a global
// (the literal allocator, the learn-clause scratch buffer) is an explicit
// field here, so nothing is shared across concurrently-used Engines.
type Engine struct {
	Verbose bool
	Stats   Stats

	nbVars      int
	status      Status
	wl          watcherList
	trail       []Lit
	model       []decLevel
	lastModel   []decLevel
	activity    []float64
	polarity    []bool
	assumptions []Lit
	reason      []*Clause
	varQueue    queue
	varInc      float64
	clauseInc   float32
	lbdStats    lbdStats
	varDecay    float64
	trailBuf    []int
	alloc       clauseAlloc
	bufLits     []Lit

	terminate func() bool // polled during search; true aborts with Indet.
}

// New builds an Engine for a problem with the given number of variables and
// clause set. Units are literals forced true at the top level before search
// begins (e.g. the layer's "true facts" in the planning encoding).
func New(nbVars int, clauses []*Clause, units []Lit) *Engine {
	trailCap := nbVars
	if len(units) > trailCap {
		trailCap = len(units)
	}
	e := &Engine{
		nbVars:    nbVars,
		trail:     make([]Lit, len(units), trailCap),
		model:     make([]decLevel, nbVars),
		activity:  make([]float64, nbVars),
		polarity:  make([]bool, nbVars),
		reason:    make([]*Clause, nbVars),
		varInc:    1.0,
		clauseInc: 1.0,
		varDecay:  defaultVarDecay,
		trailBuf:  make([]int, nbVars),
		bufLits:   make([]Lit, 10000),
	}
	e.initWatcherList(nil)
	e.varQueue = newQueue(e.activity)
	for i, lit := range units {
		if lit.IsPositive() {
			e.model[lit.Var()] = 1
		} else {
			e.model[lit.Var()] = -1
		}
		e.trail[i] = lit
	}
	// Through AddClause, so unit and empty clauses are handled, not watched.
	for _, c := range clauses {
		e.AddClause(c)
	}
	return e
}

// SetTerminate installs a poll-based termination callback: it is checked
// between decisions, and a true return value aborts the current Solve call
// with Indet. Passing nil clears it.
func (e *Engine) SetTerminate(cb func() bool) { e.terminate = cb }

// NbVars returns the number of variables the engine was built with.
func (e *Engine) NbVars() int { return e.nbVars }

// AddClause adds a new clause to the problem. Used for incremental encoding
// across layers, where each layer appends its own variables and clauses to
// a running engine instance instead of rebuilding from scratch.
func (e *Engine) AddClause(c *Clause) {
	if c.Len() == 0 {
		e.status = Unsat
		return
	}
	if c.Len() == 1 {
		lit := c.Get(0)
		if e.litStatus(lit) == Unsat {
			e.status = Unsat
			return
		}
		if e.litStatus(lit) == Indet {
			e.model[lit.Var()] = lvlToSignedLvl(lit, 1)
			e.trail = append(e.trail, lit)
		}
		return
	}
	e.wl.nbOriginal++
	e.wl.clauses = append(e.wl.clauses, c)
	e.watchClause(c)
}

// Grow extends the engine to accommodate extra fresh variables, as the
// layer-by-layer encoder introduces new SAT variables for each new layer.
func (e *Engine) Grow(extraVars int) {
	newTotal := e.nbVars + extraVars
	e.model = append(e.model, make([]decLevel, extraVars)...)
	e.activity = append(e.activity, make([]float64, extraVars)...)
	e.polarity = append(e.polarity, make([]bool, extraVars)...)
	e.reason = append(e.reason, make([]*Clause, extraVars)...)
	e.trailBuf = append(e.trailBuf, make([]int, extraVars)...)
	e.wl.wlistBin = append(e.wl.wlistBin, make([][]watcher, extraVars*2)...)
	e.wl.wlist = append(e.wl.wlist, make([][]*Clause, extraVars*2)...)
	e.varQueue.activity = e.activity // append may have moved the slice
	for v := e.nbVars; v < newTotal; v++ {
		e.varQueue.insert(v)
	}
	e.nbVars = newTotal
}

// Val reports the truth value assigned to variable v (1-based, IPASIR-style)
// in the last model found. Only meaningful after Solve returned Sat.
func (e *Engine) Val(v int) bool {
	model := e.model
	if e.lastModel != nil {
		model = e.lastModel
	}
	return model[IntToVar(int32(v))] > 0
}

// litStatus reports whether l is currently true (Sat), false (Unsat) or unbound (Indet).
func (e *Engine) litStatus(l Lit) Status {
	assign := e.model[l.Var()]
	if assign == 0 {
		return Indet
	}
	if assign > 0 == l.IsPositive() {
		return Sat
	}
	return Unsat
}

func (e *Engine) varDecayActivity() { e.varInc *= 1 / e.varDecay }

func (e *Engine) varBumpActivity(v Var) {
	e.activity[v] += e.varInc
	if e.activity[v] > 1e100 {
		for i := range e.activity {
			e.activity[i] *= 1e-100
		}
		e.varInc *= 1e-100
	}
	if e.varQueue.contains(int(v)) {
		e.varQueue.decrease(int(v))
	}
}

func (e *Engine) clauseDecayActivity() { e.clauseInc *= 1 / clauseDecay }

func (e *Engine) clauseBumpActivity(c *Clause) {
	if !c.Learned() {
		return
	}
	c.activity += e.clauseInc
	if c.activity > 1e30 {
		for i := e.wl.nbOriginal; i < len(e.wl.clauses); i++ {
			e.wl.clauses[i].activity *= 1e-30
		}
		e.clauseInc *= 1e-30
	}
}

func (e *Engine) chooseLit() Lit {
	v := Var(-1)
	for v == -1 && !e.varQueue.empty() {
		if v2 := Var(e.varQueue.removeMin()); e.model[v2] == 0 {
			v = v2
		}
	}
	if v == -1 {
		return Lit(-1)
	}
	e.Stats.NbDecisions++
	return v.SignedLit(!e.polarity[v])
}

// cleanupBindings unbinds every variable assigned at a decision level > lvl.
func (e *Engine) cleanupBindings(lvl decLevel) {
	i := 0
	for i < len(e.trail) && abs(e.model[e.trail[i].Var()]) <= lvl {
		i++
	}
	toInsert := e.trailBuf[:0]
	for j := i; j < len(e.trail); j++ {
		lit2 := e.trail[j]
		v := lit2.Var()
		e.model[v] = 0
		if e.reason[v] != nil {
			e.reason[v].unlock()
			e.reason[v] = nil
		}
		e.polarity[v] = lit2.IsPositive()
		if !e.varQueue.contains(int(v)) {
			toInsert = append(toInsert, int(v))
			e.varQueue.insert(int(v))
		}
	}
	e.trail = e.trail[:i]
	for i := len(toInsert) - 1; i >= 0; i-- {
		e.varQueue.insert(toInsert[i])
	}
}

func backtrackData(c *Clause, model []decLevel) (btLevel decLevel, lit Lit) {
	btLevel = abs(model[c.Get(1).Var()])
	return btLevel, c.Get(0)
}

func (e *Engine) rebuildOrderHeap() {
	ints := make([]int, 0, e.nbVars)
	for v := 0; v < e.nbVars; v++ {
		if e.model[v] == 0 {
			ints = append(ints, v)
		}
	}
	e.varQueue.build(ints)
}

// propagateAndSearch binds lit at lvl, propagates and keeps deciding until a
// model is found, the instance is unsat, or a restart is due.
func (e *Engine) propagateAndSearch(lit Lit, lvl decLevel) Status {
	for lit != -1 {
		if e.terminate != nil && e.terminate() {
			return Indet
		}
		if conflict := e.unifyLiteral(lit, lvl); conflict == nil {
			if e.lbdStats.mustRestart() {
				e.lbdStats.clear()
				e.cleanupBindings(1)
				return Indet
			}
			if e.Stats.NbConflicts >= e.wl.idxReduce*e.wl.nbMax {
				e.wl.idxReduce = e.Stats.NbConflicts/e.wl.nbMax + 1
				e.reduceLearned()
				e.bumpNbMax()
			}
			lvl++
			lit = e.chooseLit()
		} else {
			e.Stats.NbConflicts++
			if e.Stats.NbConflicts%5000 == 0 && e.varDecay < 0.95 {
				e.varDecay += 0.01
			}
			learnt, unit := e.learnClause(conflict, lvl)
			if learnt == nil {
				if unit == -1 || (abs(e.model[unit.Var()]) == 1 && e.litStatus(unit) == Unsat) {
					return e.setUnsat()
				}
				e.Stats.NbUnitLearned++
				e.lbdStats.add(1)
				e.cleanupBindings(1)
				e.model[unit.Var()] = lvlToSignedLvl(unit, 1)
				e.trail = append(e.trail, unit)
				if conflict = e.unifyLiteral(unit, 1); conflict != nil {
					return e.setUnsat()
				}
				e.rebuildOrderHeap()
				lit = e.chooseLit()
				lvl = 2
			} else {
				if learnt.Len() == 2 {
					e.Stats.NbBinaryLearned++
				}
				e.Stats.NbLearned++
				e.lbdStats.add(learnt.lbd())
				e.addClause(learnt)
				lvl, lit = backtrackData(learnt, e.model)
				e.cleanupBindings(lvl)
				e.reason[lit.Var()] = learnt
				learnt.lock()
			}
		}
	}
	return Sat
}

func (e *Engine) setUnsat() Status {
	e.status = Unsat
	return Unsat
}

func (e *Engine) search() Status {
	lit := e.chooseLit()
	for _, a := range e.assumptions {
		if e.litStatus(a) == Unsat {
			return e.setUnsat()
		}
	}
	lvl := decLevel(2)
	e.status = e.propagateAndSearch(lit, lvl)
	return e.status
}

// Assume sets literals that must hold for the duration of the next Solve
// call, the way an IPASIR solver's ipasir_assume does. It does not persist
// across calls.
func (e *Engine) Assume(lits []Lit) {
	e.assumptions = append(e.assumptions[:0], lits...)
	for _, lit := range lits {
		if e.litStatus(lit) == Indet {
			e.model[lit.Var()] = lvlToSignedLvl(lit, 1)
			e.trail = append(e.trail, lit)
			e.unifyLiteral(lit, 1)
		}
	}
}

// Solve runs CDCL search to completion (or until the termination callback
// fires) and returns Sat, Unsat or Indet.
func (e *Engine) Solve() Status {
	if e.status == Unsat {
		return e.status
	}
	e.status = Indet
	for e.status == Indet {
		e.search()
		if e.status == Indet {
			if e.terminate != nil && e.terminate() {
				break
			}
			e.Stats.NbRestarts++
			e.rebuildOrderHeap()
		}
	}
	if e.status == Sat {
		e.lastModel = make([]decLevel, len(e.model))
		copy(e.lastModel, e.model)
	}
	if e.Verbose {
		fmt.Printf("c restarts=%d conflicts=%d learned=%d deleted=%d\n",
			e.Stats.NbRestarts, e.Stats.NbConflicts, e.wl.nbLearned, e.Stats.NbDeleted)
	}
	return e.status
}

package satcore

import "sort"

type watcher struct {
	other  Lit
	clause *Clause
}

// watcherList stores clauses and propagates unit literals efficiently.
type watcherList struct {
	nbOriginal int
	nbLearned  int
	nbMax      int
	idxReduce  int
	wlistBin   [][]watcher // binary clauses watching the negation of each lit
	wlist      [][]*Clause // non-binary clauses watching the negation of each lit, within cardinality+1
	clauses    []*Clause
}

func (e *Engine) initWatcherList(clauses []*Clause) {
	nbMax := initNbMaxClauses
	newClauses := make([]*Clause, len(clauses), len(clauses)*2)
	copy(newClauses, clauses)
	e.wl = watcherList{
		nbOriginal: len(clauses),
		nbMax:      nbMax,
		idxReduce:  1,
		wlistBin:   make([][]watcher, e.nbVars*2),
		wlist:      make([][]*Clause, e.nbVars*2),
		clauses:    newClauses,
	}
	for _, c := range clauses {
		e.watchClause(c)
	}
}

func (e *Engine) bumpNbMax()      { e.wl.nbMax += incrNbMaxClauses }
func (e *Engine) postponeNbMax()  { e.wl.nbMax += incrPostponeNbMax }

func (wl *watcherList) Len() int { return wl.nbLearned }

func (wl *watcherList) Less(i, j int) bool {
	idxI := i + wl.nbOriginal
	idxJ := j + wl.nbOriginal
	lbdI := wl.clauses[idxI].lbd()
	lbdJ := wl.clauses[idxJ].lbd()
	return lbdI > lbdJ || (lbdI == lbdJ && wl.clauses[idxI].activity < wl.clauses[idxJ].activity)
}

func (wl *watcherList) Swap(i, j int) {
	idxI := i + wl.nbOriginal
	idxJ := j + wl.nbOriginal
	wl.clauses[idxI], wl.clauses[idxJ] = wl.clauses[idxJ], wl.clauses[idxI]
}

func (e *Engine) watchClause(c *Clause) {
	if c.Len() == 2 {
		first := c.First()
		second := c.Second()
		neg0 := first.Negation()
		neg1 := second.Negation()
		e.wl.wlistBin[neg0] = append(e.wl.wlistBin[neg0], watcher{clause: c, other: second})
		e.wl.wlistBin[neg1] = append(e.wl.wlistBin[neg1], watcher{clause: c, other: first})
		return
	}
	for i := 0; i < c.Cardinality()+1; i++ {
		lit := c.Get(i)
		neg := lit.Negation()
		e.wl.wlist[neg] = append(e.wl.wlist[neg], c)
	}
}

// unwatchClause is only called when c.lbd() > 2, so c is never binary;
// learned clauses always have Cardinality() == 1.
func (e *Engine) unwatchClause(c *Clause) {
	for i := 0; i < 2; i++ {
		neg := c.Get(i).Negation()
		j := 0
		length := len(e.wl.wlist[neg])
		for e.wl.wlist[neg][j] != c {
			j++
		}
		e.wl.wlist[neg][j] = e.wl.wlist[neg][length-1]
		e.wl.wlist[neg] = e.wl.wlist[neg][:length-1]
	}
}

func (e *Engine) reduceLearned() {
	sort.Sort(&e.wl)
	length := e.wl.nbLearned / 2
	if e.wl.clauses[e.wl.nbOriginal+length].lbd() <= 3 {
		e.postponeNbMax()
	}
	nbRemoved := 0
	for i := 0; i < length; i++ {
		idx := i + e.wl.nbOriginal
		c := e.wl.clauses[idx]
		if c.lbd() <= 2 || c.isLocked() {
			continue
		}
		nbRemoved++
		e.Stats.NbDeleted++
		e.wl.clauses[idx] = e.wl.clauses[len(e.wl.clauses)-nbRemoved]
		e.unwatchClause(c)
	}
	e.wl.clauses = e.wl.clauses[:len(e.wl.clauses)-nbRemoved]
	e.wl.nbLearned -= nbRemoved
}

func (e *Engine) addClause(c *Clause) {
	e.wl.nbLearned++
	e.wl.clauses = append(e.wl.clauses, c)
	e.watchClause(c)
	e.clauseBumpActivity(c)
}

func lvlToSignedLvl(l Lit, lvl decLevel) decLevel {
	if l.IsPositive() {
		return lvl
	}
	return -lvl
}

func removeFrom(lst []*Clause, c *Clause) []*Clause {
	i := 0
	for lst[i] != c {
		i++
	}
	last := len(lst) - 1
	lst[i] = lst[last]
	return lst[:last]
}

// unifyLiteral propagates lit at decision level lvl and returns a conflict
// clause, or nil if propagation found none.
func (e *Engine) unifyLiteral(lit Lit, lvl decLevel) *Clause {
	e.model[lit.Var()] = lvlToSignedLvl(lit, lvl)
	ptr := len(e.trail)
	e.trail = append(e.trail, lit)
	for ptr < len(e.trail) {
		lit := e.trail[ptr]
		for _, w := range e.wl.wlistBin[lit] {
			v2 := w.other.Var()
			if assign := e.model[v2]; assign == 0 {
				e.reason[v2] = w.clause
				w.clause.lock()
				e.model[v2] = lvlToSignedLvl(w.other, lvl)
				e.trail = append(e.trail, w.other)
			} else if (assign > 0) != w.other.IsPositive() {
				return w.clause
			}
		}
		for _, c := range e.wl.wlist[lit] {
			res, units := e.simplifyCardClause(c)
			switch res {
			case Unsat:
				return c
			case Unit:
				unit := units[0]
				v := unit.Var()
				e.reason[v] = c
				c.lock()
				e.model[v] = lvlToSignedLvl(unit, lvl)
				e.trail = append(e.trail, unit)
			}
		}
		ptr++
	}
	return nil
}

// simplifyCardClause simplifies a (possibly cardinality > 1) clause against
// the current partial model. This is the unweighted cardinality propagation
// rule that the encoder's at-most-one/at-least-one operation constraints
// rely on.
func (e *Engine) simplifyCardClause(clause *Clause) (Status, []Lit) {
	length := clause.Len()
	card := clause.Cardinality()
	nbTrue := 0
	nbFalse := 0
	nbUnb := 0
	for i := 0; i < length; i++ {
		lit := clause.Get(i)
		if assign := e.model[lit.Var()]; assign == 0 {
			nbUnb++
			if nbUnb+nbTrue > card {
				break
			}
		} else if (assign > 0) == lit.IsPositive() {
			nbTrue++
			if nbTrue == card {
				return Sat, nil
			}
			if nbUnb+nbTrue > card {
				break
			}
		} else {
			nbFalse++
			if length-nbFalse < card {
				return Unsat, nil
			}
		}
	}
	if nbTrue >= card {
		return Sat, nil
	}
	if nbUnb+nbTrue == card {
		res := make([]Lit, 0, nbUnb)
		i := 0
		for len(res) < nbUnb {
			lit := clause.Get(i)
			if e.model[lit.Var()] == 0 {
				res = append(res, lit)
			} else {
				i++
			}
		}
		return Unit, res
	}
	e.swapFalse(clause)
	return Many, nil
}

// swapFalse swaps literals so all watched ones are true or unbounded.
// Only valid when there are at least cardinality+1 true/unbounded lits.
func (e *Engine) swapFalse(clause *Clause) {
	card := clause.Cardinality()
	i := 0
	j := card + 1
	for i < card+1 {
		lit := clause.Get(i)
		for e.model[lit.Var()] == 0 || ((e.model[lit.Var()] > 0) == lit.IsPositive()) {
			i++
			if i == card+1 {
				return
			}
			lit = clause.Get(i)
		}
		lit = clause.Get(j)
		for e.model[lit.Var()] != 0 && ((e.model[lit.Var()] > 0) != lit.IsPositive()) {
			j++
			lit = clause.Get(j)
		}
		ni := &e.wl.wlist[clause.Get(i).Negation()]
		nj := &e.wl.wlist[clause.Get(j).Negation()]
		clause.swap(i, j)
		*ni = removeFrom(*ni, clause)
		*nj = append(*nj, clause)
		i++
		j++
	}
}

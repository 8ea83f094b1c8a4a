package satcore

// computeLbd computes and sets c's LBD (Literal Block Distance).
func (c *Clause) computeLbd(model []decLevel) {
	c.setLbd(1)
	curLvl := abs(model[c.Get(0).Var()])
	for i := 0; i < c.Len(); i++ {
		lit := c.Get(i)
		if lvl := abs(model[lit.Var()]); lvl != curLvl {
			curLvl = lvl
			c.incLbd()
		}
	}
}

// addClauseLits handles the literals of the conflict clause for learnClause.
func (e *Engine) addClauseLits(confl *Clause, lvl decLevel, met, metLvl []bool, lits *[]Lit) int {
	nbLvl := 0
	for i := 0; i < confl.Len(); i++ {
		l := confl.Get(i)
		v := l.Var()
		if e.litStatus(l) != Unsat {
			continue
		}
		met[v] = true
		e.varBumpActivity(v)
		if abs(e.model[v]) == lvl {
			metLvl[v] = true
			nbLvl++
		} else if abs(e.model[v]) != 1 {
			*lits = append(*lits, l)
		}
	}
	return nbLvl
}

// learnClause builds a conflict clause via 1st-UIP resolution. It returns
// the clause itself if its length is at least 2, or a nil clause and a unit
// literal if the clause collapses to a single asserting literal.
func (e *Engine) learnClause(confl *Clause, lvl decLevel) (learned *Clause, unit Lit) {
	e.clauseBumpActivity(confl)
	lits := e.bufLits[:1]
	buf := make([]bool, e.nbVars*2)
	met := buf[:e.nbVars]
	metLvl := buf[e.nbVars:]
	nbLvl := e.addClauseLits(confl, lvl, met, metLvl, &lits)
	ptr := len(e.trail) - 1
	for nbLvl > 1 {
		for !metLvl[e.trail[ptr].Var()] {
			if abs(e.model[e.trail[ptr].Var()]) == lvl {
				met[e.trail[ptr].Var()] = true
			}
			ptr--
		}
		v := e.trail[ptr].Var()
		ptr--
		nbLvl--
		if reason := e.reason[v]; reason != nil {
			e.clauseBumpActivity(reason)
			for i := 0; i < reason.Len(); i++ {
				lit := reason.Get(i)
				if v2 := lit.Var(); !met[v2] {
					if e.litStatus(lit) != Unsat {
						continue
					}
					met[v2] = true
					e.varBumpActivity(v2)
					if abs(e.model[v2]) == lvl {
						metLvl[v2] = true
						nbLvl++
					} else if abs(e.model[v2]) != 1 {
						lits = append(lits, lit)
					}
				}
			}
		}
	}
	for _, l := range e.trail {
		if metLvl[l.Var()] {
			lits[0] = l.Negation()
			break
		}
	}
	e.varDecayActivity()
	e.clauseDecayActivity()
	sortLiterals(lits, e.model)
	sz := e.minimizeLearned(met, lits)
	if sz == 1 {
		return nil, lits[0]
	}
	learned = NewLearnedClause(e.alloc.newLits(lits[0:sz]...))
	learned.computeLbd(e.model)
	return learned, -1
}

func (e *Engine) minimizeLearned(met []bool, learned []Lit) int {
	sz := 1
	for i := 1; i < len(learned); i++ {
		if reason := e.reason[learned[i].Var()]; reason == nil {
			learned[sz] = learned[i]
			sz++
		} else {
			for k := 0; k < reason.Len(); k++ {
				lit := reason.Get(k)
				if !met[lit.Var()] && abs(e.model[lit.Var()]) > 1 {
					learned[sz] = learned[i]
					sz++
					break
				}
			}
		}
	}
	return sz
}

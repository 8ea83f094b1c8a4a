package satcore

import "sort"

// clauseSorter sorts a learned clause's literals by decision level.
type clauseSorter struct {
	lits  []Lit
	model []decLevel
}

func (cs *clauseSorter) Len() int { return len(cs.lits) }
func (cs *clauseSorter) Less(i, j int) bool {
	return abs(cs.model[cs.lits[i].Var()]) > abs(cs.model[cs.lits[j].Var()])
}
func (cs *clauseSorter) Swap(i, j int) { cs.lits[i], cs.lits[j] = cs.lits[j], cs.lits[i] }

// sortLiterals sorts lits so that abs(model[lits[i]]) >= abs(model[lits[i+1]]).
func sortLiterals(lits []Lit, model []decLevel) {
	sort.Sort(&clauseSorter{lits, model})
}

package satcore

// clauseAlloc is an arena allocator for the short literal slices backing
// binary/ternary clauses, which are created and discarded in huge numbers
// during search. Kept as an explicit field of Engine rather than a package
// global so that multiple Engines (e.g. across concurrent layer solves) do
// not share mutable allocator state.
type clauseAlloc struct {
	lits    []Lit
	ptrFree int
}

const nbLitsAlloc = 1000000

func (a *clauseAlloc) newLits(lits ...Lit) []Lit {
	if a.ptrFree+len(lits) > len(a.lits) {
		a.lits = make([]Lit, nbLitsAlloc)
		copy(a.lits, lits)
		a.ptrFree = len(lits)
		return a.lits[:len(lits)]
	}
	copy(a.lits[a.ptrFree:], lits)
	a.ptrFree += len(lits)
	return a.lits[a.ptrFree-len(lits) : a.ptrFree]
}

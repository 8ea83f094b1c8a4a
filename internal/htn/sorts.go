package htn

// SortTable owns the sort → constants membership and the per-operator
// declared parameter sorts.
type SortTable struct {
	constantsOfSort map[SortID][]ID
	sortOfConstant  map[ID]SortID
}

// NewSortTable returns an empty sort table.
func NewSortTable() *SortTable {
	return &SortTable{
		constantsOfSort: make(map[SortID][]ID),
		sortOfConstant:  make(map[ID]SortID),
	}
}

// Declare registers constant c as a member of sort.
func (t *SortTable) Declare(sort SortID, c ID) {
	for _, existing := range t.constantsOfSort[sort] {
		if existing == c {
			return
		}
	}
	t.constantsOfSort[sort] = append(t.constantsOfSort[sort], c)
	t.sortOfConstant[c] = sort
}

// ConstantsOfSort returns every constant declared under sort.
func (t *SortTable) ConstantsOfSort(sort SortID) []ID {
	return t.constantsOfSort[sort]
}

// SortOf returns the sort a ground constant was declared under.
func (t *SortTable) SortOf(c ID) (SortID, bool) {
	s, ok := t.sortOfConstant[c]
	return s, ok
}

// TypeConstraint restricts a q-constant's admissible domain to a subset of
// its declared sort, accumulated as operators touch it across positions.
type TypeConstraint struct {
	QConstant    ID
	Admissible   map[ID]bool
}

// NewTypeConstraint returns a constraint admitting exactly the given constants.
func NewTypeConstraint(q ID, admissible []ID) TypeConstraint {
	m := make(map[ID]bool, len(admissible))
	for _, c := range admissible {
		m[c] = true
	}
	return TypeConstraint{QConstant: q, Admissible: m}
}

// Intersect narrows the constraint to constants present in both.
func (tc TypeConstraint) Intersect(other TypeConstraint) TypeConstraint {
	out := make(map[ID]bool)
	for c := range tc.Admissible {
		if other.Admissible[c] {
			out[c] = true
		}
	}
	return TypeConstraint{QConstant: tc.QConstant, Admissible: out}
}

// List returns the admissible constants in no particular order.
func (tc TypeConstraint) List() []ID {
	out := make([]ID, 0, len(tc.Admissible))
	for c := range tc.Admissible {
		out = append(out, c)
	}
	return out
}

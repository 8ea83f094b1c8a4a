package htn

// Interner maps names to stable ground IDs and back. Ground ids are handed
// out densely from 0, leaving the upper id ranges (see ids.go) free for
// variables and q-constants.
type Interner struct {
	idByName map[string]ID
	nameByID []string
}

// NewInterner returns an empty ground-symbol interner.
func NewInterner() *Interner {
	return &Interner{idByName: make(map[string]ID)}
}

// Intern returns the id for name, allocating a fresh one if name is new.
func (in *Interner) Intern(name string) ID {
	if id, ok := in.idByName[name]; ok {
		return id
	}
	id := ID(len(in.nameByID))
	in.idByName[name] = id
	in.nameByID = append(in.nameByID, name)
	return id
}

// Lookup returns the id already assigned to name, if any.
func (in *Interner) Lookup(name string) (ID, bool) {
	id, ok := in.idByName[name]
	return id, ok
}

// Name returns the name interned under id. Panics if id is out of range,
// since an unknown ground id is a programming error, not a recoverable one.
func (in *Interner) Name(id ID) string {
	return in.nameByID[id]
}

// VariablePool hands out free-variable ids, scoped to a single operator
// template (they are re-used, positionally, across templates via
// a fresh pool created per template at load time).
type VariablePool struct {
	next ID
}

// NewVariablePool returns a pool that starts allocating at firstVarID.
func NewVariablePool() *VariablePool {
	return &VariablePool{next: firstVarID}
}

// New allocates a fresh variable id.
func (p *VariablePool) New() ID {
	id := p.next
	p.next++
	if id >= firstQConstID {
		panic("htn: variable id range exhausted")
	}
	return id
}

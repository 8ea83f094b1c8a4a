package htn

// Substitution is a partial mapping from variable/q-constant ids to ids. It
// is a value: composing or extending one never mutates the receiver.
type Substitution struct {
	m map[ID]ID
}

// NewSubstitution returns an empty substitution.
func NewSubstitution() Substitution {
	return Substitution{m: make(map[ID]ID)}
}

// With returns a new substitution extending s with from -> to. If from is
// already mapped to a different value, ok is false and s is returned
// unmodified (the caller's assignment is inconsistent).
func (s Substitution) With(from, to ID) (Substitution, bool) {
	if existing, ok := s.m[from]; ok && existing != to {
		return s, false
	}
	out := make(map[ID]ID, len(s.m)+1)
	for k, v := range s.m {
		out[k] = v
	}
	out[from] = to
	return Substitution{m: out}, true
}

// Apply returns the value id maps to, or id itself if unmapped.
func (s Substitution) Apply(id ID) ID {
	if v, ok := s.m[id]; ok {
		return v
	}
	return id
}

// Get returns the mapped value and whether it was present.
func (s Substitution) Get(id ID) (ID, bool) {
	v, ok := s.m[id]
	return v, ok
}

// Len returns the number of bindings.
func (s Substitution) Len() int { return len(s.m) }

// Entries returns a copy of the (from, to) pairs. The order follows Go map
// iteration and is not defined; it can differ between calls.
func (s Substitution) Entries() []SubstitutionEntry {
	out := make([]SubstitutionEntry, 0, len(s.m))
	for k, v := range s.m {
		out = append(out, SubstitutionEntry{From: k, To: v})
	}
	return out
}

// SubstitutionEntry is a single variable/q-constant binding.
type SubstitutionEntry struct {
	From, To ID
}

// GetAll enumerates every substitution unifying pattern (typically an
// operator's declared parameter list, which may repeat a variable) against
// concrete, which must be the same length. When pattern repeats a variable,
// every occurrence must agree on the bound value for a unifier to be valid;
// GetAll returns one unifier per consistent assignment — there is exactly
// one unless concrete itself is ambiguous about repeated positions, which
// cannot happen for ground concrete args, so in practice this returns
// either zero or one substitution. It is kept as a slice (not a single
// value) because the task-resolution algorithm (4.3.1) is specified in
// terms of "all valid parameter substitutions".
func GetAll(pattern, concrete []ID) []Substitution {
	if len(pattern) != len(concrete) {
		return nil
	}
	sub := NewSubstitution()
	for i, p := range pattern {
		if !p.IsVariable() {
			if p != concrete[i] {
				return nil
			}
			continue
		}
		var ok bool
		sub, ok = sub.With(p, concrete[i])
		if !ok {
			return nil
		}
	}
	return []Substitution{sub}
}

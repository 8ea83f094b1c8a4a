package htn

import "strings"

// USignature is an unsigned signature: a predicate or operator name applied
// to an ordered sequence of argument ids. Because Args is a slice the struct
// is not comparable and cannot be a map key itself; maps key on Key().
type USignature struct {
	Name ID
	Args []ID
}

// NewUSignature builds a signature, copying args so later mutation of the
// caller's slice cannot corrupt a signature used as a map key.
func NewUSignature(name ID, args []ID) USignature {
	cp := make([]ID, len(args))
	copy(cp, args)
	return USignature{Name: name, Args: cp}
}

// Key returns a string form of s that is equal for structurally equal
// signatures, for use as a map key: USignature itself cannot be one, since
// Go slices are not comparable.
func (s USignature) Key() string {
	var b strings.Builder
	writeID(&b, s.Name)
	for _, a := range s.Args {
		b.WriteByte(',')
		writeID(&b, a)
	}
	return b.String()
}

func writeID(b *strings.Builder, id ID) {
	// Fixed-width hex keeps Key() a pure function of the id value without
	// needing name lookups, so it stays valid across interner growth.
	const hex = "0123456789abcdef"
	v := uint32(int32(id))
	for i := 0; i < 8; i++ {
		b.WriteByte(hex[(v>>((7-i)*4))&0xF])
	}
}

// Substitute returns a copy of s with every id replaced according to sub,
// leaving ids not present in sub unchanged.
func (s USignature) Substitute(sub Substitution) USignature {
	args := make([]ID, len(s.Args))
	for i, a := range s.Args {
		args[i] = sub.Apply(a)
	}
	return USignature{Name: s.Name, Args: args}
}

// Signature is a signed signature: a fact together with its polarity.
type Signature struct {
	Sig     USignature
	Negated bool
}

// Positive returns the positive signature for a given unsigned fact.
func Positive(sig USignature) Signature { return Signature{Sig: sig} }

// Negative returns the negative signature for a given unsigned fact.
func Negative(sig USignature) Signature { return Signature{Sig: sig, Negated: true} }

// Negation returns the opposite-polarity signature for the same fact.
func (s Signature) Negation() Signature { return Signature{Sig: s.Sig, Negated: !s.Negated} }

// Substitute applies sub to the underlying unsigned signature, preserving polarity.
func (s Signature) Substitute(sub Substitution) Signature {
	return Signature{Sig: s.Sig.Substitute(sub), Negated: s.Negated}
}

// HasQConstant reports whether any argument is a q-constant, i.e. whether
// this is a q-fact rather than a fully ground fact.
func (s USignature) HasQConstant() bool {
	for _, a := range s.Args {
		if a.IsQConstant() {
			return true
		}
	}
	return false
}

// HasVariable reports whether any argument is still a free lifted-template variable.
func (s USignature) HasVariable() bool {
	for _, a := range s.Args {
		if a.IsVariable() {
			return true
		}
	}
	return false
}

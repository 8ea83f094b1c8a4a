package satcore

import "fmt"

// A Clause is a list of Lit, with bookkeeping for learned clauses.
type Clause struct {
	lits []Lit
	// lbdValue bits: leftmost = learned flag, second = locked flag (if learned),
	// remaining 30 bits = LBD value (if learned) or minimal cardinality - 1 (if not).
	lbdValue uint32
	activity float32
}

const (
	learnedMask uint32 = 1 << 31
	lockedMask  uint32 = 1 << 30
	bothMasks          = learnedMask | lockedMask
)

// NewClause returns an ordinary (cardinality 1) clause.
func NewClause(lits []Lit) *Clause {
	return &Clause{lits: lits}
}

// NewCardClause returns a clause requiring at least card of its literals to be true.
// NewClause(lits) is equivalent to NewCardClause(lits, 1).
func NewCardClause(lits []Lit, card int) *Clause {
	if card < 1 || card > len(lits) {
		panic("satcore: invalid cardinality value")
	}
	return &Clause{lits: lits, lbdValue: uint32(card - 1)}
}

// NewLearnedClause returns a new clause marked as learned.
func NewLearnedClause(lits []Lit) *Clause {
	return &Clause{lits: lits, lbdValue: learnedMask}
}

// Cardinality returns the minimum number of literals that must be true.
func (c *Clause) Cardinality() int {
	if c.Learned() {
		return 1
	}
	return int(c.lbdValue & ^bothMasks) + 1
}

// Learned reports whether c was learned during search.
func (c *Clause) Learned() bool {
	return c.lbdValue&learnedMask == learnedMask
}

func (c *Clause) lock()   { c.lbdValue |= lockedMask }
func (c *Clause) unlock() { c.lbdValue &= ^lockedMask }

func (c *Clause) lbd() int          { return int(c.lbdValue & ^bothMasks) }
func (c *Clause) setLbd(lbd int)    { c.lbdValue = (c.lbdValue & bothMasks) | uint32(lbd) }
func (c *Clause) incLbd()           { c.lbdValue++ }
func (c *Clause) isLocked() bool    { return c.lbdValue&bothMasks == bothMasks }

// Len returns the number of literals in the clause.
func (c *Clause) Len() int { return len(c.lits) }

// First returns the first literal of the clause.
func (c *Clause) First() Lit { return c.lits[0] }

// Second returns the second literal of the clause.
func (c *Clause) Second() Lit { return c.lits[1] }

// Get returns the ith literal of the clause.
func (c *Clause) Get(i int) Lit { return c.lits[i] }

// Set sets the ith literal of the clause.
func (c *Clause) Set(i int, l Lit) { c.lits[i] = l }

func (c *Clause) swap(i, j int) { c.lits[i], c.lits[j] = c.lits[j], c.lits[i] }

// Shrink truncates the clause to its first newLen literals.
func (c *Clause) Shrink(newLen int) { c.lits = c.lits[:newLen] }

// DIMACS returns a DIMACS-style textual dump of the clause, used by the
// planner's dump-cnf debug command.
func (c *Clause) DIMACS() string {
	res := ""
	for _, lit := range c.lits {
		res += fmt.Sprintf("%d ", lit.Int())
	}
	return res + "0"
}

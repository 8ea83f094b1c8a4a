package layer

// Layer is an ordered sequence of Positions at one refinement depth, plus
// the bookkeeping the next layer's construction needs: which position in
// this layer a given position descends from ("offset table", recorded the
// other direction — see Successor/ExpansionSize) and how many child
// positions each position's operators may occupy in the next layer.
type Layer struct {
	Index     int
	Positions []*Position
	State     *LayerState

	// successor[p] is the position in the *next* layer that p's content
	// propagates into as its "left-most" child (offset 0).
	successor []int
	// expansionSize[p] is how many child positions in the next layer the
	// operators at position p may occupy.
	expansionSize []int
}

// NewLayer returns an empty layer at index idx, sharing state (a fresh
// LayerState unless the caller wants propagation from a previous layer).
func NewLayer(idx int, state *LayerState) *Layer {
	return &Layer{Index: idx, State: state}
}

// AddPosition appends a new position, assigned the next position index.
func (l *Layer) AddPosition() *Position {
	p := NewPosition(l.Index, len(l.Positions))
	l.Positions = append(l.Positions, p)
	l.successor = append(l.successor, 0)
	l.expansionSize = append(l.expansionSize, 1)
	return p
}

// SetSuccessor records that position p's left-most child in the next layer
// starts at nextPos, spanning size child positions.
func (l *Layer) SetSuccessor(p, nextPos, size int) {
	l.successor[p] = nextPos
	l.expansionSize[p] = size
}

// Successor returns the next layer's left-most child position for p.
func (l *Layer) Successor(p int) int { return l.successor[p] }

// ExpansionSize returns how many child positions position p's operators may
// occupy in the next layer.
func (l *Layer) ExpansionSize(p int) int { return l.expansionSize[p] }

// Above returns the (position, offset) in this layer whose expansion
// produced targetPos in the next layer, by scanning the successor/expansion
// table. offset is targetPos's distance from that position's left-most child.
func (l *Layer) Above(targetPos int) (pos, offset int) {
	for p := len(l.Positions) - 1; p >= 0; p-- {
		start := l.successor[p]
		if targetPos >= start && targetPos < start+l.expansionSize[p] {
			return p, targetPos - start
		}
	}
	return -1, 0
}

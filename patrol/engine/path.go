package engine

// Path is an ordered sequence of distinct states in first-visit order.
//
// A Path may extend a prefix of a parent Path without copying it. The parent
// must not grow while children exist; the tracer only builds children from
// completed paths, so this holds by construction.
type Path struct {
	parent    *Path
	parentLen int
	states    []State
	index     map[State]int
}

// NewPath returns a path holding the given states in order. Duplicate states
// after the first occurrence are ignored.
func NewPath(states ...State) *Path {
	p := &Path{
		states: make([]State, 0, len(states)),
		index:  make(map[State]int, len(states)),
	}
	for _, s := range states {
		p.Append(s)
	}
	return p
}

// Prefix returns a path made of the first n states of p. The returned path
// shares storage with p and can be extended independently of it.
func (p *Path) Prefix(n int) *Path {
	if n < 0 {
		n = 0
	}
	if n > p.Len() {
		n = p.Len()
	}
	return &Path{
		parent:    p,
		parentLen: n,
		index:     make(map[State]int),
	}
}

// Len returns the number of states in the path.
func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return p.parentLen + len(p.states)
}

// At returns the i-th state.
func (p *Path) At(i int) State {
	if i < p.parentLen {
		return p.parent.At(i)
	}
	return p.states[i-p.parentLen]
}

// Last returns the final state and false when the path is empty.
func (p *Path) Last() (State, bool) {
	if p.Len() == 0 {
		return State{}, false
	}
	return p.At(p.Len() - 1), true
}

// IndexOf returns the position of s in the path.
func (p *Path) IndexOf(s State) (int, bool) {
	if p == nil {
		return 0, false
	}
	if p.parent != nil {
		if i, ok := p.parent.IndexOf(s); ok && i < p.parentLen {
			return i, true
		}
	}
	if i, ok := p.index[s]; ok {
		return p.parentLen + i, true
	}
	return 0, false
}

// Contains reports whether s has been visited on this path.
func (p *Path) Contains(s State) bool {
	_, ok := p.IndexOf(s)
	return ok
}

// Append adds s to the end of the path. It reports false, leaving the path
// unchanged, when s is already present.
func (p *Path) Append(s State) bool {
	if p.Contains(s) {
		return false
	}
	p.index[s] = len(p.states)
	p.states = append(p.states, s)
	return true
}

// States returns a copy of all states in order.
func (p *Path) States() []State {
	out := make([]State, 0, p.Len())
	return p.appendStates(out)
}

func (p *Path) appendStates(out []State) []State {
	if p.parent != nil {
		base := len(out)
		out = p.parent.appendStates(out)[:base+p.parentLen]
	}
	return append(out, p.states...)
}

// DistinctPositions returns each visited position once, in first-visit order.
func (p *Path) DistinctPositions() []Position {
	seen := make(map[Position]struct{}, p.Len())
	positions := make([]Position, 0, p.Len())
	for _, s := range p.States() {
		if _, ok := seen[s.Pos]; ok {
			continue
		}
		seen[s.Pos] = struct{}{}
		positions = append(positions, s.Pos)
	}
	return positions
}

// DistinctCount returns the number of unique positions on the path.
func (p *Path) DistinctCount() int {
	return len(p.DistinctPositions())
}

// FirstVisits maps each position on the path to the index of the first state
// that stands on it.
func (p *Path) FirstVisits() map[Position]int {
	first := make(map[Position]int, p.Len())
	for i, s := range p.States() {
		if _, ok := first[s.Pos]; !ok {
			first[s.Pos] = i
		}
	}
	return first
}

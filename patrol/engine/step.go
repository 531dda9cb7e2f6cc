package engine

// NextKind classifies the outcome of a single step
type NextKind uint8

const (
	// Exited means the cell ahead is outside the grid.
	Exited NextKind = iota
	// Turned means the cell ahead is an obstruction; the guard turned right in place.
	Turned
	// Moved means the guard advanced one cell.
	Moved
)

func (k NextKind) String() string {
	switch k {
	case Turned:
		return "turned"
	case Moved:
		return "moved"
	default:
		return "exited"
	}
}

// Next is the result of Step. State is the zero value when Kind is Exited.
type Next struct {
	Kind  NextKind
	State State
}

// Step advances the guard by one transition. It has no side effects and
// always returns the same result for the same state and layout.
func Step(state State, layout Layout) Next {
	ahead := state.Pos.Ahead(state.Heading)
	if !layout.InBounds(ahead) {
		return Next{Kind: Exited}
	}
	if layout.IsObstruction(ahead) {
		return Next{Kind: Turned, State: State{Pos: state.Pos, Heading: state.Heading.Turn()}}
	}
	return Next{Kind: Moved, State: State{Pos: ahead, Heading: state.Heading}}
}

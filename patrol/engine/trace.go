package engine

import "fmt"

// Outcome tells how a trace ended
type Outcome uint8

const (
	// Completed means the guard walked off the grid.
	Completed Outcome = iota
	// CycleDetected means the guard reached a state it had already visited.
	CycleDetected
)

func (o Outcome) String() string {
	if o == CycleDetected {
		return "cycle"
	}
	return "completed"
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name.
func (o *Outcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "completed":
		*o = Completed
	case "cycle":
		*o = CycleDetected
	default:
		return fmt.Errorf("unknown outcome %q", text)
	}
	return nil
}

// TraceResult is the result of Trace.
type TraceResult struct {
	Outcome Outcome
	// Path holds the seed followed by every new state reached. On a cycle the
	// repeated state is not appended.
	Path *Path
	// Steps counts Step calls made by this trace, excluding the seed.
	Steps int
	// Repeated is the state that closed the cycle. Zero unless Outcome is
	// CycleDetected.
	Repeated State
}

// StepBudget is the number of distinct states a layout admits. Every trace
// ends within that many steps: each step either exits or reaches a new state.
func StepBudget(layout Layout) int {
	return layout.Width() * layout.Height() * 4
}

// Trace walks the guard from start until it leaves the grid or repeats a
// state. seed is a verified prefix of already-visited states ending at start;
// pass nil for a fresh run. The seed is extended in place, so callers that
// reuse history hand in a Prefix view rather than the original path.
func Trace(start State, layout Layout, seed *Path) (TraceResult, error) {
	path := seed
	if path.Len() == 0 {
		path = NewPath(start)
	} else if last, _ := path.Last(); last != start {
		return TraceResult{}, fmt.Errorf("%w: seed ends at %+v, start is %+v", ErrSeedMismatch, last, start)
	}

	budget := StepBudget(layout)
	current := start
	for steps := 1; steps <= budget; steps++ {
		next := Step(current, layout)
		if next.Kind == Exited {
			return TraceResult{Outcome: Completed, Path: path, Steps: steps}, nil
		}
		if !path.Append(next.State) {
			return TraceResult{Outcome: CycleDetected, Path: path, Steps: steps, Repeated: next.State}, nil
		}
		current = next.State
	}

	return TraceResult{Path: path, Steps: budget}, fmt.Errorf("%w: %d steps on %dx%d grid",
		ErrStepBudgetExceeded, budget, layout.Width(), layout.Height())
}

// TraceGrid traces the canonical grid from its start state.
func TraceGrid(g *Grid) (TraceResult, error) {
	return Trace(g.Start(), g, nil)
}

// CountVisited returns the number of distinct positions the guard covers
// before leaving the unmodified grid. A grid whose baseline patrol cycles is
// reported as ErrBaselineCycle.
func CountVisited(g *Grid) (int, error) {
	result, err := TraceGrid(g)
	if err != nil {
		return 0, err
	}
	if result.Outcome == CycleDetected {
		return 0, fmt.Errorf("%w: state %+v repeats after %d steps", ErrBaselineCycle, result.Repeated, result.Steps)
	}
	return result.Path.DistinctCount(), nil
}

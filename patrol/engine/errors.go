package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedGrid indicates ragged rows, empty input or an unknown character.
	ErrMalformedGrid = errors.New("malformed grid")
	// ErrNoStart indicates no cell carries a start marker.
	ErrNoStart = errors.New("no start marker")
	// ErrMultipleStarts indicates more than one cell carries a start marker.
	ErrMultipleStarts = errors.New("multiple start markers")
	// ErrGridTooLarge indicates a layout wider or taller than MaxGridSize.
	ErrGridTooLarge = errors.New("grid too large")

	// ErrBaselineCycle is returned when the unmodified grid never lets the guard leave.
	ErrBaselineCycle = errors.New("baseline patrol does not exit the grid")
	// ErrSeedMismatch is returned when a seed path does not end at the trace start.
	ErrSeedMismatch = errors.New("seed path does not end at start state")
	// ErrStepBudgetExceeded means a trace ran past the width*height*4 state bound.
	ErrStepBudgetExceeded = errors.New("trace exceeded state-space bound")
	// ErrOutOfBounds is returned for positions outside the grid.
	ErrOutOfBounds = errors.New("position out of bounds")
)

// ParseError describes why a layout could not be turned into a Grid. Kind is
// one of ErrMalformedGrid, ErrNoStart, ErrMultipleStarts or ErrGridTooLarge; Row and Col are
// 1-based and zero when they do not apply.
type ParseError struct {
	Kind   error
	Row    int
	Col    int
	Detail string
}

func (e *ParseError) Error() string {
	msg := "parse grid: " + e.Kind.Error()
	if e.Row > 0 && e.Col > 0 {
		msg += fmt.Sprintf(" at row %d, col %d", e.Row, e.Col)
	} else if e.Row > 0 {
		msg += fmt.Sprintf(" at row %d", e.Row)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Kind
}

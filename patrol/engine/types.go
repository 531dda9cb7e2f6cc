package engine

import "fmt"

// Cell represents a single grid cell
type Cell uint8

const (
	Empty Cell = iota
	Obstruction
)

// Layout characters
const (
	EmptyChar       = '.'
	ObstructionChar = '#'
	VisitedChar     = 'X'
	AddedChar       = 'O'
)

// Validation constants
const (
	MinGridSize = 1
	MaxGridSize = 1024
)

func (c Cell) String() string {
	if c == Obstruction {
		return "obstruction"
	}
	return "empty"
}

// Position represents x,y coordinates. X is the column and Y the row, with
// (0,0) in the top-left corner.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Heading is the direction the guard is facing
type Heading uint8

const (
	Up Heading = iota
	Right
	Down
	Left
)

var headingMarkers = [...]byte{Up: '^', Right: '>', Down: 'v', Left: '<'}

var headingNames = [...]string{Up: "up", Right: "right", Down: "down", Left: "left"}

// Turn returns the heading after a 90 degree clockwise turn.
func (h Heading) Turn() Heading {
	return (h + 1) % 4
}

// Delta returns the unit offset of one step along h.
func (h Heading) Delta() (dx, dy int) {
	switch h {
	case Up:
		return 0, -1
	case Right:
		return 1, 0
	case Down:
		return 0, 1
	default:
		return -1, 0
	}
}

// Marker returns the layout character that places a start cell facing h.
func (h Heading) Marker() byte {
	return headingMarkers[h%4]
}

func (h Heading) String() string {
	return headingNames[h%4]
}

// MarshalText encodes the heading by name so JSON responses stay readable.
func (h Heading) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText accepts a heading name ("up") or its marker ("^").
func (h *Heading) UnmarshalText(text []byte) error {
	for i, name := range headingNames {
		if string(text) == name {
			*h = Heading(i)
			return nil
		}
	}
	if len(text) == 1 {
		if parsed, ok := headingFromMarker(text[0]); ok {
			*h = parsed
			return nil
		}
	}
	return fmt.Errorf("unknown heading %q", text)
}

// headingFromMarker maps a start marker to its heading.
func headingFromMarker(c byte) (Heading, bool) {
	for h, m := range headingMarkers {
		if m == c {
			return Heading(h), true
		}
	}
	return 0, false
}

// Ahead returns the position one step from p along h.
func (p Position) Ahead(h Heading) Position {
	dx, dy := h.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// State is the guard's position and heading. It is the unit of equality for
// cycle detection and is used directly as a map key.
type State struct {
	Pos     Position `json:"pos"`
	Heading Heading  `json:"heading"`
}

package engine

import (
	"fmt"
	"strings"
)

// Layout is the read-only view of a grid that the step function needs.
// Both *Grid and *ScopedGrid implement it.
type Layout interface {
	Width() int
	Height() int
	InBounds(p Position) bool
	IsObstruction(p Position) bool
}

// Grid is the canonical puzzle map. It is never modified after ParseGrid
// returns, so a single Grid can be shared by any number of concurrent traces.
type Grid struct {
	width  int
	height int
	cells  []Cell
	start  State
}

// ParseGrid builds a Grid from layout rows. Every row must have the same
// length and exactly one cell must carry a start marker (^ > v <).
func ParseGrid(lines []string) (*Grid, error) {
	if len(lines) == 0 || len(lines[0]) == 0 {
		return nil, &ParseError{Kind: ErrMalformedGrid, Detail: "layout is empty"}
	}

	width := len(lines[0])
	if len(lines) > MaxGridSize || width > MaxGridSize {
		return nil, &ParseError{
			Kind:   ErrGridTooLarge,
			Detail: fmt.Sprintf("grid %dx%d exceeds maximum size %d", width, len(lines), MaxGridSize),
		}
	}

	g := &Grid{
		width:  width,
		height: len(lines),
		cells:  make([]Cell, width*len(lines)),
	}

	found := false
	for y, row := range lines {
		if len(row) != width {
			return nil, &ParseError{
				Kind:   ErrMalformedGrid,
				Row:    y + 1,
				Detail: fmt.Sprintf("expected %d characters, got %d", width, len(row)),
			}
		}

		for x := 0; x < len(row); x++ {
			switch c := row[x]; c {
			case EmptyChar:
			case ObstructionChar:
				g.cells[y*width+x] = Obstruction
			default:
				heading, ok := headingFromMarker(c)
				if !ok {
					return nil, &ParseError{
						Kind:   ErrMalformedGrid,
						Row:    y + 1,
						Col:    x + 1,
						Detail: fmt.Sprintf("invalid character %q", c),
					}
				}
				if found {
					return nil, &ParseError{
						Kind:   ErrMultipleStarts,
						Row:    y + 1,
						Col:    x + 1,
						Detail: fmt.Sprintf("first start at (%d,%d)", g.start.Pos.X, g.start.Pos.Y),
					}
				}
				g.start = State{Pos: Position{X: x, Y: y}, Heading: heading}
				found = true
			}
		}
	}

	if !found {
		return nil, &ParseError{Kind: ErrNoStart}
	}

	return g, nil
}

// ParseGridString parses a newline separated layout. Carriage returns and
// blank leading or trailing lines are ignored.
func ParseGridString(s string) (*Grid, error) {
	return ParseGrid(SplitLayout(s))
}

// SplitLayout splits raw puzzle text into layout rows. Only line endings are
// stripped; any other whitespace inside a row is kept and fails parsing.
func SplitLayout(s string) []string {
	raw := strings.Split(s, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		lines = append(lines, strings.TrimRight(line, "\r"))
	}

	// Drop blank lines at both ends only; a blank line inside the block is a
	// ragged row and must fail parsing.
	for len(lines) > 0 && isBlank(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && isBlank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// Width returns the number of columns
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows
func (g *Grid) Height() int { return g.height }

// Start returns the guard's initial state
func (g *Grid) Start() State { return g.start }

// InBounds reports whether p lies inside the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// CellAt returns the cell at p. ok is false when p is out of bounds.
func (g *Grid) CellAt(p Position) (cell Cell, ok bool) {
	if !g.InBounds(p) {
		return Empty, false
	}
	return g.cells[p.Y*g.width+p.X], true
}

// IsObstruction reports whether p holds an obstruction. Out-of-bounds
// positions report false; callers check InBounds first.
func (g *Grid) IsObstruction(p Position) bool {
	c, ok := g.CellAt(p)
	return ok && c == Obstruction
}

// CountObstructions returns the number of obstruction cells in the layout.
func (g *Grid) CountObstructions() int {
	count := 0
	for _, c := range g.cells {
		if c == Obstruction {
			count++
		}
	}
	return count
}

// Lines renders the grid back into layout rows.
func (g *Grid) Lines() []string {
	lines := make([]string, g.height)
	row := make([]byte, g.width)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			row[x] = EmptyChar
			if g.cells[y*g.width+x] == Obstruction {
				row[x] = ObstructionChar
			}
		}
		if y == g.start.Pos.Y {
			row[g.start.Pos.X] = g.start.Heading.Marker()
		}
		lines[y] = string(row)
	}
	return lines
}

// WithTemporaryObstruction returns a view of g in which p is an obstruction.
// The canonical grid is untouched; the view is discarded by dropping it.
func (g *Grid) WithTemporaryObstruction(p Position) *ScopedGrid {
	return &ScopedGrid{base: g, extra: p}
}

// ScopedGrid overlays one extra obstruction on a canonical Grid.
type ScopedGrid struct {
	base  *Grid
	extra Position
}

// Width returns the number of columns
func (s *ScopedGrid) Width() int { return s.base.width }

// Height returns the number of rows
func (s *ScopedGrid) Height() int { return s.base.height }

// Extra returns the position of the added obstruction.
func (s *ScopedGrid) Extra() Position { return s.extra }

// InBounds reports whether p lies inside the grid.
func (s *ScopedGrid) InBounds(p Position) bool { return s.base.InBounds(p) }

// IsObstruction reports whether p is an obstruction in the base grid or is
// the added obstruction.
func (s *ScopedGrid) IsObstruction(p Position) bool {
	if p == s.extra {
		return s.base.InBounds(p)
	}
	return s.base.IsObstruction(p)
}

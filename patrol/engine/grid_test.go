package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGrid_Errors(t *testing.T) {
	tests := []struct {
		name   string
		layout []string
		want   error
	}{
		{"Empty", nil, ErrMalformedGrid},
		{"EmptyRow", []string{""}, ErrMalformedGrid},
		{"Ragged", []string{"...", "..", ".^."}, ErrMalformedGrid},
		{"UnknownChar", []string{"..x", ".^."}, ErrMalformedGrid},
		{"NoStart", []string{"...", ".#."}, ErrNoStart},
		{"TwoStarts", []string{"^..", "..>"}, ErrMultipleStarts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ParseGrid(tt.layout)
			require.Error(t, err)
			assert.Nil(t, g)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.want, perr.Kind)
		})
	}
}

func TestParseGrid_ErrorLocation(t *testing.T) {
	_, err := ParseGrid([]string{"...", "..?"})

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Row)
	assert.Equal(t, 3, perr.Col)
	assert.Contains(t, err.Error(), "row 2, col 3")
}

func TestParseGrid_StartMarkers(t *testing.T) {
	tests := []struct {
		marker  string
		heading Heading
	}{
		{"^", Up},
		{">", Right},
		{"v", Down},
		{"<", Left},
	}

	for _, tt := range tests {
		t.Run(tt.heading.String(), func(t *testing.T) {
			g, err := ParseGrid([]string{"...", "." + tt.marker + ".", "..."})
			require.NoError(t, err)
			assert.Equal(t, State{Pos: Position{X: 1, Y: 1}, Heading: tt.heading}, g.Start())

			cell, ok := g.CellAt(g.Start().Pos)
			require.True(t, ok)
			assert.Equal(t, Empty, cell, "start cell must be empty")
		})
	}
}

func TestParseGridString(t *testing.T) {
	input := "\r\n..#\r\n.^.\r\n...\r\n\r\n"

	g, err := ParseGridString(input)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Width())
	assert.Equal(t, 3, g.Height())
	assert.Equal(t, []string{"..#", ".^.", "..."}, g.Lines())
}

func TestParseGridString_KeepsRowWhitespace(t *testing.T) {
	_, err := ParseGridString("..#\n  .^.\n...")
	assert.ErrorIs(t, err, ErrMalformedGrid)

	_, err = ParseGridString("..#\n.^. \n...")
	assert.ErrorIs(t, err, ErrMalformedGrid)

	assert.Equal(t, []string{"..#", ".^."}, SplitLayout("  \n..#\r\n.^.\n\t\n"))
}

func TestParseGrid_TooLarge(t *testing.T) {
	tall := make([]string, MaxGridSize+1)
	for i := range tall {
		tall[i] = "."
	}
	tall[0] = "^"

	_, err := ParseGrid(tall)
	assert.ErrorIs(t, err, ErrGridTooLarge)
	assert.False(t, errors.Is(err, ErrMalformedGrid))

	wide := make([]byte, MaxGridSize+1)
	for i := range wide {
		wide[i] = '.'
	}
	wide[0] = '^'
	_, err = ParseGrid([]string{string(wide)})
	assert.ErrorIs(t, err, ErrGridTooLarge)
}

func TestParseGridString_InnerBlankLine(t *testing.T) {
	_, err := ParseGridString("..#\n\n.^.")
	assert.ErrorIs(t, err, ErrMalformedGrid)
}

func TestGrid_Bounds(t *testing.T) {
	g, err := ParseGrid([]string{"#..", ".^."})
	require.NoError(t, err)

	for _, p := range []Position{{0, 0}, {2, 1}, {1, 1}} {
		assert.True(t, g.InBounds(p), "InBounds(%v)", p)
	}
	for _, p := range []Position{{-1, 0}, {3, 0}, {0, 2}, {2, -1}} {
		assert.False(t, g.InBounds(p), "InBounds(%v)", p)
		_, ok := g.CellAt(p)
		assert.False(t, ok, "CellAt(%v) ok", p)
		assert.False(t, g.IsObstruction(p), "IsObstruction(%v)", p)
	}

	assert.True(t, g.IsObstruction(Position{0, 0}))
	assert.False(t, g.IsObstruction(Position{1, 0}))
	assert.Equal(t, 1, g.CountObstructions())
}

func TestGrid_LinesRoundTrip(t *testing.T) {
	g, err := ParseGrid(ExampleLayout)
	require.NoError(t, err)
	assert.Equal(t, ExampleLayout, g.Lines())

	again, err := ParseGrid(g.Lines())
	require.NoError(t, err)
	assert.Equal(t, g, again)
}

func TestScopedGrid_Independent(t *testing.T) {
	g, err := ParseGrid([]string{"...", ".^.", "..."})
	require.NoError(t, err)

	a := g.WithTemporaryObstruction(Position{0, 0})
	b := g.WithTemporaryObstruction(Position{2, 2})

	assert.True(t, a.IsObstruction(Position{0, 0}))
	assert.False(t, a.IsObstruction(Position{2, 2}))
	assert.True(t, b.IsObstruction(Position{2, 2}))
	assert.False(t, b.IsObstruction(Position{0, 0}))

	assert.False(t, g.IsObstruction(Position{0, 0}), "canonical grid must be untouched")
	assert.False(t, g.IsObstruction(Position{2, 2}), "canonical grid must be untouched")
	assert.Equal(t, 0, g.CountObstructions())

	assert.Equal(t, g.Width(), a.Width())
	assert.Equal(t, g.Height(), a.Height())
	assert.Equal(t, Position{0, 0}, a.Extra())
}

func TestScopedGrid_OutOfBoundsExtra(t *testing.T) {
	g, err := ParseGrid([]string{"^"})
	require.NoError(t, err)

	s := g.WithTemporaryObstruction(Position{5, 5})
	assert.False(t, s.IsObstruction(Position{5, 5}))
	assert.False(t, s.InBounds(Position{5, 5}))
}

func TestHeading_Turn(t *testing.T) {
	assert.Equal(t, Right, Up.Turn())
	assert.Equal(t, Down, Right.Turn())
	assert.Equal(t, Left, Down.Turn())
	assert.Equal(t, Up, Left.Turn())

	h := Up
	for i := 0; i < 4; i++ {
		h = h.Turn()
	}
	assert.Equal(t, Up, h)
}

func TestState_Equality(t *testing.T) {
	a := State{Pos: Position{1, 2}, Heading: Up}
	b := State{Pos: Position{1, 2}, Heading: Up}
	c := State{Pos: Position{1, 2}, Heading: Right}

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	seen := map[State]bool{a: true}
	assert.True(t, seen[b])
	assert.False(t, seen[c])
}

package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopLayout traps the guard in a 2x2 loop from the start.
var loopLayout = []string{
	".#..",
	".^.#",
	"#...",
	"..#.",
}

func mustParse(t *testing.T, layout []string) *Grid {
	t.Helper()
	g, err := ParseGrid(layout)
	require.NoError(t, err)
	return g
}

func TestTrace_Example(t *testing.T) {
	g := mustParse(t, ExampleLayout)

	result, err := TraceGrid(g)
	require.NoError(t, err)
	assert.Equal(t, Completed, result.Outcome)
	assert.Equal(t, 41, result.Path.DistinctCount())

	last, _ := result.Path.Last()
	assert.Equal(t, State{Pos: Position{7, 9}, Heading: Down}, last, "guard leaves through the bottom edge")
}

func TestCountVisited(t *testing.T) {
	visited, err := CountVisited(mustParse(t, ExampleLayout))
	require.NoError(t, err)
	assert.Equal(t, 41, visited)
}

func TestTrace_Deterministic(t *testing.T) {
	g := mustParse(t, ExampleLayout)

	first, err := TraceGrid(g)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := TraceGrid(g)
		require.NoError(t, err)
		assert.Equal(t, first.Path.DistinctCount(), again.Path.DistinctCount())
		assert.Equal(t, first.Path.States(), again.Path.States())
		assert.Equal(t, first.Steps, again.Steps)
	}
}

func TestTrace_ExitsInOneStep(t *testing.T) {
	tests := []struct {
		name   string
		layout []string
	}{
		{"SingleCell", []string{"^"}},
		{"TopEdge", []string{"..^..", ".....", "....."}},
		{"RightEdge", []string{"...", "..>", "..."}},
		{"BottomEdge", []string{"...", "...", ".v."}},
		{"LeftEdge", []string{"...", "<..", "..."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustParse(t, tt.layout)
			result, err := TraceGrid(g)
			require.NoError(t, err)
			assert.Equal(t, Completed, result.Outcome)
			assert.Equal(t, 1, result.Steps)
			assert.Equal(t, 1, result.Path.Len())
			assert.Equal(t, []State{g.Start()}, result.Path.States())
		})
	}
}

func TestTrace_CycleDetected(t *testing.T) {
	g := mustParse(t, loopLayout)

	result, err := TraceGrid(g)
	require.NoError(t, err)
	assert.Equal(t, CycleDetected, result.Outcome)
	assert.Equal(t, g.Start(), result.Repeated)
	assert.Equal(t, 8, result.Steps)
	assert.Equal(t, 8, result.Path.Len(), "repeated state is not appended")
	assert.LessOrEqual(t, result.Steps, StepBudget(g))

	_, err = CountVisited(g)
	assert.ErrorIs(t, err, ErrBaselineCycle)
}

func TestTrace_CycleWithinStateBound(t *testing.T) {
	// The guard runs the outer ring of a box of obstructions forever.
	layout := []string{
		".#.......",
		"........#",
		".........",
		".........",
		".^.......",
		".........",
		".........",
		"#........",
		".......#.",
	}
	g := mustParse(t, layout)

	result, err := TraceGrid(g)
	require.NoError(t, err)
	assert.Equal(t, CycleDetected, result.Outcome)
	assert.Equal(t, 28, result.Steps)
	assert.LessOrEqual(t, result.Steps, g.Width()*g.Height()*4)
}

// sealedCell is a 1x1 layout whose only cell is also blocked on every side,
// so the guard turns in place and revisits its start after exactly four steps.
type sealedCell struct{}

func (sealedCell) Width() int                    { return 1 }
func (sealedCell) Height() int                   { return 1 }
func (sealedCell) InBounds(p Position) bool      { return true }
func (sealedCell) IsObstruction(p Position) bool { return true }

func TestTrace_CycleAtExactStateBound(t *testing.T) {
	layout := sealedCell{}
	start := State{Pos: Position{X: 0, Y: 0}, Heading: Up}

	result, err := Trace(start, layout, nil)
	require.NoError(t, err)
	assert.Equal(t, CycleDetected, result.Outcome)
	assert.Equal(t, 4, StepBudget(layout))
	assert.Equal(t, StepBudget(layout), result.Steps)
	assert.Equal(t, start, result.Repeated)
	assert.Equal(t, 4, result.Path.Len())
}

func TestTrace_SeedReuse(t *testing.T) {
	g := mustParse(t, ExampleLayout)

	fresh, err := TraceGrid(g)
	require.NoError(t, err)

	for _, n := range []int{1, 5, 20, fresh.Path.Len()} {
		seed := fresh.Path.Prefix(n)
		from, _ := seed.Last()

		resumed, err := Trace(from, g, seed)
		require.NoError(t, err)
		assert.Equal(t, Completed, resumed.Outcome)
		assert.Equal(t, fresh.Path.States(), resumed.Path.States(), "prefix %d", n)
	}

	assert.Equal(t, 41, fresh.Path.DistinctCount(), "resumed traces must not grow the baseline")
}

func TestTrace_SeedMismatch(t *testing.T) {
	g := mustParse(t, ExampleLayout)

	seed := NewPath(State{Pos: Position{0, 0}, Heading: Up})
	_, err := Trace(g.Start(), g, seed)
	assert.True(t, errors.Is(err, ErrSeedMismatch))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "completed", Completed.String())
	assert.Equal(t, "cycle", CycleDetected.String())
}

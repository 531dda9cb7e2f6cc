// Package engine simulates a guard patrolling a rectangular grid.
//
// The guard walks forward until the cell ahead is an obstruction, then turns
// 90 degrees right. It stops when the next step would leave the grid. A patrol
// that reaches the same (position, heading) state twice can never leave.
//
// Core Types:
//
// Grid is the immutable puzzle map parsed from text ('.' empty, '#'
// obstruction, one of '^', '>', 'v', '<' for the guard's start). ScopedGrid
// overlays a single extra obstruction on a Grid without changing it. State is
// the guard's position and heading; Path records visited states in order.
//
// Operations:
//
//   - Step computes one transition (Exited, Turned or Moved).
//   - Trace walks from a start state, optionally seeded with a visited prefix,
//     until the guard exits (Completed) or repeats a state (CycleDetected).
//   - SearchObstructions tries every position of a completed baseline patrol
//     as a new obstruction and counts those that trap the guard.
//
// Usage:
//
//	grid, err := engine.ParseGridString(input)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	visited, err := engine.CountVisited(grid)
//	result, err := engine.CountLoopSites(ctx, grid, engine.SearchOptions{Workers: 4})
//	fmt.Println(visited, result.Count)
package engine

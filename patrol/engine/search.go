package engine

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// SearchOptions tunes the obstruction search
type SearchOptions struct {
	// Workers is the number of concurrent trials. Values below 2 run the
	// search sequentially.
	Workers int `json:"workers,omitempty"`
}

// SearchResult summarizes an obstruction search
type SearchResult struct {
	// Count is the number of distinct positions that trap the guard in a loop.
	Count int `json:"count"`
	// Sites lists those positions in row-major order.
	Sites []Position `json:"sites"`
	// Candidates is the number of positions evaluated.
	Candidates int `json:"candidates"`
	// Steps is the total number of Step calls made across all trials.
	Steps int `json:"steps"`
}

// candidate is a position to block together with the index of the first
// baseline state standing on it.
type candidate struct {
	pos   Position
	first int
}

// trial is the outcome of blocking one candidate.
type trial struct {
	loop  bool
	steps int
}

// SearchObstructions counts the positions where one extra obstruction makes
// the guard patrol forever. baseline must be the Completed path traced from
// the grid's start state.
//
// Each candidate is evaluated once, from the last baseline state before the
// guard first stands on it. Everything up to that state is unaffected by the
// new obstruction and is reused as the seed of the trial.
func SearchObstructions(ctx context.Context, g *Grid, baseline *Path, opts SearchOptions) (SearchResult, error) {
	if baseline.Len() == 0 {
		return SearchResult{}, fmt.Errorf("search obstructions: empty baseline path")
	}
	if first := baseline.At(0); first != g.Start() {
		return SearchResult{}, fmt.Errorf("search obstructions: %w", ErrSeedMismatch)
	}

	candidates := collectCandidates(g, baseline)
	trials := make([]trial, len(candidates))

	run := func(i int) error {
		c := candidates[i]
		seed := baseline.Prefix(c.first)
		from, _ := seed.Last()
		result, err := Trace(from, g.WithTemporaryObstruction(c.pos), seed)
		if err != nil {
			return fmt.Errorf("trial at (%d,%d): %w", c.pos.X, c.pos.Y, err)
		}
		trials[i] = trial{loop: result.Outcome == CycleDetected, steps: result.Steps}
		return nil
	}

	if opts.Workers < 2 {
		for i := range candidates {
			if err := ctx.Err(); err != nil {
				return SearchResult{}, err
			}
			if err := run(i); err != nil {
				return SearchResult{}, err
			}
		}
	} else {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(opts.Workers)
		for i := range candidates {
			if egCtx.Err() != nil {
				break
			}
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				return run(i)
			})
		}
		if err := eg.Wait(); err != nil {
			return SearchResult{}, err
		}
		if err := ctx.Err(); err != nil {
			return SearchResult{}, err
		}
	}

	result := SearchResult{Candidates: len(candidates), Sites: []Position{}}
	for i, t := range trials {
		result.Steps += t.steps
		if t.loop {
			result.Sites = append(result.Sites, candidates[i].pos)
		}
	}
	sort.Slice(result.Sites, func(i, j int) bool {
		a, b := result.Sites[i], result.Sites[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	result.Count = len(result.Sites)
	return result, nil
}

// collectCandidates returns every distinct baseline position except the start,
// in first-visit order.
func collectCandidates(g *Grid, baseline *Path) []candidate {
	start := g.Start().Pos
	seen := make(map[Position]struct{}, baseline.Len())
	var candidates []candidate
	for i, s := range baseline.States() {
		if s.Pos == start {
			continue
		}
		if _, ok := seen[s.Pos]; ok {
			continue
		}
		seen[s.Pos] = struct{}{}
		candidates = append(candidates, candidate{pos: s.Pos, first: i})
	}
	return candidates
}

// CountLoopSites traces the baseline patrol of g and searches it for
// loop-inducing obstruction sites.
func CountLoopSites(ctx context.Context, g *Grid, opts SearchOptions) (SearchResult, error) {
	baseline, err := TraceGrid(g)
	if err != nil {
		return SearchResult{}, err
	}
	if baseline.Outcome == CycleDetected {
		return SearchResult{}, ErrBaselineCycle
	}
	return SearchObstructions(ctx, g, baseline.Path, opts)
}

// IsLoopSite traces g from its start with one extra obstruction at p and
// reports whether the guard loops. It does not reuse any history and serves
// as a reference for SearchObstructions.
func IsLoopSite(g *Grid, p Position) (bool, error) {
	if !g.InBounds(p) {
		return false, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, p.X, p.Y)
	}
	if p == g.Start().Pos {
		return false, nil
	}
	result, err := Trace(g.Start(), g.WithTemporaryObstruction(p), nil)
	if err != nil {
		return false, err
	}
	return result.Outcome == CycleDetected, nil
}

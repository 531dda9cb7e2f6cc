// Command analyze prints a quick, human-readable report for every layout in a
// configs directory: dimensions, obstruction density, the guard's start, how
// many cells the baseline patrol visits and how many loop sites exist.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/wricardo/guard-patrol/patrol/engine"
)

func main() {
	dir := flag.String("dir", "configs", "Directory containing layout JSON files")
	workers := flag.Int("workers", runtime.GOMAXPROCS(0), "Parallel workers for the obstruction search")
	flag.Parse()

	files, err := layoutFiles(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, path := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(path))
		analyzeConfig(context.Background(), os.Stdout, path, *workers)
	}
}

// layoutFiles returns the *.json files in dir in name order.
func layoutFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no layout files in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

func analyzeConfig(ctx context.Context, w io.Writer, path string, workers int) {
	config, err := engine.LoadPuzzleConfig(path)
	if err != nil {
		fmt.Fprintf(w, "Error loading config: %v\n", err)
		return
	}

	grid, err := config.Grid()
	if err != nil {
		fmt.Fprintf(w, "Error parsing layout: %v\n", err)
		return
	}

	cells := grid.Width() * grid.Height()
	obstructions := grid.CountObstructions()
	start := grid.Start()

	fmt.Fprintf(w, "Name: %s\n", config.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", grid.Width(), grid.Height())
	fmt.Fprintf(w, "Obstructions: %d (%.1f%%)\n", obstructions, 100*float64(obstructions)/float64(cells))
	fmt.Fprintf(w, "Guard: (%d, %d) facing %s\n", start.Pos.X, start.Pos.Y, start.Heading)

	visited, err := engine.CountVisited(grid)
	if errors.Is(err, engine.ErrBaselineCycle) {
		fmt.Fprintf(w, "⚠️  WARNING: baseline patrol never leaves the grid\n")
		return
	}
	if err != nil {
		fmt.Fprintf(w, "Error tracing patrol: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Visited: %d of %d open cells\n", visited, cells-obstructions)

	result, err := engine.CountLoopSites(ctx, grid, engine.SearchOptions{Workers: workers})
	if err != nil {
		fmt.Fprintf(w, "Error searching obstructions: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Loop Sites: %d of %d candidates\n", result.Count, result.Candidates)
	for i, p := range result.Sites {
		if i == 5 {
			fmt.Fprintf(w, "   ... and %d more\n", len(result.Sites)-5)
			break
		}
		fmt.Fprintf(w, "   Site: (%d, %d)\n", p.X, p.Y)
	}
}

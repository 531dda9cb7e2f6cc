// Command validate checks layout JSON files in a configs directory. It reports
// every problem it finds per file:
//   - JSON structure and required fields (name, description, layout)
//   - Rectangular rows and allowed characters (. # ^ > v <)
//   - Exactly one guard start marker
//   - The baseline patrol leaves the grid instead of looping forever
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/guard-patrol/patrol/engine"
)

// Config mirrors the JSON schema for a layout file.
type Config struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Layout      []string `json:"layout"`
}

// ValidationResult captures the outcome of validating a single file. Info
// holds summary lines for valid files.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single layout file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if strings.TrimSpace(config.Name) == "" {
		result.fail("name is required")
	}
	if strings.TrimSpace(config.Description) == "" {
		result.fail("description is required")
	}

	validateLayout(&result, config.Layout)
	if !result.Valid {
		return result
	}

	// Structure is sound; let the engine parse and walk it.
	grid, err := engine.ParseGrid(config.Layout)
	if err != nil {
		result.fail("Layout rejected: %v", err)
		return result
	}

	visited, err := engine.CountVisited(grid)
	switch {
	case errors.Is(err, engine.ErrBaselineCycle):
		result.fail("Baseline patrol never leaves the grid")
		return result
	case err != nil:
		result.fail("Trace failed: %v", err)
		return result
	}

	start := grid.Start()
	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", config.Name),
		fmt.Sprintf("✓ Grid: %dx%d", grid.Width(), grid.Height()),
		fmt.Sprintf("✓ Obstructions: %d", grid.CountObstructions()),
		fmt.Sprintf("✓ Guard: (%d,%d) facing %s", start.Pos.X, start.Pos.Y, start.Heading),
		fmt.Sprintf("✓ Baseline exits after visiting %d cells", visited),
	)

	return result
}

// validateLayout checks shape, characters and start markers, collecting every
// problem rather than stopping at the first.
func validateLayout(result *ValidationResult, layout []string) {
	if len(layout) == 0 {
		result.fail("Layout is empty")
		return
	}
	if len(layout) > engine.MaxGridSize {
		result.fail("Layout has %d rows, maximum is %d", len(layout), engine.MaxGridSize)
	}

	width := len(layout[0])
	if width == 0 {
		result.fail("Row 1 is empty")
	}
	if width > engine.MaxGridSize {
		result.fail("Layout is %d columns wide, maximum is %d", width, engine.MaxGridSize)
	}

	var starts []string
	for i, row := range layout {
		if len(row) != width {
			result.fail("Inconsistent grid width at row %d: expected %d, got %d", i+1, width, len(row))
		}
		for j := 0; j < len(row); j++ {
			switch c := row[j]; c {
			case engine.EmptyChar, engine.ObstructionChar:
			case '^', '>', 'v', '<':
				starts = append(starts, fmt.Sprintf("(%d,%d)", j, i))
			default:
				result.fail("Invalid character '%c' at position [%d,%d]", c, i+1, j+1)
			}
		}
	}

	switch len(starts) {
	case 0:
		result.fail("No guard start marker (^ > v <)")
	case 1:
	default:
		result.fail("Found %d guard start markers: %s", len(starts), strings.Join(starts, " "))
	}
}

// main validates every *.json file in the configs directory, printing a
// concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := flag.String("dir", "configs", "Directory containing layout JSON files")
	flag.Parse()

	files, err := filepath.Glob(filepath.Join(*configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No config files found in %s\n", *configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Info {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}

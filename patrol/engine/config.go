package engine

import (
	"encoding/json"
	"fmt"
	"os"
)

// PuzzleConfig is a named puzzle layout as stored in the configs directory
type PuzzleConfig struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Layout      []string `json:"layout"`
}

// ValidatePuzzleConfig checks required fields and that the layout parses.
func ValidatePuzzleConfig(config *PuzzleConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}
	if len(config.Layout) < MinGridSize {
		return fmt.Errorf("config validation: layout must have at least %d row", MinGridSize)
	}
	if _, err := ParseGrid(config.Layout); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// Grid parses the config's layout.
func (c *PuzzleConfig) Grid() (*Grid, error) {
	return ParseGrid(c.Layout)
}

// LoadPuzzleConfig loads and validates a puzzle configuration from a JSON file
func LoadPuzzleConfig(filename string) (*PuzzleConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config PuzzleConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidatePuzzleConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// ExampleLayout is the reference 10x10 puzzle. Its guard visits 41 positions
// and 6 positions trap it in a loop.
var ExampleLayout = []string{
	"....#.....",
	".........#",
	"..........",
	"..#.......",
	".......#..",
	"..........",
	".#..^.....",
	"........#.",
	"#.........",
	"......#...",
}

// DefaultPuzzleConfig returns the built-in configuration used when no
// config directory provides one.
func DefaultPuzzleConfig() *PuzzleConfig {
	layout := make([]string, len(ExampleLayout))
	copy(layout, ExampleLayout)
	return &PuzzleConfig{
		Name:        "example",
		Description: "Reference 10x10 patrol with a single guard facing up",
		Layout:      layout,
	}
}

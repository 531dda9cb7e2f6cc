package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func hasError(result ValidationResult, substr string) bool {
	for _, e := range result.Errors {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidateConfig_ValidConfig(t *testing.T) {
	path := writeTempConfig(t, `{
		"name": "example",
		"description": "Reference patrol",
		"layout": [
			"....#.....",
			".........#",
			"..........",
			"..#.......",
			".......#..",
			"..........",
			".#..^.....",
			"........#.",
			"#.........",
			"......#..."
		]
	}`)

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
	}
	if result.File != "test_config.json" {
		t.Errorf("Expected file name test_config.json, got %s", result.File)
	}

	info := strings.Join(result.Info, "\n")
	for _, want := range []string{"Grid: 10x10", "Obstructions: 8", "(4,6) facing up", "visiting 41 cells"} {
		if !strings.Contains(info, want) {
			t.Errorf("Expected %q in info:\n%s", want, info)
		}
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr []string
	}{
		{
			name:    "invalid JSON",
			content: `{"name": "test", invalid json}`,
			wantErr: []string{"Invalid JSON"},
		},
		{
			name:    "missing fields",
			content: `{"layout": ["^"]}`,
			wantErr: []string{"name is required", "description is required"},
		},
		{
			name:    "empty layout",
			content: `{"name": "n", "description": "d", "layout": []}`,
			wantErr: []string{"Layout is empty"},
		},
		{
			name:    "ragged rows and bad characters",
			content: `{"name": "n", "description": "d", "layout": ["..^", "..", "x.."]}`,
			wantErr: []string{"Inconsistent grid width at row 2", "Invalid character 'x' at position [3,1]"},
		},
		{
			name:    "no start",
			content: `{"name": "n", "description": "d", "layout": ["...", ".#."]}`,
			wantErr: []string{"No guard start marker"},
		},
		{
			name:    "two starts",
			content: `{"name": "n", "description": "d", "layout": ["^..", "..<"]}`,
			wantErr: []string{"Found 2 guard start markers: (0,0) (2,1)"},
		},
		{
			name:    "baseline loops",
			content: `{"name": "n", "description": "d", "layout": [".#..", ".^.#", "#...", "..#."]}`,
			wantErr: []string{"Baseline patrol never leaves the grid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateConfig(writeTempConfig(t, tt.content))
			if result.Valid {
				t.Fatal("Expected invalid result")
			}
			for _, want := range tt.wantErr {
				if !hasError(result, want) {
					t.Errorf("Expected error containing %q, got %v", want, result.Errors)
				}
			}
			if len(result.Info) != 0 {
				t.Errorf("Invalid result should carry no info, got %v", result.Info)
			}
		})
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig(filepath.Join(t.TempDir(), "nope.json"))
	if result.Valid || !hasError(result, "Failed to read file") {
		t.Errorf("Expected read failure, got %+v", result)
	}
}

func TestValidateConfig_RepoConfigs(t *testing.T) {
	files, _ := filepath.Glob(filepath.Join("..", "configs", "*.json"))
	if len(files) == 0 {
		t.Skip("no configs directory")
	}
	for _, file := range files {
		if result := validateConfig(file); !result.Valid {
			t.Errorf("%s: %v", result.File, result.Errors)
		}
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/guard-patrol/patrol/engine"
)

func writeConfig(t *testing.T, dir, name string, config interface{}) string {
	t.Helper()
	data, err := json.Marshal(config)
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestAnalyzeConfig_Example(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "example.json", engine.DefaultPuzzleConfig())

	var out bytes.Buffer
	analyzeConfig(context.Background(), &out, path, 2)

	expected := []string{
		"Name: example",
		"Grid Size: 10 x 10",
		"Obstructions: 8 (8.0%)",
		"Guard: (4, 6) facing up",
		"Visited: 41 of 92 open cells",
		"Loop Sites: 6 of 40 candidates",
		"Site: (3, 6)",
		"... and 1 more",
	}
	for _, want := range expected {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in output:\n%s", want, out.String())
		}
	}
}

func TestAnalyzeConfig_BaselineCycle(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "loop.json", engine.PuzzleConfig{
		Name:        "loop",
		Description: "never exits",
		Layout:      []string{".#..", ".^.#", "#...", "..#."},
	})

	var out bytes.Buffer
	analyzeConfig(context.Background(), &out, path, 1)

	if !strings.Contains(out.String(), "never leaves the grid") {
		t.Errorf("Expected cycle warning, got:\n%s", out.String())
	}
	if strings.Contains(out.String(), "Loop Sites") {
		t.Error("Search should not run when the baseline cycles")
	}
}

func TestAnalyzeConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	analyzeConfig(context.Background(), &out, filepath.Join(dir, "missing.json"), 1)
	if !strings.Contains(out.String(), "Error loading config") {
		t.Errorf("Expected load error, got: %s", out.String())
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0644)
	out.Reset()
	analyzeConfig(context.Background(), &out, bad, 1)
	if !strings.Contains(out.String(), "Error loading config") {
		t.Errorf("Expected parse error, got: %s", out.String())
	}
}

func TestLayoutFiles(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "b.json", engine.DefaultPuzzleConfig())
	writeConfig(t, dir, "a.json", engine.DefaultPuzzleConfig())
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644)

	files, err := layoutFiles(dir)
	if err != nil {
		t.Fatalf("layoutFiles failed: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "a.json" {
		t.Errorf("Expected [a.json b.json], got %v", files)
	}

	if _, err := layoutFiles(t.TempDir()); err == nil {
		t.Error("Expected error for empty directory")
	}
}

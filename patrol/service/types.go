package service

import (
	"time"

	"github.com/wricardo/guard-patrol/patrol/engine"
)

// SessionInfo provides information about an analysis session
type SessionInfo struct {
	ID             string               `json:"id"`
	ConfigName     string               `json:"config_name"`
	CreatedAt      time.Time            `json:"created_at"`
	LastAccessedAt time.Time            `json:"last_accessed_at"`
	Width          int                  `json:"width"`
	Height         int                  `json:"height"`
	Start          engine.State         `json:"start"`
	Config         *engine.PuzzleConfig `json:"config"`
}

// TraceReport is the result of tracing a session's baseline patrol
type TraceReport struct {
	RunID      string         `json:"run_id"`
	SessionID  string         `json:"session_id,omitempty"`
	Outcome    engine.Outcome `json:"outcome"`
	Visited    int            `json:"visited"`
	PathLength int            `json:"path_length"`
	Steps      int            `json:"steps"`
	Start      engine.State   `json:"start"`
	Exit       engine.State   `json:"exit"`
	Rendered   []string       `json:"rendered,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

// SearchReport is the result of an obstruction search
type SearchReport struct {
	RunID      string            `json:"run_id"`
	SessionID  string            `json:"session_id,omitempty"`
	Count      int               `json:"count"`
	Sites      []engine.Position `json:"sites"`
	Candidates int               `json:"candidates"`
	Steps      int               `json:"steps"`
	Workers    int               `json:"workers"`
	DurationMs int64             `json:"duration_ms"`
}

// AnalyzeReport answers both queries for a single layout without a session
type AnalyzeReport struct {
	RunID        string            `json:"run_id"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Obstructions int               `json:"obstructions"`
	Start        engine.State      `json:"start"`
	Visited      int               `json:"visited"`
	LoopSites    int               `json:"loop_sites"`
	Sites        []engine.Position `json:"sites"`
	DurationMs   int64             `json:"duration_ms"`
}

// ConfigInfo provides information about a puzzle configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

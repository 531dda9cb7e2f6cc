package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wricardo/guard-patrol/patrol/engine"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	// ErrNoLayout is returned when neither a layout nor a default config is available.
	ErrNoLayout = errors.New("no layout available")
)

// PatrolService defines all patrol analysis operations
type PatrolService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string, layout []string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Analysis
	Trace(ctx context.Context, sessionID string) (*TraceReport, error)
	Search(ctx context.Context, sessionID string, opts engine.SearchOptions) (*SearchReport, error)
	Analyze(ctx context.Context, layout []string, opts engine.SearchOptions) (*AnalyzeReport, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.PuzzleConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.PuzzleConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.PuzzleConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles puzzle configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.PuzzleConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.PuzzleConfig
	SaveConfig(name string, config *engine.PuzzleConfig) error
}

// Session is one parsed puzzle under analysis. The grid never changes, so the
// baseline trace is computed once and shared by every later query.
type Session struct {
	ID        string
	Grid      *engine.Grid
	Config    *engine.PuzzleConfig
	CreatedAt time.Time

	lastAccessed atomic.Int64
	baselineOnce sync.Once
	baseline     engine.TraceResult
	baselineErr  error
}

// LastAccessedAt returns when the session was last used.
func (s *Session) LastAccessedAt() time.Time {
	return time.Unix(0, s.lastAccessed.Load())
}

// Touch records t as the last access time.
func (s *Session) Touch(t time.Time) {
	s.lastAccessed.Store(t.UnixNano())
}

// Baseline returns the session's baseline trace, computing it on first use.
func (s *Session) Baseline() (engine.TraceResult, error) {
	s.baselineOnce.Do(func() {
		s.baseline, s.baselineErr = engine.TraceGrid(s.Grid)
	})
	return s.baseline, s.baselineErr
}

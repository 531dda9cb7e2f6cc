package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/guard-patrol/patrol/engine"
)

// MaxWorkers caps the concurrency of a single obstruction search
const MaxWorkers = 64

// patrolServiceImpl implements the PatrolService interface
type patrolServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewPatrolService creates a new patrol service instance
func NewPatrolService(sessions SessionManager, configs ConfigManager) PatrolService {
	return &patrolServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// CreateSession creates a session from an inline layout when one is given,
// otherwise from the named config, otherwise from the default config.
func (s *patrolServiceImpl) CreateSession(ctx context.Context, configName string, layout []string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.PuzzleConfig
	switch {
	case len(layout) > 0:
		name := configName
		if name == "" {
			name = "inline"
		}
		config = &engine.PuzzleConfig{
			Name:        name,
			Description: "Inline layout",
			Layout:      layout,
		}
	case configName != "":
		loaded, err := s.configs.LoadConfig(configName)
		if err != nil {
			return nil, s.configError(configName, err)
		}
		config = loaded
	default:
		config = s.configs.GetDefault()
		if config == nil {
			return nil, ErrNoLayout
		}
	}

	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sessionsCreated.Inc()

	return newSessionInfo(session), nil
}

// configError adds the list of available configs to a not-found error.
func (s *patrolServiceImpl) configError(configName string, err error) error {
	available, listErr := s.configs.ListConfigs()
	if listErr != nil || len(available) == 0 {
		return fmt.Errorf("failed to load config %s: %w", configName, err)
	}

	ids := make([]string, 0, len(available))
	for _, cfg := range available {
		ids = append(ids, cfg.ConfigID)
	}
	return fmt.Errorf("failed to load config %s (available: %v): %w", configName, ids, err)
}

func newSessionInfo(session *Session) *SessionInfo {
	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     session.Config.Name,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt(),
		Width:          session.Grid.Width(),
		Height:         session.Grid.Height(),
		Start:          session.Grid.Start(),
		Config:         session.Config,
	}
}

// GetSession retrieves session information
func (s *patrolServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	return newSessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *patrolServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, newSessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *patrolServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// touch fetches a session and refreshes its last-accessed time.
func (s *patrolServiceImpl) touch(sessionID string) (*Session, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	return session, nil
}

// Trace returns the session's baseline patrol. A baseline that cycles is
// reported as engine.ErrBaselineCycle.
func (s *patrolServiceImpl) Trace(ctx context.Context, sessionID string) (*TraceReport, error) {
	s.mu.RLock()
	session, err := s.touch(sessionID)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := session.Baseline()
	if err != nil {
		tracesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	tracesTotal.WithLabelValues(result.Outcome.String()).Inc()

	if result.Outcome == engine.CycleDetected {
		return nil, fmt.Errorf("session %s: %w (state %+v repeats)", sessionID, engine.ErrBaselineCycle, result.Repeated)
	}

	exit, _ := result.Path.Last()
	return &TraceReport{
		RunID:      uuid.NewString(),
		SessionID:  session.ID,
		Outcome:    result.Outcome,
		Visited:    result.Path.DistinctCount(),
		PathLength: result.Path.Len(),
		Steps:      result.Steps,
		Start:      session.Grid.Start(),
		Exit:       exit,
		Rendered:   engine.Render(session.Grid, result.Path, nil),
		DurationMs: time.Since(started).Milliseconds(),
	}, nil
}

// Search counts obstruction sites that trap the session's guard in a loop.
func (s *patrolServiceImpl) Search(ctx context.Context, sessionID string, opts engine.SearchOptions) (*SearchReport, error) {
	s.mu.RLock()
	session, err := s.touch(sessionID)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	baseline, err := session.Baseline()
	if err != nil {
		searchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if baseline.Outcome == engine.CycleDetected {
		searchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("session %s: %w", sessionID, engine.ErrBaselineCycle)
	}

	opts.Workers = normalizeWorkers(opts.Workers)
	started := time.Now()
	result, err := engine.SearchObstructions(ctx, session.Grid, baseline.Path, opts)
	elapsed := time.Since(started)
	if err != nil {
		searchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	searchesTotal.WithLabelValues("ok").Inc()
	searchDuration.Observe(elapsed.Seconds())
	searchCandidates.Observe(float64(result.Candidates))

	return &SearchReport{
		RunID:      uuid.NewString(),
		SessionID:  session.ID,
		Count:      result.Count,
		Sites:      result.Sites,
		Candidates: result.Candidates,
		Steps:      result.Steps,
		Workers:    opts.Workers,
		DurationMs: elapsed.Milliseconds(),
	}, nil
}

// Analyze answers both queries for a layout without creating a session.
func (s *patrolServiceImpl) Analyze(ctx context.Context, layout []string, opts engine.SearchOptions) (*AnalyzeReport, error) {
	grid, err := engine.ParseGrid(layout)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	baseline, err := engine.TraceGrid(grid)
	if err != nil {
		tracesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	tracesTotal.WithLabelValues(baseline.Outcome.String()).Inc()

	if baseline.Outcome == engine.CycleDetected {
		return nil, fmt.Errorf("%w (state %+v repeats)", engine.ErrBaselineCycle, baseline.Repeated)
	}

	opts.Workers = normalizeWorkers(opts.Workers)
	result, err := engine.SearchObstructions(ctx, grid, baseline.Path, opts)
	if err != nil {
		searchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	searchesTotal.WithLabelValues("ok").Inc()
	searchCandidates.Observe(float64(result.Candidates))

	elapsed := time.Since(started)
	searchDuration.Observe(elapsed.Seconds())

	return &AnalyzeReport{
		RunID:        uuid.NewString(),
		Width:        grid.Width(),
		Height:       grid.Height(),
		Obstructions: grid.CountObstructions(),
		Start:        grid.Start(),
		Visited:      baseline.Path.DistinctCount(),
		LoopSites:    result.Count,
		Sites:        result.Sites,
		DurationMs:   elapsed.Milliseconds(),
	}, nil
}

// normalizeWorkers maps 0 to one worker per CPU and clamps to MaxWorkers.
func normalizeWorkers(workers int) int {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}
	return workers
}

// ListConfigs returns all available puzzle configurations
func (s *patrolServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a puzzle configuration by name
func (s *patrolServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.PuzzleConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig validates and stores a puzzle configuration
func (s *patrolServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.PuzzleConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.configs.SaveConfig(configName, config)
}

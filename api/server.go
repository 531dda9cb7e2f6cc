package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wricardo/guard-patrol/patrol/config"
	"github.com/wricardo/guard-patrol/patrol/engine"
	"github.com/wricardo/guard-patrol/patrol/service"
	"github.com/wricardo/guard-patrol/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.PatrolService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil when no WebSocket
// clients are served.
func NewServer(patrolService service.PatrolService, hub *websocket.Hub) *Server {
	s := &Server{
		service: patrolService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Analysis
	api.HandleFunc("/sessions/{id}/trace", s.handleTrace).Methods("GET")
	api.HandleFunc("/sessions/{id}/search", s.handleSearch).Methods("POST")
	api.HandleFunc("/analyze", s.handleAnalyze).Methods("POST")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.Handle("/metrics", promhttp.Handler())
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service and engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, config.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSessionAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, engine.ErrBaselineCycle):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrGridTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, engine.ErrMalformedGrid),
		errors.Is(err, engine.ErrNoStart),
		errors.Is(err, engine.ErrMultipleStarts),
		errors.Is(err, config.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

// decodeOptional decodes a JSON body when one is present. An empty body is
// not an error.
func decodeOptional(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string   `json:"config_id,omitempty"`
		ConfigName string   `json:"config_name,omitempty"` // Deprecated, use config_id
		Layout     []string `json:"layout,omitempty"`
	}

	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	configID := req.ConfigID
	if configID == "" {
		configID = req.ConfigName
	}

	session, err := s.service.CreateSession(r.Context(), configID, req.Layout)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[SESSION] created id=%s config=%s size=%dx%d", session.ID, session.ConfigName, session.Width, session.Height)
	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	total := len(sessions)

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default)
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy != "created" {
		sortBy = "accessed"
	}
	if order != "asc" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(info.ID, websocket.EventSessionDeleted, nil)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Analysis Handlers

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	report, err := s.service.Trace(r.Context(), sessionID)
	if err != nil {
		log.Printf("[TRACE] session=%s error=%v", sessionID, err)
		respondServiceError(w, err)
		return
	}

	if r.URL.Query().Get("render") == "false" {
		report.Rendered = nil
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(report.SessionID, websocket.EventTraceComplete, report)
	}

	log.Printf("[TRACE] session=%s run=%s visited=%d steps=%d exit=(%d,%d) %dms",
		sessionID, report.RunID, report.Visited, report.Steps, report.Exit.Pos.X, report.Exit.Pos.Y, report.DurationMs)

	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Workers int `json:"workers,omitempty"`
	}
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Workers < 0 {
		respondError(w, http.StatusBadRequest, "workers must not be negative")
		return
	}

	report, err := s.service.Search(r.Context(), sessionID, engine.SearchOptions{Workers: req.Workers})
	if err != nil {
		log.Printf("[SEARCH] session=%s error=%v", sessionID, err)
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(report.SessionID, websocket.EventSearchComplete, report)
	}

	log.Printf("[SEARCH] session=%s run=%s sites=%d candidates=%d workers=%d %dms",
		sessionID, report.RunID, report.Count, report.Candidates, report.Workers, report.DurationMs)

	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Layout  []string `json:"layout"`
		Text    string   `json:"text,omitempty"`
		Workers int      `json:"workers,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	layout := req.Layout
	if len(layout) == 0 && strings.TrimSpace(req.Text) != "" {
		layout = engine.SplitLayout(req.Text)
	}
	if len(layout) == 0 {
		respondError(w, http.StatusBadRequest, "layout is required")
		return
	}

	report, err := s.service.Analyze(r.Context(), layout, engine.SearchOptions{Workers: req.Workers})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[ANALYZE] run=%s size=%dx%d visited=%d sites=%d %dms",
		report.RunID, report.Width, report.Height, report.Visited, report.LoopSites, report.DurationMs)

	respondJSON(w, http.StatusOK, report)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	cfg, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var puzzle engine.PuzzleConfig
	if err := json.NewDecoder(r.Body).Decode(&puzzle); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if puzzle.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	if err := s.service.SaveConfig(r.Context(), puzzle.Name, &puzzle); err != nil {
		respondError(w, statusFor(err), fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": puzzle.Name,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "WebSocket not available", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, info.ID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

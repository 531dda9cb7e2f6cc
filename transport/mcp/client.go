package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/guard-patrol/patrol/engine"
	"github.com/wricardo/guard-patrol/patrol/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Guard Patrol Analyzer",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Guard Patrol Analyzer - MCP Interface

This is a thin client that proxies all requests to the REST API server.

A layout is a rectangle of '.' (open) and '#' (obstruction) with exactly one
guard marker: ^ > v <. The guard walks forward, turns right in front of an
obstruction, and stops when it steps off the grid.

AVAILABLE TOOLS:
- patrol_rules: Movement rules and layout format
- create_session: Create a session from a stored config or an inline layout
- get_session / list_sessions: Inspect sessions
- trace_patrol: Count distinct cells the guard visits before leaving
- search_obstructions: Find positions where one new obstruction traps the guard in a loop
- analyze_layout: Both answers for a layout without creating a session
- list_configs: List stored layouts`),
	)

	c.registerTools()
}

func sessionIDSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func workersSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Parallel workers for the search (optional, default one per CPU)",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "patrol_rules",
		Description: "Explain the guard's movement rules and the layout format",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handlePatrolRules)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create an analysis session from a stored config or an inline layout",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Stored config to use (optional, see list_configs)",
				},
				"layout": map[string]interface{}{
					"type":        "string",
					"description": "Inline layout, one row per line (optional, overrides config_id)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active analysis sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDSchema(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "trace_patrol",
		Description: "Trace the guard's patrol and count the distinct cells it visits before leaving the grid",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDSchema(),
				"render": map[string]interface{}{
					"type":        "boolean",
					"description": "Include the map with visited cells marked X (default true)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleTracePatrol)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "search_obstructions",
		Description: "Find every position where adding one obstruction traps the guard in a loop",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDSchema(),
				"workers":    workersSchema(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleSearchObstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "analyze_layout",
		Description: "Answer both questions for a layout without creating a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"layout": map[string]interface{}{
					"type":        "string",
					"description": "Layout, one row per line",
				},
				"workers": workersSchema(),
			},
			Required: []string{"layout"},
		},
	}, c.handleAnalyzeLayout)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List stored layouts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

// intArg reads a JSON number argument; MCP clients send numbers as float64.
func intArg(args map[string]interface{}, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := map[string]interface{}{}
	if configID := stringArg(args, "config_id"); configID != "" {
		body["config_id"] = configID
	}
	if layout := stringArg(args, "layout"); layout != "" {
		body["layout"] = engine.SplitLayout(layout)
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&b, "- %s (Config: %s, %dx%d, Created: %s)\n",
			s.ID, s.ConfigName, s.Width, s.Height, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+url.PathEscape(sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleTracePatrol(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")

	path := "/api/sessions/" + url.PathEscape(sessionID) + "/trace"
	if render, ok := args["render"].(bool); ok && !render {
		path += "?render=false"
	}

	var report service.TraceReport
	if err := c.apiCall(ctx, "GET", path, nil, &report); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTraceReport(&report)), nil
}

func (c *Client) handleSearchObstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")

	body := map[string]int{}
	if workers := intArg(args, "workers"); workers > 0 {
		body["workers"] = workers
	}

	var report service.SearchReport
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/search"
	if err := c.apiCall(ctx, "POST", path, body, &report); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSearchReport(&report)), nil
}

func (c *Client) handleAnalyzeLayout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	layout := stringArg(args, "layout")
	if layout == "" {
		return mcp.NewToolResultError("layout is required"), nil
	}

	body := map[string]interface{}{"layout": engine.SplitLayout(layout)}
	if workers := intArg(args, "workers"); workers > 0 {
		body["workers"] = workers
	}

	var report service.AnalyzeReport
	if err := c.apiCall(ctx, "POST", "/api/analyze", body, &report); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatAnalyzeReport(&report)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Grid: %dx%d\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.Width, cfg.Height)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handlePatrolRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rules := `Guard Patrol Rules

LAYOUT:
  .  open floor
  #  obstruction
  ^ > v <  the guard's starting cell and heading (exactly one)
Rows must all have the same width. Coordinates are (x, y) with (0, 0) at the
top-left; x is the column and y the row.

MOVEMENT (one step at a time):
  1. Look at the cell directly ahead.
  2. If it is outside the grid, the guard leaves and the patrol ends.
  3. If it is an obstruction, the guard turns 90 degrees clockwise in place.
  4. Otherwise the guard steps forward.

QUESTIONS:
  trace_patrol         How many distinct cells does the guard visit, including
                       the start, before leaving?
  search_obstructions  At how many positions would one new obstruction make the
                       guard patrol forever? The start cell never counts, and
                       only cells on the original route can change anything.

A patrol loops when the guard returns to a cell it has visited while facing the
same direction.`

	return mcp.NewToolResultText(rules), nil
}

// Formatting helpers

func formatState(s engine.State) string {
	return fmt.Sprintf("(%d,%d) facing %s", s.Pos.X, s.Pos.Y, s.Heading)
}

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nConfig: %s\nGrid: %dx%d\nGuard: %s\nCreated: %s\n",
		session.ID, session.ConfigName, session.Width, session.Height,
		formatState(session.Start), session.CreatedAt.Format("2006-01-02 15:04:05"))
	if session.Config != nil && len(session.Config.Layout) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(session.Config.Layout, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

func formatTraceReport(report *service.TraceReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Patrol %s for session %s\n", report.Outcome, report.SessionID)
	fmt.Fprintf(&b, "Visited cells: %d\n", report.Visited)
	fmt.Fprintf(&b, "Path states: %d, steps: %d\n", report.PathLength, report.Steps)
	fmt.Fprintf(&b, "Start: %s\nLast: %s\n", formatState(report.Start), formatState(report.Exit))
	if len(report.Rendered) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(report.Rendered, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

func formatSites(sites []engine.Position) string {
	parts := make([]string, len(sites))
	for i, p := range sites {
		parts[i] = fmt.Sprintf("(%d,%d)", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

func formatSearchReport(report *service.SearchReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Loop sites for session %s: %d\n", report.SessionID, report.Count)
	fmt.Fprintf(&b, "Candidates tried: %d, steps: %d, workers: %d, %dms\n",
		report.Candidates, report.Steps, report.Workers, report.DurationMs)
	if len(report.Sites) > 0 {
		fmt.Fprintf(&b, "Sites: %s\n", formatSites(report.Sites))
	}
	return b.String()
}

func formatAnalyzeReport(report *service.AnalyzeReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Grid: %dx%d, obstructions: %d\n", report.Width, report.Height, report.Obstructions)
	fmt.Fprintf(&b, "Guard: %s\n", formatState(report.Start))
	fmt.Fprintf(&b, "Visited cells: %d\n", report.Visited)
	fmt.Fprintf(&b, "Loop sites: %d\n", report.LoopSites)
	if len(report.Sites) > 0 {
		fmt.Fprintf(&b, "Sites: %s\n", formatSites(report.Sites))
	}
	return b.String()
}

// Package mcp exposes the patrol analyzer to AI agents over the Model Context
// Protocol.
//
// Client is a thin proxy: every tool handler calls the REST API and formats
// the JSON response as text. The same MCPServer is served over stdio
// (server.ServeStdio) or through the HTTP /mcp endpoint.
//
// Tools:
//   - patrol_rules: movement rules and layout format
//   - create_session, get_session, list_sessions
//   - trace_patrol: visited-cell count and rendered route
//   - search_obstructions: loop-inducing obstruction sites
//   - analyze_layout: both answers without a session
//   - list_configs
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp

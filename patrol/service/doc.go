// Package service provides the business logic layer for the guard patrol analyzer.
//
// Core Interfaces:
//
// PatrolService is the main service interface. It creates analysis sessions
// from stored or inline layouts and answers the two patrol queries: the
// distinct cells the guard covers before leaving the grid (Trace), and the
// positions where one added obstruction traps the guard in a loop (Search).
// SessionManager stores sessions. ConfigManager loads stored layouts.
//
// Architecture:
//
// The service sits between the transports (HTTP, WebSocket, MCP) and the
// engine. A session owns one immutable grid; its baseline trace is computed
// once and reused by every later query, and searches fan out across workers
// using that baseline as a read-only prefix source.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	svc := service.NewPatrolService(sessionMgr, configMgr)
//
//	info, err := svc.CreateSession(ctx, "example", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report, err := svc.Search(ctx, info.ID, engine.SearchOptions{Workers: 8})
package service

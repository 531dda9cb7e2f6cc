// Package websocket pushes analysis events to browsers watching a session.
//
// A single Hub goroutine owns the client registry. Clients connect with
// ?session=<id> and receive one JSON Message per event:
//
//	{"session_id":"a1b2","event":"search_complete","data":{...}}
//
// Events are trace_complete, search_complete and session_deleted. Clients
// never send commands; the read pump only keeps the connection alive.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	hub.BroadcastEvent(sessionID, websocket.EventTraceComplete, report)
package websocket

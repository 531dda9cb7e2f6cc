// Package api provides the HTTP REST API for the guard patrol analyzer.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session from {config_id} or an inline {layout}
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get one session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Analysis:
//   - GET /api/sessions/{id}/trace - Baseline patrol: visited count and rendered map (?render=false to omit)
//   - POST /api/sessions/{id}/search - Loop-inducing obstruction sites ({workers})
//   - POST /api/analyze - Both answers for a layout without creating a session
//
// Configuration:
//   - GET /api/configs - List stored layouts
//   - GET /api/configs/{name} - Get one layout
//   - POST /api/configs - Store a layout
//
// Operational:
//   - GET /api/health
//   - GET /metrics - Prometheus metrics
//   - GET /ws?session={id} - WebSocket event stream for a session
//
// Errors are returned as {"error": "..."}. Layout errors map to 400, unknown
// sessions and configs to 404, and a layout whose baseline patrol never exits
// to 422.
package api

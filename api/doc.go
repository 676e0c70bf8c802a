// Package api provides the HTTP REST API for the board game arena.
//
// Endpoints:
//
// Catalog:
//   - GET /api/health - Liveness probe
//   - GET /api/variants - Playable variants with rules summaries
//
// Sessions:
//   - POST /api/sessions - Create a session {variant, human_side}
//   - GET /api/sessions - List sessions (?sort=created|updated&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Session summary with the current snapshot
//   - GET /api/sessions/{id}/state - Current snapshot
//
// Moves:
//   - POST /api/sessions/{id}/move - Human move {from, to, mover, auto_reply}
//   - POST /api/sessions/{id}/opponent-move - Opponent move {from, to}, or an
//     empty body to let the configured opponent choose
//   - GET /api/sessions/{id}/legal-moves?from=e2 - Destinations for the side to move
//   - GET /api/sessions/{id}/history?page=1&limit=20&order=desc - Paginated history
//
// Other:
//   - GET /api/sessions/{id}/board.png - Rendered board
//   - GET /api/archive/{id} - Last archived snapshot
//   - GET /ws?session={id} - WebSocket stream of snapshots
//
// Tic-tac-toe moves send the cell ("1".."9") in "to".
//
// Error Handling:
//
// Errors are returned as JSON. Move rejections include their kind:
//
//	{"error": "e7 belongs to black, white to move", "kind": "out_of_turn"}
//
// Status codes: invalid_square 400, no_session_found 404,
// session_terminated 409, out_of_turn 409, empty_origin 422,
// illegal_move 422, unknown variant or side 400, opponent failure 502,
// no opponent configured 501.
package api

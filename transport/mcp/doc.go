// Package mcp exposes the board game arena to AI agents over the Model
// Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API, so agents and browsers share the same sessions and validation.
// It runs either over stdio (see main's stdio-mcp command) or behind the
// /mcp HTTP endpoint.
//
// MCP Tools:
//   - list_variants, game_instructions: catalog and rules
//   - create_session, list_sessions, get_session: session management
//   - game_state, legal_moves, describe_square, move_history: reads
//   - move: play as the human side, optionally with an immediate reply
//   - opponent_move: let the automated opponent move, or move on its behalf
//
// Tool results are plain text built from the engine's text board so that
// language models can read positions without parsing JSON. Rejections are
// returned as tool errors carrying the rejection kind, e.g.
// "Move rejected: illegal_move: pawn cannot move from e2 to e5".
package mcp

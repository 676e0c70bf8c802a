// Package chess implements the board model and move-legality rules for chess.
//
// Squares are zero-based (file 0 is "a", rank 0 is "1") and format as
// algebraic text. Pieces are identified on the wire by one of twelve glyphs:
//
//	white: ♔ ♕ ♖ ♗ ♘ ♙
//	black: ♚ ♛ ♜ ♝ ♞ ♟
//
// IsLegal applies its checks in a fixed order: both squares on the board,
// origin occupied, piece owned by the mover, no self-capture, then the
// per-kind geometry with path obstruction for sliding pieces. Check, castling,
// en passant, promotion and draw rules are outside this package.
//
// Board.Apply relocates a piece without validating anything; callers decide
// legality first.
package chess

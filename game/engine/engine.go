package engine

import (
	"errors"
	"fmt"
)

// ErrUnknownVariant is returned when a variant name is not supported.
var ErrUnknownVariant = errors.New("unknown variant")

// Engine is the variant-specific board and rule set behind a Game.
// Implementations are not safe for concurrent use; Game serialises access.
type Engine interface {
	Variant() Variant

	// Sides returns both sides, first mover first.
	Sides() [2]Side

	// Check validates a move for side without changing anything.
	// Rejections are *MoveError values.
	Check(from, to string, side Side) (Play, error)

	// Apply performs a move previously returned by Check.
	Apply(p Play)

	// Result reports whether the position is final and who won.
	Result() (over bool, outcome Outcome)

	// Destinations lists target squares for the piece on from, or free cells
	// for placement games.
	Destinations(from string, side Side) ([]string, error)

	Board() map[string]string
	Text() string
}

// NewEngine returns a fresh engine in the variant's starting position.
func NewEngine(v Variant) (Engine, error) {
	switch v {
	case Chess:
		return newChessEngine(), nil
	case TicTacToe:
		return newTicTacToeEngine(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
}

package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSide is returned when a side does not belong to the variant.
var ErrInvalidSide = errors.New("invalid side")

// VariantInfo describes a playable variant for listings and prompts.
type VariantInfo struct {
	Name         Variant `json:"name"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Sides        [2]Side `json:"sides"`
	DefaultHuman Side    `json:"default_human_side"`
	SquareFormat string  `json:"square_format"`
	Instructions string  `json:"instructions"`
}

var catalog = []VariantInfo{
	{
		Name:         Chess,
		Title:        "Chess",
		Description:  "Standard opening position with basic piece movement. No check, castling, en passant or promotion.",
		Sides:        [2]Side{White, Black},
		DefaultHuman: White,
		SquareFormat: "file a-h followed by rank 1-8, e.g. e2",
		Instructions: `CHESS
White moves first; sides alternate.
A move names an origin and a destination square, e.g. from "e2" to "e4".
Pawns advance one square (two from their starting rank) and capture diagonally.
Knights jump in an L. Bishops, rooks and queens slide along clear lines.
Kings step one square. Capturing your own piece is never allowed.
Check, checkmate, castling, en passant and promotion are not enforced, so the
game does not end by itself.`,
	},
	{
		Name:         TicTacToe,
		Title:        "Tic-Tac-Toe",
		Description:  "3x3 grid. Three in a row wins, a full board is a draw.",
		Sides:        [2]Side{X, O},
		DefaultHuman: X,
		SquareFormat: "cell number 1-9, numbered left to right from the top row",
		Instructions: `TIC-TAC-TOE
X moves first; sides alternate.
A move names one free cell 1-9:
 1|2|3
 4|5|6
 7|8|9
Three marks in a row, column or diagonal win. A full board without a line is a draw.`,
	},
}

// Variants returns the catalog in display order.
func Variants() []VariantInfo {
	out := make([]VariantInfo, len(catalog))
	copy(out, catalog)
	return out
}

// LookupVariant returns the catalog entry for v.
func LookupVariant(v Variant) (VariantInfo, error) {
	for _, info := range catalog {
		if info.Name == v {
			return info, nil
		}
	}
	return VariantInfo{}, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
}

// ParseVariant normalises user input. The empty string selects chess.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "chess":
		return Chess, nil
	case "tictactoe", "tic-tac-toe", "tic_tac_toe", "ttt":
		return TicTacToe, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

// ParseSide normalises a side name for variant v. The empty string yields
// the variant's default human side.
func ParseSide(v Variant, s string) (Side, error) {
	info, err := LookupVariant(v)
	if err != nil {
		return "", err
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return info.DefaultHuman, nil
	}
	for _, side := range info.Sides {
		if string(side) == s {
			return side, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not a %s side", ErrInvalidSide, s, v)
}

// Opposite returns the other side of the same variant.
func Opposite(side Side) Side {
	switch side {
	case White:
		return Black
	case Black:
		return White
	case X:
		return O
	case O:
		return X
	default:
		return ""
	}
}

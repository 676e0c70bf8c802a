package chess

import "fmt"

// Color identifies the side a piece belongs to.
type Color int

const (
	White Color = iota
	Black
)

// Opponent returns the other color.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// ParseColor accepts "white" or "black".
func ParseColor(s string) (Color, error) {
	switch s {
	case "white":
		return White, nil
	case "black":
		return Black, nil
	default:
		return White, fmt.Errorf("unknown color %q", s)
	}
}

// Kind is the closed set of piece types. The zero value is not a piece.
type Kind int

const (
	Pawn Kind = iota + 1
	Knight
	Bishop
	Rook
	Queen
	King
)

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "none"
	}
}

// Value is the conventional material value of the kind. Kings count as zero.
func (k Kind) Value() int {
	switch k {
	case Pawn:
		return 1
	case Knight, Bishop:
		return 3
	case Rook:
		return 5
	case Queen:
		return 9
	default:
		return 0
	}
}

// Piece is an immutable color and kind pair.
type Piece struct {
	Color Color
	Kind  Kind
}

// IsZero reports whether p is the empty piece.
func (p Piece) IsZero() bool { return p.Kind == 0 }

// Glyph returns the single-character symbol used on the wire.
func (p Piece) Glyph() string {
	for g, q := range glyphs {
		if q == p {
			return g
		}
	}
	return ""
}

func (p Piece) String() string {
	if p.IsZero() {
		return "empty"
	}
	return p.Color.String() + " " + p.Kind.String()
}

var glyphs = map[string]Piece{
	"♔": {White, King},
	"♕": {White, Queen},
	"♖": {White, Rook},
	"♗": {White, Bishop},
	"♘": {White, Knight},
	"♙": {White, Pawn},
	"♚": {Black, King},
	"♛": {Black, Queen},
	"♜": {Black, Rook},
	"♝": {Black, Bishop},
	"♞": {Black, Knight},
	"♟": {Black, Pawn},
}

// PieceFromGlyph looks a glyph up in the catalog.
func PieceFromGlyph(glyph string) (Piece, bool) {
	p, ok := glyphs[glyph]
	return p, ok
}

// ColorOf returns the color of a glyph, or false if the glyph is not one of the twelve.
func ColorOf(glyph string) (Color, bool) {
	p, ok := glyphs[glyph]
	if !ok {
		return White, false
	}
	return p.Color, true
}

// KindOf returns the kind of a glyph, or false if the glyph is not one of the twelve.
func KindOf(glyph string) (Kind, bool) {
	p, ok := glyphs[glyph]
	if !ok {
		return 0, false
	}
	return p.Kind, true
}

package chess

import (
	"fmt"
	"strings"
)

// Board holds at most one piece per square. The zero value is an empty board.
type Board struct {
	cells [8][8]Piece
}

var backRank = [8]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// StandardSetup returns the initial chess position.
func StandardSetup() *Board {
	b := &Board{}
	for file := 0; file < 8; file++ {
		b.cells[0][file] = Piece{White, backRank[file]}
		b.cells[1][file] = Piece{White, Pawn}
		b.cells[6][file] = Piece{Black, Pawn}
		b.cells[7][file] = Piece{Black, backRank[file]}
	}
	return b
}

// At returns the piece on sq and whether the square is occupied.
func (b *Board) At(sq Square) (Piece, bool) {
	if !sq.Valid() {
		return Piece{}, false
	}
	p := b.cells[sq.Rank][sq.File]
	return p, !p.IsZero()
}

// Set places p on sq, replacing anything already there.
func (b *Board) Set(sq Square, p Piece) {
	if sq.Valid() {
		b.cells[sq.Rank][sq.File] = p
	}
}

// Clear empties sq.
func (b *Board) Clear(sq Square) {
	if sq.Valid() {
		b.cells[sq.Rank][sq.File] = Piece{}
	}
}

// Apply moves whatever stands on from to to and returns the piece that was
// captured, if any. It does not check legality.
func (b *Board) Apply(from, to Square) Piece {
	moving, _ := b.At(from)
	captured, _ := b.At(to)
	b.Clear(from)
	b.Set(to, moving)
	return captured
}

// Clone returns an independent copy.
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// Count returns the number of pieces on the board.
func (b *Board) Count() int {
	n := 0
	for _, sq := range AllSquares() {
		if _, ok := b.At(sq); ok {
			n++
		}
	}
	return n
}

// Glyphs renders occupied squares as algebraic square to glyph.
func (b *Board) Glyphs() map[string]string {
	out := make(map[string]string, 32)
	for _, sq := range AllSquares() {
		if p, ok := b.At(sq); ok {
			out[sq.String()] = p.Glyph()
		}
	}
	return out
}

// BoardFromGlyphs rebuilds a board from a square to glyph map.
func BoardFromGlyphs(m map[string]string) (*Board, error) {
	b := &Board{}
	for k, g := range m {
		sq, err := ParseSquare(k)
		if err != nil {
			return nil, err
		}
		p, ok := PieceFromGlyph(g)
		if !ok {
			return nil, fmt.Errorf("unknown glyph %q on %s", g, k)
		}
		b.Set(sq, p)
	}
	return b, nil
}

// Material sums piece values for one color.
func (b *Board) Material(c Color) int {
	total := 0
	for _, sq := range AllSquares() {
		if p, ok := b.At(sq); ok && p.Color == c {
			total += p.Kind.Value()
		}
	}
	return total
}

// Text renders the board from rank 8 down to rank 1 with '.' for empty squares.
func (b *Board) Text() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d ", rank+1)
		for file := 0; file < 8; file++ {
			if p, ok := b.At(Square{file, rank}); ok {
				sb.WriteString(p.Glyph())
			} else {
				sb.WriteString(".")
			}
			if file < 7 {
				sb.WriteString(" ")
			}
		}
		fmt.Fprintf(&sb, " %d\n", rank+1)
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}

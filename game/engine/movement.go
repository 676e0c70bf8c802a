package engine

import (
	"errors"

	"github.com/wricardo/mcp-training/boardgames/game/chess"
)

// chessEngine adapts the chess rules package to the Engine interface.
type chessEngine struct {
	board *chess.Board
}

func newChessEngine() *chessEngine {
	return &chessEngine{board: chess.StandardSetup()}
}

func (e *chessEngine) Variant() Variant { return Chess }

func (e *chessEngine) Sides() [2]Side { return [2]Side{White, Black} }

func (e *chessEngine) Check(from, to string, side Side) (Play, error) {
	src, err := chess.ParseSquare(from)
	if err != nil {
		return Play{}, rejectf(KindInvalidSquare, "invalid square %q", from)
	}
	dst, err := chess.ParseSquare(to)
	if err != nil {
		return Play{}, rejectf(KindInvalidSquare, "invalid square %q", to)
	}

	piece, ok := e.board.At(src)
	if !ok {
		return Play{}, rejectf(KindEmptyOrigin, "no piece on %s", from)
	}
	color := colorOf(side)
	if piece.Color != color {
		return Play{}, rejectf(KindOutOfTurn, "%s belongs to %s, %s to move", from, piece.Color, color)
	}
	if !chess.IsLegal(e.board, src, dst, color) {
		return Play{}, rejectf(KindIllegalMove, "%s cannot move from %s to %s", piece.Kind, from, to)
	}

	play := Play{From: src.String(), To: dst.String(), Piece: piece.Glyph()}
	if captured, ok := e.board.At(dst); ok {
		play.Captured = captured.Glyph()
	}
	return play, nil
}

func (e *chessEngine) Apply(p Play) {
	src, err1 := chess.ParseSquare(p.From)
	dst, err2 := chess.ParseSquare(p.To)
	if err := errors.Join(err1, err2); err != nil {
		return
	}
	e.board.Apply(src, dst)
}

// Result never ends a chess game: mate and draw detection are not implemented.
func (e *chessEngine) Result() (bool, Outcome) { return false, NoOutcome }

func (e *chessEngine) Destinations(from string, side Side) ([]string, error) {
	src, err := chess.ParseSquare(from)
	if err != nil {
		return nil, rejectf(KindInvalidSquare, "invalid square %q", from)
	}
	squares := chess.LegalDestinations(e.board, src, colorOf(side))
	out := make([]string, 0, len(squares))
	for _, sq := range squares {
		out = append(out, sq.String())
	}
	return out, nil
}

func (e *chessEngine) Board() map[string]string { return e.board.Glyphs() }

func (e *chessEngine) Text() string { return e.board.Text() }

func colorOf(side Side) chess.Color {
	if side == Black {
		return chess.Black
	}
	return chess.White
}

// SideOf maps a chess color to its Side.
func SideOf(c chess.Color) Side {
	if c == chess.Black {
		return Black
	}
	return White
}

// ChessColor maps a Side to its chess color. Non-chess sides map to white.
func ChessColor(side Side) chess.Color { return colorOf(side) }

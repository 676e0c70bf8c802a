package engine

import (
	"github.com/wricardo/mcp-training/boardgames/game/tictactoe"
)

type ticTacToeEngine struct {
	board tictactoe.Board
}

func newTicTacToeEngine() *ticTacToeEngine {
	return &ticTacToeEngine{}
}

func (e *ticTacToeEngine) Variant() Variant { return TicTacToe }

func (e *ticTacToeEngine) Sides() [2]Side { return [2]Side{X, O} }

// Check accepts the cell in to; from is used when to is empty so callers
// can send a single square either way.
func (e *ticTacToeEngine) Check(from, to string, side Side) (Play, error) {
	cell := to
	if cell == "" {
		cell = from
	}
	i, err := tictactoe.ParseCell(cell)
	if err != nil {
		return Play{}, rejectf(KindInvalidSquare, "invalid cell %q, use 1-9", cell)
	}
	if e.board[i] != tictactoe.Empty {
		return Play{}, rejectf(KindIllegalMove, "cell %s is already taken by %s", cell, e.board[i])
	}
	return Play{To: tictactoe.CellName(i), Piece: string(markOf(side))}, nil
}

func (e *ticTacToeEngine) Apply(p Play) {
	i, err := tictactoe.ParseCell(p.To)
	if err != nil {
		return
	}
	e.board[i] = tictactoe.Mark(p.Piece)
}

func (e *ticTacToeEngine) Result() (bool, Outcome) {
	if m, ok := e.board.Winner(); ok {
		return true, Outcome(sideOfMark(m))
	}
	if e.board.Full() {
		return true, Draw
	}
	return false, NoOutcome
}

// Destinations ignores from and lists the free cells.
func (e *ticTacToeEngine) Destinations(_ string, _ Side) ([]string, error) {
	free := e.board.Available()
	out := make([]string, 0, len(free))
	for _, i := range free {
		out = append(out, tictactoe.CellName(i))
	}
	return out, nil
}

func (e *ticTacToeEngine) Board() map[string]string { return e.board.Cells() }

func (e *ticTacToeEngine) Text() string { return e.board.Text() }

func markOf(side Side) tictactoe.Mark {
	if side == O {
		return tictactoe.O
	}
	return tictactoe.X
}

func sideOfMark(m tictactoe.Mark) Side {
	if m == tictactoe.O {
		return O
	}
	return X
}

// Mark maps a tic-tac-toe side to its board mark.
func Mark(side Side) tictactoe.Mark { return markOf(side) }

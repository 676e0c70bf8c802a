package opponent

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/boardgames/game/chess"
	"github.com/wricardo/mcp-training/boardgames/game/engine"
	"github.com/wricardo/mcp-training/boardgames/game/tictactoe"
)

// ErrNoMoves is returned when the side to move has nothing to play.
var ErrNoMoves = errors.New("no moves available")

// Heuristic plays without outside help. In chess it takes the most valuable
// piece it can capture, otherwise a random legal move. In tic-tac-toe it
// follows the win, block, center, corner, edge order.
type Heuristic struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeuristic seeds the move picker. A zero seed uses the clock.
func NewHeuristic(seed int64) *Heuristic {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Heuristic{rng: rand.New(rand.NewSource(seed))}
}

func (h *Heuristic) Choose(ctx context.Context, snap *engine.Snapshot) (engine.Move, error) {
	if err := ctx.Err(); err != nil {
		return engine.Move{}, err
	}
	switch snap.Variant {
	case engine.Chess:
		return h.chessMove(snap)
	case engine.TicTacToe:
		return h.ticTacToeMove(snap)
	default:
		return engine.Move{}, fmt.Errorf("%w: %q", engine.ErrUnknownVariant, snap.Variant)
	}
}

func (h *Heuristic) chessMove(snap *engine.Snapshot) (engine.Move, error) {
	b, err := chess.BoardFromGlyphs(snap.Board)
	if err != nil {
		return engine.Move{}, err
	}
	moves := chess.LegalMoves(b, engine.ChessColor(snap.Turn))
	if len(moves) == 0 {
		return engine.Move{}, ErrNoMoves
	}

	if m, ok := bestCapture(b, moves); ok {
		return engine.Move{From: m.From.String(), To: m.To.String()}, nil
	}

	h.mu.Lock()
	m := moves[h.rng.Intn(len(moves))]
	h.mu.Unlock()
	return engine.Move{From: m.From.String(), To: m.To.String()}, nil
}

// bestCapture picks the highest-value victim, breaking ties with the
// cheapest attacker, then move order.
func bestCapture(b *chess.Board, moves []chess.Move) (chess.Move, bool) {
	var best chess.Move
	bestVictim, bestAttacker := -1, 0
	for _, m := range moves {
		victim, ok := b.At(m.To)
		if !ok {
			continue
		}
		attacker, _ := b.At(m.From)
		v, a := captureValue(victim.Kind), captureValue(attacker.Kind)
		if v > bestVictim || (v == bestVictim && a < bestAttacker) {
			best, bestVictim, bestAttacker = m, v, a
		}
	}
	return best, bestVictim >= 0
}

func captureValue(k chess.Kind) int {
	if k == chess.King {
		return 100
	}
	return k.Value()
}

func (h *Heuristic) ticTacToeMove(snap *engine.Snapshot) (engine.Move, error) {
	b, err := tictactoe.FromCells(snap.Board)
	if err != nil {
		return engine.Move{}, err
	}
	if i, ok := tictactoe.StrategicMove(b, engine.Mark(snap.Turn)); ok {
		return engine.Move{To: tictactoe.CellName(i)}, nil
	}
	return engine.Move{}, ErrNoMoves
}

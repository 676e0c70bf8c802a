package engine

import (
	"fmt"
	"sync"
	"time"
)

// Game is one session: a board, whose turn it is and the move history.
// All methods are safe for concurrent use; moves on one game are serialised.
type Game struct {
	mu sync.Mutex

	id         string
	engine     Engine
	turn       Side
	human      Side
	history    []MoveRecord
	terminated bool
	outcome    Outcome
	createdAt  time.Time
	updatedAt  time.Time

	now func() time.Time
}

// Option configures a Game.
type Option func(*Game)

// WithClock overrides the time source used for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.now = now }
}

// NewGame starts a game of variant v in its initial position. human must be
// one of the variant's sides, or empty for the default.
func NewGame(id string, v Variant, human Side, opts ...Option) (*Game, error) {
	eng, err := NewEngine(v)
	if err != nil {
		return nil, err
	}
	side, err := ParseSide(v, string(human))
	if err != nil {
		return nil, err
	}

	g := &Game{
		id:     id,
		engine: eng,
		human:  side,
		turn:   eng.Sides()[0],
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.createdAt = g.now()
	g.updatedAt = g.createdAt
	return g, nil
}

func (g *Game) ID() string { return g.id }

func (g *Game) Variant() Variant { return g.engine.Variant() }

func (g *Game) HumanSide() Side { return g.human }

func (g *Game) OpponentSide() Side { return Opposite(g.human) }

// AttemptMove validates and applies a move. An empty mover means "whoever is
// to move". On rejection the game is left untouched and a *MoveError is
// returned.
func (g *Game) AttemptMove(from, to string, mover Side) (*Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.terminated {
		return nil, rejectf(KindSessionTerminated, "game is over: %s", g.message())
	}
	if mover != "" && mover != g.turn {
		return nil, rejectf(KindOutOfTurn, "%s cannot move, %s to move", mover, g.turn)
	}

	play, err := g.engine.Check(from, to, g.turn)
	if err != nil {
		return nil, err
	}

	g.engine.Apply(play)
	ts := g.now()
	g.history = append(g.history, MoveRecord{
		Number:    len(g.history) + 1,
		From:      play.From,
		To:        play.To,
		Piece:     play.Piece,
		Captured:  play.Captured,
		Mover:     g.turn,
		Timestamp: ts,
	})
	g.updatedAt = ts

	if over, outcome := g.engine.Result(); over {
		g.terminated = true
		g.outcome = outcome
	}
	g.turn = Opposite(g.turn)

	return g.snapshot(), nil
}

// Snapshot returns a copy of the current state.
func (g *Game) Snapshot() *Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

// History returns a copy of the move records, oldest first.
func (g *Game) History() []MoveRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]MoveRecord, len(g.history))
	copy(out, g.history)
	return out
}

// Destinations lists legal targets from a square for the side to move.
func (g *Game) Destinations(from string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.terminated {
		return []string{}, nil
	}
	return g.engine.Destinations(from, g.turn)
}

func (g *Game) snapshot() *Snapshot {
	history := make([]MoveRecord, len(g.history))
	copy(history, g.history)
	return &Snapshot{
		ID:           g.id,
		Variant:      g.engine.Variant(),
		Board:        g.engine.Board(),
		BoardText:    g.engine.Text(),
		Turn:         g.turn,
		HumanSide:    g.human,
		OpponentSide: Opposite(g.human),
		History:      history,
		MoveCount:    len(history),
		Terminated:   g.terminated,
		Outcome:      g.outcome,
		Message:      g.message(),
		CreatedAt:    g.createdAt,
		UpdatedAt:    g.updatedAt,
	}
}

func (g *Game) message() string {
	switch {
	case !g.terminated:
		return fmt.Sprintf("%s to move", SideLabel(g.turn))
	case g.outcome == Draw:
		return "Draw"
	default:
		return fmt.Sprintf("%s wins", SideLabel(Side(g.outcome)))
	}
}

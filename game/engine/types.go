package engine

import "time"

// Variant names a supported game.
type Variant string

const (
	Chess     Variant = "chess"
	TicTacToe Variant = "tictactoe"
)

// Side is the party to move. Chess uses white/black, tic-tac-toe uses x/o.
type Side string

const (
	White Side = "white"
	Black Side = "black"
	X     Side = "x"
	O     Side = "o"
)

// Outcome is empty while a game is in progress, otherwise the winning side or draw.
type Outcome string

const (
	NoOutcome Outcome = ""
	Draw      Outcome = "draw"
)

// Move is a requested relocation or placement in wire form. Tic-tac-toe
// moves only use To.
type Move struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
}

// Play is a move that passed validation and is ready to apply.
type Play struct {
	From     string
	To       string
	Piece    string
	Captured string
}

// MoveRecord is one entry of the append-only history.
type MoveRecord struct {
	Number    int       `json:"number"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Piece     string    `json:"piece"`
	Captured  string    `json:"captured,omitempty"`
	Mover     Side      `json:"mover"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is an immutable copy of a game's observable state.
type Snapshot struct {
	ID           string            `json:"id"`
	Variant      Variant           `json:"variant"`
	Board        map[string]string `json:"board"`
	BoardText    string            `json:"board_text"`
	Turn         Side              `json:"turn"`
	HumanSide    Side              `json:"human_side"`
	OpponentSide Side              `json:"opponent_side"`
	History      []MoveRecord      `json:"history"`
	MoveCount    int               `json:"move_count"`
	Terminated   bool              `json:"terminated"`
	Outcome      Outcome           `json:"outcome,omitempty"`
	Message      string            `json:"message"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// LastMove returns the most recent history entry, or nil before the first move.
func (s *Snapshot) LastMove() *MoveRecord {
	if len(s.History) == 0 {
		return nil
	}
	m := s.History[len(s.History)-1]
	return &m
}

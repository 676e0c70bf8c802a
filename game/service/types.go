package service

import (
	"time"

	"github.com/wricardo/mcp-training/boardgames/game/engine"
)

// CreateSessionRequest selects the variant and the human's side. Empty
// fields take the variant defaults.
type CreateSessionRequest struct {
	Variant   string `json:"variant"`
	HumanSide string `json:"human_side"`
}

// MoveRequest is a move submitted on behalf of the human player.
type MoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`

	// Mover is the side the caller believes is moving. Empty skips the check.
	Mover string `json:"mover"`

	// AutoReply asks the configured opponent to answer immediately.
	AutoReply bool `json:"auto_reply"`
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID           string           `json:"id"`
	Variant      engine.Variant   `json:"variant"`
	HumanSide    engine.Side      `json:"human_side"`
	OpponentSide engine.Side      `json:"opponent_side"`
	Turn         engine.Side      `json:"turn"`
	MoveCount    int              `json:"move_count"`
	Terminated   bool             `json:"terminated"`
	Outcome      engine.Outcome   `json:"outcome,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	GameState    *engine.Snapshot `json:"game_state"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success    bool               `json:"success"`
	GameState  *engine.Snapshot   `json:"game_state"`
	Move       *engine.MoveRecord `json:"move,omitempty"`
	Reply      *engine.MoveRecord `json:"reply,omitempty"`
	ReplyError string             `json:"reply_error,omitempty"`
	Message    string             `json:"message"`
	Events     []GameEvent        `json:"events,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"` // "move", "capture", "opponent_move", "game_over"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Square    string    `json:"square,omitempty"`
}

// LegalMovesResponse lists destinations for one origin square.
type LegalMovesResponse struct {
	From         string      `json:"from"`
	Turn         engine.Side `json:"turn"`
	Destinations []string    `json:"destinations"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveRecord `json:"moves"`
	TotalMoves  int                 `json:"total_moves"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
	HasNext     bool                `json:"has_next"`
	HasPrevious bool                `json:"has_previous"`
}

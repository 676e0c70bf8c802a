package service

import (
	"context"

	"github.com/wricardo/mcp-training/boardgames/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)

	// Moves
	PlayerMove(ctx context.Context, sessionID string, req MoveRequest) (*MoveResult, error)
	OpponentMove(ctx context.Context, sessionID, from, to string) (*MoveResult, error)
	RequestOpponentMove(ctx context.Context, sessionID string) (*MoveResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	LegalMoves(ctx context.Context, sessionID, from string) (*LegalMovesResponse, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	GetArchived(ctx context.Context, sessionID string) (*engine.Snapshot, error)

	// Catalog
	ListVariants(ctx context.Context) ([]engine.VariantInfo, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(ctx context.Context, variant engine.Variant, human engine.Side) (string, *engine.Snapshot, error)
	Get(id string) (*engine.Game, error)
	List() []*engine.Game
	Save(ctx context.Context, id string) error
	Archived(ctx context.Context, id string) (*engine.Snapshot, error)
}

// MoveChooser proposes a move for the side to move. Proposals are validated
// like any other move before they are applied.
type MoveChooser interface {
	Choose(ctx context.Context, snap *engine.Snapshot) (engine.Move, error)
}

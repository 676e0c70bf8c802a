package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/boardgames/game/engine"
	"github.com/wricardo/mcp-training/boardgames/internal/obslog"
)

var (
	// ErrNoOpponent is returned when an automated move is requested but no
	// chooser is configured.
	ErrNoOpponent = errors.New("no automated opponent configured")

	// ErrOpponentFailed wraps chooser failures.
	ErrOpponentFailed = errors.New("opponent failed to choose a move")
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	opponent MoveChooser
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures the service.
type Option func(*gameServiceImpl)

// WithOpponent enables RequestOpponentMove and auto replies.
func WithOpponent(c MoveChooser) Option {
	return func(s *gameServiceImpl) { s.opponent = c }
}

// WithLogger sets the logger. Defaults to obslog.L().
func WithLogger(l *zap.Logger) Option {
	return func(s *gameServiceImpl) { s.logger = l }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = obslog.L()
	}
	return s
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error) {
	variant, err := engine.ParseVariant(req.Variant)
	if err != nil {
		return nil, err
	}
	human, err := engine.ParseSide(variant, req.HumanSide)
	if err != nil {
		return nil, err
	}

	_, snap, err := s.sessions.Create(ctx, variant, human)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sessionInfo(snap), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	g, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(g.Snapshot()), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	games := s.sessions.List()
	result := make([]*SessionInfo, 0, len(games))
	for _, g := range games {
		result = append(result, sessionInfo(g.Snapshot()))
	}
	return result, nil
}

// PlayerMove submits a human move and, when asked, lets the opponent reply.
func (s *gameServiceImpl) PlayerMove(ctx context.Context, sessionID string, req MoveRequest) (*MoveResult, error) {
	g, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	snap, err := g.AttemptMove(req.From, req.To, engine.Side(req.Mover))
	if err != nil {
		s.logger.Debug("move rejected",
			zap.String("session", sessionID),
			zap.String("from", req.From),
			zap.String("to", req.To),
			zap.Error(err))
		return nil, err
	}

	result := s.moveResult(snap, "move")
	s.persist(ctx, sessionID)

	if req.AutoReply && s.opponent != nil && !snap.Terminated && snap.Turn == g.OpponentSide() {
		reply, err := s.reply(ctx, g)
		if err != nil {
			s.logger.Warn("opponent reply failed", zap.String("session", sessionID), zap.Error(err))
			result.ReplyError = err.Error()
			return result, nil
		}
		result.GameState = reply
		result.Reply = reply.LastMove()
		result.Message = reply.Message
		result.Events = append(result.Events, moveEvents(reply, "opponent_move", s.now())...)
		s.persist(ctx, sessionID)
	}
	return result, nil
}

// OpponentMove submits a move for the opponent side. It goes through the
// same validation as a human move.
func (s *gameServiceImpl) OpponentMove(ctx context.Context, sessionID, from, to string) (*MoveResult, error) {
	g, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	snap, err := g.AttemptMove(from, to, g.OpponentSide())
	if err != nil {
		return nil, err
	}
	s.persist(ctx, sessionID)
	return s.moveResult(snap, "opponent_move"), nil
}

// RequestOpponentMove asks the configured chooser for a move and applies it.
func (s *gameServiceImpl) RequestOpponentMove(ctx context.Context, sessionID string) (*MoveResult, error) {
	g, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if s.opponent == nil {
		return nil, ErrNoOpponent
	}
	snap, err := s.reply(ctx, g)
	if err != nil {
		return nil, err
	}
	s.persist(ctx, sessionID)
	return s.moveResult(snap, "opponent_move"), nil
}

// GetGameState returns the current snapshot
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	g, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return g.Snapshot(), nil
}

// LegalMoves lists destinations from a square for the side to move.
func (s *gameServiceImpl) LegalMoves(ctx context.Context, sessionID, from string) (*LegalMovesResponse, error) {
	g, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	dests, err := g.Destinations(from)
	if err != nil {
		return nil, err
	}
	if dests == nil {
		dests = []string{}
	}
	return &LegalMovesResponse{From: from, Turn: g.Snapshot().Turn, Destinations: dests}, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	g, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	history := g.Snapshot().History
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	moves := []engine.MoveRecord{}
	if opts.Page > totalPages {
		return &HistoryResponse{
			Moves:       moves,
			TotalMoves:  total,
			Page:        opts.Page,
			PageSize:    opts.Limit,
			TotalPages:  totalPages,
			HasPrevious: true,
		}, nil
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// GetArchived reads a snapshot back from the archive
func (s *gameServiceImpl) GetArchived(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	return s.sessions.Archived(ctx, sessionID)
}

// ListVariants returns the playable variants
func (s *gameServiceImpl) ListVariants(ctx context.Context) ([]engine.VariantInfo, error) {
	return engine.Variants(), nil
}

// reply runs the chooser outside the game lock and submits its proposal as
// the opponent side. A move made by someone else in between is rejected as
// out of turn.
func (s *gameServiceImpl) reply(ctx context.Context, g *engine.Game) (*engine.Snapshot, error) {
	snap := g.Snapshot()
	if snap.Terminated {
		return nil, &engine.MoveError{Kind: engine.KindSessionTerminated, Message: "game is over: " + snap.Message}
	}
	if snap.Turn != g.OpponentSide() {
		return nil, &engine.MoveError{
			Kind:    engine.KindOutOfTurn,
			Message: fmt.Sprintf("%s to move, not the opponent", engine.SideLabel(snap.Turn)),
		}
	}

	move, err := s.opponent.Choose(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpponentFailed, err)
	}

	next, err := g.AttemptMove(move.From, move.To, g.OpponentSide())
	if err != nil {
		s.logger.Warn("opponent proposed a rejected move",
			zap.String("session", g.ID()),
			zap.String("from", move.From),
			zap.String("to", move.To),
			zap.Error(err))
		return nil, err
	}
	s.logger.Debug("opponent moved",
		zap.String("session", g.ID()),
		zap.String("from", move.From),
		zap.String("to", move.To))
	return next, nil
}

func (s *gameServiceImpl) persist(ctx context.Context, sessionID string) {
	if err := s.sessions.Save(ctx, sessionID); err != nil {
		s.logger.Warn("failed to archive session", zap.String("session", sessionID), zap.Error(err))
	}
}

func (s *gameServiceImpl) moveResult(snap *engine.Snapshot, eventType string) *MoveResult {
	return &MoveResult{
		Success:   true,
		GameState: snap,
		Move:      snap.LastMove(),
		Message:   snap.Message,
		Events:    moveEvents(snap, eventType, s.now()),
	}
}

func moveEvents(snap *engine.Snapshot, eventType string, now time.Time) []GameEvent {
	last := snap.LastMove()
	if last == nil {
		return nil
	}
	desc := fmt.Sprintf("%s played %s", engine.SideLabel(last.Mover), last.To)
	if last.From != "" {
		desc = fmt.Sprintf("%s played %s %s-%s", engine.SideLabel(last.Mover), last.Piece, last.From, last.To)
	}
	events := []GameEvent{{Type: eventType, Message: desc, Timestamp: now, Square: last.To}}
	if last.Captured != "" {
		events = append(events, GameEvent{
			Type:      "capture",
			Message:   fmt.Sprintf("%s captured %s on %s", engine.SideLabel(last.Mover), last.Captured, last.To),
			Timestamp: now,
			Square:    last.To,
		})
	}
	if snap.Terminated {
		events = append(events, GameEvent{Type: "game_over", Message: snap.Message, Timestamp: now})
	}
	return events
}

func sessionInfo(snap *engine.Snapshot) *SessionInfo {
	return &SessionInfo{
		ID:           snap.ID,
		Variant:      snap.Variant,
		HumanSide:    snap.HumanSide,
		OpponentSide: snap.OpponentSide,
		Turn:         snap.Turn,
		MoveCount:    snap.MoveCount,
		Terminated:   snap.Terminated,
		Outcome:      snap.Outcome,
		CreatedAt:    snap.CreatedAt,
		UpdatedAt:    snap.UpdatedAt,
		GameState:    snap,
	}
}

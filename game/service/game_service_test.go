package service_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/boardgames/game/engine"
	"github.com/wricardo/mcp-training/boardgames/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*engine.Game
	order    []string
	saves    map[string]int
	mu       sync.Mutex
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*engine.Game),
		saves:    make(map[string]int),
	}
}

func (m *MockSessionManager) Create(ctx context.Context, variant engine.Variant, human engine.Side) (string, *engine.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("test_%d", len(m.sessions)+1)
	g, err := engine.NewGame(id, variant, human)
	if err != nil {
		return "", nil, err
	}
	m.sessions[id] = g
	m.order = append(m.order, id)
	return id, g.Snapshot(), nil
}

func (m *MockSessionManager) Get(id string) (*engine.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.sessions[id]
	if !ok {
		return nil, engine.ErrNoSessionFound
	}
	return g, nil
}

func (m *MockSessionManager) List() []*engine.Game {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*engine.Game, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.sessions[id])
	}
	return out
}

func (m *MockSessionManager) Save(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[id]++
	return nil
}

func (m *MockSessionManager) Archived(ctx context.Context, id string) (*engine.Snapshot, error) {
	return nil, errors.New("not archived")
}

// MockChooser implements service.MoveChooser for testing
type MockChooser struct {
	ChooseFunc func(ctx context.Context, snap *engine.Snapshot) (engine.Move, error)
	calls      int
}

func (m *MockChooser) Choose(ctx context.Context, snap *engine.Snapshot) (engine.Move, error) {
	m.calls++
	return m.ChooseFunc(ctx, snap)
}

func fixedReply(from, to string) *MockChooser {
	return &MockChooser{ChooseFunc: func(context.Context, *engine.Snapshot) (engine.Move, error) {
		return engine.Move{From: from, To: to}, nil
	}}
}

func newChessSession(t *testing.T, svc service.GameService) string {
	t.Helper()
	info, err := svc.CreateSession(context.Background(), service.CreateSessionRequest{Variant: "chess"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return info.ID
}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager())

	tests := []struct {
		name      string
		req       service.CreateSessionRequest
		wantHuman engine.Side
		wantErr   error
	}{
		{"defaults to chess", service.CreateSessionRequest{}, engine.White, nil},
		{"black human", service.CreateSessionRequest{Variant: "chess", HumanSide: "black"}, engine.Black, nil},
		{"tic-tac-toe", service.CreateSessionRequest{Variant: "tictactoe"}, engine.X, nil},
		{"unknown variant", service.CreateSessionRequest{Variant: "go"}, "", engine.ErrUnknownVariant},
		{"side from another variant", service.CreateSessionRequest{Variant: "tictactoe", HumanSide: "white"}, "", engine.ErrInvalidSide},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := svc.CreateSession(ctx, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if info.HumanSide != tt.wantHuman {
				t.Errorf("Expected human %s, got %s", tt.wantHuman, info.HumanSide)
			}
			if info.GameState == nil || info.ID != info.GameState.ID {
				t.Error("Expected game state with matching id")
			}
		})
	}
}

func TestGameService_GetSessionNotFound(t *testing.T) {
	svc := service.NewGameService(NewMockSessionManager())
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); !errors.Is(err, engine.ErrNoSessionFound) {
		t.Errorf("Expected ErrNoSessionFound, got %v", err)
	}
	if _, err := svc.PlayerMove(ctx, "missing", service.MoveRequest{From: "e2", To: "e4"}); !errors.Is(err, engine.ErrNoSessionFound) {
		t.Errorf("Expected ErrNoSessionFound, got %v", err)
	}
	if _, err := svc.OpponentMove(ctx, "missing", "e7", "e5"); !errors.Is(err, engine.ErrNoSessionFound) {
		t.Errorf("Expected ErrNoSessionFound, got %v", err)
	}
	if _, err := svc.GetMoveHistory(ctx, "missing", service.HistoryOptions{}); !errors.Is(err, engine.ErrNoSessionFound) {
		t.Errorf("Expected ErrNoSessionFound, got %v", err)
	}
}

func TestGameService_PlayerAndOpponentMoves(t *testing.T) {
	ctx := context.Background()
	sessions := NewMockSessionManager()
	svc := service.NewGameService(sessions)
	id := newChessSession(t, svc)

	res, err := svc.PlayerMove(ctx, id, service.MoveRequest{From: "e2", To: "e4", Mover: "white"})
	if err != nil {
		t.Fatalf("PlayerMove failed: %v", err)
	}
	if !res.Success || res.Move == nil || res.Move.To != "e4" {
		t.Errorf("Unexpected result %+v", res)
	}
	if res.GameState.Turn != engine.Black {
		t.Errorf("Expected black to move, got %s", res.GameState.Turn)
	}

	// The human may not move the opponent's pieces through PlayerMove.
	if _, err := svc.PlayerMove(ctx, id, service.MoveRequest{From: "e7", To: "e5", Mover: "white"}); !errors.Is(err, engine.ErrOutOfTurn) {
		t.Errorf("Expected ErrOutOfTurn, got %v", err)
	}

	res, err = svc.OpponentMove(ctx, id, "e7", "e5")
	if err != nil {
		t.Fatalf("OpponentMove failed: %v", err)
	}
	if res.GameState.Turn != engine.White || res.GameState.MoveCount != 2 {
		t.Errorf("Unexpected state after reply: %+v", res.GameState)
	}
	if res.Events[0].Type != "opponent_move" {
		t.Errorf("Expected opponent_move event, got %+v", res.Events)
	}

	// Opponent moves go through the same legality gate.
	if _, err := svc.OpponentMove(ctx, id, "d7", "d5"); !errors.Is(err, engine.ErrOutOfTurn) {
		t.Errorf("Expected ErrOutOfTurn, got %v", err)
	}
	if _, err := svc.PlayerMove(ctx, id, service.MoveRequest{From: "e4", To: "e6"}); !errors.Is(err, engine.ErrIllegalMove) {
		t.Errorf("Expected ErrIllegalMove, got %v", err)
	}

	if sessions.saves[id] != 2 {
		t.Errorf("Expected 2 archive saves, got %d", sessions.saves[id])
	}
}

func TestGameService_CaptureEvent(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager())
	id := newChessSession(t, svc)

	for _, m := range [][2]string{{"e2", "e4"}, {"d7", "d5"}} {
		if _, err := svc.PlayerMove(ctx, id, service.MoveRequest{From: m[0], To: m[1]}); err != nil {
			t.Fatal(err)
		}
	}
	res, err := svc.PlayerMove(ctx, id, service.MoveRequest{From: "e4", To: "d5"})
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, ev := range res.Events {
		if ev.Type == "capture" && ev.Square == "d5" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected capture event, got %+v", res.Events)
	}
}

func TestGameService_AutoReply(t *testing.T) {
	ctx := context.Background()
	chooser := fixedReply("e7", "e5")
	svc := service.NewGameService(NewMockSessionManager(), service.WithOpponent(chooser))
	id := newChessSession(t, svc)

	res, err := svc.PlayerMove(ctx, id, service.MoveRequest{From: "e2", To: "e4", AutoReply: true})
	if err != nil {
		t.Fatalf("PlayerMove failed: %v", err)
	}
	if res.Reply == nil || res.Reply.From != "e7" || res.Reply.Mover != engine.Black {
		t.Fatalf("Expected black reply, got %+v", res.Reply)
	}
	if res.Move.To != "e4" {
		t.Errorf("Expected the human move to be reported, got %+v", res.Move)
	}
	if res.GameState.Turn != engine.White || res.GameState.MoveCount != 2 {
		t.Errorf("Unexpected state %+v", res.GameState)
	}

	// Without auto reply the chooser is not consulted.
	if _, err := svc.PlayerMove(ctx, id, service.MoveRequest{From: "d2", To: "d4"}); err != nil {
		t.Fatal(err)
	}
	if chooser.calls != 1 {
		t.Errorf("Expected 1 chooser call, got %d", chooser.calls)
	}
}

func TestGameService_AutoReplyRejected(t *testing.T) {
	ctx := context.Background()
	// Proposes a white move for black: must be rejected, never applied.
	svc := service.NewGameService(NewMockSessionManager(), service.WithOpponent(fixedReply("d2", "d4")))
	id := newChessSession(t, svc)

	res, err := svc.PlayerMove(ctx, id, service.MoveRequest{From: "e2", To: "e4", AutoReply: true})
	if err != nil {
		t.Fatalf("Human move should still succeed: %v", err)
	}
	if res.ReplyError == "" || res.Reply != nil {
		t.Errorf("Expected reply error, got %+v", res)
	}
	state, _ := svc.GetGameState(ctx, id)
	if state.MoveCount != 1 || state.Turn != engine.Black {
		t.Errorf("Rejected reply changed the game: %+v", state)
	}
}

func TestGameService_RequestOpponentMove(t *testing.T) {
	ctx := context.Background()

	t.Run("no opponent", func(t *testing.T) {
		svc := service.NewGameService(NewMockSessionManager())
		id := newChessSession(t, svc)
		if _, err := svc.RequestOpponentMove(ctx, id); !errors.Is(err, service.ErrNoOpponent) {
			t.Errorf("Expected ErrNoOpponent, got %v", err)
		}
	})

	t.Run("not the opponent's turn", func(t *testing.T) {
		svc := service.NewGameService(NewMockSessionManager(), service.WithOpponent(fixedReply("e7", "e5")))
		id := newChessSession(t, svc)
		if _, err := svc.RequestOpponentMove(ctx, id); !errors.Is(err, engine.ErrOutOfTurn) {
			t.Errorf("Expected ErrOutOfTurn, got %v", err)
		}
	})

	t.Run("chooser error", func(t *testing.T) {
		chooser := &MockChooser{ChooseFunc: func(context.Context, *engine.Snapshot) (engine.Move, error) {
			return engine.Move{}, errors.New("model offline")
		}}
		svc := service.NewGameService(NewMockSessionManager(), service.WithOpponent(chooser))
		info, _ := svc.CreateSession(ctx, service.CreateSessionRequest{Variant: "tictactoe", HumanSide: "o"})
		if _, err := svc.RequestOpponentMove(ctx, info.ID); !errors.Is(err, service.ErrOpponentFailed) {
			t.Errorf("Expected ErrOpponentFailed, got %v", err)
		}
	})

	t.Run("chooser deadline", func(t *testing.T) {
		chooser := &MockChooser{ChooseFunc: func(ctx context.Context, _ *engine.Snapshot) (engine.Move, error) {
			<-ctx.Done()
			return engine.Move{}, ctx.Err()
		}}
		svc := service.NewGameService(NewMockSessionManager(), service.WithOpponent(chooser))
		info, _ := svc.CreateSession(ctx, service.CreateSessionRequest{Variant: "tictactoe", HumanSide: "o"})

		tctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err := svc.RequestOpponentMove(tctx, info.ID)
		if !errors.Is(err, context.DeadlineExceeded) || !errors.Is(err, service.ErrOpponentFailed) {
			t.Errorf("Expected deadline wrapped in ErrOpponentFailed, got %v", err)
		}
		state, _ := svc.GetGameState(ctx, info.ID)
		if state.MoveCount != 0 {
			t.Errorf("Expected no move after a deadline, got %d", state.MoveCount)
		}
	})

	t.Run("opponent opens as X", func(t *testing.T) {
		svc := service.NewGameService(NewMockSessionManager(), service.WithOpponent(fixedReply("", "5")))
		info, _ := svc.CreateSession(ctx, service.CreateSessionRequest{Variant: "tictactoe", HumanSide: "o"})
		res, err := svc.RequestOpponentMove(ctx, info.ID)
		if err != nil {
			t.Fatalf("RequestOpponentMove failed: %v", err)
		}
		if res.GameState.Board["5"] != "X" || res.GameState.Turn != engine.O {
			t.Errorf("Unexpected state %+v", res.GameState)
		}
	})
}

func TestGameService_TerminatedSession(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager())
	info, _ := svc.CreateSession(ctx, service.CreateSessionRequest{Variant: "tictactoe"})

	for _, cell := range []string{"1", "4", "2", "5", "3"} {
		if _, err := svc.PlayerMove(ctx, info.ID, service.MoveRequest{To: cell}); err != nil {
			t.Fatalf("Move %s failed: %v", cell, err)
		}
	}
	state, _ := svc.GetGameState(ctx, info.ID)
	if !state.Terminated || state.Outcome != engine.Outcome(engine.X) {
		t.Fatalf("Expected X win, got %+v", state)
	}

	res, err := svc.PlayerMove(ctx, info.ID, service.MoveRequest{To: "9"})
	if !errors.Is(err, engine.ErrSessionTerminated) || res != nil {
		t.Errorf("Expected ErrSessionTerminated, got %v", err)
	}
}

func TestGameService_LegalMoves(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager())
	id := newChessSession(t, svc)

	res, err := svc.LegalMoves(ctx, id, "g1")
	if err != nil {
		t.Fatalf("LegalMoves failed: %v", err)
	}
	if len(res.Destinations) != 2 || res.Destinations[0] != "f3" || res.Destinations[1] != "h3" {
		t.Errorf("Expected [f3 h3], got %v", res.Destinations)
	}

	res, err = svc.LegalMoves(ctx, id, "e4")
	if err != nil {
		t.Fatal(err)
	}
	if res.Destinations == nil || len(res.Destinations) != 0 {
		t.Errorf("Expected empty, non-nil destinations, got %#v", res.Destinations)
	}

	if _, err := svc.LegalMoves(ctx, id, "k9"); !errors.Is(err, engine.ErrInvalidSquare) {
		t.Errorf("Expected ErrInvalidSquare, got %v", err)
	}
}

func TestGameService_GetMoveHistory(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager())
	id := newChessSession(t, svc)

	moves := [][2]string{{"e2", "e4"}, {"e7", "e5"}, {"g1", "f3"}, {"b8", "c6"}, {"f1", "c4"}}
	for _, m := range moves {
		if _, err := svc.PlayerMove(ctx, id, service.MoveRequest{From: m[0], To: m[1]}); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name      string
		opts      service.HistoryOptions
		wantFirst int
		wantLen   int
		hasNext   bool
		hasPrev   bool
	}{
		{"defaults desc", service.HistoryOptions{}, 5, 5, false, false},
		{"asc page 1", service.HistoryOptions{Limit: 2, Order: "asc"}, 1, 2, true, false},
		{"asc page 3", service.HistoryOptions{Page: 3, Limit: 2, Order: "asc"}, 5, 1, false, true},
		{"desc page 2", service.HistoryOptions{Page: 2, Limit: 2}, 3, 2, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := svc.GetMoveHistory(ctx, id, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if h.TotalMoves != 5 {
				t.Errorf("Expected 5 total, got %d", h.TotalMoves)
			}
			if len(h.Moves) != tt.wantLen {
				t.Fatalf("Expected %d moves, got %d", tt.wantLen, len(h.Moves))
			}
			if h.Moves[0].Number != tt.wantFirst {
				t.Errorf("Expected first move #%d, got #%d", tt.wantFirst, h.Moves[0].Number)
			}
			if h.HasNext != tt.hasNext || h.HasPrevious != tt.hasPrev {
				t.Errorf("Unexpected paging flags next=%v prev=%v", h.HasNext, h.HasPrevious)
			}
		})
	}

	for _, page := range []int{9, math.MaxInt / 10, math.MaxInt} {
		for _, order := range []string{"asc", "desc"} {
			h, err := svc.GetMoveHistory(ctx, id, service.HistoryOptions{Page: page, Limit: 100, Order: order})
			if err != nil {
				t.Fatalf("page %d %s: %v", page, order, err)
			}
			if h.Moves == nil || len(h.Moves) != 0 {
				t.Errorf("page %d %s: expected empty page, got %v", page, order, h.Moves)
			}
			if h.HasNext || !h.HasPrevious || h.TotalPages != 1 {
				t.Errorf("page %d %s: unexpected paging %+v", page, order, h)
			}
		}
	}
}

func TestGameService_ListSessionsAndVariants(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager())
	newChessSession(t, svc)
	newChessSession(t, svc)

	list, err := svc.ListSessions(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("Expected 2 sessions, got %d %v", len(list), err)
	}

	variants, _ := svc.ListVariants(ctx)
	if len(variants) != 2 || variants[0].Name != engine.Chess {
		t.Errorf("Unexpected variants %+v", variants)
	}
}

package api

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wricardo/mcp-training/boardgames/game/engine"
	"github.com/wricardo/mcp-training/boardgames/game/opponent"
	"github.com/wricardo/mcp-training/boardgames/game/render"
	"github.com/wricardo/mcp-training/boardgames/game/service"
	"github.com/wricardo/mcp-training/boardgames/game/session"
	"github.com/wricardo/mcp-training/boardgames/transport/websocket"
)

func newLiveServer(t *testing.T) *Server {
	t.Helper()
	archive, err := session.NewFileArchive(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mgr := session.NewManager(session.WithArchive(archive))
	svc := service.NewGameService(mgr, service.WithOpponent(opponent.NewHeuristic(7)))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := websocket.NewHub()
	go hub.Run(ctx)

	return NewServer(svc, hub, WithRenderer(render.New()))
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.ServeHTTP(w, makeRequest(method, path, body))
	return w
}

func createSession(t *testing.T, s *Server, body any) string {
	t.Helper()
	w := do(t, s, "POST", "/api/sessions", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Create failed: %d %s", w.Code, w.Body.String())
	}
	var info service.SessionInfo
	parseResponse(t, w, &info)
	return info.ID
}

func TestLiveChessRejections(t *testing.T) {
	s := newLiveServer(t)
	id := createSession(t, s, nil)
	movePath := "/api/sessions/" + id + "/move"

	tests := []struct {
		name string
		body map[string]string
		code int
	}{
		{"invalid square", map[string]string{"from": "z9", "to": "e4"}, http.StatusBadRequest},
		{"empty origin", map[string]string{"from": "e4", "to": "e5"}, http.StatusUnprocessableEntity},
		{"black piece on white turn", map[string]string{"from": "e7", "to": "e5"}, http.StatusConflict},
		{"declared wrong mover", map[string]string{"from": "e2", "to": "e4", "mover": "black"}, http.StatusConflict},
		{"illegal geometry", map[string]string{"from": "e2", "to": "e5"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(t, s, "POST", movePath, tt.body); w.Code != tt.code {
				t.Errorf("Expected %d, got %d %s", tt.code, w.Code, w.Body.String())
			}
		})
	}

	w := do(t, s, "GET", "/api/sessions/"+id+"/state", nil)
	var snap engine.Snapshot
	parseResponse(t, w, &snap)
	if snap.MoveCount != 0 || snap.Turn != engine.White {
		t.Errorf("Rejected moves changed the game: %+v", snap)
	}

	if w := do(t, s, "POST", "/api/sessions/unknown/move", map[string]string{"from": "e2", "to": "e4"}); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", w.Code)
	}
}

func TestLiveChessAutoReply(t *testing.T) {
	s := newLiveServer(t)
	id := createSession(t, s, map[string]string{"variant": "chess"})

	w := do(t, s, "POST", "/api/sessions/"+id+"/move", map[string]any{"from": "e2", "to": "e4", "auto_reply": true})
	if w.Code != http.StatusOK {
		t.Fatalf("Move failed: %d %s", w.Code, w.Body.String())
	}
	var result service.MoveResult
	parseResponse(t, w, &result)
	if result.Reply == nil || result.Reply.Mover != engine.Black {
		t.Fatalf("Expected a black reply, got %+v", result)
	}
	if result.GameState.Turn != engine.White || result.GameState.MoveCount != 2 {
		t.Errorf("Unexpected state after reply: turn=%s moves=%d", result.GameState.Turn, result.GameState.MoveCount)
	}

	// Opponent cannot move twice.
	if w := do(t, s, "POST", "/api/sessions/"+id+"/opponent-move", nil); w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for opponent out of turn, got %d", w.Code)
	}

	w = do(t, s, "GET", "/api/sessions/"+id+"/history?order=asc", nil)
	var history service.HistoryResponse
	parseResponse(t, w, &history)
	if history.TotalMoves != 2 || history.Moves[0].From != "e2" {
		t.Errorf("Unexpected history %+v", history)
	}

	w = do(t, s, "GET", "/api/archive/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected archived snapshot, got %d", w.Code)
	}
	var archived engine.Snapshot
	parseResponse(t, w, &archived)
	if archived.MoveCount != 2 {
		t.Errorf("Archive should mirror the latest move, got %d moves", archived.MoveCount)
	}

	w = do(t, s, "GET", "/api/sessions/"+id+"/board.png", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Board image failed: %d", w.Code)
	}
	if _, err := png.Decode(bytes.NewReader(w.Body.Bytes())); err != nil {
		t.Errorf("Board image is not a PNG: %v", err)
	}
}

func TestLiveTicTacToeTermination(t *testing.T) {
	s := newLiveServer(t)
	id := createSession(t, s, map[string]string{"variant": "tictactoe"})
	movePath := "/api/sessions/" + id + "/move"
	oppPath := "/api/sessions/" + id + "/opponent-move"

	steps := []struct {
		path string
		cell string
	}{
		{movePath, "1"}, {oppPath, "4"},
		{movePath, "2"}, {oppPath, "5"},
		{movePath, "3"},
	}
	for _, st := range steps {
		if w := do(t, s, "POST", st.path, map[string]string{"to": st.cell}); w.Code != http.StatusOK {
			t.Fatalf("Cell %s failed: %d %s", st.cell, w.Code, w.Body.String())
		}
	}

	w := do(t, s, "GET", "/api/sessions/"+id, nil)
	var info service.SessionInfo
	parseResponse(t, w, &info)
	if !info.Terminated || info.Outcome != engine.Outcome(engine.X) {
		t.Errorf("Expected X to win, got terminated=%v outcome=%q", info.Terminated, info.Outcome)
	}

	if w := do(t, s, "POST", oppPath, map[string]string{"to": "9"}); w.Code != http.StatusConflict {
		t.Errorf("Expected 409 after the end, got %d", w.Code)
	}
	if w := do(t, s, "POST", movePath, map[string]string{"to": "5"}); w.Code != http.StatusConflict {
		t.Errorf("Expected 409 after the end, got %d", w.Code)
	}
}

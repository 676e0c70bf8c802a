package opponent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/wricardo/mcp-training/boardgames/game/engine"
)

func chatServer(t *testing.T, replies ...string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/v1/chat/completions" || r.Method != http.MethodPost {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) != 2 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		reply := replies[min(int(n), len(replies))-1]
		if reply == "503" {
			http.Error(w, "loading model", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": reply}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

type stubChooser struct {
	move  engine.Move
	calls int
}

func (s *stubChooser) Choose(context.Context, *engine.Snapshot) (engine.Move, error) {
	s.calls++
	return s.move, nil
}

func blackToMove(t *testing.T) *engine.Snapshot {
	t.Helper()
	g, _ := engine.NewGame("llm", engine.Chess, "")
	snap, err := g.AttemptMove("e2", "e4", engine.White)
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestLLMChessMove(t *testing.T) {
	srv, calls := chatServer(t, `{"from": "e7", "to": "e5"}`)
	fallback := &stubChooser{}
	l := NewLLM(srv.URL+"/v1", WithFallback(fallback))

	move, err := l.Choose(context.Background(), blackToMove(t))
	if err != nil {
		t.Fatalf("Choose failed: %v", err)
	}
	if move != (engine.Move{From: "e7", To: "e5"}) {
		t.Errorf("Unexpected move %v", move)
	}
	if *calls != 1 || fallback.calls != 0 {
		t.Errorf("Expected 1 model call and no fallback, got %d/%d", *calls, fallback.calls)
	}
}

func TestLLMIllegalMoveFallsBack(t *testing.T) {
	srv, _ := chatServer(t, `{"from": "e7", "to": "e4"}`)
	fallback := &stubChooser{move: engine.Move{From: "d7", To: "d5"}}
	l := NewLLM(srv.URL+"/v1", WithFallback(fallback))

	move, err := l.Choose(context.Background(), blackToMove(t))
	if err != nil {
		t.Fatal(err)
	}
	if move.From != "d7" || fallback.calls != 1 {
		t.Errorf("Expected fallback move, got %v (fallback calls %d)", move, fallback.calls)
	}
}

func TestLLMWithoutFallbackReturnsError(t *testing.T) {
	srv, _ := chatServer(t, "I think I will resign")
	l := NewLLM(srv.URL + "/v1")
	if _, err := l.Choose(context.Background(), blackToMove(t)); !errors.Is(err, ErrUnparsableReply) {
		t.Errorf("Expected ErrUnparsableReply, got %v", err)
	}
}

func TestLLMRetriesServerErrors(t *testing.T) {
	srv, calls := chatServer(t, "503", `{"from": "g8", "to": "f6"}`)
	l := NewLLM(srv.URL+"/v1", WithRetry(3))

	move, err := l.Choose(context.Background(), blackToMove(t))
	if err != nil {
		t.Fatalf("Choose failed: %v", err)
	}
	if move.To != "f6" || *calls != 2 {
		t.Errorf("Expected success on retry, got %v after %d calls", move, *calls)
	}
}

func TestLLMTicTacToe(t *testing.T) {
	srv, _ := chatServer(t, "5")
	g, _ := engine.NewGame("t", engine.TicTacToe, "")
	snap, _ := g.AttemptMove("", "1", engine.X)

	move, err := NewLLM(srv.URL+"/v1").Choose(context.Background(), snap)
	if err != nil {
		t.Fatal(err)
	}
	if move.To != "5" {
		t.Errorf("Expected cell 5, got %v", move)
	}
}

func TestLLMUnreachableFallsBack(t *testing.T) {
	fallback := &stubChooser{move: engine.Move{To: "5"}}
	l := NewLLM("http://127.0.0.1:1/v1", WithFallback(fallback), WithRetry(1), WithTimeout(time.Second))
	g, _ := engine.NewGame("t", engine.TicTacToe, "")

	move, err := l.Choose(context.Background(), g.Snapshot())
	if err != nil {
		t.Fatalf("Expected fallback, got %v", err)
	}
	if move.To != "5" || fallback.calls != 1 {
		t.Errorf("Unexpected %v", move)
	}
}

func TestLLMContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)
	fallback := &stubChooser{move: engine.Move{From: "d7", To: "d5"}}
	l := NewLLM(srv.URL+"/v1", WithFallback(fallback), WithTimeout(5*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := l.Choose(ctx, blackToMove(t))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
	if fallback.calls != 0 {
		t.Error("Expected no fallback once the caller's deadline passed")
	}
}

func TestTruncateKeepsRunes(t *testing.T) {
	s := "♔♕♖"
	for n := 0; n < len(s); n++ {
		got := truncate(s, n)
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) = %q is not valid UTF-8", s, n, got)
		}
	}
	if got := truncate(s, 4); got != "♔..." {
		t.Errorf("Expected one glyph kept, got %q", got)
	}
	if got := truncate("e2e4", 10); got != "e2e4" {
		t.Errorf("Expected short input unchanged, got %q", got)
	}
}

func TestBackoffDuration(t *testing.T) {
	tests := map[int]time.Duration{0: 100 * time.Millisecond, 1: 100 * time.Millisecond, 3: 400 * time.Millisecond, 9: 3200 * time.Millisecond}
	for attempt, want := range tests {
		if got := backoffDuration(attempt); got != want {
			t.Errorf("backoffDuration(%d) = %v, want %v", attempt, got, want)
		}
	}
}

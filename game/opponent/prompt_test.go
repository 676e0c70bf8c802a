package opponent

import (
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/boardgames/game/engine"
)

func TestParseChessReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  engine.Move
		ok    bool
	}{
		{"bare json", `{"from": "e7", "to": "e5"}`, engine.Move{From: "e7", To: "e5"}, true},
		{"uppercase json", `{"from": "G8", "to": "F6"}`, engine.Move{From: "g8", To: "f6"}, true},
		{"json in prose", "I will play this:\n{\"from\": \"b8\", \"to\": \"c6\"}\nGood luck!", engine.Move{From: "b8", To: "c6"}, true},
		{"dash", "My move is d7-d5.", engine.Move{From: "d7", To: "d5"}, true},
		{"to word", "Knight g8 to f6", engine.Move{From: "g8", To: "f6"}, true},
		{"space", "c7 c5", engine.Move{From: "c7", To: "c5"}, true},
		{"broken json fields", `"from": "a7", "to": "a6"`, engine.Move{From: "a7", To: "a6"}, true},
		{"off-board json", `{"from": "z9", "to": "e5"}`, engine.Move{}, false},
		{"nothing", "I resign.", engine.Move{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseChessReply(tt.reply)
			if ok != tt.ok || got != tt.want {
				t.Errorf("parseChessReply(%q) = %v,%v want %v,%v", tt.reply, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseTicTacToeReply(t *testing.T) {
	free := []string{"3", "5", "9"}
	tests := []struct {
		reply string
		want  string
		ok    bool
	}{
		{"5", "5", true},
		{"I'll take 1, no wait, 9", "9", true},
		{"Position 3 is best", "3", true},
		{"15", "", false},
		{"take the center", "", false},
	}
	for _, tt := range tests {
		got, ok := parseTicTacToeReply(tt.reply, free)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseTicTacToeReply(%q) = %q,%v want %q,%v", tt.reply, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPrompts(t *testing.T) {
	g, _ := engine.NewGame("p", engine.Chess, "")
	snap, _ := g.AttemptMove("e2", "e4", engine.White)

	sys := chessSystemPrompt(snap.Turn)
	if !strings.Contains(sys, "BLACK pieces (♚♛♜♝♞♟)") {
		t.Errorf("System prompt should name black pieces:\n%s", sys)
	}
	user := chessUserPrompt(snap)
	for _, want := range []string{"Current turn: Black", "Last move: e2 -> e4", "Move count: 1", "a b c d e f g h"} {
		if !strings.Contains(user, want) {
			t.Errorf("User prompt missing %q:\n%s", want, user)
		}
	}

	ttt, _ := engine.NewGame("q", engine.TicTacToe, "")
	tsnap, _ := ttt.AttemptMove("", "5", engine.X)
	free, err := freeCells(tsnap)
	if err != nil {
		t.Fatal(err)
	}
	tu := ticTacToeUserPrompt(tsnap, free)
	if !strings.Contains(tu, "Available positions: 1, 2, 3, 4, 6, 7, 8, 9") || !strings.Contains(tu, "4|X|6") {
		t.Errorf("Unexpected tic-tac-toe prompt:\n%s", tu)
	}
	if !strings.Contains(ticTacToeSystemPrompt(engine.O), "The other player is X") {
		t.Error("System prompt should name the other player")
	}
}

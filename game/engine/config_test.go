package engine

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in   string
		want Variant
		err  error
	}{
		{"", Chess, nil},
		{"Chess", Chess, nil},
		{" tic-tac-toe ", TicTacToe, nil},
		{"ttt", TicTacToe, nil},
		{"go", "", ErrUnknownVariant},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVariant(tt.in)
			if !errors.Is(err, tt.err) {
				t.Fatalf("Expected error %v, got %v", tt.err, err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseSide(t *testing.T) {
	if s, err := ParseSide(Chess, ""); err != nil || s != White {
		t.Errorf("Expected default white, got %q %v", s, err)
	}
	if s, err := ParseSide(TicTacToe, "O"); err != nil || s != O {
		t.Errorf("Expected o, got %q %v", s, err)
	}
	if _, err := ParseSide(TicTacToe, "white"); !errors.Is(err, ErrInvalidSide) {
		t.Errorf("Expected ErrInvalidSide, got %v", err)
	}
	if _, err := ParseSide("checkers", ""); !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("Expected ErrUnknownVariant, got %v", err)
	}
}

func TestVariantsCatalog(t *testing.T) {
	vs := Variants()
	if len(vs) != 2 {
		t.Fatalf("Expected 2 variants, got %d", len(vs))
	}
	for _, info := range vs {
		eng, err := NewEngine(info.Name)
		if err != nil {
			t.Fatalf("NewEngine(%s) failed: %v", info.Name, err)
		}
		if eng.Sides() != info.Sides {
			t.Errorf("%s: catalog sides %v do not match engine %v", info.Name, info.Sides, eng.Sides())
		}
		if info.Instructions == "" {
			t.Errorf("%s: missing instructions", info.Name)
		}
	}
	vs[0].Title = "changed"
	if Variants()[0].Title == "changed" {
		t.Error("Variants should return a copy")
	}
}

func TestOpposite(t *testing.T) {
	pairs := map[Side]Side{White: Black, Black: White, X: O, O: X, "": ""}
	for in, want := range pairs {
		if got := Opposite(in); got != want {
			t.Errorf("Opposite(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDescribe(t *testing.T) {
	g, _ := NewGame("abc", TicTacToe, O, WithClock(func() time.Time { return time.Unix(0, 0) }))
	if _, err := g.AttemptMove("", "1", X); err != nil {
		t.Fatal(err)
	}
	text := Describe(g.Snapshot())
	for _, want := range []string{
		"Session abc (tictactoe)",
		"X|2|3",
		"Current turn: O",
		"Last move: X -> 1",
		"Moves played: 1",
		"Status: O to move",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in:\n%s", want, text)
		}
	}

	hist := FormatHistory(g.Snapshot().History)
	if hist != "1. X X 1\n" {
		t.Errorf("Unexpected history %q", hist)
	}
}

func TestDescribeLastMoveChess(t *testing.T) {
	g, _ := NewGame("c", Chess, "")
	if got := DescribeLastMove(g.Snapshot()); got != "Last move: none" {
		t.Errorf("Unexpected %q", got)
	}
	snap, _ := g.AttemptMove("g1", "f3", White)
	if got := DescribeLastMove(snap); got != "Last move: g1 -> f3" {
		t.Errorf("Unexpected %q", got)
	}
	if got := DescribeTurn(snap); got != "Current turn: Black" {
		t.Errorf("Unexpected %q", got)
	}
}

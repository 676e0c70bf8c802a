// Command analyze replays game records through a fresh session and prints a
// short report: how many moves applied, the first rejection if any, whose
// turn it is at the end and, for chess, the material balance.
//
// A record is either an archived snapshot (JSON, as written by the file
// archive) or a plain move list such as "e2e4 e7-e5 2. g1f3" or "5 1 9" for
// tic-tac-toe. Files come from the arguments, or sessions/*.json when none
// are given.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/boardgames/game/chess"
	"github.com/wricardo/mcp-training/boardgames/game/engine"
)

// Record is a game to replay.
type Record struct {
	Variant   engine.Variant
	HumanSide engine.Side
	Moves     []engine.Move
}

// Rejection is the first move the replay refused.
type Rejection struct {
	Index   int // 1-based
	Move    engine.Move
	Kind    engine.ErrorKind
	Message string
}

// Report summarizes one replay.
type Report struct {
	Variant    engine.Variant
	Applied    int
	Total      int
	Rejection  *Rejection
	Final      *engine.Snapshot
	WhiteTotal int
	BlackTotal int
}

func main() {
	files := os.Args[1:]
	if len(files) == 0 {
		matches, err := filepath.Glob(filepath.Join("sessions", "*.json"))
		if err != nil {
			fmt.Printf("Error finding records: %v\n", err)
			os.Exit(1)
		}
		files = matches
	}

	failed := false
	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", file)
		if err := analyzeFile(file, os.Stdout); err != nil {
			fmt.Printf("Error: %v\n", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func analyzeFile(path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	rec, err := parseRecord(data)
	if err != nil {
		return err
	}
	report, err := replay(rec)
	if err != nil {
		return err
	}
	printReport(w, report)
	return nil
}

// parseRecord accepts an archived snapshot or a whitespace separated move list.
func parseRecord(data []byte) (*Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty record")
	}

	if trimmed[0] == '{' {
		var snap engine.Snapshot
		if err := json.Unmarshal(trimmed, &snap); err != nil {
			return nil, fmt.Errorf("parsing snapshot: %w", err)
		}
		rec := &Record{Variant: snap.Variant, HumanSide: snap.HumanSide}
		for _, h := range snap.History {
			rec.Moves = append(rec.Moves, engine.Move{From: h.From, To: h.To})
		}
		return rec, nil
	}

	rec := &Record{Variant: engine.TicTacToe}
	for _, tok := range strings.FieldsFunc(string(trimmed), func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '\r' || r == ','
	}) {
		if strings.HasSuffix(tok, ".") {
			continue // move number
		}
		tok = strings.ReplaceAll(tok, "-", "")
		if len(tok) == 4 {
			rec.Variant = engine.Chess
			rec.Moves = append(rec.Moves, engine.Move{From: tok[:2], To: tok[2:]})
			continue
		}
		rec.Moves = append(rec.Moves, engine.Move{To: tok})
	}
	if rec.Variant == engine.Chess {
		for _, m := range rec.Moves {
			if m.From == "" {
				return nil, fmt.Errorf("mixed move list: %q is not a chess move", m.To)
			}
		}
	}
	return rec, nil
}

// replay applies moves until the first rejection. The mover is left to
// the engine, so a move of the wrong color is reported as out of turn.
func replay(rec *Record) (*Report, error) {
	g, err := engine.NewGame("analysis", rec.Variant, rec.HumanSide)
	if err != nil {
		return nil, err
	}

	report := &Report{Variant: rec.Variant, Total: len(rec.Moves)}
	for i, m := range rec.Moves {
		if _, err := g.AttemptMove(m.From, m.To, ""); err != nil {
			var me *engine.MoveError
			if !errors.As(err, &me) {
				return nil, err
			}
			report.Rejection = &Rejection{Index: i + 1, Move: m, Kind: me.Kind, Message: me.Message}
			break
		}
		report.Applied++
	}

	report.Final = g.Snapshot()
	if rec.Variant == engine.Chess {
		b, err := chess.BoardFromGlyphs(report.Final.Board)
		if err != nil {
			return nil, err
		}
		report.WhiteTotal = b.Material(chess.White)
		report.BlackTotal = b.Material(chess.Black)
	}
	return report, nil
}

func printReport(w io.Writer, r *Report) {
	fmt.Fprintf(w, "Variant: %s\n", r.Variant)
	fmt.Fprintf(w, "Moves applied: %d/%d\n", r.Applied, r.Total)
	if r.Rejection != nil {
		m := r.Rejection.Move
		move := m.To
		if m.From != "" {
			move = m.From + "-" + m.To
		}
		fmt.Fprintf(w, "⚠️  Move %d (%s) rejected: %s: %s\n", r.Rejection.Index, move, r.Rejection.Kind, r.Rejection.Message)
	} else {
		fmt.Fprintf(w, "✅ All moves replayed\n")
	}

	fmt.Fprintln(w, engine.DescribeTurn(r.Final))
	fmt.Fprintf(w, "Status: %s\n", r.Final.Message)
	if r.Variant == engine.Chess {
		fmt.Fprintf(w, "Material: White %d, Black %d (%+d)\n", r.WhiteTotal, r.BlackTotal, r.WhiteTotal-r.BlackTotal)
	}
}

package engine

import (
	"fmt"
	"strings"
)

// SideLabel returns a display name: "White", "Black", "X" or "O".
func SideLabel(s Side) string {
	switch s {
	case X, O:
		return strings.ToUpper(string(s))
	case "":
		return ""
	default:
		return strings.ToUpper(string(s[:1])) + string(s[1:])
	}
}

// DescribeTurn renders the "Current turn" line used in prompts and tool output.
func DescribeTurn(s *Snapshot) string {
	return fmt.Sprintf("Current turn: %s", SideLabel(s.Turn))
}

// DescribeLastMove renders the most recent move, e.g. "Last move: e2 -> e4".
func DescribeLastMove(s *Snapshot) string {
	last := s.LastMove()
	if last == nil {
		return "Last move: none"
	}
	if last.From == "" {
		return fmt.Sprintf("Last move: %s -> %s", SideLabel(last.Mover), last.To)
	}
	return fmt.Sprintf("Last move: %s -> %s", last.From, last.To)
}

// FormatHistory renders records one per line, numbered.
func FormatHistory(records []MoveRecord) string {
	var sb strings.Builder
	for _, r := range records {
		fmt.Fprintf(&sb, "%d. %s %s", r.Number, SideLabel(r.Mover), r.Piece)
		if r.From != "" {
			fmt.Fprintf(&sb, " %s-%s", r.From, r.To)
		} else {
			fmt.Fprintf(&sb, " %s", r.To)
		}
		if r.Captured != "" {
			fmt.Fprintf(&sb, " x%s", r.Captured)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Describe renders a snapshot as the multi-line text block shown to players
// and language models.
func Describe(s *Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session %s (%s)\n\n", s.ID, s.Variant)
	sb.WriteString(s.BoardText)
	sb.WriteString("\n")
	sb.WriteString(DescribeTurn(s))
	sb.WriteString("\n")
	sb.WriteString(DescribeLastMove(s))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Moves played: %d\n", s.MoveCount)
	fmt.Fprintf(&sb, "Status: %s\n", s.Message)
	return sb.String()
}

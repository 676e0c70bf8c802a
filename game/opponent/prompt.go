package opponent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/wricardo/mcp-training/boardgames/game/engine"
	"github.com/wricardo/mcp-training/boardgames/game/tictactoe"
)

var (
	jsonObject   = regexp.MustCompile(`\{[^}]*\}`)
	squarePair   = regexp.MustCompile(`(?i)([a-h][1-8])\s*(?:to|-|\s)\s*([a-h][1-8])`)
	fromToFields = regexp.MustCompile(`(?is)"from"\s*:\s*"([a-h][1-8])".*"to"\s*:\s*"([a-h][1-8])"`)
	cellNumber   = regexp.MustCompile(`\b([1-9])\b`)
)

func chessSystemPrompt(side engine.Side) string {
	label := strings.ToUpper(string(side))
	pieces := "♔♕♖♗♘♙"
	if side == engine.Black {
		pieces = "♚♛♜♝♞♟"
	}
	return fmt.Sprintf(`You are a skilled chess-playing AI. You will be given the current board position and need to make a move as %[1]s pieces (%[2]s).

CRITICAL RULES:
1. You are playing as %[1]s pieces only: %[2]s
2. Respond with ONLY a valid move in the exact format: {"from": "e7", "to": "e5"}
3. Use lowercase square names (a1-h8)
4. Make only legal moves
5. Play strategically - develop pieces, control center, protect king

Do not include any other text, explanations, or formatting. Just the JSON move object.`, label, pieces)
}

func chessUserPrompt(snap *engine.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("Current board position:\n")
	sb.WriteString(snap.BoardText)
	sb.WriteString("\n")
	sb.WriteString(engine.DescribeTurn(snap))
	fmt.Fprintf(&sb, "\nMove count: %d\n", snap.MoveCount)
	if snap.LastMove() != nil {
		sb.WriteString(engine.DescribeLastMove(snap))
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nWhat is your move as %s? Respond with only the JSON move object in the format: {\"from\": \"square\", \"to\": \"square\"}\n",
		strings.ToUpper(string(snap.Turn)))
	return sb.String()
}

func ticTacToeSystemPrompt(side engine.Side) string {
	me := engine.SideLabel(side)
	them := engine.SideLabel(engine.Opposite(side))
	return fmt.Sprintf(`You are a skilled TicTacToe-playing AI. You will be given the current 3x3 board position and need to make a move as %[1]s player.

CRITICAL RULES:
1. You are playing as %[1]s
2. The other player is %[2]s
3. Board positions are numbered 1-9:
   1|2|3
   4|5|6
   7|8|9
4. Respond with ONLY a single number (1-9) representing your chosen position
5. Choose only from available positions (empty spots shown as numbers)
6. Play strategically: try to win, block opponent wins, or choose good strategic positions

Just the position number, nothing else. Example responses: "5" or "1" or "9"`, me, them)
}

func ticTacToeUserPrompt(snap *engine.Snapshot, free []string) string {
	var sb strings.Builder
	sb.WriteString("Current board:\n")
	sb.WriteString(snap.BoardText)
	sb.WriteString("\n")
	sb.WriteString(engine.DescribeTurn(snap))
	fmt.Fprintf(&sb, "\nMove count: %d\n", snap.MoveCount)
	fmt.Fprintf(&sb, "Available positions: %s\n", strings.Join(free, ", "))
	fmt.Fprintf(&sb, "\nWhat position do you choose as %s?\n", engine.SideLabel(snap.Turn))
	return sb.String()
}

// parseChessReply extracts a from/to pair. It tries the whole reply as JSON,
// then the first {...} block, then "e7 e5" / "e7-e5" / "e7 to e5" text, then
// loose "from"/"to" fields.
func parseChessReply(reply string) (engine.Move, bool) {
	reply = strings.TrimSpace(reply)

	if m, ok := decodeMove(reply); ok {
		return m, true
	}
	if block := jsonObject.FindString(reply); block != "" {
		if m, ok := decodeMove(block); ok {
			return m, true
		}
	}
	for _, re := range []*regexp.Regexp{squarePair, fromToFields} {
		if sm := re.FindStringSubmatch(reply); sm != nil {
			return engine.Move{From: strings.ToLower(sm[1]), To: strings.ToLower(sm[2])}, true
		}
	}
	return engine.Move{}, false
}

func decodeMove(s string) (engine.Move, bool) {
	var raw struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return engine.Move{}, false
	}
	from, to := strings.ToLower(strings.TrimSpace(raw.From)), strings.ToLower(strings.TrimSpace(raw.To))
	if !isSquare(from) || !isSquare(to) {
		return engine.Move{}, false
	}
	return engine.Move{From: from, To: to}, true
}

func isSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

// parseTicTacToeReply returns the first standalone digit that names a free cell.
func parseTicTacToeReply(reply string, free []string) (string, bool) {
	available := make(map[string]bool, len(free))
	for _, c := range free {
		available[c] = true
	}
	for _, sm := range cellNumber.FindAllStringSubmatch(reply, -1) {
		if available[sm[1]] {
			return sm[1], true
		}
	}
	return "", false
}

func freeCells(snap *engine.Snapshot) ([]string, error) {
	b, err := tictactoe.FromCells(snap.Board)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, i := range b.Available() {
		out = append(out, tictactoe.CellName(i))
	}
	return out, nil
}

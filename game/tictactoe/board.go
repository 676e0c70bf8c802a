// Package tictactoe holds the 3x3 board, win detection and the strategic
// move order used by the automated opponent.
package tictactoe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCell is returned for cell text outside "1".."9".
var ErrInvalidCell = errors.New("invalid cell")

// Mark is the content of a cell.
type Mark string

const (
	Empty Mark = ""
	X     Mark = "X"
	O     Mark = "O"
)

// Other returns the opposing mark.
func (m Mark) Other() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// Board is indexed 0..8, row by row from the top left.
type Board [9]Mark

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// ParseCell converts external cell text "1".."9" into a board index.
func ParseCell(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 9 || len(strings.TrimSpace(s)) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}
	return n - 1, nil
}

// CellName converts a board index back to external text.
func CellName(i int) string {
	return strconv.Itoa(i + 1)
}

// Winner returns the mark owning a complete line, if any.
func (b *Board) Winner() (Mark, bool) {
	for _, l := range lines {
		m := b[l[0]]
		if m != Empty && b[l[1]] == m && b[l[2]] == m {
			return m, true
		}
	}
	return Empty, false
}

// Full reports whether every cell is marked.
func (b *Board) Full() bool {
	for _, m := range b {
		if m == Empty {
			return false
		}
	}
	return true
}

// Available lists empty cell indices in ascending order.
func (b *Board) Available() []int {
	var out []int
	for i, m := range b {
		if m == Empty {
			out = append(out, i)
		}
	}
	return out
}

// Cells maps external cell names to marks for occupied cells.
func (b *Board) Cells() map[string]string {
	out := make(map[string]string, 9)
	for i, m := range b {
		if m != Empty {
			out[CellName(i)] = string(m)
		}
	}
	return out
}

// FromCells rebuilds a board from Cells output.
func FromCells(cells map[string]string) (*Board, error) {
	b := &Board{}
	for k, v := range cells {
		i, err := ParseCell(k)
		if err != nil {
			return nil, err
		}
		switch Mark(v) {
		case X, O:
			b[i] = Mark(v)
		default:
			return nil, fmt.Errorf("unknown mark %q in cell %s", v, k)
		}
	}
	return b, nil
}

// Text renders the grid with empty cells shown by their number.
func (b *Board) Text() string {
	var sb strings.Builder
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			i := row*3 + col
			if b[i] == Empty {
				sb.WriteString(CellName(i))
			} else {
				sb.WriteString(string(b[i]))
			}
			if col < 2 {
				sb.WriteString("|")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// StrategicMove picks a cell for mark: complete a line, block the opponent,
// take the center, then the first free corner, then the first free edge.
func StrategicMove(b *Board, mark Mark) (int, bool) {
	if i, ok := completing(b, mark); ok {
		return i, true
	}
	if i, ok := completing(b, mark.Other()); ok {
		return i, true
	}
	if b[4] == Empty {
		return 4, true
	}
	for _, i := range []int{0, 2, 6, 8} {
		if b[i] == Empty {
			return i, true
		}
	}
	for _, i := range []int{1, 3, 5, 7} {
		if b[i] == Empty {
			return i, true
		}
	}
	return 0, false
}

func completing(b *Board, mark Mark) (int, bool) {
	for _, l := range lines {
		own, free := 0, -1
		for _, i := range l {
			switch b[i] {
			case mark:
				own++
			case Empty:
				free = i
			}
		}
		if own == 2 && free >= 0 {
			return free, true
		}
	}
	return 0, false
}

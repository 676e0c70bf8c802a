package chess

import (
	"errors"
	"fmt"
)

// ErrInvalidSquare is returned when square text is not of the form [a-h][1-8].
var ErrInvalidSquare = errors.New("invalid square")

// Square is a board coordinate. File 0 is the a-file, rank 0 is the first rank.
type Square struct {
	File int `json:"file"`
	Rank int `json:"rank"`
}

// NewSquare builds a square from zero-based file and rank indices.
func NewSquare(file, rank int) Square {
	return Square{File: file, Rank: rank}
}

// ParseSquare converts algebraic text such as "e2" into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	file, rank := s[0], s[1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return Square{File: int(file - 'a'), Rank: int(rank - '1')}, nil
}

// FileRank returns the zero-based file and rank.
func (s Square) FileRank() (int, int) { return s.File, s.Rank }

// Valid reports whether both indices are on the board.
func (s Square) Valid() bool {
	return s.File >= 0 && s.File < 8 && s.Rank >= 0 && s.Rank < 8
}

// String formats the square as algebraic text. Off-board squares render as "-".
func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File), byte('1' + s.Rank)})
}

// Offset returns the square df files and dr ranks away. The result may be off-board.
func (s Square) Offset(df, dr int) Square {
	return Square{File: s.File + df, Rank: s.Rank + dr}
}

// AllSquares returns the 64 squares from a1 to h8, rank by rank.
func AllSquares() []Square {
	out := make([]Square, 0, 64)
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			out = append(out, Square{File: file, Rank: rank})
		}
	}
	return out
}

// Move is a from/to pair on the chess board.
type Move struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

// ParseMove accepts compact coordinate text like "e2e4".
func ParseMove(s string) (Move, error) {
	if len(s) != 4 {
		return Move{}, fmt.Errorf("%w: move %q", ErrInvalidSquare, s)
	}
	from, err := ParseSquare(s[:2])
	if err != nil {
		return Move{}, err
	}
	to, err := ParseSquare(s[2:])
	if err != nil {
		return Move{}, err
	}
	return Move{From: from, To: to}, nil
}

func (m Move) String() string {
	return m.From.String() + m.To.String()
}

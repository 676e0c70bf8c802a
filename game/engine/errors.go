package engine

import "fmt"

// ErrorKind classifies a rejected request.
type ErrorKind string

const (
	KindInvalidSquare     ErrorKind = "invalid_square"
	KindNoSessionFound    ErrorKind = "no_session_found"
	KindSessionTerminated ErrorKind = "session_terminated"
	KindOutOfTurn         ErrorKind = "out_of_turn"
	KindEmptyOrigin       ErrorKind = "empty_origin"
	KindIllegalMove       ErrorKind = "illegal_move"
)

// MoveError describes why a request was rejected. Two MoveErrors match under
// errors.Is when their kinds are equal.
type MoveError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *MoveError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *MoveError) Is(target error) bool {
	t, ok := target.(*MoveError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidSquare     = &MoveError{Kind: KindInvalidSquare, Message: "invalid square"}
	ErrNoSessionFound    = &MoveError{Kind: KindNoSessionFound, Message: "session not found"}
	ErrSessionTerminated = &MoveError{Kind: KindSessionTerminated, Message: "game is over"}
	ErrOutOfTurn         = &MoveError{Kind: KindOutOfTurn, Message: "not your turn"}
	ErrEmptyOrigin       = &MoveError{Kind: KindEmptyOrigin, Message: "no piece on origin square"}
	ErrIllegalMove       = &MoveError{Kind: KindIllegalMove, Message: "illegal move"}
)

func rejectf(kind ErrorKind, format string, args ...any) *MoveError {
	return &MoveError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

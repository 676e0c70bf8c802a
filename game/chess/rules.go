package chess

// IsLegal reports whether mover may play from to to on b.
//
// Only piece geometry, obstruction, capture and ownership are checked. A move
// that leaves the mover's king attacked is accepted, and castling, en passant
// and promotion are not recognised.
func IsLegal(b *Board, from, to Square, mover Color) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	piece, ok := b.At(from)
	if !ok {
		return false
	}
	if piece.Color != mover {
		return false
	}
	if target, occupied := b.At(to); occupied && target.Color == mover {
		return false
	}

	df := to.File - from.File
	dr := to.Rank - from.Rank

	switch piece.Kind {
	case Pawn:
		return pawnMove(b, from, to, piece.Color, df, dr)
	case Knight:
		adf, adr := abs(df), abs(dr)
		return (adf == 1 && adr == 2) || (adf == 2 && adr == 1)
	case Bishop:
		return diagonal(df, dr) && pathClear(b, from, to)
	case Rook:
		return straight(df, dr) && pathClear(b, from, to)
	case Queen:
		return (straight(df, dr) || diagonal(df, dr)) && pathClear(b, from, to)
	case King:
		return max(abs(df), abs(dr)) == 1
	default:
		return false
	}
}

func pawnMove(b *Board, from, to Square, c Color, df, dr int) bool {
	dir, startRank := 1, 1
	if c == Black {
		dir, startRank = -1, 6
	}
	_, occupied := b.At(to)

	switch {
	case df == 0 && dr == dir:
		return !occupied
	case df == 0 && dr == 2*dir:
		if from.Rank != startRank || occupied {
			return false
		}
		_, blocked := b.At(from.Offset(0, dir))
		return !blocked
	case abs(df) == 1 && dr == dir:
		// self-capture was already ruled out, so any occupant is an opponent
		return occupied
	default:
		return false
	}
}

func straight(df, dr int) bool {
	return (df == 0) != (dr == 0)
}

func diagonal(df, dr int) bool {
	return df != 0 && abs(df) == abs(dr)
}

// pathClear walks from the square after from up to, but not including, to.
func pathClear(b *Board, from, to Square) bool {
	sf, sr := sign(to.File-from.File), sign(to.Rank-from.Rank)
	for sq := from.Offset(sf, sr); sq != to; sq = sq.Offset(sf, sr) {
		if !sq.Valid() {
			return false
		}
		if _, ok := b.At(sq); ok {
			return false
		}
	}
	return true
}

// LegalDestinations lists every square the piece on from may move to for mover.
func LegalDestinations(b *Board, from Square, mover Color) []Square {
	var out []Square
	for _, to := range AllSquares() {
		if IsLegal(b, from, to, mover) {
			out = append(out, to)
		}
	}
	return out
}

// LegalMoves lists every legal move for mover, ordered by origin square.
func LegalMoves(b *Board, mover Color) []Move {
	var out []Move
	for _, from := range AllSquares() {
		p, ok := b.At(from)
		if !ok || p.Color != mover {
			continue
		}
		for _, to := range LegalDestinations(b, from, mover) {
			out = append(out, Move{From: from, To: to})
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}

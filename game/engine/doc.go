// Package engine runs board game sessions on top of the variant rule packages.
//
// A Game owns one Engine (chess or tic-tac-toe), the side to move and an
// append-only move history. Every move, whether it comes from the human or
// from an automated opponent, goes through Game.AttemptMove, which checks in
// order:
//   - the game has not ended
//   - the declared mover is the side to move
//   - both squares parse
//   - the origin holds a piece of the side to move (chess only)
//   - the variant's movement rules accept the move
//
// A rejected move returns a *MoveError and leaves the game unchanged.
//
// Usage:
//
//	g, err := engine.NewGame("id", engine.Chess, engine.White)
//	if err != nil {
//		log.Fatal(err)
//	}
//	snap, err := g.AttemptMove("e2", "e4", engine.White)
//	if errors.Is(err, engine.ErrIllegalMove) {
//		// try again
//	}
package engine

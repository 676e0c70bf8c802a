// Package service provides the business logic layer between the transports
// (HTTP, WebSocket, MCP) and the game engine.
//
// GameService creates sessions, submits human and opponent moves, and serves
// snapshots, legal destinations and paginated history. Every move, including
// those proposed by a MoveChooser, is validated by engine.Game.AttemptMove;
// rejections come back as *engine.MoveError values.
//
// Usage:
//
//	manager := session.NewManager()
//	svc := service.NewGameService(manager, service.WithOpponent(chooser))
//
//	info, err := svc.CreateSession(ctx, service.CreateSessionRequest{Variant: "chess"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := svc.PlayerMove(ctx, info.ID, service.MoveRequest{From: "e2", To: "e4", AutoReply: true})
package service

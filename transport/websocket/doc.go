// Package websocket streams session snapshots to browser clients.
//
// A central Hub owns all subscriptions. Clients connect to /ws?session=<id>
// and receive a state_update frame with the current snapshot, then one frame
// per accepted move (human or opponent). Incoming frames are ignored.
//
// Usage:
//
//	hub := websocket.NewHub(websocket.WithLogger(logger))
//	go hub.Run(ctx)
//
//	hub.ServeWS(w, r, sessionID, func() *engine.Snapshot { return current(sessionID) })
//	hub.BroadcastSnapshot(snapshot)
//
// Broadcasts never block the caller. If the hub queue is full the update is
// dropped, and a client whose send buffer is full is disconnected.
package websocket

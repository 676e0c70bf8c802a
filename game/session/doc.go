// Package session keeps the registry of live games.
//
// Manager maps session ids to *engine.Game values behind a read/write lock.
// Sessions are created, looked up and listed; they are never deleted or
// evicted while the process runs. Ids are UUIDv7 strings, so sorting them
// orders sessions by creation time.
//
// An optional Archive mirrors snapshots to disk (FileArchive), Redis
// (RedisArchive) or Postgres (PostgresArchive). Archives are write-behind
// copies for inspection; a restarted process starts with an empty registry.
//
// Usage:
//
//	manager := session.NewManager(session.WithArchive(archive))
//	id, snap, err := manager.Create(ctx, engine.Chess, engine.White)
//	if err != nil {
//		log.Fatal(err)
//	}
//	game, err := manager.Get(id)
package session

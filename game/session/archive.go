package session

import (
	"context"
	"errors"

	"github.com/wricardo/mcp-training/boardgames/game/engine"
)

// ErrNotArchived is returned by Archive.Load for ids never saved.
var ErrNotArchived = errors.New("snapshot not archived")

// Archive mirrors session snapshots to durable storage. It is write-behind
// only: sessions are never restored from an archive.
type Archive interface {
	// Save stores the latest snapshot, replacing any earlier one.
	Save(ctx context.Context, snap *engine.Snapshot) error

	// Load returns the stored snapshot or ErrNotArchived.
	Load(ctx context.Context, id string) (*engine.Snapshot, error)

	Exists(ctx context.Context, id string) (bool, error)

	// ListAll returns every archived id.
	ListAll(ctx context.Context) ([]string, error)
}

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/wricardo/mcp-training/boardgames/game/engine"
)

const createSnapshotsTable = `CREATE TABLE IF NOT EXISTS game_snapshots (
    session_id  TEXT PRIMARY KEY,
    variant     TEXT NOT NULL,
    turn        TEXT NOT NULL,
    move_count  INTEGER NOT NULL,
    terminated  BOOLEAN NOT NULL,
    outcome     TEXT NOT NULL,
    snapshot    JSONB NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
)`

// PostgresArchive upserts one row per session into game_snapshots.
type PostgresArchive struct {
	db *sql.DB
}

// OpenPostgresArchive connects, pings and creates the table if missing.
func OpenPostgresArchive(ctx context.Context, databaseURL string) (*PostgresArchive, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database url is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, createSnapshotsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create game_snapshots: %w", err)
	}
	return &PostgresArchive{db: db}, nil
}

func (a *PostgresArchive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *PostgresArchive) Save(ctx context.Context, snap *engine.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	q := `INSERT INTO game_snapshots (
        session_id, variant, turn, move_count, terminated, outcome, snapshot, created_at, updated_at
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
      ON CONFLICT (session_id) DO UPDATE SET
        turn=EXCLUDED.turn,
        move_count=EXCLUDED.move_count,
        terminated=EXCLUDED.terminated,
        outcome=EXCLUDED.outcome,
        snapshot=EXCLUDED.snapshot,
        updated_at=EXCLUDED.updated_at`

	_, err = a.db.ExecContext(ctx, q,
		snap.ID, string(snap.Variant), string(snap.Turn), snap.MoveCount,
		snap.Terminated, string(snap.Outcome), string(raw),
		snap.CreatedAt, snap.UpdatedAt,
	)
	return err
}

func (a *PostgresArchive) Load(ctx context.Context, id string) (*engine.Snapshot, error) {
	var raw []byte
	err := a.db.QueryRowContext(ctx, `SELECT snapshot FROM game_snapshots WHERE session_id = $1`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotArchived
	}
	if err != nil {
		return nil, err
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (a *PostgresArchive) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := a.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM game_snapshots WHERE session_id = $1)`, id).Scan(&ok)
	return ok, err
}

func (a *PostgresArchive) ListAll(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT session_id FROM game_snapshots ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

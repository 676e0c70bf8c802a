package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/boardgames/game/engine"
)

var safeID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileArchive stores one indented JSON file per session.
type FileArchive struct {
	dir string
	mu  sync.Mutex // orders the stale check with the rename
}

// NewFileArchive creates dir if needed.
func NewFileArchive(dir string) (*FileArchive, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &FileArchive{dir: dir}, nil
}

func (fa *FileArchive) Save(_ context.Context, snap *engine.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	path, err := fa.path(snap.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// Write then rename so readers never see a partial file.
	tmp, err := os.CreateTemp(fa.dir, snap.ID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}

	fa.mu.Lock()
	defer fa.mu.Unlock()
	if stored, err := fa.Load(context.Background(), snap.ID); err == nil && stored.MoveCount > snap.MoveCount {
		return nil
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move snapshot file: %w", err)
	}
	return nil
}

func (fa *FileArchive) Load(_ context.Context, id string) (*engine.Snapshot, error) {
	path, err := fa.path(id)
	if err != nil {
		return nil, ErrNotArchived
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotArchived
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap engine.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func (fa *FileArchive) Exists(_ context.Context, id string) (bool, error) {
	path, err := fa.path(id)
	if err != nil {
		return false, nil
	}
	_, err = os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (fa *FileArchive) ListAll(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(fa.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name := entry.Name(); strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}
	return ids, nil
}

func (fa *FileArchive) path(id string) (string, error) {
	if !safeID.MatchString(id) {
		return "", fmt.Errorf("invalid session id %q", id)
	}
	return filepath.Join(fa.dir, id+".json"), nil
}

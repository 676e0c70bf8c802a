package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisArchive(t *testing.T, ttl time.Duration) (*RedisArchive, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisArchive(rdb, "test:", ttl), mr
}

func TestRedisArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	a, mr := newTestRedisArchive(t, 0)

	snap := playedSnapshot(t, "r1")
	if err := a.Save(ctx, snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !mr.Exists("test:session:r1") {
		t.Error("Expected snapshot key")
	}
	if ok, _ := mr.SIsMember("test:index", "r1"); !ok {
		t.Error("Expected id in index set")
	}

	loaded, err := a.Load(ctx, "r1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ID != "r1" || loaded.Board["e4"] != "♙" {
		t.Errorf("Unexpected snapshot %+v", loaded)
	}

	if _, err := a.Load(ctx, "missing"); !errors.Is(err, ErrNotArchived) {
		t.Errorf("Expected ErrNotArchived, got %v", err)
	}
}

func TestRedisArchiveTTL(t *testing.T) {
	ctx := context.Background()
	a, mr := newTestRedisArchive(t, time.Hour)

	for i := 0; i < 3; i++ {
		if err := a.Save(ctx, playedSnapshot(t, fmt.Sprintf("g%d", i))); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := a.ListAll(ctx)
	if err != nil || len(ids) != 3 {
		t.Fatalf("Expected 3 ids, got %v %v", ids, err)
	}

	mr.FastForward(2 * time.Hour)

	ids, err = a.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected expired ids to be dropped, got %v", ids)
	}
	if ok, _ := a.Exists(ctx, "g0"); ok {
		t.Error("Expired snapshot should not exist")
	}
}

func TestDialRedisArchive(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()

	a, err := DialRedisArchive(context.Background(), "redis://"+mr.Addr()+"/0", "", 0)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer a.Close()
	if a.prefix != "arena:" {
		t.Errorf("Expected default prefix, got %q", a.prefix)
	}

	if _, err := DialRedisArchive(context.Background(), "", "", 0); err == nil {
		t.Error("Expected error for empty url")
	}
}

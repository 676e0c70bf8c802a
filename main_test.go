package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/wricardo/mcp-training/boardgames/game/config"
	"github.com/wricardo/mcp-training/boardgames/game/opponent"
	"github.com/wricardo/mcp-training/boardgames/game/session"
	"github.com/wricardo/mcp-training/boardgames/transport/websocket"
	"go.uber.org/zap"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Board Game Arena" {
		t.Errorf("Unexpected app name %s", AppName)
	}
}

func TestNewAppCommands(t *testing.T) {
	app := newApp()
	want := map[string][]string{
		"server":    {"http"},
		"stdio-mcp": {"mcp-stdio", "mcp"},
		"version":   nil,
	}
	for _, c := range app.Commands {
		aliases, ok := want[c.Name]
		if !ok {
			t.Errorf("Unexpected command %s", c.Name)
			continue
		}
		if strings.Join(c.Aliases, ",") != strings.Join(aliases, ",") {
			t.Errorf("%s: expected aliases %v, got %v", c.Name, aliases, c.Aliases)
		}
		delete(want, c.Name)
	}
	if len(want) != 0 {
		t.Errorf("Missing commands %v", want)
	}
	if app.Action == nil {
		t.Error("Root command should default to the server")
	}
}

func TestOverridesApply(t *testing.T) {
	cfg := config.Default()
	o := overrides{host: "0.0.0.0", hostSet: true, port: 9090, portSet: true, debug: true, ngrok: true}
	if err := o.apply(cfg); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("Unexpected addr %s", cfg.Addr())
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Caller {
		t.Errorf("Expected debug logging, got %+v", cfg.Log)
	}
	if !cfg.Ngrok.Enabled {
		t.Error("Expected ngrok enabled")
	}

	// Unset flags leave the file and env values alone.
	cfg = config.Default()
	cfg.Server.Port = 7000
	if err := (overrides{port: 0}).apply(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Expected port 7000, got %d", cfg.Server.Port)
	}

	if err := (overrides{port: 70000, portSet: true}).apply(config.Default()); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestOpenArchive(t *testing.T) {
	ctx := context.Background()

	a, closer, err := openArchive(ctx, config.ArchiveConfig{Kind: config.ArchiveNone})
	if a != nil || closer != nil || err != nil {
		t.Errorf("Expected no archive, got %v %v", a, err)
	}

	a, _, err = openArchive(ctx, config.ArchiveConfig{Kind: config.ArchiveFile, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("file archive: %v", err)
	}
	if _, ok := a.(*session.FileArchive); !ok {
		t.Errorf("Expected *session.FileArchive, got %T", a)
	}

	mr := miniredis.RunT(t)
	a, closer, err = openArchive(ctx, config.ArchiveConfig{Kind: config.ArchiveRedis, RedisURL: "redis://" + mr.Addr(), KeyPrefix: "t:"})
	if err != nil {
		t.Fatalf("redis archive: %v", err)
	}
	if _, ok := a.(*session.RedisArchive); !ok {
		t.Errorf("Expected *session.RedisArchive, got %T", a)
	}
	if err := closer(); err != nil {
		t.Errorf("close: %v", err)
	}

	if _, _, err := openArchive(ctx, config.ArchiveConfig{Kind: config.ArchivePostgres}); err == nil {
		t.Error("Expected error without a database URL")
	}
}

func TestNewOpponent(t *testing.T) {
	logger := zap.NewNop()
	if c := newOpponent(config.OpponentConfig{Kind: config.OpponentNone}, logger); c != nil {
		t.Errorf("Expected no opponent, got %T", c)
	}
	if _, ok := newOpponent(config.OpponentConfig{Kind: config.OpponentHeuristic, Seed: 1}, logger).(*opponent.Heuristic); !ok {
		t.Error("Expected heuristic opponent")
	}
	cfg := config.Default().Opponent
	cfg.Kind = config.OpponentLLM
	if _, ok := newOpponent(cfg, logger).(*opponent.LLM); !ok {
		t.Error("Expected llm opponent")
	}
}

func newTestArena(t *testing.T) (*arena, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	cfg.Opponent.Seed = 1
	a, err := newArena(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("newArena failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := websocket.NewHub(websocket.WithLogger(zap.NewNop()))
	go hub.Run(ctx)

	var h http.Handler
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	h = a.handler(hub, srv.URL)
	return a, srv
}

func TestArenaHandler(t *testing.T) {
	_, srv := newTestArena(t)

	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from health, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/mcp")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET /mcp, got %d", resp.StatusCode)
	}

	initBody := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`
	resp, err = http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(initBody))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	body := `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"create_session","arguments":{"variant":"chess"}}}`
	resp, err = http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), "Created session") || !strings.Contains(string(data), "Variant: chess") {
		t.Errorf("Unexpected MCP reply %s", data)
	}
}

func TestArenaCloseArchivesSessions(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Archive.Kind = config.ArchiveFile
	cfg.Archive.Dir = dir

	a, err := newArena(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	id, _, err := a.sessions.Create(context.Background(), "chess", "white")
	if err != nil {
		t.Fatal(err)
	}
	a.close()

	fa, _ := session.NewFileArchive(dir)
	if ok, _ := fa.Exists(context.Background(), id); !ok {
		t.Errorf("Expected %s to be archived", id)
	}
}

func TestProbeAPI(t *testing.T) {
	_, srv := newTestArena(t)
	if !probeAPI(context.Background(), srv.URL) {
		t.Error("Expected probe to find the API")
	}

	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	if probeAPI(context.Background(), dead.URL) {
		t.Error("Expected probe to fail for a closed server")
	}
}

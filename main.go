// Command arena starts the board game arena server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket
//     updates and an /mcp HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API
//     if none is available
//
// Configuration comes from an optional YAML file, the environment (a .env file
// is loaded first) and the command-line flags, in increasing priority.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/boardgames/api"
	"github.com/wricardo/mcp-training/boardgames/game/config"
	"github.com/wricardo/mcp-training/boardgames/game/opponent"
	"github.com/wricardo/mcp-training/boardgames/game/render"
	"github.com/wricardo/mcp-training/boardgames/game/service"
	"github.com/wricardo/mcp-training/boardgames/game/session"
	"github.com/wricardo/mcp-training/boardgames/internal/obslog"
	"github.com/wricardo/mcp-training/boardgames/transport/mcp"
	"github.com/wricardo/mcp-training/boardgames/transport/websocket"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Board Game Arena"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "arena",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				Sources: cli.EnvVars("ARENA_CONFIG"),
			},
			&cli.StringFlag{Name: "host", Usage: "HTTP server host"},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel"},
		},
		Action: runServerCommand,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  runServerCommand,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioCommand,
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Printf("%s v%s\n", AppName, Version)
					return nil
				},
			},
		},
	}
}

// overrides holds the command-line values that win over file and env.
type overrides struct {
	host    string
	port    int
	debug   bool
	ngrok   bool
	hostSet bool
	portSet bool
}

func overridesFrom(cmd *cli.Command) overrides {
	return overrides{
		host:    cmd.String("host"),
		port:    int(cmd.Int("port")),
		debug:   cmd.Bool("debug"),
		ngrok:   cmd.Bool("ngrok"),
		hostSet: cmd.IsSet("host"),
		portSet: cmd.IsSet("port"),
	}
}

func (o overrides) apply(cfg *config.Config) error {
	if o.hostSet {
		cfg.Server.Host = o.host
	}
	if o.portSet {
		cfg.Server.Port = o.port
	}
	if o.debug {
		cfg.Log.Level = "debug"
		cfg.Log.Caller = true
	}
	if o.ngrok {
		cfg.Ngrok.Enabled = true
	}
	return cfg.Validate()
}

// loadConfig merges the config sources and builds the global logger.
// logOut receives console logs; stdio mode passes stderr.
func loadConfig(cmd *cli.Command, logOut io.Writer) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if err := overridesFrom(cmd).apply(cfg); err != nil {
		return nil, nil, err
	}

	logger, err := obslog.Init(obslog.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Caller: cfg.Log.Caller,
		Output: logOut,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return cfg, logger, nil
}

// arena is the wired service graph shared by both modes.
type arena struct {
	cfg      *config.Config
	logger   *zap.Logger
	sessions *session.Manager
	service  service.GameService
	closers  []func() error
}

// newArena selects the archive and opponent from cfg and builds the service.
func newArena(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*arena, error) {
	a := &arena{cfg: cfg, logger: logger}

	archive, closer, err := openArchive(ctx, cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s archive: %w", cfg.Archive.Kind, err)
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	managerOpts := []session.ManagerOption{session.WithLogger(logger)}
	if archive != nil {
		managerOpts = append(managerOpts, session.WithArchive(archive))
	}
	a.sessions = session.NewManager(managerOpts...)

	serviceOpts := []service.Option{service.WithLogger(logger)}
	if chooser := newOpponent(cfg.Opponent, logger); chooser != nil {
		serviceOpts = append(serviceOpts, service.WithOpponent(chooser))
	}
	a.service = service.NewGameService(a.sessions, serviceOpts...)

	logger.Info("services initialized",
		zap.String("archive", cfg.Archive.Kind),
		zap.String("opponent", cfg.Opponent.Kind))
	return a, nil
}

// openArchive returns a nil archive for ArchiveNone.
func openArchive(ctx context.Context, cfg config.ArchiveConfig) (session.Archive, func() error, error) {
	switch cfg.Kind {
	case config.ArchiveFile:
		fa, err := session.NewFileArchive(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return fa, nil, nil
	case config.ArchiveRedis:
		ra, err := session.DialRedisArchive(ctx, cfg.RedisURL, cfg.KeyPrefix, cfg.TTL)
		if err != nil {
			return nil, nil, err
		}
		return ra, ra.Close, nil
	case config.ArchivePostgres:
		pa, err := session.OpenPostgresArchive(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pa, pa.Close, nil
	default:
		return nil, nil, nil
	}
}

// newOpponent returns nil when no opponent is configured.
func newOpponent(cfg config.OpponentConfig, logger *zap.Logger) service.MoveChooser {
	switch cfg.Kind {
	case config.OpponentHeuristic:
		return opponent.NewHeuristic(cfg.Seed)
	case config.OpponentLLM:
		return opponent.NewLLM(cfg.BaseURL,
			opponent.WithModel(cfg.Model),
			opponent.WithAPIKey(cfg.APIKey),
			opponent.WithTimeout(cfg.Timeout),
			opponent.WithFallback(opponent.NewHeuristic(cfg.Seed)),
			opponent.WithLogger(logger))
	default:
		return nil
	}
}

// handler builds the API server and mounts the /mcp endpoint beside it.
func (a *arena) handler(hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(a.service, hub,
		api.WithRenderer(render.New()),
		api.WithLogger(a.logger),
		api.WithStaticDir(a.cfg.Server.StaticDir))

	mcpClient := mcp.NewClient(baseURL, mcp.WithAutoReply(a.cfg.Opponent.AutoReply))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			a.logger.Warn("failed to write mcp response", zap.Error(err))
		}
	})
	return mainRouter
}

// close flushes every live session to the archive and releases connections.
func (a *arena) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.sessions.SaveAll(ctx); err != nil {
		a.logger.Warn("failed to archive sessions on shutdown", zap.Error(err))
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("failed to close archive", zap.Error(err))
		}
	}
	obslog.Sync()
}

func runServerCommand(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := loadConfig(cmd, os.Stdout)
	if err != nil {
		return err
	}
	a, err := newArena(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()
	return a.runHTTPServer(ctx)
}

// runHTTPServer serves until ctx is cancelled. If ngrok is enabled it also
// provisions a public tunnel.
func (a *arena) runHTTPServer(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub(websocket.WithLogger(a.logger))
	go hub.Run(ctx)

	addr := a.cfg.Addr()
	mainRouter := a.handler(hub, fmt.Sprintf("http://%s", addr))

	// Auto replies may wait on a language model.
	writeTimeout := 15 * time.Second
	if a.cfg.Opponent.Kind == config.OpponentLLM && a.cfg.Opponent.Timeout+5*time.Second > writeTimeout {
		writeTimeout = a.cfg.Opponent.Timeout + 5*time.Second
	}
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", fmt.Sprintf("http://%s/api", addr)),
			zap.String("websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr)),
			zap.String("mcp", fmt.Sprintf("http://%s/mcp", addr)))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if a.cfg.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.runNgrok(ctx, mainRouter)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case err := <-serveErr:
		runErr = fmt.Errorf("HTTP server failed: %w", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	wg.Wait()
	a.logger.Info("server stopped")
	return runErr
}

func (a *arena) runNgrok(ctx context.Context, handler http.Handler) {
	cfg := a.cfg.Ngrok
	if cfg.AuthToken == "" {
		a.logger.Warn("ngrok enabled but no auth token provided (set NGROK_AUTHTOKEN or ngrok.auth_token)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.AuthToken))
	if err != nil {
		a.logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}
	url := tun.URL()
	a.logger.Info("ngrok tunnel established",
		zap.String("url", url),
		zap.String("api", url+"/api"),
		zap.String("mcp", url+"/mcp"))

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			a.logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()
	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		a.logger.Warn("ngrok server error", zap.Error(err))
	}
}

func runStdioCommand(ctx context.Context, cmd *cli.Command) error {
	// Stdout carries the protocol.
	cfg, logger, err := loadConfig(cmd, os.Stderr)
	if err != nil {
		return err
	}
	a, err := newArena(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()
	return a.runStdioMCP(ctx)
}

// probeAPI reports whether an arena API answers at baseURL.
func probeAPI(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP reuses an API already listening on the configured address;
// otherwise it starts an internal one on a random loopback port.
func (a *arena) runStdioMCP(ctx context.Context) error {
	baseURL := fmt.Sprintf("http://%s", a.cfg.Addr())

	if probeAPI(ctx, baseURL) {
		a.logger.Info("using external API server", zap.String("url", baseURL))
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())

		hub := websocket.NewHub(websocket.WithLogger(a.logger))
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: a.handler(hub, baseURL)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("internal HTTP server error", zap.Error(err))
			}
		}()
		defer httpServer.Close()

		a.logger.Info("started internal API server", zap.String("url", baseURL))
	}

	mcpClient := mcp.NewClient(baseURL, mcp.WithAutoReply(a.cfg.Opponent.AutoReply))
	a.logger.Info("MCP stdio server ready")
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

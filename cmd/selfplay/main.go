// Command selfplay drives a running arena server over REST. The human side is
// played by a local heuristic; the opponent side is left to the server's
// chooser, or to the local heuristic when the server has none. It stops after
// the requested number of plies or when the game ends.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/boardgames/game/engine"
	"github.com/wricardo/mcp-training/boardgames/game/opponent"
	"github.com/wricardo/mcp-training/boardgames/game/service"
	"github.com/wricardo/mcp-training/boardgames/internal/obslog"
	"go.uber.org/zap"
)

// apiError is a non-2xx reply from the arena API.
type apiError struct {
	Status  int
	Kind    string `json:"kind"`
	Message string `json:"error"`
}

func (e *apiError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = string(bytes.TrimSpace(data))
		}
		return apiErr
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

func (c *Client) CreateSession(ctx context.Context, variant, humanSide string) (*service.SessionInfo, error) {
	var info service.SessionInfo
	req := service.CreateSessionRequest{Variant: variant, HumanSide: humanSide}
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = info.ID
	return &info, nil
}

func (c *Client) State(ctx context.Context) (*engine.Snapshot, error) {
	var snap engine.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+c.sessionID+"/state", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) Move(ctx context.Context, m engine.Move, mover engine.Side) (*service.MoveResult, error) {
	var res service.MoveResult
	req := service.MoveRequest{From: m.From, To: m.To, Mover: string(mover)}
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+c.sessionID+"/move", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// OpponentMove asks the server's chooser when m is nil.
func (c *Client) OpponentMove(ctx context.Context, m *engine.Move) (*service.MoveResult, error) {
	var res service.MoveResult
	var body any
	if m != nil {
		body = m
	}
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+c.sessionID+"/opponent-move", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Summary reports one self-play run.
type Summary struct {
	SessionID   string
	Plies       int
	ServerPlies int
	Final       *engine.Snapshot
}

// play alternates sides until maxPlies or the end of the game. Local
// proposals go through the server like any other move.
func play(ctx context.Context, c *Client, chooser service.MoveChooser, maxPlies int, delay time.Duration, logger *zap.Logger) (*Summary, error) {
	snap, err := c.State(ctx)
	if err != nil {
		return nil, err
	}
	sum := &Summary{SessionID: c.sessionID, Final: snap}
	serverChooser := true

	for sum.Plies < maxPlies && !snap.Terminated {
		var res *service.MoveResult
		if snap.Turn == snap.HumanSide {
			m, err := chooser.Choose(ctx, snap)
			if err != nil {
				return sum, fmt.Errorf("choose move: %w", err)
			}
			res, err = c.Move(ctx, m, snap.HumanSide)
			if err != nil {
				return sum, fmt.Errorf("ply %d: %w", sum.Plies+1, err)
			}
		} else {
			if serverChooser {
				res, err = c.OpponentMove(ctx, nil)
				var apiErr *apiError
				if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotImplemented {
					logger.Info("server has no opponent, playing both sides locally")
					serverChooser = false
				} else if err == nil {
					sum.ServerPlies++
				}
			}
			if !serverChooser {
				m, cerr := chooser.Choose(ctx, snap)
				if cerr != nil {
					return sum, fmt.Errorf("choose move: %w", cerr)
				}
				res, err = c.OpponentMove(ctx, &m)
			}
			if err != nil {
				return sum, fmt.Errorf("ply %d: %w", sum.Plies+1, err)
			}
		}

		snap = res.GameState
		sum.Plies++
		sum.Final = snap
		if last := snap.LastMove(); last != nil {
			logger.Debug("ply",
				zap.Int("number", last.Number),
				zap.String("mover", string(last.Mover)),
				zap.String("from", last.From),
				zap.String("to", last.To))
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
				return sum, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return sum, nil
}

func main() {
	cmd := &cli.Command{
		Name:  "selfplay",
		Usage: "Play both sides of an arena session over REST",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Arena server URL"},
			&cli.StringFlag{Name: "variant", Value: "chess", Usage: "chess or tictactoe"},
			&cli.StringFlag{Name: "human-side", Usage: "Side played by the local heuristic"},
			&cli.IntFlag{Name: "plies", Value: 40, Usage: "Maximum plies to play"},
			&cli.IntFlag{Name: "seed", Usage: "Heuristic seed (0 uses the clock)"},
			&cli.DurationFlag{Name: "delay", Usage: "Pause between plies"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	level := "info"
	if cmd.Bool("v") {
		level = "debug"
	}
	logger, err := obslog.Init(obslog.Options{Level: level, Format: "console"})
	if err != nil {
		return err
	}
	defer obslog.Sync()

	c := NewClient(cmd.String("url"))
	info, err := c.CreateSession(ctx, cmd.String("variant"), cmd.String("human-side"))
	if err != nil {
		return err
	}
	logger.Info("session created", zap.String("id", info.ID), zap.String("variant", string(info.Variant)))

	sum, err := play(ctx, c, opponent.NewHeuristic(int64(cmd.Int("seed"))), int(cmd.Int("plies")), cmd.Duration("delay"), logger)
	if sum != nil && sum.Final != nil {
		fmt.Println(engine.Describe(sum.Final))
		logger.Info("self-play finished",
			zap.String("session", sum.SessionID),
			zap.Int("plies", sum.Plies),
			zap.Int("server_plies", sum.ServerPlies))
	}
	return err
}

package opponent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/boardgames/game/chess"
	"github.com/wricardo/mcp-training/boardgames/game/engine"
	"github.com/wricardo/mcp-training/boardgames/internal/obslog"
)

// ErrUnparsableReply is returned when the model's answer holds no usable move.
var ErrUnparsableReply = errors.New("model reply contains no usable move")

// Chooser matches service.MoveChooser.
type Chooser interface {
	Choose(ctx context.Context, snap *engine.Snapshot) (engine.Move, error)
}

// LLM asks an OpenAI-compatible chat completions endpoint (Ollama by
// default) for a move. Unusable answers fall back to another Chooser.
type LLM struct {
	baseURL     string
	model       string
	apiKey      string
	temperature float64
	http        *fasthttp.Client
	timeout     time.Duration
	retryMax    int
	fallback    Chooser
	logger      *zap.Logger
}

// Option configures an LLM chooser.
type Option func(*LLM)

func WithModel(m string) Option {
	return func(l *LLM) {
		if strings.TrimSpace(m) != "" {
			l.model = m
		}
	}
}

func WithAPIKey(k string) Option {
	return func(l *LLM) { l.apiKey = k }
}

func WithTimeout(d time.Duration) Option {
	return func(l *LLM) {
		if d > 0 {
			l.timeout = d
		}
	}
}

func WithRetry(max int) Option {
	return func(l *LLM) { l.retryMax = max }
}

// WithFallback sets the chooser used when the model fails or answers badly.
func WithFallback(c Chooser) Option {
	return func(l *LLM) { l.fallback = c }
}

func WithLogger(z *zap.Logger) Option {
	return func(l *LLM) { l.logger = z }
}

// NewLLM targets baseURL, e.g. "http://localhost:11434/v1".
func NewLLM(baseURL string, opts ...Option) *LLM {
	l := &LLM{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       "llama3.2",
		temperature: 0.3,
		http:        &fasthttp.Client{ReadTimeout: 60 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		timeout:     30 * time.Second,
		retryMax:    2,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = obslog.L()
	}
	return l
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (l *LLM) Choose(ctx context.Context, snap *engine.Snapshot) (engine.Move, error) {
	move, err := l.ask(ctx, snap)
	if err == nil {
		return move, nil
	}
	if l.fallback == nil || ctx.Err() != nil {
		return engine.Move{}, err
	}
	l.logger.Info("model move unusable, using fallback",
		zap.String("session", snap.ID),
		zap.String("model", l.model),
		zap.Error(err))
	return l.fallback.Choose(ctx, snap)
}

func (l *LLM) ask(ctx context.Context, snap *engine.Snapshot) (engine.Move, error) {
	switch snap.Variant {
	case engine.Chess:
		reply, err := l.complete(ctx, chessSystemPrompt(snap.Turn), chessUserPrompt(snap))
		if err != nil {
			return engine.Move{}, err
		}
		move, ok := parseChessReply(reply)
		if !ok {
			return engine.Move{}, fmt.Errorf("%w: %q", ErrUnparsableReply, truncate(reply, 120))
		}
		if !plausibleChessMove(snap, move) {
			return engine.Move{}, fmt.Errorf("%w: %s-%s is not legal", ErrUnparsableReply, move.From, move.To)
		}
		return move, nil

	case engine.TicTacToe:
		free, err := freeCells(snap)
		if err != nil {
			return engine.Move{}, err
		}
		if len(free) == 0 {
			return engine.Move{}, ErrNoMoves
		}
		reply, err := l.complete(ctx, ticTacToeSystemPrompt(snap.Turn), ticTacToeUserPrompt(snap, free))
		if err != nil {
			return engine.Move{}, err
		}
		cell, ok := parseTicTacToeReply(reply, free)
		if !ok {
			return engine.Move{}, fmt.Errorf("%w: %q", ErrUnparsableReply, truncate(reply, 120))
		}
		return engine.Move{To: cell}, nil

	default:
		return engine.Move{}, fmt.Errorf("%w: %q", engine.ErrUnknownVariant, snap.Variant)
	}
}

// plausibleChessMove screens the reply against the movement rules so a bad
// answer can fall back early. The game validates the move again on submit.
func plausibleChessMove(snap *engine.Snapshot, m engine.Move) bool {
	b, err := chess.BoardFromGlyphs(snap.Board)
	if err != nil {
		return false
	}
	from, err1 := chess.ParseSquare(m.From)
	to, err2 := chess.ParseSquare(m.To)
	if err1 != nil || err2 != nil {
		return false
	}
	return chess.IsLegal(b, from, to, engine.ChessColor(snap.Turn))
}

func (l *LLM) complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: l.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: l.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(l.baseURL + "/chat/completions")
	req.Header.SetContentType("application/json")
	if l.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.apiKey)
	}
	req.SetBody(payload)

	attempts := max(l.retryMax, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := l.http.DoDeadline(req, resp, l.computeDeadline(ctx))
		if err != nil && deadlinePassed(ctx) {
			return "", fmt.Errorf("request failed: %w: %w", context.DeadlineExceeded, err)
		}
		if err == nil {
			status := resp.StatusCode()
			if status >= 200 && status < 300 {
				var out chatResponse
				if err := json.Unmarshal(resp.Body(), &out); err != nil {
					return "", fmt.Errorf("decode response: %w", err)
				}
				if len(out.Choices) == 0 {
					return "", errors.New("model returned no choices")
				}
				return out.Choices[0].Message.Content, nil
			}
			err = fmt.Errorf("model api error: status=%d body=%s", status, truncate(string(resp.Body()), 512))
			if !shouldRetryStatus(status) {
				return "", err
			}
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
			return "", fmt.Errorf("request failed: %w: %w", sleepErr, lastErr)
		}
	}
	return "", fmt.Errorf("request failed: %w", lastErr)
}

func (l *LLM) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(l.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

// deadlinePassed reports whether ctx's own deadline, rather than the client
// timeout, ended the request.
func deadlinePassed(ctx context.Context) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	dl, ok := ctx.Deadline()
	return ok && !time.Now().Before(dl)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	attempt = min(max(attempt, 1), 6)
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

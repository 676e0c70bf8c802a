package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/boardgames/game/engine"
	"github.com/wricardo/mcp-training/boardgames/game/service"
	"github.com/wricardo/mcp-training/boardgames/game/session"
	"github.com/wricardo/mcp-training/boardgames/transport/websocket"
)

// BoardRenderer draws a snapshot as PNG.
type BoardRenderer interface {
	RenderPNG(ctx context.Context, snap *engine.Snapshot) ([]byte, error)
}

// Server represents the REST API server
type Server struct {
	service   service.GameService
	hub       *websocket.Hub
	renderer  BoardRenderer
	logger    *zap.Logger
	staticDir string
	router    *mux.Router
}

type Option func(*Server)

func WithRenderer(r BoardRenderer) Option {
	return func(s *Server) { s.renderer = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStaticDir serves files from dir for every path outside /api and /ws.
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// NewServer creates a new API server. hub may be nil.
func NewServer(gameService service.GameService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		logger:  zap.NewNop(),
		router:  mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/variants", s.handleListVariants).Methods("GET")

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/opponent-move", s.handleOpponentMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/legal-moves", s.handleLegalMoves).Methods("GET")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/sessions/{id}/board.png", s.handleBoardImage).Methods("GET")

	api.HandleFunc("/archive/{id}", s.handleGetArchived).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)

	if s.staticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors onto HTTP status codes. Move
// rejections also carry their kind.
func respondServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	var me *engine.MoveError
	if errors.As(err, &me) {
		respondJSON(w, status, map[string]string{
			"error": me.Message,
			"kind":  string(me.Kind),
		})
		return
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrNoSessionFound), errors.Is(err, session.ErrNotArchived):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidSquare),
		errors.Is(err, engine.ErrUnknownVariant),
		errors.Is(err, engine.ErrInvalidSide):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrSessionTerminated), errors.Is(err, engine.ErrOutOfTurn):
		return http.StatusConflict
	case errors.Is(err, engine.ErrEmptyOrigin), errors.Is(err, engine.ErrIllegalMove):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, service.ErrOpponentFailed):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrNoOpponent):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// decodeOptional decodes a JSON body into v. An empty body is not an error.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) broadcast(snap *engine.Snapshot) {
	if s.hub != nil && snap != nil {
		s.hub.BroadcastSnapshot(snap)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleListVariants(w http.ResponseWriter, r *http.Request) {
	variants, err := s.service.ListVariants(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, variants)
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSessionRequest
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := s.service.CreateSession(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "updated" (default)
	order := query.Get("order")    // "asc", "desc" (default)
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy != "created" {
		sortBy = "updated"
	}
	if order != "asc" {
		order = "desc"
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].UpdatedAt, sessions[j].UpdatedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.GetGameState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req service.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.PlayerMove(r.Context(), sessionID, req)
	if err != nil {
		s.logger.Info("move rejected",
			zap.String("session", sessionID),
			zap.String("from", req.From),
			zap.String("to", req.To),
			zap.Error(err))
		respondServiceError(w, err)
		return
	}

	s.broadcast(result.GameState)
	s.logMove(sessionID, result)
	respondJSON(w, http.StatusOK, result)
}

// handleOpponentMove applies an explicit {from, to} for the opponent side,
// or asks the configured opponent when the body is empty.
func (s *Server) handleOpponentMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req engine.Move
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		result *service.MoveResult
		err    error
	)
	if req.From == "" && req.To == "" {
		result, err = s.service.RequestOpponentMove(r.Context(), sessionID)
	} else {
		result, err = s.service.OpponentMove(r.Context(), sessionID, req.From, req.To)
	}
	if err != nil {
		s.logger.Info("opponent move rejected", zap.String("session", sessionID), zap.Error(err))
		respondServiceError(w, err)
		return
	}

	s.broadcast(result.GameState)
	s.logMove(sessionID, result)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) logMove(sessionID string, result *service.MoveResult) {
	fields := []zap.Field{zap.String("session", sessionID), zap.String("status", result.Message)}
	if m := result.Move; m != nil {
		fields = append(fields, zap.String("mover", string(m.Mover)), zap.String("from", m.From), zap.String("to", m.To))
	}
	if m := result.Reply; m != nil {
		fields = append(fields, zap.String("reply", m.From+m.To))
	}
	if result.ReplyError != "" {
		fields = append(fields, zap.String("reply_error", result.ReplyError))
	}
	s.logger.Info("move", fields...)
}

func (s *Server) handleLegalMoves(w http.ResponseWriter, r *http.Request) {
	resp, err := s.service.LegalMoves(r.Context(), mux.Vars(r)["id"], r.URL.Query().Get("from"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetMoveHistory(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleBoardImage(w http.ResponseWriter, r *http.Request) {
	if s.renderer == nil {
		respondError(w, http.StatusNotImplemented, "board rendering is not enabled")
		return
	}
	snap, err := s.service.GetGameState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	data, err := s.renderer.RenderPNG(r.Context(), snap)
	if err != nil {
		s.logger.Error("board render failed", zap.String("session", snap.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleGetArchived(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.GetArchived(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "live updates are not enabled", http.StatusNotImplemented)
		return
	}
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetGameState(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID, func() *engine.Snapshot {
		snap, err := s.service.GetGameState(context.Background(), sessionID)
		if err != nil {
			return nil
		}
		return snap
	})
}

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/boardgames/game/chess"
	"github.com/wricardo/mcp-training/boardgames/game/engine"
	"github.com/wricardo/mcp-training/boardgames/game/service"
	"github.com/wricardo/mcp-training/boardgames/game/tictactoe"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	autoReply  bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAutoReply sets the move tool's auto_reply default.
func WithAutoReply(on bool) ClientOption {
	return func(c *Client) { c.autoReply = on }
}

// NewClient creates a new MCP client that calls the REST API. The timeout
// covers opponent replies, which may wait on a language model.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		autoReply: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Board Game Arena",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Board Game Arena - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Play chess or tic-tac-toe against an automated opponent. Every move, yours or
the opponent's, is validated by the server; a rejected move leaves the game
unchanged and reports why (invalid_square, out_of_turn, empty_origin,
illegal_move, session_terminated, no_session_found).

AVAILABLE TOOLS:
- list_variants: Playable games and their defaults
- game_instructions: Rules and move format for a variant
- create_session: Start a game (variant, human_side)
- list_sessions / get_session: Find games
- game_state: Board, side to move, last move and status
- legal_moves: Destinations from a square for the side to move
- describe_square: What occupies a square or cell
- move: Play your move, optionally letting the opponent reply at once
- opponent_move: Ask the opponent to move, or play a move on its behalf
- move_history: Paginated list of moves

NOTE: The 'intent' parameter on move serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Session ID",
	}
}

func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_variants",
		Description: "List the playable game variants",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListVariants)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get rules, move format and tool usage for a variant",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"variant": map[string]any{
					"type":        "string",
					"enum":        []string{"chess", "tictactoe"},
					"description": "Variant (default: all)",
				},
			},
		},
	}, c.handleGameInstructions)

	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"variant": map[string]any{
					"type":        "string",
					"enum":        []string{"chess", "tictactoe"},
					"description": "Game to play (default: chess)",
				},
				"human_side": map[string]any{
					"type":        "string",
					"enum":        []string{"white", "black", "x", "o"},
					"description": "Side you play (default: white for chess, x for tic-tac-toe)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, side to move and status",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Play a move for your side. Chess: from and to squares (e.g. e2, e4). Tic-tac-toe: the cell 1-9 in to.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDProperty(),
				"from": map[string]any{
					"type":        "string",
					"description": "Origin square (chess only)",
				},
				"to": map[string]any{
					"type":        "string",
					"description": "Destination square, or the cell for tic-tac-toe",
				},
				"auto_reply": map[string]any{
					"type":        "boolean",
					"description": "Let the opponent answer immediately (default: server setting, normally true)",
				},
				"intent": map[string]any{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "to"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "opponent_move",
		Description: "Let the automated opponent move. Passing from/to plays that move for the opponent instead.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDProperty(),
				"from": map[string]any{
					"type":        "string",
					"description": "Origin square (optional)",
				},
				"to": map[string]any{
					"type":        "string",
					"description": "Destination square or cell (optional)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleOpponentMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "legal_moves",
		Description: "List destinations reachable from a square by the side to move. Tic-tac-toe lists the free cells.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDProperty(),
				"from": map[string]any{
					"type":        "string",
					"description": "Origin square (chess)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleLegalMoves)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_square",
		Description: "Describe what occupies a square (chess) or cell (tic-tac-toe)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDProperty(),
				"square": map[string]any{
					"type":        "string",
					"description": "Square such as e4, or cell 1-9",
				},
			},
			Required: []string{"session_id", "square"},
		},
	}, c.handleDescribeSquare)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get paginated move history",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDProperty(),
				"page": map[string]any{
					"type":        "number",
					"description": "Page number (default: 1)",
				},
				"limit": map[string]any{
					"type":        "number",
					"description": "Moves per page (default: 20)",
				},
				"order": map[string]any{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Order (default: desc, most recent first)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// APIError is a non-2xx reply from the REST API.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Message
}

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		apiErr := &APIError{Status: resp.StatusCode, Kind: errResp["kind"], Message: errResp["error"]}
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("API error: %d", resp.StatusCode)
		}
		return apiErr
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]any {
	if args, ok := request.Params.Arguments.(map[string]any); ok {
		return args
	}
	return map[string]any{}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleListVariants(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var variants []engine.VariantInfo
	if err := c.apiCall(ctx, "GET", "/api/variants", nil, &variants); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Variants:\n\n")
	for _, v := range variants {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Sides: %s / %s (you play %s by default)\n  Squares: %s\n\n",
			v.Title, v.Name, v.Description, v.Sides[0], v.Sides[1], v.DefaultHuman, v.SquareFormat)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	variants := engine.Variants()
	if name := stringArg(args, "variant"); name != "" {
		v, err := engine.ParseVariant(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		info, _ := engine.LookupVariant(v)
		variants = []engine.VariantInfo{info}
	}

	var b strings.Builder
	b.WriteString("Board Game Arena - Instructions\n\n")
	for _, v := range variants {
		b.WriteString(v.Instructions)
		b.WriteString("\n\n")
	}
	b.WriteString(`HOW TO PLAY:
1. create_session with a variant (you play the first side unless you pick human_side)
2. game_state to read the board; legal_moves to check options
3. move with your squares; auto_reply lets the opponent answer in the same call
4. If you play the second side, call opponent_move first

REJECTIONS:
- invalid_square: the square or cell is malformed
- out_of_turn: it is not that side's move, or the piece belongs to the other side
- empty_origin: no piece on the origin square
- illegal_move: the piece cannot move that way or the cell is taken
- session_terminated: the game is over
A rejected move changes nothing; read the state and try again.`)
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	body := service.CreateSessionRequest{
		Variant:   stringArg(args, "variant"),
		HumanSide: stringArg(args, "human_side"),
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nVariant: %s\nYou play: %s\n",
		info.ID, info.Variant, engine.SideLabel(info.HumanSide))
	if info.GameState != nil {
		result += "\n" + engine.Describe(info.GameState)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "to move: " + engine.SideLabel(s.Turn)
		if s.Terminated {
			status = "finished: " + string(s.Outcome)
		}
		fmt.Fprintf(&b, "- %s (%s, you: %s, moves: %d, %s, created %s)\n",
			s.ID, s.Variant, engine.SideLabel(s.HumanSide), s.MoveCount, status, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var info service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var snap engine.Snapshot
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(engine.Describe(&snap)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")
	autoReply := c.autoReply
	if v, ok := args["auto_reply"].(bool); ok {
		autoReply = v
	}

	// Agents always move as the human side, so the opponent's pieces are
	// rejected as out of turn.
	var info service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := service.MoveRequest{
		From:      stringArg(args, "from"),
		To:        stringArg(args, "to"),
		Mover:     string(info.HumanSide),
		AutoReply: autoReply,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError("Move rejected: " + err.Error()), nil
	}
	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleOpponentMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")

	var body any
	if from, to := stringArg(args, "from"), stringArg(args, "to"); from != "" || to != "" {
		body = engine.Move{From: from, To: to}
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/opponent-move"), body, &result); err != nil {
		return mcp.NewToolResultError("Opponent move rejected: " + err.Error()), nil
	}
	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleLegalMoves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")
	from := stringArg(args, "from")

	var resp service.LegalMovesResponse
	path := sessionPath(sessionID, "/legal-moves?from="+url.QueryEscape(from))
	if err := c.apiCall(ctx, "GET", path, nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	label := "from " + resp.From
	if resp.From == "" {
		label = "free cells"
	}
	if len(resp.Destinations) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No legal moves %s for %s.", label, engine.SideLabel(resp.Turn))), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Legal moves %s for %s: %s",
		label, engine.SideLabel(resp.Turn), strings.Join(resp.Destinations, ", "))), nil
}

func (c *Client) handleDescribeSquare(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")
	square := strings.ToLower(stringArg(args, "square"))

	var snap engine.Snapshot
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch snap.Variant {
	case engine.TicTacToe:
		if _, err := tictactoe.ParseCell(square); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Cell %q is not valid. Use 1-9.", square)), nil
		}
		mark, ok := snap.Board[square]
		if !ok {
			return mcp.NewToolResultText(fmt.Sprintf("Cell %s is empty.", square)), nil
		}
		text := fmt.Sprintf("Cell %s holds %s.", square, mark)
		if snap.Terminated {
			text += fmt.Sprintf(" The game is over (%s).", snap.Message)
		}
		return mcp.NewToolResultText(text), nil

	default:
		if _, err := chess.ParseSquare(square); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Square %q is not valid. Use a file a-h and a rank 1-8, e.g. e4.", square)), nil
		}
		glyph, ok := snap.Board[square]
		if !ok {
			return mcp.NewToolResultText(fmt.Sprintf("Square %s is empty.", square)), nil
		}
		piece, _ := chess.PieceFromGlyph(glyph)
		text := fmt.Sprintf("Square %s holds a %s (%s).", square, piece, glyph)

		switch {
		case snap.Terminated:
			text += fmt.Sprintf(" The game is over (%s), so it cannot move.", snap.Message)
		case engine.SideOf(piece.Color) == snap.Turn:
			var resp service.LegalMovesResponse
			if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/legal-moves?from="+square), nil, &resp); err == nil {
				if len(resp.Destinations) == 0 {
					text += " It has no legal moves."
				} else {
					text += " It can move to: " + strings.Join(resp.Destinations, ", ") + "."
				}
			}
		default:
			text += fmt.Sprintf(" It is %s's turn, so it cannot move now.", engine.SideLabel(snap.Turn))
		}
		return mcp.NewToolResultText(text), nil
	}
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprintf("%d", int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	if order := stringArg(args, "order"); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

// Formatting helpers

func formatSessionInfo(info *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", info.ID)
	fmt.Fprintf(&b, "Variant: %s\n", info.Variant)
	fmt.Fprintf(&b, "You: %s, Opponent: %s\n", engine.SideLabel(info.HumanSide), engine.SideLabel(info.OpponentSide))
	fmt.Fprintf(&b, "Created: %s\n", info.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Updated: %s\n", info.UpdatedAt.Format(time.RFC3339))
	if info.GameState != nil {
		b.WriteString("\n")
		b.WriteString(engine.Describe(info.GameState))
	}
	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if m := result.Move; m != nil {
		fmt.Fprintf(&b, "%s played %s\n", engine.SideLabel(m.Mover), formatRecord(*m))
	}
	if m := result.Reply; m != nil {
		fmt.Fprintf(&b, "%s replied %s\n", engine.SideLabel(m.Mover), formatRecord(*m))
	}
	if result.ReplyError != "" {
		fmt.Fprintf(&b, "Opponent could not reply: %s\n", result.ReplyError)
	}
	for _, e := range result.Events {
		if e.Type == "capture" || e.Type == "game_over" {
			fmt.Fprintf(&b, "• %s\n", e.Message)
		}
	}
	if result.GameState != nil {
		b.WriteString("\n")
		b.WriteString(engine.Describe(result.GameState))
	}
	return b.String()
}

func formatRecord(m engine.MoveRecord) string {
	if m.From == "" {
		return "cell " + m.To
	}
	s := fmt.Sprintf("%s %s-%s", m.Piece, m.From, m.To)
	if m.Captured != "" {
		s += " capturing " + m.Captured
	}
	return s
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d), Total: %d\n\n", history.Page, history.TotalPages, history.TotalMoves)
	if len(history.Moves) == 0 {
		b.WriteString("(no moves yet)\n")
		return b.String()
	}
	b.WriteString(engine.FormatHistory(history.Moves))
	return b.String()
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/peterkuimelis/rift/internal/deck"
	"github.com/peterkuimelis/rift/internal/rules"
)

var (
	// sessionMu guards activeSession.
	sessionMu sync.Mutex
	// activeSession is the singleton game session (one per stdio process).
	activeSession *GameSession
)

// decksFile is the path to the decks YAML file, set by main.
var decksFile string

// SetDecksFile sets the path to the decks YAML file.
func SetDecksFile(path string) {
	decksFile = path
}

// RegisterTools adds all rules and game tools to the MCP server.
func RegisterTools(s *server.MCPServer) {
	s.AddTool(decodeDeckTool(), handleDecodeDeck)
	s.AddTool(resolvePermissionsTool(), handleResolvePermissions)
	s.AddTool(resolveInstructionsTool(), handleResolveInstructions)
	s.AddTool(getRuleTool(), handleGetRule)
	s.AddTool(startGameTool(), handleStartGame)
	s.AddTool(endTurnTool(), handleEndTurn)
	s.AddTool(evaluateActionTool(), handleEvaluateAction)
	s.AddTool(resolveCardTool(), handleResolveCard)
	s.AddTool(getGameStateTool(), handleGetGameState)
}

// --- Tool definitions ---

func decodeDeckTool() mcp.Tool {
	return mcp.NewTool("decode_deck",
		mcp.WithDescription("Decode a deck code into its main and rune sections. Accepts JSON or YAML, "+
			"base64url-encoded JSON, or one '<count>[x] <cardId>' per line with optional 'Main Deck' / 'Rune Deck' headers."),
		mcp.WithString("code", mcp.Required(), mcp.Description("The deck code text")),
	)
}

func resolvePermissionsTool() mcp.Tool {
	return mcp.NewTool("resolve_permissions",
		mcp.WithDescription("Decide whether an action is allowed given a set of allow/forbid assertions from cards and rules. "+
			"Card forbids beat card allows (rule 054.1), card allows beat rules (rule 002)."),
		mcp.WithString("permissions", mcp.Required(), mcp.Description(`JSON array of {"source":"card"|"rule","type":"allow"|"forbid","description":"...","ruleId":"..."}`)),
	)
}

func resolveInstructionsTool() mcp.Tool {
	return mcp.NewTool("resolve_instructions",
		mcp.WithDescription("Filter a card's instructions to the ones that can be executed. If none can, the card resolves with no effect (rule 266)."),
		mcp.WithString("instructions", mcp.Required(), mcp.Description(`JSON array of {"id":"...","description":"...","possible":true|false}`)),
	)
}

func getRuleTool() mcp.Tool {
	return mcp.NewTool("get_rule",
		mcp.WithDescription("Look up a core rule by ID, or list all core rules when no ID is given."),
		mcp.WithString("id", mcp.Description("Rule ID, e.g. '054.1'")),
	)
}

func startGameTool() mcp.Tool {
	return mcp.NewTool("start_game",
		mcp.WithDescription("Start a new match. Each player brings a deck code or a deck number from decks.yaml. "+
			"The first listed player is active on turn 1."),
		mcp.WithString("players", mcp.Required(), mcp.Description(`JSON array of {"id":"...","code":"..."} or {"id":"...","deck":N}`)),
	)
}

func endTurnTool() mcp.Tool {
	return mcp.NewTool("end_turn",
		mcp.WithDescription("End the current turn and pass to the next player in seating order."),
	)
}

func evaluateActionTool() mcp.Tool {
	return mcp.NewTool("evaluate_action",
		mcp.WithDescription("Resolve permissions for an action a player wants to take in the running match. The decision is recorded in the match events."),
		mcp.WithString("player", mcp.Required(), mcp.Description("Acting player ID")),
		mcp.WithString("action", mcp.Required(), mcp.Description("Short name of the action")),
		mcp.WithString("permissions", mcp.Description("JSON array of permission assertions (see resolve_permissions)")),
	)
}

func resolveCardTool() mcp.Tool {
	return mcp.NewTool("resolve_card",
		mcp.WithDescription("Resolve a card's instructions for a player in the running match. The result is recorded in the match events."),
		mcp.WithString("player", mcp.Required(), mcp.Description("Player resolving the card")),
		mcp.WithString("card", mcp.Required(), mcp.Description("Card ID")),
		mcp.WithString("instructions", mcp.Required(), mcp.Description("JSON array of instructions (see resolve_instructions)")),
	)
}

func getGameStateTool() mcp.Tool {
	return mcp.NewTool("get_game_state",
		mcp.WithDescription("Get the current match state and events logged since the last call. Read-only."),
	)
}

// --- Tool handlers ---

func handleDecodeDeck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := deck.Decode(request.GetString("code", ""))
	switch {
	case errors.Is(err, deck.ErrEmptyInput):
		return mcp.NewToolResultError("The deck code is empty."), nil
	case err != nil:
		return mcp.NewToolResultErrorf("Could not decode deck: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(d)), nil
}

func handleResolvePermissions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var perms []rules.EffectPermission
	if err := parseJSONArg(request, "permissions", &perms); err != nil {
		return mcp.NewToolResultErrorf("Invalid permissions: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(rules.ResolvePermissions(perms))), nil
}

func handleResolveInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var ins []rules.GameInstruction
	if err := parseJSONArg(request, "instructions", &ins); err != nil {
		return mcp.NewToolResultErrorf("Invalid instructions: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(rules.ResolveInstructions(ins))), nil
}

func handleGetRule(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(request.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultText(respondJSON(rules.All())), nil
	}
	rule, ok := rules.Lookup(id)
	if !ok {
		return mcp.NewToolResultErrorf("Unknown rule %q.", id), nil
	}
	return mcp.NewToolResultText(respondJSON(rule)), nil
}

func handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionMu.Lock()
	defer sessionMu.Unlock()

	if activeSession != nil {
		return mcp.NewToolResultError("A game is already running. Only one game at a time is supported."), nil
	}

	var players []SeatRequest
	if err := parseJSONArg(request, "players", &players); err != nil {
		return mcp.NewToolResultErrorf("Invalid players: %v", err), nil
	}

	var lib *deck.LibraryFile
	if needsLibrary(players) {
		var err error
		if lib, err = deck.LoadLibrary(decksFile); err != nil {
			return mcp.NewToolResultErrorf("Failed to load decks file: %v", err), nil
		}
	}

	sess, err := NewGameSession(players, lib)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to start game: %v", err), nil
	}
	activeSession = sess

	return mcp.NewToolResultText(respondJSON(sess.Snapshot())), nil
}

func handleEndTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := currentSession()
	if sess == nil {
		return mcp.NewToolResultError("No game is running. Use start_game first."), nil
	}
	resp, err := sess.EndTurn()
	if err != nil {
		return mcp.NewToolResultErrorf("Could not end turn: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func handleEvaluateAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := currentSession()
	if sess == nil {
		return mcp.NewToolResultError("No game is running. Use start_game first."), nil
	}

	var perms []rules.EffectPermission
	if request.GetString("permissions", "") != "" {
		if err := parseJSONArg(request, "permissions", &perms); err != nil {
			return mcp.NewToolResultErrorf("Invalid permissions: %v", err), nil
		}
	}

	resp, err := sess.EvaluateAction(request.GetString("player", ""), request.GetString("action", ""), perms)
	if err != nil {
		return mcp.NewToolResultErrorf("Could not evaluate action: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func handleResolveCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := currentSession()
	if sess == nil {
		return mcp.NewToolResultError("No game is running. Use start_game first."), nil
	}

	var ins []rules.GameInstruction
	if err := parseJSONArg(request, "instructions", &ins); err != nil {
		return mcp.NewToolResultErrorf("Invalid instructions: %v", err), nil
	}

	resp, err := sess.ResolveCard(request.GetString("player", ""), request.GetString("card", ""), ins)
	if err != nil {
		return mcp.NewToolResultErrorf("Could not resolve card: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func handleGetGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := currentSession()
	if sess == nil {
		return mcp.NewToolResultError("No game is running. Use start_game first."), nil
	}
	return mcp.NewToolResultText(respondJSON(sess.Snapshot())), nil
}

func currentSession() *GameSession {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	return activeSession
}

func needsLibrary(players []SeatRequest) bool {
	for _, p := range players {
		if p.Deck != 0 {
			return true
		}
	}
	return false
}

// parseJSONArg decodes a string argument holding JSON into v.
func parseJSONArg(request mcp.CallToolRequest, name string, v any) error {
	raw, err := request.RequireString(name)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), v)
}

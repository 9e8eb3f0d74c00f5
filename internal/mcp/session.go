package mcp

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/peterkuimelis/rift/internal/deck"
	"github.com/peterkuimelis/rift/internal/game"
	"github.com/peterkuimelis/rift/internal/log"
	"github.com/peterkuimelis/rift/internal/rules"
)

// SeatRequest describes one seat in a start_game request. Exactly one of Code
// and Deck should be set; Deck is a 1-indexed number into the deck library.
type SeatRequest struct {
	ID   string `json:"id"`
	Code string `json:"code,omitempty"`
	Deck int    `json:"deck,omitempty"`
}

// EventView is a log event as presented in tool responses.
type EventView struct {
	Seq    int    `json:"seq"`
	Turn   int    `json:"turn"`
	Type   string `json:"type"`
	Player string `json:"player,omitempty"`
	Card   string `json:"card,omitempty"`
	RuleID string `json:"rule_id,omitempty"`
	Text   string `json:"text"`
}

// ToolResponse is the JSON envelope returned by the game tools.
type ToolResponse struct {
	Events       []EventView                  `json:"events"`
	State        *game.GameState              `json:"state,omitempty"`
	Permission   *rules.PermissionResolution  `json:"permission,omitempty"`
	Instructions *rules.InstructionResolution `json:"instructions,omitempty"`
}

// GameSession holds the state of a single MCP game session.
type GameSession struct {
	mu     sync.Mutex
	engine *game.Engine
	events *log.MemoryLogger
	seen   int // number of events already returned to the caller
}

// NewGameSession imports every player's deck and starts a match. Deck numbers
// are resolved against lib, which may be nil when only codes are used.
func NewGameSession(players []SeatRequest, lib *deck.LibraryFile) (*GameSession, error) {
	if len(players) == 0 {
		return nil, fmt.Errorf("at least one player is required")
	}

	events := log.NewMemoryLogger()
	engine := game.NewEngine(game.EngineConfig{Logger: events})

	states := make([]game.PlayerState, 0, len(players))
	for i, seat := range players {
		id := strings.TrimSpace(seat.ID)
		if id == "" {
			return nil, fmt.Errorf("player %d: id is required", i+1)
		}
		p, err := seatPlayer(engine, id, seat, lib)
		if err != nil {
			return nil, err
		}
		states = append(states, p)
	}
	engine.StartGame(states)

	return &GameSession{engine: engine, events: events}, nil
}

// seatPlayer builds the player for one seat, from its deck code or from the
// numbered library deck.
func seatPlayer(engine *game.Engine, id string, seat SeatRequest, lib *deck.LibraryFile) (game.PlayerState, error) {
	if seat.Deck == 0 {
		p, _, err := engine.ImportPlayer(id, seat.Code)
		return p, err
	}
	if lib == nil {
		return game.PlayerState{}, fmt.Errorf("player %s: deck %d requested but no deck library is loaded", id, seat.Deck)
	}
	d, err := lib.DeckByNumber(seat.Deck)
	if err != nil {
		engine.Logger.Log(log.NewDeckImportFailedEvent(id, err))
		return game.PlayerState{}, fmt.Errorf("player %s: %w", id, err)
	}
	return engine.AddPlayer(id, d)
}

// EndTurn advances the match and returns the new state.
func (s *GameSession) EndTurn() (*ToolResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.EndTurn(); err != nil {
		return nil, err
	}
	return s.respond(), nil
}

// EvaluateAction resolves whether player may perform action.
func (s *GameSession) EvaluateAction(player, action string, permissions []rules.EffectPermission) (*ToolResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkPlayer(player); err != nil {
		return nil, err
	}
	res := s.engine.EvaluateActionPermissions(player, action, permissions)
	resp := s.respond()
	resp.Permission = &res
	return resp, nil
}

// ResolveCard resolves a card's instructions on behalf of player.
func (s *GameSession) ResolveCard(player, card string, instructions []rules.GameInstruction) (*ToolResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkPlayer(player); err != nil {
		return nil, err
	}
	res := s.engine.ResolveCardInstructions(player, card, instructions)
	resp := s.respond()
	resp.Instructions = &res
	return resp, nil
}

// checkPlayer fails for IDs not seated in the match. Caller holds s.mu.
func (s *GameSession) checkPlayer(id string) error {
	if _, ok := s.engine.State.Player(id); ok {
		return nil
	}
	err := fmt.Errorf("unknown player %q", id)
	s.engine.Logger.Log(log.NewErrorEvent(err.Error()))
	return err
}

// Snapshot returns the current state and any events not yet reported.
func (s *GameSession) Snapshot() *ToolResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.respond()
}

// respond builds a response from a copy of the current state, so it can be
// marshalled after s.mu is released. Caller holds s.mu.
func (s *GameSession) respond() *ToolResponse {
	return &ToolResponse{
		Events: s.drainEvents(),
		State:  s.engine.State.Clone(),
	}
}

// drainEvents returns the events logged since the last call. Caller holds s.mu.
func (s *GameSession) drainEvents() []EventView {
	all := s.events.Events()
	views := []EventView{}
	for _, e := range all[s.seen:] {
		views = append(views, EventView{
			Seq:    e.Seq,
			Turn:   e.Turn,
			Type:   e.Type.String(),
			Player: e.Player,
			Card:   e.Card,
			RuleID: e.RuleID,
			Text:   e.Details,
		})
	}
	s.seen = len(all)
	return views
}

func respondJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}

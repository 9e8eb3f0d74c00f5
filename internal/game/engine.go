package game

import (
	"fmt"

	"github.com/peterkuimelis/rift/internal/deck"
	"github.com/peterkuimelis/rift/internal/log"
	"github.com/peterkuimelis/rift/internal/rules"
)

// EngineConfig holds configuration for creating an engine.
type EngineConfig struct {
	Logger         log.EventLogger
	StartingHealth int // 0 selects StartingHealth
}

// Engine ties deck import, match setup and rules resolution together and
// records what happens to its logger.
type Engine struct {
	State  *GameState
	Logger log.EventLogger

	startingHealth int
}

// NewEngine creates an engine from the given config.
func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewMemoryLogger()
	}
	health := cfg.StartingHealth
	if health <= 0 {
		health = StartingHealth
	}
	return &Engine{Logger: logger, startingHealth: health}
}

func (e *Engine) log(event log.GameEvent) {
	e.Logger.Log(event)
}

func (e *Engine) turn() int {
	if e.State == nil {
		return 0
	}
	return e.State.Turn
}

// ImportPlayer decodes a deck code and builds a player from it.
func (e *Engine) ImportPlayer(id, code string) (PlayerState, *deck.ImportedDeck, error) {
	d, err := deck.Decode(code)
	if err != nil {
		e.log(log.NewDeckImportFailedEvent(id, err))
		return PlayerState{}, nil, fmt.Errorf("import deck for %s: %w", id, err)
	}
	p, err := e.AddPlayer(id, d)
	if err != nil {
		return PlayerState{}, nil, err
	}
	return p, d, nil
}

// AddPlayer builds a player from an already decoded deck. Decks holding more
// than deck.MaxCards cards are refused before they are expanded.
func (e *Engine) AddPlayer(id string, d *deck.ImportedDeck) (PlayerState, error) {
	if err := d.CheckSize(); err != nil {
		e.log(log.NewDeckImportFailedEvent(id, err))
		return PlayerState{}, fmt.Errorf("import deck for %s: %w", id, err)
	}
	e.log(log.NewDeckImportedEvent(id, d.Name, d.MainCount(), d.RuneCount()))
	return NewPlayer(id, d, e.startingHealth), nil
}

// StartGame creates the initial state from the given players and makes it
// the engine's current match.
func (e *Engine) StartGame(players []PlayerState) *GameState {
	gs := NewGameState(players)
	e.State = gs
	e.log(log.NewGameCreatedEvent(gs.MatchID, gs.Order, gs.ActivePlayerID))
	return gs
}

// EndTurn advances the current match to the next turn.
func (e *Engine) EndTurn() error {
	if e.State == nil {
		e.log(log.NewWarnEvent("end turn requested with no game in progress"))
		return fmt.Errorf("no game in progress")
	}
	e.State.AdvanceTurn()
	e.log(log.NewTurnEvent(e.State.Turn, e.State.ActivePlayerID))
	return nil
}

// EvaluateActionPermissions decides whether player may perform action.
func (e *Engine) EvaluateActionPermissions(player, action string, permissions []rules.EffectPermission) rules.PermissionResolution {
	res := rules.ResolvePermissions(permissions)
	e.log(log.NewPermissionEvent(e.turn(), player, action, res.Allowed, res.AppliedRuleID))
	return res
}

// ResolveCardInstructions filters a card's instructions down to the ones
// that execute.
func (e *Engine) ResolveCardInstructions(player, card string, instructions []rules.GameInstruction) rules.InstructionResolution {
	res := rules.ResolveInstructions(instructions)
	e.log(log.NewInstructionsEvent(e.turn(), player, card, len(res.Instructions), len(instructions), res.AppliedRuleID))
	return res
}

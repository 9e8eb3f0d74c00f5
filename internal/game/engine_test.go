package game

import (
	"errors"
	"testing"

	"github.com/peterkuimelis/rift/internal/deck"
	"github.com/peterkuimelis/rift/internal/log"
	"github.com/peterkuimelis/rift/internal/rules"
)

const (
	furyCode = "Main Deck\n3 PX-001\n2x PX-002\nRune Deck\n4 PX-006"
	calmCode = `{"name":"Calm","cards":{"main":{"PX-010":2},"rune":{"PX-011":6}}}`
)

func newTestEngine() (*Engine, *log.MemoryLogger) {
	logger := log.NewMemoryLogger()
	return NewEngine(EngineConfig{Logger: logger}), logger
}

func TestEngine_ImportAndStart(t *testing.T) {
	e, logger := newTestEngine()

	p1, d1, err := e.ImportPlayer("p1", furyCode)
	if err != nil {
		t.Fatalf("ImportPlayer(p1): %v", err)
	}
	p2, d2, err := e.ImportPlayer("p2", calmCode)
	if err != nil {
		t.Fatalf("ImportPlayer(p2): %v", err)
	}
	if d1.MainCount() != 5 || d2.Name != "Calm" {
		t.Errorf("unexpected decks: %+v %+v", d1, d2)
	}
	if p1.DeckCount() != 5 || len(p1.RuneDeck) != 4 || p1.Health != StartingHealth {
		t.Errorf("p1 = %+v", p1)
	}

	gs := e.StartGame([]PlayerState{p1, p2})
	if e.State != gs || gs.ActivePlayerID != "p1" {
		t.Fatalf("StartGame did not set the current match: %+v", gs)
	}

	if got := len(logger.EventsOfType(log.EventDeckImported)); got != 2 {
		t.Errorf("DeckImported events = %d, want 2", got)
	}
	created := logger.EventsOfType(log.EventGameCreated)
	if len(created) != 1 || created[0].Player != "p1" {
		t.Errorf("GameCreated events = %+v", created)
	}

	if err := e.EndTurn(); err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	last := logger.LastEvent()
	if last.Type != log.EventNewTurn || last.Turn != 2 || last.Player != "p2" {
		t.Errorf("last event = %+v, want turn 2 for p2", last)
	}
}

func TestEngine_ImportPlayerFailure(t *testing.T) {
	e, logger := newTestEngine()

	_, _, err := e.ImportPlayer("p1", "not a deck")
	if !errors.Is(err, deck.ErrUnrecognizedFormat) {
		t.Fatalf("err = %v, want ErrUnrecognizedFormat", err)
	}
	_, _, err = e.ImportPlayer("p1", "   ")
	if !errors.Is(err, deck.ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
	if got := len(logger.EventsOfType(log.EventDeckImportFailed)); got != 2 {
		t.Errorf("DeckImportFailed events = %d, want 2", got)
	}
}

func TestEngine_OversizedDeck(t *testing.T) {
	e, logger := newTestEngine()

	_, _, err := e.ImportPlayer("p1", "2147483647 PX-001")
	if !errors.Is(err, deck.ErrDeckTooLarge) {
		t.Fatalf("err = %v, want ErrDeckTooLarge", err)
	}
	last := logger.LastEvent()
	if last.Type != log.EventDeckImportFailed || last.Player != "p1" {
		t.Errorf("last event = %+v", last)
	}

	big := &deck.ImportedDeck{
		MainDeck: []deck.SectionEntry{{CardID: "A", Count: deck.MaxCards}},
		RuneDeck: []deck.SectionEntry{{CardID: "R", Count: 1}},
	}
	if _, err := e.AddPlayer("p2", big); !errors.Is(err, deck.ErrDeckTooLarge) {
		t.Errorf("AddPlayer err = %v, want ErrDeckTooLarge", err)
	}
	big.RuneDeck = nil
	p, err := e.AddPlayer("p2", big)
	if err != nil || p.DeckCount() != deck.MaxCards {
		t.Errorf("AddPlayer at limit = %d cards, %v", p.DeckCount(), err)
	}
}

func TestEngine_EndTurnWithoutGame(t *testing.T) {
	e, logger := newTestEngine()
	if err := e.EndTurn(); err == nil {
		t.Error("EndTurn without a game should fail")
	}
	if warns := logger.EventsOfType(log.EventWarn); len(warns) != 1 {
		t.Errorf("warn events = %+v, want 1", warns)
	}
}

func TestEngine_EvaluateActionPermissions(t *testing.T) {
	e, logger := newTestEngine()
	e.StartGame([]PlayerState{testPlayer("p1"), testPlayer("p2")})

	res := e.EvaluateActionPermissions("p1", "play PX-001", []rules.EffectPermission{
		{Source: rules.SourceRule, Type: rules.Forbid, Description: "Not your turn", RuleID: "999"},
		{Source: rules.SourceRule, Type: rules.Forbid, Description: "Not enough energy", RuleID: "111"},
	})
	if res.Allowed || res.AppliedRuleID != "999" {
		t.Errorf("resolution = %+v, want forbidden by 999", res)
	}

	last := logger.LastEvent()
	if last.Type != log.EventPermissionResolved || last.RuleID != "999" || last.Turn != 1 || last.Card != "play PX-001" {
		t.Errorf("last event = %+v", last)
	}
}

func TestEngine_ResolveCardInstructions(t *testing.T) {
	e, logger := newTestEngine()

	res := e.ResolveCardInstructions("p1", "Fireball", []rules.GameInstruction{
		{ID: "deal", Description: "Deal 3 to a unit", Possible: false},
	})
	if !res.NoEffect() || res.AppliedRuleID != rules.RuleImpossibleInstructions {
		t.Errorf("resolution = %+v, want no effect under 266", res)
	}
	last := logger.LastEvent()
	if last.Type != log.EventInstructionsResolved || last.RuleID != "266" || last.Turn != 0 {
		t.Errorf("last event = %+v", last)
	}

	res = e.ResolveCardInstructions("p1", "Scout", []rules.GameInstruction{
		{ID: "draw", Description: "Draw 1", Possible: true},
		{ID: "ready", Description: "Ready a rune", Possible: false},
	})
	if len(res.Instructions) != 1 || res.Instructions[0].ID != "draw" || res.AppliedRuleID != "" {
		t.Errorf("resolution = %+v, want only draw", res)
	}
}

func TestNewEngine_Defaults(t *testing.T) {
	e := NewEngine(EngineConfig{})
	if e.Logger == nil {
		t.Fatal("NewEngine should default to a memory logger")
	}
	p, _, err := e.ImportPlayer("p1", `["A"]`)
	if err != nil {
		t.Fatal(err)
	}
	if p.Health != StartingHealth {
		t.Errorf("Health = %d, want %d", p.Health, StartingHealth)
	}

	e = NewEngine(EngineConfig{StartingHealth: 8})
	p, _, _ = e.ImportPlayer("p1", `["A"]`)
	if p.Health != 8 {
		t.Errorf("Health = %d, want 8", p.Health)
	}
}

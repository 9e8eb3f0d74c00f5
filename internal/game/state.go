package game

import (
	"github.com/google/uuid"
	"github.com/peterkuimelis/rift/internal/deck"
)

const (
	StartingHealth = 20
	FirstTurn      = 1
)

// PlayerState represents one player's entire state.
type PlayerState struct {
	ID       string        `json:"id"`
	Health   int           `json:"health"`
	Hand     []deck.CardID `json:"hand"`
	Deck     []deck.CardID `json:"deck"`     // main deck, top of deck is the first element
	RuneDeck []deck.CardID `json:"runeDeck"` // rune deck, top of deck is the first element
	Discard  []deck.CardID `json:"discard"`
}

// NewPlayer builds a player whose main and rune decks are the expanded
// sections of d, in deck order.
func NewPlayer(id string, d *deck.ImportedDeck, health int) PlayerState {
	return PlayerState{
		ID:       id,
		Health:   health,
		Hand:     []deck.CardID{},
		Deck:     deck.Expand(d.MainDeck),
		RuneDeck: deck.Expand(d.RuneDeck),
		Discard:  []deck.CardID{},
	}
}

// DeckCount returns the number of cards remaining in the main deck.
func (p PlayerState) DeckCount() int {
	return len(p.Deck)
}

func (p PlayerState) clone() PlayerState {
	p.Hand = cloneIDs(p.Hand)
	p.Deck = cloneIDs(p.Deck)
	p.RuneDeck = cloneIDs(p.RuneDeck)
	p.Discard = cloneIDs(p.Discard)
	return p
}

func cloneIDs(ids []deck.CardID) []deck.CardID {
	if ids == nil {
		return nil
	}
	out := make([]deck.CardID, len(ids))
	copy(out, ids)
	return out
}

// GameState is the complete state of a match.
type GameState struct {
	MatchID        string                 `json:"matchId"`
	Turn           int                    `json:"turn"`
	ActivePlayerID string                 `json:"activePlayerId"`
	Players        map[string]PlayerState `json:"players"`
	Order          []string               `json:"order"` // seating order, one entry per distinct player ID
}

// NewGameState creates the initial state of a match: turn 1, the first
// listed player active. When two records share an ID the later one is kept.
// The input records are copied.
func NewGameState(players []PlayerState) *GameState {
	gs := &GameState{
		MatchID: uuid.NewString(),
		Turn:    FirstTurn,
		Players: make(map[string]PlayerState, len(players)),
		Order:   make([]string, 0, len(players)),
	}
	if len(players) > 0 {
		gs.ActivePlayerID = players[0].ID
	}
	for _, p := range players {
		if _, seen := gs.Players[p.ID]; !seen {
			gs.Order = append(gs.Order, p.ID)
		}
		gs.Players[p.ID] = p.clone()
	}
	return gs
}

// Player returns the player with the given ID.
func (gs *GameState) Player(id string) (PlayerState, bool) {
	p, ok := gs.Players[id]
	return p, ok
}

// AdvanceTurn moves to the next turn and passes the active role to the
// next player in seating order.
func (gs *GameState) AdvanceTurn() {
	gs.Turn++
	if len(gs.Order) == 0 {
		return
	}
	next := 0
	for i, id := range gs.Order {
		if id == gs.ActivePlayerID {
			next = (i + 1) % len(gs.Order)
			break
		}
	}
	gs.ActivePlayerID = gs.Order[next]
}

// Clone returns a deep copy of the state.
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	out := *gs
	out.Players = make(map[string]PlayerState, len(gs.Players))
	for id, p := range gs.Players {
		out.Players[id] = p.clone()
	}
	out.Order = append([]string(nil), gs.Order...)
	return &out
}

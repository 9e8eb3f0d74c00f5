package deck

import (
	"errors"
	"fmt"
	"math"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MaxCards bounds the cards a deck may hold across both sections before it is
// expanded into a player's piles. Decoding accepts larger counts.
const MaxCards = 1000

// ErrDeckTooLarge is returned by CheckSize when a deck exceeds MaxCards.
var ErrDeckTooLarge = errors.New("deck too large")

// CardID identifies a card. IDs are compared exactly after trimming.
type CardID = string

// SectionEntry is one distinct card in a deck section and how many copies it has.
type SectionEntry struct {
	CardID CardID `json:"cardId" yaml:"cardId"`
	Count  int    `json:"count" yaml:"count"`
}

// ImportedDeck is the canonical form every deck code decodes to.
type ImportedDeck struct {
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
	MainDeck []SectionEntry `json:"mainDeck" yaml:"mainDeck"`
	RuneDeck []SectionEntry `json:"runeDeck" yaml:"runeDeck"`
}

// MainCount returns the total number of cards in the main deck.
func (d *ImportedDeck) MainCount() int {
	return totalCount(d.MainDeck)
}

// RuneCount returns the total number of cards in the rune deck.
func (d *ImportedDeck) RuneCount() int {
	return totalCount(d.RuneDeck)
}

// CheckSize reports ErrDeckTooLarge when the deck holds more than MaxCards cards.
func (d *ImportedDeck) CheckSize() error {
	if n := d.MainCount() + d.RuneCount(); n > MaxCards {
		return fmt.Errorf("%w: %d cards, limit is %d", ErrDeckTooLarge, n, MaxCards)
	}
	return nil
}

func totalCount(entries []SectionEntry) int {
	n := 0
	for _, e := range entries {
		n += e.Count
	}
	return n
}

// Expand returns count copies of each entry's card ID, in entry order.
func Expand(entries []SectionEntry) []CardID {
	cards := make([]CardID, 0, totalCount(entries))
	for _, entry := range entries {
		for i := 0; i < entry.Count; i++ {
			cards = append(cards, entry.CardID)
		}
	}
	return cards
}

// sectionBuilder accumulates card counts for one section, merging repeated
// IDs into the position of their first occurrence.
type sectionBuilder struct {
	counts *orderedmap.OrderedMap[CardID, int]
}

func newSectionBuilder() *sectionBuilder {
	return &sectionBuilder{counts: orderedmap.New[CardID, int]()}
}

// add records count copies of id. Blank IDs are dropped; counts that are not
// finite or not at least one become a single copy.
func (b *sectionBuilder) add(id string, count float64) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	n := 1
	if !math.IsNaN(count) && !math.IsInf(count, 0) && count >= 1 && count <= math.MaxInt32 {
		n = int(count)
	}
	prev, _ := b.counts.Get(id)
	b.counts.Set(id, prev+n)
}

func (b *sectionBuilder) entries() []SectionEntry {
	entries := make([]SectionEntry, 0, b.counts.Len())
	for pair := b.counts.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, SectionEntry{CardID: pair.Key, Count: pair.Value})
	}
	return entries
}

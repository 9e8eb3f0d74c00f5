package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// EventLogger is the interface for logging engine events.
type EventLogger interface {
	Log(event GameEvent)
	Events() []GameEvent
}

// --- MemoryLogger: stores events in memory for test assertions ---

type MemoryLogger struct {
	mu     sync.Mutex
	events []GameEvent
	seq    int
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event GameEvent) {
	l.record(event)
}

func (l *MemoryLogger) record(event GameEvent) GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
	return event
}

// Events returns a snapshot of all logged events.
func (l *MemoryLogger) Events() []GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]GameEvent, len(l.events))
	copy(out, l.events)
	return out
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []GameEvent {
	var result []GameEvent
	for _, e := range l.Events() {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return GameEvent{}
	}
	return l.events[len(l.events)-1]
}

// --- TextLogger: writes human-readable lines to an io.Writer ---

type TextLogger struct {
	MemoryLogger
	wmu sync.Mutex
	w   io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

func (l *TextLogger) Log(event GameEvent) {
	event = l.MemoryLogger.record(event)
	l.wmu.Lock()
	defer l.wmu.Unlock()
	fmt.Fprintln(l.w, FormatEvent(event))
}

// --- Formatting ---

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e GameEvent) string {
	line := fmt.Sprintf("[%-5s] T%-2d %-20s| %s", e.Type.Level(), e.Turn, e.Type.String(), e.Details)
	if e.RuleID != "" {
		line += fmt.Sprintf(" (rule %s)", e.RuleID)
	}
	return line
}

// FormatAll formats all events as a multi-line string.
func FormatAll(events []GameEvent) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(FormatEvent(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// --- Helper constructors for common events ---

func NewInfoEvent(message string) GameEvent {
	return GameEvent{Type: EventInfo, Details: message}
}

func NewWarnEvent(message string) GameEvent {
	return GameEvent{Type: EventWarn, Details: message}
}

func NewErrorEvent(message string) GameEvent {
	return GameEvent{Type: EventError, Details: message}
}

func NewGameCreatedEvent(matchID string, playerIDs []string, activePlayer string) GameEvent {
	return GameEvent{
		Turn:    1,
		Player:  activePlayer,
		Type:    EventGameCreated,
		Details: fmt.Sprintf("Match %s created with %d player(s) [%s]; %s goes first", matchID, len(playerIDs), strings.Join(playerIDs, ", "), activePlayer),
	}
}

func NewTurnEvent(turn int, player string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Player:  player,
		Type:    EventNewTurn,
		Details: fmt.Sprintf("=== Turn %d (%s) ===", turn, player),
	}
}

func NewDeckImportedEvent(player, deckName string, mainCount, runeCount int) GameEvent {
	if deckName == "" {
		deckName = "unnamed deck"
	}
	return GameEvent{
		Player:  player,
		Type:    EventDeckImported,
		Details: fmt.Sprintf("%s imported %s (%d main, %d rune)", player, deckName, mainCount, runeCount),
	}
}

func NewDeckImportFailedEvent(player string, err error) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventDeckImportFailed,
		Details: fmt.Sprintf("%s deck import failed: %v", player, err),
	}
}

func NewPermissionEvent(turn int, player, action string, allowed bool, ruleID string) GameEvent {
	verdict := "allowed"
	if !allowed {
		verdict = "forbidden"
	}
	return GameEvent{
		Turn:    turn,
		Player:  player,
		Type:    EventPermissionResolved,
		Card:    action,
		RuleID:  ruleID,
		Details: fmt.Sprintf("%s: %s is %s", player, action, verdict),
	}
}

func NewInstructionsEvent(turn int, player, card string, executed, total int, ruleID string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Player:  player,
		Type:    EventInstructionsResolved,
		Card:    card,
		RuleID:  ruleID,
		Details: fmt.Sprintf("%s resolves %s: %d of %d instruction(s) executed", player, card, executed, total),
	}
}

package log

// EventType enumerates all observable engine events.
type EventType int

const (
	EventInfo EventType = iota
	EventWarn
	EventError
	EventGameCreated
	EventNewTurn
	EventDeckImported
	EventDeckImportFailed
	EventPermissionResolved
	EventInstructionsResolved
)

func (e EventType) String() string {
	switch e {
	case EventInfo:
		return "Info"
	case EventWarn:
		return "Warn"
	case EventError:
		return "Error"
	case EventGameCreated:
		return "GameCreated"
	case EventNewTurn:
		return "NewTurn"
	case EventDeckImported:
		return "DeckImported"
	case EventDeckImportFailed:
		return "DeckImportFailed"
	case EventPermissionResolved:
		return "PermissionResolved"
	case EventInstructionsResolved:
		return "InstructionsResolved"
	default:
		return "Unknown"
	}
}

// Level returns the severity label used when formatting the event.
func (e EventType) Level() string {
	switch e {
	case EventWarn, EventDeckImportFailed:
		return "warn"
	case EventError:
		return "error"
	default:
		return "info"
	}
}

// GameEvent represents a single observable event.
type GameEvent struct {
	Seq     int       // monotonic sequence number
	Turn    int       // game turn (0 before a game exists)
	Player  string    // acting player ID (if applicable)
	Type    EventType // event type
	Card    string    // card ID or ability name (if applicable)
	RuleID  string    // cited core rule (if applicable)
	Details string    // human-readable detail string
}

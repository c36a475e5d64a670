package domain

// EventKind tags entries of the session event log.
type EventKind string

const (
	EventGameStarted EventKind = "GAME_STARTED"
	EventTurn        EventKind = "TURN"
	EventSettle      EventKind = "SETTLE"
	EventDraw        EventKind = "DRAW"
	EventGuess       EventKind = "GUESS"
	EventReveal      EventKind = "REVEAL"
	EventEliminated  EventKind = "ELIMINATED"
	EventPlay        EventKind = "PLAY"
	EventPenalty     EventKind = "PENALTY_STACK"
	EventPenaltyDraw EventKind = "PENALTY_DRAW"
	EventColorChoice EventKind = "COLOR_CHOOSE"
	EventCall        EventKind = "CALL"
	EventGameOver    EventKind = "GAME_OVER"
)

// Event is produced by a rule engine for an applied command. Text is public:
// it must never contain the identity of a card that is hidden from anyone.
type Event struct {
	Kind  EventKind
	Actor string
	Text  string
}

// LogEntry is an Event after the coordinator sequenced it.
type LogEntry struct {
	Seq   uint64    `json:"seq"`
	Turn  int       `json:"turn"`
	Kind  EventKind `json:"kind"`
	Actor string    `json:"actor,omitempty"`
	Text  string    `json:"text"`
}

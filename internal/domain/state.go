package domain

// Phase is the decision point a session is waiting on.
type Phase string

// PhaseTerminal is shared by both variants: the session has an outcome and accepts no more commands.
const PhaseTerminal Phase = "TERMINAL"

// Outcome records how a finished session ended.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeWinner    Outcome = "WINNER"
	OutcomeStalemate Outcome = "STALEMATE"
)

// PlayerSpec describes a participant at session creation.
type PlayerSpec struct {
	ID  string `json:"id"`
	Bot bool   `json:"bot,omitempty"`
}

// Status summarizes turn ownership and termination of a State.
type Status struct {
	Phase        Phase
	ActivePlayer string
	Turn         int
	Outcome      Outcome
	Winner       string
}

// Terminal reports whether the session has finished.
func (s Status) Terminal() bool {
	return s.Phase == PhaseTerminal
}

// State is the variant-specific authoritative state of one session.
// A State is only ever mutated by the coordinator goroutine that owns it;
// committed states are treated as immutable and cloned before the next command.
type State interface {
	Clone() State
	Status() Status
}

// Rules is implemented by each variant's rule engine.
type Rules interface {
	Variant() Variant
	// NewState deals a fresh session for the given players.
	NewState(players []PlayerSpec, seed int64) (State, []Event, error)
	// Apply validates cmd issued by actor and mutates s when it is legal.
	// A non-nil error means the command was rejected and s must be discarded.
	Apply(s State, actor string, cmd Command) ([]Event, error)
	// Project derives what viewer may see of s. It never mutates s.
	Project(s State, viewer string) View
	// DecodeCommand converts a transport envelope into a typed command.
	DecodeCommand(env Envelope) (Command, error)
}

package deduction

import "flip/internal/domain"

const (
	PhaseSettleInitial  domain.Phase = "AWAITING_SETTLE_INITIAL"
	PhaseDrawColor      domain.Phase = "AWAITING_DRAW_COLOR"
	PhaseSettle         domain.Phase = "AWAITING_SETTLE_POSITION"
	PhaseGuess          domain.Phase = "AWAITING_GUESS_SELECTION"
	PhaseRevealDecision domain.Phase = "AWAITING_REVEAL_DECISION"
	PhaseSelfReveal     domain.Phase = "AWAITING_SELF_REVEAL_CHOICE"
)

// Player is a seat in a deduction session.
type Player struct {
	ID      string
	Bot     bool
	Hand    Hand
	Settled bool
}

// State is the authoritative deduction session.
type State struct {
	Players []*Player
	Active  int
	Phase   domain.Phase
	Deck    *Deck
	// Pending is the tile the active player drew and has not placed yet.
	Pending *Card
	Turn    int
	Outcome domain.Outcome
	Winner  string
}

var _ domain.State = (*State)(nil)

// Clone returns a deep copy.
func (s *State) Clone() domain.State {
	out := *s
	out.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp := *p
		cp.Hand = p.Hand.clone()
		out.Players[i] = &cp
	}
	out.Deck = s.Deck.clone()
	if s.Pending != nil {
		pending := *s.Pending
		out.Pending = &pending
	}
	return &out
}

// Status implements domain.State.
func (s *State) Status() domain.Status {
	st := domain.Status{
		Phase:   s.Phase,
		Turn:    s.Turn,
		Outcome: s.Outcome,
		Winner:  s.Winner,
	}
	if s.Phase != domain.PhaseTerminal && s.Phase != PhaseSettleInitial {
		st.ActivePlayer = s.Players[s.Active].ID
	}
	return st
}

func (s *State) indexOf(id string) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *State) active() *Player {
	return s.Players[s.Active]
}

// concealed returns the players that still hold at least one hidden tile.
func (s *State) concealed() []*Player {
	var out []*Player
	for _, p := range s.Players {
		if !p.Hand.AllRevealed() {
			out = append(out, p)
		}
	}
	return out
}

package shedding

import "flip/internal/domain"

const (
	PhasePlay        domain.Phase = "AWAITING_PLAY"
	PhaseColorChoice domain.Phase = "AWAITING_COLOR_CHOICE"
)

// Player is a seat in a shedding session. Hand order carries no meaning.
type Player struct {
	ID       string
	Bot      bool
	Hand     []Card
	Declared bool
}

// State is the authoritative shedding session.
type State struct {
	Players   []*Player
	Active    int
	Direction int
	Phase     domain.Phase
	Deck      *Deck
	// ActiveColor is the color to match; it differs from the top card's after a wild.
	ActiveColor Color
	// PendingDraw accumulates stacked draw-two / wild-draw-four penalties.
	PendingDraw  int
	PendingClass int
	Turn         int
	Outcome      domain.Outcome
	Winner       string
}

var _ domain.State = (*State)(nil)

// Clone returns a deep copy.
func (s *State) Clone() domain.State {
	out := *s
	out.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp := *p
		cp.Hand = cloneCards(p.Hand)
		out.Players[i] = &cp
	}
	out.Deck = s.Deck.clone()
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
	if s.Phase != domain.PhaseTerminal {
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

// seatAfter returns the seat steps places away in the current direction.
func (s *State) seatAfter(steps int) int {
	n := len(s.Players)
	return ((s.Active+steps*s.Direction)%n + n) % n
}

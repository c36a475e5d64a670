package shedding

import (
	"fmt"
	"strings"

	"flip/internal/domain"
)

const (
	MinPlayers = 2
	MaxPlayers = 10
)

// Options are the house rules of a shedding session.
type Options struct {
	StartingHand int
	// CallThreshold is the exact hand size at which DeclareCall is legal.
	CallThreshold int
	// MissedCallPenalty cards are drawn by a player who reaches one card
	// without having declared. Zero disables the penalty.
	MissedCallPenalty int
	// ForbidDrawWhenPlayable rejects a voluntary draw while a legal play exists.
	ForbidDrawWhenPlayable bool
}

// DefaultOptions returns the standard rules.
func DefaultOptions() Options {
	return Options{StartingHand: 7, CallThreshold: 2}
}

// Rules is the shedding rule engine.
type Rules struct {
	opts Options
}

var _ domain.Rules = (*Rules)(nil)

// NewRules builds an engine; non-positive sizes fall back to defaults.
func NewRules(opts Options) *Rules {
	def := DefaultOptions()
	if opts.StartingHand <= 0 {
		opts.StartingHand = def.StartingHand
	}
	if opts.CallThreshold <= 0 {
		opts.CallThreshold = def.CallThreshold
	}
	if opts.MissedCallPenalty < 0 {
		opts.MissedCallPenalty = 0
	}
	return &Rules{opts: opts}
}

func (r *Rules) Variant() domain.Variant { return domain.VariantShedding }

// NewState deals StartingHand cards to each player and turns up the first
// non-wild card. Wilds turned up go to the bottom of the draw pile.
func (r *Rules) NewState(players []domain.PlayerSpec, seed int64) (domain.State, []domain.Event, error) {
	if len(players) < MinPlayers || len(players) > MaxPlayers {
		return nil, nil, fmt.Errorf("shedding needs %d-%d players, got %d", MinPlayers, MaxPlayers, len(players))
	}
	if len(players)*r.opts.StartingHand >= DeckSize {
		return nil, nil, fmt.Errorf("cannot deal %d cards to %d players", r.opts.StartingHand, len(players))
	}

	deck := NewShuffledDeck(seed)
	st := &State{Direction: 1, Phase: PhasePlay, Deck: deck, Turn: 1}
	for _, spec := range players {
		st.Players = append(st.Players, &Player{ID: spec.ID, Bot: spec.Bot})
	}
	for round := 0; round < r.opts.StartingHand; round++ {
		for _, p := range st.Players {
			c, ok := deck.Draw()
			if !ok {
				return nil, nil, domain.Invariantf("deck ran out while dealing")
			}
			p.Hand = append(p.Hand, c)
		}
	}

	for {
		c, ok := deck.Draw()
		if !ok {
			return nil, nil, domain.Invariantf("no starting card available")
		}
		if c.IsWild() {
			deck.putBottom(c)
			continue
		}
		deck.Discard(c)
		st.ActiveColor = c.Color
		break
	}

	top, _ := deck.Top()
	events := []domain.Event{
		{Kind: domain.EventGameStarted, Text: fmt.Sprintf("%d cards dealt to %d players; first card is %s", r.opts.StartingHand, len(players), top)},
		{Kind: domain.EventTurn, Actor: st.active().ID, Text: fmt.Sprintf("%s's turn", st.active().ID)},
	}
	return st, events, nil
}

// Apply implements domain.Rules. Validation always completes before the
// first mutation of s.
func (r *Rules) Apply(s domain.State, actor string, cmd domain.Command) ([]domain.Event, error) {
	st, ok := s.(*State)
	if !ok {
		return nil, domain.Invariantf("shedding engine got %T", s)
	}
	if st.Phase == domain.PhaseTerminal {
		return nil, domain.Reject(domain.KindSessionTerminal, "the game is over")
	}
	idx := st.indexOf(actor)
	if idx < 0 {
		return nil, domain.Reject(domain.KindUnknownPlayer, "%s is not seated in this game", actor)
	}

	if c, ok := cmd.(ChooseColor); ok {
		return r.chooseColor(st, idx, c)
	}
	if idx != st.Active {
		return nil, domain.Reject(domain.KindNotYourTurn, "it is %s's turn", st.active().ID)
	}
	if st.Phase == PhaseColorChoice {
		return nil, domain.Reject(domain.KindWrongPhase, "choose a color first")
	}

	switch c := cmd.(type) {
	case PlayCard:
		return r.playCard(st, c)
	case DrawCard:
		return r.drawCard(st)
	case DeclareCall:
		return r.declare(st)
	}
	return nil, domain.Reject(domain.KindBadCommand, "%s is not a shedding command", cmd.Name())
}

// Playable reports whether c may be played on the current table.
func (r *Rules) Playable(st *State, c Card) bool {
	if st.PendingDraw > 0 {
		return c.drawClass() >= st.PendingClass
	}
	if c.IsWild() {
		return true
	}
	top, ok := st.Deck.Top()
	return c.Color == st.ActiveColor || (ok && c.Value == top.Value)
}

func (r *Rules) hasPlayable(st *State, p *Player) bool {
	for _, c := range p.Hand {
		if r.Playable(st, c) {
			return true
		}
	}
	return false
}

func (r *Rules) playCard(st *State, c PlayCard) ([]domain.Event, error) {
	p := st.active()
	card := c.Card
	if card.IsWild() {
		card.Color = ColorWild
	}
	at := -1
	for i, h := range p.Hand {
		if h == card {
			at = i
			break
		}
	}
	if at < 0 {
		return nil, domain.Reject(domain.KindCardNotInHand, "%s is not in your hand", card)
	}
	if !r.Playable(st, card) {
		if st.PendingDraw > 0 {
			return nil, domain.Reject(domain.KindIllegalPlay, "%d cards pending: stack an equal or stronger draw card or draw", st.PendingDraw)
		}
		return nil, domain.Reject(domain.KindIllegalPlay, "%s does not match %s", card, st.ActiveColor)
	}

	p.Hand = append(p.Hand[:at:at], p.Hand[at+1:]...)
	st.Deck.Discard(card)
	events := []domain.Event{{Kind: domain.EventPlay, Actor: p.ID, Text: fmt.Sprintf("%s played %s", p.ID, card)}}

	if len(p.Hand) == 0 {
		return append(events, r.finish(st, p)...), nil
	}
	if len(p.Hand) == 1 && !p.Declared && r.opts.MissedCallPenalty > 0 {
		n := r.drawInto(st, p, r.opts.MissedCallPenalty)
		events = append(events, domain.Event{
			Kind:  domain.EventPenaltyDraw,
			Actor: p.ID,
			Text:  fmt.Sprintf("%s forgot to call and draws %d", p.ID, n),
		})
	}

	if amount := card.drawAmount(); amount > 0 {
		st.PendingDraw += amount
		if cl := card.drawClass(); cl > st.PendingClass {
			st.PendingClass = cl
		}
		events = append(events, domain.Event{
			Kind:  domain.EventPenalty,
			Actor: p.ID,
			Text:  fmt.Sprintf("pending draw is now %d", st.PendingDraw),
		})
	}

	if card.IsWild() {
		st.Phase = PhaseColorChoice
		return append(events, domain.Event{
			Kind:  domain.EventColorChoice,
			Actor: p.ID,
			Text:  fmt.Sprintf("%s is choosing a color", p.ID),
		}), nil
	}

	st.ActiveColor = card.Color
	steps := 1
	switch card.Value {
	case ValueSkip:
		steps = 2
	case ValueReverse:
		if len(st.Players) == 2 {
			steps = 2
		} else {
			st.Direction = -st.Direction
		}
	}
	return append(events, r.advance(st, steps)...), nil
}

func (r *Rules) drawCard(st *State) ([]domain.Event, error) {
	p := st.active()
	if st.PendingDraw > 0 {
		want := st.PendingDraw
		n := r.drawInto(st, p, want)
		st.PendingDraw = 0
		st.PendingClass = 0
		events := []domain.Event{{
			Kind:  domain.EventPenaltyDraw,
			Actor: p.ID,
			Text:  fmt.Sprintf("%s draws %d penalty cards", p.ID, n),
		}}
		return append(events, r.advance(st, 1)...), nil
	}

	if r.opts.ForbidDrawWhenPlayable && r.hasPlayable(st, p) {
		return nil, domain.Reject(domain.KindMustPlayInstead, "you hold a playable card")
	}
	text := fmt.Sprintf("%s drew a card", p.ID)
	if r.drawInto(st, p, 1) == 0 {
		text = fmt.Sprintf("no cards left to draw; %s passes", p.ID)
	}
	events := []domain.Event{{Kind: domain.EventDraw, Actor: p.ID, Text: text}}
	return append(events, r.advance(st, 1)...), nil
}

func (r *Rules) chooseColor(st *State, idx int, c ChooseColor) ([]domain.Event, error) {
	if st.Phase != PhaseColorChoice || idx != st.Active {
		return nil, domain.Reject(domain.KindNoColorChoicePending, "no color choice is pending for you")
	}
	if c.Color == ColorWild {
		return nil, domain.Reject(domain.KindIllegalPlay, "choose red, yellow, green or blue")
	}
	p := st.active()
	st.ActiveColor = c.Color
	st.Phase = PhasePlay
	events := []domain.Event{{
		Kind:  domain.EventColorChoice,
		Actor: p.ID,
		Text:  fmt.Sprintf("%s chose %s", p.ID, strings.ToLower(string(c.Color))),
	}}
	return append(events, r.advance(st, 1)...), nil
}

func (r *Rules) declare(st *State) ([]domain.Event, error) {
	p := st.active()
	if len(p.Hand) != r.opts.CallThreshold {
		return nil, domain.Reject(domain.KindIllegalPlay, "call only with exactly %d cards", r.opts.CallThreshold)
	}
	if p.Declared {
		return nil, domain.Reject(domain.KindIllegalPlay, "already called")
	}
	p.Declared = true
	return []domain.Event{{Kind: domain.EventCall, Actor: p.ID, Text: fmt.Sprintf("%s calls!", p.ID)}}, nil
}

// drawInto moves up to n cards into p's hand and returns how many were drawn.
func (r *Rules) drawInto(st *State, p *Player, n int) int {
	drawn := 0
	for ; drawn < n; drawn++ {
		c, ok := st.Deck.Draw()
		if !ok {
			break
		}
		p.Hand = append(p.Hand, c)
	}
	if len(p.Hand) > r.opts.CallThreshold {
		p.Declared = false
	}
	return drawn
}

func (r *Rules) advance(st *State, steps int) []domain.Event {
	st.Active = st.seatAfter(steps)
	st.Turn++
	p := st.active()
	return []domain.Event{{Kind: domain.EventTurn, Actor: p.ID, Text: fmt.Sprintf("%s's turn", p.ID)}}
}

func (r *Rules) finish(st *State, winner *Player) []domain.Event {
	st.Phase = domain.PhaseTerminal
	st.Outcome = domain.OutcomeWinner
	st.Winner = winner.ID
	st.PendingDraw = 0
	st.PendingClass = 0
	return []domain.Event{{Kind: domain.EventGameOver, Actor: winner.ID, Text: fmt.Sprintf("%s wins", winner.ID)}}
}

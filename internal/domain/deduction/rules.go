package deduction

import (
	"fmt"
	"math/rand"
	"strings"

	"flip/internal/domain"
)

// WinRule decides when a round is over.
type WinRule string

const (
	// WinLastConcealed eliminates fully revealed players; the last player
	// holding a hidden tile wins.
	WinLastConcealed WinRule = "last_concealed"
	// WinFirstExposed ends the round as soon as one hand is fully revealed
	// and records that player as the winner.
	WinFirstExposed WinRule = "first_exposed"
)

// ExhaustionPolicy decides what a turn does once both piles are empty.
type ExhaustionPolicy string

const (
	ExhaustStalemate ExhaustionPolicy = "stalemate"
	ExhaustGuessOnly ExhaustionPolicy = "guess_only"
)

const (
	MinPlayers = 2
	MaxPlayers = 4
)

// Options are the house rules of a deduction session.
type Options struct {
	WinRule          WinRule
	Exhaustion       ExhaustionPolicy
	ShowHiddenColors bool
}

// DefaultOptions returns the standard rules.
func DefaultOptions() Options {
	return Options{WinRule: WinLastConcealed, Exhaustion: ExhaustStalemate}
}

// Rules is the deduction rule engine. It holds no session state.
type Rules struct {
	opts Options
}

var _ domain.Rules = (*Rules)(nil)

// NewRules builds an engine; unknown option values fall back to defaults.
func NewRules(opts Options) *Rules {
	def := DefaultOptions()
	if opts.WinRule != WinFirstExposed {
		opts.WinRule = def.WinRule
	}
	if opts.Exhaustion != ExhaustGuessOnly {
		opts.Exhaustion = def.Exhaustion
	}
	return &Rules{opts: opts}
}

func (r *Rules) Variant() domain.Variant { return domain.VariantDeduction }

// NewState deals the opening hands. Two or three players get two tiles of
// each color; with four players two seats get 2 black + 1 white and the
// other two get 1 black + 2 white.
func (r *Rules) NewState(players []domain.PlayerSpec, seed int64) (domain.State, []domain.Event, error) {
	if len(players) < MinPlayers || len(players) > MaxPlayers {
		return nil, nil, fmt.Errorf("deduction needs %d-%d players, got %d", MinPlayers, MaxPlayers, len(players))
	}

	deck := NewShuffledDeck(seed)
	quota := make([][2]int, len(players))
	for i := range quota {
		quota[i] = [2]int{2, 2}
	}
	if len(players) == 4 {
		perm := rand.New(rand.NewSource(seed)).Perm(4)
		for k, seat := range perm {
			if k < 2 {
				quota[seat] = [2]int{2, 1}
			} else {
				quota[seat] = [2]int{1, 2}
			}
		}
	}

	st := &State{Phase: PhaseSettleInitial, Deck: deck}
	for i, spec := range players {
		var cards []Card
		for _, c := range Colors {
			for n := 0; n < quota[i][c]; n++ {
				card, ok := deck.DrawColor(c)
				if !ok {
					return nil, nil, domain.Invariantf("deal ran out of %s tiles", c)
				}
				cards = append(cards, card)
			}
		}
		hand := make(Hand, 0, len(cards))
		for _, c := range SortCards(cards) {
			hand = append(hand, Slot{Card: c})
		}
		st.Players = append(st.Players, &Player{ID: spec.ID, Bot: spec.Bot, Hand: hand})
	}

	events := []domain.Event{{
		Kind: domain.EventGameStarted,
		Text: fmt.Sprintf("tiles dealt to %d players; everyone arranges their hand", len(players)),
	}}
	return st, events, nil
}

// Apply implements domain.Rules. Validation always completes before the
// first mutation of s.
func (r *Rules) Apply(s domain.State, actor string, cmd domain.Command) ([]domain.Event, error) {
	st, ok := s.(*State)
	if !ok {
		return nil, domain.Invariantf("deduction engine got %T", s)
	}
	if st.Phase == domain.PhaseTerminal {
		return nil, domain.Reject(domain.KindSessionTerminal, "the game is over")
	}
	idx := st.indexOf(actor)
	if idx < 0 {
		return nil, domain.Reject(domain.KindUnknownPlayer, "%s is not seated in this game", actor)
	}

	if c, ok := cmd.(SettleInitial); ok {
		return r.settleInitial(st, idx, c)
	}
	if st.Phase == PhaseSettleInitial {
		return nil, domain.Reject(domain.KindWrongPhase, "waiting for every player to arrange their tiles")
	}
	if idx != st.Active {
		return nil, domain.Reject(domain.KindNotYourTurn, "it is %s's turn", st.active().ID)
	}

	switch c := cmd.(type) {
	case DrawColor:
		return r.drawColor(st, c)
	case Settle:
		return r.settle(st, c)
	case Guess:
		return r.guess(st, c)
	case Decide:
		return r.decide(st, c)
	case SelfReveal:
		return r.selfReveal(st, c)
	}
	return nil, domain.Reject(domain.KindBadCommand, "%s is not a deduction command", cmd.Name())
}

func (r *Rules) settleInitial(st *State, idx int, c SettleInitial) ([]domain.Event, error) {
	if st.Phase != PhaseSettleInitial {
		return nil, domain.Reject(domain.KindWrongPhase, "opening arrangement is already done")
	}
	p := st.Players[idx]
	hand, err := arrange(p.Hand, nil, c.Order)
	if err != nil {
		return nil, err
	}
	first := !p.Settled
	p.Hand = hand
	p.Settled = true

	text := fmt.Sprintf("%s rearranged their tiles", p.ID)
	if first {
		text = fmt.Sprintf("%s arranged their tiles", p.ID)
	}
	events := []domain.Event{{Kind: domain.EventSettle, Actor: p.ID, Text: text}}

	for _, other := range st.Players {
		if !other.Settled {
			return events, nil
		}
	}
	st.Active = 0
	st.Turn = 1
	return append(events, r.startTurn(st)...), nil
}

func (r *Rules) drawColor(st *State, c DrawColor) ([]domain.Event, error) {
	if st.Phase != PhaseDrawColor {
		return nil, domain.Reject(domain.KindWrongPhase, "cannot draw now")
	}
	card, ok := st.Deck.DrawColor(c.Color)
	if !ok {
		return nil, domain.Reject(domain.KindEmptyColorPile, "the %s pile is empty", c.Color)
	}
	st.Pending = &card
	st.Phase = PhaseSettle
	p := st.active()
	return []domain.Event{{
		Kind:  domain.EventDraw,
		Actor: p.ID,
		Text:  fmt.Sprintf("%s drew from the %s pile", p.ID, strings.ToLower(c.Color.String())),
	}}, nil
}

func (r *Rules) settle(st *State, c Settle) ([]domain.Event, error) {
	if st.Phase != PhaseSettle || st.Pending == nil {
		return nil, domain.Reject(domain.KindWrongPhase, "no drawn tile to place")
	}
	p := st.active()
	hand, err := arrange(p.Hand, st.Pending, c.Order)
	if err != nil {
		return nil, err
	}
	if err := ValidOrder(hand.Cards()); err != nil {
		return nil, domain.Invariantf("settled hand out of order: %v", err)
	}
	pos := -1
	for i, s := range hand {
		if s.Card == *st.Pending {
			pos = i
		}
	}
	p.Hand = hand
	st.Pending = nil
	st.Phase = PhaseGuess
	return []domain.Event{{
		Kind:  domain.EventSettle,
		Actor: p.ID,
		Text:  fmt.Sprintf("%s placed the drawn tile at position %d", p.ID, pos),
	}}, nil
}

func (r *Rules) guess(st *State, g Guess) ([]domain.Event, error) {
	if st.Phase != PhaseGuess {
		return nil, domain.Reject(domain.KindWrongPhase, "cannot guess now")
	}
	if !g.Joker && (g.Rank < 0 || g.Rank > MaxRank) {
		return nil, domain.Reject(domain.KindBadCommand, "rank %d out of range", g.Rank)
	}
	p := st.active()
	ti := st.indexOf(g.Target)
	if ti < 0 {
		return nil, domain.Reject(domain.KindInvalidTarget, "unknown player %s", g.Target)
	}
	if ti == st.Active {
		return nil, domain.Reject(domain.KindInvalidTarget, "cannot guess your own tiles")
	}
	target := st.Players[ti]
	if g.Index < 0 || g.Index >= len(target.Hand) {
		return nil, domain.Reject(domain.KindInvalidTarget, "%s has no slot %d", target.ID, g.Index)
	}
	slot := &target.Hand[g.Index]
	if slot.Revealed {
		return nil, domain.Reject(domain.KindInvalidTarget, "slot %d of %s is already revealed", g.Index, target.ID)
	}

	named := "joker"
	if !g.Joker {
		named = fmt.Sprintf("%d", g.Rank)
	}
	correct := slot.Card.Joker == g.Joker && (g.Joker || slot.Card.Rank == g.Rank)
	if !correct {
		st.Phase = PhaseSelfReveal
		return []domain.Event{{
			Kind:  domain.EventGuess,
			Actor: p.ID,
			Text:  fmt.Sprintf("%s guessed %s's slot %d is %s: wrong; %s must reveal a tile", p.ID, target.ID, g.Index, named, p.ID),
		}}, nil
	}

	slot.Revealed = true
	events := []domain.Event{
		{Kind: domain.EventGuess, Actor: p.ID, Text: fmt.Sprintf("%s guessed %s's slot %d is %s: correct", p.ID, target.ID, g.Index, named)},
		{Kind: domain.EventReveal, Actor: target.ID, Text: fmt.Sprintf("%s's slot %d is %s", target.ID, g.Index, slot.Card)},
	}
	events = append(events, r.eliminated(target)...)
	if done, end := r.checkEnd(st, target); done {
		return append(events, end...), nil
	}
	st.Phase = PhaseRevealDecision
	return events, nil
}

func (r *Rules) decide(st *State, d Decide) ([]domain.Event, error) {
	if st.Phase != PhaseRevealDecision {
		return nil, domain.Reject(domain.KindWrongPhase, "no guess to follow up")
	}
	p := st.active()
	if d.Continue {
		st.Phase = PhaseGuess
		return []domain.Event{{Kind: domain.EventTurn, Actor: p.ID, Text: fmt.Sprintf("%s keeps guessing", p.ID)}}, nil
	}
	events := []domain.Event{{Kind: domain.EventTurn, Actor: p.ID, Text: fmt.Sprintf("%s stops guessing", p.ID)}}
	return append(events, r.nextTurn(st)...), nil
}

func (r *Rules) selfReveal(st *State, c SelfReveal) ([]domain.Event, error) {
	if st.Phase != PhaseSelfReveal {
		return nil, domain.Reject(domain.KindWrongPhase, "nothing to reveal")
	}
	p := st.active()
	if c.Index < 0 || c.Index >= len(p.Hand) {
		return nil, domain.Reject(domain.KindInvalidTarget, "you have no slot %d", c.Index)
	}
	slot := &p.Hand[c.Index]
	if slot.Revealed {
		return nil, domain.Reject(domain.KindInvalidTarget, "slot %d is already revealed", c.Index)
	}
	slot.Revealed = true
	events := []domain.Event{{
		Kind:  domain.EventReveal,
		Actor: p.ID,
		Text:  fmt.Sprintf("%s revealed their slot %d: %s", p.ID, c.Index, slot.Card),
	}}
	events = append(events, r.eliminated(p)...)
	if done, end := r.checkEnd(st, p); done {
		return append(events, end...), nil
	}
	return append(events, r.nextTurn(st)...), nil
}

func (r *Rules) eliminated(p *Player) []domain.Event {
	if r.opts.WinRule != WinLastConcealed || !p.Hand.AllRevealed() {
		return nil
	}
	return []domain.Event{{Kind: domain.EventEliminated, Actor: p.ID, Text: fmt.Sprintf("%s has no hidden tiles left", p.ID)}}
}

// checkEnd applies the win rule after a reveal in exposed's hand.
func (r *Rules) checkEnd(st *State, exposed *Player) (bool, []domain.Event) {
	switch r.opts.WinRule {
	case WinFirstExposed:
		if exposed.Hand.AllRevealed() {
			return true, r.finish(st, domain.OutcomeWinner, exposed.ID)
		}
	default:
		alive := st.concealed()
		switch len(alive) {
		case 0:
			return true, r.finish(st, domain.OutcomeStalemate, "")
		case 1:
			return true, r.finish(st, domain.OutcomeWinner, alive[0].ID)
		}
	}
	return false, nil
}

func (r *Rules) finish(st *State, outcome domain.Outcome, winner string) []domain.Event {
	st.Phase = domain.PhaseTerminal
	st.Outcome = outcome
	st.Winner = winner
	st.Pending = nil
	text := "the game ends in a stalemate"
	if outcome == domain.OutcomeWinner {
		text = fmt.Sprintf("%s wins", winner)
	}
	return []domain.Event{{Kind: domain.EventGameOver, Actor: winner, Text: text}}
}

// nextTurn passes the turn to the next seat that still holds a hidden tile.
func (r *Rules) nextTurn(st *State) []domain.Event {
	n := len(st.Players)
	for step := 1; step <= n; step++ {
		i := (st.Active + step) % n
		if !st.Players[i].Hand.AllRevealed() {
			st.Active = i
			break
		}
	}
	st.Turn++
	return r.startTurn(st)
}

func (r *Rules) startTurn(st *State) []domain.Event {
	st.Pending = nil
	p := st.active()
	if st.Deck.RemainingCount() == 0 {
		if r.opts.Exhaustion == ExhaustGuessOnly {
			st.Phase = PhaseGuess
			return []domain.Event{{Kind: domain.EventTurn, Actor: p.ID, Text: fmt.Sprintf("%s's turn; both piles are empty, straight to guessing", p.ID)}}
		}
		return r.finish(st, domain.OutcomeStalemate, "")
	}
	st.Phase = PhaseDrawColor
	return []domain.Event{{Kind: domain.EventTurn, Actor: p.ID, Text: fmt.Sprintf("%s's turn", p.ID)}}
}

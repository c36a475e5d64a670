package bot

import (
	"fmt"

	"flip/internal/bot/brain"
	"flip/internal/domain"
	"flip/internal/domain/deduction"
)

// DeductionBrain plays the tile deduction game from the seat's view.
type DeductionBrain struct {
	Level     Level
	Memory    *brain.Memory
	Estimator *brain.Estimator
}

// NewDeductionBrain creates a brain with an empty memory.
func NewDeductionBrain(level Level) *DeductionBrain {
	mem := brain.NewMemory()
	return &DeductionBrain{Level: level, Memory: mem, Estimator: brain.NewEstimator(mem)}
}

func (b *DeductionBrain) Decide(view domain.View) (domain.Envelope, bool, error) {
	me, ok := view.PlayerByID(view.Viewer)
	if !ok || view.Phase == domain.PhaseTerminal {
		return domain.Envelope{}, false, nil
	}
	if view.Phase == deduction.PhaseSettleInitial {
		if me.Settled {
			return domain.Envelope{}, false, nil
		}
		cards, err := ownTiles(me)
		if err != nil {
			return domain.Envelope{}, false, err
		}
		return domain.Envelope{Type: deduction.CmdSettleInitial, Order: codes(deduction.SortCards(cards))}, true, nil
	}
	if view.ActivePlayer != view.Viewer {
		return domain.Envelope{}, false, nil
	}

	switch view.Phase {
	case deduction.PhaseDrawColor:
		return b.draw(view)
	case deduction.PhaseSettle:
		return b.settle(view, me)
	case deduction.PhaseGuess:
		return b.guess(view)
	case deduction.PhaseRevealDecision:
		b.Memory.Forget()
		return b.decide(view)
	case deduction.PhaseSelfReveal:
		b.Memory.RecordWrong()
		for i, s := range me.Slots {
			if !s.Revealed {
				return domain.Envelope{Type: deduction.CmdSelfReveal, Index: domain.IntPtr(i)}, true, nil
			}
		}
		return domain.Envelope{}, false, fmt.Errorf("self reveal: %w", ErrNoMove)
	}
	return domain.Envelope{}, false, nil
}

// draw picks the fuller pile.
func (b *DeductionBrain) draw(view domain.View) (domain.Envelope, bool, error) {
	black := view.Deck.ByColor[deduction.Black.String()]
	white := view.Deck.ByColor[deduction.White.String()]
	switch {
	case black == 0 && white == 0:
		return domain.Envelope{}, false, fmt.Errorf("draw: %w", ErrNoMove)
	case white > black:
		return domain.Envelope{Type: deduction.CmdDrawColor, Color: deduction.White.String()}, true, nil
	}
	return domain.Envelope{Type: deduction.CmdDrawColor, Color: deduction.Black.String()}, true, nil
}

func (b *DeductionBrain) settle(view domain.View, me domain.PlayerView) (domain.Envelope, bool, error) {
	if view.Pending == nil {
		return domain.Envelope{}, false, fmt.Errorf("settle: no pending tile in view")
	}
	pending, err := deduction.ParseCode(view.Pending.Code)
	if err != nil {
		return domain.Envelope{}, false, err
	}
	cards, err := ownTiles(me)
	if err != nil {
		return domain.Envelope{}, false, err
	}
	positions := deduction.InsertPositions(cards, pending)
	if len(positions) == 0 {
		return domain.Envelope{}, false, fmt.Errorf("settle: %w for %s", ErrNoMove, pending.Code())
	}
	// Jokers go in the middle of the allowed range, numbers anywhere valid.
	at := positions[0]
	if pending.Joker {
		at = positions[len(positions)/2]
	}
	order := make([]deduction.Card, 0, len(cards)+1)
	order = append(order, cards[:at]...)
	order = append(order, pending)
	order = append(order, cards[at:]...)
	return domain.Envelope{Type: deduction.CmdSettle, Order: codes(order)}, true, nil
}

func (b *DeductionBrain) guess(view domain.View) (domain.Envelope, bool, error) {
	ests := b.Estimator.Estimate(view)
	for _, est := range ests {
		if len(est.Candidates) == 0 {
			continue
		}
		card, _ := est.Best()
		b.Memory.RecordGuess(brain.Guess{Target: est.Target, Index: est.Index, HandSize: est.HandSize, Card: card})
		env := domain.Envelope{Type: deduction.CmdGuess, Target: est.Target, Index: domain.IntPtr(est.Index)}
		if card.Joker {
			env.Joker = true
		} else {
			env.Rank = domain.IntPtr(card.Rank)
		}
		return env, true, nil
	}
	return domain.Envelope{}, false, fmt.Errorf("guess: %w", ErrNoMove)
}

// decide keeps guessing only when the next guess cannot miss.
func (b *DeductionBrain) decide(view domain.View) (domain.Envelope, bool, error) {
	more := false
	if b.Level != LevelEasy {
		ests := b.Estimator.Estimate(view)
		more = len(ests) > 0 && len(ests[0].Candidates) > 0 && ests[0].Certain()
	}
	return domain.Envelope{Type: deduction.CmdDecide, Continue: domain.BoolPtr(more)}, true, nil
}

func ownTiles(me domain.PlayerView) ([]deduction.Card, error) {
	cards := make([]deduction.Card, 0, len(me.Slots))
	for i, s := range me.Slots {
		c, err := deduction.ParseCode(s.Code)
		if err != nil {
			return nil, fmt.Errorf("own slot %d: %w", i, err)
		}
		cards = append(cards, c)
	}
	return cards, nil
}

func codes(cards []deduction.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Code()
	}
	return out
}

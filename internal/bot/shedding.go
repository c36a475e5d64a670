package bot

import (
	"fmt"
	"strings"

	"flip/internal/bot/brain"
	"flip/internal/domain"
	"flip/internal/domain/shedding"
)

// SheddingBrain plays the color matching game.
type SheddingBrain struct {
	Level     Level
	Opponents map[string]*brain.OpponentProfile
	lastSeq   uint64
}

// NewSheddingBrain creates a brain with no opponent history.
func NewSheddingBrain(level Level) *SheddingBrain {
	return &SheddingBrain{Level: level, Opponents: make(map[string]*brain.OpponentProfile)}
}

func (b *SheddingBrain) Decide(view domain.View) (domain.Envelope, bool, error) {
	b.observe(view)
	me, ok := view.PlayerByID(view.Viewer)
	if !ok || view.Phase == domain.PhaseTerminal || view.ActivePlayer != view.Viewer {
		return domain.Envelope{}, false, nil
	}
	hand, err := ownCards(me)
	if err != nil {
		return domain.Envelope{}, false, err
	}

	if view.Phase == shedding.PhaseColorChoice {
		return domain.Envelope{Type: shedding.CmdChooseColor, Color: string(b.pickColor(view, hand))}, true, nil
	}
	if len(hand) == view.CallThreshold && !me.Declared {
		return domain.Envelope{Type: shedding.CmdDeclareCall}, true, nil
	}

	card, found := b.pickCard(view, hand)
	if !found {
		return domain.Envelope{Type: shedding.CmdDrawCard}, true, nil
	}
	env := domain.Envelope{Type: shedding.CmdPlayCard, Value: string(card.Value)}
	if !card.IsWild() {
		env.Color = string(card.Color)
	}
	return env, true, nil
}

// pickCard chooses among legal plays. Easy bots take the first one; smart
// bots keep wilds for last and dump their longest color.
func (b *SheddingBrain) pickCard(view domain.View, hand []shedding.Card) (shedding.Card, bool) {
	var top shedding.Card
	if view.TopCard != nil {
		top = shedding.Card{Color: shedding.Color(view.TopCard.Color), Value: shedding.Value(view.TopCard.Value)}
	}
	var legal []shedding.Card
	for _, c := range hand {
		if playable(view, top, c) {
			legal = append(legal, c)
		}
	}
	if len(legal) == 0 {
		return shedding.Card{}, false
	}
	if b.Level == LevelEasy {
		return legal[0], true
	}

	counts := colorCounts(hand)
	nextSmall := b.nextOpponentHand(view) <= 2
	best, bestScore := legal[0], -1<<31
	for _, c := range legal {
		score := 0
		switch {
		case c.Value == shedding.ValueWildDrawFour:
			score = -20
		case c.IsWild():
			score = -10
		default:
			score = counts[c.Color]
		}
		if view.PendingDraw > 0 {
			// The cheapest card that still stacks.
			score = -strength(c)
		} else if nextSmall && isAction(c) {
			score += 10
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best, true
}

// pickColor names the color the bot holds most of, leaning towards colors
// the opponents have shown they lack.
func (b *SheddingBrain) pickColor(view domain.View, hand []shedding.Card) shedding.Color {
	counts := colorCounts(hand)
	best, bestScore := shedding.SuitColors[0], -1<<31
	for _, color := range shedding.SuitColors {
		score := 3 * counts[color]
		if b.Level != LevelEasy {
			for id, p := range b.Opponents {
				if id != view.Viewer {
					score += p.Weakness(string(color))
				}
			}
		}
		if score > bestScore {
			best, bestScore = color, score
		}
	}
	return best
}

// observe feeds new log entries into the opponent profiles.
func (b *SheddingBrain) observe(view domain.View) {
	for _, e := range view.Log {
		if e.Seq <= b.lastSeq {
			continue
		}
		b.lastSeq = e.Seq
		if e.Actor == "" || e.Actor == view.Viewer {
			continue
		}
		p, ok := b.Opponents[e.Actor]
		if !ok {
			p = brain.NewOpponentProfile(e.Actor)
			b.Opponents[e.Actor] = p
		}
		switch e.Kind {
		case domain.EventDraw:
			p.RecordMiss(view.ActiveColor)
		case domain.EventPlay:
			if i := strings.Index(e.Text, " played "); i >= 0 {
				word, _, _ := strings.Cut(e.Text[i+len(" played "):], " ")
				if c, ok := shedding.ParseColor(word); ok && c != shedding.ColorWild {
					p.RecordPlay(string(c))
				}
			}
		}
	}
	for _, pv := range view.Players {
		if p, ok := b.Opponents[pv.ID]; ok {
			p.HandSize = pv.HandSize
		}
	}
}

// nextOpponentHand is the hand size of the player who moves after the bot.
func (b *SheddingBrain) nextOpponentHand(view domain.View) int {
	n := len(view.Players)
	for i, p := range view.Players {
		if p.ID != view.Viewer {
			continue
		}
		dir := view.Direction
		if dir == 0 {
			dir = 1
		}
		return view.Players[((i+dir)%n+n)%n].HandSize
	}
	return 0
}

// playable mirrors the table rules as far as the view exposes them. While a
// draw penalty is pending the top card is the strongest draw card played.
func playable(view domain.View, top, c shedding.Card) bool {
	if view.PendingDraw > 0 {
		return strength(c) > 0 && strength(c) >= strength(top)
	}
	if c.IsWild() {
		return true
	}
	return string(c.Color) == view.ActiveColor || c.Value == top.Value
}

func strength(c shedding.Card) int {
	switch c.Value {
	case shedding.ValueDrawTwo:
		return 1
	case shedding.ValueWildDrawFour:
		return 2
	}
	return 0
}

func isAction(c shedding.Card) bool {
	switch c.Value {
	case shedding.ValueSkip, shedding.ValueReverse, shedding.ValueDrawTwo:
		return true
	}
	return false
}

func colorCounts(hand []shedding.Card) map[shedding.Color]int {
	out := make(map[shedding.Color]int, 4)
	for _, c := range hand {
		if !c.IsWild() {
			out[c.Color]++
		}
	}
	return out
}

func ownCards(me domain.PlayerView) ([]shedding.Card, error) {
	out := make([]shedding.Card, 0, len(me.Slots))
	for i, s := range me.Slots {
		color, ok := shedding.ParseColor(s.Color)
		if !ok {
			return nil, fmt.Errorf("own card %d: bad color %q", i, s.Color)
		}
		value, ok := shedding.ParseValue(s.Value)
		if !ok {
			return nil, fmt.Errorf("own card %d: bad value %q", i, s.Value)
		}
		out = append(out, shedding.Card{Color: color, Value: value})
	}
	return out, nil
}

package deduction

import (
	"fmt"
	"sort"

	"flip/internal/domain"
)

// Slot is one position in a hand. Revealed only ever goes from false to true.
type Slot struct {
	Card     Card
	Revealed bool
}

// Hand is an ordered row of tiles, left to right.
type Hand []Slot

// HiddenCount is the number of unrevealed slots.
func (h Hand) HiddenCount() int {
	n := 0
	for _, s := range h {
		if !s.Revealed {
			n++
		}
	}
	return n
}

// AllRevealed reports whether nothing in the hand is hidden.
func (h Hand) AllRevealed() bool {
	return h.HiddenCount() == 0
}

// Cards returns the tiles in hand order.
func (h Hand) Cards() []Card {
	out := make([]Card, len(h))
	for i, s := range h {
		out[i] = s.Card
	}
	return out
}

func (h Hand) clone() Hand {
	if h == nil {
		return nil
	}
	return append(make(Hand, 0, len(h)), h...)
}

// ValidOrder checks the hand ordering rule: numbered tiles ascend left to
// right with black before white on equal ranks. Jokers may sit anywhere.
func ValidOrder(cards []Card) error {
	var prev *Card
	for i := range cards {
		c := cards[i]
		if c.Joker {
			continue
		}
		if prev != nil && !before(*prev, c) {
			return fmt.Errorf("%s cannot sit right of %s", prev.Code(), c.Code())
		}
		prev = &cards[i]
	}
	return nil
}

// SortCards returns cards in canonical order with jokers at the right end.
func SortCards(cards []Card) []Card {
	out := append([]Card(nil), cards...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Joker != b.Joker {
			return !a.Joker
		}
		if a.Joker {
			return a.Color < b.Color
		}
		return before(a, b)
	})
	return out
}

// arrange validates a submitted arrangement of hand plus the optional pending
// tile and returns the resulting hand. With a pending tile the existing slots
// must keep their relative order. The input hand is never modified.
func arrange(hand Hand, pending *Card, order []string) (Hand, error) {
	want := len(hand)
	if pending != nil {
		want++
	}
	if len(order) != want {
		return nil, domain.Reject(domain.KindInvalidArrangement, "expected %d tiles, got %d", want, len(order))
	}

	cards := make([]Card, 0, len(order))
	seen := make(map[Card]bool, len(order))
	for _, code := range order {
		c, err := ParseCode(code)
		if err != nil {
			return nil, domain.Reject(domain.KindInvalidArrangement, "%v", err)
		}
		if seen[c] {
			return nil, domain.Reject(domain.KindInvalidArrangement, "tile %s listed twice", c.Code())
		}
		seen[c] = true
		cards = append(cards, c)
	}

	revealed := make(map[Card]bool, len(hand))
	for _, s := range hand {
		if !seen[s.Card] {
			return nil, domain.Reject(domain.KindInvalidArrangement, "tile %s missing", s.Card.Code())
		}
		revealed[s.Card] = s.Revealed
	}
	if pending != nil && !seen[*pending] {
		return nil, domain.Reject(domain.KindInvalidArrangement, "drawn tile missing")
	}

	if pending != nil {
		j := 0
		for _, c := range cards {
			if c == *pending {
				continue
			}
			if hand[j].Card != c {
				return nil, domain.Reject(domain.KindInvalidArrangement, "existing tiles may not be reordered")
			}
			j++
		}
	}

	if err := ValidOrder(cards); err != nil {
		return nil, domain.Reject(domain.KindInvalidArrangement, "%v", err)
	}

	out := make(Hand, len(cards))
	for i, c := range cards {
		out[i] = Slot{Card: c, Revealed: revealed[c]}
	}
	return out, nil
}

// InsertPositions lists the indexes where card can be inserted into cards
// without breaking the ordering rule.
func InsertPositions(cards []Card, card Card) []int {
	var out []int
	for i := 0; i <= len(cards); i++ {
		next := make([]Card, 0, len(cards)+1)
		next = append(next, cards[:i]...)
		next = append(next, card)
		next = append(next, cards[i:]...)
		if ValidOrder(next) == nil {
			out = append(out, i)
		}
	}
	return out
}

package deduction

import "math/rand"

// Deck holds one face-down pile per color. Tiles are drawn from the end.
type Deck struct {
	piles [2][]Card
}

// NewDeck returns the 26 tiles, each pile sorted.
func NewDeck() *Deck {
	d := &Deck{}
	for _, c := range Colors {
		pile := make([]Card, 0, MaxRank+2)
		for r := 0; r <= MaxRank; r++ {
			pile = append(pile, Card{Color: c, Rank: r})
		}
		pile = append(pile, Card{Color: c, Joker: true})
		d.piles[c] = pile
	}
	return d
}

// NewShuffledDeck returns a deck whose piles are shuffled deterministically from seed.
func NewShuffledDeck(seed int64) *Deck {
	d := NewDeck()
	rng := rand.New(rand.NewSource(seed))
	for _, c := range Colors {
		pile := d.piles[c]
		rng.Shuffle(len(pile), func(i, j int) { pile[i], pile[j] = pile[j], pile[i] })
	}
	return d
}

// DrawColor takes the top tile of the given color's pile.
func (d *Deck) DrawColor(c Color) (Card, bool) {
	pile := d.piles[c]
	if len(pile) == 0 {
		return Card{}, false
	}
	card := pile[len(pile)-1]
	d.piles[c] = pile[:len(pile)-1]
	return card, true
}

// RemainingCount is the number of tiles left in both piles.
func (d *Deck) RemainingCount() int {
	return len(d.piles[Black]) + len(d.piles[White])
}

// RemainingCountByColor reports each pile's size.
func (d *Deck) RemainingCountByColor() map[Color]int {
	return map[Color]int{
		Black: len(d.piles[Black]),
		White: len(d.piles[White]),
	}
}

func (d *Deck) clone() *Deck {
	out := &Deck{}
	for _, c := range Colors {
		out.piles[c] = cloneCards(d.piles[c])
	}
	return out
}

// cloneCards copies cards, keeping nil and empty apart so a clone compares
// equal to its source.
func cloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	return append(make([]Card, 0, len(cards)), cards...)
}

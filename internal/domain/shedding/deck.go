package shedding

import (
	"math/rand"
	"strconv"
)

// DeckSize is the number of cards in a full deck.
const DeckSize = 108

// NewCards returns the full unshuffled deck: per color one 0, two of each
// 1-9, two each of skip, reverse and draw two; plus four of each wild.
func NewCards() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, c := range SuitColors {
		cards = append(cards, Card{Color: c, Value: "0"})
		for n := 1; n <= 9; n++ {
			v := Value(strconv.Itoa(n))
			cards = append(cards, Card{Color: c, Value: v}, Card{Color: c, Value: v})
		}
		for _, v := range []Value{ValueSkip, ValueReverse, ValueDrawTwo} {
			cards = append(cards, Card{Color: c, Value: v}, Card{Color: c, Value: v})
		}
	}
	for i := 0; i < 4; i++ {
		cards = append(cards, Card{Color: ColorWild, Value: ValueWild}, Card{Color: ColorWild, Value: ValueWildDrawFour})
	}
	return cards
}

// Deck is a draw pile plus a discard pile whose last card is face up.
type Deck struct {
	draw       []Card
	discard    []Card
	seed       int64
	reshuffles int64
}

// NewShuffledDeck shuffles a full deck deterministically from seed.
func NewShuffledDeck(seed int64) *Deck {
	cards := NewCards()
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return &Deck{draw: cards, seed: seed}
}

// Draw takes the top card. When the draw pile is empty the discard pile,
// minus its top card, is shuffled back in first.
func (d *Deck) Draw() (Card, bool) {
	if len(d.draw) == 0 {
		d.reshuffle()
	}
	if len(d.draw) == 0 {
		return Card{}, false
	}
	c := d.draw[len(d.draw)-1]
	d.draw = d.draw[:len(d.draw)-1]
	return c, true
}

func (d *Deck) reshuffle() {
	if len(d.discard) <= 1 {
		return
	}
	top := d.discard[len(d.discard)-1]
	rest := append([]Card(nil), d.discard[:len(d.discard)-1]...)
	d.reshuffles++
	rng := rand.New(rand.NewSource(d.seed + d.reshuffles))
	rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	d.draw = append(rest, d.draw...)
	d.discard = []Card{top}
}

// Discard puts c face up on the discard pile.
func (d *Deck) Discard(c Card) {
	d.discard = append(d.discard, c)
}

// Top is the face-up card.
func (d *Deck) Top() (Card, bool) {
	if len(d.discard) == 0 {
		return Card{}, false
	}
	return d.discard[len(d.discard)-1], true
}

// putBottom slides c under the draw pile.
func (d *Deck) putBottom(c Card) {
	d.draw = append([]Card{c}, d.draw...)
}

// RemainingCount is the size of the draw pile.
func (d *Deck) RemainingCount() int { return len(d.draw) }

// DiscardCount is the size of the discard pile.
func (d *Deck) DiscardCount() int { return len(d.discard) }

func (d *Deck) clone() *Deck {
	out := *d
	out.draw = cloneCards(d.draw)
	out.discard = cloneCards(d.discard)
	return &out
}

// cloneCards copies cards, keeping nil and empty apart so a clone compares
// equal to its source.
func cloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	return append(make([]Card, 0, len(cards)), cards...)
}

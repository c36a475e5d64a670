package deduction

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a tile color. Black sorts before white on equal ranks.
type Color int

const (
	Black Color = iota
	White
)

// Colors lists tile colors in sort order.
var Colors = []Color{Black, White}

func (c Color) String() string {
	if c == White {
		return "WHITE"
	}
	return "BLACK"
}

func (c Color) letter() string {
	if c == White {
		return "W"
	}
	return "B"
}

// ParseColor accepts BLACK/WHITE in any case, or the single letters B/W.
func ParseColor(s string) (Color, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BLACK", "B":
		return Black, true
	case "WHITE", "W":
		return White, true
	}
	return 0, false
}

// MaxRank is the highest numbered tile.
const MaxRank = 11

// Card is a single tile. Rank is meaningless for jokers.
type Card struct {
	Color Color
	Rank  int
	Joker bool
}

// Code is the compact identifier used in arrangements: B3, W11, B-.
func (c Card) Code() string {
	if c.Joker {
		return c.Color.letter() + "-"
	}
	return c.Color.letter() + strconv.Itoa(c.Rank)
}

func (c Card) String() string {
	if c.Joker {
		return strings.ToLower(c.Color.String()) + " joker"
	}
	return fmt.Sprintf("%s %d", strings.ToLower(c.Color.String()), c.Rank)
}

// ParseCode is the inverse of Code.
func ParseCode(code string) (Card, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 2 {
		return Card{}, fmt.Errorf("bad tile code %q", code)
	}
	color, ok := ParseColor(code[:1])
	if !ok {
		return Card{}, fmt.Errorf("bad tile color in %q", code)
	}
	if code[1:] == "-" {
		return Card{Color: color, Joker: true}, nil
	}
	rank, err := strconv.Atoi(code[1:])
	if err != nil || rank < 0 || rank > MaxRank {
		return Card{}, fmt.Errorf("bad tile rank in %q", code)
	}
	return Card{Color: color, Rank: rank}, nil
}

// before reports whether non-joker a must sit left of non-joker b.
func before(a, b Card) bool {
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	return a.Color < b.Color
}

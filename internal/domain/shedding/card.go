package shedding

import (
	"fmt"
	"strings"
)

// Color of a card. Wild cards carry ColorWild until played.
type Color string

const (
	ColorRed    Color = "RED"
	ColorYellow Color = "YELLOW"
	ColorGreen  Color = "GREEN"
	ColorBlue   Color = "BLUE"
	ColorWild   Color = "WILD"
)

// SuitColors are the four colors a wild can name.
var SuitColors = []Color{ColorRed, ColorYellow, ColorGreen, ColorBlue}

// ParseColor accepts any case.
func ParseColor(s string) (Color, bool) {
	c := Color(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case ColorRed, ColorYellow, ColorGreen, ColorBlue, ColorWild:
		return c, true
	}
	return "", false
}

// Value is the face of a card: "0".."9" or an action.
type Value string

const (
	ValueSkip         Value = "SKIP"
	ValueReverse      Value = "REVERSE"
	ValueDrawTwo      Value = "DRAW_TWO"
	ValueWild         Value = "WILD"
	ValueWildDrawFour Value = "WILD_DRAW_FOUR"
)

// ParseValue accepts digits and action names in any case.
func ParseValue(s string) (Value, bool) {
	v := Value(strings.ToUpper(strings.TrimSpace(s)))
	switch v {
	case ValueSkip, ValueReverse, ValueDrawTwo, ValueWild, ValueWildDrawFour:
		return v, true
	}
	if len(v) == 1 && v[0] >= '0' && v[0] <= '9' {
		return v, true
	}
	return "", false
}

// Card is an immutable shedding card.
type Card struct {
	Color Color
	Value Value
}

// IsWild reports whether the card lets its player name the next color.
func (c Card) IsWild() bool {
	return c.Value == ValueWild || c.Value == ValueWildDrawFour
}

func (c Card) String() string {
	if c.IsWild() {
		return string(c.Value)
	}
	return fmt.Sprintf("%s %s", c.Color, c.Value)
}

// drawClass orders forced-draw cards for stacking; 0 means the card does not stack.
func (c Card) drawClass() int {
	switch c.Value {
	case ValueDrawTwo:
		return 1
	case ValueWildDrawFour:
		return 2
	}
	return 0
}

func (c Card) drawAmount() int {
	switch c.Value {
	case ValueDrawTwo:
		return 2
	case ValueWildDrawFour:
		return 4
	}
	return 0
}

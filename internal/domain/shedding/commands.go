package shedding

import (
	"strings"

	"flip/internal/domain"
)

const (
	CmdPlayCard    = "PLAY_CARD"
	CmdDrawCard    = "DRAW_CARD"
	CmdChooseColor = "CHOOSE_COLOR"
	CmdDeclareCall = "DECLARE_CALL"
)

// PlayCard plays one card from hand. Wilds may leave Color empty.
type PlayCard struct {
	Card Card
}

// DrawCard draws one card, or the whole pending penalty.
type DrawCard struct{}

// ChooseColor names the active color after a wild.
type ChooseColor struct {
	Color Color
}

// DeclareCall announces the last-cards call at the threshold hand size.
type DeclareCall struct{}

func (PlayCard) Name() string    { return CmdPlayCard }
func (DrawCard) Name() string    { return CmdDrawCard }
func (ChooseColor) Name() string { return CmdChooseColor }
func (DeclareCall) Name() string { return CmdDeclareCall }

// DecodeCommand implements domain.Rules.
func (r *Rules) DecodeCommand(env domain.Envelope) (domain.Command, error) {
	switch strings.ToUpper(env.Type) {
	case CmdPlayCard:
		v, ok := ParseValue(env.Value)
		if !ok {
			return nil, domain.Reject(domain.KindBadCommand, "unknown card value %q", env.Value)
		}
		card := Card{Color: ColorWild, Value: v}
		if !card.IsWild() {
			c, ok := ParseColor(env.Color)
			if !ok || c == ColorWild {
				return nil, domain.Reject(domain.KindBadCommand, "unknown card color %q", env.Color)
			}
			card.Color = c
		}
		return PlayCard{Card: card}, nil
	case CmdDrawCard:
		return DrawCard{}, nil
	case CmdChooseColor:
		c, ok := ParseColor(env.Color)
		if !ok {
			return nil, domain.Reject(domain.KindBadCommand, "unknown color %q", env.Color)
		}
		return ChooseColor{Color: c}, nil
	case CmdDeclareCall, "UNO":
		return DeclareCall{}, nil
	}
	return nil, domain.Reject(domain.KindBadCommand, "unknown command %q", env.Type)
}

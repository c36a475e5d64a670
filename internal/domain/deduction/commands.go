package deduction

import (
	"strings"

	"flip/internal/domain"
)

// Command type names used in envelopes.
const (
	CmdSettleInitial = "SETTLE_INITIAL"
	CmdDrawColor     = "DRAW_COLOR"
	CmdSettle        = "SETTLE"
	CmdGuess         = "GUESS"
	CmdDecide        = "DECIDE"
	CmdSelfReveal    = "SELF_REVEAL"
)

// SettleInitial arranges the dealt tiles before the first turn.
type SettleInitial struct {
	Order []string
}

// DrawColor draws the top tile of one color pile.
type DrawColor struct {
	Color Color
}

// Settle places the pending tile; Order is the full resulting hand.
type Settle struct {
	Order []string
}

// Guess names a rank (or joker) for an opponent's hidden slot.
type Guess struct {
	Target string
	Index  int
	Rank   int
	Joker  bool
}

// Decide continues or ends a guessing chain after a correct guess.
type Decide struct {
	Continue bool
}

// SelfReveal exposes one of the guesser's own tiles after a wrong guess.
type SelfReveal struct {
	Index int
}

func (SettleInitial) Name() string { return CmdSettleInitial }
func (DrawColor) Name() string     { return CmdDrawColor }
func (Settle) Name() string        { return CmdSettle }
func (Guess) Name() string         { return CmdGuess }
func (Decide) Name() string        { return CmdDecide }
func (SelfReveal) Name() string    { return CmdSelfReveal }

// DecodeCommand implements domain.Rules.
func (r *Rules) DecodeCommand(env domain.Envelope) (domain.Command, error) {
	switch strings.ToUpper(env.Type) {
	case CmdSettleInitial:
		return SettleInitial{Order: env.Order}, nil
	case CmdDrawColor:
		c, ok := ParseColor(env.Color)
		if !ok {
			return nil, domain.Reject(domain.KindBadCommand, "unknown color %q", env.Color)
		}
		return DrawColor{Color: c}, nil
	case CmdSettle:
		return Settle{Order: env.Order}, nil
	case CmdGuess:
		if env.Index == nil {
			return nil, domain.Reject(domain.KindBadCommand, "guess needs an index")
		}
		g := Guess{Target: env.Target, Index: *env.Index, Joker: env.Joker}
		if !g.Joker {
			if env.Rank == nil || *env.Rank < 0 || *env.Rank > MaxRank {
				return nil, domain.Reject(domain.KindBadCommand, "guess needs a rank between 0 and %d or joker", MaxRank)
			}
			g.Rank = *env.Rank
		}
		return g, nil
	case CmdDecide:
		if env.Continue == nil {
			return nil, domain.Reject(domain.KindBadCommand, "decide needs continue=true|false")
		}
		return Decide{Continue: *env.Continue}, nil
	case CmdSelfReveal:
		if env.Index == nil {
			return nil, domain.Reject(domain.KindBadCommand, "self reveal needs an index")
		}
		return SelfReveal{Index: *env.Index}, nil
	}
	return nil, domain.Reject(domain.KindBadCommand, "unknown command %q", env.Type)
}

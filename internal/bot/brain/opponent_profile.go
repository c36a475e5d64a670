package brain

// OpponentProfile tracks what a shedding opponent has shown about their hand.
type OpponentProfile struct {
	ID       string
	HandSize int
	// Misses counts how often the player drew instead of playing on a color.
	Misses map[string]int
	// Plays counts cards played per color.
	Plays map[string]int
}

// NewOpponentProfile initializes a profile for one player.
func NewOpponentProfile(id string) *OpponentProfile {
	return &OpponentProfile{
		ID:     id,
		Misses: make(map[string]int),
		Plays:  make(map[string]int),
	}
}

// RecordPlay logs a card of color played by this opponent.
func (p *OpponentProfile) RecordPlay(color string) {
	if color == "" {
		return
	}
	p.Plays[color]++
}

// RecordMiss notes that this opponent drew while color was active.
func (p *OpponentProfile) RecordMiss(color string) {
	if color == "" {
		return
	}
	p.Misses[color]++
}

// Weakness scores how likely the opponent is to lack color. Positive means
// evidence of absence.
func (p *OpponentProfile) Weakness(color string) int {
	return p.Misses[color] - p.Plays[color]
}

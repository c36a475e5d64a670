package brain

import "flip/internal/domain/deduction"

// slotKey identifies an opponent slot. Indexes shift when the owner settles a
// new tile, so the hand size at the time of the guess is part of the key.
type slotKey struct {
	target   string
	index    int
	handSize int
}

// Guess is one guess the bot made, kept until its outcome is known.
type Guess struct {
	Target   string
	Index    int
	HandSize int
	Card     deduction.Card
}

// Memory stores what the bot learned from its own guesses.
type Memory struct {
	// Wrong lists tiles known not to be at a slot.
	Wrong map[slotKey][]deduction.Card
	// Last is the most recent guess whose result has not been read yet.
	Last *Guess
}

// NewMemory initializes an empty memory.
func NewMemory() *Memory {
	return &Memory{Wrong: make(map[slotKey][]deduction.Card)}
}

// Reset clears the memory for a new game.
func (m *Memory) Reset() {
	m.Wrong = make(map[slotKey][]deduction.Card)
	m.Last = nil
}

// RecordGuess remembers g until RecordWrong or Forget is called.
func (m *Memory) RecordGuess(g Guess) {
	m.Last = &g
}

// RecordWrong marks the last guess as a miss.
func (m *Memory) RecordWrong() {
	if m.Last == nil {
		return
	}
	k := slotKey{target: m.Last.Target, index: m.Last.Index, handSize: m.Last.HandSize}
	m.Wrong[k] = append(m.Wrong[k], m.Last.Card)
	m.Last = nil
}

// Forget drops the pending guess, e.g. after it turned out right.
func (m *Memory) Forget() {
	m.Last = nil
}

// Excluded reports whether c is known not to be at the slot.
func (m *Memory) Excluded(target string, index, handSize int, c deduction.Card) bool {
	for _, w := range m.Wrong[slotKey{target: target, index: index, handSize: handSize}] {
		if sameGuess(w, c) {
			return true
		}
	}
	return false
}

// sameGuess compares the way the rules compare a guess: jokers by flag,
// numbers by rank only.
func sameGuess(a, b deduction.Card) bool {
	if a.Joker || b.Joker {
		return a.Joker == b.Joker
	}
	return a.Rank == b.Rank
}

package brain

import (
	"sort"

	"flip/internal/domain"
	"flip/internal/domain/deduction"
)

// SlotEstimate lists the tiles that may still sit in one hidden opponent slot.
type SlotEstimate struct {
	Target     string
	Index      int
	HandSize   int
	Candidates []deduction.Card
}

// Best returns the most likely guess for the slot and its probability. Tiles
// of both colors with the same rank count as one guess.
func (s SlotEstimate) Best() (deduction.Card, float64) {
	if len(s.Candidates) == 0 {
		return deduction.Card{}, 0
	}
	counts := make(map[guessKey]int)
	for _, c := range s.Candidates {
		counts[keyOf(c)]++
	}
	best := s.Candidates[0]
	for _, c := range s.Candidates[1:] {
		if counts[keyOf(c)] > counts[keyOf(best)] {
			best = c
		}
	}
	return best, float64(counts[keyOf(best)]) / float64(len(s.Candidates))
}

// Certain reports whether every candidate is the same guess.
func (s SlotEstimate) Certain() bool {
	_, p := s.Best()
	return p == 1
}

type guessKey struct {
	joker bool
	rank  int
}

func keyOf(c deduction.Card) guessKey {
	if c.Joker {
		return guessKey{joker: true}
	}
	return guessKey{rank: c.Rank}
}

// Estimator narrows hidden slots down from the viewer's projection.
type Estimator struct {
	Memory *Memory
}

// NewEstimator creates a new reasoning engine.
func NewEstimator(m *Memory) *Estimator {
	if m == nil {
		m = NewMemory()
	}
	return &Estimator{Memory: m}
}

// Estimate returns one entry per hidden slot of every opponent, sorted with
// the most promising guess first.
func (e *Estimator) Estimate(view domain.View) []SlotEstimate {
	known := knownTiles(view)
	pool := make([]deduction.Card, 0, 26)
	for _, c := range allTiles() {
		if !known[c] {
			pool = append(pool, c)
		}
	}

	var out []SlotEstimate
	for _, p := range view.Players {
		if p.ID == view.Viewer {
			continue
		}
		for i, slot := range p.Slots {
			if !slot.Hidden {
				continue
			}
			est := SlotEstimate{Target: p.ID, Index: i, HandSize: len(p.Slots)}
			lo, hi := neighbours(p.Slots, i)
			for _, c := range pool {
				if slot.Color != "" && slot.Color != c.Color.String() {
					continue
				}
				if !c.Joker && !fits(lo, c, hi) {
					continue
				}
				if e.Memory.Excluded(p.ID, i, len(p.Slots), c) {
					continue
				}
				est.Candidates = append(est.Candidates, c)
			}
			out = append(out, est)
		}
	}
	propagate(out)

	sort.SliceStable(out, func(i, j int) bool {
		_, pi := out[i].Best()
		_, pj := out[j].Best()
		if pi != pj {
			return pi > pj
		}
		return len(out[i].Candidates) < len(out[j].Candidates)
	})
	return out
}

// propagate removes a tile pinned to one slot from every other slot until
// nothing changes.
func propagate(ests []SlotEstimate) {
	for changed := true; changed; {
		changed = false
		for i := range ests {
			if len(ests[i].Candidates) != 1 {
				continue
			}
			pinned := ests[i].Candidates[0]
			for j := range ests {
				if i == j {
					continue
				}
				kept := ests[j].Candidates[:0:0]
				for _, c := range ests[j].Candidates {
					if c != pinned {
						kept = append(kept, c)
					}
				}
				if len(kept) != len(ests[j].Candidates) {
					ests[j].Candidates = kept
					changed = true
				}
			}
		}
	}
}

// knownTiles collects every tile whose location the viewer can see.
func knownTiles(view domain.View) map[deduction.Card]bool {
	known := make(map[deduction.Card]bool)
	add := func(cv domain.CardView) {
		if cv.Hidden || cv.Code == "" {
			return
		}
		if c, err := deduction.ParseCode(cv.Code); err == nil {
			known[c] = true
		}
	}
	for _, p := range view.Players {
		for _, s := range p.Slots {
			add(s)
		}
	}
	if view.Pending != nil {
		add(*view.Pending)
	}
	return known
}

// neighbours finds the closest visible numbered tiles left and right of i.
func neighbours(slots []domain.CardView, i int) (lo, hi *deduction.Card) {
	for j := i - 1; j >= 0 && lo == nil; j-- {
		lo = visibleNumber(slots[j])
	}
	for j := i + 1; j < len(slots) && hi == nil; j++ {
		hi = visibleNumber(slots[j])
	}
	return lo, hi
}

func visibleNumber(cv domain.CardView) *deduction.Card {
	if cv.Hidden || cv.Joker || cv.Code == "" {
		return nil
	}
	c, err := deduction.ParseCode(cv.Code)
	if err != nil {
		return nil
	}
	return &c
}

func fits(lo *deduction.Card, c deduction.Card, hi *deduction.Card) bool {
	seq := make([]deduction.Card, 0, 3)
	if lo != nil {
		seq = append(seq, *lo)
	}
	seq = append(seq, c)
	if hi != nil {
		seq = append(seq, *hi)
	}
	return deduction.ValidOrder(seq) == nil
}

func allTiles() []deduction.Card {
	out := make([]deduction.Card, 0, 2*(deduction.MaxRank+2))
	for _, color := range deduction.Colors {
		for r := 0; r <= deduction.MaxRank; r++ {
			out = append(out, deduction.Card{Color: color, Rank: r})
		}
		out = append(out, deduction.Card{Color: color, Joker: true})
	}
	return out
}

package brain

import (
	"testing"

	"flip/internal/domain"
	"flip/internal/domain/deduction"
)

func shown(code string) domain.CardView {
	return domain.CardView{Code: code}
}

func revealed(code string) domain.CardView {
	return domain.CardView{Code: code, Revealed: true}
}

func hidden() domain.CardView {
	return domain.CardView{Hidden: true}
}

func estimateFor(ests []SlotEstimate, target string, index int) (SlotEstimate, bool) {
	for _, e := range ests {
		if e.Target == target && e.Index == index {
			return e, true
		}
	}
	return SlotEstimate{}, false
}

func TestEstimator_NeighboursBoundTheSlot(t *testing.T) {
	view := domain.View{
		Viewer: "me",
		Players: []domain.PlayerView{
			{ID: "me", Slots: []domain.CardView{shown("B4"), shown("B-"), shown("W-")}},
			{ID: "bob", Slots: []domain.CardView{revealed("B3"), hidden(), revealed("W4")}},
		},
	}

	ests := NewEstimator(nil).Estimate(view)
	if len(ests) != 1 {
		t.Fatalf("Expected 1 hidden slot, got %d", len(ests))
	}
	est := ests[0]
	if est.Target != "bob" || est.Index != 1 || est.HandSize != 3 {
		t.Fatalf("Unexpected slot %+v", est)
	}
	if len(est.Candidates) != 1 || est.Candidates[0] != (deduction.Card{Color: deduction.White, Rank: 3}) {
		t.Fatalf("Expected only W3, got %v", est.Candidates)
	}
	if !est.Certain() {
		t.Errorf("A single candidate should be certain")
	}
}

func TestEstimator_ExcludesKnownAndWrongGuesses(t *testing.T) {
	mem := NewMemory()
	mem.RecordGuess(Guess{Target: "bob", Index: 0, HandSize: 2, Card: deduction.Card{Rank: 5}})
	mem.RecordWrong()

	view := domain.View{
		Viewer:  "me",
		Pending: &domain.CardView{Code: "W7"},
		Players: []domain.PlayerView{
			{ID: "me", Slots: []domain.CardView{shown("B2"), shown("W9")}},
			{ID: "bob", Slots: []domain.CardView{hidden(), hidden()}},
		},
	}
	ests := NewEstimator(mem).Estimate(view)

	first, ok := estimateFor(ests, "bob", 0)
	if !ok {
		t.Fatal("Missing estimate for bob slot 0")
	}
	second, _ := estimateFor(ests, "bob", 1)
	for _, c := range first.Candidates {
		if !c.Joker && c.Rank == 5 {
			t.Errorf("Rank 5 was guessed wrong and should be excluded, got %s", c.Code())
		}
	}
	for _, c := range append(first.Candidates, second.Candidates...) {
		switch c.Code() {
		case "B2", "W9", "W7":
			t.Errorf("Own tile %s offered as candidate", c.Code())
		}
	}
	// 26 tiles minus 3 known.
	if len(second.Candidates) != 23 {
		t.Errorf("Expected 23 candidates for slot 1, got %d", len(second.Candidates))
	}
	if len(first.Candidates) != 21 {
		t.Errorf("Expected 21 candidates for slot 0, got %d", len(first.Candidates))
	}
}

func TestEstimator_HiddenColorsNarrowCandidates(t *testing.T) {
	view := domain.View{
		Viewer: "me",
		Players: []domain.PlayerView{
			{ID: "me", Slots: []domain.CardView{shown("B0")}},
			{ID: "bob", Slots: []domain.CardView{{Hidden: true, Color: "WHITE"}}},
		},
	}
	est := NewEstimator(nil).Estimate(view)[0]
	for _, c := range est.Candidates {
		if c.Color != deduction.White {
			t.Fatalf("Black tile %s offered for a white slot", c.Code())
		}
	}
	if len(est.Candidates) != 13 {
		t.Errorf("Expected 13 white candidates, got %d", len(est.Candidates))
	}
}

func TestPropagateRemovesPinnedTiles(t *testing.T) {
	w3 := deduction.Card{Color: deduction.White, Rank: 3}
	b8 := deduction.Card{Color: deduction.Black, Rank: 8}
	ests := []SlotEstimate{
		{Target: "bob", Index: 0, Candidates: []deduction.Card{w3}},
		{Target: "amy", Index: 0, Candidates: []deduction.Card{w3, b8}},
		{Target: "amy", Index: 1, Candidates: []deduction.Card{b8, {Joker: true}}},
	}
	propagate(ests)

	if len(ests[1].Candidates) != 1 || ests[1].Candidates[0] != b8 {
		t.Fatalf("Expected amy slot 0 pinned to B8, got %v", ests[1].Candidates)
	}
	if len(ests[2].Candidates) != 1 || !ests[2].Candidates[0].Joker {
		t.Fatalf("Expected amy slot 1 pinned to a joker, got %v", ests[2].Candidates)
	}
}

func TestSlotEstimate_BestGroupsColors(t *testing.T) {
	est := SlotEstimate{Candidates: []deduction.Card{
		{Color: deduction.Black, Rank: 1},
		{Color: deduction.Black, Rank: 6},
		{Color: deduction.White, Rank: 6},
		{Color: deduction.White, Joker: true},
	}}
	best, p := est.Best()
	if best.Rank != 6 || best.Joker {
		t.Errorf("Expected rank 6 as the best guess, got %s", best.Code())
	}
	if p != 0.5 {
		t.Errorf("Expected probability 0.5, got %f", p)
	}
}

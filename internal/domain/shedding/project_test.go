package shedding

import (
	"math/rand"
	"reflect"
	"testing"

	"flip/internal/domain"
)

func TestProjectHidesOtherHands(t *testing.T) {
	r := NewRules(DefaultOptions())
	st := fixture(t, "RED 5", []string{"RED 1", "WILD"}, []string{"BLUE 2", "GREEN 3", "YELLOW 4"})
	st.Players[1].Declared = true

	v := r.Project(st, "p1")
	if v.TopCard == nil || v.TopCard.Code != "RED 5" || !v.TopCard.Revealed {
		t.Fatalf("top card should be public, got %+v", v.TopCard)
	}
	if v.ActiveColor != "RED" || v.Direction != 1 || v.ActivePlayer != "p1" {
		t.Fatalf("unexpected table fields %+v", v)
	}
	if v.Deck.Remaining != 10 || v.Deck.Discard != 1 {
		t.Fatalf("unexpected deck counts %+v", v.Deck)
	}

	own, _ := v.PlayerByID("p1")
	if len(own.Slots) != 2 || own.Slots[0].Code != "RED 1" || own.Slots[1].Value != "WILD" {
		t.Fatalf("viewer should see own hand, got %+v", own.Slots)
	}
	other, _ := v.PlayerByID("p2")
	if other.HandSize != 3 || !other.Declared {
		t.Fatalf("unexpected public data for p2: %+v", other)
	}
	for _, s := range other.Slots {
		if !s.Hidden || s.Code != "" || s.Color != "" || s.Value != "" {
			t.Fatalf("p2 card leaked: %+v", s)
		}
	}

	spectator := r.Project(st, "")
	for _, p := range spectator.Players {
		for _, s := range p.Slots {
			if !s.Hidden {
				t.Fatalf("spectator sees %s's card %+v", p.ID, s)
			}
		}
	}
}

func TestProjectIsPure(t *testing.T) {
	r := NewRules(DefaultOptions())
	s, _, err := r.NewState([]domain.PlayerSpec{{ID: "a"}, {ID: "b"}}, 5)
	if err != nil {
		t.Fatal(err)
	}
	before := s.Clone()
	first := r.Project(s, "a")
	second := r.Project(s, "a")
	if !reflect.DeepEqual(first, second) {
		t.Fatal("projection is not deterministic")
	}
	if !reflect.DeepEqual(before, s) {
		t.Fatal("projection mutated the state")
	}
}

var choices = []Color{ColorRed, ColorYellow, ColorGreen, ColorBlue, ColorWild}

func randomCommand(rng *rand.Rand, st *State) (string, domain.Command) {
	p := st.active()
	if rng.Intn(10) == 0 {
		p = st.Players[rng.Intn(len(st.Players))]
	}
	switch n := rng.Intn(10); {
	case n < 5 && len(p.Hand) > 0:
		return p.ID, PlayCard{Card: p.Hand[rng.Intn(len(p.Hand))]}
	case n < 7:
		return p.ID, DrawCard{}
	case n < 9:
		return p.ID, ChooseColor{Color: choices[rng.Intn(len(choices))]}
	default:
		return p.ID, DeclareCall{}
	}
}

func TestRandomPlayKeepsInvariants(t *testing.T) {
	opts := []Options{
		DefaultOptions(),
		{MissedCallPenalty: 2, ForbidDrawWhenPlayable: true},
	}
	for _, o := range opts {
		r := NewRules(o)
		for seed := int64(1); seed <= 10; seed++ {
			specs := []domain.PlayerSpec{{ID: "a"}, {ID: "b"}, {ID: "c"}}
			s, _, err := r.NewState(specs, seed)
			if err != nil {
				t.Fatal(err)
			}
			st := s.(*State)
			rng := rand.New(rand.NewSource(seed))
			for step := 0; step < 2000 && st.Phase != domain.PhaseTerminal; step++ {
				actor, cmd := randomCommand(rng, st)
				before := st.Clone()
				_, err := r.Apply(st, actor, cmd)
				if err != nil {
					if domain.IsInternal(err) {
						t.Fatalf("seed %d step %d: internal fault %v", seed, step, err)
					}
					if !reflect.DeepEqual(before, domain.State(st)) {
						t.Fatalf("seed %d step %d: rejected %s changed state", seed, step, cmd.Name())
					}
					continue
				}
				checkConservation(t, st)
				checkNoLeak(t, r, st)
			}
		}
	}
}

func checkConservation(t *testing.T, st *State) {
	t.Helper()
	total := st.Deck.RemainingCount() + st.Deck.DiscardCount()
	for _, p := range st.Players {
		total += len(p.Hand)
	}
	if total != DeckSize {
		t.Fatalf("card count drifted to %d", total)
	}
	if st.PendingDraw > 0 && st.PendingClass == 0 {
		t.Fatalf("pending draw %d without a class", st.PendingDraw)
	}
}

func checkNoLeak(t *testing.T, r *Rules, st *State) {
	t.Helper()
	for _, viewer := range st.Players {
		v := r.Project(st, viewer.ID)
		for _, pv := range v.Players {
			if pv.ID == viewer.ID {
				continue
			}
			for _, s := range pv.Slots {
				if !s.Hidden || s.Code != "" {
					t.Fatalf("%s sees %s's card %+v", viewer.ID, pv.ID, s)
				}
			}
		}
	}
}

package bot

import (
	"reflect"
	"testing"

	"flip/internal/domain"
	"flip/internal/domain/deduction"
)

func own(codes ...string) []domain.CardView {
	out := make([]domain.CardView, len(codes))
	for i, c := range codes {
		out[i] = domain.CardView{Code: c}
	}
	return out
}

func deductionView(phase domain.Phase, players ...domain.PlayerView) domain.View {
	return domain.View{
		Variant:      domain.VariantDeduction,
		Viewer:       "me",
		Phase:        phase,
		ActivePlayer: "me",
		Players:      players,
		Deck:         domain.DeckView{Remaining: 10, ByColor: map[string]int{"BLACK": 4, "WHITE": 6}},
	}
}

func TestDeductionBrain_SettleInitialSortsHand(t *testing.T) {
	b := NewDeductionBrain(LevelSmart)
	view := deductionView(deduction.PhaseSettleInitial,
		domain.PlayerView{ID: "me", Slots: own("W-", "W7", "B2", "W2")},
		domain.PlayerView{ID: "bob", Slots: []domain.CardView{{Hidden: true}}},
	)
	view.ActivePlayer = ""

	env, ok, err := b.Decide(view)
	if err != nil || !ok {
		t.Fatalf("Decide() = %v, %v", ok, err)
	}
	want := []string{"B2", "W2", "W7", "W-"}
	if env.Type != deduction.CmdSettleInitial || !reflect.DeepEqual(env.Order, want) {
		t.Fatalf("Expected %v, got %+v", want, env)
	}

	view.Players[0].Settled = true
	if _, ok, _ := b.Decide(view); ok {
		t.Error("A settled bot should wait for the others")
	}
}

func TestDeductionBrain_DrawAndSettle(t *testing.T) {
	b := NewDeductionBrain(LevelSmart)
	me := domain.PlayerView{ID: "me", Slots: own("B1", "W5")}

	env, ok, _ := b.Decide(deductionView(deduction.PhaseDrawColor, me))
	if !ok || env.Type != deduction.CmdDrawColor || env.Color != "WHITE" {
		t.Fatalf("Expected a draw from the fuller white pile, got %+v", env)
	}

	view := deductionView(deduction.PhaseSettle, me)
	view.Pending = &domain.CardView{Code: "W3"}
	env, ok, err := b.Decide(view)
	if err != nil || !ok {
		t.Fatalf("Decide() = %v, %v", ok, err)
	}
	if want := []string{"B1", "W3", "W5"}; !reflect.DeepEqual(env.Order, want) {
		t.Fatalf("Expected %v, got %v", want, env.Order)
	}
}

func TestDeductionBrain_GuessesTheCertainSlot(t *testing.T) {
	b := NewDeductionBrain(LevelSmart)
	view := deductionView(deduction.PhaseGuess,
		domain.PlayerView{ID: "me", Slots: own("B4", "B-", "W-")},
		domain.PlayerView{ID: "bob", Slots: []domain.CardView{
			{Code: "B3", Revealed: true}, {Hidden: true}, {Code: "W4", Revealed: true},
		}},
	)

	env, ok, err := b.Decide(view)
	if err != nil || !ok {
		t.Fatalf("Decide() = %v, %v", ok, err)
	}
	if env.Type != deduction.CmdGuess || env.Target != "bob" || *env.Index != 1 || *env.Rank != 3 {
		t.Fatalf("Expected a rank 3 guess at bob's slot 1, got %+v", env)
	}
	if b.Memory.Last == nil || b.Memory.Last.HandSize != 3 {
		t.Fatalf("Guess was not remembered: %+v", b.Memory.Last)
	}
}

func TestDeductionBrain_ContinuesOnlyWhenCertain(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		bob   []domain.CardView
		want  bool
	}{
		{
			name:  "Certain",
			level: LevelSmart,
			bob:   []domain.CardView{{Code: "B3", Revealed: true}, {Hidden: true}, {Code: "W4", Revealed: true}},
			want:  true,
		},
		{
			name:  "EasyNeverContinues",
			level: LevelEasy,
			bob:   []domain.CardView{{Code: "B3", Revealed: true}, {Hidden: true}, {Code: "W4", Revealed: true}},
			want:  false,
		},
		{
			name:  "Uncertain",
			level: LevelSmart,
			bob:   []domain.CardView{{Hidden: true}, {Hidden: true}},
			want:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewDeductionBrain(tt.level)
			view := deductionView(deduction.PhaseRevealDecision,
				domain.PlayerView{ID: "me", Slots: own("B4", "B-", "W-")},
				domain.PlayerView{ID: "bob", Slots: tt.bob},
			)
			env, ok, err := b.Decide(view)
			if err != nil || !ok {
				t.Fatalf("Decide() = %v, %v", ok, err)
			}
			if env.Type != deduction.CmdDecide || *env.Continue != tt.want {
				t.Fatalf("Expected continue=%v, got %+v", tt.want, env)
			}
		})
	}
}

func TestDeductionBrain_SelfRevealRemembersMiss(t *testing.T) {
	b := NewDeductionBrain(LevelSmart)
	bob := domain.PlayerView{ID: "bob", Slots: []domain.CardView{{Hidden: true}, {Hidden: true}}}
	me := domain.PlayerView{ID: "me", Slots: []domain.CardView{{Code: "B1", Revealed: true}, {Code: "W5"}}}

	if _, _, err := b.Decide(deductionView(deduction.PhaseGuess, me, bob)); err != nil {
		t.Fatal(err)
	}
	env, ok, err := b.Decide(deductionView(deduction.PhaseSelfReveal, me, bob))
	if err != nil || !ok {
		t.Fatalf("Decide() = %v, %v", ok, err)
	}
	if env.Type != deduction.CmdSelfReveal || *env.Index != 1 {
		t.Fatalf("Expected to reveal slot 1, got %+v", env)
	}
	if len(b.Memory.Wrong) != 1 || b.Memory.Last != nil {
		t.Fatalf("Miss was not recorded: %+v", b.Memory)
	}
}

func TestDeductionBrain_WaitsForOthers(t *testing.T) {
	b := NewDeductionBrain(LevelSmart)
	view := deductionView(deduction.PhaseGuess, domain.PlayerView{ID: "me", Slots: own("B1")})
	view.ActivePlayer = "bob"
	if _, ok, _ := b.Decide(view); ok {
		t.Error("Bot acted out of turn")
	}
	view.Phase = domain.PhaseTerminal
	view.ActivePlayer = "me"
	if _, ok, _ := b.Decide(view); ok {
		t.Error("Bot acted after the game ended")
	}
}

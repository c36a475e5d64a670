package seating

import (
	"math/rand"
	"strings"
	"testing"

	"flip/internal/domain"
)

func TestSeatAppendsBots(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)))
	humans := []domain.PlayerSpec{{ID: "alice"}, {ID: "bob"}}

	seats, err := svc.Seat(humans, 2)
	if err != nil {
		t.Fatalf("Seat returned error: %v", err)
	}
	if len(seats) != 4 {
		t.Fatalf("Expected 4 seats, got %d", len(seats))
	}
	if seats[0].ID != "alice" || seats[1].ID != "bob" || seats[0].Bot {
		t.Fatalf("humans must keep their order: %+v", seats)
	}
	seen := map[string]bool{}
	for _, s := range seats[2:] {
		if !s.Bot || !strings.HasPrefix(s.ID, "bot-") {
			t.Fatalf("Expected a bot seat, got %+v", s)
		}
		if seen[s.ID] {
			t.Fatalf("Duplicate bot id %s", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestSeatDeterministicWithSeed(t *testing.T) {
	a, _ := NewService(rand.New(rand.NewSource(7))).Seat(nil, 3)
	b, _ := NewService(rand.New(rand.NewSource(7))).Seat(nil, 3)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("seat %d differs: %s vs %s", i, a[i].ID, b[i].ID)
		}
	}
}

func TestSeatRejectsBadCounts(t *testing.T) {
	svc := NewService(nil)
	for _, n := range []int{-1, MaxBotSeats + 1} {
		if _, err := svc.Seat(nil, n); err == nil {
			t.Fatalf("Expected error for %d bots", n)
		}
	}
}

package seating

import (
	"fmt"
	"math/rand"
	"time"

	"flip/internal/domain"
)

// MaxBotSeats bounds how many bots one request may add.
const MaxBotSeats = 9

// Service fills empty seats with bots before a session is created.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a seating service; rng may be nil to use a
// time-seeded default. The service is not safe for concurrent use.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

// Seat returns humans followed by n bot seats whose ids do not collide with
// any human id.
func (s *Service) Seat(humans []domain.PlayerSpec, n int) ([]domain.PlayerSpec, error) {
	if n < 0 || n > MaxBotSeats {
		return nil, fmt.Errorf("bot seats must be between 0 and %d, got %d", MaxBotSeats, n)
	}
	out := make([]domain.PlayerSpec, 0, len(humans)+n)
	taken := make(map[string]bool, len(humans)+n)
	for _, h := range humans {
		out = append(out, h)
		taken[h.ID] = true
	}
	for len(out) < len(humans)+n {
		id := s.botName()
		if taken[id] {
			continue
		}
		taken[id] = true
		out = append(out, domain.PlayerSpec{ID: id, Bot: true})
	}
	return out, nil
}

func (s *Service) botName() string {
	adjectives := []string{"Sharp", "Quiet", "Lucky", "Patient", "Bold", "Careful", "Sneaky", "Steady"}
	nouns := []string{"Dealer", "Shuffler", "Guesser", "Joker", "Ace", "Croupier", "Bluffer", "Reader"}

	adj := adjectives[s.rng.Intn(len(adjectives))]
	noun := nouns[s.rng.Intn(len(nouns))]
	num := s.rng.Intn(900) + 100

	return fmt.Sprintf("bot-%s%s%d", adj, noun, num)
}

package app

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"flip/internal/app/seating"
	"flip/internal/config"
	"flip/internal/domain"
	"flip/internal/domain/deduction"
	"flip/internal/domain/shedding"
	"flip/internal/ports"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

// GameSpec is what the lobby hands over to create a session.
type GameSpec struct {
	Variant domain.Variant      `json:"variant"`
	Players []domain.PlayerSpec `json:"players"`
	// Bots appends that many bot seats after Players.
	Bots int `json:"bots,omitempty"`
	// Seed fixes the shuffle. Zero picks a random seed.
	Seed int64 `json:"seed,omitempty"`
}

// SessionInfo is the lobby listing entry for a session.
type SessionInfo struct {
	ID        string              `json:"id"`
	Variant   domain.Variant      `json:"variant"`
	Players   []domain.PlayerSpec `json:"players"`
	Phase     domain.Phase        `json:"phase"`
	Active    string              `json:"active_player,omitempty"`
	Terminal  bool                `json:"terminal"`
	Winner    string              `json:"winner,omitempty"`
	Seq       uint64              `json:"seq"`
	CreatedAt time.Time           `json:"created_at"`
}

// Registry maps session ids to running sessions. It is owned by whichever
// transport constructs it; sessions are created and removed only on request.
type Registry struct {
	cfg    *config.Config
	logger runtime.Logger
	sink   ports.ResultSink

	mu       sync.RWMutex
	sessions map[string]*Session
	rng      *rand.Rand
	seats    *seating.Service
	newID    func() string
	now      func() time.Time
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithResultSink reports finished games to sink.
func WithResultSink(sink ports.ResultSink) RegistryOption {
	return func(r *Registry) { r.sink = sink }
}

// WithRand sets the source of seeds for specs without one.
func WithRand(rng *rand.Rand) RegistryOption {
	return func(r *Registry) { r.rng = rng }
}

// WithIDGenerator replaces the uuid session ids.
func WithIDGenerator(fn func() string) RegistryOption {
	return func(r *Registry) { r.newID = fn }
}

// NewRegistry builds an empty registry. A nil cfg uses config.Default.
func NewRegistry(cfg *config.Config, logger runtime.Logger, opts ...RegistryOption) *Registry {
	if cfg == nil {
		cfg = config.Default()
	}
	r := &Registry{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*Session),
		newID:    func() string { return uuid.NewString() },
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	r.seats = seating.NewService(rand.New(rand.NewSource(r.rng.Int63())))
	if r.sink == nil {
		r.sink = ports.LoggingResultSink{Logger: logger}
	}
	return r
}

// Config is the configuration sessions are created with.
func (r *Registry) Config() *config.Config { return r.cfg }

// CreateGame validates spec, deals the game and starts its session.
func (r *Registry) CreateGame(ctx context.Context, spec GameSpec) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rules, err := RulesFor(spec.Variant, r.cfg)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(spec.Players))
	for _, p := range spec.Players {
		if p.ID == "" {
			return nil, fmt.Errorf("player id is required")
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, p.ID)
		}
		seen[p.ID] = true
	}

	r.mu.Lock()
	seats, err := r.seats.Seat(spec.Players, spec.Bots)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	seed := spec.Seed
	for seed == 0 {
		seed = r.rng.Int63()
	}
	id := r.newID()
	if _, exists := r.sessions[id]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("session id %s already in use", id)
	}
	r.mu.Unlock()

	opts := SessionOptions{
		QueueSize:        r.cfg.Session.QueueSize,
		SubscriberBuffer: r.cfg.Session.SubscriberBuffer,
		LogTail:          r.cfg.Session.LogTail,
	}
	sess, err := NewSession(id, rules, seats, seed, opts, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s game: %w", spec.Variant, err)
	}
	sess.onTerminal = r.report

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()
	return sess, nil
}

// Get returns a live session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Remove closes and forgets a session.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	sess.Close()
	return nil
}

// List describes every live session, oldest first.
func (r *Registry) List() []SessionInfo {
	r.mu.RLock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, Describe(sess))
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Close shuts every session down.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, sess := range all {
		sess.Close()
	}
}

// Describe summarizes sess for listings.
func Describe(sess *Session) SessionInfo {
	snap := sess.Snapshot()
	st := snap.State.Status()
	return SessionInfo{
		ID:        sess.ID(),
		Variant:   sess.Variant(),
		Players:   sess.Players(),
		Phase:     st.Phase,
		Active:    st.ActivePlayer,
		Terminal:  st.Terminal(),
		Winner:    st.Winner,
		Seq:       snap.Seq,
		CreatedAt: sess.CreatedAt(),
	}
}

// report runs on the session goroutine; the sink call is moved off it so a
// slow collaborator never delays the next command.
func (r *Registry) report(sess *Session, snap *Snapshot) {
	result := NewGameResult(sess, snap, r.now().UTC())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.sink.RecordResult(ctx, result); err != nil {
			r.logger.Warn("report: failed to record result for session %s: %v", sess.ID(), err)
		}
	}()
}

// NewGameResult builds the persistence record of a finished session.
func NewGameResult(sess *Session, snap *Snapshot, finished time.Time) ports.GameResult {
	st := snap.State.Status()
	res := ports.GameResult{
		ID:         uuid.NewString(),
		SessionID:  sess.ID(),
		Variant:    string(sess.Variant()),
		Outcome:    string(st.Outcome),
		Winner:     st.Winner,
		Turns:      st.Turn,
		LastSeq:    snap.Seq,
		StartedAt:  sess.CreatedAt(),
		FinishedAt: finished,
	}
	for _, p := range sess.Players() {
		res.Players = append(res.Players, p.ID)
		if p.Bot {
			res.Bots = append(res.Bots, p.ID)
		}
	}
	return res
}

// RulesFor builds the rule engine of variant with the configured house rules.
func RulesFor(variant domain.Variant, cfg *config.Config) (domain.Rules, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	switch variant {
	case domain.VariantDeduction:
		return deduction.NewRules(deduction.Options{
			WinRule:          deduction.WinRule(cfg.Deduction.WinRule),
			Exhaustion:       deduction.ExhaustionPolicy(cfg.Deduction.Exhaustion),
			ShowHiddenColors: cfg.Deduction.ShowHiddenColors,
		}), nil
	case domain.VariantShedding:
		return shedding.NewRules(shedding.Options{
			StartingHand:           cfg.Shedding.StartingHand,
			CallThreshold:          cfg.Shedding.CallThreshold,
			MissedCallPenalty:      cfg.Shedding.MissedCallPenalty,
			ForbidDrawWhenPlayable: cfg.Shedding.ForbidDrawWhenPlayable,
		}), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
}

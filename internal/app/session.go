package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"flip/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// SessionOptions size a session's queues.
type SessionOptions struct {
	QueueSize        int
	SubscriberBuffer int
	LogTail          int
}

type request struct {
	actor string
	cmd   domain.Command
	reply chan reply
}

type reply struct {
	res Result
	err error
}

// Session is the single writer for one game. Commands are queued and applied
// one at a time by the session's own goroutine; queries read the last
// committed Snapshot and never wait for the writer.
type Session struct {
	id        string
	rules     domain.Rules
	players   []domain.PlayerSpec
	seed      int64
	createdAt time.Time
	logTail   int
	logger    runtime.Logger

	snap atomic.Pointer[Snapshot]
	hub  *Hub

	queue    chan request
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	onTerminal func(*Session, *Snapshot)
}

// NewSession deals a new game and starts its coordinator goroutine.
func NewSession(id string, rules domain.Rules, players []domain.PlayerSpec, seed int64, opts SessionOptions, logger runtime.Logger) (*Session, error) {
	state, events, err := rules.NewState(players, seed)
	if err != nil {
		return nil, err
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.LogTail == 0 {
		opts.LogTail = DefaultLogTail
	}

	s := &Session{
		id:        id,
		rules:     rules,
		players:   append([]domain.PlayerSpec(nil), players...),
		seed:      seed,
		createdAt: time.Now().UTC(),
		logTail:   opts.LogTail,
		logger:    logger.WithFields(map[string]interface{}{"session": id, "variant": string(rules.Variant())}),
		queue:     make(chan request, opts.QueueSize),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	s.hub = NewHub(opts.SubscriberBuffer, s.project)

	initial := &Snapshot{State: state}
	initial.Seq, initial.Log, _ = sequence(nil, 0, state.Status().Turn, events, s.logTail)
	s.snap.Store(initial)

	go s.run()
	s.logger.Info("Session started with %d players (seed %d)", len(players), seed)
	return s, nil
}

func (s *Session) ID() string              { return s.id }
func (s *Session) Variant() domain.Variant { return s.rules.Variant() }
func (s *Session) Rules() domain.Rules     { return s.rules }
func (s *Session) CreatedAt() time.Time    { return s.createdAt }
func (s *Session) Seed() int64             { return s.seed }
func (s *Session) Snapshot() *Snapshot     { return s.snap.Load() }
func (s *Session) Status() domain.Status   { return s.snap.Load().State.Status() }
func (s *Session) Players() []domain.PlayerSpec {
	return append([]domain.PlayerSpec(nil), s.players...)
}

// HasPlayer reports whether id is seated in this session.
func (s *Session) HasPlayer(id string) bool {
	for _, p := range s.players {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Submit queues cmd from actor and waits for its result. ctx only bounds the
// wait for a queue slot: once accepted, a command is always applied or
// rejected. Rule rejections are reported in Result.Errors with a nil error;
// a non-nil error means the command never reached the rule engine, or
// wraps ErrInternalFault.
func (s *Session) Submit(ctx context.Context, actor string, cmd domain.Command) (Result, error) {
	if cmd == nil {
		return Result{}, domain.Reject(domain.KindBadCommand, "missing command")
	}
	req := request{actor: actor, cmd: cmd, reply: make(chan reply, 1)}

	select {
	case <-s.done:
		return Result{}, ErrSessionClosed
	default:
	}
	select {
	case s.queue <- req:
	case <-s.done:
		return Result{}, ErrSessionClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case r := <-req.reply:
		return r.res, r.err
	case <-s.stopped:
		select {
		case r := <-req.reply:
			return r.res, r.err
		default:
			return Result{}, ErrSessionClosed
		}
	}
}

// SubmitEnvelope decodes env with the session's rule engine and submits it.
// A malformed envelope is reported like any other rejection.
func (s *Session) SubmitEnvelope(ctx context.Context, actor string, env domain.Envelope) (Result, error) {
	cmd, err := s.rules.DecodeCommand(env)
	if err != nil {
		snap := s.snap.Load()
		return Result{
			Seq:    snap.Seq,
			Errors: []domain.ErrorDetail{domain.Detail(err)},
			View:   s.project(snap, actor),
		}, nil
	}
	return s.Submit(ctx, actor, cmd)
}

// View returns viewer's projection of the last committed snapshot.
func (s *Session) View(viewer string) (domain.View, error) {
	if !s.HasPlayer(viewer) {
		return domain.View{}, ErrUnknownPlayer
	}
	return s.project(s.snap.Load(), viewer), nil
}

// Subscribe attaches an observer for viewer. The first update is the current
// snapshot; later ones follow in non-decreasing sequence order.
func (s *Session) Subscribe(viewer string) (*Subscription, error) {
	if !s.HasPlayer(viewer) {
		return nil, ErrUnknownPlayer
	}
	return s.hub.Subscribe(viewer, s.snap.Load)
}

// Close stops the coordinator and ends all subscriptions. Queued commands
// that were not yet processed fail with ErrSessionClosed.
func (s *Session) Close() {
	s.stopOnce.Do(func() {
		close(s.done)
		<-s.stopped
		s.hub.Close()
		s.logger.Debug("Session closed")
	})
}

func (s *Session) project(snap *Snapshot, viewer string) domain.View {
	return Project(s.rules, s.id, snap, viewer, s.logTail)
}

func (s *Session) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.done:
			return
		case req := <-s.queue:
			res, err := s.process(req)
			req.reply <- reply{res: res, err: err}
		}
	}
}

// process runs on the coordinator goroutine only.
func (s *Session) process(req request) (Result, error) {
	cur := s.snap.Load()
	logger := s.logger.WithField("player", req.actor)

	if cur.State.Status().Terminal() {
		return s.rejected(cur, req.actor, domain.Reject(domain.KindSessionTerminal, "the game is over")), nil
	}

	next := cur.State.Clone()
	events, err := s.apply(next, req.actor, req.cmd)
	if err != nil {
		if domain.IsInternal(err) {
			logger.Error("process: %s failed internally: %v", req.cmd.Name(), err)
			return s.rejected(cur, req.actor, err), fmt.Errorf("%w: %v", ErrInternalFault, err)
		}
		logger.Debug("process: %s rejected: %v", req.cmd.Name(), err)
		return s.rejected(cur, req.actor, err), nil
	}

	status := next.Status()
	snap := &Snapshot{State: next}
	var fresh []domain.LogEntry
	// Events belong to the turn the command was issued in.
	snap.Seq, snap.Log, fresh = sequence(cur.Log, cur.Seq, cur.State.Status().Turn, events, s.logTail)
	s.snap.Store(snap)
	s.hub.Publish(snap)
	logger.Debug("process: %s applied, seq %d", req.cmd.Name(), snap.Seq)

	if status.Terminal() {
		logger.Info("Session finished: outcome=%s winner=%q", status.Outcome, status.Winner)
		if s.onTerminal != nil {
			s.onTerminal(s, snap)
		}
	}

	return Result{
		Applied: true,
		Seq:     snap.Seq,
		Errors:  []domain.ErrorDetail{},
		Events:  fresh,
		View:    s.project(snap, req.actor),
	}, nil
}

// apply turns a panic in the rule engine into an internal fault.
func (s *Session) apply(state domain.State, actor string, cmd domain.Command) (events []domain.Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("apply: panic in %s: %v\n%s", cmd.Name(), r, debug.Stack())
			events, err = nil, domain.Invariantf("panic applying %s: %v", cmd.Name(), r)
		}
	}()
	return s.rules.Apply(state, actor, cmd)
}

func (s *Session) rejected(cur *Snapshot, actor string, err error) Result {
	res := Result{
		Seq:    cur.Seq,
		Errors: []domain.ErrorDetail{domain.Detail(err)},
	}
	if s.HasPlayer(actor) {
		res.View = s.project(cur, actor)
	}
	return res
}

// sequence numbers events after seq and appends them to log, keeping at
// most capacity entries when capacity is positive. Only the latest log is
// ever appended to, so entries past an older snapshot's length may share its
// backing array without being visible to it.
func sequence(log []domain.LogEntry, seq uint64, turn int, events []domain.Event, capacity int) (uint64, []domain.LogEntry, []domain.LogEntry) {
	fresh := make([]domain.LogEntry, 0, len(events))
	for _, ev := range events {
		seq++
		fresh = append(fresh, domain.LogEntry{
			Seq:   seq,
			Turn:  turn,
			Kind:  ev.Kind,
			Actor: ev.Actor,
			Text:  ev.Text,
		})
	}
	out := append(log, fresh...)
	if capacity > 0 && len(out) > capacity {
		out = out[len(out)-capacity:]
	}
	return seq, out, fresh
}

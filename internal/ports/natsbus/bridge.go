// Package natsbus bridges sessions onto a NATS bus for trusted backend
// services. Requests carry the acting player; there is no token check.
package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"flip/internal/app"
	"flip/internal/bot"
	"flip/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/nats-io/nats.go"
)

// Conn is the part of *nats.Conn the bridge uses.
type Conn interface {
	Publish(subj string, data []byte) error
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

var _ Conn = (*nats.Conn)(nil)

// Connect dials url with the reconnect policy the bridge expects.
func Connect(url, name string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(5),
	}
	return nats.Connect(url, opts...)
}

// CommandRequest is the payload of a command subject.
type CommandRequest struct {
	Player  string          `json:"player"`
	Command domain.Envelope `json:"command"`
}

// ViewRequest is the payload of a view subject.
type ViewRequest struct {
	Player string `json:"player"`
}

// CreateGameResponse lists where each human seat's views are mirrored.
type CreateGameResponse struct {
	SessionID string              `json:"session_id"`
	Players   []domain.PlayerSpec `json:"players"`
	Updates   map[string]string   `json:"updates"`
}

// Reply wraps every response. Exactly one of Error and Data is set.
type Reply struct {
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Bridge serves one registry on a NATS connection.
type Bridge struct {
	conn     Conn
	registry *app.Registry
	subjects Subjects
	bots     bot.Options
	logger   runtime.Logger
	timeout  time.Duration

	ctx  context.Context
	mu   sync.Mutex
	subs []*nats.Subscription
	wg   sync.WaitGroup
}

func NewBridge(ctx context.Context, conn Conn, registry *app.Registry, prefix string, bots bot.Options, logger runtime.Logger) *Bridge {
	if prefix == "" {
		prefix = "flip"
	}
	return &Bridge{
		conn:     conn,
		registry: registry,
		subjects: Subjects{Prefix: prefix},
		bots:     bots,
		logger:   logger,
		timeout:  5 * time.Second,
		ctx:      ctx,
	}
}

func (b *Bridge) Subjects() Subjects { return b.subjects }

// Start registers every request handler.
func (b *Bridge) Start() error {
	handlers := map[string]func(*nats.Msg) ([]byte, error){
		b.subjects.Create():  b.handleCreate,
		b.subjects.List():    b.handleList,
		b.subjects.Command(): b.handleCommand,
		b.subjects.View():    b.handleView,
	}
	for subj, fn := range handlers {
		sub, err := b.conn.Subscribe(subj, b.respond(fn))
		if err != nil {
			b.Close()
			return fmt.Errorf("failed to subscribe %s: %w", subj, err)
		}
		b.mu.Lock()
		b.subs = append(b.subs, sub)
		b.mu.Unlock()
	}
	b.logger.Info("natsbus: serving requests under %s", b.subjects.Prefix)
	return nil
}

// Close unsubscribes and waits for the mirrors to stop. Mirrors end when
// their session closes or the bridge context is cancelled.
func (b *Bridge) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()
	for _, sub := range subs {
		if sub != nil {
			_ = sub.Unsubscribe()
		}
	}
	b.wg.Wait()
}

func (b *Bridge) respond(fn func(*nats.Msg) ([]byte, error)) nats.MsgHandler {
	return func(m *nats.Msg) {
		var reply Reply
		data, err := fn(m)
		if err != nil {
			reply.Error = errorText(err)
			b.logger.Warn("natsbus: %s failed: %v", m.Subject, err)
		} else {
			reply.Data = data
		}
		if m.Reply == "" {
			return
		}
		out, _ := json.Marshal(reply)
		if err := b.conn.Publish(m.Reply, out); err != nil {
			b.logger.Error("natsbus: failed to reply on %s: %v", m.Subject, err)
		}
	}
}

func (b *Bridge) handleCreate(m *nats.Msg) ([]byte, error) {
	var spec app.GameSpec
	if err := json.Unmarshal(m.Data, &spec); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	if spec.Bots > 0 && !b.registry.Config().Bots.Enabled {
		return nil, errors.New("bots are disabled")
	}
	ctx, cancel := context.WithTimeout(b.ctx, b.timeout)
	defer cancel()
	sess, err := b.registry.CreateGame(ctx, spec)
	if err != nil {
		return nil, err
	}

	resp := CreateGameResponse{SessionID: sess.ID(), Players: sess.Players(), Updates: map[string]string{}}
	for _, p := range resp.Players {
		if p.Bot {
			continue
		}
		if err := b.Mirror(sess, p.ID); err != nil {
			_ = b.registry.Remove(sess.ID())
			return nil, err
		}
		resp.Updates[p.ID] = b.subjects.Updates(sess.ID(), p.ID)
	}
	if _, err := bot.Attach(b.ctx, sess, b.bots, b.logger); err != nil {
		_ = b.registry.Remove(sess.ID())
		return nil, fmt.Errorf("%w: failed to start bots: %v", app.ErrInternalFault, err)
	}
	return json.Marshal(resp)
}

func (b *Bridge) handleList(*nats.Msg) ([]byte, error) {
	return json.Marshal(b.registry.List())
}

func (b *Bridge) handleCommand(m *nats.Msg) ([]byte, error) {
	sess, err := b.session(m.Subject)
	if err != nil {
		return nil, err
	}
	var req CommandRequest
	if err := json.Unmarshal(m.Data, &req); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	ctx, cancel := context.WithTimeout(b.ctx, b.timeout)
	defer cancel()
	res, err := sess.SubmitEnvelope(ctx, req.Player, req.Command)
	if err != nil {
		return nil, err
	}
	return json.Marshal(res)
}

func (b *Bridge) handleView(m *nats.Msg) ([]byte, error) {
	sess, err := b.session(m.Subject)
	if err != nil {
		return nil, err
	}
	var req ViewRequest
	if err := json.Unmarshal(m.Data, &req); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	view, err := sess.View(req.Player)
	if err != nil {
		return nil, err
	}
	return json.Marshal(view)
}

func (b *Bridge) session(subject string) (*app.Session, error) {
	id, err := b.subjects.SessionID(subject)
	if err != nil {
		return nil, err
	}
	return b.registry.Get(id)
}

// Mirror publishes every view update of player in sess to its updates
// subject until the session closes.
func (b *Bridge) Mirror(sess *app.Session, player string) error {
	sub, err := sess.Subscribe(player)
	if err != nil {
		return err
	}
	subject := b.subjects.Updates(sess.ID(), player)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer sub.Close()
		for {
			select {
			case <-b.ctx.Done():
				return
			case u, ok := <-sub.Updates():
				if !ok {
					return
				}
				data, err := json.Marshal(u)
				if err != nil {
					b.logger.Error("Mirror: failed to encode update %d: %v", u.Seq, err)
					continue
				}
				if err := b.conn.Publish(subject, data); err != nil {
					b.logger.Warn("Mirror: publish to %s failed: %v", subject, err)
				}
			}
		}
	}()
	return nil
}

// errorText hides internal faults from callers.
func errorText(err error) string {
	if errors.Is(err, app.ErrInternalFault) {
		return "internal error"
	}
	return err.Error()
}

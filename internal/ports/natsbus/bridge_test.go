package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"flip/internal/app"
	"flip/internal/bot"
	"flip/internal/config"
	"flip/internal/domain"
	"flip/internal/domain/shedding"
	"flip/internal/logging"
	"flip/internal/ports"

	"github.com/nats-io/nats.go"
)

type published struct {
	subject string
	data    []byte
}

// fakeConn records handlers and publishes instead of talking to a server.
type fakeConn struct {
	mu       sync.Mutex
	handlers map[string]nats.MsgHandler
	out      []published
	failSub  string
}

func newFakeConn() *fakeConn {
	return &fakeConn{handlers: map[string]nats.MsgHandler{}}
}

func (c *fakeConn) Publish(subj string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, published{subject: subj, data: data})
	return nil
}

func (c *fakeConn) Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error) {
	if subj == c.failSub {
		return nil, errors.New("no permission")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[subj] = cb
	return nil, nil
}

// request delivers payload to the handler registered for pattern and
// returns the decoded reply. Handlers reply before returning.
func (c *fakeConn) request(t *testing.T, pattern, subject string, payload interface{}) Reply {
	t.Helper()
	c.mu.Lock()
	h, ok := c.handlers[pattern]
	c.mu.Unlock()
	if !ok {
		t.Fatalf("no handler for %s", pattern)
	}
	inbox := "_INBOX." + subject
	before := len(c.on(inbox))
	data, _ := json.Marshal(payload)
	h(&nats.Msg{Subject: subject, Reply: inbox, Data: data})
	replies := c.on(inbox)
	if len(replies) != before+1 {
		t.Fatalf("expected one reply on %s, got %d", inbox, len(replies)-before)
	}
	var r Reply
	if err := json.Unmarshal(replies[before], &r); err != nil {
		t.Fatal(err)
	}
	return r
}

func (c *fakeConn) on(subject string) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out [][]byte
	for _, p := range c.out {
		if p.subject == subject {
			out = append(out, p.data)
		}
	}
	return out
}

// nth waits for the n-th (zero based) message on subject.
func (c *fakeConn) nth(t *testing.T, subject string, n int) []byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msgs := c.on(subject); len(msgs) > n {
			return msgs[n]
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("message %d never published on %s", n, subject)
	return nil
}

func newTestBridge(t *testing.T) (*Bridge, *fakeConn) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	conn := newFakeConn()
	reg := app.NewRegistry(config.Default(), logging.Nop())
	b := NewBridge(ctx, conn, reg, "", bot.Options{Level: bot.LevelEasy}, logging.Nop())
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		cancel()
		reg.Close()
		b.Close()
	})
	return b, conn
}

func TestSubjects(t *testing.T) {
	s := Subjects{Prefix: "flip"}
	if got := s.Updates("g1", "alice"); got != "flip.session.g1.updates.alice" {
		t.Fatalf("Updates = %s", got)
	}
	tests := []struct {
		subject string
		want    string
		wantErr bool
	}{
		{subject: s.CommandFor("g1"), want: "g1"},
		{subject: s.ViewFor("abc-123"), want: "abc-123"},
		{subject: "other.session.g1.view", wantErr: true},
		{subject: "flip.session.", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			got, err := s.SessionID(tt.subject)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Fatalf("SessionID = %q, %v", got, err)
			}
		})
	}
}

func TestBridgeCreateCommandView(t *testing.T) {
	b, conn := newTestBridge(t)
	s := b.Subjects()

	r := conn.request(t, s.Create(), s.Create(), app.GameSpec{Variant: domain.VariantShedding, Players: []domain.PlayerSpec{{ID: "alice"}, {ID: "bob"}}, Seed: 3})
	if r.Error != "" {
		t.Fatalf("create failed: %s", r.Error)
	}
	var created CreateGameResponse
	if err := json.Unmarshal(r.Data, &created); err != nil {
		t.Fatal(err)
	}
	aliceUpdates := created.Updates["alice"]
	if aliceUpdates != s.Updates(created.SessionID, "alice") || len(created.Updates) != 2 {
		t.Fatalf("unexpected mirrors %v", created.Updates)
	}
	var snapshot app.Update
	if err := json.Unmarshal(conn.nth(t, aliceUpdates, 0), &snapshot); err != nil {
		t.Fatal(err)
	}

	r = conn.request(t, s.Command(), s.CommandFor(created.SessionID), CommandRequest{Player: "alice", Command: domain.Envelope{Type: shedding.CmdDrawCard}})
	var res app.Result
	if err := json.Unmarshal(r.Data, &res); err != nil || !res.Applied {
		t.Fatalf("draw not applied: %s (%v)", r.Error, err)
	}
	var next app.Update
	if err := json.Unmarshal(conn.nth(t, aliceUpdates, 1), &next); err != nil {
		t.Fatal(err)
	}
	if next.Seq <= snapshot.Seq || next.View.Viewer != "alice" {
		t.Fatalf("mirror out of order: %d after %d", next.Seq, snapshot.Seq)
	}

	r = conn.request(t, s.View(), s.ViewFor(created.SessionID), ViewRequest{Player: "bob"})
	var view domain.View
	if err := json.Unmarshal(r.Data, &view); err != nil || view.ActivePlayer != "bob" {
		t.Fatalf("unexpected view %s (%v)", r.Data, err)
	}

	r = conn.request(t, s.List(), s.List(), nil)
	var list []app.SessionInfo
	if err := json.Unmarshal(r.Data, &list); err != nil || len(list) != 1 {
		t.Fatalf("unexpected list %s", r.Data)
	}
}

func TestBridgeErrors(t *testing.T) {
	b, conn := newTestBridge(t)
	s := b.Subjects()
	r := conn.request(t, s.Create(), s.Create(), app.GameSpec{Variant: domain.VariantShedding, Players: []domain.PlayerSpec{{ID: "alice"}, {ID: "bob"}}})
	var created CreateGameResponse
	_ = json.Unmarshal(r.Data, &created)

	tests := []struct {
		name    string
		pattern string
		subject string
		payload interface{}
		want    string
	}{
		{name: "UnknownSession", pattern: s.View(), subject: s.ViewFor("missing"), payload: ViewRequest{Player: "alice"}, want: app.ErrSessionNotFound.Error()},
		{name: "UnknownPlayer", pattern: s.View(), subject: s.ViewFor(created.SessionID), payload: ViewRequest{Player: "mallory"}, want: app.ErrUnknownPlayer.Error()},
		{name: "UnknownVariant", pattern: s.Create(), subject: s.Create(), payload: app.GameSpec{Variant: "poker"}, want: `unknown game variant: "poker"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := conn.request(t, tt.pattern, tt.subject, tt.payload)
			if r.Error != tt.want || r.Data != nil {
				t.Fatalf("reply = %+v, want error %q", r, tt.want)
			}
		})
	}
}

func TestStartFailsWhenSubscribeFails(t *testing.T) {
	conn := newFakeConn()
	conn.failSub = "flip.games.list"
	reg := app.NewRegistry(config.Default(), logging.Nop())
	defer reg.Close()
	b := NewBridge(context.Background(), conn, reg, "flip", bot.Options{}, logging.Nop())
	if err := b.Start(); err == nil {
		t.Fatal("expected an error")
	}
}

func TestResultPublisher(t *testing.T) {
	conn := newFakeConn()
	pub := NewResultPublisher(conn, Subjects{Prefix: "flip"})
	if err := pub.RecordResult(context.Background(), ports.GameResult{ID: "r-1", Winner: "alice"}); err != nil {
		t.Fatal(err)
	}
	var got ports.GameResult
	if err := json.Unmarshal(conn.nth(t, "flip.results", 0), &got); err != nil || got.Winner != "alice" {
		t.Fatalf("unexpected result %+v (%v)", got, err)
	}
}

func TestErrorTextHidesInternalFaults(t *testing.T) {
	err := errors.Join(app.ErrInternalFault, errors.New("hand index 12 out of range"))
	if got := errorText(err); got != "internal error" {
		t.Fatalf("errorText = %q", got)
	}
}

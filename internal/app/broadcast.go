package app

import (
	"sync"

	"flip/internal/domain"
)

// Hub fans committed snapshots out to per-subscriber queues. Publishing never
// blocks: a subscriber whose buffer is full loses its oldest pending update,
// which is harmless because every update is a full view.
type Hub struct {
	mu      sync.Mutex
	subs    map[*Subscription]struct{}
	buffer  int
	closed  bool
	project func(snap *Snapshot, viewer string) domain.View
}

// NewHub builds a hub that renders views with project.
func NewHub(buffer int, project func(snap *Snapshot, viewer string) domain.View) *Hub {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Hub{
		subs:    make(map[*Subscription]struct{}),
		buffer:  buffer,
		project: project,
	}
}

// Subscription is one observer's queue of updates for a single player.
type Subscription struct {
	hub     *Hub
	viewer  string
	ch      chan Update
	last    uint64
	dropped uint64
	closed  bool
}

// Updates is closed when the subscription or its session closes.
func (s *Subscription) Updates() <-chan Update { return s.ch }

// Viewer is the player this subscription projects for.
func (s *Subscription) Viewer() string { return s.viewer }

// Dropped counts updates discarded because the subscriber fell behind.
func (s *Subscription) Dropped() uint64 {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.dropped
}

// Close detaches the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.remove(s)
}

// Subscribe registers viewer and queues the current snapshot as its first
// update. current is read under the hub lock so no publish can slip between
// the snapshot and the registration.
func (h *Hub) Subscribe(viewer string, current func() *Snapshot) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrSessionClosed
	}
	sub := &Subscription{hub: h, viewer: viewer, ch: make(chan Update, h.buffer)}
	if snap := current(); snap != nil {
		sub.push(Update{Seq: snap.Seq, View: h.project(snap, viewer)})
	}
	h.subs[sub] = struct{}{}
	return sub, nil
}

// Publish pushes snap to every subscriber, projecting once per viewer.
// Subscribers that already hold snap.Seq are skipped.
func (h *Hub) Publish(snap *Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	views := make(map[string]domain.View)
	for sub := range h.subs {
		if sub.last >= snap.Seq {
			continue
		}
		v, ok := views[sub.viewer]
		if !ok {
			v = h.project(snap, sub.viewer)
			views[sub.viewer] = v
		}
		sub.push(Update{Seq: snap.Seq, View: v})
	}
}

// Count is the number of live subscriptions.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		h.remove(sub)
	}
}

// remove requires h.mu.
func (h *Hub) remove(sub *Subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	delete(h.subs, sub)
	close(sub.ch)
}

// push requires h.mu. Only the hub sends on ch, so once a slot is freed the
// send succeeds.
func (s *Subscription) push(u Update) {
	for {
		select {
		case s.ch <- u:
			s.last = u.Seq
			return
		default:
		}
		select {
		case <-s.ch:
			s.dropped++
		default:
		}
	}
}

package chat

import (
	"context"
	"time"

	"github.com/shelftalk/shelftalk/internal/metrics"
	"github.com/shelftalk/shelftalk/internal/models"
)

// deliveryKey identifies one delivered message state. Keying on
// (id, status) instead of id alone means a thinking placeholder and its
// terminal replacement are both delivered even though they share an ID.
type deliveryKey struct {
	id     string
	status models.MessageStatus
}

// Subscription is one viewer's view of a session log for the lifetime of
// a streaming connection. It is owned by exactly one goroutine and must
// be closed when the connection ends.
type Subscription struct {
	store        *Store
	sessionID    string
	pollInterval time.Duration
	delivered    map[deliveryKey]struct{}
	closed       bool
}

// Subscribe registers a new viewer for the session. The poll interval is
// a fallback re-check cadence; appends wake the subscription immediately
// through the session's broadcast channel.
func (s *Store) Subscribe(sessionID string, pollInterval time.Duration) *Subscription {
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}

	sess := s.get(sessionID, true)
	sess.mu.Lock()
	sess.viewers++
	sess.mu.Unlock()

	metrics.ActiveStreams.Inc()

	return &Subscription{
		store:        s,
		sessionID:    sessionID,
		pollInterval: pollInterval,
		delivered:    make(map[deliveryKey]struct{}),
	}
}

// Pending returns the messages this viewer has not yet received, in log
// order, and marks them delivered. No (id, status) pair is returned twice.
func (sub *Subscription) Pending() []models.ChatMessage {
	snapshot := sub.store.List(sub.sessionID)

	var out []models.ChatMessage
	for _, msg := range snapshot {
		key := deliveryKey{id: msg.ID, status: msg.Status}
		if _, seen := sub.delivered[key]; seen {
			continue
		}
		sub.delivered[key] = struct{}{}
		out = append(out, msg)
	}
	if len(out) > 0 {
		metrics.StreamEventsDelivered.Add(float64(len(out)))
	}
	return out
}

// Wait blocks until the session log changes, the poll interval elapses,
// or ctx is done. It returns ctx.Err() only on cancellation, which the
// stream handler treats as a normal disconnect.
func (sub *Subscription) Wait(ctx context.Context) error {
	changed := sub.store.Watch(sub.sessionID)

	timer := time.NewTimer(sub.pollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-changed:
		return nil
	case <-timer.C:
		return nil
	}
}

// Close releases the viewer's tracking state. Safe to call once per
// subscription; the handler defers it on disconnect.
func (sub *Subscription) Close() {
	if sub.closed {
		return
	}
	sub.closed = true
	sub.delivered = nil

	sess := sub.store.get(sub.sessionID, false)
	if sess != nil {
		sess.mu.Lock()
		sess.viewers--
		sess.mu.Unlock()
	}
	metrics.ActiveStreams.Dec()
}

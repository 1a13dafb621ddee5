package chat

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shelftalk/shelftalk/internal/metrics"
	"github.com/shelftalk/shelftalk/internal/models"
)

// NewID returns a new sortable message ID.
func NewID() string {
	return ulid.Make().String()
}

// Store holds the append-only message log for every active session.
// It is the single source of truth the dispatcher writes to and streams
// read from. All mutations for one session are serialized by a per-session
// mutex, so concurrent submits and background turns cannot reorder or lose
// messages.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	mu      sync.Mutex
	msgs    []models.ChatMessage
	changed chan struct{} // closed and replaced on every mutation
	viewers int
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*session)}
}

// get returns the session, creating it lazily when create is set.
func (s *Store) get(sessionID string, create bool) *session {
	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()
	if sess != nil || !create {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess = s.sessions[sessionID]; sess == nil {
		sess = &session{changed: make(chan struct{})}
		s.sessions[sessionID] = sess
	}
	return sess
}

// notify wakes every watcher of the session. Caller holds sess.mu.
func (sess *session) notify() {
	close(sess.changed)
	sess.changed = make(chan struct{})
}

// Append adds a message to the tail of the session log, assigning an ID
// and timestamp if unset. The session is created on first append.
func (s *Store) Append(sessionID string, msg models.ChatMessage) models.ChatMessage {
	if msg.ID == "" {
		msg.ID = NewID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	sess := s.get(sessionID, true)
	sess.mu.Lock()
	sess.msgs = append(sess.msgs, msg)
	sess.notify()
	sess.mu.Unlock()

	metrics.MessagesAppended.WithLabelValues(string(msg.Role)).Inc()
	return msg
}

// Replace retracts the message with the given ID and appends its
// replacement in one critical section, so no viewer can observe the log
// with the placeholder gone but the terminal message missing.
func (s *Store) Replace(sessionID, id string, msg models.ChatMessage) models.ChatMessage {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	sess := s.get(sessionID, true)
	sess.mu.Lock()
	kept := sess.msgs[:0]
	for _, m := range sess.msgs {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	sess.msgs = append(kept, msg)
	sess.notify()
	sess.mu.Unlock()

	metrics.MessagesAppended.WithLabelValues(string(msg.Role)).Inc()
	return msg
}

// Remove retracts a message by ID. Used only for thinking placeholders;
// a missing session or ID is a no-op.
func (s *Store) Remove(sessionID, id string) {
	sess := s.get(sessionID, false)
	if sess == nil {
		return
	}

	sess.mu.Lock()
	kept := sess.msgs[:0]
	for _, m := range sess.msgs {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	sess.msgs = kept
	sess.notify()
	sess.mu.Unlock()
}

// Clear empties the session log. Idempotent: clearing a missing or empty
// session succeeds.
func (s *Store) Clear(sessionID string) {
	sess := s.get(sessionID, false)
	if sess == nil {
		return
	}

	sess.mu.Lock()
	sess.msgs = nil
	sess.notify()
	sess.mu.Unlock()
}

// List returns a snapshot copy of the session log in append order.
// A missing session is an empty log.
func (s *Store) List(sessionID string) []models.ChatMessage {
	sess := s.get(sessionID, false)
	if sess == nil {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]models.ChatMessage, len(sess.msgs))
	copy(out, sess.msgs)
	return out
}

// Tail returns up to n most recent messages plus the total log length.
func (s *Store) Tail(sessionID string, n int) ([]models.ChatMessage, int) {
	sess := s.get(sessionID, false)
	if sess == nil {
		return nil, 0
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	total := len(sess.msgs)
	start := 0
	if n > 0 && total > n {
		start = total - n
	}
	out := make([]models.ChatMessage, total-start)
	copy(out, sess.msgs[start:])
	return out, total
}

// Watch returns a channel closed on the session's next mutation.
// New appends publish by closing the channel, so every viewer holding a
// receive handle wakes without polling.
func (s *Store) Watch(sessionID string) <-chan struct{} {
	sess := s.get(sessionID, true)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.changed
}

// SessionCount returns the number of sessions seen since startup.
func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// MessageCount returns the total number of retained messages.
func (s *Store) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, sess := range s.sessions {
		sess.mu.Lock()
		total += len(sess.msgs)
		sess.mu.Unlock()
	}
	return total
}

// ActiveViewers returns the number of open stream subscriptions.
func (s *Store) ActiveViewers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, sess := range s.sessions {
		sess.mu.Lock()
		total += sess.viewers
		sess.mu.Unlock()
	}
	return total
}

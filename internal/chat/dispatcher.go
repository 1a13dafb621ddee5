package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelftalk/shelftalk/internal/generate"
	"github.com/shelftalk/shelftalk/internal/metrics"
	"github.com/shelftalk/shelftalk/internal/models"
)

// Dispatcher orchestrates assistant turns: it appends the user message,
// emits a thinking placeholder, runs the responder on its own goroutine
// and replaces the placeholder with the terminal result. Every turn
// resolves to exactly one terminal message, on every code path.
type Dispatcher struct {
	store     *Store
	responder generate.Responder
	timeout   time.Duration
	logger    zerolog.Logger

	mu    sync.Mutex
	turns map[string]*sync.Mutex // serializes turns within one session

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher. The timeout bounds each generation
// call; an exceeded deadline resolves the turn with an error message.
func NewDispatcher(store *Store, responder generate.Responder, timeout time.Duration, logger zerolog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		store:     store,
		responder: responder,
		timeout:   timeout,
		logger:    logger,
		turns:     make(map[string]*sync.Mutex),
	}
}

// Submit records the user message and schedules its assistant turn. It
// returns the user message ID immediately; the reply arrives through the
// session log and its streams.
func (d *Dispatcher) Submit(ctx context.Context, sessionID, text string) string {
	msg := d.store.Append(sessionID, models.ChatMessage{
		Role:    models.RoleUser,
		Content: text,
		Status:  models.StatusComplete,
	})

	d.wg.Add(1)
	go d.runTurn(sessionID, text)

	return msg.ID
}

// Wait blocks until all in-flight turns have resolved.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// turnLock returns the session's turn mutex, creating it lazily. Holding
// it guarantees at most one outstanding thinking placeholder per session;
// queued turns start only after the prior one resolves.
func (d *Dispatcher) turnLock(sessionID string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock := d.turns[sessionID]
	if lock == nil {
		lock = &sync.Mutex{}
		d.turns[sessionID] = lock
	}
	return lock
}

func (d *Dispatcher) runTurn(sessionID, text string) {
	defer d.wg.Done()

	lock := d.turnLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	placeholderID := NewID()
	d.store.Append(sessionID, models.ChatMessage{
		ID:      placeholderID,
		Role:    models.RoleAssistant,
		Content: "...",
		Status:  models.StatusThinking,
	})

	reply := d.generate(sessionID, text)

	// The terminal message reuses the placeholder ID so viewers keyed on
	// (id, status) observe the transition instead of a ghost thinking entry.
	d.store.Replace(sessionID, placeholderID, models.ChatMessage{
		ID:      placeholderID,
		Role:    models.RoleAssistant,
		Content: reply.Text,
		Status:  reply.Status,
		Actions: reply.Actions,
	})

	metrics.TurnsCompleted.WithLabelValues(string(reply.Status)).Inc()
}

// generate invokes the responder under the turn deadline, converting
// errors and panics into an error-status reply. It never lets a fault
// escape past the turn.
func (d *Dispatcher) generate(sessionID, text string) (reply generate.Reply) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Str("session_id", sessionID).
				Interface("panic", r).
				Msg("responder panicked")
			reply = errorReply()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	out, err := d.responder.Generate(ctx, sessionID, text)
	metrics.GeneratorLatency.WithLabelValues(d.responder.Mode()).Observe(time.Since(start).Seconds())

	if err != nil {
		d.logger.Error().Err(err).Str("session_id", sessionID).Msg("generation failed")
		return errorReply()
	}
	if out.Status != models.StatusComplete && out.Status != models.StatusError {
		out.Status = models.StatusComplete
	}
	return out
}

func errorReply() generate.Reply {
	return generate.Reply{
		Text:   "Sorry, I ran into an unexpected error while processing your message. Please try again.",
		Status: models.StatusError,
	}
}

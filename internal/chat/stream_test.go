package chat

import (
	"context"
	"testing"
	"time"

	"github.com/shelftalk/shelftalk/internal/models"
)

func TestPendingDeliversInOrder(t *testing.T) {
	s := NewStore()
	sub := s.Subscribe("s1", time.Millisecond)
	defer sub.Close()

	s.Append("s1", userMsg("first"))
	s.Append("s1", userMsg("second"))

	got := sub.Pending()
	if len(got) != 2 || got[0].Content != "first" || got[1].Content != "second" {
		t.Fatalf("unexpected pending set: %v", got)
	}
}

func TestPendingDeliversExactlyOnce(t *testing.T) {
	s := NewStore()
	sub := s.Subscribe("s1", time.Millisecond)
	defer sub.Close()

	s.Append("s1", userMsg("hello"))

	if got := sub.Pending(); len(got) != 1 {
		t.Fatalf("expected 1 pending message, got %d", len(got))
	}
	if got := sub.Pending(); len(got) != 0 {
		t.Fatalf("message delivered twice: %v", got)
	}

	s.Append("s1", userMsg("again"))
	got := sub.Pending()
	if len(got) != 1 || got[0].Content != "again" {
		t.Fatalf("expected only the new message, got %v", got)
	}
}

func TestStatusTransitionIsDelivered(t *testing.T) {
	s := NewStore()
	sub := s.Subscribe("s1", time.Millisecond)
	defer sub.Close()

	placeholder := s.Append("s1", models.ChatMessage{
		Role:    models.RoleAssistant,
		Content: "...",
		Status:  models.StatusThinking,
	})
	if got := sub.Pending(); len(got) != 1 || got[0].Status != models.StatusThinking {
		t.Fatalf("expected thinking placeholder, got %v", got)
	}

	// Same ID, new status: must be delivered again.
	s.Replace("s1", placeholder.ID, models.ChatMessage{
		ID:      placeholder.ID,
		Role:    models.RoleAssistant,
		Content: "done",
		Status:  models.StatusComplete,
	})
	got := sub.Pending()
	if len(got) != 1 {
		t.Fatalf("terminal replacement not delivered: %v", got)
	}
	if got[0].ID != placeholder.ID || got[0].Status != models.StatusComplete {
		t.Fatalf("unexpected terminal frame: %+v", got[0])
	}

	if got := sub.Pending(); len(got) != 0 {
		t.Fatalf("terminal frame delivered twice: %v", got)
	}
}

func TestLateSubscriberSeesWholeLog(t *testing.T) {
	s := NewStore()
	s.Append("s1", userMsg("before"))

	sub := s.Subscribe("s1", time.Millisecond)
	defer sub.Close()

	got := sub.Pending()
	if len(got) != 1 || got[0].Content != "before" {
		t.Fatalf("late subscriber missed backlog: %v", got)
	}
}

func TestIndependentSubscribers(t *testing.T) {
	s := NewStore()

	a := s.Subscribe("s1", time.Millisecond)
	defer a.Close()
	b := s.Subscribe("s1", time.Millisecond)
	defer b.Close()

	s.Append("s1", userMsg("hello"))

	if got := a.Pending(); len(got) != 1 {
		t.Fatalf("subscriber a: expected 1, got %d", len(got))
	}
	// a's delivery must not consume b's.
	if got := b.Pending(); len(got) != 1 {
		t.Fatalf("subscriber b: expected 1, got %d", len(got))
	}
}

func TestWaitWakesOnAppend(t *testing.T) {
	s := NewStore()
	sub := s.Subscribe("s1", time.Minute) // poll fallback must not fire
	defer sub.Close()

	done := make(chan error, 1)
	go func() {
		done <- sub.Wait(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	s.Append("s1", userMsg("wake"))

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not wake on append")
	}
}

func TestWaitReturnsOnCancel(t *testing.T) {
	s := NewStore()
	sub := s.Subscribe("s1", time.Minute)
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sub.Wait(ctx); err == nil {
		t.Fatal("expected context error from cancelled Wait")
	}
}

func TestViewerAccounting(t *testing.T) {
	s := NewStore()

	subs := make([]*Subscription, 3)
	for i := range subs {
		subs[i] = s.Subscribe("s1", time.Millisecond)
	}
	if got := s.ActiveViewers(); got != 3 {
		t.Fatalf("expected 3 viewers, got %d", got)
	}

	for _, sub := range subs {
		sub.Close()
		sub.Close() // double close must not double-decrement
	}
	if got := s.ActiveViewers(); got != 0 {
		t.Fatalf("expected 0 viewers after close, got %d", got)
	}
}

package generate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelftalk/shelftalk/internal/models"
)

func newTestDemoResponder() *DemoResponder {
	d := NewDemoResponder(zerolog.Nop())
	d.delayUnit = time.Millisecond
	return d
}

func TestDemoExactMatch(t *testing.T) {
	d := newTestDemoResponder()

	reply, err := d.Generate(context.Background(), "s1", "Find books by J.K. Rowling about magic.")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Status != models.StatusComplete {
		t.Fatalf("expected complete, got %s", reply.Status)
	}
	if !strings.Contains(reply.Text, "Harry Potter and the Philosopher's Stone") {
		t.Fatalf("unexpected reply: %q", reply.Text)
	}
}

func TestDemoNormalizedMatch(t *testing.T) {
	d := newTestDemoResponder()

	// Case and whitespace differences still hit the canned answer.
	reply, err := d.Generate(context.Background(), "s1", "  recommend a SCI-FI book like dune.  ")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply.Text, "Diaspora") {
		t.Fatalf("normalized lookup missed: %q", reply.Text)
	}
}

func TestDemoFallback(t *testing.T) {
	d := newTestDemoResponder()

	reply, err := d.Generate(context.Background(), "s1", "What is the meaning of life?")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Status != models.StatusComplete {
		t.Fatalf("fallback should still be a complete reply, got %s", reply.Status)
	}
	if !strings.Contains(reply.Text, "demo version") {
		t.Fatalf("expected the demo disclaimer, got %q", reply.Text)
	}
	// The disclaimer lists every supported question.
	for _, q := range Questions() {
		if !strings.Contains(reply.Text, q) {
			t.Fatalf("disclaimer missing question %q", q)
		}
	}
}

func TestDemoRespectsContext(t *testing.T) {
	d := NewDemoResponder(zerolog.Nop()) // real one-second delay unit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := d.Generate(ctx, "s1", "Hi, can you help me find a good book to read today?")
	if err == nil {
		t.Fatal("expected context error from cancelled generation")
	}
}

func TestQuestionsIsStable(t *testing.T) {
	a := Questions()
	b := Questions()
	if len(a) != 3 {
		t.Fatalf("expected 3 demo questions, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("Questions() order is not deterministic")
		}
	}
}

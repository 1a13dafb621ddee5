package generate

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelftalk/shelftalk/internal/models"
)

// fakeCatalog serves a fixed book list for fallback tests.
type fakeCatalog struct {
	books []models.Book
}

func (f *fakeCatalog) SearchBooks(ctx context.Context, query string, limit int) ([]models.Book, error) {
	return f.books, nil
}

func (f *fakeCatalog) FeaturedBooks(ctx context.Context, limit int) ([]models.Book, error) {
	return f.books, nil
}

func liveServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestLiveFlatEnvelope(t *testing.T) {
	srv := liveServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Write([]byte(`{"output": "here is a book"}`))
	})

	l := NewLiveResponder(srv.URL, time.Second, nil, zerolog.Nop())
	reply, err := l.Generate(context.Background(), "s1", "find me a book")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Status != models.StatusComplete || reply.Text != "here is a book" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestLiveNestedEnvelope(t *testing.T) {
	srv := liveServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"output": {"output": "nested reply"}}`))
	})

	l := NewLiveResponder(srv.URL, time.Second, nil, zerolog.Nop())
	reply, err := l.Generate(context.Background(), "s1", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "nested reply" {
		t.Fatalf("expected nested extraction, got %q", reply.Text)
	}
}

func TestLiveAlternateKeys(t *testing.T) {
	srv := liveServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": "alt key reply"}`))
	})

	l := NewLiveResponder(srv.URL, time.Second, nil, zerolog.Nop())
	reply, err := l.Generate(context.Background(), "s1", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "alt key reply" {
		t.Fatalf("expected response-key extraction, got %q", reply.Text)
	}
}

func TestLiveRequestPayload(t *testing.T) {
	var got string
	srv := liveServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = string(body)
		w.Write([]byte(`{"output": "ok"}`))
	})

	l := NewLiveResponder(srv.URL, time.Second, nil, zerolog.Nop())
	if _, err := l.Generate(context.Background(), "session-42", "my question"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `"sessionId":"session-42"`) || !strings.Contains(got, `"chatInput":"my question"`) {
		t.Fatalf("unexpected request payload: %s", got)
	}
}

func TestLiveNonSuccessStatus(t *testing.T) {
	srv := liveServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	l := NewLiveResponder(srv.URL, time.Second, nil, zerolog.Nop())
	reply, err := l.Generate(context.Background(), "s1", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Status != models.StatusError {
		t.Fatalf("expected error status, got %s", reply.Status)
	}
	if !strings.Contains(reply.Text, "502") {
		t.Fatalf("expected status code in message, got %q", reply.Text)
	}
}

func TestLiveEmptyReply(t *testing.T) {
	srv := liveServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"output": ""}`))
	})

	l := NewLiveResponder(srv.URL, time.Second, nil, zerolog.Nop())
	reply, err := l.Generate(context.Background(), "s1", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Status != models.StatusError {
		t.Fatalf("empty reply should be an error, got %+v", reply)
	}
}

func TestLiveTimeout(t *testing.T) {
	srv := liveServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"output": "too late"}`))
	})

	l := NewLiveResponder(srv.URL, 20*time.Millisecond, nil, zerolog.Nop())
	reply, err := l.Generate(context.Background(), "s1", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Status != models.StatusError {
		t.Fatalf("expected error status on timeout, got %s", reply.Status)
	}
	if !strings.Contains(reply.Text, "taking too long") {
		t.Fatalf("expected timeout message, got %q", reply.Text)
	}
}

func TestLiveConnectionFailureWithoutCatalog(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	l := NewLiveResponder(url, time.Second, nil, zerolog.Nop())
	reply, err := l.Generate(context.Background(), "s1", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Status != models.StatusError {
		t.Fatalf("expected error status, got %s", reply.Status)
	}
	if !strings.Contains(reply.Text, "Cannot connect") {
		t.Fatalf("expected connection message, got %q", reply.Text)
	}
}

func TestLiveConnectionFailureFallsBackToCatalog(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	catalog := &fakeCatalog{books: []models.Book{
		{ID: 1, Title: "Dune", Author: "Frank Herbert", Rating: 4.5},
	}}

	l := NewLiveResponder(url, time.Second, catalog, zerolog.Nop())
	reply, err := l.Generate(context.Background(), "s1", "search desert planets")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Status != models.StatusComplete {
		t.Fatalf("fallback should complete the turn, got %s", reply.Status)
	}
	if !strings.Contains(reply.Text, "Dune") {
		t.Fatalf("expected catalog results, got %q", reply.Text)
	}
	if reply.Actions == nil || reply.Actions.Type != "book_results" {
		t.Fatalf("expected book_results action, got %+v", reply.Actions)
	}
}

func TestLiveDetectsSaveAction(t *testing.T) {
	srv := liveServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"output": "Done! I saved book #3 to your reading list."}`))
	})

	l := NewLiveResponder(srv.URL, time.Second, nil, zerolog.Nop())
	reply, err := l.Generate(context.Background(), "s1", "save it")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Actions == nil || reply.Actions.Type != "save_book" || reply.Actions.BookID != 3 {
		t.Fatalf("expected save_book action for book 3, got %+v", reply.Actions)
	}
}

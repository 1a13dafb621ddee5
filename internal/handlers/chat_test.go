package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/shelftalk/shelftalk/internal/books"
	"github.com/shelftalk/shelftalk/internal/chat"
	"github.com/shelftalk/shelftalk/internal/generate"
	"github.com/shelftalk/shelftalk/internal/models"
)

// echoResponder replies instantly with the input text.
type echoResponder struct{}

func (echoResponder) Mode() string { return "echo" }

func (echoResponder) Generate(ctx context.Context, sessionID, input string) (generate.Reply, error) {
	return generate.Reply{Text: "echo: " + input, Status: models.StatusComplete}, nil
}

type testEnv struct {
	store      *chat.Store
	dispatcher *chat.Dispatcher
	router     *chi.Mux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	catalog, err := books.NewSQLiteCatalog(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(catalog.Close)

	store := chat.NewStore()
	dispatcher := chat.NewDispatcher(store, echoResponder{}, time.Second, zerolog.Nop())

	h := NewHandler(Options{
		Store:        store,
		Dispatcher:   dispatcher,
		Catalog:      catalog,
		Logger:       zerolog.Nop(),
		DemoMode:     true,
		PollInterval: 5 * time.Millisecond,
	})

	r := chi.NewRouter()
	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)
	r.Route("/api/chat", func(r chi.Router) {
		r.Post("/send", h.SendMessage)
		r.Get("/stream/{sessionID}", h.Stream)
		r.Get("/history/{sessionID}", h.History)
		r.Delete("/clear/{sessionID}", h.Clear)
		r.Get("/demo-status", h.DemoStatus)
	})
	r.Route("/api/ai", func(r chi.Router) {
		r.Get("/search", h.SearchBooks)
		r.Get("/recommend", h.Recommend)
		r.Post("/user-action", h.UserAction)
		r.Get("/book-details/{id}", h.BookDetails)
		r.Get("/genres", h.Genres)
	})

	return &testEnv{store: store, dispatcher: dispatcher, router: r}
}

func (e *testEnv) do(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func TestSendMessageAccepted(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/chat/send", `{"session_id":"s1","message":"hello"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SendMessageResponse
	decode(t, rec, &resp)
	if !resp.Accepted || resp.MessageID == "" || resp.SessionID != "s1" {
		t.Fatalf("unexpected ack: %+v", resp)
	}

	// The reply is asynchronous; the ack must not contain it.
	if strings.Contains(rec.Body.String(), "echo:") {
		t.Fatal("reply leaked into the synchronous response")
	}

	env.dispatcher.Wait()
	msgs := env.store.List("s1")
	if len(msgs) != 2 || msgs[1].Content != "echo: hello" {
		t.Fatalf("turn did not resolve: %v", msgs)
	}
}

func TestSendMessageValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing session", `{"message":"hi"}`, http.StatusBadRequest},
		{"bad session chars", `{"session_id":"has spaces","message":"hi"}`, http.StatusBadRequest},
		{"empty message", `{"session_id":"s1","message":""}`, http.StatusBadRequest},
		{"oversized message", `{"session_id":"s1","message":"` + strings.Repeat("a", 5000) + `"}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, "POST", "/api/chat/send", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, "POST", "/api/chat/send", `{"session_id":"s1","message":"one"}`)
	env.dispatcher.Wait()

	rec := env.do(t, "GET", "/api/chat/history/s1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp HistoryResponse
	decode(t, rec, &resp)
	if resp.SessionID != "s1" || resp.Total != 2 || len(resp.Messages) != 2 {
		t.Fatalf("unexpected history: %+v", resp)
	}
	if resp.Mode != "demo" {
		t.Fatalf("expected demo mode, got %q", resp.Mode)
	}
	if resp.Messages[0].Role != models.RoleUser || resp.Messages[1].Role != models.RoleAssistant {
		t.Fatalf("unexpected roles: %+v", resp.Messages)
	}
}

func TestHistoryLimit(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 4; i++ {
		env.do(t, "POST", "/api/chat/send", `{"session_id":"s1","message":"ping"}`)
	}
	env.dispatcher.Wait()

	rec := env.do(t, "GET", "/api/chat/history/s1?limit=2", "")
	var resp HistoryResponse
	decode(t, rec, &resp)
	if len(resp.Messages) != 2 || resp.Total != 8 {
		t.Fatalf("expected tail of 2 out of 8, got %d of %d", len(resp.Messages), resp.Total)
	}
}

func TestHistoryUnknownSessionIsEmpty(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/chat/history/never-seen", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp HistoryResponse
	decode(t, rec, &resp)
	if resp.Total != 0 || len(resp.Messages) != 0 {
		t.Fatalf("expected empty history, got %+v", resp)
	}
}

func TestClear(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, "POST", "/api/chat/send", `{"session_id":"s1","message":"hello"}`)
	env.dispatcher.Wait()

	rec := env.do(t, "DELETE", "/api/chat/clear/s1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := env.store.List("s1"); len(got) != 0 {
		t.Fatalf("store not cleared: %v", got)
	}

	// Clearing again, or clearing an unknown session, still succeeds.
	if rec := env.do(t, "DELETE", "/api/chat/clear/s1", ""); rec.Code != http.StatusOK {
		t.Fatalf("second clear: expected 200, got %d", rec.Code)
	}
	if rec := env.do(t, "DELETE", "/api/chat/clear/unknown", ""); rec.Code != http.StatusOK {
		t.Fatalf("unknown clear: expected 200, got %d", rec.Code)
	}
}

func TestDemoStatus(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/chat/demo-status", "")
	var resp DemoStatusResponse
	decode(t, rec, &resp)
	if resp.Mode != "demo" {
		t.Fatalf("expected demo mode, got %q", resp.Mode)
	}
	if len(resp.AvailableQuestions) != 3 {
		t.Fatalf("expected 3 demo questions, got %v", resp.AvailableQuestions)
	}
}

func TestStreamDeliversTurn(t *testing.T) {
	env := newTestEnv(t)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/chat/stream/s1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected SSE content type, got %q", ct)
	}

	frames := make(chan map[string]interface{}, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var frame map[string]interface{}
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err == nil {
				frames <- frame
			}
		}
	}()

	readFrame := func() map[string]interface{} {
		select {
		case f := <-frames:
			return f
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for stream frame")
			return nil
		}
	}

	if f := readFrame(); f["type"] != "connected" {
		t.Fatalf("expected connected frame first, got %v", f)
	}

	body := bytes.NewReader([]byte(`{"session_id":"s1","message":"hello"}`))
	sendResp, err := http.Post(srv.URL+"/api/chat/send", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	sendResp.Body.Close()

	// user message, thinking placeholder, terminal reply. The thinking
	// frame can race the replacement, so collect until the terminal frame.
	var thinkingID, terminalID string
	for i := 0; i < 3; i++ {
		f := readFrame()
		switch f["status"] {
		case "thinking":
			thinkingID, _ = f["id"].(string)
		case "complete":
			if f["role"] == "assistant" {
				terminalID, _ = f["id"].(string)
				if f["content"] != "echo: hello" {
					t.Fatalf("unexpected reply frame: %v", f)
				}
			}
		}
		if terminalID != "" {
			break
		}
	}
	if terminalID == "" {
		t.Fatal("terminal assistant frame never arrived")
	}
	if thinkingID != "" && thinkingID != terminalID {
		t.Fatalf("terminal frame ID %s does not match thinking ID %s", terminalID, thinkingID)
	}
}

func TestStreamInvalidSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/chat/stream/bad%20session", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, "POST", "/api/chat/send", `{"session_id":"s1","message":"hello"}`)
	env.dispatcher.Wait()

	rec := env.do(t, "GET", "/stats", "")
	var resp StatsResponse
	decode(t, rec, &resp)
	if resp.Sessions != 1 || resp.TotalMessages != 2 {
		t.Fatalf("unexpected stats: %+v", resp)
	}
	if resp.Mode != "demo" {
		t.Fatalf("expected demo mode, got %q", resp.Mode)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp HealthResponse
	decode(t, rec, &resp)
	if resp.Status != "healthy" {
		t.Fatalf("expected healthy, got %+v", resp)
	}
}

package generate

import (
	"context"
	"strings"
	"testing"

	"github.com/shelftalk/shelftalk/internal/models"
)

func TestDetectActions(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		wantID int // 0 means no action
	}{
		{"explicit save", "I'll save book 2 to your list.", 2},
		{"hash form", "Saved book #14 for you.", 14},
		{"added phrasing", "Save complete, book 5 added.", 5},
		{"no save keyword", "Here is book 3 for you.", 0},
		{"save without book context", "I'll save that for later.", 0},
		{"save without an id", "I'll save the book to your list.", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectActions(tt.text)
			if tt.wantID == 0 {
				if got != nil {
					t.Fatalf("expected no action, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a save_book action")
			}
			if got.Type != "save_book" || got.BookID != tt.wantID {
				t.Fatalf("expected save_book %d, got %+v", tt.wantID, got)
			}
		})
	}
}

func TestLocalFallbackHelp(t *testing.T) {
	reply := localFallback(context.Background(), "what can you do", &fakeCatalog{})
	if reply.Status != models.StatusComplete {
		t.Fatalf("expected complete, got %s", reply.Status)
	}
	if !strings.Contains(reply.Text, "Book Assistant") {
		t.Fatalf("expected usage hint, got %q", reply.Text)
	}
}

func TestLocalFallbackSearchEmpty(t *testing.T) {
	reply := localFallback(context.Background(), "search dragons", &fakeCatalog{})
	if !strings.Contains(reply.Text, "couldn't find") {
		t.Fatalf("expected empty-search message, got %q", reply.Text)
	}
	if reply.Actions != nil {
		t.Fatalf("no results should carry no action, got %+v", reply.Actions)
	}
}

func TestLocalFallbackRecommend(t *testing.T) {
	catalog := &fakeCatalog{books: []models.Book{
		{ID: 1, Title: "Dune", Author: "Frank Herbert", Genres: []string{"Science Fiction"}},
	}}
	reply := localFallback(context.Background(), "recommend me something", catalog)
	if !strings.Contains(reply.Text, "Dune") || !strings.Contains(reply.Text, "Science Fiction") {
		t.Fatalf("unexpected recommendation: %q", reply.Text)
	}
}

func TestLocalFallbackSave(t *testing.T) {
	reply := localFallback(context.Background(), "save book 7", &fakeCatalog{})
	if reply.Actions == nil || reply.Actions.Type != "save_book" || reply.Actions.BookID != 7 {
		t.Fatalf("expected save_book 7, got %+v", reply.Actions)
	}
}

package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/shelftalk/shelftalk/internal/models"
)

// Catalog is the slice of the book store the fallback generator needs.
type Catalog interface {
	SearchBooks(ctx context.Context, query string, limit int) ([]models.Book, error)
	FeaturedBooks(ctx context.Context, limit int) ([]models.Book, error)
}

// localFallback answers a user message from the catalog when the
// generation service is unreachable. It recognizes search, recommendation
// and save intents by keyword; anything else gets a usage hint.
func localFallback(ctx context.Context, input string, catalog Catalog) Reply {
	lower := strings.ToLower(input)

	switch {
	case containsAny(lower, "search", "find", "looking for", "book about"):
		return fallbackSearch(ctx, input, catalog)

	case containsAny(lower, "recommend", "suggestion", "what should i read"):
		return fallbackRecommend(ctx, catalog)

	case strings.Contains(lower, "save") && strings.ContainsAny(input, "0123456789"):
		return fallbackSave(input)

	default:
		return Reply{
			Text: "I'm your AI Book Assistant! I can help you:\n" +
				"- Search for books (e.g., 'search science fiction')\n" +
				"- Get recommendations (e.g., 'recommend me a book')\n" +
				"- Save books to your list (e.g., 'save book 1')\n\n" +
				"What would you like to do?",
			Status: models.StatusComplete,
		}
	}
}

func fallbackSearch(ctx context.Context, input string, catalog Catalog) Reply {
	terms := input
	for _, filler := range []string{"search", "find", "looking for", "book about"} {
		terms = strings.ReplaceAll(terms, filler, "")
	}
	terms = strings.TrimSpace(terms)

	books, err := catalog.SearchBooks(ctx, terms, 3)
	if err != nil || len(books) == 0 {
		return Reply{
			Text:   "I couldn't find any books matching your search. Try different keywords!",
			Status: models.StatusComplete,
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d books matching your search:\n\n", len(books))
	refs := make([]models.BookRef, 0, len(books))
	for _, book := range books {
		fmt.Fprintf(&b, "- %q by %s\n", book.Title, book.Author)
		if book.Rating > 0 {
			fmt.Fprintf(&b, "  Rating: %.1f/5\n", book.Rating)
		}
		refs = append(refs, models.BookRef{ID: book.ID, Title: book.Title, Author: book.Author})
	}

	return Reply{
		Text:    b.String(),
		Status:  models.StatusComplete,
		Actions: &models.MessageActions{Type: "book_results", Books: refs},
	}
}

func fallbackRecommend(ctx context.Context, catalog Catalog) Reply {
	books, err := catalog.FeaturedBooks(ctx, 3)
	if err != nil || len(books) == 0 {
		return Reply{
			Text:   "I don't have any recommendations right now. Try searching for a topic instead!",
			Status: models.StatusComplete,
		}
	}

	var b strings.Builder
	b.WriteString("Here are some books I recommend:\n\n")
	for _, book := range books {
		fmt.Fprintf(&b, "- %q by %s\n", book.Title, book.Author)
		if len(book.Genres) > 0 {
			fmt.Fprintf(&b, "  Genre: %s\n", strings.Join(book.Genres, ", "))
		}
	}

	return Reply{Text: b.String(), Status: models.StatusComplete}
}

func fallbackSave(input string) Reply {
	var digits strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	bookID := 0
	fmt.Sscanf(digits.String(), "%d", &bookID)
	if bookID == 0 {
		return Reply{
			Text:   "Which book should I save? Mention its number, e.g. 'save book 1'.",
			Status: models.StatusComplete,
		}
	}

	return Reply{
		Text:    fmt.Sprintf("I'll save book #%d to your list!", bookID),
		Status:  models.StatusComplete,
		Actions: &models.MessageActions{Type: "save_book", BookID: bookID},
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

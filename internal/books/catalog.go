package books

import (
	"context"

	"github.com/shelftalk/shelftalk/internal/models"
)

// Catalog defines the interface for the book lookup store.
// Both PostgresCatalog and SQLiteCatalog implement this interface.
type Catalog interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Lookups
	SearchBooks(ctx context.Context, query string, limit int) ([]models.Book, error)
	FeaturedBooks(ctx context.Context, limit int) ([]models.Book, error)
	BooksByGenre(ctx context.Context, genre string, limit int) ([]models.Book, error)
	GetBook(ctx context.Context, id int) (*models.Book, error)
	ListGenres(ctx context.Context) ([]string, error)

	// Per-session saved list
	ToggleSavedBook(ctx context.Context, sessionID string, bookID int) (bool, error)
	SavedBooks(ctx context.Context, sessionID string) ([]int, error)
}

package books

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/shelftalk/shelftalk/internal/models"
)

// SQLiteCatalog handles SQLite database operations.
type SQLiteCatalog struct {
	db *sql.DB
}

// NewSQLiteCatalog creates a new SQLite catalog.
// If dbPath is empty, defaults to "./data/shelftalk.db".
func NewSQLiteCatalog(ctx context.Context, dbPath string) (*SQLiteCatalog, error) {
	if dbPath == "" {
		dbPath = "./data/shelftalk.db"
	}

	if dbPath != ":memory:" {
		// Ensure directory exists
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		dbPath += "?_journal_mode=WAL&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Every pooled connection to :memory: is a distinct empty database,
	// so pin the pool to a single connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	c := &SQLiteCatalog{db: db}

	// Initialize schema
	if err := c.initSchema(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

// initSchema creates tables if they don't exist and seeds a starter shelf.
func (c *SQLiteCatalog) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS books (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		isbn TEXT DEFAULT '',
		publication_year INTEGER DEFAULT 0,
		publisher TEXT DEFAULT '',
		page_count INTEGER DEFAULT 0,
		language TEXT DEFAULT 'en',
		rating REAL DEFAULT 0,
		total_reviews INTEGER DEFAULT 0,
		description TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS genres (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS book_genres (
		book_id INTEGER NOT NULL REFERENCES books(id),
		genre_id INTEGER NOT NULL REFERENCES genres(id),
		PRIMARY KEY (book_id, genre_id)
	);

	CREATE TABLE IF NOT EXISTS saved_books (
		session_id TEXT NOT NULL,
		book_id INTEGER NOT NULL REFERENCES books(id),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (session_id, book_id)
	);

	CREATE INDEX IF NOT EXISTS idx_books_rating ON books(rating);
	CREATE INDEX IF NOT EXISTS idx_saved_books_session ON saved_books(session_id);

	INSERT OR IGNORE INTO genres (id, name) VALUES
		(1, 'Fantasy'), (2, 'Science Fiction'), (3, 'Mystery'), (4, 'Literary Fiction');

	INSERT OR IGNORE INTO books (id, title, author, publication_year, rating, total_reviews, description) VALUES
		(1, 'Harry Potter and the Philosopher''s Stone', 'J.K. Rowling', 1997, 4.7, 8921, 'A young wizard discovers his heritage and attends Hogwarts School of Witchcraft and Wizardry.'),
		(2, 'Dune', 'Frank Herbert', 1965, 4.5, 7412, 'A noble family becomes embroiled in a war for control of the desert planet Arrakis.'),
		(3, 'Diaspora', 'Greg Egan', 1997, 4.1, 812, 'Sentient software minds leave their home polis to explore the universe.'),
		(4, 'The City & The City', 'China Miéville', 2009, 4.0, 1523, 'A police procedural set in two cities that coexist in the same space.'),
		(5, 'Altered Carbon', 'Richard K. Morgan', 2002, 4.2, 2310, 'A cyberpunk noir about a consciousness re-sleeved into a new body to solve a murder.'),
		(6, 'The Casual Vacancy', 'J.K. Rowling', 2012, 3.5, 2004, 'Power, privilege and the human condition in a small English town.');

	INSERT OR IGNORE INTO book_genres (book_id, genre_id) VALUES
		(1, 1), (2, 2), (3, 2), (4, 3), (4, 2), (5, 2), (6, 4);
	`

	_, err := c.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (c *SQLiteCatalog) Close() {
	c.db.Close()
}

// Ping checks the database connection.
func (c *SQLiteCatalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

const bookColumns = `id, title, author, isbn, publication_year, publisher, page_count, language, rating, total_reviews, description, created_at`

func scanBook(row interface{ Scan(...any) error }) (*models.Book, error) {
	book := &models.Book{}
	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.ISBN,
		&book.PublicationYear,
		&book.Publisher,
		&book.PageCount,
		&book.Language,
		&book.Rating,
		&book.TotalReviews,
		&book.Description,
		&book.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (c *SQLiteCatalog) collectBooks(ctx context.Context, rows *sql.Rows) ([]models.Book, error) {
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range books {
		genres, err := c.bookGenres(ctx, books[i].ID)
		if err != nil {
			return nil, err
		}
		books[i].Genres = genres
	}
	return books, nil
}

func (c *SQLiteCatalog) bookGenres(ctx context.Context, bookID int) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT g.name FROM genres g
		JOIN book_genres bg ON bg.genre_id = g.id
		WHERE bg.book_id = ?
		ORDER BY g.name
	`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var genres []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		genres = append(genres, name)
	}
	return genres, rows.Err()
}

// SearchBooks searches titles, authors and descriptions.
func (c *SQLiteCatalog) SearchBooks(ctx context.Context, query string, limit int) ([]models.Book, error) {
	if limit <= 0 {
		limit = 5
	}
	pattern := "%" + query + "%"

	rows, err := c.db.QueryContext(ctx, `
		SELECT `+bookColumns+` FROM books
		WHERE title LIKE ? OR author LIKE ? OR description LIKE ?
		ORDER BY rating DESC
		LIMIT ?
	`, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	return c.collectBooks(ctx, rows)
}

// FeaturedBooks returns the highest rated books.
func (c *SQLiteCatalog) FeaturedBooks(ctx context.Context, limit int) ([]models.Book, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT `+bookColumns+` FROM books
		ORDER BY rating DESC, total_reviews DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	return c.collectBooks(ctx, rows)
}

// BooksByGenre returns books tagged with the named genre.
func (c *SQLiteCatalog) BooksByGenre(ctx context.Context, genre string, limit int) ([]models.Book, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT `+bookColumns+` FROM books
		WHERE id IN (
			SELECT bg.book_id FROM book_genres bg
			JOIN genres g ON g.id = bg.genre_id
			WHERE g.name = ? COLLATE NOCASE
		)
		ORDER BY rating DESC
		LIMIT ?
	`, genre, limit)
	if err != nil {
		return nil, err
	}
	return c.collectBooks(ctx, rows)
}

// GetBook retrieves a book by ID. Returns (nil, nil) when not found.
func (c *SQLiteCatalog) GetBook(ctx context.Context, id int) (*models.Book, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT `+bookColumns+` FROM books WHERE id = ?
	`, id)

	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	book.Genres, err = c.bookGenres(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	return book, nil
}

// ListGenres returns all genre names.
func (c *SQLiteCatalog) ListGenres(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name FROM genres ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var genres []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		genres = append(genres, name)
	}
	return genres, rows.Err()
}

// ToggleSavedBook flips the saved state of a book for a session and
// returns the new state.
func (c *SQLiteCatalog) ToggleSavedBook(ctx context.Context, sessionID string, bookID int) (bool, error) {
	res, err := c.db.ExecContext(ctx, `
		DELETE FROM saved_books WHERE session_id = ? AND book_id = ?
	`, sessionID, bookID)
	if err != nil {
		return false, err
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if deleted > 0 {
		return false, nil
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO saved_books (session_id, book_id) VALUES (?, ?)
	`, sessionID, bookID)
	if err != nil {
		return false, err
	}
	return true, nil
}

// SavedBooks returns the IDs of books saved by a session.
func (c *SQLiteCatalog) SavedBooks(ctx context.Context, sessionID string) ([]int, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT book_id FROM saved_books WHERE session_id = ? ORDER BY created_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

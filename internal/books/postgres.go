package books

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelftalk/shelftalk/internal/models"
)

// PostgresCatalog handles PostgreSQL database operations.
type PostgresCatalog struct {
	pool *pgxpool.Pool
}

// NewPostgresCatalog creates a new PostgreSQL catalog with a connection pool.
func NewPostgresCatalog(ctx context.Context, databaseURL string) (*PostgresCatalog, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	c := &PostgresCatalog{pool: pool}

	if err := c.initSchema(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

// initSchema creates tables if they don't exist. Seeding is left to the
// deployment; production catalogs are loaded out of band.
func (c *PostgresCatalog) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS books (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		isbn TEXT DEFAULT '',
		publication_year INT DEFAULT 0,
		publisher TEXT DEFAULT '',
		page_count INT DEFAULT 0,
		language TEXT DEFAULT 'en',
		rating DOUBLE PRECISION DEFAULT 0,
		total_reviews INT DEFAULT 0,
		description TEXT DEFAULT '',
		created_at TIMESTAMPTZ DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS genres (
		id SERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS book_genres (
		book_id INT NOT NULL REFERENCES books(id),
		genre_id INT NOT NULL REFERENCES genres(id),
		PRIMARY KEY (book_id, genre_id)
	);

	CREATE TABLE IF NOT EXISTS saved_books (
		session_id TEXT NOT NULL,
		book_id INT NOT NULL REFERENCES books(id),
		created_at TIMESTAMPTZ DEFAULT NOW(),
		PRIMARY KEY (session_id, book_id)
	);

	CREATE INDEX IF NOT EXISTS idx_books_rating ON books(rating);
	CREATE INDEX IF NOT EXISTS idx_saved_books_session ON saved_books(session_id);
	`

	_, err := c.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (c *PostgresCatalog) Close() {
	c.pool.Close()
}

// Ping checks the database connection.
func (c *PostgresCatalog) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *PostgresCatalog) collectBooks(ctx context.Context, rows pgx.Rows) ([]models.Book, error) {
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var book models.Book
		err := rows.Scan(
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
		books = append(books, book)
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

func (c *PostgresCatalog) bookGenres(ctx context.Context, bookID int) ([]string, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT g.name FROM genres g
		JOIN book_genres bg ON bg.genre_id = g.id
		WHERE bg.book_id = $1
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
func (c *PostgresCatalog) SearchBooks(ctx context.Context, query string, limit int) ([]models.Book, error) {
	if limit <= 0 {
		limit = 5
	}
	pattern := "%" + query + "%"

	rows, err := c.pool.Query(ctx, `
		SELECT id, title, author, isbn, publication_year, publisher, page_count, language, rating, total_reviews, description, created_at
		FROM books
		WHERE title ILIKE $1 OR author ILIKE $1 OR description ILIKE $1
		ORDER BY rating DESC
		LIMIT $2
	`, pattern, limit)
	if err != nil {
		return nil, err
	}
	return c.collectBooks(ctx, rows)
}

// FeaturedBooks returns the highest rated books.
func (c *PostgresCatalog) FeaturedBooks(ctx context.Context, limit int) ([]models.Book, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := c.pool.Query(ctx, `
		SELECT id, title, author, isbn, publication_year, publisher, page_count, language, rating, total_reviews, description, created_at
		FROM books
		ORDER BY rating DESC, total_reviews DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return c.collectBooks(ctx, rows)
}

// BooksByGenre returns books tagged with the named genre.
func (c *PostgresCatalog) BooksByGenre(ctx context.Context, genre string, limit int) ([]models.Book, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := c.pool.Query(ctx, `
		SELECT id, title, author, isbn, publication_year, publisher, page_count, language, rating, total_reviews, description, created_at
		FROM books
		WHERE id IN (
			SELECT bg.book_id FROM book_genres bg
			JOIN genres g ON g.id = bg.genre_id
			WHERE LOWER(g.name) = LOWER($1)
		)
		ORDER BY rating DESC
		LIMIT $2
	`, genre, limit)
	if err != nil {
		return nil, err
	}
	return c.collectBooks(ctx, rows)
}

// GetBook retrieves a book by ID. Returns (nil, nil) when not found.
func (c *PostgresCatalog) GetBook(ctx context.Context, id int) (*models.Book, error) {
	book := &models.Book{}
	err := c.pool.QueryRow(ctx, `
		SELECT id, title, author, isbn, publication_year, publisher, page_count, language, rating, total_reviews, description, created_at
		FROM books WHERE id = $1
	`, id).Scan(
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
		if errors.Is(err, pgx.ErrNoRows) {
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
func (c *PostgresCatalog) ListGenres(ctx context.Context) ([]string, error) {
	rows, err := c.pool.Query(ctx, `SELECT name FROM genres ORDER BY name`)
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
func (c *PostgresCatalog) ToggleSavedBook(ctx context.Context, sessionID string, bookID int) (bool, error) {
	tag, err := c.pool.Exec(ctx, `
		DELETE FROM saved_books WHERE session_id = $1 AND book_id = $2
	`, sessionID, bookID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = c.pool.Exec(ctx, `
		INSERT INTO saved_books (session_id, book_id) VALUES ($1, $2)
	`, sessionID, bookID)
	if err != nil {
		return false, err
	}
	return true, nil
}

// SavedBooks returns the IDs of books saved by a session.
func (c *PostgresCatalog) SavedBooks(ctx context.Context, sessionID string) ([]int, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT book_id FROM saved_books WHERE session_id = $1 ORDER BY created_at
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

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shelftalk/shelftalk/internal/models"
)

// SearchBooksResponse represents the book search response.
type SearchBooksResponse struct {
	Query string        `json:"query"`
	Count int           `json:"count"`
	Books []models.Book `json:"books"`
}

// SearchBooks handles book search for the assistant.
func (h *Handler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.Error(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"), 5, 20)

	found, err := h.catalog.SearchBooks(r.Context(), query, limit)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "search failed")
		return
	}
	if found == nil {
		found = []models.Book{}
	}

	h.JSON(w, http.StatusOK, SearchBooksResponse{
		Query: query,
		Count: len(found),
		Books: found,
	})
}

// RecommendCriteria echoes the requested filters.
type RecommendCriteria struct {
	Genre     string  `json:"genre,omitempty"`
	MinRating float64 `json:"min_rating,omitempty"`
	Limit     int     `json:"limit"`
}

// RecommendResponse represents the recommendation response.
type RecommendResponse struct {
	Criteria        RecommendCriteria `json:"criteria"`
	Count           int               `json:"count"`
	Recommendations []models.Book     `json:"recommendations"`
}

// Recommend handles book recommendations by genre and minimum rating.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	genre := strings.TrimSpace(r.URL.Query().Get("genre"))
	limit := parseLimit(r.URL.Query().Get("limit"), 5, 10)

	var minRating float64
	if s := r.URL.Query().Get("min_rating"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 || v > 5 {
			h.Error(w, http.StatusBadRequest, "min_rating must be between 0 and 5")
			return
		}
		minRating = v
	}

	var (
		found []models.Book
		err   error
	)
	if genre != "" {
		found, err = h.catalog.BooksByGenre(r.Context(), genre, limit*2)
	} else {
		found, err = h.catalog.FeaturedBooks(r.Context(), limit*2)
	}
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "recommendation lookup failed")
		return
	}

	recommendations := make([]models.Book, 0, limit)
	for _, book := range found {
		if minRating > 0 && book.Rating < minRating {
			continue
		}
		recommendations = append(recommendations, book)
		if len(recommendations) >= limit {
			break
		}
	}

	h.JSON(w, http.StatusOK, RecommendResponse{
		Criteria:        RecommendCriteria{Genre: genre, MinRating: minRating, Limit: limit},
		Count:           len(recommendations),
		Recommendations: recommendations,
	})
}

// UserActionRequest represents an action performed on behalf of a user.
type UserActionRequest struct {
	Action    string `json:"action"`
	BookID    int    `json:"book_id,omitempty"`
	SessionID string `json:"session_id"`
}

// UserAction handles save_book and get_saved actions.
func (h *Handler) UserAction(w http.ResponseWriter, r *http.Request) {
	var req UserActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !validSessionID(req.SessionID) {
		h.Error(w, http.StatusBadRequest, "invalid session ID format")
		return
	}

	switch {
	case req.Action == "save_book" && req.BookID > 0:
		saved, err := h.catalog.ToggleSavedBook(r.Context(), req.SessionID, req.BookID)
		if err != nil {
			h.Error(w, http.StatusInternalServerError, "failed to toggle saved book")
			return
		}

		title := "Unknown"
		if book, err := h.catalog.GetBook(r.Context(), req.BookID); err == nil && book != nil {
			title = book.Title
		}

		verb := "removed from"
		if saved {
			verb = "saved to"
		}
		h.JSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"action":     "save_book",
			"book_id":    req.BookID,
			"book_title": title,
			"is_saved":   saved,
			"message":    "Book " + verb + " your list",
		})

	case req.Action == "get_saved":
		ids, err := h.catalog.SavedBooks(r.Context(), req.SessionID)
		if err != nil {
			h.Error(w, http.StatusInternalServerError, "failed to list saved books")
			return
		}

		saved := make([]models.BookRef, 0, len(ids))
		for _, id := range ids {
			book, err := h.catalog.GetBook(r.Context(), id)
			if err != nil || book == nil {
				continue
			}
			saved = append(saved, models.BookRef{ID: book.ID, Title: book.Title, Author: book.Author})
		}

		h.JSON(w, http.StatusOK, map[string]interface{}{
			"success":     true,
			"action":      "get_saved",
			"count":       len(saved),
			"saved_books": saved,
		})

	default:
		h.JSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "Invalid action or missing parameters",
		})
	}
}

// BookDetails handles fetching a single book.
func (h *Handler) BookDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.Error(w, http.StatusBadRequest, "invalid book ID")
		return
	}

	book, err := h.catalog.GetBook(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if book == nil {
		h.Error(w, http.StatusNotFound, "book not found")
		return
	}

	h.JSON(w, http.StatusOK, book)
}

// Genres handles listing all genres.
func (h *Handler) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.catalog.ListGenres(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to list genres")
		return
	}
	if genres == nil {
		genres = []string{}
	}

	h.JSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(genres),
		"genres": genres,
	})
}

// parseLimit parses a limit query param with a default and an upper cap.
func parseLimit(s string, def, max int) int {
	if s == "" {
		return def
	}
	l, err := strconv.Atoi(s)
	if err != nil || l <= 0 {
		return def
	}
	if l > max {
		return max
	}
	return l
}

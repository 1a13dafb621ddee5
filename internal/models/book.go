package models

import "time"

// Book is a catalog entry consumed by the assistant as a lookup.
type Book struct {
	ID              int       `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn,omitempty"`
	PublicationYear int       `json:"publication_year,omitempty"`
	Publisher       string    `json:"publisher,omitempty"`
	PageCount       int       `json:"page_count,omitempty"`
	Language        string    `json:"language,omitempty"`
	Rating          float64   `json:"rating,omitempty"`
	TotalReviews    int       `json:"total_reviews,omitempty"`
	Genres          []string  `json:"genres,omitempty"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

package models

import "time"

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageStatus tracks a message through an assistant turn.
type MessageStatus string

const (
	StatusPending  MessageStatus = "pending"
	StatusThinking MessageStatus = "thinking"
	StatusComplete MessageStatus = "complete"
	StatusError    MessageStatus = "error"
)

// ChatMessage is one entry in a session's append-only log.
// A message is immutable once its status is complete or error; the only
// mutation the store performs is retracting a thinking placeholder and
// appending its terminal replacement under the same ID.
type ChatMessage struct {
	ID        string          `json:"id"` // ULID
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	Status    MessageStatus   `json:"status,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Actions   *MessageActions `json:"actions,omitempty"`
}

// MessageActions carries a structured side effect detected in a reply,
// e.g. a "save book N" intent or a set of search results.
type MessageActions struct {
	Type   string    `json:"type"` // "save_book" or "book_results"
	BookID int       `json:"book_id,omitempty"`
	Books  []BookRef `json:"books,omitempty"`
}

// BookRef is a lightweight pointer into the catalog for action payloads.
type BookRef struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

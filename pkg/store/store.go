// Package store persists transcripts, chat sessions, and chat messages.
package store

import (
	"context"
	"errors"
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Feedback is an optional user rating on an assistant message.
type Feedback string

const (
	FeedbackPositive Feedback = "positive"
	FeedbackNegative Feedback = "negative"
)

// Transcript is the persisted record of an ingested transcript. The raw text
// lives in the transcript file store; this row carries identity and title.
type Transcript struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session is a chat session bound to a single transcript.
type Session struct {
	ID           string    `json:"id"`
	TranscriptID string    `json:"transcriptId"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Message is one turn of a chat session. Feedback is empty until the user
// rates the message.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Feedback  Feedback  `json:"feedback,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store defines the interface for chat persistence backends.
type Store interface {
	// CreateTranscript inserts a transcript record.
	CreateTranscript(ctx context.Context, t *Transcript) error

	// GetTranscript retrieves a transcript by id.
	GetTranscript(ctx context.Context, id string) (*Transcript, error)

	// DeleteTranscript removes a transcript and cascades to its sessions
	// and their messages.
	DeleteTranscript(ctx context.Context, id string) error

	// CreateSession inserts a chat session. The referenced transcript must
	// exist.
	CreateSession(ctx context.Context, s *Session) error

	// GetSession retrieves a session by id.
	GetSession(ctx context.Context, id string) (*Session, error)

	// ListSessions returns all sessions, most recently created first.
	ListSessions(ctx context.Context) ([]*Session, error)

	// AddMessage appends a message to a session.
	AddMessage(ctx context.Context, m *Message) error

	// ListMessages returns a session's messages in creation order.
	ListMessages(ctx context.Context, sessionID string) ([]*Message, error)

	// UpdateMessageFeedback sets the feedback on a message.
	UpdateMessageFeedback(ctx context.Context, messageID string, feedback Feedback) error

	// Close closes the store and releases any resources.
	Close() error
}

// ErrNotFound is returned when a record doesn't exist in the store.
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e ErrNotFound) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}

	return e.Entity + " not found: " + e.ID
}

// IsNotFound reports whether err is an ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

// Package postgres provides a PostgreSQL-backed chat store on pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/recaplabs/recap/pkg/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS transcripts (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	filename TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_sessions (
	id TEXT PRIMARY KEY,
	transcript_id TEXT NOT NULL REFERENCES transcripts(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	feedback TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	seq BIGSERIAL
);

CREATE INDEX IF NOT EXISTS idx_chat_sessions_transcript ON chat_sessions(transcript_id);
CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id);
`

// Driver implements store.Store on PostgreSQL via a pgx pool.
type Driver struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Driver)(nil)

// NewDriver connects to the database at connString and applies the schema.
func NewDriver(ctx context.Context, connString string) (*Driver, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Driver{pool: pool}, nil
}

func (d *Driver) CreateTranscript(ctx context.Context, t *store.Transcript) error {
	_, err := d.pool.Exec(ctx,
		`INSERT INTO transcripts (id, title, filename, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.Title, t.Filename, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transcript: %w", err)
	}

	return nil
}

func (d *Driver) GetTranscript(ctx context.Context, id string) (*store.Transcript, error) {
	var t store.Transcript

	err := d.pool.QueryRow(ctx,
		`SELECT id, title, filename, created_at, updated_at FROM transcripts WHERE id = $1`, id).
		Scan(&t.ID, &t.Title, &t.Filename, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound{Entity: "transcript", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}

	return &t, nil
}

func (d *Driver) DeleteTranscript(ctx context.Context, id string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM transcripts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound{Entity: "transcript", ID: id}
	}

	return nil
}

func (d *Driver) CreateSession(ctx context.Context, s *store.Session) error {
	if _, err := d.GetTranscript(ctx, s.TranscriptID); err != nil {
		return err
	}

	_, err := d.pool.Exec(ctx,
		`INSERT INTO chat_sessions (id, transcript_id, title, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.TranscriptID, s.Title, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

func (d *Driver) GetSession(ctx context.Context, id string) (*store.Session, error) {
	var s store.Session

	err := d.pool.QueryRow(ctx,
		`SELECT id, transcript_id, title, created_at, updated_at FROM chat_sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.TranscriptID, &s.Title, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound{Entity: "session", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &s, nil
}

func (d *Driver) ListSessions(ctx context.Context) ([]*store.Session, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT id, transcript_id, title, created_at, updated_at FROM chat_sessions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*store.Session, 0)
	for rows.Next() {
		var s store.Session
		if err := rows.Scan(&s.ID, &s.TranscriptID, &s.Title, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &s)
	}

	return sessions, rows.Err()
}

func (d *Driver) AddMessage(ctx context.Context, m *store.Message) error {
	if _, err := d.GetSession(ctx, m.SessionID); err != nil {
		return err
	}

	var feedback *string
	if m.Feedback != "" {
		f := string(m.Feedback)
		feedback = &f
	}

	_, err := d.pool.Exec(ctx,
		`INSERT INTO chat_messages (id, session_id, role, content, feedback, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.SessionID, string(m.Role), m.Content, feedback, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return nil
}

func (d *Driver) ListMessages(ctx context.Context, sessionID string) ([]*store.Message, error) {
	if _, err := d.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := d.pool.Query(ctx,
		`SELECT id, session_id, role, content, feedback, created_at FROM chat_messages
		 WHERE session_id = $1 ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var (
			m        store.Message
			role     string
			feedback *string
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &feedback, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = store.Role(role)
		if feedback != nil {
			m.Feedback = store.Feedback(*feedback)
		}
		messages = append(messages, &m)
	}

	return messages, rows.Err()
}

func (d *Driver) UpdateMessageFeedback(ctx context.Context, messageID string, feedback store.Feedback) error {
	tag, err := d.pool.Exec(ctx,
		`UPDATE chat_messages SET feedback = $1 WHERE id = $2`, string(feedback), messageID)
	if err != nil {
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound{Entity: "message", ID: messageID}
	}

	return nil
}

func (d *Driver) Close() error {
	d.pool.Close()
	return nil
}

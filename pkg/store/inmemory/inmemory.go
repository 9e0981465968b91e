// Package inmemory provides a map-backed store for tests and local runs.
// Nothing survives process exit.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/recaplabs/recap/pkg/store"
)

// Store implements store.Store with in-process maps.
type Store struct {
	mu          sync.RWMutex
	transcripts map[string]*store.Transcript
	sessions    map[string]*store.Session
	messages    map[string]*store.Message
	seq         map[string]int
	nextSeq     int
}

var _ store.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		transcripts: make(map[string]*store.Transcript),
		sessions:    make(map[string]*store.Session),
		messages:    make(map[string]*store.Message),
		seq:         make(map[string]int),
	}
}

func (s *Store) CreateTranscript(_ context.Context, t *store.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *t
	s.transcripts[t.ID] = &cp

	return nil
}

func (s *Store) GetTranscript(_ context.Context, id string) (*store.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transcripts[id]
	if !ok {
		return nil, store.ErrNotFound{Entity: "transcript", ID: id}
	}

	cp := *t

	return &cp, nil
}

func (s *Store) DeleteTranscript(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transcripts[id]; !ok {
		return store.ErrNotFound{Entity: "transcript", ID: id}
	}

	delete(s.transcripts, id)

	for sid, sess := range s.sessions {
		if sess.TranscriptID != id {
			continue
		}

		delete(s.sessions, sid)

		for mid, msg := range s.messages {
			if msg.SessionID == sid {
				delete(s.messages, mid)
				delete(s.seq, mid)
			}
		}
	}

	return nil
}

func (s *Store) CreateSession(_ context.Context, sess *store.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transcripts[sess.TranscriptID]; !ok {
		return store.ErrNotFound{Entity: "transcript", ID: sess.TranscriptID}
	}

	cp := *sess
	s.sessions[sess.ID] = &cp

	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (*store.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, store.ErrNotFound{Entity: "session", ID: id}
	}

	cp := *sess

	return &cp, nil
}

func (s *Store) ListSessions(_ context.Context) ([]*store.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*store.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		cp := *sess
		sessions = append(sessions, &cp)
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID > sessions[j].ID
		}

		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	return sessions, nil
}

func (s *Store) AddMessage(_ context.Context, m *store.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[m.SessionID]; !ok {
		return store.ErrNotFound{Entity: "session", ID: m.SessionID}
	}

	cp := *m
	s.messages[m.ID] = &cp
	s.seq[m.ID] = s.nextSeq
	s.nextSeq++

	return nil
}

func (s *Store) ListMessages(_ context.Context, sessionID string) ([]*store.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, store.ErrNotFound{Entity: "session", ID: sessionID}
	}

	messages := make([]*store.Message, 0)
	for _, m := range s.messages {
		if m.SessionID == sessionID {
			cp := *m
			messages = append(messages, &cp)
		}
	}

	sort.Slice(messages, func(i, j int) bool {
		return s.seq[messages[i].ID] < s.seq[messages[j].ID]
	})

	return messages, nil
}

func (s *Store) UpdateMessageFeedback(_ context.Context, messageID string, feedback store.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[messageID]
	if !ok {
		return store.ErrNotFound{Entity: "message", ID: messageID}
	}

	m.Feedback = feedback

	return nil
}

func (s *Store) Close() error {
	return nil
}

package conversation

import (
	"context"
	"sync"

	"denticare/models"
)

// MemorySessionStore is an in-process SessionStore for tests and for running
// without Redis.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.ConversationSession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]models.ConversationSession)}
}

func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*models.ConversationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	clone := session
	clone.Fields = copyFields(session.Fields)
	return &clone, nil
}

func (s *MemorySessionStore) Put(_ context.Context, session *models.ConversationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *session
	clone.Fields = copyFields(session.Fields)
	s.sessions[session.SessionID] = clone
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemorySessionStore) All(_ context.Context) ([]models.ConversationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ConversationSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		clone := session
		clone.Fields = copyFields(session.Fields)
		out = append(out, clone)
	}
	return out, nil
}

func copyFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

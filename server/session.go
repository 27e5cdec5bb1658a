package server

import (
	"sync"

	"github.com/mweint/ragger/model"
)

// SessionStore keeps bounded per-session conversation history in memory.
// The pipeline only reads history; the store owns all mutation.
type SessionStore struct {
	mu       sync.Mutex
	maxTurns int
	sessions map[string][]model.Turn
}

// NewSessionStore creates a store keeping at most maxTurns turns per session,
// oldest dropped first.
func NewSessionStore(maxTurns int) *SessionStore {
	if maxTurns <= 0 {
		maxTurns = DefaultConfig().HistoryTurns
	}
	return &SessionStore{
		maxTurns: maxTurns,
		sessions: map[string][]model.Turn{},
	}
}

// History returns a copy of the session's turns, oldest first. An unknown
// session has empty history.
func (s *SessionStore) History(sessionID string) []model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.sessions[sessionID]
	history := make([]model.Turn, len(turns))
	copy(history, turns)
	return history
}

// Append records a completed turn for the session, dropping the oldest turn
// once the bound is reached.
func (s *SessionStore) Append(sessionID string, turn model.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.sessions[sessionID], turn)
	if len(turns) > s.maxTurns {
		turns = turns[len(turns)-s.maxTurns:]
	}
	s.sessions[sessionID] = turns
}

// Sessions returns the number of tracked sessions.
func (s *SessionStore) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

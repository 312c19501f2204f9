package engine

import "sync"

// Registry holds the active sessions of a process. Sessions are inserted by
// Start and never removed.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}}
}

// Get returns the session with id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Insert adds s unless a session with the same id exists. It returns the
// registered session and whether s was inserted.
func (r *Registry) Insert(s *Session) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[s.id]; ok {
		return existing, false
	}
	r.sessions[s.id] = s
	return s, true
}

// ForUser returns the sessions owned by the user.
func (r *Registry) ForUser(userID int64) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Session
	for _, s := range r.sessions {
		if u, ok := s.account.(User); ok && u.ID == userID {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

package session

import "sync"

// Registry is a process-scoped, explicitly constructed service — never a
// package-level singleton — holding every session not yet Closed. It's
// passed explicitly to whatever wires up the signaling handlers.
type Registry struct {
	mu    sync.Mutex
	index map[string]*Session
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]*Session)}
}

func (r *Registry) insert(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index[s.ID] = s
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.index, id)
}

// Get looks up a session by id; ok is false once it's Closed or never
// existed.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.index[id]
	return s, ok
}

// Len reports the count of registered (non-Closed) sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.index)
}

// Package session tracks logged-in sessions and watches their validity
// against the external system of record.
package session

import (
	"context"
	"sync"
)

// Session is one logged-in user. SheetToken is the upstream session token
// issued by the system of record; ID is the local token identifier embedded
// in the JWT.
type Session struct {
	ID         string
	Email      string
	Name       string
	Role       string
	SheetToken string

	cancel context.CancelFunc
}

// Registry is the set of live sessions. A revoked session disappears from the
// registry, which both invalidates its JWT at the middleware and cancels its
// monitor.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}}
}

// Add registers a session and returns a context the session's background
// work (the validity monitor) must run under; revoking the session cancels it.
func (r *Registry) Add(s *Session) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return ctx
}

// Get looks up a live session by ID.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Revoke drops a session and cancels its monitor. Safe to call twice.
func (r *Registry) Revoke(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if ok && s.cancel != nil {
		s.cancel()
	}
}

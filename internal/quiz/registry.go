package quiz

import "sync"

// Registry holds the live Controller for each logged-in user. One controller
// per user: starting a new quiz replaces the previous attempt inside the same
// controller, and logout drops the controller entirely.
type Registry struct {
	mu          sync.RWMutex
	controllers map[string]*Controller
}

func NewRegistry() *Registry {
	return &Registry{controllers: map[string]*Controller{}}
}

// Get returns the controller for a user, if any.
func (r *Registry) Get(email string) (*Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.controllers[email]
	return c, ok
}

// GetOrCreate returns the user's controller, creating it on first use.
func (r *Registry) GetOrCreate(email string, create func() *Controller) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.controllers[email]; ok {
		return c
	}
	c := create()
	r.controllers[email] = c
	return c
}

// Drop removes a user's controller, suspending its elapsed-time tick.
func (r *Registry) Drop(email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.controllers[email]; ok {
		c.mu.Lock()
		c.suspendTickLocked()
		c.mu.Unlock()
		delete(r.controllers, email)
	}
}

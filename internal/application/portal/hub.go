package portal

import "sync"

// Hub maps browser-session tokens to their controllers. Controllers are
// created at sign-in (or session restore) and closed at logout or session
// expiry.
type Hub struct {
	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{controllers: make(map[string]*Controller)}
}

// Put registers a controller under a token, closing any controller it
// displaces.
func (h *Hub) Put(token string, c *Controller) {
	h.mu.Lock()
	old := h.controllers[token]
	h.controllers[token] = c
	h.mu.Unlock()
	if old != nil && old != c {
		old.Close()
	}
}

// Get returns the controller for a token, or nil.
func (h *Hub) Get(token string) *Controller {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.controllers[token]
}

// Remove tears down the controller for a token, releasing its
// session-change subscription.
func (h *Hub) Remove(token string) {
	h.mu.Lock()
	c := h.controllers[token]
	delete(h.controllers, token)
	h.mu.Unlock()
	if c != nil {
		c.Close()
	}
}

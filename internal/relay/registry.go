package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registry maps client names to live connections.  Register, Unregister
// and Forward each run as one step under mu, so a forward never lands in
// a handle that has already been unregistered.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Register binds c under its name.  If another client held the name it is
// returned; it is not notified and stays connected but unreachable.
func (r *Registry) Register(c *Client) (replaced *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	replaced = r.clients[c.name]
	r.clients[c.name] = c
	if replaced == c {
		return nil
	}
	return replaced
}

// Unregister removes c if its name still maps to c.  A client that was
// replaced by a newer registration leaves the newer one in place.
func (r *Registry) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clients[c.name] != c {
		return false
	}
	delete(r.clients, c.name)
	return true
}

// Forward delivers msg from sender to the client registered as to.
func (r *Registry) Forward(from, to string, msg json.RawMessage) error {
	frame, err := encodeDelivery(from, msg)
	if err != nil {
		return fmt.Errorf("encode delivery: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[to]
	if !ok {
		return ErrRecipientNotFound
	}
	if err := c.enqueue(frame); err != nil {
		if errors.Is(err, errQueueFull) {
			return ErrRecipientBusy
		}
		return ErrRecipientNotFound
	}
	return nil
}

func (r *Registry) Lookup(name string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[name]
	return c, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.clients))
	for n := range r.clients {
		out = append(out, n)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

package server

import (
	"maps"
	"slices"
	"sync"
)

// Registry maps usernames to their active connection. It is the only shared
// mutable state of the realtime layer. No method sends on a channel or
// performs I/O while holding the lock.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
	}
}

// Register maps username to c, replacing any existing entry. The replaced
// client, if any, is returned so the caller can close it.
func (r *Registry) Register(username string, c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.clients[username]
	r.clients[username] = c
	if prev == c {
		return nil
	}
	return prev
}

func (r *Registry) Lookup(username string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[username]
	return c, ok
}

// Remove deletes the entry for username. Removing an absent key is a no-op.
func (r *Registry) Remove(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.clients, username)
}

// Release deletes the entry for username only if it still points at c and
// reports whether it did.
func (r *Registry) Release(username string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.clients[username]; ok && cur == c {
		delete(r.clients, username)
		return true
	}
	return false
}

// Snapshot returns the sorted usernames currently registered.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.clients))
}

// Clients returns the registered clients except skip.
func (r *Registry) Clients(skip *Client) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		if c == skip {
			continue
		}
		clients = append(clients, c)
	}
	return clients
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.clients)
}

// Package server keeps the live collection of connected participants.
package server

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Registry is the single source of truth for membership and display names.
// Every mutation happens on the hub goroutine; the lock only makes snapshots
// safe for concurrent readers such as HTTP handlers.
type Registry struct {
	mu          sync.RWMutex
	clients     map[Conn]*Client
	broadcaster *Broadcaster
	newClient   func(Conn) *Client
	log         *slog.Logger
}

// NewRegistry creates an empty registry. newClient builds the entry for an
// inserted connection; nil uses NewClient with per-read framing and no limit.
func NewRegistry(broadcaster *Broadcaster, newClient func(Conn) *Client, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	if broadcaster == nil {
		broadcaster = NewBroadcaster(log)
	}
	if newClient == nil {
		newClient = func(conn Conn) *Client { return NewClient(conn, nil, nil) }
	}
	return &Registry{
		clients:     make(map[Conn]*Client),
		broadcaster: broadcaster,
		newClient:   newClient,
		log:         log,
	}
}

// Insert registers conn under the default name.
func (r *Registry) Insert(conn Conn) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.clients[conn]; ok {
		return existing, ErrAlreadyRegistered
	}
	client := r.newClient(conn)
	r.clients[conn] = client
	return client, nil
}

// Clients returns a snapshot of the current members in unspecified order.
// Removing an entry while walking the snapshot does not affect other entries.
func (r *Registry) Clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.clients)
}

// Get looks up the entry for conn.
func (r *Registry) Get(conn Conn) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[conn]
	return c, ok
}

// Contains reports whether conn is registered.
func (r *Registry) Contains(conn Conn) bool {
	_, ok := r.Get(conn)
	return ok
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Broadcast sends text to the current members, see Broadcaster.Broadcast.
func (r *Registry) Broadcast(exclude Conn, text string, includeExcluded bool) int {
	return r.broadcaster.Broadcast(r.Clients(), exclude, text, includeExcluded)
}

// Remove announces the departure of conn to every other member, then closes
// the connection and deletes the entry. Unknown connections are ignored.
func (r *Registry) Remove(conn Conn) bool {
	client, ok := r.Get(conn)
	if !ok {
		return false
	}

	notice := fmt.Sprintf("User %s has disconnected.", client.name)
	r.log.Info("Broadcasting disconnect message", "session", client.id, "message", notice)
	r.Broadcast(conn, notice, false)

	r.mu.Lock()
	delete(r.clients, conn)
	err := conn.Close()
	remaining := len(r.clients)
	r.mu.Unlock()

	if err != nil && !isExpectedCloseError(err) {
		r.log.Warn("Error closing client connection", "session", client.id, "addr", client.addr, "error", err)
	}
	r.log.Info("Client removed", "session", client.id, "addr", client.addr, "remaining", remaining)
	return true
}

// Rename truncates newName, stores it and returns the previous and stored names.
func (r *Registry) Rename(conn Conn, newName string) (previous, stored string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.clients[conn]
	if !ok {
		return "", "", false
	}
	previous = client.name
	client.name = truncateName(newName)
	return previous, client.name, true
}

// Roster returns the participants sorted by name then address.
func (r *Registry) Roster() []Participant {
	r.mu.RLock()
	roster := lo.MapToSlice(r.clients, func(_ Conn, c *Client) Participant {
		return Participant{ID: c.id.String(), Name: c.name, Addr: c.addr}
	})
	r.mu.RUnlock()

	sort.Slice(roster, func(i, j int) bool {
		if roster[i].Name != roster[j].Name {
			return roster[i].Name < roster[j].Name
		}
		return roster[i].Addr < roster[j].Addr
	})
	return roster
}

// CloseAll sends notice (when not empty) to every member, closes every
// connection exactly once and empties the registry. It returns how many
// clients were closed.
func (r *Registry) CloseAll(notice string) int {
	if notice != "" {
		r.Broadcast(nil, notice, true)
	}

	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[Conn]*Client)
	r.mu.Unlock()

	for conn, client := range clients {
		if err := conn.Close(); err != nil && !isExpectedCloseError(err) {
			r.log.Warn("Error closing client connection", "session", client.id, "addr", client.addr, "error", err)
		}
	}
	return len(clients)
}

package controllers

import (
	"sync"

	"github.com/questdeck/questdeck/internal/domain"
)

// ConnectionHeader carries the client's connection id on session calls.
const ConnectionHeader = "X-Connection-ID"

// ConnectionRegistry owns the per-connection contexts on behalf of the
// transport layer. The core components hold no per-connection state;
// they only ever see a context passed by reference.
type ConnectionRegistry struct {
	mu          sync.Mutex
	connections map[string]*domain.ConnectionContext
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		connections: map[string]*domain.ConnectionContext{},
	}
}

// GetOrCreate returns the context for id, minting a fresh one (with a
// generated connection id) when id is empty or unknown.
func (r *ConnectionRegistry) GetOrCreate(id string) *domain.ConnectionContext {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" {
		if conn, ok := r.connections[id]; ok {
			return conn
		}
	}

	conn := domain.NewConnectionContext()
	if id != "" {
		conn.ConnectionID = id
	}
	r.connections[conn.ConnectionID] = conn

	return conn
}

// Remove drops a connection context after a disconnect.
func (r *ConnectionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.connections, id)
}

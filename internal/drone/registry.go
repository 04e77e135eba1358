package drone

import (
	"sort"
	"sync"
)

// Registry owns the set of managed vehicle connections, keyed by the
// dashboard's drone id.
type Registry struct {
	mu    sync.RWMutex
	conns map[int]*Connection
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[int]*Connection)}
}

// Put registers a connection under its id, replacing any previous
// entry.
func (r *Registry) Put(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID] = conn
}

// Get returns the connection for id.
func (r *Registry) Get(id int) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	return conn, ok
}

// Remove deletes and returns the connection for id.
func (r *Registry) Remove(id int) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	return conn, ok
}

// List returns all connections ordered by id.
func (r *Registry) List() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CloseAll removes every connection and disconnects it; the registry is
// empty afterwards.
func (r *Registry) CloseAll() {
	for _, conn := range r.List() {
		r.Remove(conn.ID)
		if conn.Connected() {
			conn.Disconnect()
		}
	}
}

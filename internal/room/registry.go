// Package room owns the registry of collaboration rooms. A room pairs a
// key with one project tree and lives for the process lifetime; there is
// no eviction.
package room

import (
	"sync"

	"github.com/juliacode/collab-server/internal/metrics"
	"github.com/juliacode/collab-server/internal/project"
)

// Room is one collaboration session. The tree is guarded by the room's
// mutex: every mutation and every read that must see a consistent tree
// (snapshots, canonical hashing) happens inside Update or View.
type Room struct {
	Key string

	mu       sync.Mutex
	tree     *project.Tree
	revision uint64
}

// Update runs fn with exclusive ownership of the tree. The room's
// revision is bumped only when fn succeeds.
func (r *Room) Update(fn func(*project.Tree) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := fn(r.tree); err != nil {
		return err
	}
	r.revision++
	return nil
}

// View runs fn with the tree held for reading. fn must not mutate.
func (r *Room) View(fn func(*project.Tree)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.tree)
}

// Revision returns the number of successful mutations applied so far.
func (r *Room) Revision() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revision
}

// Registry maps room keys to rooms, creating them lazily. It is safe for
// concurrent use and is injected into the protocol handler rather than
// living as a package global.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room for key, seeding a new one with the
// default tree on first use. Concurrent calls for the same key all
// receive the same room.
func (g *Registry) GetOrCreate(key string) *Room {
	g.mu.RLock()
	r, ok := g.rooms[key]
	g.mu.RUnlock()
	if ok {
		return r
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.rooms[key]; ok {
		return r
	}
	r = &Room{Key: key, tree: project.NewTree()}
	g.rooms[key] = r
	metrics.SetRoomsActive(len(g.rooms))
	return r
}

// Get returns the room for key without creating one. Handlers that must
// not spuriously create rooms from malformed events use this.
func (g *Registry) Get(key string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[key]
	return r, ok
}

// Count returns the number of live rooms.
func (g *Registry) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// Package events fans encoded protocol frames out to room members.
package events

import (
	"sync"

	"github.com/juliacode/collab-server/internal/metrics"
)

// Subscriber is one connected client's outbound frame queue. Frames are
// already encoded; the owning connection drains C and writes to the wire.
type Subscriber struct {
	ID string

	ch   chan []byte
	once sync.Once
}

// NewSubscriber creates a subscriber with a buffered queue.
func NewSubscriber(id string) *Subscriber {
	return &Subscriber{ID: id, ch: make(chan []byte, 64)}
}

// C returns the subscriber's frame channel. It is closed on Unsubscribe.
func (s *Subscriber) C() <-chan []byte {
	return s.ch
}

// Send queues a frame for this subscriber alone. Non-blocking: drops the
// frame for a slow consumer.
func (s *Subscriber) Send(frame []byte) {
	select {
	case s.ch <- frame:
	default:
		// Drop frame for slow consumer
	}
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// Broadcaster tracks which subscribers belong to which room and
// publishes frames to them. A subscriber belongs to at most one room.
type Broadcaster struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Subscriber]struct{}
	current map[*Subscriber]string
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		rooms:   make(map[string]map[*Subscriber]struct{}),
		current: make(map[*Subscriber]string),
	}
}

// Join adds s to the room's member set, leaving any previous room first.
func (b *Broadcaster) Join(roomKey string, s *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.leaveLocked(s)
	members, ok := b.rooms[roomKey]
	if !ok {
		members = make(map[*Subscriber]struct{})
		b.rooms[roomKey] = members
	}
	members[s] = struct{}{}
	b.current[s] = roomKey
}

// Unsubscribe removes s from its room, if any, and closes its channel.
func (b *Broadcaster) Unsubscribe(s *Subscriber) {
	b.mu.Lock()
	b.leaveLocked(s)
	b.mu.Unlock()
	s.close()
}

func (b *Broadcaster) leaveLocked(s *Subscriber) {
	key, ok := b.current[s]
	if !ok {
		return
	}
	delete(b.current, s)
	if members, ok := b.rooms[key]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(b.rooms, key)
		}
	}
}

// RoomOf returns the room s currently belongs to.
func (b *Broadcaster) RoomOf(s *Subscriber) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	key, ok := b.current[s]
	return key, ok
}

// Broadcast queues a frame for every member of the room.
func (b *Broadcaster) Broadcast(roomKey string, event string, frame []byte) {
	b.broadcast(roomKey, nil, event, frame)
}

// BroadcastExcept queues a frame for every member of the room but except.
func (b *Broadcaster) BroadcastExcept(roomKey string, except *Subscriber, event string, frame []byte) {
	b.broadcast(roomKey, except, event, frame)
}

func (b *Broadcaster) broadcast(roomKey string, except *Subscriber, event string, frame []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.rooms[roomKey] {
		if s == except {
			continue
		}
		s.Send(frame)
	}
	metrics.RecordBroadcast(event)
}

// Count returns the number of members in the room.
func (b *Broadcaster) Count(roomKey string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms[roomKey])
}

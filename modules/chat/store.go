package chat

import (
	"sort"
	"sync"

	domain "github.com/example/preschool-chat/domain/chat"
)

// RoomWriter appends messages to capped rooms.
type RoomWriter interface {
	Append(room string, msg domain.Message, capacity int) error
}

// RoomStats is a snapshot of one room's size.
type RoomStats struct {
	Room  string `json:"room"`
	Count int    `json:"count"`
}

// roomLog is the message sequence of one room.
type roomLog struct {
	mu       sync.Mutex
	messages []domain.Message
}

// RoomStore provides thread-safe, per-room bounded message storage.
// The map lock only guards room creation and lookup; each room has its
// own lock so appends to different rooms do not contend.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*roomLog
}

// NewRoomStore creates an empty room store.
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*roomLog),
	}
}

func (s *RoomStore) room(key string, create bool) *roomLog {
	s.mu.RLock()
	r, ok := s.rooms[key]
	s.mu.RUnlock()
	if ok || !create {
		return r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok = s.rooms[key]; ok {
		return r
	}
	r = &roomLog{messages: make([]domain.Message, 0)}
	s.rooms[key] = r
	return r
}

// Append adds msg to room, creating the room if needed, and drops the
// oldest messages once the room holds more than capacity. A capacity of
// zero or less keeps every message.
func (s *RoomStore) Append(room string, msg domain.Message, capacity int) error {
	r := s.room(room, true)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = append(r.messages, msg)
	if capacity > 0 && len(r.messages) > capacity {
		// Shift in place so the backing array does not grow without bound.
		n := copy(r.messages, r.messages[len(r.messages)-capacity:])
		clear(r.messages[n:])
		r.messages = r.messages[:n]
	}
	return nil
}

// List returns a copy of the room's messages in insertion order. Unknown
// rooms yield an empty slice.
func (s *RoomStore) List(room string) []domain.Message {
	r := s.room(room, false)
	if r == nil {
		return []domain.Message{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.Message, len(r.messages))
	copy(result, r.messages)
	return result
}

// Len returns the number of messages held for room.
func (s *RoomStore) Len(room string) int {
	r := s.room(room, false)
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

// Rooms returns the size of every room, sorted by key.
func (s *RoomStore) Rooms() []RoomStats {
	s.mu.RLock()
	keys := make([]string, 0, len(s.rooms))
	for key := range s.rooms {
		keys = append(keys, key)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	stats := make([]RoomStats, 0, len(keys))
	for _, key := range keys {
		stats = append(stats, RoomStats{Room: key, Count: s.Len(key)})
	}
	return stats
}

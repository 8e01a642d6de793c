package chat

import (
	"errors"
	"fmt"

	domain "github.com/example/preschool-chat/domain/chat"
)

// Fanout copies one message into a fixed set of rooms.
//
// Delivery is best-effort: a room that fails to accept its copy does not
// stop the remaining rooms. The returned slice holds the copies that were
// stored and the error joins every per-room failure.
type Fanout struct {
	writer RoomWriter
}

// NewFanout creates a Fanout writing through w.
func NewFanout(w RoomWriter) *Fanout {
	return &Fanout{writer: w}
}

// Broadcast stores a copy of msg in each room with the given capacity.
func (f *Fanout) Broadcast(msg domain.Message, rooms []string, capacity int) ([]domain.Message, error) {
	stored := make([]domain.Message, 0, len(rooms))
	var errs []error
	for _, room := range rooms {
		copyMsg := msg.InRoom(room)
		if err := f.writer.Append(room, copyMsg, capacity); err != nil {
			errs = append(errs, fmt.Errorf("room %s: %w", room, err))
			continue
		}
		stored = append(stored, copyMsg)
	}
	return stored, errors.Join(errs...)
}

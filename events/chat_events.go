package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// MessageStoredEvent is emitted once for every room a message was
// written to. Emergency broadcasts emit one event per staff room.
type MessageStoredEvent struct {
	MessageID  int64     `json:"message_id"`
	Room       string    `json:"room"`
	Kind       string    `json:"kind"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	TargetID   string    `json:"target_id,omitempty"`
	Text       string    `json:"text"`
	Urgent     bool      `json:"urgent"`
	CreatedAt  time.Time `json:"created_at"`
}

// EmergencyBroadcastEvent is emitted after an emergency message fanned
// out to the staff rooms.
type EmergencyBroadcastEvent struct {
	MessageID  int64     `json:"message_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Rooms      []string  `json:"rooms"`
	Failed     []string  `json:"failed,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Event definitions for the chat domain.
var (
	MessageStoredV1 = helper.EventDefinition[MessageStoredEvent](
		"chat",
		"MessageStored",
		"v1",
	)

	EmergencyBroadcastV1 = helper.EventDefinition[EmergencyBroadcastEvent](
		"chat",
		"EmergencyBroadcast",
		"v1",
	)
)

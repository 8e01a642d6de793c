package chat

import (
	"fmt"
	"strings"
	"time"
)

// Kind selects how a message is routed to rooms.
type Kind string

// Message kinds.
const (
	KindNormal       Kind = "normal"
	KindDirect       Kind = "direct"
	KindAnnouncement Kind = "announcement"
	KindStaff        Kind = "staff"
	KindEmergency    Kind = "emergency"
)

// ParseKind converts a wire value into a Kind. An empty value is a normal
// room message.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindNormal, nil
	case KindNormal, KindDirect, KindAnnouncement, KindStaff, KindEmergency:
		return k, nil
	default:
		return "", &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown message kind %q", s)}
	}
}

// Author identifies who wrote a message.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Message is a single chat message. Messages are never edited once
// stored; fan-out stores one copy per room.
type Message struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Author    Author    `json:"author"`
	Room      string    `json:"room"`
	Kind      Kind      `json:"kind"`
	Urgent    bool      `json:"urgent"`
	TargetID  string    `json:"targetId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// InRoom returns a copy of the message addressed to room.
func (m Message) InRoom(room string) Message {
	m.Room = room
	return m
}

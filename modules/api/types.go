package api

import (
	domain "github.com/example/preschool-chat/domain/chat"
	"github.com/example/preschool-chat/modules/chat"
	"github.com/example/preschool-chat/modules/directory"
)

// SendBody is the body of POST /chat/send and /staff-chat/send. The
// second name of each pair is the field name used by the chat pages.
type SendBody struct {
	Text         string `json:"text"`
	Message      string `json:"message"`
	AuthorID     string `json:"authorId"`
	UserID       string `json:"userId"`
	AuthorName   string `json:"authorName"`
	UserName     string `json:"userName"`
	Kind         string `json:"kind"`
	MessageType  string `json:"messageType"`
	Room         string `json:"room"`
	TargetID     string `json:"targetId"`
	TargetUserID string `json:"targetUserId"`
	Urgent       bool   `json:"urgent"`
}

// toRequest resolves the aliases. defaultKind applies when neither kind
// nor messageType is set.
func (b SendBody) toRequest(defaultKind domain.Kind) chat.SendRequest {
	kind := domain.Kind(firstNonEmpty(b.Kind, b.MessageType))
	if kind == "" {
		kind = defaultKind
	}
	return chat.SendRequest{
		Text:       firstNonEmpty(b.Text, b.Message),
		AuthorID:   firstNonEmpty(b.AuthorID, b.UserID),
		AuthorName: firstNonEmpty(b.AuthorName, b.UserName),
		Kind:       kind,
		Room:       b.Room,
		TargetID:   firstNonEmpty(b.TargetID, b.TargetUserID),
		Urgent:     b.Urgent,
	}
}

// BroadcastBody is the body of POST /staff-chat/broadcast.
type BroadcastBody struct {
	Text       string `json:"text"`
	Message    string `json:"message"`
	AuthorID   string `json:"authorId"`
	UserID     string `json:"userId"`
	AuthorName string `json:"authorName"`
	UserName   string `json:"userName"`
}

func (b BroadcastBody) toRequest() chat.BroadcastRequest {
	return chat.BroadcastRequest{
		Text:       firstNonEmpty(b.Text, b.Message),
		AuthorID:   firstNonEmpty(b.AuthorID, b.UserID),
		AuthorName: firstNonEmpty(b.AuthorName, b.UserName),
	}
}

// AdminInfoBody is the body of POST /api/admin-info.
type AdminInfoBody struct {
	AdminID string `json:"adminId"`
}

// SendResponse confirms a stored message.
type SendResponse struct {
	OK      bool           `json:"ok"`
	Message domain.Message `json:"message"`
}

// BroadcastResponse confirms an emergency fan-out.
type BroadcastResponse struct {
	OK      bool           `json:"ok"`
	Message domain.Message `json:"message"`
	Rooms   []string       `json:"rooms"`
	Failed  []string       `json:"failed,omitempty"`
}

// MessagesResponse lists the messages of one room or conversation.
type MessagesResponse struct {
	OK       bool             `json:"ok,omitempty"`
	Messages []domain.Message `json:"messages"`
}

// AdminsResponse lists the staff accounts.
type AdminsResponse struct {
	Admins []directory.StaffMember `json:"admins"`
}

// StaffResponse carries one staff profile.
type StaffResponse struct {
	OK    bool                   `json:"ok"`
	Staff *directory.StaffMember `json:"staff"`
}

// RoomsResponse lists room sizes.
type RoomsResponse struct {
	Rooms []chat.RoomStats `json:"rooms"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// WSCommand is a command sent by a WebSocket client.
type WSCommand struct {
	Type   string `json:"type"`
	Room   string `json:"room,omitempty"`
	Target string `json:"target,omitempty"`
}

// WebSocket command types.
const (
	WSSubscribe       = "subscribe"
	WSSubscribeDirect = "subscribe_direct"
)

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

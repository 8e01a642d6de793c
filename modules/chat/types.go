package chat

import (
	"strings"
	"unicode/utf8"

	domain "github.com/example/preschool-chat/domain/chat"
)

// Validation constants
const (
	MaxAuthorNameLength = 100
	MaxRoomNameLength   = 100
	MaxMessageLength    = 5000
)

// ValidateMessage validates message text.
func ValidateMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return &domain.ValidationError{Field: "text", Reason: "text is required"}
	}
	if len(text) > MaxMessageLength {
		return &domain.ValidationError{Field: "text", Reason: "text exceeds maximum length"}
	}
	if !utf8.ValidString(text) {
		return &domain.ValidationError{Field: "text", Reason: "text contains invalid characters"}
	}
	return nil
}

// ValidateAuthor validates the author fields filled in by the login layer.
func ValidateAuthor(id, name string) error {
	if strings.TrimSpace(id) == "" {
		return &domain.ValidationError{Field: "authorId", Reason: "authorId is required"}
	}
	if strings.TrimSpace(name) == "" {
		return &domain.ValidationError{Field: "authorName", Reason: "authorName is required"}
	}
	if len(name) > MaxAuthorNameLength {
		return &domain.ValidationError{Field: "authorName", Reason: "authorName exceeds maximum length"}
	}
	if !utf8.ValidString(name) {
		return &domain.ValidationError{Field: "authorName", Reason: "authorName contains invalid characters"}
	}
	return nil
}

// ValidateRoomName validates a named room key.
func ValidateRoomName(room string) error {
	if len(room) > MaxRoomNameLength {
		return &domain.ValidationError{Field: "room", Reason: "room exceeds maximum length"}
	}
	if !utf8.ValidString(room) {
		return &domain.ValidationError{Field: "room", Reason: "room contains invalid characters"}
	}
	if domain.IsDirectRoom(room) {
		return &domain.ValidationError{Field: "room", Reason: "direct rooms are addressed with targetId"}
	}
	return nil
}

// SendRequest is the request for the send service.
type SendRequest struct {
	Text       string      `json:"text"`
	AuthorID   string      `json:"authorId"`
	AuthorName string      `json:"authorName"`
	Kind       domain.Kind `json:"kind"`
	Room       string      `json:"room,omitempty"`
	TargetID   string      `json:"targetId,omitempty"`
	Urgent     bool        `json:"urgent,omitempty"`
}

// BroadcastRequest is the request for the broadcast service.
type BroadcastRequest struct {
	Text       string `json:"text"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
}

// Delivery describes where a sent message was stored. Message is the
// copy in the first room; Rooms lists every room written and Failed the
// fan-out rooms that rejected their copy.
type Delivery struct {
	Message domain.Message `json:"message"`
	Rooms   []string       `json:"rooms"`
	Failed  []string       `json:"failed,omitempty"`
}

// SendResponse is the response of the send and broadcast services.
type SendResponse struct {
	Delivery *Delivery          `json:"delivery,omitempty"`
	Error    *domain.ReplyError `json:"error,omitempty"`
}

// RoomMessagesRequest is the request for the room-messages service.
type RoomMessagesRequest struct {
	Room string `json:"room"`
}

// DirectMessagesRequest is the request for the direct-messages service.
type DirectMessagesRequest struct {
	ParticipantA string `json:"participantA"`
	ParticipantB string `json:"participantB"`
}

// MessagesResponse is the response of the fetch services.
type MessagesResponse struct {
	Messages []domain.Message   `json:"messages"`
	Error    *domain.ReplyError `json:"error,omitempty"`
}

// RoomStatsRequest is the request for the room-stats service.
type RoomStatsRequest struct{}

// RoomStatsResponse lists room sizes.
type RoomStatsResponse struct {
	Rooms []RoomStats `json:"rooms"`
}

package chat

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/preschool-chat/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ChatPort defines the interface for chat operations.
type ChatPort interface {
	Send(ctx context.Context, req SendRequest) (*Delivery, error)
	Broadcast(ctx context.Context, req BroadcastRequest) (*Delivery, error)
	FetchRoom(ctx context.Context, room string) ([]domain.Message, error)
	FetchDirect(ctx context.Context, a, b string) ([]domain.Message, error)
	RoomStats(ctx context.Context) ([]RoomStats, error)
}

// ChatAdapter implements ChatPort using the service container.
type ChatAdapter struct {
	container mono.ServiceContainer
}

// NewChatAdapter creates a new ChatAdapter.
func NewChatAdapter(container mono.ServiceContainer) ChatPort {
	if container == nil {
		panic("chat: ServiceContainer is nil")
	}
	return &ChatAdapter{container: container}
}

// Send stores a message. Validation and not-found failures come back as
// their domain error types.
func (a *ChatAdapter) Send(ctx context.Context, req SendRequest) (*Delivery, error) {
	var resp SendResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceSend,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, &domain.InternalError{Op: "send", Err: fmt.Errorf("failed to send message: %w", err)}
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Delivery, nil
}

// Broadcast fans an emergency message out to every staff room.
func (a *ChatAdapter) Broadcast(ctx context.Context, req BroadcastRequest) (*Delivery, error) {
	var resp SendResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceBroadcast,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, &domain.InternalError{Op: "broadcast", Err: fmt.Errorf("failed to broadcast: %w", err)}
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Delivery, nil
}

// FetchRoom returns the messages of a named room.
func (a *ChatAdapter) FetchRoom(ctx context.Context, room string) ([]domain.Message, error) {
	req := RoomMessagesRequest{Room: room}
	var resp MessagesResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRoomMessages,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, &domain.InternalError{Op: "fetch room", Err: fmt.Errorf("failed to get messages: %w", err)}
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return nonNil(resp.Messages), nil
}

// FetchDirect returns the direct conversation between a and b.
func (a *ChatAdapter) FetchDirect(ctx context.Context, x, y string) ([]domain.Message, error) {
	req := DirectMessagesRequest{ParticipantA: x, ParticipantB: y}
	var resp MessagesResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceDirectMessages,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, &domain.InternalError{Op: "fetch direct", Err: fmt.Errorf("failed to get direct messages: %w", err)}
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return nonNil(resp.Messages), nil
}

// RoomStats returns the size of every room.
func (a *ChatAdapter) RoomStats(ctx context.Context) ([]RoomStats, error) {
	req := RoomStatsRequest{}
	var resp RoomStatsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRoomStats,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, &domain.InternalError{Op: "room stats", Err: fmt.Errorf("failed to get room stats: %w", err)}
	}
	if resp.Rooms == nil {
		return []RoomStats{}, nil
	}
	return resp.Rooms, nil
}

// nonNil keeps an empty history serialized as [] rather than null.
func nonNil(messages []domain.Message) []domain.Message {
	if messages == nil {
		return []domain.Message{}
	}
	return messages
}

package chat

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/preschool-chat/domain/chat"
	"github.com/example/preschool-chat/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Service names registered by the chat module.
const (
	ServiceSend           = "send"
	ServiceBroadcast      = "broadcast"
	ServiceRoomMessages   = "room-messages"
	ServiceDirectMessages = "direct-messages"
	ServiceRoomStats      = "room-stats"
)

// Module owns the room store and exposes the chat service to other
// modules through request-reply services.
type Module struct {
	store    *RoomStore
	service  *Service
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new chat module with a fresh room store.
func NewModule(limits Limits, logger types.Logger) *Module {
	store := NewRoomStore()
	return &Module{
		store:   store,
		service: NewService(store, WithLimits(limits)),
		logger:  logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chat"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageStoredV1.ToBase(),
		events.EmergencyBroadcastV1.ToBase(),
	}
}

// RegisterServices registers the chat request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceSend, json.Unmarshal, json.Marshal, m.handleSend,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSend, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceBroadcast, json.Unmarshal, json.Marshal, m.handleBroadcast,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceBroadcast, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRoomMessages, json.Unmarshal, json.Marshal, m.handleRoomMessages,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRoomMessages, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDirectMessages, json.Unmarshal, json.Marshal, m.handleDirectMessages,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDirectMessages, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRoomStats, json.Unmarshal, json.Marshal, m.handleRoomStats,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRoomStats, err)
	}

	m.logger.Info("Registered chat services",
		"services", []string{ServiceSend, ServiceBroadcast, ServiceRoomMessages, ServiceDirectMessages, ServiceRoomStats})
	return nil
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	if m.eventBus == nil {
		m.logger.Warn("eventBus not set, stored messages will not be pushed")
	}
	m.logger.Info("Chat module started",
		"room_capacity", m.service.limits.Room,
		"direct_capacity", m.service.limits.Direct,
		"staff_capacity", m.service.limits.Staff)
	return nil
}

// Stop gracefully shuts down the module. Messages are not persisted.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Chat module stopped", "rooms", len(m.store.Rooms()))
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	rooms := m.store.Rooms()
	total := 0
	for _, r := range rooms {
		total += r.Count
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"rooms":    len(rooms),
			"messages": total,
		},
	}
}

// Service returns the chat service backing this module.
func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) handleSend(ctx context.Context, req SendRequest, _ *mono.Msg) (SendResponse, error) {
	delivery, err := m.service.Send(ctx, req)
	return m.reply(delivery, err, "send")
}

func (m *Module) handleBroadcast(ctx context.Context, req BroadcastRequest, _ *mono.Msg) (SendResponse, error) {
	delivery, err := m.service.Broadcast(ctx, req)
	return m.reply(delivery, err, "broadcast")
}

func (m *Module) handleRoomMessages(ctx context.Context, req RoomMessagesRequest, _ *mono.Msg) (MessagesResponse, error) {
	messages, err := m.service.FetchRoom(ctx, req.Room)
	if err != nil {
		return MessagesResponse{Messages: []domain.Message{}, Error: domain.NewReplyError(err)}, nil
	}
	return MessagesResponse{Messages: messages}, nil
}

func (m *Module) handleDirectMessages(ctx context.Context, req DirectMessagesRequest, _ *mono.Msg) (MessagesResponse, error) {
	messages, err := m.service.FetchDirect(ctx, req.ParticipantA, req.ParticipantB)
	if err != nil {
		return MessagesResponse{Messages: []domain.Message{}, Error: domain.NewReplyError(err)}, nil
	}
	return MessagesResponse{Messages: messages}, nil
}

func (m *Module) handleRoomStats(_ context.Context, _ RoomStatsRequest, _ *mono.Msg) (RoomStatsResponse, error) {
	return RoomStatsResponse{Rooms: m.service.Stats()}, nil
}

// reply turns a service result into a reply payload. Domain errors travel
// inside the payload so the caller can rebuild their type.
func (m *Module) reply(delivery *Delivery, err error, op string) (SendResponse, error) {
	if err != nil {
		if domain.KindOf(err) == domain.ErrorKindInternal {
			m.logger.Error("Chat operation failed", "op", op, "error", err)
		} else {
			m.logger.Debug("Chat request rejected", "op", op, "reason", err.Error())
		}
		return SendResponse{Error: domain.NewReplyError(err)}, nil
	}

	m.publish(delivery)
	m.logger.Debug("Message stored",
		"op", op,
		"kind", delivery.Message.Kind,
		"rooms", delivery.Rooms,
		"messageID", delivery.Message.ID)
	return SendResponse{Delivery: delivery}, nil
}

// publish emits one MessageStored event per stored copy. Failures are
// logged; the message is already stored and visible to polling clients.
func (m *Module) publish(delivery *Delivery) {
	if m.eventBus == nil {
		return
	}

	for _, room := range delivery.Rooms {
		msg := delivery.Message.InRoom(room)
		event := events.MessageStoredEvent{
			MessageID:  msg.ID,
			Room:       msg.Room,
			Kind:       string(msg.Kind),
			AuthorID:   msg.Author.ID,
			AuthorName: msg.Author.Name,
			TargetID:   msg.TargetID,
			Text:       msg.Text,
			Urgent:     msg.Urgent,
			CreatedAt:  msg.CreatedAt,
		}
		if err := events.MessageStoredV1.Publish(m.eventBus, event, nil); err != nil {
			m.logger.Warn("Failed to publish MessageStored event", "room", room, "error", err)
		}
	}

	if delivery.Message.Kind != domain.KindEmergency {
		return
	}
	event := events.EmergencyBroadcastEvent{
		MessageID:  delivery.Message.ID,
		AuthorID:   delivery.Message.Author.ID,
		AuthorName: delivery.Message.Author.Name,
		Rooms:      delivery.Rooms,
		Failed:     delivery.Failed,
		Timestamp:  delivery.Message.CreatedAt,
	}
	if err := events.EmergencyBroadcastV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Warn("Failed to publish EmergencyBroadcast event", "error", err)
	}
}

package broadcast

import (
	"context"
	"fmt"

	domain "github.com/example/preschool-chat/domain/chat"
	"github.com/example/preschool-chat/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Frame types pushed to WebSocket clients.
const (
	FrameMessage    = "message"
	FrameEmergency  = "emergency"
	FrameSubscribed = "subscribed"
	FrameError      = "error"
)

// Frame is the JSON structure sent to WebSocket clients.
type Frame struct {
	Type    string          `json:"type"`
	Room    string          `json:"room,omitempty"`
	Message *domain.Message `json:"message,omitempty"`
	Rooms   []string        `json:"rooms,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// BroadcastModule pushes stored chat messages to WebSocket clients.
type BroadcastModule struct {
	hub       *Hub
	cancelHub context.CancelFunc
	logger    types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*BroadcastModule)(nil)
var _ mono.EventConsumerModule = (*BroadcastModule)(nil)
var _ mono.HealthCheckableModule = (*BroadcastModule)(nil)

// NewModule creates a new BroadcastModule.
func NewModule(logger types.Logger) *BroadcastModule {
	return &BroadcastModule{
		hub:    NewHub(logger),
		logger: logger,
	}
}

// Name returns the module name.
func (m *BroadcastModule) Name() string {
	return "broadcast"
}

// Start starts the hub loop.
func (m *BroadcastModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	m.logger.Info("Broadcast module started")
	return nil
}

// Stop closes every client and waits for the hub loop to exit.
func (m *BroadcastModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	m.logger.Info("Broadcast module stopped", "clients", clientCount)
	return nil
}

// Health returns the health status.
func (m *BroadcastModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *BroadcastModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageStoredV1, m.handleMessageStored, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageStored consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.EmergencyBroadcastV1, m.handleEmergency, m,
	); err != nil {
		return fmt.Errorf("failed to register EmergencyBroadcast consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", []string{"MessageStored", "EmergencyBroadcast"})
	return nil
}

func (m *BroadcastModule) handleMessageStored(_ context.Context, event events.MessageStoredEvent, _ *mono.Msg) error {
	msg := messageFromEvent(event)
	m.hub.Publish(event.Room, Frame{Type: FrameMessage, Room: event.Room, Message: &msg})
	return nil
}

// handleEmergency alerts every connected client, whatever room it watches.
func (m *BroadcastModule) handleEmergency(_ context.Context, event events.EmergencyBroadcastEvent, _ *mono.Msg) error {
	m.logger.Warn("Emergency broadcast", "author", event.AuthorID, "rooms", event.Rooms, "failed", event.Failed)
	m.hub.Publish("", Frame{Type: FrameEmergency, Rooms: event.Rooms})
	return nil
}

// GetHub returns the WebSocket hub for the API module to use.
func (m *BroadcastModule) GetHub() *Hub {
	return m.hub
}

func messageFromEvent(e events.MessageStoredEvent) domain.Message {
	return domain.Message{
		ID:        e.MessageID,
		Text:      e.Text,
		Author:    domain.Author{ID: e.AuthorID, Name: e.AuthorName},
		Room:      e.Room,
		Kind:      domain.Kind(e.Kind),
		Urgent:    e.Urgent,
		TargetID:  e.TargetID,
		CreatedAt: e.CreatedAt,
	}
}

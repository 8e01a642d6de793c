package broadcast

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
)

// Conn is the part of a WebSocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is a connected participant watching at most one room.
type Client struct {
	ID          string
	Participant string
	Room        string
	Conn        Conn

	writeMu sync.Mutex
}

// Send writes one text frame. Writes are serialized per client because
// the connection does not allow concurrent writers.
func (c *Client) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

// SendJSON marshals v and writes it as one text frame.
func (c *Client) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(data)
}

type publication struct {
	room    string
	payload any
}

// Hub tracks connected clients and pushes frames to the watchers of a
// room.
type Hub struct {
	clients map[string]*Client         // clientID -> Client
	rooms   map[string]map[string]bool // room key -> set of clientIDs
	publish chan publication
	done    chan struct{}
	stopped bool
	mu      sync.RWMutex
	logger  types.Logger
}

// NewHub creates a new Hub.
func NewHub(logger types.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]bool),
		publish: make(chan publication, 256),
		done:    make(chan struct{}),
		logger:  logger,
	}
}

// Run delivers publications until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Hub shutting down", "clients", h.ClientCount())
			h.closeAllClients()
			close(h.done)
			return
		case p := <-h.publish:
			h.handlePublish(p)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// Register adds a client to the hub. It returns false once the hub has
// stopped.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return false
	}
	h.clients[client.ID] = client
	h.join(client, client.Room)
	h.logger.Debug("Client registered", "client", client.ID, "participant", client.Participant, "room", client.Room)
	return true
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	h.leave(client)
	h.logger.Debug("Client unregistered", "client", client.ID, "participant", client.Participant)
}

// Publish queues payload for every client watching room. An empty room
// reaches every connected client.
func (h *Hub) Publish(room string, payload any) {
	select {
	case h.publish <- publication{room: room, payload: payload}:
	case <-h.done:
	}
}

// Subscribe moves a client to room. It returns false for unknown clients.
func (h *Hub) Subscribe(clientID, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return false
	}
	h.leave(client)
	h.join(client, room)
	h.logger.Debug("Client subscribed", "client", clientID, "room", room)
	return true
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of clients watching room.
func (h *Hub) RoomClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopped = true
	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]bool)
}

func (h *Hub) handlePublish(p publication) {
	data, err := json.Marshal(p.payload)
	if err != nil {
		h.logger.Error("Failed to marshal frame", "room", p.room, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0)
	if p.room == "" {
		for _, client := range h.clients {
			targets = append(targets, client)
		}
	} else {
		for clientID := range h.rooms[p.room] {
			if client, ok := h.clients[clientID]; ok {
				targets = append(targets, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if err := client.Send(data); err != nil {
			h.logger.Warn("Failed to push frame", "client", client.ID, "room", p.room, "error", err)
		}
	}
}

// join and leave expect h.mu to be held.
func (h *Hub) join(client *Client, room string) {
	client.Room = room
	if room == "" {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]bool)
	}
	h.rooms[room][client.ID] = true
}

func (h *Hub) leave(client *Client) {
	if client.Room == "" || h.rooms[client.Room] == nil {
		return
	}
	delete(h.rooms[client.Room], client.ID)
	if len(h.rooms[client.Room]) == 0 {
		delete(h.rooms, client.Room)
	}
}

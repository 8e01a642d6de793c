package api

import (
	"encoding/json"
	"sync"
	"time"

	domain "github.com/example/preschool-chat/domain/chat"
	"github.com/example/preschool-chat/modules/broadcast"
	"github.com/example/preschool-chat/modules/chat"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Command rate limiting
const (
	commandsPerSecond = 5
	commandBurst      = 10
)

// tokenBucket limits the commands a single connection may send.
type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
	mu         sync.Mutex
}

func newTokenBucket(maxTokens, refillRate int, now func() time.Time) *tokenBucket {
	if now == nil {
		now = time.Now
	}
	return &tokenBucket{
		tokens:     float64(maxTokens),
		maxTokens:  float64(maxTokens),
		refillRate: float64(refillRate),
		lastRefill: now(),
		now:        now,
	}
}

func (b *tokenBucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// handleWebSocket handles WebSocket connections at /ws. The connection
// only receives pushes; messages are sent over HTTP.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	participant := c.Query("participant")
	room := c.Query("room")
	if room != "" {
		if err := chat.ValidateRoomName(room); err != nil {
			_ = c.WriteJSON(broadcast.Frame{Type: broadcast.FrameError, Error: domain.Reason(err)})
			return
		}
	}

	client := &broadcast.Client{
		ID:          uuid.New().String(),
		Participant: participant,
		Room:        room,
		Conn:        c,
	}
	if !m.hub.Register(client) {
		return
	}
	defer func() {
		m.hub.Unregister(client)
		m.logger.Debug("WebSocket client disconnected", "client", client.ID, "participant", participant)
	}()

	m.logger.Debug("WebSocket client connected", "client", client.ID, "participant", participant, "room", room)
	if err := client.SendJSON(broadcast.Frame{Type: broadcast.FrameSubscribed, Room: room}); err != nil {
		return
	}

	bucket := newTokenBucket(commandBurst, commandsPerSecond, nil)
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Debug("WebSocket read error", "client", client.ID, "error", err)
			}
			return
		}

		reply := broadcast.Frame{Type: broadcast.FrameError, Error: "rate limit exceeded"}
		if bucket.allow() {
			reply = m.handleCommand(client, data)
		}
		if err := client.SendJSON(reply); err != nil {
			return
		}
	}
}

// handleCommand applies one client command and returns the reply frame.
func (m *APIModule) handleCommand(client *broadcast.Client, data []byte) broadcast.Frame {
	var cmd WSCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return broadcast.Frame{Type: broadcast.FrameError, Error: "invalid command format"}
	}

	var room string
	switch cmd.Type {
	case WSSubscribe:
		if cmd.Room == "" {
			return broadcast.Frame{Type: broadcast.FrameError, Error: "room is required"}
		}
		if err := chat.ValidateRoomName(cmd.Room); err != nil {
			return broadcast.Frame{Type: broadcast.FrameError, Error: domain.Reason(err)}
		}
		room = cmd.Room
	case WSSubscribeDirect:
		key, err := domain.DirectRoomKey(client.Participant, cmd.Target)
		if err != nil {
			return broadcast.Frame{Type: broadcast.FrameError, Error: domain.Reason(err)}
		}
		room = key
	default:
		return broadcast.Frame{Type: broadcast.FrameError, Error: "unknown command: " + cmd.Type}
	}

	if !m.hub.Subscribe(client.ID, room) {
		return broadcast.Frame{Type: broadcast.FrameError, Error: "not connected"}
	}
	return broadcast.Frame{Type: broadcast.FrameSubscribed, Room: room}
}

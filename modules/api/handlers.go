package api

import (
	"errors"

	domain "github.com/example/preschool-chat/domain/chat"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(m.handleWebSocket))

	// Parent chat
	chatGroup := app.Group("/chat")
	chatGroup.Post("/send", m.sendMessage)
	chatGroup.Get("/messages/:room", m.roomMessages)
	chatGroup.Get("/direct/:a/:b", m.directMessages)
	chatGroup.Get("/admins", m.listAdmins)
	chatGroup.Get("/rooms", m.listRooms)

	// Staff chat
	staff := app.Group("/staff-chat")
	staff.Post("/send", m.sendStaffMessage)
	staff.Get("/messages", m.staffMessages)
	staff.Post("/broadcast", m.broadcast)

	app.Post("/api/admin-info", m.adminInfo)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	details := map[string]any{"module": "api"}
	if m.hub != nil {
		details["connected_clients"] = m.hub.ClientCount()
	}
	return c.JSON(HealthResponse{
		Status:  "healthy",
		Details: details,
	})
}

// sendMessage handles POST /chat/send.
func (m *APIModule) sendMessage(c *fiber.Ctx) error {
	return m.send(c, domain.KindNormal)
}

// sendStaffMessage handles POST /staff-chat/send.
func (m *APIModule) sendStaffMessage(c *fiber.Ctx) error {
	return m.send(c, domain.KindStaff)
}

func (m *APIModule) send(c *fiber.Ctx, defaultKind domain.Kind) error {
	var body SendBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c)
	}

	delivery, err := m.chat.Send(c.UserContext(), body.toRequest(defaultKind))
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(SendResponse{OK: true, Message: delivery.Message})
}

// roomMessages handles GET /chat/messages/:room.
func (m *APIModule) roomMessages(c *fiber.Ctx) error {
	messages, err := m.chat.FetchRoom(c.UserContext(), c.Params("room"))
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(MessagesResponse{Messages: messages})
}

// directMessages handles GET /chat/direct/:a/:b.
func (m *APIModule) directMessages(c *fiber.Ctx) error {
	messages, err := m.chat.FetchDirect(c.UserContext(), c.Params("a"), c.Params("b"))
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(MessagesResponse{Messages: messages})
}

// staffMessages handles GET /staff-chat/messages?room=.
func (m *APIModule) staffMessages(c *fiber.Ctx) error {
	room := c.Query("room", domain.RoomStaffGeneral)
	messages, err := m.chat.FetchRoom(c.UserContext(), room)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(MessagesResponse{OK: true, Messages: messages})
}

// broadcast handles POST /staff-chat/broadcast.
func (m *APIModule) broadcast(c *fiber.Ctx) error {
	var body BroadcastBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c)
	}

	delivery, err := m.chat.Broadcast(c.UserContext(), body.toRequest())
	if err != nil {
		return m.writeError(c, err)
	}
	if len(delivery.Failed) > 0 {
		m.logger.Warn("Emergency broadcast partially delivered", "failed", delivery.Failed)
	}
	return c.JSON(BroadcastResponse{
		OK:      true,
		Message: delivery.Message,
		Rooms:   delivery.Rooms,
		Failed:  delivery.Failed,
	})
}

// listAdmins handles GET /chat/admins.
func (m *APIModule) listAdmins(c *fiber.Ctx) error {
	admins, err := m.directory.ListAdmins(c.UserContext())
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(AdminsResponse{Admins: admins})
}

// adminInfo handles POST /api/admin-info.
func (m *APIModule) adminInfo(c *fiber.Ctx) error {
	var body AdminInfoBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c)
	}

	staff, err := m.directory.GetStaff(c.UserContext(), body.AdminID)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(StaffResponse{OK: true, Staff: staff})
}

// listRooms handles GET /chat/rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	rooms, err := m.chat.RoomStats(c.UserContext())
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(RoomsResponse{Rooms: rooms})
}

// writeError maps domain errors to HTTP status codes.
func (m *APIModule) writeError(c *fiber.Ctx, err error) error {
	var ve *domain.ValidationError
	var nf *domain.NotFoundError

	status := fiber.StatusInternalServerError
	switch {
	case errors.As(err, &ve):
		status = fiber.StatusBadRequest
	case errors.As(err, &nf):
		status = fiber.StatusNotFound
	default:
		m.logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}

	return c.Status(status).JSON(ErrorResponse{
		OK:     false,
		Reason: domain.Reason(err),
	})
}

func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		OK:     false,
		Reason: "invalid request body",
	})
}

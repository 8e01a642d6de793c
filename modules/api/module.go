package api

import (
	"context"
	"fmt"
	"time"

	"github.com/example/preschool-chat/modules/broadcast"
	"github.com/example/preschool-chat/modules/chat"
	"github.com/example/preschool-chat/modules/directory"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Options configures the HTTP server.
type Options struct {
	Port               string
	CORSAllowedOrigins string
	RateLimitMax       int
	RateLimitWindow    time.Duration
	// LimiterStorage shares rate limit counters between instances. Nil
	// keeps them in memory.
	LimiterStorage fiber.Storage
}

// APIModule is the HTTP API module with WebSocket support.
type APIModule struct {
	app       *fiber.App
	chat      chat.ChatPort
	directory directory.DirectoryPort
	hub       *broadcast.Hub
	opts      Options
	logger    types.Logger
	startTime time.Time
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule(opts Options, logger types.Logger) *APIModule {
	if opts.Port == "" {
		opts.Port = "3000"
	}
	if opts.CORSAllowedOrigins == "" {
		opts.CORSAllowedOrigins = "*"
	}
	return &APIModule{
		opts:   opts,
		logger: logger,
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"chat", "directory"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "chat":
		m.chat = chat.NewChatAdapter(container)
	case "directory":
		m.directory = directory.NewDirectoryAdapter(container)
	}
}

// SetHub sets the broadcast hub (called from main.go).
func (m *APIModule) SetHub(hub *broadcast.Hub) {
	m.hub = hub
}

// Start builds the Fiber app and starts listening.
func (m *APIModule) Start(_ context.Context) error {
	if m.chat == nil {
		return fmt.Errorf("chat adapter dependency not set")
	}
	if m.directory == nil {
		return fmt.Errorf("directory adapter dependency not set")
	}
	if m.hub == nil {
		return fmt.Errorf("broadcast hub dependency not set")
	}

	m.app = m.newApp()
	m.startTime = time.Now()

	go func() {
		if err := m.app.Listen(":" + m.opts.Port); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started", "port", m.opts.Port)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	err := m.app.Shutdown()
	if m.opts.LimiterStorage != nil {
		if cerr := m.opts.LimiterStorage.Close(); cerr != nil {
			m.logger.Warn("Failed to close limiter storage", "error", cerr)
		}
	}
	return err
}

// Health returns the health status.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	details := map[string]any{
		"port": m.opts.Port,
	}
	if m.hub != nil {
		details["connected_clients"] = m.hub.ClientCount()
	}
	if !m.startTime.IsZero() {
		details["uptime"] = time.Since(m.startTime).Round(time.Second).String()
	}
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: details,
	}
}

// newApp builds the Fiber app with middleware and routes.
func (m *APIModule) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: m.opts.CORSAllowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(requestLogger())
	if m.opts.RateLimitMax > 0 {
		app.Use(rateLimit(m.opts))
	}

	m.setupRoutes(app)
	return app
}

// errorHandler turns errors that escape the handlers into JSON.
func (m *APIModule) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	} else {
		m.logger.Error("Unhandled request error", "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(ErrorResponse{OK: false, Reason: message})
}

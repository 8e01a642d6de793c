package api

import (
	"os"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// requestLogger logs every request except WebSocket upgrades.
func requestLogger() fiber.Handler {
	return logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		Output:     os.Stdout,
		Next: func(c *fiber.Ctx) bool {
			return websocket.IsWebSocketUpgrade(c)
		},
	})
}

// rateLimit caps requests per client IP. Health checks and WebSocket
// upgrades are not counted.
func rateLimit(opts Options) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        opts.RateLimitMax,
		Expiration: opts.RateLimitWindow,
		Storage:    opts.LimiterStorage,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health" || websocket.IsWebSocketUpgrade(c)
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				OK:     false,
				Reason: "too many requests",
			})
		},
	})
}

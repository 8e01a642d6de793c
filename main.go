package main

import (
	"context"
	"log"
	"os"

	"github.com/example/preschool-chat/config"
	"github.com/example/preschool-chat/modules/api"
	"github.com/example/preschool-chat/modules/broadcast"
	"github.com/example/preschool-chat/modules/chat"
	"github.com/example/preschool-chat/modules/directory"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/gofiber/storage/redis/v3"
)

func main() {
	log.Println("=== Preschool Chat - Fiber + EventBus Pubsub ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	apiOpts := api.Options{
		Port:               cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitMax:       cfg.RateLimitMax,
		RateLimitWindow:    cfg.RateLimitWindow,
	}
	if cfg.RedisAddr != "" {
		// Validate already checked the address.
		host, port, _ := cfg.RedisHostPort()
		apiOpts.LimiterStorage = redis.New(redis.Config{
			Host:     host,
			Port:     port,
			PoolSize: 10,
		})
	}

	directoryModule := directory.NewModule(cfg.DirectoryDBPath, cfg.DBDebug, logger.WithModule("directory"))
	chatModule := chat.NewModule(chat.Limits{
		Room:   cfg.RoomCapacity,
		Direct: cfg.DirectCapacity,
		Staff:  cfg.StaffCapacity,
	}, logger.WithModule("chat"))
	broadcastModule := broadcast.NewModule(logger.WithModule("broadcast"))
	apiModule := api.NewModule(apiOpts, logger.WithModule("api"))

	// The hub is not a service, so it is handed over directly.
	apiModule.SetHub(broadcastModule.GetHub())

	// Independent modules first, then the API that depends on them.
	for _, module := range []mono.Module{directoryModule, chatModule, broadcastModule, apiModule} {
		if err := app.Register(module); err != nil {
			log.Fatalf("Failed to register %s module: %v", module.Name(), err)
		}
	}

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.Config) {
	limiter := "memory"
	if cfg.RedisAddr != "" {
		limiter = "redis " + cfg.RedisAddr
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Printf("  Staff directory: %s", cfg.DirectoryDBPath)
	log.Printf("  Room capacity: %d, direct: %d, staff: %d", cfg.RoomCapacity, cfg.DirectCapacity, cfg.StaffCapacity)
	log.Printf("  Rate limit: %d per %s (%s)", cfg.RateLimitMax, cfg.RateLimitWindow, limiter)
	log.Println("")
	log.Printf("Parent chat (http://localhost:%s):", cfg.Port)
	log.Println("  POST   /chat/send                - Send a room, direct or announcement message")
	log.Println("  GET    /chat/messages/:room      - Room history")
	log.Println("  GET    /chat/direct/:a/:b        - Direct conversation")
	log.Println("  GET    /chat/admins              - Staff directory")
	log.Println("  GET    /chat/rooms               - Room statistics")
	log.Println("")
	log.Println("Staff chat:")
	log.Println("  POST   /staff-chat/send          - Send to a staff room")
	log.Println("  GET    /staff-chat/messages      - Staff room history (?room=)")
	log.Println("  POST   /staff-chat/broadcast     - Emergency broadcast to all staff rooms")
	log.Println("  POST   /api/admin-info           - Staff member lookup")
	log.Println("")
	log.Printf("WebSocket push (ws://localhost:%s/ws?participant=<id>&room=<room>)", cfg.Port)
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

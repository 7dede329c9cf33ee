// Command api is the process entrypoint for the messaging backend's
// authentication and chat-membership core. It wires the store, the auth
// and chat services, the session-janitor worker pool, the cache, and the
// Fiber HTTP surface together, following the teacher's phase-numbered
// startup sequence (SPEC_FULL.md §2, §6).
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"walrus-messaging-core/internal/auth"
	"walrus-messaging-core/internal/authcore"
	"walrus-messaging-core/internal/chat"
	"walrus-messaging-core/internal/config"
	"walrus-messaging-core/internal/handlers"
	"walrus-messaging-core/internal/middleware"
	"walrus-messaging-core/internal/schema"
	"walrus-messaging-core/internal/services"
	"walrus-messaging-core/internal/store"
	"walrus-messaging-core/internal/workers"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	migrate := flag.Bool("migrate", false, "install the schema and exit")
	flag.Parse()

	// PHASE 1: configuration and logging.
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Server.Environment == "development" {
		opts.Level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, opts)))

	// PHASE 2: database connection.
	db, err := store.Connect(store.ConnectionConfig{
		DSN:            cfg.Database.DSN(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		log.Fatal("database connection required:", err)
	}
	defer db.Close()

	if *migrate {
		if err := schema.CreateAll(context.Background(), db.DB); err != nil {
			log.Fatalf("schema install failed: %v", err)
		}
		slog.Info("schema installed")
		return
	}

	// PHASE 3: cache, Redis-primary with in-memory fallback.
	cache := connectCache()

	// PHASE 4: services.
	persist := store.NewPostgresStore(db)
	clock := authcore.SystemClock{}
	authSvc := auth.NewService(persist, clock)
	chatSvc := chat.NewService(persist, cache)

	// PHASE 5: session-janitor worker pool.
	janitor := workers.NewSessionJanitor(workers.PoolConfig{Workers: 2}, persist, clock)
	janitor.Start(1 * time.Hour)

	// PHASE 6: handlers.
	authHandler := handlers.NewAuthHandler(authSvc)
	chatHandler := handlers.NewChatHandler(chatSvc)

	// PHASE 7: Fiber app, middleware, routes.
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorHandler: middleware.ErrorHandler(),
	})
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	registerRoutes(app, authSvc, authHandler, chatHandler)

	// PHASE 8: graceful shutdown.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		slog.Info("shutting down")
		janitor.Shutdown()
		if err := cache.Close(); err != nil {
			slog.Error("cache close error", "error", err)
		}
		if err := db.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
		if err := app.Shutdown(); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		os.Exit(0)
	}()

	slog.Info("starting server", "address", cfg.Server.Address, "environment", cfg.Server.Environment)
	if err := app.Listen(cfg.Server.Address); err != nil {
		janitor.Shutdown()
		log.Fatal(err)
	}
}

func connectCache() services.CacheService {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, falling back to memory cache", "error", err)
		client.Close()
		return services.NewMemoryCache()
	}
	slog.Info("redis connection established", "addr", addr)
	return services.NewRedisCache(client)
}

func registerRoutes(app *fiber.App, authSvc *auth.Service, authHandler *handlers.AuthHandler, chatHandler *handlers.ChatHandler) {
	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/login", authHandler.HandleLogin)
	authGroup.Post("/refresh", authHandler.HandleRefresh)
	authGroup.Post("/invite", auth.RequireAuth(authSvc), authHandler.HandleInvite)
	authGroup.Post("/logout", auth.RequireAuth(authSvc), authHandler.HandleLogout)
	authGroup.Get("/whoami", auth.RequireAuth(authSvc), authHandler.HandleWhoAmI)

	chatGroup := api.Group("/chats", auth.RequireAuth(authSvc))
	chatGroup.Get("/", chatHandler.HandleListChats)
	chatGroup.Post("/private", chatHandler.HandleCreatePrivateChat)
	chatGroup.Get("/:chat_id/messages", chatHandler.HandleListMessages)
	chatGroup.Post("/:chat_id/messages", chatHandler.HandleSendMessage)
}

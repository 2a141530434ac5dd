package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/adchat-ai/backend/internal/background"
	"github.com/adchat-ai/backend/internal/config"
	"github.com/adchat-ai/backend/internal/db"
	"github.com/adchat-ai/backend/internal/events"
	apphttp "github.com/adchat-ai/backend/internal/http"
	"github.com/adchat-ai/backend/internal/http/handlers"
	"github.com/adchat-ai/backend/internal/repositories"
	"github.com/adchat-ai/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	adRepo := repositories.NewAdRepo(pool)
	adSearchRepo := repositories.NewAdSearchRepo(pool)
	clickLedgerRepo := repositories.NewClickLedgerRepo(pool)
	sessionRepo := repositories.NewChatSessionRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)

	// Model client
	gemini, err := services.NewGeminiClient(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to create gemini client", zap.Error(err))
	}

	// Tools: the agent picks between keyword and semantic retrieval; the mcp
	// chat only gets the keyword tool.
	agentRegistry, err := services.NewToolRegistry(
		services.NewKeywordAdsTool(adSearchRepo),
		services.NewSemanticAdsTool(gemini, adSearchRepo),
	)
	if err != nil {
		log.Fatal("failed to build agent tool registry", zap.Error(err))
	}
	mcpRegistry, err := services.NewToolRegistry(
		services.NewKeywordAdsTool(adSearchRepo),
	)
	if err != nil {
		log.Fatal("failed to build mcp tool registry", zap.Error(err))
	}
	agentRunner := services.NewToolRunner(agentRegistry, log)
	mcpRunner := services.NewToolRunner(mcpRegistry, log)

	// Background click tracking
	dispatcher := background.NewDispatcher(cfg.ClickQueueSize, cfg.ClickWorkers, cfg.ClickTaskTimeout, log)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	// Services
	adAgent := services.NewAdAgentService(gemini, agentRunner, cfg.AgentMaxToolSteps, log)
	agentic := services.NewAgenticService(gemini, adAgent, log)
	rag := services.NewRagService(gemini, gemini, adSearchRepo, log)
	mcpChat := services.NewToolChatService(gemini, mcpRunner, cfg.AgentMaxToolSteps, log)
	saveChat := services.NewSaveChatService(sessionRepo, publisher, log)
	viewAds := services.NewViewAdService(adRepo, clickLedgerRepo, dispatcher, publisher, log)

	// Handlers
	chatHandler := handlers.NewChatHandler(gemini, rag, agentic, mcpChat, log)
	adHandler := handlers.NewAdHandler(viewAds, publisher, log)
	sessionHandler := handlers.NewSessionHandler(saveChat, log)
	adminHandler := handlers.NewAdminHandler(cfg, log)
	wsHandler := handlers.NewWSChatHandler(gemini, log)

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, chatHandler, adHandler, sessionHandler, adminHandler, wsHandler)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

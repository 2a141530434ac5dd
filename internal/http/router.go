package http

import (
	"time"

	"github.com/adchat-ai/backend/internal/config"
	"github.com/adchat-ai/backend/internal/http/handlers"
	"github.com/adchat-ai/backend/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	chatHandler *handlers.ChatHandler,
	adHandler *handlers.AdHandler,
	sessionHandler *handlers.SessionHandler,
	adminHandler *handlers.AdminHandler,
	wsHandler *handlers.WSChatHandler,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"service": cfg.AppName, "status": "ok"})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Generation endpoints burn model quota, so they get the tight limit.
	generation := app.Group("", middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))
	generation.Post("/chat", chatHandler.Chat)
	generation.Post("/rag-chat", chatHandler.RagChat)
	generation.Post("/agentic-chat", chatHandler.AgenticChat)
	generation.Post("/mcp", chatHandler.McpChat)

	app.Get("/view-ad/:id", adHandler.ViewAd)
	app.Post("/save-chat-history", sessionHandler.SaveChatHistory)

	// Admin
	app.Post("/admin/login", adminHandler.Login)
	admin := app.Group("/admin", middleware.AdminAuthMiddleware(cfg, log))
	admin.Get("/chat-sessions", sessionHandler.ListSessions)
	admin.Get("/chat-sessions/:id", sessionHandler.GetSession)

	// WebSocket streaming chat
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws/chat", websocket.New(wsHandler.HandleWS))
}

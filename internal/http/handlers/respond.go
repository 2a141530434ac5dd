package handlers

import (
	"github.com/adchat-ai/backend/internal/http/dto"
	"github.com/adchat-ai/backend/internal/middleware"
	"github.com/adchat-ai/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func respondError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{
		Error:     msg,
		RequestID: middleware.GetRequestID(c),
	})
}

// respondGenerationError maps model-call failures onto the HTTP surface.
// Upstream timeouts become 504; everything else is a logged opaque 500.
func respondGenerationError(c *fiber.Ctx, log *zap.Logger, op string, err error) error {
	if services.IsUpstreamTimeout(err) {
		log.Warn(op+" upstream timeout", zap.Error(err))
		return respondError(c, fiber.StatusGatewayTimeout, "generation timed out")
	}
	log.Error(op+" failed", zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
	return respondError(c, fiber.StatusInternalServerError, "internal error")
}

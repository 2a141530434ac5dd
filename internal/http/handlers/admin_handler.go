package handlers

import (
	"crypto/subtle"

	"github.com/adchat-ai/backend/internal/auth"
	"github.com/adchat-ai/backend/internal/config"
	"github.com/adchat-ai/backend/internal/http/dto"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AdminHandler struct {
	cfg *config.Config
	log *zap.Logger
}

func NewAdminHandler(cfg *config.Config, log *zap.Logger) *AdminHandler {
	return &AdminHandler{cfg: cfg, log: log}
}

// Login exchanges the admin API key for a short-lived JWT.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.APIKey == "" {
		return respondError(c, fiber.StatusBadRequest, "api_key is required")
	}

	if h.cfg.AdminAPIKey == "" ||
		subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.cfg.AdminAPIKey)) != 1 {
		h.log.Warn("admin login rejected", zap.String("ip", c.IP()))
		return respondError(c, fiber.StatusUnauthorized, "invalid api key")
	}

	token, err := auth.GenerateJWT(h.cfg.JWTSecret, auth.RoleAdmin, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("jwt generation failed", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "internal error")
	}

	return c.JSON(dto.AdminLoginResponse{Token: token})
}

package handlers

import (
	"errors"
	"strconv"

	"github.com/adchat-ai/backend/internal/http/dto"
	"github.com/adchat-ai/backend/internal/repositories"
	"github.com/adchat-ai/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SessionHandler struct {
	sessions *services.SaveChatService
	log      *zap.Logger
}

func NewSessionHandler(sessions *services.SaveChatService, log *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, log: log}
}

func (h *SessionHandler) SaveChatHistory(c *fiber.Ctx) error {
	var req dto.SaveChatRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.sessions.SaveSession(c.Context(), req.Mode, req.History, req.Version, req.Helpful)
	if err != nil {
		if errors.Is(err, services.ErrEmptyHistory) || errors.Is(err, services.ErrInvalidMode) {
			return respondError(c, fiber.StatusBadRequest, err.Error())
		}
		h.log.Error("save chat history failed", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "internal error")
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SaveChatResponse{
		ID:        session.ID,
		CreatedAt: session.CreatedAt,
		Mode:      session.Mode,
		Version:   session.Version,
		Helpful:   session.Helpful,
	})
}

// ListSessions is the admin view over saved conversations.
func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	filter := repositories.ChatSessionFilter{Limit: 50}

	if v := c.Query("mode"); v != "" {
		filter.Mode = &v
	}
	if v := c.Query("version"); v != "" {
		version, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return respondError(c, fiber.StatusBadRequest, "invalid version filter")
		}
		filter.Version = &version
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	sessions, err := h.sessions.ListSessions(c.Context(), filter)
	if err != nil {
		h.log.Error("list sessions failed", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "internal error")
	}

	return c.JSON(fiber.Map{"sessions": sessions, "count": len(sessions)})
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return respondError(c, fiber.StatusBadRequest, "invalid session id")
	}

	session, err := h.sessions.GetSession(c.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return respondError(c, fiber.StatusNotFound, "session not found")
		}
		h.log.Error("get session failed", zap.Int("session_id", id), zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "internal error")
	}

	return c.JSON(session)
}

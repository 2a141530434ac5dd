package handlers

import (
	"context"
	"encoding/json"

	"github.com/adchat-ai/backend/internal/models"
	"github.com/adchat-ai/backend/internal/services"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type wsChatRequest struct {
	Message string               `json:"message"`
	History []models.ChatMessage `json:"history,omitempty"`
}

type wsChatFrame struct {
	Type           string  `json:"type"` // chunk / done / error
	Text           string  `json:"text,omitempty"`
	Error          string  `json:"error,omitempty"`
	GenerationTime float64 `json:"generation_time,omitempty"`
	UsedTokens     int     `json:"used_tokens,omitempty"`
}

type chatStreamer interface {
	GenerateChatStream(ctx context.Context, message string, history []models.ChatMessage, onChunk func(text string) error) (services.ChatResult, error)
}

// frameWriter is the write half of the socket.
type frameWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WSChatHandler streams model output chunk by chunk over a websocket. Each
// incoming message is one prompt; history rides along with every request so
// the connection itself stays stateless.
type WSChatHandler struct {
	gemini chatStreamer
	log    *zap.Logger
}

func NewWSChatHandler(gemini chatStreamer, log *zap.Logger) *WSChatHandler {
	return &WSChatHandler{gemini: gemini, log: log}
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSChatHandler) HandleWS(conn *websocket.Conn) {
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		// A failed write means the peer is gone; drop the connection instead
		// of reading another prompt for it.
		if err := h.handleMessage(context.Background(), data, conn); err != nil {
			h.log.Debug("ws write failed, closing connection", zap.Error(err))
			return
		}
	}
}

// handleMessage serves one prompt. The returned error is non-nil only when
// the socket itself is unusable; generation problems are reported in-band as
// error frames.
func (h *WSChatHandler) handleMessage(ctx context.Context, data []byte, w frameWriter) error {
	var req wsChatRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Message == "" {
		return h.writeFrame(w, wsChatFrame{Type: "error", Error: "message is required"})
	}

	res, err := h.gemini.GenerateChatStream(ctx, req.Message, req.History, func(text string) error {
		return h.writeFrame(w, wsChatFrame{Type: "chunk", Text: text})
	})
	if err != nil {
		h.log.Warn("ws chat stream failed", zap.Error(err))
		return h.writeFrame(w, wsChatFrame{Type: "error", Error: "generation failed"})
	}

	return h.writeFrame(w, wsChatFrame{
		Type:           "done",
		GenerationTime: res.GenerationTime,
		UsedTokens:     res.UsedTokens,
	})
}

func (h *WSChatHandler) writeFrame(w frameWriter, frame wsChatFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return w.WriteMessage(websocket.TextMessage, data)
}

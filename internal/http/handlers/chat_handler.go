package handlers

import (
	"github.com/adchat-ai/backend/internal/http/dto"
	"github.com/adchat-ai/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	defaultRagTopK = 5
	maxRagTopK     = 50
)

type ChatHandler struct {
	gemini  *services.GeminiClient
	rag     *services.RagService
	agentic *services.AgenticService
	mcp     *services.ToolChatService
	log     *zap.Logger
}

func NewChatHandler(
	gemini *services.GeminiClient,
	rag *services.RagService,
	agentic *services.AgenticService,
	mcp *services.ToolChatService,
	log *zap.Logger,
) *ChatHandler {
	return &ChatHandler{gemini: gemini, rag: rag, agentic: agentic, mcp: mcp, log: log}
}

// Chat is the plain model conversation without retrieval or ads.
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return respondError(c, fiber.StatusBadRequest, "message is required")
	}

	res, err := h.gemini.GenerateChat(c.Context(), req.Message, req.History)
	if err != nil {
		return respondGenerationError(c, h.log, "chat", err)
	}

	return c.JSON(dto.ChatResponse{
		Response:       res.Text,
		GenerationTime: res.GenerationTime,
		UsedTokens:     res.UsedTokens,
	})
}

// RagChat grounds the answer on vector-retrieved ads.
func (h *ChatHandler) RagChat(c *fiber.Ctx) error {
	var req dto.RagChatRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return respondError(c, fiber.StatusBadRequest, "message is required")
	}

	topK := defaultRagTopK
	if req.TopK != nil {
		topK = *req.TopK
		if topK < 1 || topK > maxRagTopK {
			return respondError(c, fiber.StatusBadRequest, "top_k must be between 1 and 50")
		}
	}

	res, err := h.rag.Answer(c.Context(), req.Message, req.History, topK)
	if err != nil {
		return respondGenerationError(c, h.log, "rag chat", err)
	}

	return c.JSON(dto.RagChatResponse{
		Response:       res.Response,
		GenerationTime: res.GenerationTime,
		UsedTokens:     res.UsedTokens,
		Citations:      dto.NewCitations(res.Citations),
	})
}

// AgenticChat runs the reply and the ad selection agent in parallel and
// returns the merged response.
func (h *ChatHandler) AgenticChat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return respondError(c, fiber.StatusBadRequest, "message is required")
	}

	res, err := h.agentic.Answer(c.Context(), req.Message, req.History)
	if err != nil {
		return respondGenerationError(c, h.log, "agentic chat", err)
	}

	return c.JSON(dto.AgenticChatResponse{
		Response:       res.Response,
		GenerationTime: res.GenerationTime,
		UsedTokens:     res.UsedTokens,
		Metadata:       res.Metadata,
	})
}

// McpChat lets the model call the keyword ads tool while answering.
func (h *ChatHandler) McpChat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return respondError(c, fiber.StatusBadRequest, "message is required")
	}

	res, err := h.mcp.Answer(c.Context(), req.Message, req.History)
	if err != nil {
		return respondGenerationError(c, h.log, "mcp chat", err)
	}

	return c.JSON(dto.ChatResponse{
		Response:       res.Text,
		GenerationTime: res.GenerationTime,
		UsedTokens:     res.UsedTokens,
	})
}

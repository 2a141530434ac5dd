package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/adchat-ai/backend/internal/models"
	"go.uber.org/zap"
)

const ragPromptTemplate = `You are an assistant that helps users with their problems and, if possible, chooses the best matching ads for the user's query/needs. If no candidate ad matches, ignore all candidate ads and just provide a helpful answer.

Rules:
- Use ONLY the provided ads as factual sources.
- If none of the ads are relevant, do not mention any ads.
- Do not invent ad URLs, titles, or claims not present in the ads.

User query:
%s

Candidate ads:
%s

Write a concise helpful answer to the user.`

type RagResult struct {
	Response       string
	GenerationTime float64
	UsedTokens     int
	Citations      []models.AdMatch
}

// RagService answers with the chat model grounded on vector-retrieved ads.
// Retrieval problems degrade to a plain answer instead of failing the
// request.
type RagService struct {
	embedder Embedder
	chat     chatGenerator
	search   VectorSearcher
	log      *zap.Logger
}

func NewRagService(embedder Embedder, chat chatGenerator, search VectorSearcher, log *zap.Logger) *RagService {
	return &RagService{embedder: embedder, chat: chat, search: search, log: log}
}

func (s *RagService) Answer(ctx context.Context, message string, history []models.ChatMessage, topK int) (*RagResult, error) {
	vec, err := s.embedder.EmbedText(ctx, message)
	if err != nil {
		s.log.Warn("rag embedding failed, falling back to plain chat", zap.Error(err))
		return s.plainAnswer(ctx, message, history)
	}

	matches, err := s.search.SearchByEmbedding(ctx, vec, topK)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return s.plainAnswer(ctx, message, history)
	}

	grounded := fmt.Sprintf(ragPromptTemplate, message, adsContext(matches))
	chatRes, err := s.chat.GenerateChat(ctx, grounded, history)
	if err != nil {
		return nil, err
	}

	return &RagResult{
		Response:       chatRes.Text,
		GenerationTime: chatRes.GenerationTime,
		UsedTokens:     chatRes.UsedTokens,
		Citations:      matches,
	}, nil
}

func (s *RagService) plainAnswer(ctx context.Context, message string, history []models.ChatMessage) (*RagResult, error) {
	chatRes, err := s.chat.GenerateChat(ctx, message, history)
	if err != nil {
		return nil, err
	}
	return &RagResult{
		Response:       chatRes.Text,
		GenerationTime: chatRes.GenerationTime,
		UsedTokens:     chatRes.UsedTokens,
		Citations:      []models.AdMatch{},
	}, nil
}

func adsContext(matches []models.AdMatch) string {
	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		ad := m.Ad
		lines = append(lines, strings.Join([]string{
			fmt.Sprintf("- ad_id: %d", ad.ID),
			fmt.Sprintf("  title: %s", ad.Title),
			fmt.Sprintf("  description: %s", ad.Description),
			fmt.Sprintf("  url: %s", ad.URL),
			fmt.Sprintf("  keywords: %s", strings.Join(ad.Keywords, ", ")),
			fmt.Sprintf("  cpc: %s", ad.CPC.String()),
		}, "\n"))
	}
	return strings.Join(lines, "\n\n")
}

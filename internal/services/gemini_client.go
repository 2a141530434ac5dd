package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/adchat-ai/backend/internal/config"
	"github.com/adchat-ai/backend/internal/models"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// ChatResult is one generation path's output with its cost.
type ChatResult struct {
	Text           string  `json:"text"`
	GenerationTime float64 `json:"generation_time"` // seconds of wall clock
	UsedTokens     int     `json:"used_tokens"`
}

// GeminiClient wraps the Gemini API for chat generation and embeddings.
type GeminiClient struct {
	client         *genai.Client
	model          string
	embeddingModel string
	embeddingDim   int
	log            *zap.Logger
}

func NewGeminiClient(ctx context.Context, cfg *config.Config, log *zap.Logger) (*GeminiClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("gemini api key is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client:         client,
		model:          cfg.GeminiModel,
		embeddingModel: cfg.GeminiEmbeddingModel,
		embeddingDim:   cfg.GeminiEmbeddingDim,
		log:            log,
	}, nil
}

// historyToContents maps request history plus the latest user message to
// Gemini contents. Unknown roles degrade to "user"; "assistant" maps to
// "model" so callers using either naming behave the same.
func historyToContents(history []models.ChatMessage, latest string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, msg := range history {
		role := msg.Role
		switch role {
		case genai.RoleUser, genai.RoleModel:
		case "assistant":
			role = genai.RoleModel
		default:
			role = genai.RoleUser
		}
		parts := make([]*genai.Part, 0, len(msg.Parts))
		for _, p := range msg.Parts {
			parts = append(parts, genai.NewPartFromText(p))
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	contents = append(contents, &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromText(latest)},
	})
	return contents
}

// GenerateChat produces a plain conversational reply.
func (c *GeminiClient) GenerateChat(ctx context.Context, message string, history []models.ChatMessage) (ChatResult, error) {
	contents := historyToContents(history, message)

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		return ChatResult{GenerationTime: elapsed}, fmt.Errorf("gemini generate failed: %w", err)
	}

	return ChatResult{
		Text:           responseText(resp),
		GenerationTime: elapsed,
		UsedTokens:     usageTokens(resp),
	}, nil
}

// GenerateChatStream streams a reply chunk by chunk through onChunk and
// returns the full result when the stream ends.
func (c *GeminiClient) GenerateChatStream(ctx context.Context, message string, history []models.ChatMessage, onChunk func(text string) error) (ChatResult, error) {
	contents := historyToContents(history, message)

	start := time.Now()
	var sb strings.Builder
	var tokens int
	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, nil) {
		if err != nil {
			return ChatResult{Text: sb.String(), GenerationTime: time.Since(start).Seconds(), UsedTokens: tokens},
				fmt.Errorf("gemini stream failed: %w", err)
		}
		if t := usageTokens(resp); t > 0 {
			tokens = t
		}
		chunk := responseText(resp)
		if chunk == "" {
			continue
		}
		sb.WriteString(chunk)
		if onChunk != nil {
			if err := onChunk(chunk); err != nil {
				return ChatResult{Text: sb.String(), GenerationTime: time.Since(start).Seconds(), UsedTokens: tokens}, err
			}
		}
	}

	return ChatResult{
		Text:           sb.String(),
		GenerationTime: time.Since(start).Seconds(),
		UsedTokens:     tokens,
	}, nil
}

// GenerateContent exposes the raw call for tool-driven loops that manage
// their own contents and config.
func (c *GeminiClient) GenerateContent(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
}

// Task types the embedding endpoint accepts for retrieval workloads.
const (
	embedTaskQuery    = "RETRIEVAL_QUERY"
	embedTaskDocument = "RETRIEVAL_DOCUMENT"
)

// EmbedText embeds a retrieval query into the configured dimension.
func (c *GeminiClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.embed(ctx, []string{text}, embedTaskQuery)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts embeds catalog documents in one batch call.
func (c *GeminiClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return c.embed(ctx, texts, embedTaskDocument)
}

func (c *GeminiClient) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	result, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, contents, &genai.EmbedContentConfig{
		TaskType: taskType,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embed failed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d inputs", len(result.Embeddings), len(texts))
	}

	vecs := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		if err := validateEmbedding(emb.Values, c.embeddingDim); err != nil {
			return nil, err
		}
		vecs[i] = emb.Values
	}
	return vecs, nil
}

// validateEmbedding fails loudly on dimension mismatch or non-finite values
// so a bad vector never reaches the index.
func validateEmbedding(vec []float32, wantDim int) error {
	if len(vec) != wantDim {
		return fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), wantDim)
	}
	for i, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("embedding contains non-finite value at index %d", i)
		}
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && p.Text != "" {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

func usageTokens(resp *genai.GenerateContentResponse) int {
	if resp == nil || resp.UsageMetadata == nil {
		return 0
	}
	return int(resp.UsageMetadata.TotalTokenCount)
}

// IsUpstreamTimeout classifies generation errors that should surface as a
// gateway timeout rather than a generic server error.
func IsUpstreamTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusGatewayTimeout || apiErr.Code == http.StatusRequestTimeout
	}
	return false
}

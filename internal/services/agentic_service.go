package services

import (
	"context"
	"math"

	"github.com/adchat-ai/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const sponsoredDelimiter = "\n\n----------------\nSponsored Suggestion:\n"

type chatGenerator interface {
	GenerateChat(ctx context.Context, message string, history []models.ChatMessage) (ChatResult, error)
}

type adSelector interface {
	AnalyzeAndGetAd(ctx context.Context, message string, history []models.ChatMessage) (AdAgentResult, error)
}

type PathMetrics struct {
	GenerationTime float64 `json:"generation_time"`
	UsedTokens     int     `json:"used_tokens"`
}

type AgenticMetadata struct {
	AdInjected bool        `json:"ad_injected"`
	Chat       PathMetrics `json:"chat"`
	AdAgent    PathMetrics `json:"ad_agent"`
}

type AgenticResult struct {
	Response       string
	GenerationTime float64
	UsedTokens     int
	Metadata       AgenticMetadata
}

// AgenticService runs the plain chat reply and the ad selection agent in
// parallel and merges them into one response with one combined cost.
type AgenticService struct {
	chat    chatGenerator
	adAgent adSelector
	log     *zap.Logger
}

func NewAgenticService(chat chatGenerator, adAgent adSelector, log *zap.Logger) *AgenticService {
	return &AgenticService{chat: chat, adAgent: adAgent, log: log}
}

// Answer starts both generation paths immediately and waits for both. The
// merged generation_time is the max of the two paths (they overlap in wall
// clock); used_tokens is the sum (both consumed real quota). Either path
// failing fails the whole call.
func (s *AgenticService) Answer(ctx context.Context, message string, history []models.ChatMessage) (*AgenticResult, error) {
	var chatRes ChatResult
	var adRes AdAgentResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		chatRes, err = s.chat.GenerateChat(gctx, message, history)
		return err
	})
	g.Go(func() error {
		var err error
		adRes, err = s.adAgent.AnalyzeAndGetAd(gctx, message, history)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	response := chatRes.Text
	adInjected := adRes.AdText != nil
	if adInjected {
		response += sponsoredDelimiter + *adRes.AdText
	}

	return &AgenticResult{
		Response:       response,
		GenerationTime: math.Max(chatRes.GenerationTime, adRes.GenerationTime),
		UsedTokens:     chatRes.UsedTokens + adRes.UsedTokens,
		Metadata: AgenticMetadata{
			AdInjected: adInjected,
			Chat: PathMetrics{
				GenerationTime: chatRes.GenerationTime,
				UsedTokens:     chatRes.UsedTokens,
			},
			AdAgent: PathMetrics{
				GenerationTime: adRes.GenerationTime,
				UsedTokens:     adRes.UsedTokens,
			},
		},
	}, nil
}

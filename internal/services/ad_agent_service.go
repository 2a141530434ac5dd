package services

import (
	"context"
	"strings"
	"time"

	"github.com/adchat-ai/backend/internal/models"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const noAdSentinel = "NO_AD"

const adAgentSystemPrompt = `You are an assistant that can fetch ads for the user. Analyze the conversation history.
If purchase intent is found, query ads with one of your tools.
Return ONLY the ad text, or 'NO_AD' if nothing fits.

Tool selection:
- Short, specific product queries: use get_ads_by_keyword.
- Descriptive or multi-attribute requests: use get_ads_semantic.
- When in doubt, prefer get_ads_semantic.

Rules for the get_ads_semantic query string:
1. Focus on nouns and adjectives: specific product categories and features ("organic leather boots", not "I want some nice shoes").
2. Strip conversational filler ("I'm looking for", "do you have").
3. If the user states a problem, include the solution category ("CRM software for small business lead tracking").
4. Structure: [product category] + [key features/benefits] + [target audience].`

// AdAgentResult carries the agent's decision plus the cost of every model
// call made while deciding. AdText is nil when no ad should be shown.
type AdAgentResult struct {
	AdText         *string
	GenerationTime float64
	UsedTokens     int
}

// contentGenerator is the slice of GeminiClient the agent loop needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// AdAgentService runs the bounded tool-calling loop that decides whether the
// conversation warrants a sponsored suggestion and which ad to surface.
type AdAgentService struct {
	generator    contentGenerator
	runner       *ToolRunner
	maxToolSteps int
	log          *zap.Logger
}

func NewAdAgentService(generator contentGenerator, runner *ToolRunner, maxToolSteps int, log *zap.Logger) *AdAgentService {
	if maxToolSteps <= 0 {
		maxToolSteps = 6
	}
	return &AdAgentService{
		generator:    generator,
		runner:       runner,
		maxToolSteps: maxToolSteps,
		log:          log,
	}
}

// AnalyzeAndGetAd returns ad copy to inject, or nil for no ad. Metrics are
// accumulated across every model call of the loop and returned even when the
// loop fails partway through.
func (s *AdAgentService) AnalyzeAndGetAd(ctx context.Context, message string, history []models.ChatMessage) (AdAgentResult, error) {
	contents := historyToContents(history, message)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(adAgentSystemPrompt)},
		},
		Temperature: genai.Ptr[float32](0.1),
		Tools: []*genai.Tool{
			{FunctionDeclarations: s.runner.Registry().Declarations()},
		},
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		},
	}

	var result AdAgentResult
	for step := 0; step < s.maxToolSteps; step++ {
		start := time.Now()
		resp, err := s.generator.GenerateContent(ctx, contents, cfg)
		result.GenerationTime += time.Since(start).Seconds()
		if err != nil {
			// Partial metrics survive the failure.
			return result, err
		}
		result.UsedTokens += usageTokens(resp)

		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			s.log.Warn("ad agent got empty candidate, treating as no ad")
			return result, nil
		}
		cand := resp.Candidates[0]
		contents = append(contents, cand.Content)

		calls := functionCalls(cand.Content)
		if len(calls) == 0 {
			result.AdText = parseAdText(responseText(resp))
			return result, nil
		}

		// Execute in the order the model requested; the next call must see
		// every result.
		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			s.log.Info("ad agent tool call",
				zap.Int("step", step+1), zap.String("tool", call.Name))
			out := s.runner.Run(ctx, call.Name, call.Args)
			parts = append(parts, genai.NewPartFromFunctionResponse(call.Name, out))
		}
		contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
	}

	s.log.Warn("ad agent exhausted tool steps without an answer",
		zap.Int("max_steps", s.maxToolSteps))
	return result, nil
}

func functionCalls(content *genai.Content) []*genai.FunctionCall {
	var calls []*genai.FunctionCall
	for _, p := range content.Parts {
		if p != nil && p.FunctionCall != nil {
			calls = append(calls, p.FunctionCall)
		}
	}
	return calls
}

// parseAdText normalizes the agent's terminal output. The literal NO_AD
// token (any case, possibly quoted) and empty output both mean "no ad".
func parseAdText(raw string) *string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Trim(cleaned, `"'`)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || strings.EqualFold(cleaned, noAdSentinel) {
		return nil
	}
	return &cleaned
}

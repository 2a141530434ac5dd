package services

import (
	"context"
	"time"

	"github.com/adchat-ai/backend/internal/models"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const toolChatSystemPrompt = `You are a helpful shopping assistant. You can look up ads in the catalog with the get_ads_by_keyword tool when the user asks about products. Answer conversationally and cite only ads the tool actually returned.`

// ToolChatService is the tool-augmented chat mode: a bounded loop where the
// model may call catalog tools before answering in plain text.
type ToolChatService struct {
	generator    contentGenerator
	runner       *ToolRunner
	maxToolSteps int
	log          *zap.Logger
}

func NewToolChatService(generator contentGenerator, runner *ToolRunner, maxToolSteps int, log *zap.Logger) *ToolChatService {
	if maxToolSteps <= 0 {
		maxToolSteps = 6
	}
	return &ToolChatService{
		generator:    generator,
		runner:       runner,
		maxToolSteps: maxToolSteps,
		log:          log,
	}
}

func (s *ToolChatService) Answer(ctx context.Context, message string, history []models.ChatMessage) (ChatResult, error) {
	contents := historyToContents(history, message)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(toolChatSystemPrompt)},
		},
		Tools: []*genai.Tool{
			{FunctionDeclarations: s.runner.Registry().Declarations()},
		},
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		},
	}

	var result ChatResult
	for step := 0; step < s.maxToolSteps; step++ {
		start := time.Now()
		resp, err := s.generator.GenerateContent(ctx, contents, cfg)
		result.GenerationTime += time.Since(start).Seconds()
		if err != nil {
			return result, err
		}
		result.UsedTokens += usageTokens(resp)

		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			result.Text = "No response generated."
			return result, nil
		}
		cand := resp.Candidates[0]
		contents = append(contents, cand.Content)

		calls := functionCalls(cand.Content)
		if len(calls) == 0 {
			result.Text = responseText(resp)
			return result, nil
		}

		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			s.log.Info("tool chat call", zap.Int("step", step+1), zap.String("tool", call.Name))
			out := s.runner.Run(ctx, call.Name, call.Args)
			parts = append(parts, genai.NewPartFromFunctionResponse(call.Name, out))
		}
		contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
	}

	s.log.Warn("tool chat exhausted tool steps", zap.Int("max_steps", s.maxToolSteps))
	result.Text = "No response generated."
	return result, nil
}

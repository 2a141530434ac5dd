package services

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

func TestToolChatAnswersAfterToolCall(t *testing.T) {
	gen := &scriptedGenerator{responses: []*genai.GenerateContentResponse{
		toolCallResponse(10, "get_ads_by_keyword"),
		textResponse("Here are two boots I found.", 25),
	}}
	svc := NewToolChatService(gen, testRunner(t), 6, zap.NewNop())

	res, err := svc.Answer(context.Background(), "any boots?", nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.Text != "Here are two boots I found." {
		t.Errorf("Text = %q", res.Text)
	}
	if res.UsedTokens != 35 {
		t.Errorf("UsedTokens = %d, want 35", res.UsedTokens)
	}
}

func TestToolChatExhaustionHasFallbackText(t *testing.T) {
	var responses []*genai.GenerateContentResponse
	for i := 0; i < 3; i++ {
		responses = append(responses, toolCallResponse(1, "get_ads_by_keyword"))
	}
	gen := &scriptedGenerator{responses: responses}
	svc := NewToolChatService(gen, testRunner(t), 3, zap.NewNop())

	res, err := svc.Answer(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.Text != "No response generated." {
		t.Errorf("Text = %q", res.Text)
	}
	if gen.calls != 3 {
		t.Errorf("model called %d times, want 3", gen.calls)
	}
}

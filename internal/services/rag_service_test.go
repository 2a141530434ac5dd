package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/adchat-ai/backend/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return f.vec, f.err
}

type fakeVectorSearch struct {
	matches []models.AdMatch
	err     error
	gotTopK int
}

func (f *fakeVectorSearch) SearchByEmbedding(ctx context.Context, query []float32, topK int) ([]models.AdMatch, error) {
	f.gotTopK = topK
	return f.matches, f.err
}

type capturingChat struct {
	result  ChatResult
	err     error
	message string
}

func (c *capturingChat) GenerateChat(ctx context.Context, message string, history []models.ChatMessage) (ChatResult, error) {
	c.message = message
	return c.result, c.err
}

func bootMatch() models.AdMatch {
	return models.AdMatch{
		Ad: models.Ad{
			ID:          7,
			Title:       "AcmeBoots",
			Description: "Rugged leather boots",
			URL:         "https://acme.example/boots",
			Keywords:    []string{"boots", "leather"},
			CPC:         decimal.RequireFromString("0.25"),
		},
		Score:    0.91,
		Distance: 0.09,
	}
}

func TestRagAnswerGroundsPromptOnMatches(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{0.1, 0.2}}
	search := &fakeVectorSearch{matches: []models.AdMatch{bootMatch()}}
	chat := &capturingChat{result: ChatResult{Text: "Grounded answer", GenerationTime: 1.2, UsedTokens: 80}}

	svc := NewRagService(embedder, chat, search, zap.NewNop())
	res, err := svc.Answer(context.Background(), "need boots", nil, 5)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if search.gotTopK != 5 {
		t.Errorf("topK = %d, want 5", search.gotTopK)
	}
	if res.Response != "Grounded answer" {
		t.Errorf("Response = %q", res.Response)
	}
	if len(res.Citations) != 1 || res.Citations[0].Ad.ID != 7 {
		t.Errorf("Citations = %+v, want the retrieved match", res.Citations)
	}
	for _, frag := range []string{"need boots", "AcmeBoots", "Rugged leather boots", "https://acme.example/boots", "0.25"} {
		if !strings.Contains(chat.message, frag) {
			t.Errorf("grounded prompt missing %q:\n%s", frag, chat.message)
		}
	}
}

func TestRagAnswerEmbedFailureFallsBackToPlainChat(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("embedding quota exceeded")}
	search := &fakeVectorSearch{matches: []models.AdMatch{bootMatch()}}
	chat := &capturingChat{result: ChatResult{Text: "Plain answer"}}

	svc := NewRagService(embedder, chat, search, zap.NewNop())
	res, err := svc.Answer(context.Background(), "need boots", nil, 5)
	if err != nil {
		t.Fatalf("embed failure must degrade, not fail: %v", err)
	}
	if res.Response != "Plain answer" {
		t.Errorf("Response = %q", res.Response)
	}
	if len(res.Citations) != 0 {
		t.Errorf("Citations = %+v, want empty on fallback", res.Citations)
	}
	if chat.message != "need boots" {
		t.Errorf("fallback must pass the raw message, got %q", chat.message)
	}
}

func TestRagAnswerNoMatchesFallsBack(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{0.1}}
	search := &fakeVectorSearch{matches: []models.AdMatch{}}
	chat := &capturingChat{result: ChatResult{Text: "Plain answer"}}

	svc := NewRagService(embedder, chat, search, zap.NewNop())
	res, err := svc.Answer(context.Background(), "obscure query", nil, 3)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if chat.message != "obscure query" {
		t.Errorf("expected ungrounded prompt, got %q", chat.message)
	}
	if res.Citations == nil || len(res.Citations) != 0 {
		t.Errorf("Citations = %#v, want empty non-nil slice", res.Citations)
	}
}

func TestRagAnswerSearchErrorFails(t *testing.T) {
	searchErr := errors.New("db unreachable")
	svc := NewRagService(
		&fakeEmbedder{vec: []float32{0.1}},
		&capturingChat{},
		&fakeVectorSearch{err: searchErr},
		zap.NewNop(),
	)
	if _, err := svc.Answer(context.Background(), "hi", nil, 5); !errors.Is(err, searchErr) {
		t.Errorf("Answer error = %v, want %v", err, searchErr)
	}
}

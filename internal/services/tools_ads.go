package services

import (
	"context"
	"strings"

	"github.com/adchat-ai/backend/internal/models"
	"github.com/adchat-ai/backend/internal/repositories"
	"google.golang.org/genai"
)

const (
	defaultKeywordLimit = 8
	defaultSemanticTopK = 5
)

// KeywordSearcher and VectorSearcher are implemented by
// repositories.AdSearchRepo.
type KeywordSearcher interface {
	SearchByKeyword(ctx context.Context, query string, limit int) ([]models.Ad, error)
}

type VectorSearcher interface {
	SearchByEmbedding(ctx context.Context, query []float32, topK int) ([]models.AdMatch, error)
}

// Embedder converts text to a fixed-dimension vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

func adToPayload(ad models.Ad) map[string]any {
	keywords := ad.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return map[string]any{
		"id":          ad.ID,
		"title":       ad.Title,
		"description": ad.Description,
		"keywords":    keywords,
		"url":         ad.URL,
		"image_url":   ad.ImageURL,
		"cpc":         ad.CPC.String(),
	}
}

// NewKeywordAdsTool builds the keyword-search tool over the ad catalog.
func NewKeywordAdsTool(search KeywordSearcher) ToolSpec {
	return ToolSpec{
		Name:        "get_ads_by_keyword",
		Description: "Search ads by a keyword in title/description/keywords. Returns a small bounded list.",
		Parameters: &genai.Schema{
			Type:     genai.TypeObject,
			Required: []string{"keyword"},
			Properties: map[string]*genai.Schema{
				"keyword": {
					Type:        genai.TypeString,
					Description: "Keyword or phrase to search for in ads (title/description/keywords).",
				},
				"limit": {
					Type:        genai.TypeInteger,
					Description: "Max number of ads to return (1-20).",
				},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			keyword := strings.TrimSpace(stringArg(args, "keyword"))
			if keyword == "" {
				return nil, repositories.ErrEmptyKeyword
			}
			limit := intArg(args, "limit", defaultKeywordLimit)

			ads, err := search.SearchByKeyword(ctx, keyword, limit)
			if err != nil {
				return nil, err
			}

			payloads := make([]map[string]any, 0, len(ads))
			for _, ad := range ads {
				payloads = append(payloads, adToPayload(ad))
			}
			return map[string]any{
				"keyword": keyword,
				"count":   len(ads),
				"ads":     payloads,
			}, nil
		},
	}
}

// NewSemanticAdsTool builds the semantic-search tool: the model provides a
// distilled sales-intent string, which is embedded and matched against ad
// embeddings by cosine distance.
func NewSemanticAdsTool(embedder Embedder, search VectorSearcher) ToolSpec {
	return ToolSpec{
		Name:        "get_ads_semantic",
		Description: "Search ads by meaning. Provide a distilled sales-intent string (product category, key features, target audience), not conversational text.",
		Parameters: &genai.Schema{
			Type:     genai.TypeObject,
			Required: []string{"query"},
			Properties: map[string]*genai.Schema{
				"query": {
					Type:        genai.TypeString,
					Description: "Sales-intent string to match against the ad catalog.",
				},
				"top_k": {
					Type:        genai.TypeInteger,
					Description: "Max number of ads to return (1-20).",
				},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			query := strings.TrimSpace(stringArg(args, "query"))
			if query == "" {
				return nil, repositories.ErrEmptyKeyword
			}
			topK := intArg(args, "top_k", defaultSemanticTopK)
			if topK < 1 {
				topK = 1
			}
			if topK > 20 {
				topK = 20
			}

			vec, err := embedder.EmbedText(ctx, query)
			if err != nil {
				return nil, err
			}
			matches, err := search.SearchByEmbedding(ctx, vec, topK)
			if err != nil {
				return nil, err
			}

			payloads := make([]map[string]any, 0, len(matches))
			for _, m := range matches {
				p := adToPayload(m.Ad)
				p["score"] = m.Score
				p["distance"] = m.Distance
				payloads = append(payloads, p)
			}
			return map[string]any{
				"query": query,
				"count": len(matches),
				"ads":   payloads,
			}, nil
		},
	}
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// intArg tolerates the numeric types JSON decoding can produce for tool
// arguments.
func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	default:
		return fallback
	}
}

package dto

import (
	"time"

	"github.com/adchat-ai/backend/internal/models"
	"github.com/adchat-ai/backend/internal/services"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type ChatResponse struct {
	Response       string  `json:"response"`
	GenerationTime float64 `json:"generation_time"`
	UsedTokens     int     `json:"used_tokens"`
}

type AdPayload struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	URL         string   `json:"url"`
	ImageURL    *string  `json:"image_url,omitempty"`
	CPC         string   `json:"cpc"`
}

type Citation struct {
	Score    float64   `json:"score"`
	Distance float64   `json:"distance"`
	Ad       AdPayload `json:"ad"`
}

type RagChatResponse struct {
	Response       string     `json:"response"`
	GenerationTime float64    `json:"generation_time"`
	UsedTokens     int        `json:"used_tokens"`
	Citations      []Citation `json:"citations"`
}

type AgenticChatResponse struct {
	Response       string                   `json:"response"`
	GenerationTime float64                  `json:"generation_time"`
	UsedTokens     int                      `json:"used_tokens"`
	Metadata       services.AgenticMetadata `json:"metadata"`
}

type ViewAdResponse struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	URL         string   `json:"url"`
	ImageURL    *string  `json:"image_url,omitempty"`
}

type SaveChatResponse struct {
	ID        int       `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Mode      string    `json:"mode"`
	Version   *float64  `json:"version,omitempty"`
	Helpful   bool      `json:"helpful"`
}

type AdminLoginResponse struct {
	Token string `json:"token"`
}

func NewAdPayload(ad models.Ad) AdPayload {
	return AdPayload{
		ID:          ad.ID,
		Title:       ad.Title,
		Description: ad.Description,
		Keywords:    ad.Keywords,
		URL:         ad.URL,
		ImageURL:    ad.ImageURL,
		CPC:         ad.CPC.String(),
	}
}

func NewCitations(matches []models.AdMatch) []Citation {
	citations := make([]Citation, 0, len(matches))
	for _, m := range matches {
		citations = append(citations, Citation{
			Score:    m.Score,
			Distance: m.Distance,
			Ad:       NewAdPayload(m.Ad),
		})
	}
	return citations
}

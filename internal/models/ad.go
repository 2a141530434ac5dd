package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ad mirrors the ads table minus the embedding column; the vector only ever
// moves between the backfill writer and the search queries, never through
// this struct.
type Ad struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Keywords    []string        `json:"keywords,omitempty"`
	URL         string          `json:"url"`
	ImageURL    *string         `json:"image_url,omitempty"`
	CPC         decimal.Decimal `json:"cpc"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AdCampaignLink joins an ad to a campaign and carries the click counter.
// Deleting either side cascades through the link.
type AdCampaignLink struct {
	ID         int `json:"id"`
	AdID       int `json:"ad_id"`
	CampaignID int `json:"campaign_id"`
	ClickCount int `json:"click_count"`
}

// AdMatch is a transient vector-search result. Distance is cosine distance in
// [0,2], Score is cosine similarity in [-1,1]; Score = 1 - Distance exactly.
type AdMatch struct {
	Ad       Ad      `json:"ad"`
	Score    float64 `json:"score"`
	Distance float64 `json:"distance"`
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/adchat-ai/backend/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

var ErrEmptyKeyword = errors.New("keyword is required")

const (
	minKeywordLimit = 1
	maxKeywordLimit = 20
)

// AdSearchRepo serves the two retrieval paths over the ad catalog: cosine
// nearest-neighbor search on ad embeddings and substring keyword search.
// Both are restricted to ads linked to at least one running campaign.
type AdSearchRepo struct {
	pool *pgxpool.Pool
}

func NewAdSearchRepo(pool *pgxpool.Pool) *AdSearchRepo {
	return &AdSearchRepo{pool: pool}
}

// runningLinkPredicate restricts an ads row (aliased "a") to those with at
// least one link to a running campaign. EXISTS keeps one row per ad no matter
// how many running campaigns it belongs to.
func runningLinkPredicate() string {
	return fmt.Sprintf(`EXISTS (
		SELECT 1 FROM ad_campaigns l
		JOIN campaigns c ON c.id = l.campaign_id
		WHERE l.ad_id = a.id AND %s
	)`, models.RunningCampaignSQL("c"))
}

// SearchByEmbedding returns up to topK ads ordered by ascending cosine
// distance to the query vector. topK <= 0 returns an empty result without
// touching the database.
func (r *AdSearchRepo) SearchByEmbedding(ctx context.Context, query []float32, topK int) ([]models.AdMatch, error) {
	if topK <= 0 {
		return []models.AdMatch{}, nil
	}

	sql := fmt.Sprintf(`
		SELECT a.id, a.title, a.description, a.keywords, a.url, a.image_url,
		       a.cpc, a.created_at,
		       (a.embedding <=> $1)::float8 AS distance
		FROM ads a
		WHERE a.embedding IS NOT NULL
		  AND %s
		ORDER BY a.embedding <=> $1 ASC
		LIMIT $2
	`, runningLinkPredicate())

	rows, err := r.pool.Query(ctx, sql, pgvector.NewVector(query), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []models.AdMatch
	for rows.Next() {
		var ad models.Ad
		var distance *float64
		if err := rows.Scan(&ad.ID, &ad.Title, &ad.Description, &ad.Keywords,
			&ad.URL, &ad.ImageURL, &ad.CPC, &ad.CreatedAt, &distance); err != nil {
			return nil, err
		}
		d := normalizeDistance(distance)
		matches = append(matches, models.AdMatch{
			Ad:       ad,
			Score:    scoreFromDistance(d),
			Distance: d,
		})
	}
	return matches, rows.Err()
}

// SearchByKeyword returns ads whose title, description or any keyword token
// matches any whitespace-separated token of the query, case-insensitively.
// limit is clamped to [1,20]; results are ordered by ad id for a
// deterministic tie-break.
func (r *AdSearchRepo) SearchByKeyword(ctx context.Context, query string, limit int) ([]models.Ad, error) {
	tokens := splitKeywordTokens(query)
	if len(tokens) == 0 {
		return nil, ErrEmptyKeyword
	}
	limit = clampKeywordLimit(limit)

	args := []any{}
	argIdx := 1
	tokenClauses := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		like := "%" + tok + "%"
		tokenClauses = append(tokenClauses, fmt.Sprintf(`(
			a.title ILIKE $%[1]d
			OR a.description ILIKE $%[1]d
			OR EXISTS (SELECT 1 FROM unnest(a.keywords) AS kw WHERE kw ILIKE $%[1]d)
		)`, argIdx))
		args = append(args, like)
		argIdx++
	}

	sql := fmt.Sprintf(`
		SELECT DISTINCT a.id, a.title, a.description, a.keywords, a.url,
		       a.image_url, a.cpc, a.created_at
		FROM ads a
		WHERE (%s)
		  AND %s
		ORDER BY a.id ASC
		LIMIT $%d
	`, strings.Join(tokenClauses, " OR "), runningLinkPredicate(), argIdx)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ads []models.Ad
	for rows.Next() {
		var ad models.Ad
		if err := rows.Scan(&ad.ID, &ad.Title, &ad.Description, &ad.Keywords,
			&ad.URL, &ad.ImageURL, &ad.CPC, &ad.CreatedAt); err != nil {
			return nil, err
		}
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}

// normalizeDistance maps NULL or non-finite distances to NaN instead of
// failing the whole result set.
func normalizeDistance(d *float64) float64 {
	if d == nil || math.IsInf(*d, 0) {
		return math.NaN()
	}
	return *d
}

// scoreFromDistance derives cosine similarity from cosine distance. The two
// always sum to exactly 1 for finite distances.
func scoreFromDistance(distance float64) float64 {
	return 1 - distance
}

func splitKeywordTokens(query string) []string {
	return strings.Fields(query)
}

func clampKeywordLimit(limit int) int {
	if limit < minKeywordLimit {
		return minKeywordLimit
	}
	if limit > maxKeywordLimit {
		return maxKeywordLimit
	}
	return limit
}

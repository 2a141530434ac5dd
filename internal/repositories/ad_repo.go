package repositories

import (
	"context"
	"errors"

	"github.com/adchat-ai/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

var ErrAdNotFound = errors.New("ad not found")

type AdRepo struct {
	pool *pgxpool.Pool
}

func NewAdRepo(pool *pgxpool.Pool) *AdRepo {
	return &AdRepo{pool: pool}
}

func (r *AdRepo) GetByID(ctx context.Context, id int) (*models.Ad, error) {
	var ad models.Ad
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, description, keywords, url, image_url, cpc, created_at
		FROM ads WHERE id = $1
	`, id).Scan(&ad.ID, &ad.Title, &ad.Description, &ad.Keywords,
		&ad.URL, &ad.ImageURL, &ad.CPC, &ad.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAdNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ad, nil
}

// ListMissingEmbeddings returns ads whose embedding has not been backfilled
// yet, oldest first, bounded by limit.
func (r *AdRepo) ListMissingEmbeddings(ctx context.Context, limit int) ([]models.Ad, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, description, keywords, url, image_url, cpc, created_at
		FROM ads
		WHERE embedding IS NULL
		ORDER BY id ASC
		LIMIT $1
	`, limit)
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

// UpdateEmbedding writes the vector only if the ad still has none, so a
// concurrent backfill never overwrites a fresher embedding.
func (r *AdRepo) UpdateEmbedding(ctx context.Context, id int, embedding []float32) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE ads SET embedding = $1 WHERE id = $2 AND embedding IS NULL
	`, pgvector.NewVector(embedding), id)
	return err
}

package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/adchat-ai/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ClickLedgerRepo advances the click/spend bookkeeping for an ad view. All
// updates for one click happen in a single transaction: either every running
// campaign linked to the ad gets its click counted and spend advanced, or
// none does.
type ClickLedgerRepo struct {
	pool *pgxpool.Pool
}

func NewClickLedgerRepo(pool *pgxpool.Pool) *ClickLedgerRepo {
	return &ClickLedgerRepo{pool: pool}
}

// TrackAdClick increments click_count on every link of the ad whose campaign
// is running at execution time, and adds the ad's cost-per-click to each such
// campaign's spending. Returns ErrAdNotFound when the ad does not exist and
// the updated links otherwise.
func (r *ClickLedgerRepo) TrackAdClick(ctx context.Context, adID int) ([]models.AdCampaignLink, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var cpc decimal.Decimal
	err = tx.QueryRow(ctx, `SELECT cpc FROM ads WHERE id = $1 FOR SHARE`, adID).Scan(&cpc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAdNotFound
	}
	if err != nil {
		return nil, err
	}

	// The running rule is re-evaluated here, not at enqueue time: campaigns
	// that stopped between view and click-processing get nothing.
	rows, err := tx.Query(ctx, fmt.Sprintf(`
		UPDATE ad_campaigns l
		SET click_count = l.click_count + 1
		FROM campaigns c
		WHERE l.ad_id = $1 AND c.id = l.campaign_id AND %s
		RETURNING l.id, l.ad_id, l.campaign_id, l.click_count
	`, models.RunningCampaignSQL("c")), adID)
	if err != nil {
		return nil, err
	}

	var links []models.AdCampaignLink
	for rows.Next() {
		var link models.AdCampaignLink
		if err := rows.Scan(&link.ID, &link.AdID, &link.CampaignID, &link.ClickCount); err != nil {
			rows.Close()
			return nil, err
		}
		links = append(links, link)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(links) > 0 {
		// Charge exactly the campaigns whose link was just incremented, so
		// the two updates cannot diverge inside the transaction.
		campaignIDs := make([]int, 0, len(links))
		for _, link := range links {
			campaignIDs = append(campaignIDs, link.CampaignID)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE campaigns SET spending = spending + $1 WHERE id = ANY($2)
		`, cpc, campaignIDs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return links, nil
}

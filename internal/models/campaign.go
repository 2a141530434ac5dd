package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Campaign enabled flag values (smallint in the DB).
const (
	CampaignEnabled  = 1
	CampaignDisabled = 0
)

type Campaign struct {
	ID        int             `json:"id"`
	Title     string          `json:"title"`
	Company   string          `json:"company"`
	Budget    decimal.Decimal `json:"budget"`
	Spending  decimal.Decimal `json:"spending"`
	IsEnabled int16           `json:"is_enabled"`
	StartDate time.Time       `json:"start_date"`
	EndDate   *time.Time      `json:"end_date,omitempty"`
}

// IsRunning reports whether the campaign is eligible to serve ads at the
// given instant. The same rule, in the same evaluation order, exists as a SQL
// predicate in RunningCampaignSQL; TestIsRunningMatchesSQLPredicate pins the
// two to each other. Change one only together with the other.
func (c *Campaign) IsRunning(now time.Time) bool {
	// 1) Manual switch
	if c.IsEnabled != CampaignEnabled {
		return false
	}

	// 2) Dates. Timestamps read back from timestamptz columns are already
	// instant-based; normalize everything to UTC so naive fixtures compare
	// correctly too.
	now = now.UTC()
	start := c.StartDate.UTC()
	if c.EndDate != nil && now.After(c.EndDate.UTC()) {
		return false
	}
	if now.Before(start) {
		return false
	}

	// 3) Budget: equality counts as exhausted.
	if c.Spending.GreaterThanOrEqual(c.Budget) {
		return false
	}

	return true
}

// RunningCampaignSQL returns the column-only boolean predicate equivalent to
// IsRunning, for inlining into WHERE clauses and joins. alias is the
// campaigns table alias used in the enclosing query.
func RunningCampaignSQL(alias string) string {
	return fmt.Sprintf(
		"%[1]s.is_enabled = 1 AND %[1]s.start_date <= now() AND (%[1]s.end_date IS NULL OR %[1]s.end_date > now()) AND %[1]s.spending < %[1]s.budget",
		alias,
	)
}

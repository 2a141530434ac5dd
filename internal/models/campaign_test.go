package models

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// sqlPredicateEval mirrors, clause for clause, the predicate produced by
// RunningCampaignSQL, evaluated in-process. It exists only to pin the Go rule
// and the SQL rule to each other.
func sqlPredicateEval(c *Campaign, now time.Time) bool {
	enabled := c.IsEnabled == 1
	started := !c.StartDate.UTC().After(now.UTC())
	notEnded := c.EndDate == nil || c.EndDate.UTC().After(now.UTC())
	underBudget := c.Spending.LessThan(c.Budget)
	return enabled && started && notEnded && underBudget
}

func TestIsRunningMatchesSQLPredicate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	enabledStates := []int16{CampaignEnabled, CampaignDisabled}
	starts := []time.Time{past, future}
	ends := []*time.Time{nil, &past, &future}
	spendings := []decimal.Decimal{
		decimal.RequireFromString("5.00"),  // < budget
		decimal.RequireFromString("10.00"), // == budget
		decimal.RequireFromString("15.00"), // > budget
	}
	budget := decimal.RequireFromString("10.00")

	for _, enabled := range enabledStates {
		for _, start := range starts {
			for _, end := range ends {
				for _, spending := range spendings {
					c := &Campaign{
						Title:     "t",
						Company:   "co",
						Budget:    budget,
						Spending:  spending,
						IsEnabled: enabled,
						StartDate: start,
						EndDate:   end,
					}
					got := c.IsRunning(now)
					want := sqlPredicateEval(c, now)
					if got != want {
						t.Errorf("IsRunning=%v but SQL predicate=%v for enabled=%d start=%v end=%v spending=%s",
							got, want, enabled, start, end, spending)
					}
				}
			}
		}
	}
}

func TestIsRunningBudgetExhaustedAtEquality(t *testing.T) {
	now := time.Now().UTC()
	c := &Campaign{
		Budget:    decimal.RequireFromString("10.00"),
		Spending:  decimal.RequireFromString("10.00"),
		IsEnabled: CampaignEnabled,
		StartDate: now.Add(-time.Hour),
		EndDate:   nil,
	}
	if c.IsRunning(now) {
		t.Error("campaign with spending == budget must not be running")
	}
}

func TestIsRunningShortCircuitOrder(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name     string
		campaign Campaign
		want     bool
	}{
		{
			"disabled wins over everything",
			Campaign{IsEnabled: CampaignDisabled, StartDate: past,
				Budget: dec("10"), Spending: dec("0")},
			false,
		},
		{
			"ended campaign",
			Campaign{IsEnabled: CampaignEnabled, StartDate: past, EndDate: &past,
				Budget: dec("10"), Spending: dec("0")},
			false,
		},
		{
			"end date is exclusive at now < end",
			Campaign{IsEnabled: CampaignEnabled, StartDate: past, EndDate: &future,
				Budget: dec("10"), Spending: dec("0")},
			true,
		},
		{
			"not yet started",
			Campaign{IsEnabled: CampaignEnabled, StartDate: future,
				Budget: dec("10"), Spending: dec("0")},
			false,
		},
		{
			"running",
			Campaign{IsEnabled: CampaignEnabled, StartDate: past,
				Budget: dec("10"), Spending: dec("9.99")},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.campaign.IsRunning(now); got != tt.want {
				t.Errorf("IsRunning() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRunningNaiveTimesTreatedAsUTC(t *testing.T) {
	// A fixture built in a non-UTC zone must evaluate by instant, not by
	// wall-clock fields.
	loc := time.FixedZone("UTC+5", 5*3600)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	startLocal := time.Date(2026, 3, 1, 16, 0, 0, 0, loc) // 11:00 UTC, in the past

	c := &Campaign{
		IsEnabled: CampaignEnabled,
		StartDate: startLocal,
		Budget:    dec("10"),
		Spending:  dec("0"),
	}
	if !c.IsRunning(now) {
		t.Error("campaign started 11:00 UTC must be running at 12:00 UTC")
	}
}

func TestRunningCampaignSQLUsesAlias(t *testing.T) {
	sql := RunningCampaignSQL("c")
	for _, clause := range []string{
		"c.is_enabled = 1",
		"c.start_date <= now()",
		"c.end_date IS NULL OR c.end_date > now()",
		"c.spending < c.budget",
	} {
		if !strings.Contains(sql, clause) {
			t.Errorf("predicate missing clause %q: %s", clause, sql)
		}
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"elaview/internal/domain/availability"
	"elaview/internal/domain/session"
	"elaview/internal/domain/shared/money"
	"elaview/internal/domain/spaces"
)

func TestMapSessionPricesAndChecks(t *testing.T) {
	today := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	s := session.Open("s-1", "sp-1", "adv-1", today)
	s.ApplyBlocked(s.BeginLoad(), availability.NewBlockedDates("2024-07-10"), nil)
	_, _ = s.SelectRange(time.Date(2024, 7, 13, 0, 0, 0, 0, time.UTC), time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), today)
	s.Details.ContentTypes = []string{"alcohol"}

	space := &spaces.Space{ID: "sp-1", DailyRate: money.Must(10000, "USD")}
	view := MapSession(s, space)

	assert.Equal(t, availability.StateRangeComplete, view.Selection.State)
	assert.Equal(t, "2024-07-13", view.Selection.Start)
	assert.Equal(t, "2024-07-15", view.Selection.End)
	assert.True(t, view.Selection.CanContinue)
	assert.Equal(t, 3, view.Pricing.Days)
	assert.Equal(t, int64(30000), view.Pricing.Total.Amount)
	assert.Equal(t, 300.0, view.Pricing.Total.Major)
	assert.True(t, view.Compliance.NeedsApproval)
	assert.True(t, view.Compliance.Sensitive)
	assert.False(t, view.Compliance.MustConfirm)
	assert.Empty(t, view.Compliance.Conflicts)
}

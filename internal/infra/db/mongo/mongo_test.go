package mongo

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainbooking "elaview/internal/domain/booking"
	"elaview/internal/domain/shared/daterange"
	"elaview/internal/domain/shared/money"
	domainspaces "elaview/internal/domain/spaces"
)

func TestBookingDocumentRoundTrip(t *testing.T) {
	created := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	b := &domainbooking.Booking{
		ID:           "b-1",
		SpaceID:      "sp-1",
		AdvertiserID: "adv-1",
		Range: daterange.Range{
			Start: time.Date(2024, 7, 13, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
		},
		Status:        domainbooking.StatusPending,
		Content:       domainbooking.Content{CampaignName: "Summer Sale", ContentTypes: []string{"retail"}},
		Total:         money.Must(30000, "USD"),
		NeedsApproval: true,
		CreatedAt:     created,
		UpdatedAt:     created,
		Version:       2,
	}

	raw, err := bson.Marshal(newBookingDocument(b))
	require.NoError(t, err)
	var doc bookingDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, "2024-07-13", doc.Start)

	got, err := doc.toAggregate()
	require.NoError(t, err)
	assert.Equal(t, b.Range, got.Range)
	assert.Equal(t, b.Total, got.Total)
	assert.Equal(t, b.Content, got.Content)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, int64(2), got.Version)
}

func TestBookingDocumentRejectsBadDates(t *testing.T) {
	_, err := bookingDocument{ID: "b-1", Start: "13/07/2024", End: "2024-07-15"}.toAggregate()
	assert.Error(t, err)
}

func TestSpaceDocumentRoundTrip(t *testing.T) {
	s := &domainspaces.Space{
		ID:                "sp-1",
		OwnerID:           "own-1",
		Name:              "Main St Billboard",
		Kind:              domainspaces.KindBillboard,
		DailyRate:         money.Must(10000, "USD"),
		ProhibitedContent: []string{"tobacco"},
	}
	got := newSpaceDocument(s).toAggregate()
	assert.Equal(t, s, got)
}

func TestListFilter(t *testing.T) {
	assert.Equal(t, bson.M{"space_id": "sp-1"}, listFilter("sp-1", nil))
	assert.Equal(t,
		bson.M{"space_id": "sp-1", "status": bson.M{"$in": []string{"confirmed", "active"}}},
		listFilter("sp-1", domainbooking.BlockingStatuses()),
	)
}

func TestClaimFilterIncludesStaleClaims(t *testing.T) {
	now := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	due := bson.M{"state": bson.M{"$in": []string{stateNew, stateFailed}}, "next_attempt_at": bson.M{"$lte": now}}
	assert.Equal(t, due, claimFilter(now, 0))

	f := claimFilter(now, time.Minute)
	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"state": stateClaimed, "claimed_at": bson.M{"$lte": now.Add(-time.Minute)}}, or[1])
}

func TestIsWriteConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"write conflict code", mongo.CommandError{Code: 112, Name: "WriteConflict"}, true},
		{"transient label", mongo.CommandError{Code: 251, Labels: []string{"TransientTransactionError"}}, true},
		{"wrapped", fmt.Errorf("update: %w", mongo.CommandError{Code: 112}), true},
		{"other server error", mongo.CommandError{Code: 11000}, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isWriteConflict(tt.err))
		})
	}
}

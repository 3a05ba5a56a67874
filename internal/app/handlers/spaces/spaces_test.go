package spaces

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elaview/internal/app/commands"
	"elaview/internal/app/dto"
	"elaview/internal/app/middleware"
	"elaview/internal/app/queries"
	domainbooking "elaview/internal/domain/booking"
	"elaview/internal/domain/shared/daterange"
	"elaview/internal/domain/shared/money"
	domainspaces "elaview/internal/domain/spaces"
	domainuser "elaview/internal/domain/user"
	"elaview/internal/infra/storage/memory"
)

var now = time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

func day(s string) time.Time {
	d, err := daterange.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newFactory(t *testing.T) *memory.Factory {
	t.Helper()
	spaces := memory.NewSpaceRepository()
	bookings := memory.NewBookingRepository()
	require.NoError(t, spaces.Save(context.Background(), &domainspaces.Space{
		ID: "sp-1", OwnerID: "own-1", Name: "Main St Billboard", DailyRate: money.Must(10000, "USD"),
	}))
	for _, b := range []struct {
		id, start, end string
		status         domainbooking.Status
	}{
		{"b-1", "2024-07-10", "2024-07-12", domainbooking.StatusConfirmed},
		{"b-2", "2024-07-20", "2024-07-21", domainbooking.StatusPending},
		{"b-3", "2024-06-28", "2024-07-02", domainbooking.StatusActive},
	} {
		require.NoError(t, bookings.Save(context.Background(), &domainbooking.Booking{
			ID:      domainbooking.BookingID(b.id),
			SpaceID: "sp-1",
			Range:   daterange.Range{Start: day(b.start), End: day(b.end)},
			Status:  b.status,
		}))
	}
	return &memory.Factory{SpacesRepo: spaces, BookingsRepo: bookings}
}

func TestCreateSpaceThroughBus(t *testing.T) {
	factory := newFactory(t)
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[CreateSpaceCommand, *dto.SpaceView](bus, createSpaceKey, &CreateSpaceHandler{Clock: func() time.Time { return now }})
	chain := middleware.ChainCommands(bus,
		middleware.Validation(middleware.NewStructValidator()),
		middleware.Authorization(middleware.RoleAuthorizer{}),
		middleware.Transaction(factory, nil),
	)
	owner := middleware.ContextWithPrincipal(context.Background(), domainuser.Principal{ID: "own-9", Role: domainuser.RolePropertyOwner})
	advertiser := middleware.ContextWithPrincipal(context.Background(), domainuser.Principal{ID: "adv-1", Role: domainuser.RoleAdvertiser})

	cmd := CreateSpaceCommand{OwnerID: "own-9", Name: " Transit Shelter ", Kind: "transit", DailyRate: 45.5, ProhibitedContent: []string{"Tobacco", "tobacco"}}

	_, err := chain.Dispatch(advertiser, cmd)
	assert.ErrorIs(t, err, middleware.ErrForbidden)

	view, err := commands.Dispatch[CreateSpaceCommand, *dto.SpaceView](owner, chain, cmd)
	require.NoError(t, err)
	assert.Equal(t, "Transit Shelter", view.Name)
	assert.Equal(t, "transit", view.Kind)
	assert.Equal(t, int64(4550), view.DailyRate.Amount)
	assert.Equal(t, "USD", view.DailyRate.Currency)
	assert.Equal(t, []string{"tobacco"}, view.ProhibitedContent)

	stored, err := factory.SpacesRepo.ByID(context.Background(), domainspaces.SpaceID(view.ID))
	require.NoError(t, err)
	assert.Equal(t, domainspaces.OwnerID("own-9"), stored.OwnerID)

	bad := cmd
	bad.DailyRate = 0
	_, err = chain.Dispatch(owner, bad)
	assert.ErrorIs(t, err, middleware.ErrInvalidMessage)

	bad = cmd
	bad.Kind = "blimp"
	_, err = chain.Dispatch(owner, bad)
	assert.ErrorIs(t, err, domainspaces.ErrInvalidKind)
}

func TestGetSpace(t *testing.T) {
	h := &GetSpaceHandler{UoWFactory: newFactory(t)}
	view, err := h.Handle(context.Background(), GetSpaceQuery{SpaceID: "sp-1"})
	require.NoError(t, err)
	assert.Equal(t, "Main St Billboard", view.Name)
	assert.Equal(t, 100.0, view.DailyRate.Major)
	assert.Empty(t, view.ProhibitedContent)

	_, err = h.Handle(context.Background(), GetSpaceQuery{SpaceID: "nope"})
	assert.ErrorIs(t, err, domainspaces.ErrSpaceNotFound)
}

func TestGetAvailability(t *testing.T) {
	factory := newFactory(t)
	bus := queries.NewInMemoryBus()
	queries.RegisterHandler[GetAvailabilityQuery, dto.AvailabilityView](bus, getAvailabilityKey, &GetAvailabilityHandler{UoWFactory: factory, Clock: func() time.Time { return now }})

	tests := []struct {
		name    string
		query   GetAvailabilityQuery
		want    []string
		wantErr error
	}{
		{
			name:  "default window starts today",
			query: GetAvailabilityQuery{SpaceID: "sp-1"},
			want:  []string{"2024-07-01", "2024-07-02", "2024-07-10", "2024-07-11", "2024-07-12"},
		},
		{
			name:  "explicit window clips ranges",
			query: GetAvailabilityQuery{SpaceID: "sp-1", From: day("2024-07-11"), To: day("2024-07-31")},
			want:  []string{"2024-07-11", "2024-07-12"},
		},
		{
			name:  "pending bookings never block",
			query: GetAvailabilityQuery{SpaceID: "sp-1", From: day("2024-07-20"), To: day("2024-07-21")},
			want:  []string{},
		},
		{
			name:    "window too large",
			query:   GetAvailabilityQuery{SpaceID: "sp-1", From: day("2024-07-01"), To: day("2025-12-31")},
			wantErr: ErrWindowTooLarge,
		},
		{
			name:    "inverted window",
			query:   GetAvailabilityQuery{SpaceID: "sp-1", From: day("2024-07-10"), To: day("2024-07-01")},
			wantErr: daterange.ErrInvalidRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := queries.Ask[GetAvailabilityQuery, dto.AvailabilityView](context.Background(), bus, tt.query)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, view.BlockedDates)
		})
	}
}

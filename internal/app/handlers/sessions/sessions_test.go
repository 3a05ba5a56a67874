package sessions

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elaview/internal/app/autosave"
	"elaview/internal/domain/availability"
	domainbooking "elaview/internal/domain/booking"
	"elaview/internal/domain/draft"
	"elaview/internal/domain/session"
	"elaview/internal/domain/shared/daterange"
	"elaview/internal/domain/shared/money"
	domainspaces "elaview/internal/domain/spaces"
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

// gatedBookings holds ListBySpace until the gate is closed.
type gatedBookings struct {
	*memory.BookingRepository
	gate chan struct{}
	err  error
}

func (g *gatedBookings) ListBySpace(ctx context.Context, id domainspaces.SpaceID, statuses []domainbooking.Status) ([]*domainbooking.Booking, error) {
	if g.gate != nil {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.BookingRepository.ListBySpace(ctx, id, statuses)
}

type fixture struct {
	base     Base
	bookings *gatedBookings
	loads    *AvailabilityLoads
	details  *DetailsCache
	open     *OpenSessionHandler
}

func newFixture(t *testing.T, policy availability.LoadPolicy) *fixture {
	t.Helper()
	ctx := context.Background()
	spacesRepo := memory.NewSpaceRepository()
	bookings := &gatedBookings{BookingRepository: memory.NewBookingRepository()}
	factory := &memory.Factory{SpacesRepo: spacesRepo, BookingsRepo: bookings}
	clock := func() time.Time { return now }

	require.NoError(t, spacesRepo.Save(ctx, &domainspaces.Space{
		ID:                "sp-1",
		OwnerID:           "own-1",
		Name:              "Main St Billboard",
		Kind:              domainspaces.KindBillboard,
		DailyRate:         money.Must(10000, "USD"),
		ProhibitedContent: []string{"tobacco"},
	}))
	require.NoError(t, bookings.BookingRepository.Save(ctx, &domainbooking.Booking{
		ID:      "b-1",
		SpaceID: "sp-1",
		Range:   daterange.Range{Start: day("2024-07-10"), End: day("2024-07-12")},
		Status:  domainbooking.StatusConfirmed,
		Total:   money.Must(30000, "USD"),
	}))

	base := Base{
		Sessions:   memory.NewSessionStore(2*time.Hour, clock),
		UoWFactory: factory,
		Clock:      clock,
	}
	loads := &AvailabilityLoads{UoWFactory: factory, Sessions: base.Sessions, Policy: policy, Timeout: time.Second}
	details := autosave.New[draft.Details](memory.NewKV(clock), "details", time.Hour)
	return &fixture{
		base:     base,
		bookings: bookings,
		loads:    loads,
		details:  details,
		open:     &OpenSessionHandler{Base: base, Loads: loads, Details: details},
	}
}

func (f *fixture) openSession(t *testing.T) string {
	t.Helper()
	res, err := f.open.Handle(context.Background(), OpenSessionCommand{SpaceID: "sp-1", AdvertiserID: "adv-1"})
	require.NoError(t, err)
	return res.SessionID
}

func (f *fixture) click(t *testing.T, id, date string) (availability.Outcome, error) {
	t.Helper()
	h := &ClickDayHandler{Base: f.base}
	view, err := h.Handle(context.Background(), ClickDayCommand{SessionID: id, AdvertiserID: "adv-1", Date: day(date)})
	if err != nil {
		return "", err
	}
	return view.Outcome, nil
}

func TestClicksWaitForAvailability(t *testing.T) {
	f := newFixture(t, availability.PolicyFailOpen)
	f.bookings.gate = make(chan struct{})

	res, err := f.open.Handle(context.Background(), OpenSessionCommand{SpaceID: "sp-1", AdvertiserID: "adv-1"})
	require.NoError(t, err)
	assert.True(t, res.Session.Loading)

	_, err = f.click(t, res.SessionID, "2024-07-13")
	assert.ErrorIs(t, err, session.ErrAvailabilityLoading)

	close(f.bookings.gate)
	f.loads.Wait()

	outcome, err := f.click(t, res.SessionID, "2024-07-13")
	require.NoError(t, err)
	assert.Equal(t, availability.OutcomeStartSet, outcome)
}

func TestSelectionScenarios(t *testing.T) {
	f := newFixture(t, availability.PolicyFailOpen)
	id := f.openSession(t)
	f.loads.Wait()

	outcome, err := f.click(t, id, "2024-07-11")
	require.NoError(t, err)
	assert.Equal(t, availability.OutcomeIgnored, outcome, "booked days are not clickable")

	rangeHandler := &SelectRangeHandler{Base: f.base}
	view, err := rangeHandler.Handle(context.Background(), SelectRangeCommand{
		SessionID: id, AdvertiserID: "adv-1", Start: day("2024-07-09"), End: day("2024-07-11"),
	})
	require.NoError(t, err)
	assert.Equal(t, availability.OutcomeConflict, view.Outcome)
	assert.Equal(t, availability.StateEmpty, view.State)
	assert.Equal(t, availability.ConflictMessage, view.Conflict)
	assert.False(t, view.CanContinue)

	_, err = f.click(t, id, "2024-07-13")
	require.NoError(t, err)
	outcome, err = f.click(t, id, "2024-07-15")
	require.NoError(t, err)
	assert.Equal(t, availability.OutcomeCompleted, outcome)

	get := &GetSessionHandler{Base: f.base}
	sv, err := get.Handle(context.Background(), GetSessionQuery{SessionID: id, AdvertiserID: "adv-1"})
	require.NoError(t, err)
	assert.True(t, sv.Selection.CanContinue)
	assert.Empty(t, sv.Selection.Conflict)
	assert.Equal(t, 3, sv.Pricing.Days)
	assert.Equal(t, 300.0, sv.Pricing.Total.Major)

	reset := &ResetSelectionHandler{Base: f.base}
	rv, err := reset.Handle(context.Background(), ResetSelectionCommand{SessionID: id, AdvertiserID: "adv-1"})
	require.NoError(t, err)
	assert.Equal(t, availability.StateEmpty, rv.State)
}

func TestHoverPreviewInCalendar(t *testing.T) {
	f := newFixture(t, availability.PolicyFailOpen)
	id := f.openSession(t)
	f.loads.Wait()

	_, err := f.click(t, id, "2024-07-20")
	require.NoError(t, err)
	hover := &HoverDayHandler{Base: f.base}
	_, err = hover.Handle(context.Background(), HoverDayCommand{SessionID: id, AdvertiserID: "adv-1", Date: day("2024-07-22")})
	require.NoError(t, err)

	cal := &GetCalendarHandler{Base: f.base}
	view, err := cal.Handle(context.Background(), GetCalendarQuery{SessionID: id, AdvertiserID: "adv-1", Month: day("2024-07-01")})
	require.NoError(t, err)
	statuses := map[string]availability.DayStatus{}
	for _, d := range view.Days {
		statuses[d.Date] = d.Status
	}
	assert.Equal(t, availability.DayPast, statuses["2024-06-30"])
	assert.Equal(t, availability.DayBooked, statuses["2024-07-11"])
	assert.Equal(t, availability.DaySelectedStart, statuses["2024-07-20"])
	assert.Equal(t, availability.DayInRange, statuses["2024-07-21"])
	assert.Equal(t, availability.DayAvailable, statuses["2024-07-23"])
	assert.Equal(t, "2024-07", view.Month)
}

func TestLoadFailurePolicies(t *testing.T) {
	open := newFixture(t, availability.PolicyFailOpen)
	open.bookings.err = errors.New("bookings service down")
	id := open.openSession(t)
	open.loads.Wait()
	outcome, err := open.click(t, id, "2024-07-11")
	require.NoError(t, err)
	assert.Equal(t, availability.OutcomeStartSet, outcome, "fail-open proceeds without blocked dates")

	closed := newFixture(t, availability.PolicyFailClosed)
	closed.bookings.err = errors.New("bookings service down")
	id = closed.openSession(t)
	closed.loads.Wait()
	_, err = closed.click(t, id, "2024-07-13")
	assert.ErrorIs(t, err, availability.ErrAvailabilityUnknown)

	get := &GetSessionHandler{Base: closed.base}
	sv, err := get.Handle(context.Background(), GetSessionQuery{SessionID: id, AdvertiserID: "adv-1"})
	require.NoError(t, err)
	assert.True(t, sv.AvailabilityUnknown)
}

func TestLateLoadAfterCloseIsDropped(t *testing.T) {
	f := newFixture(t, availability.PolicyFailOpen)
	f.bookings.gate = make(chan struct{})
	id := f.openSession(t)

	closer := &CloseSessionHandler{Base: f.base, Details: f.details}
	_, err := closer.Handle(context.Background(), CloseSessionCommand{SessionID: id, AdvertiserID: "adv-1"})
	require.NoError(t, err)

	close(f.bookings.gate)
	f.loads.Wait()

	_, err = f.base.Sessions.Get(context.Background(), session.SessionID(id))
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestDetailsAutosaveRoundTrip(t *testing.T) {
	f := newFixture(t, availability.PolicyFailOpen)
	id := f.openSession(t)
	f.loads.Wait()

	save := &SaveDetailsHandler{Base: f.base, Details: f.details}
	res, err := save.Handle(context.Background(), SaveDetailsCommand{
		SessionID: id, AdvertiserID: "adv-1",
		Details: draft.Details{CampaignName: "  Summer Sale ", ContentTypes: []string{"Retail", "retail"}},
	})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Brand name is required", res.Fields["brand_name"])
	assert.Equal(t, "Summer Sale", res.Details.CampaignName)
	assert.Equal(t, []string{"retail"}, res.Details.ContentTypes)

	closer := &CloseSessionHandler{Base: f.base, Details: f.details}
	_, err = closer.Handle(context.Background(), CloseSessionCommand{SessionID: id, AdvertiserID: "adv-1"})
	require.NoError(t, err)

	reopened := f.openSession(t)
	restore := &RestoreDetailsHandler{Base: f.base, Details: f.details}
	got, err := restore.Handle(context.Background(), RestoreDetailsQuery{SessionID: reopened, AdvertiserID: "adv-1"})
	require.NoError(t, err)
	assert.Equal(t, "Summer Sale", got.CampaignName)

	s, err := f.base.Sessions.Get(context.Background(), session.SessionID(reopened))
	require.NoError(t, err)
	assert.Equal(t, "Summer Sale", s.Details.CampaignName, "reopening restores saved progress")

	_, err = closer.Handle(context.Background(), CloseSessionCommand{SessionID: reopened, AdvertiserID: "adv-1", Discard: true})
	require.NoError(t, err)
	_, err = f.details.Restore(context.Background(), DraftScope("adv-1", "sp-1"))
	assert.ErrorIs(t, err, autosave.ErrNotFound)
}

func TestSessionsBelongToTheirAdvertiser(t *testing.T) {
	f := newFixture(t, availability.PolicyFailOpen)
	id := f.openSession(t)
	f.loads.Wait()

	h := &ClickDayHandler{Base: f.base}
	_, err := h.Handle(context.Background(), ClickDayCommand{SessionID: id, AdvertiserID: "adv-2", Date: day("2024-07-13")})
	assert.ErrorIs(t, err, session.ErrNotSessionOwner)

	_, err = f.open.Handle(context.Background(), OpenSessionCommand{SpaceID: "missing", AdvertiserID: "adv-1"})
	assert.ErrorIs(t, err, domainspaces.ErrSpaceNotFound)
}

type recordingStore struct {
	key  string
	body string
}

func (r *recordingStore) Upload(_ context.Context, key string, reader io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	r.key = key
	r.body = string(data)
	return "https://cdn.example/" + key, nil
}

func TestAttachCreative(t *testing.T) {
	f := newFixture(t, availability.PolicyFailOpen)
	id := f.openSession(t)
	store := &recordingStore{}

	h := &AttachCreativeHandler{Base: f.base, Store: store}
	res, err := h.Handle(context.Background(), AttachCreativeCommand{
		SessionID: id, AdvertiserID: "adv-1", Filename: "Banner.PNG", ContentType: "image/png", Reader: strings.NewReader("png"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(store.key, "creatives/sp-1/"+id+"/"))
	assert.True(t, strings.HasSuffix(store.key, ".png"))
	assert.Equal(t, "png", store.body)

	s, err := f.base.Sessions.Get(context.Background(), session.SessionID(id))
	require.NoError(t, err)
	assert.Equal(t, res.CreativeURL, s.CreativeURL)

	_, err = (&AttachCreativeHandler{Base: f.base}).Handle(context.Background(), AttachCreativeCommand{SessionID: id, AdvertiserID: "adv-1"})
	assert.ErrorIs(t, err, ErrCreativeStoreMissing)
	f.loads.Wait()
}

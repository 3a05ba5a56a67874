package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"elaview/internal/app/uow"
	domainbooking "elaview/internal/domain/booking"
	"elaview/internal/domain/shared/daterange"
	"elaview/internal/domain/shared/money"
	domainspaces "elaview/internal/domain/spaces"
)

type fixtures struct {
	Spaces   []spaceFixture   `json:"spaces"`
	Bookings []bookingFixture `json:"bookings"`
}

type spaceFixture struct {
	ID                string   `json:"id"`
	OwnerID           string   `json:"owner_id"`
	Name              string   `json:"name"`
	Kind              string   `json:"kind"`
	DailyRate         float64  `json:"daily_rate"`
	Currency          string   `json:"currency"`
	ProhibitedContent []string `json:"prohibited_content"`
}

type bookingFixture struct {
	ID           string   `json:"id"`
	SpaceID      string   `json:"space_id"`
	AdvertiserID string   `json:"advertiser_id"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	Status       string   `json:"status"`
	CampaignName string   `json:"campaign_name"`
	BrandName    string   `json:"brand_name"`
	ContentTypes []string `json:"content_type"`
}

// loadFixtures writes the spaces and bookings in path through one unit of
// work. Bookings that already exist are left untouched.
func loadFixtures(ctx context.Context, factory uow.UoWFactory, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("fixtures file empty", "path", path)
		return nil
	}
	var fx fixtures
	if err := json.Unmarshal(data, &fx); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	execCtx := uow.Enter(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	now := time.Now().UTC()
	rates := make(map[domainspaces.SpaceID]money.Money, len(fx.Spaces))
	for _, sf := range fx.Spaces {
		space, err := sf.toSpace(now)
		if err != nil {
			return fmt.Errorf("space %s: %w", sf.ID, err)
		}
		if err := unit.Spaces().Save(execCtx, space); err != nil {
			return fmt.Errorf("save space %s: %w", sf.ID, err)
		}
		rates[space.ID] = space.DailyRate
	}

	loaded := 0
	for _, bf := range fx.Bookings {
		id := domainbooking.BookingID(bf.ID)
		if _, err := unit.Bookings().ByID(execCtx, id); err == nil {
			continue
		} else if !errors.Is(err, domainbooking.ErrBookingNotFound) {
			return fmt.Errorf("lookup booking %s: %w", bf.ID, err)
		}
		rate, ok := rates[domainspaces.SpaceID(bf.SpaceID)]
		if !ok {
			space, err := unit.Spaces().ByID(execCtx, domainspaces.SpaceID(bf.SpaceID))
			if err != nil {
				return fmt.Errorf("booking %s: %w", bf.ID, err)
			}
			rate = space.DailyRate
		}
		booking, err := bf.toBooking(rate, now)
		if err != nil {
			return fmt.Errorf("booking %s: %w", bf.ID, err)
		}
		if err := unit.Bookings().Save(execCtx, booking); err != nil {
			return fmt.Errorf("save booking %s: %w", bf.ID, err)
		}
		loaded++
	}

	if err := unit.Commit(ctx); err != nil {
		return err
	}
	committed = true
	logger.Info("fixtures loaded", "path", path, "spaces", len(fx.Spaces), "bookings", loaded)
	return nil
}

func (f spaceFixture) toSpace(now time.Time) (*domainspaces.Space, error) {
	kind, err := domainspaces.ParseKind(f.Kind)
	if err != nil {
		return nil, err
	}
	currency := f.Currency
	if currency == "" {
		currency = "USD"
	}
	rate, err := money.FromMajor(f.DailyRate, currency)
	if err != nil {
		return nil, err
	}
	return domainspaces.NewSpace(domainspaces.CreateParams{
		ID:                domainspaces.SpaceID(f.ID),
		OwnerID:           domainspaces.OwnerID(f.OwnerID),
		Name:              f.Name,
		Kind:              kind,
		DailyRate:         rate,
		ProhibitedContent: f.ProhibitedContent,
		Now:               now,
	})
}

// toBooking builds a pending booking and walks it to the fixture's status.
// Seeded transitions are history, so their events are dropped.
func (f bookingFixture) toBooking(rate money.Money, now time.Time) (*domainbooking.Booking, error) {
	start, err := daterange.ParseDay(f.Start)
	if err != nil {
		return nil, err
	}
	end, err := daterange.ParseDay(f.End)
	if err != nil {
		return nil, err
	}
	r, err := daterange.New(start, end)
	if err != nil {
		return nil, err
	}
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:           domainbooking.BookingID(f.ID),
		SpaceID:      domainspaces.SpaceID(f.SpaceID),
		AdvertiserID: f.AdvertiserID,
		Range:        r,
		Content: domainbooking.Content{
			CampaignName: f.CampaignName,
			BrandName:    f.BrandName,
			ContentTypes: f.ContentTypes,
		},
		Total:     rate.Multiply(int64(r.Len())),
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	status := domainbooking.StatusPending
	if f.Status != "" {
		parsed, ok := domainbooking.ParseStatus(f.Status)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", f.Status)
		}
		status = parsed
	}
	var steps []func(time.Time) error
	switch status {
	case domainbooking.StatusConfirmed:
		steps = []func(time.Time) error{b.Confirm}
	case domainbooking.StatusActive:
		steps = []func(time.Time) error{b.Confirm, b.Activate}
	case domainbooking.StatusCompleted:
		steps = []func(time.Time) error{b.Confirm, b.Activate, b.Complete}
	case domainbooking.StatusCancelled:
		steps = []func(time.Time) error{b.Cancel}
	}
	for _, step := range steps {
		if err := step(now); err != nil {
			return nil, err
		}
	}
	b.ClearEvents()
	return b, nil
}

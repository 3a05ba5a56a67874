package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"elaview/internal/domain/shared/daterange"
	"elaview/internal/domain/shared/events"
	"elaview/internal/domain/shared/money"
	"elaview/internal/domain/spaces"
)

var (
	ErrBookingNotFound    = errors.New("booking: not found")
	ErrInvalidState       = errors.New("booking: invalid state transition")
	ErrDatesUnavailable   = errors.New("booking: requested dates are no longer available")
	ErrAdvertiserRequired = errors.New("booking: advertiser id required")
	ErrStartInPast        = errors.New("booking: start date is in the past")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// BlockingStatuses lists the statuses that make a booking occupy its dates.
func BlockingStatuses() []Status {
	return []Status{StatusConfirmed, StatusActive}
}

func (s Status) BlocksAvailability() bool {
	return s == StatusConfirmed || s == StatusActive
}

func ParseStatus(value string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	switch s {
	case StatusPending, StatusConfirmed, StatusActive, StatusCancelled, StatusCompleted:
		return s, true
	}
	return "", false
}

// Content describes the campaign the advertiser wants to run on the space.
type Content struct {
	CampaignName string
	BrandName    string
	ContentTypes []string
	Description  string
	Message      string
	CreativeURL  string
}

type Booking struct {
	ID               BookingID
	SpaceID          spaces.SpaceID
	AdvertiserID     string
	Range            daterange.Range
	Status           Status
	Content          Content
	Total            money.Money
	NeedsApproval    bool
	SensitiveContent bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListBySpace(ctx context.Context, spaceID spaces.SpaceID, statuses []Status) ([]*Booking, error)
}

type CreateParams struct {
	ID               BookingID
	SpaceID          spaces.SpaceID
	AdvertiserID     string
	Range            daterange.Range
	Content          Content
	Total            money.Money
	NeedsApproval    bool
	SensitiveContent bool
	CreatedAt        time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.AdvertiserID) == "" {
		return nil, ErrAdvertiserRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if params.Total.Amount <= 0 {
		return nil, errors.New("booking: total must be positive")
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:               params.ID,
		SpaceID:          params.SpaceID,
		AdvertiserID:     params.AdvertiserID,
		Range:            params.Range,
		Status:           StatusPending,
		Content:          params.Content,
		Total:            params.Total,
		NeedsApproval:    params.NeedsApproval,
		SensitiveContent: params.SensitiveContent,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	b.Record(BookingRequested{
		BookingID:     b.ID,
		SpaceID:       b.SpaceID,
		AdvertiserID:  b.AdvertiserID,
		StartDate:     daterange.Key(b.Range.Start),
		EndDate:       daterange.Key(b.Range.End),
		Total:         b.Total,
		NeedsApproval: b.NeedsApproval,
		At:            now,
	})
	return b, nil
}

// Confirm accepts a pending booking. The caller re-validates availability first.
func (b *Booking) Confirm(now time.Time) error {
	return b.transition(StatusConfirmed, now, StatusPending)
}

func (b *Booking) Activate(now time.Time) error {
	return b.transition(StatusActive, now, StatusConfirmed)
}

func (b *Booking) Complete(now time.Time) error {
	return b.transition(StatusCompleted, now, StatusActive)
}

func (b *Booking) Cancel(now time.Time) error {
	return b.transition(StatusCancelled, now, StatusPending, StatusConfirmed, StatusActive)
}

func (b *Booking) transition(to Status, now time.Time, from ...Status) error {
	allowed := false
	for _, s := range from {
		if b.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrInvalidState
	}
	prev := b.Status
	b.Status = to
	b.UpdatedAt = now.UTC()
	b.Record(BookingStatusChanged{BookingID: b.ID, SpaceID: b.SpaceID, From: prev, To: to, At: b.UpdatedAt})
	return nil
}

// EnsureAvailable fails with ErrDatesUnavailable when r overlaps any blocking
// booking in existing other than exclude.
func EnsureAvailable(r daterange.Range, existing []*Booking, exclude BookingID) error {
	for _, other := range existing {
		if other == nil || other.ID == exclude || !other.Status.BlocksAvailability() {
			continue
		}
		if other.Range.Overlaps(r) {
			return ErrDatesUnavailable
		}
	}
	return nil
}

// ValidateStart rejects ranges starting before today.
func ValidateStart(r daterange.Range, now time.Time) error {
	if r.Start.Before(daterange.Day(now)) {
		return ErrStartInPast
	}
	return nil
}

package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"elaview/internal/domain/booking"
	"elaview/internal/domain/spaces"
)

var ErrAvailabilityUnknown = errors.New("availability: existing bookings could not be loaded")

type BookingLister interface {
	ListBySpace(ctx context.Context, spaceID spaces.SpaceID, statuses []booking.Status) ([]*booking.Booking, error)
}

// LoadPolicy decides what a failed bookings fetch means for availability.
type LoadPolicy string

const (
	// PolicyFailOpen treats unknown dates as available; the booking request is re-validated server-side.
	PolicyFailOpen LoadPolicy = "fail_open"
	// PolicyFailClosed refuses selection until availability is confirmed.
	PolicyFailClosed LoadPolicy = "fail_closed"
)

func ParseLoadPolicy(value string) (LoadPolicy, error) {
	switch LoadPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyFailOpen:
		return PolicyFailOpen, nil
	case PolicyFailClosed:
		return PolicyFailClosed, nil
	}
	return "", fmt.Errorf("availability: unknown load policy %q", value)
}

// Loader builds the blocked-date set of a space from its confirmed and active bookings.
type Loader struct {
	Bookings BookingLister
	Policy   LoadPolicy
	Logger   *slog.Logger
}

func (l Loader) Load(ctx context.Context, spaceID spaces.SpaceID) (BlockedDates, error) {
	if l.Bookings == nil {
		return l.failed(spaceID, errors.New("availability: booking lister not configured"))
	}
	items, err := l.Bookings.ListBySpace(ctx, spaceID, booking.BlockingStatuses())
	if err != nil {
		return l.failed(spaceID, err)
	}
	blocked := Expand(items)
	if l.Logger != nil {
		l.Logger.Debug("availability loaded", "space_id", spaceID, "bookings", len(items), "blocked_days", len(blocked))
	}
	return blocked, nil
}

func (l Loader) failed(spaceID spaces.SpaceID, err error) (BlockedDates, error) {
	if l.Logger != nil {
		l.Logger.Warn("availability load failed", "space_id", spaceID, "policy", l.policy(), "error", err)
	}
	if l.policy() == PolicyFailClosed {
		return nil, fmt.Errorf("%w: %v", ErrAvailabilityUnknown, err)
	}
	return BlockedDates{}, nil
}

func (l Loader) policy() LoadPolicy {
	if l.Policy == "" {
		return PolicyFailOpen
	}
	return l.Policy
}

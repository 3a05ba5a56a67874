package booking

import (
	"time"

	"elaview/internal/domain/shared/money"
	"elaview/internal/domain/spaces"
)

type BookingRequested struct {
	BookingID     BookingID
	SpaceID       spaces.SpaceID
	AdvertiserID  string
	StartDate     string
	EndDate       string
	Total         money.Money
	NeedsApproval bool
	At            time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingStatusChanged struct {
	BookingID BookingID
	SpaceID   spaces.SpaceID
	From      Status
	To        Status
	At        time.Time
}

func (e BookingStatusChanged) EventName() string     { return "booking." + string(e.To) }
func (e BookingStatusChanged) AggregateID() string   { return string(e.BookingID) }
func (e BookingStatusChanged) OccurredAt() time.Time { return e.At }

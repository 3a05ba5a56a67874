package availability

import (
	"sort"
	"time"

	"elaview/internal/domain/booking"
	"elaview/internal/domain/shared/daterange"
)

// BlockedDates is a flat set of yyyy-MM-dd days already taken on a space.
type BlockedDates map[string]struct{}

func NewBlockedDates(keys ...string) BlockedDates {
	b := make(BlockedDates, len(keys))
	for _, k := range keys {
		b[k] = struct{}{}
	}
	return b
}

// Expand turns every confirmed or active booking into the individual days it covers.
func Expand(bookings []*booking.Booking) BlockedDates {
	blocked := make(BlockedDates)
	for _, b := range bookings {
		if b == nil || !b.Status.BlocksAvailability() {
			continue
		}
		blocked.Add(b.Range)
	}
	return blocked
}

func (b BlockedDates) Add(r daterange.Range) {
	for _, k := range r.Keys() {
		b[k] = struct{}{}
	}
}

func (b BlockedDates) Has(day time.Time) bool {
	_, ok := b[daterange.Key(day)]
	return ok
}

// AnyIn reports whether at least one blocked day falls inside the closed range.
func (b BlockedDates) AnyIn(r daterange.Range) bool {
	if len(b) == 0 {
		return false
	}
	if r.Len() <= len(b) {
		for _, k := range r.Keys() {
			if _, ok := b[k]; ok {
				return true
			}
		}
		return false
	}
	for k := range b {
		d, err := daterange.ParseDay(k)
		if err != nil {
			continue
		}
		if r.Contains(d) {
			return true
		}
	}
	return false
}

// Within returns the sorted blocked days inside r.
func (b BlockedDates) Within(r daterange.Range) []string {
	out := make([]string, 0)
	for k := range b {
		d, err := daterange.ParseDay(k)
		if err != nil {
			continue
		}
		if r.Contains(d) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (b BlockedDates) Sorted() []string {
	out := make([]string, 0, len(b))
	for k := range b {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

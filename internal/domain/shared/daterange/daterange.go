package daterange

import (
	"errors"
	"time"
)

// Layout is the wire format of a calendar day.
const Layout = "2006-01-02"

var (
	ErrInvalidRange = errors.New("daterange: end must not be before start")
	ErrInvalidDay   = errors.New("daterange: invalid calendar day")
)

// Day truncates t to midnight UTC of the calendar date it carries in its own location.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a yyyy-MM-dd string into a UTC calendar day.
func ParseDay(value string) (time.Time, error) {
	t, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, ErrInvalidDay
	}
	return t, nil
}

// Key formats a day for use in blocked-date sets and payloads.
func Key(t time.Time) string {
	return Day(t).Format(Layout)
}

// Range represents a closed interval of calendar days [Start, End].
type Range struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (Range, error) {
	r := Range{Start: Day(start), End: Day(end)}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Ordered builds a range from two days in either order.
func Ordered(a, b time.Time) Range {
	a, b = Day(a), Day(b)
	if b.Before(a) {
		a, b = b, a
	}
	return Range{Start: a, End: b}
}

func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return ErrInvalidRange
	}
	if r.End.Before(r.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Len is the number of calendar days in the range, bounds included.
func (r Range) Len() int {
	if r.Validate() != nil {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

func (r Range) Days() []time.Time {
	n := r.Len()
	out := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.Start.AddDate(0, 0, i))
	}
	return out
}

func (r Range) Keys() []string {
	days := r.Days()
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Format(Layout)
	}
	return out
}

func (r Range) Contains(t time.Time) bool {
	t = Day(t)
	return !t.Before(r.Start) && !t.After(r.End)
}

func (r Range) Overlaps(other Range) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

package availability

import (
	"time"

	"elaview/internal/domain/shared/daterange"
)

type DayStatus string

const (
	DayPast           DayStatus = "past"
	DayBooked         DayStatus = "booked"
	DaySelectedStart  DayStatus = "selected-start"
	DaySelectedEnd    DayStatus = "selected-end"
	DaySelectedMiddle DayStatus = "selected-middle"
	DayInRange        DayStatus = "in-range"
	DayAvailable      DayStatus = "available"
)

// Selectable reports whether a day with this status accepts clicks.
func (s DayStatus) Selectable() bool {
	return s != DayPast && s != DayBooked
}

// Selection holds the two endpoints of a range pick. A zero time means unset.
type Selection struct {
	Start time.Time
	End   time.Time
}

func (s Selection) HasStart() bool { return !s.Start.IsZero() }
func (s Selection) HasEnd() bool   { return !s.End.IsZero() }

func (s Selection) Complete() bool {
	return s.HasStart() && s.HasEnd()
}

// Range returns the selected interval, ordering the endpoints if needed.
func (s Selection) Range() (daterange.Range, bool) {
	if !s.Complete() {
		return daterange.Range{}, false
	}
	return daterange.Ordered(s.Start, s.End), true
}

// Classify is a pure function of its inputs; the first matching rule wins.
func Classify(day time.Time, sel Selection, hover time.Time, blocked BlockedDates, today time.Time) DayStatus {
	day = daterange.Day(day)
	if day.Before(daterange.Day(today)) {
		return DayPast
	}
	if blocked.Has(day) {
		return DayBooked
	}
	if sel.HasStart() && day.Equal(sel.Start) {
		return DaySelectedStart
	}
	if sel.HasEnd() && day.Equal(sel.End) {
		return DaySelectedEnd
	}
	if r, ok := sel.Range(); ok && r.Contains(day) {
		return DaySelectedMiddle
	}
	if sel.HasStart() && !sel.HasEnd() && !hover.IsZero() {
		hover = daterange.Day(hover)
		if hover.After(sel.Start) && (daterange.Range{Start: sel.Start, End: hover}).Contains(day) {
			return DayInRange
		}
	}
	return DayAvailable
}

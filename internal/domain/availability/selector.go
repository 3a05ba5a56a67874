package availability

import (
	"time"

	"elaview/internal/domain/shared/daterange"
)

// ConflictMessage is shown when a tentative range crosses a blocked day.
const ConflictMessage = "Your selection includes unavailable dates. Please choose a different date range."

type State string

const (
	StateEmpty         State = "empty"
	StateStartPicked   State = "start_picked"
	StateRangeComplete State = "range_complete"
)

type Outcome string

const (
	OutcomeIgnored    Outcome = "ignored"
	OutcomeStartSet   Outcome = "start_set"
	OutcomeStartMoved Outcome = "start_moved"
	OutcomeCompleted  Outcome = "completed"
	OutcomeConflict   Outcome = "conflict"
)

// RangeSelector drives the two-click range gesture: pick a start, then an end.
type RangeSelector struct {
	Selection Selection
	Hover     time.Time
	Conflict  string
}

func (s *RangeSelector) State() State {
	switch {
	case s.Selection.Complete():
		return StateRangeComplete
	case s.Selection.HasStart():
		return StateStartPicked
	default:
		return StateEmpty
	}
}

// Click applies one day click. Past and booked days leave the selector untouched.
func (s *RangeSelector) Click(day time.Time, blocked BlockedDates, today time.Time) Outcome {
	day = daterange.Day(day)
	if day.IsZero() || day.Before(daterange.Day(today)) || blocked.Has(day) {
		return OutcomeIgnored
	}

	if s.State() == StateStartPicked {
		if day.Before(s.Selection.Start) {
			s.Selection = Selection{Start: day}
			return OutcomeStartMoved
		}
		return s.completeTo(day, blocked)
	}
	s.Selection = Selection{Start: day}
	s.Hover = time.Time{}
	return OutcomeStartSet
}

// SelectRange applies both picks at once, as when a client restores a saved
// range. Endpoints given in reverse order are swapped. Only the start must be
// clickable; the end goes straight to the interval test.
func (s *RangeSelector) SelectRange(start, end time.Time, blocked BlockedDates, today time.Time) Outcome {
	start, end = daterange.Day(start), daterange.Day(end)
	if end.Before(start) {
		start, end = end, start
	}
	if start.IsZero() || start.Before(daterange.Day(today)) || blocked.Has(start) {
		return OutcomeIgnored
	}
	s.Selection = Selection{Start: start}
	return s.completeTo(end, blocked)
}

func (s *RangeSelector) completeTo(end time.Time, blocked BlockedDates) Outcome {
	candidate := daterange.Range{Start: s.Selection.Start, End: end}
	if blocked.AnyIn(candidate) {
		s.Selection = Selection{}
		s.Hover = time.Time{}
		s.Conflict = ConflictMessage
		return OutcomeConflict
	}
	s.Selection.End = end
	s.Hover = time.Time{}
	s.Conflict = ""
	return OutcomeCompleted
}

// SetHover records the candidate end day used for the in-range preview.
func (s *RangeSelector) SetHover(day time.Time) {
	s.Hover = daterange.Day(day)
}

func (s *RangeSelector) Reset() {
	*s = RangeSelector{}
}

// CanContinue gates the details step: both endpoints set and no pending conflict.
func (s *RangeSelector) CanContinue() bool {
	return s.Conflict == "" && s.Selection.Complete()
}

package availability

import (
	"time"

	"elaview/internal/domain/shared/daterange"
)

const monthLayout = "2006-01"

// CalendarDay is one cell of a month grid.
type CalendarDay struct {
	Date         string    `json:"date"`
	Status       DayStatus `json:"status"`
	OutsideMonth bool      `json:"outside_month"`
	Selectable   bool      `json:"selectable"`
}

func ParseMonth(value string) (time.Time, error) {
	t, err := time.Parse(monthLayout, value)
	if err != nil {
		return time.Time{}, daterange.ErrInvalidDay
	}
	return t, nil
}

// BuildMonth lays out the Sunday-first grid covering month. Days of the
// neighbouring months keep their real status and only carry OutsideMonth.
func BuildMonth(month time.Time, sel Selection, hover time.Time, blocked BlockedDates, today time.Time) []CalendarDay {
	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	gridStart := monthStart.AddDate(0, 0, -int(monthStart.Weekday()))
	gridEnd := monthEnd.AddDate(0, 0, 6-int(monthEnd.Weekday()))

	days := make([]CalendarDay, 0, 42)
	for d := gridStart; !d.After(gridEnd); d = d.AddDate(0, 0, 1) {
		status := Classify(d, sel, hover, blocked, today)
		days = append(days, CalendarDay{
			Date:         d.Format(daterange.Layout),
			Status:       status,
			OutsideMonth: d.Month() != monthStart.Month(),
			Selectable:   status.Selectable(),
		})
	}
	return days
}

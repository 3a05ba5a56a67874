package sessions

import (
	"context"
	"time"

	"elaview/internal/app/dto"
	"elaview/internal/app/queries"
)

const (
	getCalendarKey = "sessions.calendar"
	getSessionKey  = "sessions.get"
)

// GetCalendarQuery renders one month. A zero Month means the current one.
type GetCalendarQuery struct {
	SessionID    string `validate:"required"`
	AdvertiserID string `validate:"required"`
	Month        time.Time
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct{ Base }

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.CalendarView, error) {
	s, err := h.load(ctx, q.SessionID, q.AdvertiserID)
	if err != nil {
		return dto.CalendarView{}, err
	}
	today := h.Clock.Now()
	month := q.Month
	if month.IsZero() {
		month = today
	}
	return dto.CalendarView{
		SessionID: string(s.ID),
		Month:     month.Format("2006-01"),
		Loading:   s.Loading,
		Days:      s.Calendar(month, today),
	}, nil
}

type GetSessionQuery struct {
	SessionID    string `validate:"required"`
	AdvertiserID string `validate:"required"`
}

func (q GetSessionQuery) Key() string { return getSessionKey }

type GetSessionHandler struct{ Base }

func (h *GetSessionHandler) Handle(ctx context.Context, q GetSessionQuery) (dto.SessionView, error) {
	s, err := h.load(ctx, q.SessionID, q.AdvertiserID)
	if err != nil {
		return dto.SessionView{}, err
	}
	space, err := h.space(ctx, s.SpaceID)
	if err != nil {
		return dto.SessionView{}, err
	}
	return dto.MapSession(s, space), nil
}

var (
	_ queries.Handler[GetCalendarQuery, dto.CalendarView] = (*GetCalendarHandler)(nil)
	_ queries.Handler[GetSessionQuery, dto.SessionView]   = (*GetSessionHandler)(nil)
)

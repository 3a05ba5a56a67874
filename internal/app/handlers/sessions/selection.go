package sessions

import (
	"context"
	"time"

	"elaview/internal/app/commands"
	"elaview/internal/app/dto"
	"elaview/internal/domain/availability"
	"elaview/internal/domain/session"
)

const (
	clickDayKey       = "sessions.click"
	selectRangeKey    = "sessions.select_range"
	hoverDayKey       = "sessions.hover"
	resetSelectionKey = "sessions.reset"
)

type ClickDayCommand struct {
	advertiserOnly
	SessionID    string    `validate:"required"`
	AdvertiserID string    `validate:"required"`
	Date         time.Time `validate:"required"`
}

func (c ClickDayCommand) Key() string { return clickDayKey }

// SelectRangeCommand submits both endpoints in one call.
type SelectRangeCommand struct {
	advertiserOnly
	SessionID    string    `validate:"required"`
	AdvertiserID string    `validate:"required"`
	Start        time.Time `validate:"required"`
	End          time.Time `validate:"required"`
}

func (c SelectRangeCommand) Key() string { return selectRangeKey }

// HoverDayCommand moves the in-range preview. A zero Date clears it.
type HoverDayCommand struct {
	advertiserOnly
	SessionID    string `validate:"required"`
	AdvertiserID string `validate:"required"`
	Date         time.Time
}

func (c HoverDayCommand) Key() string { return hoverDayKey }

type ResetSelectionCommand struct {
	advertiserOnly
	SessionID    string `validate:"required"`
	AdvertiserID string `validate:"required"`
}

func (c ResetSelectionCommand) Key() string { return resetSelectionKey }

type ClickDayHandler struct{ Base }

func (h *ClickDayHandler) Handle(ctx context.Context, cmd ClickDayCommand) (*dto.SelectionView, error) {
	today := h.Clock.Now()
	var outcome availability.Outcome
	s, err := h.mutate(ctx, cmd.SessionID, cmd.AdvertiserID, func(s *session.Session) error {
		var err error
		outcome, err = s.Click(cmd.Date, today)
		return err
	})
	if err != nil {
		return nil, err
	}
	if outcome == availability.OutcomeConflict && h.Logger != nil {
		h.Logger.Debug("selection conflict", "session_id", s.ID, "space_id", s.SpaceID)
	}
	view := dto.MapSelection(s.Selector, outcome)
	return &view, nil
}

type SelectRangeHandler struct{ Base }

func (h *SelectRangeHandler) Handle(ctx context.Context, cmd SelectRangeCommand) (*dto.SelectionView, error) {
	today := h.Clock.Now()
	var outcome availability.Outcome
	s, err := h.mutate(ctx, cmd.SessionID, cmd.AdvertiserID, func(s *session.Session) error {
		var err error
		outcome, err = s.SelectRange(cmd.Start, cmd.End, today)
		return err
	})
	if err != nil {
		return nil, err
	}
	view := dto.MapSelection(s.Selector, outcome)
	return &view, nil
}

type HoverDayHandler struct{ Base }

func (h *HoverDayHandler) Handle(ctx context.Context, cmd HoverDayCommand) (*dto.SelectionView, error) {
	s, err := h.mutate(ctx, cmd.SessionID, cmd.AdvertiserID, func(s *session.Session) error {
		s.Hover(cmd.Date)
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := dto.MapSelection(s.Selector, "")
	return &view, nil
}

type ResetSelectionHandler struct{ Base }

func (h *ResetSelectionHandler) Handle(ctx context.Context, cmd ResetSelectionCommand) (*dto.SelectionView, error) {
	s, err := h.mutate(ctx, cmd.SessionID, cmd.AdvertiserID, func(s *session.Session) error {
		s.ResetSelection()
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := dto.MapSelection(s.Selector, "")
	return &view, nil
}

var (
	_ commands.Handler[ClickDayCommand, *dto.SelectionView]       = (*ClickDayHandler)(nil)
	_ commands.Handler[SelectRangeCommand, *dto.SelectionView]    = (*SelectRangeHandler)(nil)
	_ commands.Handler[HoverDayCommand, *dto.SelectionView]       = (*HoverDayHandler)(nil)
	_ commands.Handler[ResetSelectionCommand, *dto.SelectionView] = (*ResetSelectionHandler)(nil)
)

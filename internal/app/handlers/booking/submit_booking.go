package booking

import (
	"context"
	"errors"
	"log/slog"

	"elaview/internal/app/commands"
	"elaview/internal/app/handlers/sessions"
	"elaview/internal/app/handlers/support"
	"elaview/internal/app/middleware"
	"elaview/internal/app/uow"
	"elaview/internal/domain/availability"
	domainbooking "elaview/internal/domain/booking"
	"elaview/internal/domain/draft"
	"elaview/internal/domain/session"
	domainuser "elaview/internal/domain/user"
)

const submitBookingKey = "booking.submit"

// SubmitBookingCommand turns an open session into a booking request.
type SubmitBookingCommand struct {
	SessionID               string `validate:"required"`
	AdvertiserID            string `validate:"required"`
	AcknowledgeRestrictions bool
	IdempotencyKeyV         string
}

func (c SubmitBookingCommand) Key() string { return submitBookingKey }

func (c SubmitBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c SubmitBookingCommand) ResultPrototype() any { return &SubmitBookingResult{} }

func (c SubmitBookingCommand) RequiredRole() domainuser.Role { return domainuser.RoleAdvertiser }

type SubmitBookingResult struct {
	BookingID string        `json:"booking_id"`
	Status    string        `json:"status"`
	Payload   draft.Payload `json:"payload"`
}

type SubmitBookingHandler struct {
	Sessions   session.Store
	UoWFactory uow.UoWFactory
	Requests   commands.Handler[RequestBookingCommand, *RequestBookingResult]
	Loads      *sessions.AvailabilityLoads
	Details    *sessions.DetailsCache
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *SubmitBookingHandler) Handle(ctx context.Context, cmd SubmitBookingCommand) (*SubmitBookingResult, error) {
	s, err := h.Sessions.Get(ctx, session.SessionID(cmd.SessionID))
	if err != nil {
		return nil, err
	}
	if err := s.EnsureOwner(cmd.AdvertiserID); err != nil {
		return nil, err
	}
	if s.Loading {
		return nil, session.ErrAvailabilityLoading
	}
	if s.LoadError != "" {
		return nil, availability.ErrAvailabilityUnknown
	}

	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	space, err := unit.Spaces().ByID(execCtx, s.SpaceID)
	if cleanup != nil {
		cleanup()
	}
	if err != nil {
		return nil, err
	}

	payload, _, err := draft.Build(draft.BuildInput{
		Details:                 s.Details,
		Selector:                s.Selector,
		DailyRate:               space.DailyRate,
		ProhibitedContent:       space.ProhibitedContent,
		AcknowledgeRestrictions: cmd.AcknowledgeRestrictions,
		CreativeURL:             s.CreativeURL,
	})
	if err != nil {
		return nil, err
	}

	res, err := h.Requests.Handle(ctx, RequestBookingCommand{
		SpaceID:      string(space.ID),
		AdvertiserID: cmd.AdvertiserID,
		Payload:      payload,
	})
	if errors.Is(err, domainbooking.ErrDatesUnavailable) {
		h.refresh(ctx, s.ID)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if err := h.Sessions.Delete(ctx, s.ID); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		return nil, err
	}
	if h.Details != nil {
		if err := h.Details.Discard(ctx, sessions.DraftScope(s.AdvertiserID, s.SpaceID)); err != nil && h.Logger != nil {
			h.Logger.Warn("discard autosaved details failed", "session_id", s.ID, "error", err)
		}
	}
	return &SubmitBookingResult{BookingID: res.BookingID, Status: res.Status, Payload: payload}, nil
}

// refresh drops the stale selection and reloads availability after the
// server rejected the dates the session believed were free.
func (h *SubmitBookingHandler) refresh(ctx context.Context, id session.SessionID) {
	var generation uint64
	s, err := h.Sessions.Update(ctx, id, func(s *session.Session) error {
		s.ResetSelection()
		if h.Loads != nil {
			generation = s.BeginLoad()
		}
		return nil
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("refresh availability failed", "session_id", id, "error", err)
		}
		return
	}
	if generation > 0 {
		h.Loads.Start(s.ID, s.SpaceID, generation)
	}
}

var (
	_ commands.Handler[SubmitBookingCommand, *SubmitBookingResult] = (*SubmitBookingHandler)(nil)
	_ middleware.IdempotentCommand                                 = SubmitBookingCommand{}
)

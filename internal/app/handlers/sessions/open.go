package sessions

import (
	"context"
	"errors"

	"elaview/internal/app/autosave"
	"elaview/internal/app/commands"
	"elaview/internal/app/dto"
	"elaview/internal/app/handlers/support"
	"elaview/internal/domain/session"
	domainspaces "elaview/internal/domain/spaces"
)

const openSessionKey = "sessions.open"

type OpenSessionCommand struct {
	advertiserOnly
	SpaceID      string `validate:"required"`
	AdvertiserID string `validate:"required"`
}

func (c OpenSessionCommand) Key() string { return openSessionKey }

type OpenSessionResult struct {
	SessionID string          `json:"session_id"`
	Session   dto.SessionView `json:"session"`
}

type OpenSessionHandler struct {
	Base
	Loads   *AvailabilityLoads
	Details *DetailsCache
	IDs     func() string
}

func (h *OpenSessionHandler) Handle(ctx context.Context, cmd OpenSessionCommand) (*OpenSessionResult, error) {
	space, err := h.space(ctx, domainspaces.SpaceID(cmd.SpaceID))
	if err != nil {
		return nil, err
	}

	id := h.newID()
	s := session.Open(session.SessionID(id), space.ID, cmd.AdvertiserID, h.Clock.Now())
	if h.Details != nil {
		saved, err := h.Details.Restore(ctx, DraftScope(cmd.AdvertiserID, space.ID))
		switch {
		case err == nil:
			s.Details = saved
		case !errors.Is(err, autosave.ErrNotFound) && h.Logger != nil:
			h.Logger.Warn("restore autosaved details failed", "space_id", space.ID, "error", err)
		}
	}
	generation := s.BeginLoad()
	if err := h.Sessions.Create(ctx, s); err != nil {
		return nil, err
	}
	h.Loads.Start(s.ID, space.ID, generation)

	if h.Logger != nil {
		h.Logger.Info("booking session opened", "session_id", s.ID, "space_id", space.ID, "advertiser_id", cmd.AdvertiserID)
	}
	return &OpenSessionResult{SessionID: id, Session: dto.MapSession(s, space)}, nil
}

func (h *OpenSessionHandler) newID() string {
	if h.IDs != nil {
		return h.IDs()
	}
	return support.NewID("ses_")
}

var _ commands.Handler[OpenSessionCommand, *OpenSessionResult] = (*OpenSessionHandler)(nil)

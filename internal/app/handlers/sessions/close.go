package sessions

import (
	"context"

	"elaview/internal/app/commands"
	"elaview/internal/domain/session"
)

const closeSessionKey = "sessions.close"

// CloseSessionCommand ends the dialog. Discard also drops auto-saved details.
type CloseSessionCommand struct {
	advertiserOnly
	SessionID    string `validate:"required"`
	AdvertiserID string `validate:"required"`
	Discard      bool
}

func (c CloseSessionCommand) Key() string { return closeSessionKey }

type CloseSessionResult struct {
	SessionID string `json:"session_id"`
	Discarded bool   `json:"discarded"`
}

type CloseSessionHandler struct {
	Base
	Details *DetailsCache
}

func (h *CloseSessionHandler) Handle(ctx context.Context, cmd CloseSessionCommand) (*CloseSessionResult, error) {
	s, err := h.mutate(ctx, cmd.SessionID, cmd.AdvertiserID, func(s *session.Session) error {
		s.BeginLoad()
		s.ResetSelection()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := h.Sessions.Delete(ctx, s.ID); err != nil {
		return nil, err
	}
	if cmd.Discard && h.Details != nil {
		if err := h.Details.Discard(ctx, DraftScope(s.AdvertiserID, s.SpaceID)); err != nil {
			return nil, err
		}
	}
	if h.Logger != nil {
		h.Logger.Info("booking session closed", "session_id", s.ID, "discard", cmd.Discard)
	}
	return &CloseSessionResult{SessionID: string(s.ID), Discarded: cmd.Discard}, nil
}

var _ commands.Handler[CloseSessionCommand, *CloseSessionResult] = (*CloseSessionHandler)(nil)

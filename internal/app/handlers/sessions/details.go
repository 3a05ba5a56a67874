package sessions

import (
	"context"
	"errors"

	"elaview/internal/app/commands"
	"elaview/internal/app/queries"
	"elaview/internal/domain/draft"
	"elaview/internal/domain/session"
)

const (
	saveDetailsKey    = "sessions.details.save"
	restoreDetailsKey = "sessions.details.restore"
)

type SaveDetailsCommand struct {
	advertiserOnly
	SessionID    string `validate:"required"`
	AdvertiserID string `validate:"required"`
	// Checked by the handler so incomplete drafts are still saved.
	Details draft.Details `validate:"-"`
}

func (c SaveDetailsCommand) Key() string { return saveDetailsKey }

// SaveDetailsResult reports per-field problems without rejecting the save:
// progress is kept even while the form is incomplete.
type SaveDetailsResult struct {
	Details draft.Details     `json:"details"`
	Valid   bool              `json:"valid"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type SaveDetailsHandler struct {
	Base
	Details *DetailsCache
}

func (h *SaveDetailsHandler) Handle(ctx context.Context, cmd SaveDetailsCommand) (*SaveDetailsResult, error) {
	details := cmd.Details.Normalized()
	s, err := h.mutate(ctx, cmd.SessionID, cmd.AdvertiserID, func(s *session.Session) error {
		s.Details = details
		return nil
	})
	if err != nil {
		return nil, err
	}
	if h.Details != nil {
		if err := h.Details.Save(ctx, DraftScope(s.AdvertiserID, s.SpaceID), details); err != nil {
			return nil, err
		}
	}

	res := &SaveDetailsResult{Details: details, Valid: true}
	if err := cmd.Details.Validate(); err != nil {
		var verr *draft.ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		res.Valid = false
		res.Fields = verr.Fields
	}
	return res, nil
}

type RestoreDetailsQuery struct {
	SessionID    string `validate:"required"`
	AdvertiserID string `validate:"required"`
}

func (q RestoreDetailsQuery) Key() string { return restoreDetailsKey }

// RestoreDetailsHandler returns what was auto-saved for the session's
// advertiser and space, or autosave.ErrNotFound.
type RestoreDetailsHandler struct {
	Base
	Details *DetailsCache
}

func (h *RestoreDetailsHandler) Handle(ctx context.Context, q RestoreDetailsQuery) (draft.Details, error) {
	s, err := h.load(ctx, q.SessionID, q.AdvertiserID)
	if err != nil {
		return draft.Details{}, err
	}
	if h.Details == nil {
		return s.Details, nil
	}
	return h.Details.Restore(ctx, DraftScope(s.AdvertiserID, s.SpaceID))
}

var (
	_ commands.Handler[SaveDetailsCommand, *SaveDetailsResult] = (*SaveDetailsHandler)(nil)
	_ queries.Handler[RestoreDetailsQuery, draft.Details]      = (*RestoreDetailsHandler)(nil)
)

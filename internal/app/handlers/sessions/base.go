package sessions

import (
	"context"
	"fmt"
	"log/slog"

	"elaview/internal/app/autosave"
	"elaview/internal/app/handlers/support"
	"elaview/internal/app/uow"
	"elaview/internal/domain/draft"
	"elaview/internal/domain/session"
	domainspaces "elaview/internal/domain/spaces"
	domainuser "elaview/internal/domain/user"
)

// Base carries what every session handler needs.
type Base struct {
	Sessions   session.Store
	UoWFactory uow.UoWFactory
	Clock      support.Clock
	Logger     *slog.Logger
}

// advertiserOnly marks messages sent from the booking dialog.
type advertiserOnly struct{}

func (advertiserOnly) RequiredRole() domainuser.Role { return domainuser.RoleAdvertiser }

func (advertiserOnly) SessionOnly() {}

// DraftScope keys auto-saved details by advertiser and space, so reopening
// the dialog for the same space picks up where the advertiser left off.
func DraftScope(advertiserID string, spaceID domainspaces.SpaceID) string {
	return fmt.Sprintf("%s:%s", advertiserID, spaceID)
}

type DetailsCache = autosave.Cache[draft.Details]

func (b Base) mutate(ctx context.Context, id, advertiserID string, fn func(s *session.Session) error) (*session.Session, error) {
	now := b.Clock.Now()
	return b.Sessions.Update(ctx, session.SessionID(id), func(s *session.Session) error {
		if err := s.EnsureOwner(advertiserID); err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		s.Touch(now)
		return nil
	})
}

func (b Base) load(ctx context.Context, id, advertiserID string) (*session.Session, error) {
	s, err := b.Sessions.Get(ctx, session.SessionID(id))
	if err != nil {
		return nil, err
	}
	if err := s.EnsureOwner(advertiserID); err != nil {
		return nil, err
	}
	return s, nil
}

func (b Base) space(ctx context.Context, id domainspaces.SpaceID) (*domainspaces.Space, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, b.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	return unit.Spaces().ByID(execCtx, id)
}

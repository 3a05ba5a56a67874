package spaces

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"elaview/internal/app/commands"
	"elaview/internal/app/dto"
	"elaview/internal/app/handlers/support"
	"elaview/internal/app/queries"
	"elaview/internal/app/uow"
	"elaview/internal/domain/availability"
	domainbooking "elaview/internal/domain/booking"
	"elaview/internal/domain/shared/daterange"
	"elaview/internal/domain/shared/money"
	domainspaces "elaview/internal/domain/spaces"
	domainuser "elaview/internal/domain/user"
)

const (
	createSpaceKey     = "spaces.create"
	getSpaceKey        = "spaces.get"
	getAvailabilityKey = "spaces.availability"

	defaultAvailabilityWindow = 90
	maxAvailabilityWindow     = 366
)

var ErrWindowTooLarge = errors.New("spaces: availability window exceeds one year")

type CreateSpaceCommand struct {
	OwnerID           string  `validate:"required"`
	Name              string  `validate:"required,max=200"`
	Kind              string  `validate:"max=32"`
	DailyRate         float64 `validate:"gt=0"`
	Currency          string
	ProhibitedContent []string `validate:"max=50,dive,max=64"`
}

func (c CreateSpaceCommand) Key() string { return createSpaceKey }

func (c CreateSpaceCommand) RequiredRole() domainuser.Role { return domainuser.RolePropertyOwner }

type CreateSpaceHandler struct {
	Clock  support.Clock
	Logger *slog.Logger
}

func (h *CreateSpaceHandler) Handle(ctx context.Context, cmd CreateSpaceCommand) (*dto.SpaceView, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	kind, err := domainspaces.ParseKind(cmd.Kind)
	if err != nil {
		return nil, err
	}
	currency := cmd.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}
	rate, err := money.FromMajor(cmd.DailyRate, currency)
	if err != nil {
		return nil, err
	}
	space, err := domainspaces.NewSpace(domainspaces.CreateParams{
		ID:                domainspaces.SpaceID(support.NewID("spc_")),
		OwnerID:           domainspaces.OwnerID(cmd.OwnerID),
		Name:              cmd.Name,
		Kind:              kind,
		DailyRate:         rate,
		ProhibitedContent: cmd.ProhibitedContent,
		Now:               h.Clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Spaces().Save(ctx, space); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("space created", "space_id", space.ID, "owner_id", space.OwnerID)
	}
	view := dto.MapSpace(space)
	return &view, nil
}

type GetSpaceQuery struct {
	SpaceID string `validate:"required"`
}

func (q GetSpaceQuery) Key() string { return getSpaceKey }

type GetSpaceHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetSpaceHandler) Handle(ctx context.Context, q GetSpaceQuery) (dto.SpaceView, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.SpaceView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	space, err := unit.Spaces().ByID(execCtx, domainspaces.SpaceID(q.SpaceID))
	if err != nil {
		return dto.SpaceView{}, err
	}
	return dto.MapSpace(space), nil
}

// GetAvailabilityQuery lists blocked days in [From, To]. Zero bounds default
// to a window starting today.
type GetAvailabilityQuery struct {
	SpaceID string `validate:"required"`
	From    time.Time
	To      time.Time
}

func (q GetAvailabilityQuery) Key() string { return getAvailabilityKey }

type GetAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
	Clock      support.Clock
}

func (h *GetAvailabilityHandler) Handle(ctx context.Context, q GetAvailabilityQuery) (dto.AvailabilityView, error) {
	window, err := h.window(q.From, q.To)
	if err != nil {
		return dto.AvailabilityView{}, err
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.AvailabilityView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	space, err := unit.Spaces().ByID(execCtx, domainspaces.SpaceID(q.SpaceID))
	if err != nil {
		return dto.AvailabilityView{}, err
	}
	bookings, err := unit.Bookings().ListBySpace(execCtx, space.ID, domainbooking.BlockingStatuses())
	if err != nil {
		return dto.AvailabilityView{}, err
	}
	return dto.AvailabilityView{
		SpaceID:      string(space.ID),
		From:         daterange.Key(window.Start),
		To:           daterange.Key(window.End),
		BlockedDates: availability.Expand(bookings).Within(window),
	}, nil
}

func (h *GetAvailabilityHandler) window(from, to time.Time) (daterange.Range, error) {
	if from.IsZero() {
		from = h.Clock.Now()
	}
	if to.IsZero() {
		to = daterange.Day(from).AddDate(0, 0, defaultAvailabilityWindow-1)
	}
	r, err := daterange.New(from, to)
	if err != nil {
		return daterange.Range{}, err
	}
	if r.Len() > maxAvailabilityWindow {
		return daterange.Range{}, ErrWindowTooLarge
	}
	return r, nil
}

var (
	_ commands.Handler[CreateSpaceCommand, *dto.SpaceView]        = (*CreateSpaceHandler)(nil)
	_ queries.Handler[GetSpaceQuery, dto.SpaceView]               = (*GetSpaceHandler)(nil)
	_ queries.Handler[GetAvailabilityQuery, dto.AvailabilityView] = (*GetAvailabilityHandler)(nil)
)

package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"elaview/internal/app/commands"
	"elaview/internal/app/dto"
	"elaview/internal/app/handlers/support"
	"elaview/internal/app/outbox"
	"elaview/internal/app/queries"
	"elaview/internal/app/uow"
	domainbooking "elaview/internal/domain/booking"
	domainspaces "elaview/internal/domain/spaces"
	domainuser "elaview/internal/domain/user"
)

const (
	changeStatusKey      = "booking.status.change"
	listSpaceBookingsKey = "booking.list_by_space"
)

var (
	ErrUnknownAction       = errors.New("booking: unknown status action")
	ErrInvalidStatusFilter = errors.New("booking: unknown status filter")
)

type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionActivate Action = "activate"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

func ParseAction(value string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(value)))
	switch a {
	case ActionConfirm, ActionActivate, ActionComplete, ActionCancel:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, value)
}

// ChangeStatusCommand moves a booking through its lifecycle on the owner's behalf.
type ChangeStatusCommand struct {
	OwnerID   string `validate:"required"`
	BookingID string `validate:"required"`
	Action    Action `validate:"required"`
}

func (c ChangeStatusCommand) Key() string { return changeStatusKey }

func (c ChangeStatusCommand) RequiredRole() domainuser.Role { return domainuser.RolePropertyOwner }

type StatusResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type ChangeStatusHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Clock   support.Clock
	Logger  *slog.Logger
}

func (h *ChangeStatusHandler) Handle(ctx context.Context, cmd ChangeStatusCommand) (*StatusResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	space, err := unit.Spaces().ByID(ctx, booking.SpaceID)
	if err != nil {
		return nil, err
	}
	if space.OwnerID != domainspaces.OwnerID(cmd.OwnerID) {
		return nil, ErrBookingNotOwned
	}

	now := h.Clock.Now()
	switch cmd.Action {
	case ActionConfirm:
		err = h.confirm(ctx, unit, booking)
	case ActionActivate:
		err = booking.Activate(now)
	case ActionComplete:
		err = booking.Complete(now)
	case ActionCancel:
		err = booking.Cancel(now)
	default:
		err = ErrUnknownAction
	}
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, booking); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking status changed", "booking_id", booking.ID, "space_id", space.ID, "status", booking.Status)
	}
	return &StatusResult{BookingID: string(booking.ID), Status: string(booking.Status)}, nil
}

// confirm re-checks overlap: two pending requests may cover the same days
// and only the first one confirmed may keep them. The space lock is held
// from the check until commit.
func (h *ChangeStatusHandler) confirm(ctx context.Context, unit uow.UnitOfWork, booking *domainbooking.Booking) error {
	if err := unit.Spaces().LockForBooking(ctx, booking.SpaceID); err != nil {
		return err
	}
	existing, err := unit.Bookings().ListBySpace(ctx, booking.SpaceID, domainbooking.BlockingStatuses())
	if err != nil {
		return err
	}
	if err := domainbooking.EnsureAvailable(booking.Range, existing, booking.ID); err != nil {
		return err
	}
	return booking.Confirm(h.Clock.Now())
}

// ListSpaceBookingsQuery lists a space's bookings for its owner. An empty
// Status returns every booking.
type ListSpaceBookingsQuery struct {
	OwnerID string `validate:"required"`
	SpaceID string `validate:"required"`
	Status  string
}

func (q ListSpaceBookingsQuery) Key() string { return listSpaceBookingsKey }

func (q ListSpaceBookingsQuery) RequiredRole() domainuser.Role { return domainuser.RolePropertyOwner }

type ListSpaceBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListSpaceBookingsHandler) Handle(ctx context.Context, q ListSpaceBookingsQuery) (dto.BookingCollection, error) {
	var statuses []domainbooking.Status
	if strings.TrimSpace(q.Status) != "" {
		status, ok := domainbooking.ParseStatus(q.Status)
		if !ok {
			return dto.BookingCollection{}, ErrInvalidStatusFilter
		}
		statuses = []domainbooking.Status{status}
	}

	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	space, err := unit.Spaces().ByID(execCtx, domainspaces.SpaceID(q.SpaceID))
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if space.OwnerID != domainspaces.OwnerID(q.OwnerID) {
		return dto.BookingCollection{}, ErrBookingNotOwned
	}
	bookings, err := unit.Bookings().ListBySpace(execCtx, space.ID, statuses)
	if err != nil {
		return dto.BookingCollection{}, err
	}

	items := make([]dto.BookingSummary, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, dto.MapBookingSummary(b))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if h.Logger != nil {
		h.Logger.Debug("space bookings listed", "space_id", space.ID, "count", len(items), "status", q.Status)
	}
	return dto.BookingCollection{Items: items}, nil
}

var (
	_ commands.Handler[ChangeStatusCommand, *StatusResult]            = (*ChangeStatusHandler)(nil)
	_ queries.Handler[ListSpaceBookingsQuery, dto.BookingCollection] = (*ListSpaceBookingsHandler)(nil)
)

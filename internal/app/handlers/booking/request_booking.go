package booking

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"elaview/internal/app/commands"
	"elaview/internal/app/handlers/support"
	"elaview/internal/app/middleware"
	"elaview/internal/app/outbox"
	"elaview/internal/app/uow"
	domainbooking "elaview/internal/domain/booking"
	"elaview/internal/domain/compliance"
	"elaview/internal/domain/draft"
	"elaview/internal/domain/pricing"
	"elaview/internal/domain/shared/daterange"
	domainspaces "elaview/internal/domain/spaces"
	domainuser "elaview/internal/domain/user"
)

const requestBookingKey = "booking.request"

var ErrBookingNotOwned = errors.New("booking: space not owned by caller")

// RequestBookingCommand creates a pending booking from a draft payload. It is
// the authoritative availability check: whatever the dialog allowed, dates
// already held by a confirmed or active booking are rejected here.
type RequestBookingCommand struct {
	BookingID       string
	SpaceID         string `validate:"required"`
	AdvertiserID    string `validate:"required"`
	Payload         draft.Payload
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

func (c RequestBookingCommand) RequiredRole() domainuser.Role { return domainuser.RoleAdvertiser }

type RequestBookingResult struct {
	BookingID     string  `json:"booking_id"`
	Status        string  `json:"status"`
	TotalAmount   float64 `json:"total_amount"`
	Currency      string  `json:"currency"`
	NeedsApproval bool    `json:"needs_approval"`
}

type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	start, err := daterange.ParseDay(cmd.Payload.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := daterange.ParseDay(cmd.Payload.EndDate)
	if err != nil {
		return nil, err
	}
	r, err := daterange.New(start, end)
	if err != nil {
		return nil, err
	}
	now := h.Clock.Now()
	if err := domainbooking.ValidateStart(r, now); err != nil {
		return nil, err
	}

	var booking *domainbooking.Booking
	err = support.RunInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		space, err := unit.Spaces().ByID(ctx, domainspaces.SpaceID(cmd.SpaceID))
		if err != nil {
			return err
		}
		existing, err := unit.Bookings().ListBySpace(ctx, space.ID, domainbooking.BlockingStatuses())
		if err != nil {
			return err
		}
		if err := domainbooking.EnsureAvailable(r, existing, ""); err != nil {
			if h.Logger != nil {
				h.Logger.Info("booking request rejected", "space_id", space.ID, "start", cmd.Payload.StartDate, "end", cmd.Payload.EndDate, "reason", err)
			}
			return err
		}

		total := pricing.TotalCost(r.Start, r.End, space.DailyRate)
		if math.Abs(total.Major()-cmd.Payload.TotalAmount) > 0.005 && h.Logger != nil {
			h.Logger.Warn("client total differs from server total", "space_id", space.ID, "client", cmd.Payload.TotalAmount, "server", total.Major())
		}
		check := compliance.Check(cmd.Payload.ContentType, space.ProhibitedContent)

		id := cmd.BookingID
		if id == "" {
			id = support.NewID("bkg_")
		}
		booking, err = domainbooking.NewBooking(domainbooking.CreateParams{
			ID:           domainbooking.BookingID(id),
			SpaceID:      space.ID,
			AdvertiserID: cmd.AdvertiserID,
			Range:        r,
			Content: domainbooking.Content{
				CampaignName: cmd.Payload.CampaignName,
				BrandName:    cmd.Payload.BrandName,
				ContentTypes: cmd.Payload.ContentType,
				Description:  cmd.Payload.ContentDescription,
				Message:      cmd.Payload.Message,
				CreativeURL:  cmd.Payload.CreativeURL,
			},
			Total:            total,
			NeedsApproval:    check.NeedsApproval || cmd.Payload.NeedsApproval,
			SensitiveContent: check.Sensitive || cmd.Payload.SensitiveContent,
			CreatedAt:        now,
		})
		if err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, booking); err != nil {
			return err
		}
		return outbox.Drain(ctx, h.Outbox, h.Encoder, booking)
	})
	if err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("booking requested", "booking_id", booking.ID, "space_id", booking.SpaceID, "advertiser_id", booking.AdvertiserID, "needs_approval", booking.NeedsApproval)
	}
	return &RequestBookingResult{
		BookingID:     string(booking.ID),
		Status:        string(booking.Status),
		TotalAmount:   booking.Total.Major(),
		Currency:      booking.Total.Currency,
		NeedsApproval: booking.NeedsApproval,
	}, nil
}

var (
	_ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
	_ middleware.IdempotentCommand                                   = RequestBookingCommand{}
)

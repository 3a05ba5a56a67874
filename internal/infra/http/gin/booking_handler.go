package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"elaview/internal/app/commands"
	bookingapp "elaview/internal/app/handlers/booking"
	domainuser "elaview/internal/domain/user"
)

// BookingHandler serves the owner side of the booking lifecycle.
type BookingHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

func (h BookingHandler) ChangeStatus(c *gin.Context) {
	owner, ok := requireRole(c, domainuser.RolePropertyOwner)
	if !ok {
		return
	}
	if h.Commands == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	action, err := bookingapp.ParseAction(c.Param("action"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := bookingapp.ChangeStatusCommand{
		OwnerID:   owner.ID,
		BookingID: strings.TrimSpace(c.Param("id")),
		Action:    action,
	}
	result, err := commands.Dispatch[bookingapp.ChangeStatusCommand, *bookingapp.StatusResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}

package ginserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"elaview/internal/app/commands"
	"elaview/internal/app/dto"
	bookingapp "elaview/internal/app/handlers/booking"
	spacesapp "elaview/internal/app/handlers/spaces"
	"elaview/internal/app/queries"
	"elaview/internal/domain/shared/daterange"
	domainuser "elaview/internal/domain/user"
)

type SpaceHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createSpaceRequest struct {
	Name              string   `json:"name"`
	Kind              string   `json:"kind"`
	DailyRate         float64  `json:"daily_rate"`
	Currency          string   `json:"currency"`
	ProhibitedContent []string `json:"prohibited_content"`
}

func (h SpaceHandler) Create(c *gin.Context) {
	owner, ok := requireRole(c, domainuser.RolePropertyOwner)
	if !ok {
		return
	}
	if h.Commands == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	var req createSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := spacesapp.CreateSpaceCommand{
		OwnerID:           owner.ID,
		Name:              strings.TrimSpace(req.Name),
		Kind:              req.Kind,
		DailyRate:         req.DailyRate,
		Currency:          req.Currency,
		ProhibitedContent: req.ProhibitedContent,
	}
	result, err := commands.Dispatch[spacesapp.CreateSpaceCommand, *dto.SpaceView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h SpaceHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	query := spacesapp.GetSpaceQuery{SpaceID: strings.TrimSpace(c.Param("id"))}
	result, err := queries.Ask[spacesapp.GetSpaceQuery, dto.SpaceView](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SpaceHandler) Availability(c *gin.Context) {
	if h.Queries == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	from, err := parseOptionalDay(c.Query("from"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	to, err := parseOptionalDay(c.Query("to"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	query := spacesapp.GetAvailabilityQuery{
		SpaceID: strings.TrimSpace(c.Param("id")),
		From:    from,
		To:      to,
	}
	result, err := queries.Ask[spacesapp.GetAvailabilityQuery, dto.AvailabilityView](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SpaceHandler) Bookings(c *gin.Context) {
	owner, ok := requireRole(c, domainuser.RolePropertyOwner)
	if !ok {
		return
	}
	if h.Queries == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return
	}
	query := bookingapp.ListSpaceBookingsQuery{
		OwnerID: owner.ID,
		SpaceID: strings.TrimSpace(c.Param("id")),
		Status:  c.Query("status"),
	}
	result, err := queries.Ask[bookingapp.ListSpaceBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// parseOptionalDay reads a yyyy-MM-dd value. Blank input yields the zero time.
func parseOptionalDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	return daterange.ParseDay(value)
}

var _ SpaceHTTP = SpaceHandler{}

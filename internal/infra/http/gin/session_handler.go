package ginserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"elaview/internal/app/commands"
	"elaview/internal/app/dto"
	bookingapp "elaview/internal/app/handlers/booking"
	sessionsapp "elaview/internal/app/handlers/sessions"
	"elaview/internal/app/queries"
	"elaview/internal/domain/draft"
	"elaview/internal/domain/shared/daterange"
	domainuser "elaview/internal/domain/user"
)

// maxCreativeSize bounds creative uploads.
const maxCreativeSize = 50 << 20

var errInvalidMonth = errors.New("http: month must be formatted as yyyy-MM")

type SessionHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type dayRequest struct {
	Date string `json:"date"`
}

type rangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type submitRequest struct {
	AcknowledgeRestrictions bool `json:"acknowledge_restrictions"`
}

func (h SessionHandler) Open(c *gin.Context) {
	advertiser, ok := h.advertiser(c)
	if !ok {
		return
	}
	cmd := sessionsapp.OpenSessionCommand{
		SpaceID:      strings.TrimSpace(c.Param("id")),
		AdvertiserID: advertiser.ID,
	}
	result, err := commands.Dispatch[sessionsapp.OpenSessionCommand, *sessionsapp.OpenSessionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h SessionHandler) Get(c *gin.Context) {
	advertiser, ok := h.advertiser(c)
	if !ok {
		return
	}
	query := sessionsapp.GetSessionQuery{SessionID: c.Param("id"), AdvertiserID: advertiser.ID}
	result, err := queries.Ask[sessionsapp.GetSessionQuery, dto.SessionView](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SessionHandler) Close(c *gin.Context) {
	advertiser, ok := h.advertiser(c)
	if !ok {
		return
	}
	discard, _ := strconv.ParseBool(c.DefaultQuery("discard", "false"))
	cmd := sessionsapp.CloseSessionCommand{
		SessionID:    c.Param("id"),
		AdvertiserID: advertiser.ID,
		Discard:      discard,
	}
	result, err := commands.Dispatch[sessionsapp.CloseSessionCommand, *sessionsapp.CloseSessionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SessionHandler) Calendar(c *gin.Context) {
	advertiser, ok := h.advertiser(c)
	if !ok {
		return
	}
	var month time.Time
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			respondError(c, h.Logger, fmt.Errorf("%w: %w", daterange.ErrInvalidDay, errInvalidMonth))
			return
		}
		month = parsed
	}
	query := sessionsapp.GetCalendarQuery{SessionID: c.Param("id"), AdvertiserID: advertiser.ID, Month: month}
	result, err := queries.Ask[sessionsapp.GetCalendarQuery, dto.CalendarView](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SessionHandler) Click(c *gin.Context) {
	advertiser, ok := h.advertiser(c)
	if !ok {
		return
	}
	var req dayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, err := daterange.ParseDay(req.Date)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := sessionsapp.ClickDayCommand{SessionID: c.Param("id"), AdvertiserID: advertiser.ID, Date: day}
	respondSelection(c, h, cmd)
}

func (h SessionHandler) SelectRange(c *gin.Context) {
	advertiser, ok := h.advertiser(c)
	if !ok {
		return
	}
	var req rangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := daterange.ParseDay(req.Start)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	end, err := daterange.ParseDay(req.End)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := sessionsapp.SelectRangeCommand{SessionID: c.Param("id"), AdvertiserID: advertiser.ID, Start: start, End: end}
	respondSelection(c, h, cmd)
}

func (h SessionHandler) Hover(c *gin.Context) {
	advertiser, ok := h.advertiser(c)
	if !ok {
		return
	}
	var req dayRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	day, err := parseOptionalDay(req.Date)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := sessionsapp.HoverDayCommand{SessionID: c.Param("id"), AdvertiserID: advertiser.ID, Date: day}
	respondSelection(c, h, cmd)
}

func (h SessionHandler) Reset(c *gin.Context) {
	advertiser, ok := h.advertiser(c)
	if !ok {
		return
	}
	cmd := sessionsapp.ResetSelectionCommand{SessionID: c.Param("id"), AdvertiserID: advertiser.ID}
	respondSelection(c, h, cmd)
}

func (h SessionHandler) SaveDetails(c *gin.Context) {
	advertiser, ok := h.advertiser(c)
	if !ok {
		return
	}
	var details draft.Details
	if err := c.ShouldBindJSON(&details); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := sessionsapp.SaveDetailsCommand{SessionID: c.Param("id"), AdvertiserID: advertiser.ID, Details: details}
	result, err := commands.Dispatch[sessionsapp.SaveDetailsCommand, *sessionsapp.SaveDetailsResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SessionHandler) RestoreDetails(c *gin.Context) {
	advertiser, ok := h.advertiser(c)
	if !ok {
		return
	}
	query := sessionsapp.RestoreDetailsQuery{SessionID: c.Param("id"), AdvertiserID: advertiser.ID}
	result, err := queries.Ask[sessionsapp.RestoreDetailsQuery, draft.Details](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SessionHandler) AttachCreative(c *gin.Context) {
	advertiser, ok := h.advertiser(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxCreativeSize)
	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, h.Logger, fmt.Errorf("%w: %v", sessionsapp.ErrCreativeRequired, err))
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	defer file.Close()

	cmd := sessionsapp.AttachCreativeCommand{
		SessionID:    c.Param("id"),
		AdvertiserID: advertiser.ID,
		Filename:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Reader:       file,
	}
	result, err := commands.Dispatch[sessionsapp.AttachCreativeCommand, *sessionsapp.AttachCreativeResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SessionHandler) Submit(c *gin.Context) {
	advertiser, ok := h.advertiser(c)
	if !ok {
		return
	}
	var req submitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	cmd := bookingapp.SubmitBookingCommand{
		SessionID:               c.Param("id"),
		AdvertiserID:            advertiser.ID,
		AcknowledgeRestrictions: req.AcknowledgeRestrictions,
		IdempotencyKeyV:         c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.SubmitBookingCommand, *bookingapp.SubmitBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

func (h SessionHandler) advertiser(c *gin.Context) (domainuser.Principal, bool) {
	p, ok := requireRole(c, domainuser.RoleAdvertiser)
	if !ok {
		return p, false
	}
	if h.Commands == nil || h.Queries == nil {
		respondError(c, h.Logger, errBusUnavailable)
		return p, false
	}
	return p, true
}

// respondSelection dispatches one selector input and renders the new selection.
func respondSelection[C commands.Command](c *gin.Context, h SessionHandler, cmd C) {
	view, err := commands.Dispatch[C, *dto.SelectionView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

var _ SessionHTTP = SessionHandler{}

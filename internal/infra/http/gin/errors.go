package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"elaview/internal/app/autosave"
	bookingapp "elaview/internal/app/handlers/booking"
	sessionsapp "elaview/internal/app/handlers/sessions"
	spacesapp "elaview/internal/app/handlers/spaces"
	"elaview/internal/app/middleware"
	"elaview/internal/domain/availability"
	domainbooking "elaview/internal/domain/booking"
	"elaview/internal/domain/draft"
	"elaview/internal/domain/session"
	"elaview/internal/domain/shared/daterange"
	domainspaces "elaview/internal/domain/spaces"
	"elaview/internal/infra/storage/s3"
)

var errBusUnavailable = errors.New("http: message bus unavailable")

func statusFor(err error) int {
	switch {
	case errors.Is(err, draft.ErrInvalidDetails),
		errors.Is(err, middleware.ErrInvalidMessage),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, daterange.ErrInvalidDay),
		errors.Is(err, domainbooking.ErrStartInPast),
		errors.Is(err, bookingapp.ErrUnknownAction),
		errors.Is(err, bookingapp.ErrInvalidStatusFilter),
		errors.Is(err, spacesapp.ErrWindowTooLarge),
		errors.Is(err, domainspaces.ErrInvalidKind),
		errors.Is(err, s3.ErrUnsupportedContentType),
		errors.Is(err, sessionsapp.ErrCreativeRequired):
		return http.StatusBadRequest
	case errors.Is(err, middleware.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, middleware.ErrForbidden),
		errors.Is(err, session.ErrNotSessionOwner),
		errors.Is(err, bookingapp.ErrBookingNotOwned):
		return http.StatusForbidden
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, domainspaces.ErrSpaceNotFound),
		errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, autosave.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, draft.ErrSelectionConflict),
		errors.Is(err, draft.ErrSelectionIncomplete),
		errors.Is(err, draft.ErrConfirmationRequired),
		errors.Is(err, domainbooking.ErrDatesUnavailable),
		errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, domainspaces.ErrSpaceBusy),
		errors.Is(err, middleware.ErrIdempotencyKeyReused):
		return http.StatusConflict
	case errors.Is(err, session.ErrAvailabilityLoading):
		return http.StatusLocked
	case errors.Is(err, availability.ErrAvailabilityUnknown),
		errors.Is(err, sessionsapp.ErrCreativeStoreMissing),
		errors.Is(err, s3.ErrNotConfigured),
		errors.Is(err, errBusUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) gin.H {
	body := gin.H{"error": err.Error()}
	var verr *draft.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	var ferr *middleware.FieldErrors
	if errors.As(err, &ferr) {
		body["fields"] = ferr.Fields
	}
	var cerr *draft.ConfirmationRequiredError
	if errors.As(err, &cerr) {
		body["conflicts"] = cerr.Tags
		body["conflict_labels"] = cerr.Labels
	}
	return body
}

// respondError maps err onto a status code. Unexpected failures are logged
// and their message is not echoed back.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		if logger != nil {
			fields := []any{"status", status, "error", err, "path", c.FullPath()}
			if p, ok := currentPrincipal(c); ok {
				fields = append(fields, "user_id", p.ID)
			}
			logger.Error("request failed", fields...)
		}
		if status == http.StatusInternalServerError {
			c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
			return
		}
	}
	c.AbortWithStatusJSON(status, errorBody(err))
}

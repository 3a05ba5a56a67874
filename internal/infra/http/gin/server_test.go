package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elaview/internal/app/commands"
	"elaview/internal/app/dto"
	bookingapp "elaview/internal/app/handlers/booking"
	sessionsapp "elaview/internal/app/handlers/sessions"
	spacesapp "elaview/internal/app/handlers/spaces"
	"elaview/internal/app/middleware"
	"elaview/internal/app/queries"
	"elaview/internal/domain/availability"
	domainbooking "elaview/internal/domain/booking"
	"elaview/internal/domain/draft"
	"elaview/internal/domain/session"
	"elaview/internal/domain/shared/daterange"
	domainspaces "elaview/internal/domain/spaces"
	domainuser "elaview/internal/domain/user"
	"elaview/internal/infra/obs"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubCommands struct {
	result any
	err    error
	got    commands.Command
	caller domainuser.Principal
}

func (s *stubCommands) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	s.got = cmd
	s.caller, _ = middleware.PrincipalFromContext(ctx)
	return s.result, s.err
}

type stubQueries struct {
	result any
	err    error
	got    queries.Query
}

func (s *stubQueries) Ask(ctx context.Context, q queries.Query) (any, error) {
	s.got = q
	return s.result, s.err
}

func newTestRouter(cmds *stubCommands, qs *stubQueries) *gin.Engine {
	return NewRouter(obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Spaces:   SpaceHandler{Commands: cmds, Queries: qs},
		Sessions: SessionHandler{Commands: cmds, Queries: qs},
		Bookings: BookingHandler{Commands: cmds},
		Identity: IdentityMiddleware{}.Handle,
	})
}

func do(router http.Handler, method, path, role, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set(userIDHeader, "user-1")
		req.Header.Set(userRoleHeader, role)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&draft.ValidationError{Fields: map[string]string{"brand_name": "required"}}, http.StatusBadRequest},
		{&middleware.FieldErrors{Fields: map[string]string{"SpaceID": "required"}}, http.StatusBadRequest},
		{daterange.ErrInvalidRange, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", domainbooking.ErrStartInPast), http.StatusBadRequest},
		{middleware.ErrUnauthenticated, http.StatusUnauthorized},
		{middleware.ErrForbidden, http.StatusForbidden},
		{session.ErrNotSessionOwner, http.StatusForbidden},
		{bookingapp.ErrBookingNotOwned, http.StatusForbidden},
		{session.ErrSessionNotFound, http.StatusNotFound},
		{domainspaces.ErrSpaceNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: write conflict", domainspaces.ErrSpaceBusy), http.StatusConflict},
		{draft.ErrSelectionConflict, http.StatusConflict},
		{domainbooking.ErrDatesUnavailable, http.StatusConflict},
		{&draft.ConfirmationRequiredError{Tags: []string{"alcohol"}, Labels: []string{"Alcohol"}}, http.StatusConflict},
		{session.ErrAvailabilityLoading, http.StatusLocked},
		{availability.ErrAvailabilityUnknown, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.want, statusFor(tc.err))
		})
	}
}

func TestIdentityMiddleware(t *testing.T) {
	cases := []struct {
		name     string
		id, role string
		want     domainuser.Principal
		known    bool
	}{
		{"role label", "adv-1", "Advertiser", domainuser.Principal{ID: "adv-1", Role: domainuser.RoleAdvertiser}, true},
		{"enum value", "own-1", "PROPERTY_OWNER", domainuser.Principal{ID: "own-1", Role: domainuser.RolePropertyOwner}, true},
		{"unknown role", "x", "admin", domainuser.Principal{}, false},
		{"missing id", "", "Advertiser", domainuser.Principal{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got domainuser.Principal
			var ok bool
			router := gin.New()
			router.Use(IdentityMiddleware{}.Handle)
			router.GET("/", func(c *gin.Context) {
				got, ok = middleware.PrincipalFromContext(c.Request.Context())
				c.Status(http.StatusNoContent)
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(userIDHeader, tc.id)
			req.Header.Set(userRoleHeader, tc.role)
			router.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tc.known, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHealthAndRequestID(t *testing.T) {
	router := newTestRouter(&stubCommands{}, &stubQueries{})
	rec := do(router, http.MethodGet, "/livez", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(obs.RequestIDHeader))
}

func TestSessionRoutesRequireAdvertiser(t *testing.T) {
	cmds := &stubCommands{}
	router := newTestRouter(cmds, &stubQueries{})

	rec := do(router, http.MethodPost, "/api/v1/spaces/sp-1/sessions", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(router, http.MethodPost, "/api/v1/spaces/sp-1/sessions", "Property Owner", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, cmds.got)
}

func TestOpenSessionDispatchesWithPrincipal(t *testing.T) {
	cmds := &stubCommands{result: &sessionsapp.OpenSessionResult{SessionID: "ses-1"}}
	router := newTestRouter(cmds, &stubQueries{})

	rec := do(router, http.MethodPost, "/api/v1/spaces/sp-1/sessions", "Advertiser", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	cmd, ok := cmds.got.(sessionsapp.OpenSessionCommand)
	require.True(t, ok)
	assert.Equal(t, "sp-1", cmd.SpaceID)
	assert.Equal(t, "user-1", cmd.AdvertiserID)
	assert.Equal(t, domainuser.RoleAdvertiser, cmds.caller.Role)
}

func TestSelectRangeParsesDays(t *testing.T) {
	cmds := &stubCommands{result: &dto.SelectionView{State: availability.StateRangeComplete, Start: "2024-07-15", End: "2024-07-17"}}
	router := newTestRouter(cmds, &stubQueries{})

	rec := do(router, http.MethodPost, "/api/v1/sessions/ses-1/range", "Advertiser", `{"start":"2024-07-15","end":"2024-07-17"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cmd := cmds.got.(sessionsapp.SelectRangeCommand)
	assert.Equal(t, "2024-07-15", daterange.Key(cmd.Start))
	assert.Equal(t, "2024-07-17", daterange.Key(cmd.End))

	cmds.got = nil
	rec = do(router, http.MethodPost, "/api/v1/sessions/ses-1/range", "Advertiser", `{"start":"15/07/2024","end":"2024-07-17"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, cmds.got)
}

func TestHoverWithoutBodyClears(t *testing.T) {
	cmds := &stubCommands{result: &dto.SelectionView{}}
	router := newTestRouter(cmds, &stubQueries{})

	rec := do(router, http.MethodPost, "/api/v1/sessions/ses-1/hover", "Advertiser", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, cmds.got.(sessionsapp.HoverDayCommand).Date.IsZero())
}

func TestSubmitErrorBodies(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		check  func(t *testing.T, body map[string]any)
	}{
		{
			name:   "confirmation required",
			err:    &draft.ConfirmationRequiredError{Tags: []string{"alcohol"}, Labels: []string{"Alcohol"}},
			status: http.StatusConflict,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, []any{"Alcohol"}, body["conflict_labels"])
				assert.Equal(t, []any{"alcohol"}, body["conflicts"])
			},
		},
		{
			name:   "invalid details",
			err:    &draft.ValidationError{Fields: map[string]string{"campaign_name": "Campaign name is required"}},
			status: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, map[string]any{"campaign_name": "Campaign name is required"}, body["fields"])
			},
		},
		{
			name:   "still loading",
			err:    session.ErrAvailabilityLoading,
			status: http.StatusLocked,
		},
		{
			name:   "internal",
			err:    errors.New("mongo: connection reset"),
			status: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "internal error", body["error"])
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmds := &stubCommands{err: tc.err}
			router := newTestRouter(cmds, &stubQueries{})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/ses-1/submit", bytes.NewBufferString(`{"acknowledge_restrictions":false}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Idempotency-Key", "idem-1")
			req.Header.Set(userIDHeader, "adv-1")
			req.Header.Set(userRoleHeader, "Advertiser")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
			cmd := cmds.got.(bookingapp.SubmitBookingCommand)
			assert.Equal(t, "idem-1", cmd.IdempotencyKeyV)
			if tc.check != nil {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				tc.check(t, body)
			}
		})
	}
}

func TestChangeStatusRejectsUnknownAction(t *testing.T) {
	cmds := &stubCommands{result: &bookingapp.StatusResult{BookingID: "b-1", Status: "confirmed"}}
	router := newTestRouter(cmds, &stubQueries{})

	rec := do(router, http.MethodPost, "/api/v1/bookings/b-1/teleport", "Property Owner", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, cmds.got)

	rec = do(router, http.MethodPost, "/api/v1/bookings/b-1/Confirm", "Property Owner", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bookingapp.ActionConfirm, cmds.got.(bookingapp.ChangeStatusCommand).Action)
}

func TestAvailabilityQueryParams(t *testing.T) {
	qs := &stubQueries{result: dto.AvailabilityView{SpaceID: "sp-1"}}
	router := newTestRouter(&stubCommands{}, qs)

	rec := do(router, http.MethodGet, "/api/v1/spaces/sp-1/availability?from=2024-07-01&to=2024-07-31", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	q := qs.got.(spacesapp.GetAvailabilityQuery)
	assert.Equal(t, "2024-07-01", daterange.Key(q.From))
	assert.Equal(t, "2024-07-31", daterange.Key(q.To))

	rec = do(router, http.MethodGet, "/api/v1/spaces/sp-1/availability?from=july", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttachCreativeRequiresFile(t *testing.T) {
	cmds := &stubCommands{result: &sessionsapp.AttachCreativeResult{CreativeURL: "http://cdn/x.png"}}
	router := newTestRouter(cmds, &stubQueries{})

	rec := do(router, http.MethodPost, "/api/v1/sessions/ses-1/creative", "Advertiser", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "banner.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/ses-1/creative", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(userIDHeader, "adv-1")
	req.Header.Set(userRoleHeader, "Advertiser")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cmd := cmds.got.(sessionsapp.AttachCreativeCommand)
	assert.Equal(t, "banner.png", cmd.Filename)
}

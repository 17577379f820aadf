package router_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/notifications"
	"event_staffing_backend/internal/router"
	"event_staffing_backend/internal/services"
	"event_staffing_backend/internal/testutil"
	"event_staffing_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)

type api struct {
	t        *testing.T
	engine   *gin.Engine
	db       *sql.DB
	clock    *testutil.Clock
	recorder *notifications.Recorder
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.ConfigureJWT("router-test-secret", time.Hour)

	a := &api{
		t:        t,
		engine:   gin.New(),
		db:       testutil.NewDB(t),
		clock:    testutil.NewClock(day.Add(8 * time.Hour)),
		recorder: notifications.NewRecorder(nil),
	}
	router.Setup(a.engine, a.db, router.Options{
		KioskStaticToken:      "front-desk",
		KioskCodeSecret:       "kiosk-secret",
		BreakPolicyTimeout:    time.Second,
		InvitationGateTimeout: time.Second,
		NotifyClockOutSummary: true,
		Dispatcher:            a.recorder,
		Now:                   a.clock.Now,
	})
	return a
}

func (a *api) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *api) login(username, password string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/auth/login", "", services.LoginRequest{Username: username, Password: password})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var resp services.AuthResponse
	decode(a.t, w, &resp)
	return resp.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error utils.APIError `json:"error"`
	}
	decode(t, w, &body)
	return body.Error.Code
}

func TestLoginAndProfile(t *testing.T) {
	a := newAPI(t)
	testutil.SeedUser(t, a.db, "admin", "password123", models.RoleAdmin)

	w := a.do(http.MethodPost, "/auth/login", "", services.LoginRequest{Username: "admin", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := a.login("admin", "password123")
	w = a.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var user models.User
	decode(t, w, &user)
	assert.Equal(t, "admin", user.Username)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/auth/me", "", nil).Code)
}

func TestStaffingAndTimeclockFlow(t *testing.T) {
	a := newAPI(t)
	testutil.SeedUser(t, a.db, "admin", "password123", models.RoleAdmin)
	adaUser := testutil.SeedUser(t, a.db, "ada", "password123", models.RoleStaff)
	admin := a.login("admin", "password123")
	ada := a.login("ada", "password123")

	// Setup through the admin surface.
	w := a.do(http.MethodPost, "/events", admin, services.CreateEventRequest{Name: "Gala", StartsAt: day, EndsAt: day.Add(24 * time.Hour)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var event models.Event
	decode(t, w, &event)

	w = a.do(http.MethodPost, "/shifts", admin, services.CreateShiftRequest{
		EventID: event.ID, StartTime: day.Add(18 * time.Hour), EndTime: day.Add(23 * time.Hour), RequiredStaffCount: 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var shift models.Shift
	decode(t, w, &shift)

	code := "4711"
	w = a.do(http.MethodPost, "/staff", admin, services.CreateStaffMemberRequest{UserID: &adaUser.ID, FullName: "Ada Lovelace", KioskCode: &code})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var staff models.StaffMember
	decode(t, w, &staff)

	// Staff tokens cannot reach admin routes.
	w = a.do(http.MethodPost, fmt.Sprintf("/shifts/%d/assignments", shift.ID), ada, map[string]any{"staff_id": staff.ID, "assignment_type": "final"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Without an accepted invitation the assignment is refused.
	w = a.do(http.MethodPost, fmt.Sprintf("/shifts/%d/assignments", shift.ID), admin, map[string]any{"staff_id": staff.ID, "assignment_type": "final"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, utils.ErrCodeForbidden, errorCode(t, w))

	w = a.do(http.MethodPut, fmt.Sprintf("/events/%d/invitations/%d", event.ID, staff.ID), admin, map[string]any{"status": "accepted"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodPost, fmt.Sprintf("/shifts/%d/assignments", shift.ID), admin, map[string]any{"staff_id": staff.ID, "assignment_type": "final"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res models.AssignmentResult
	decode(t, w, &res)
	assert.Equal(t, models.AssignmentFinal, res.Assignment.Status)
	assert.Len(t, a.recorder.Finals(), 1)

	w = a.do(http.MethodGet, fmt.Sprintf("/shifts/%d/staffing/%d", shift.ID, staff.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The staff member sees and confirms the assignment.
	w = a.do(http.MethodGet, "/me/assignments", ada, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []models.ShiftAssignment
	decode(t, w, &mine)
	require.Len(t, mine, 1)

	w = a.do(http.MethodPost, fmt.Sprintf("/me/assignments/%d/confirm", res.Assignment.ID), ada, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodDelete, fmt.Sprintf("/shifts/%d/assignments/%d", shift.ID, staff.ID), admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, utils.ErrCodeConflict, errorCode(t, w))

	// Self-service clock.
	w = a.do(http.MethodPost, "/me/timeclock/clock-in", ada, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = a.do(http.MethodPost, "/me/timeclock/clock-in", ada, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	a.clock.Advance(510 * time.Minute)
	w = a.do(http.MethodGet, "/me/timeclock/status", ada, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view models.TimeclockStatusView
	decode(t, w, &view)
	assert.True(t, view.ClockedIn)
	assert.Equal(t, 510, view.ElapsedMinutes)

	w = a.do(http.MethodPost, "/me/timeclock/clock-out", ada, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary models.ClockOutSummary
	decode(t, w, &summary)
	assert.Equal(t, 30, summary.WorkingTime.BreakMinutes)
	assert.Equal(t, 480, summary.WorkingTime.NetMinutes)
	assert.Len(t, a.recorder.Summaries(), 1)

	// Kiosk.
	kiosk := map[string]any{"code": code}
	w = a.do(http.MethodPost, "/kiosk/clock-in", "", kiosk, "X-Kiosk-Token", "wrong")
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = a.do(http.MethodPost, "/kiosk/clock-in", "", kiosk, "X-Kiosk-Token", "front-desk")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = a.do(http.MethodPost, "/kiosk/status", "", kiosk, "X-Kiosk-Token", "front-desk")
	require.Equal(t, http.StatusOK, w.Code)
	a.clock.Advance(time.Hour)
	w = a.do(http.MethodPost, "/kiosk/clock-out", "", kiosk, "X-Kiosk-Token", "front-desk")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &summary)
	entryID := summary.Entry.ID

	// Administrative correction and reporting.
	w = a.do(http.MethodPatch, fmt.Sprintf("/timeclock/entries/%d", entryID), admin, map[string]any{"break_minutes": 15})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &summary)
	assert.Equal(t, 45, summary.Entry.TotalMinutes)

	w = a.do(http.MethodPatch, fmt.Sprintf("/timeclock/entries/%d", entryID), admin, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, fmt.Sprintf("/timeclock/entries?staff_id=%d", staff.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []models.TimeclockEntry
	decode(t, w, &entries)
	assert.Len(t, entries, 2)

	w = a.do(http.MethodGet, "/timeclock/entries?from=yesterday", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/timeclock/export", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var export models.EntryExport
	decode(t, w, &export)
	assert.Equal(t, 2, export.Totals.Entries)
	assert.Equal(t, 525, export.Totals.NetMinutes)

	w = a.do(http.MethodGet, "/timeclock/export?format=csv", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "entry_id,staff_id,staff_name"))

	w = a.do(http.MethodGet, "/timeclock/export?format=xml", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestManualEntryRoute(t *testing.T) {
	a := newAPI(t)
	testutil.SeedUser(t, a.db, "admin", "password123", models.RoleAdmin)
	admin := a.login("admin", "password123")
	staff := testutil.SeedStaff(t, a.db, "Grace Hopper")

	in := day.Add(9 * time.Hour)
	out := in.Add(630 * time.Minute)
	w := a.do(http.MethodPost, "/timeclock/entries", admin, services.ManualEntryRequest{StaffID: staff.ID, ClockIn: in, ClockOut: &out})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var summary models.ClockOutSummary
	decode(t, w, &summary)
	assert.Equal(t, 45, summary.Entry.BreakMinutes)
	require.NotNil(t, summary.Entry.CreatedBy)

	w = a.do(http.MethodPost, "/timeclock/entries", admin, services.ManualEntryRequest{StaffID: staff.ID, ClockIn: in, ClockOut: &in})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, utils.ErrCodeValidationFailed, errorCode(t, w))
}

func TestBreakPolicyRoutes(t *testing.T) {
	a := newAPI(t)
	testutil.SeedUser(t, a.db, "admin", "password123", models.RoleAdmin)
	admin := a.login("admin", "password123")

	w := a.do(http.MethodGet, "/settings/break-policy", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var policy models.BreakPolicySetting
	decode(t, w, &policy)
	assert.Equal(t, services.DefaultBreakPolicy, policy)

	update := models.BreakPolicySetting{
		Enabled: true,
		Tier1:   models.BreakTier{ThresholdMinutes: 240, BreakMinutes: 15},
		Tier2:   models.BreakTier{ThresholdMinutes: 480, BreakMinutes: 30},
	}
	w = a.do(http.MethodPut, "/settings/break-policy", admin, update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/settings/break-policy", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &policy)
	assert.Equal(t, update, policy)

	update.Tier2.ThresholdMinutes = 100
	w = a.do(http.MethodPut, "/settings/break-policy", admin, update)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

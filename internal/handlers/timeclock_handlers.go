package handlers

import (
	"errors"
	"io"
	"net/http"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/services"
	"event_staffing_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// KioskTokenHeader carries the shared kiosk token.
const KioskTokenHeader = "X-Kiosk-Token"

// TimeclockHandler serves self-service, kiosk and administrative time entry routes.
type TimeclockHandler struct {
	timeclock services.TimeclockService
	staff     services.StaffService
}

// NewTimeclockHandler creates a new TimeclockHandler.
func NewTimeclockHandler(ts services.TimeclockService, ss services.StaffService) *TimeclockHandler {
	return &TimeclockHandler{timeclock: ts, staff: ss}
}

// --- Self-service ---

func (h *TimeclockHandler) ClockIn(c *gin.Context) {
	member, ok := currentStaff(c, h.staff)
	if !ok {
		return
	}
	// The body is optional.
	var req services.ClockInRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err, "ClockIn")
		return
	}

	entry, err := h.timeclock.ClockIn(c.Request.Context(), member.ID, req)
	if err != nil {
		respondServiceError(c, err, "ClockIn: Error from timeclockService.ClockIn")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *TimeclockHandler) ClockOut(c *gin.Context) {
	member, ok := currentStaff(c, h.staff)
	if !ok {
		return
	}
	summary, err := h.timeclock.ClockOut(c.Request.Context(), member.ID)
	if err != nil {
		respondServiceError(c, err, "ClockOut: Error from timeclockService.ClockOut")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *TimeclockHandler) Status(c *gin.Context) {
	member, ok := currentStaff(c, h.staff)
	if !ok {
		return
	}
	view, err := h.timeclock.CheckStatus(c.Request.Context(), member.ID)
	if err != nil {
		respondServiceError(c, err, "Status: Error from timeclockService.CheckStatus")
		return
	}
	c.JSON(http.StatusOK, view)
}

// --- Kiosk ---

func (h *TimeclockHandler) bindKiosk(c *gin.Context, op string) (services.KioskRequest, bool) {
	var req services.KioskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, op)
		return req, false
	}
	req.Token = c.GetHeader(KioskTokenHeader)
	return req, true
}

func (h *TimeclockHandler) KioskClockIn(c *gin.Context) {
	req, ok := h.bindKiosk(c, "KioskClockIn")
	if !ok {
		return
	}
	entry, err := h.timeclock.KioskClockIn(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "KioskClockIn: Error from timeclockService.KioskClockIn")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *TimeclockHandler) KioskClockOut(c *gin.Context) {
	req, ok := h.bindKiosk(c, "KioskClockOut")
	if !ok {
		return
	}
	summary, err := h.timeclock.KioskClockOut(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "KioskClockOut: Error from timeclockService.KioskClockOut")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *TimeclockHandler) KioskStatus(c *gin.Context) {
	req, ok := h.bindKiosk(c, "KioskStatus")
	if !ok {
		return
	}
	view, err := h.timeclock.KioskStatus(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "KioskStatus: Error from timeclockService.KioskStatus")
		return
	}
	c.JSON(http.StatusOK, view)
}

// --- Administrative ---

// CreateManualEntry records an entry on behalf of a staff member.
func (h *TimeclockHandler) CreateManualEntry(c *gin.Context) {
	var req services.ManualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateManualEntry")
		return
	}
	if userID, ok := c.Get("userID"); ok {
		if id, ok := userID.(int64); ok {
			req.CreatedBy = &id
		}
	}

	res, err := h.timeclock.ManualEntry(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateManualEntry: Error from timeclockService.ManualEntry")
		return
	}
	c.JSON(http.StatusCreated, res)
}

// CorrectEntry applies a partial correction; only fields present in the
// payload are changed.
func (h *TimeclockHandler) CorrectEntry(c *gin.Context) {
	entryID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var correction models.EntryCorrection
	if err := c.ShouldBindJSON(&correction); err != nil {
		respondBindError(c, err, "CorrectEntry")
		return
	}

	res, err := h.timeclock.CorrectEntry(c.Request.Context(), entryID, correction)
	if err != nil {
		respondServiceError(c, err, "CorrectEntry: Error from timeclockService.CorrectEntry for ID "+utils.Int64ToStr(entryID))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *TimeclockHandler) ListEntries(c *gin.Context) {
	filter, err := parseEntryFilter(c)
	if err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	entries, err := h.timeclock.ListEntries(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err, "ListEntries: Error from timeclockService.ListEntries")
		return
	}
	if entries == nil {
		entries = []models.TimeclockEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

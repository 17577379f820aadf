package handlers

import (
	"net/http"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/services"
	"event_staffing_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// StaffHandler holds the staff service.
type StaffHandler struct {
	staffService services.StaffService
}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler(ss services.StaffService) *StaffHandler {
	return &StaffHandler{staffService: ss}
}

// --- StaffMember Handler Methods ---

// CreateStaffMember handles the creation of a new staff member.
func (h *StaffHandler) CreateStaffMember(c *gin.Context) {
	var req services.CreateStaffMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateStaffMember")
		return
	}

	staffMember, err := h.staffService.CreateStaffMember(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateStaffMember: Error from staffService.CreateStaffMember")
		return
	}
	c.JSON(http.StatusCreated, staffMember)
}

// GetStaffMemberByID handles fetching a single staff member by ID.
func (h *StaffHandler) GetStaffMemberByID(c *gin.Context) {
	staffID, ok := paramID(c, "id")
	if !ok {
		return
	}

	staffMember, err := h.staffService.GetStaffMemberByID(c.Request.Context(), staffID)
	if err != nil {
		respondServiceError(c, err, "GetStaffMemberByID: Error from staffService.GetStaffMemberByID for ID "+utils.Int64ToStr(staffID))
		return
	}
	c.JSON(http.StatusOK, staffMember)
}

type kioskCodeRequest struct {
	Code string `json:"code"`
}

// SetKioskCode replaces or, with an empty code, clears the personal kiosk code.
func (h *StaffHandler) SetKioskCode(c *gin.Context) {
	staffID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req kioskCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "SetKioskCode")
		return
	}

	if err := h.staffService.SetKioskCode(c.Request.Context(), staffID, req.Code); err != nil {
		respondServiceError(c, err, "SetKioskCode: Error from staffService.SetKioskCode for ID "+utils.Int64ToStr(staffID))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Kiosk code updated"})
}

type activeRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func (h *StaffHandler) SetStaffActive(c *gin.Context) {
	staffID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "SetStaffActive")
		return
	}

	if err := h.staffService.SetStaffActive(c.Request.Context(), staffID, *req.IsActive); err != nil {
		respondServiceError(c, err, "SetStaffActive: Error from staffService.SetStaffActive for ID "+utils.Int64ToStr(staffID))
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": staffID, "is_active": *req.IsActive})
}

// --- Reference data ---

func (h *StaffHandler) CreateQualification(c *gin.Context) {
	var req services.NamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateQualification")
		return
	}
	id, err := h.staffService.CreateQualification(c.Request.Context(), req.Name)
	if err != nil {
		respondServiceError(c, err, "CreateQualification: Error from staffService.CreateQualification")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "name": req.Name})
}

func (h *StaffHandler) CreatePosition(c *gin.Context) {
	var req services.NamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreatePosition")
		return
	}
	id, err := h.staffService.CreatePosition(c.Request.Context(), req.Name)
	if err != nil {
		respondServiceError(c, err, "CreatePosition: Error from staffService.CreatePosition")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "name": req.Name})
}

// --- Event and Shift Handler Methods ---

func (h *StaffHandler) CreateEvent(c *gin.Context) {
	var req services.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateEvent")
		return
	}
	event, err := h.staffService.CreateEvent(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateEvent: Error from staffService.CreateEvent")
		return
	}
	c.JSON(http.StatusCreated, event)
}

// CreateShift handles the creation of a new shift.
func (h *StaffHandler) CreateShift(c *gin.Context) {
	var req services.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateShift")
		return
	}
	shift, err := h.staffService.CreateShift(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateShift: Error from staffService.CreateShift")
		return
	}
	c.JSON(http.StatusCreated, shift)
}

func (h *StaffHandler) GetShiftByID(c *gin.Context) {
	shiftID, ok := paramID(c, "id")
	if !ok {
		return
	}
	shift, err := h.staffService.GetShiftByID(c.Request.Context(), shiftID)
	if err != nil {
		respondServiceError(c, err, "GetShiftByID: Error from staffService.GetShiftByID for ID "+utils.Int64ToStr(shiftID))
		return
	}
	c.JSON(http.StatusOK, shift)
}

type invitationRequest struct {
	Status models.InvitationStatus `json:"status" binding:"required"`
}

// SetInvitation records a staff member's answer to an event invitation.
func (h *StaffHandler) SetInvitation(c *gin.Context) {
	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}
	staffID, ok := paramID(c, "staffId")
	if !ok {
		return
	}
	var req invitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "SetInvitation")
		return
	}

	inv, err := h.staffService.SetInvitation(c.Request.Context(), eventID, staffID, req.Status)
	if err != nil {
		respondServiceError(c, err, "SetInvitation: Error from staffService.SetInvitation")
		return
	}
	c.JSON(http.StatusOK, inv)
}

package handlers

import (
	"net/http"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// AssignmentHandler exposes the assignment engine.
type AssignmentHandler struct {
	assignments services.AssignmentService
	staff       services.StaffService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(as services.AssignmentService, ss services.StaffService) *AssignmentHandler {
	return &AssignmentHandler{assignments: as, staff: ss}
}

// Assign places one staff member on a shift.
func (h *AssignmentHandler) Assign(c *gin.Context) {
	shiftID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Assign")
		return
	}
	req.ShiftID = shiftID
	if userID, ok := c.Get("userID"); ok {
		if id, ok := userID.(int64); ok {
			req.AssignedBy = &id
		}
	}

	res, err := h.assignments.Assign(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Assign: Error from assignmentService.Assign")
		return
	}
	c.JSON(http.StatusOK, res)
}

// BulkAssign assigns several staff members; each item succeeds or fails on
// its own, so the response is always 200 with per-item results.
func (h *AssignmentHandler) BulkAssign(c *gin.Context) {
	shiftID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "BulkAssign")
		return
	}
	req.ShiftID = shiftID
	if userID, ok := c.Get("userID"); ok {
		if id, ok := userID.(int64); ok {
			req.AssignedBy = &id
		}
	}

	items, err := h.assignments.BulkAssign(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "BulkAssign: Error from assignmentService.BulkAssign")
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

// Unassign cancels a staff member's assignment on a shift.
func (h *AssignmentHandler) Unassign(c *gin.Context) {
	shiftID, ok := paramID(c, "id")
	if !ok {
		return
	}
	staffID, ok := paramID(c, "staffId")
	if !ok {
		return
	}

	a, err := h.assignments.Unassign(c.Request.Context(), shiftID, staffID)
	if err != nil {
		respondServiceError(c, err, "Unassign: Error from assignmentService.Unassign")
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *AssignmentHandler) ListForShift(c *gin.Context) {
	shiftID, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.assignments.ListForShift(c.Request.Context(), shiftID)
	if err != nil {
		respondServiceError(c, err, "ListForShift: Error from assignmentService.ListForShift")
		return
	}
	if list == nil {
		list = []models.ShiftAssignment{}
	}
	c.JSON(http.StatusOK, list)
}

// Evaluate previews qualification and conflict data without writing.
func (h *AssignmentHandler) Evaluate(c *gin.Context) {
	shiftID, ok := paramID(c, "id")
	if !ok {
		return
	}
	staffID, ok := paramID(c, "staffId")
	if !ok {
		return
	}
	report, err := h.assignments.Evaluate(c.Request.Context(), shiftID, staffID)
	if err != nil {
		respondServiceError(c, err, "Evaluate: Error from assignmentService.Evaluate")
		return
	}
	c.JSON(http.StatusOK, report)
}

// Confirm is called by the assigned staff member.
func (h *AssignmentHandler) Confirm(c *gin.Context) {
	assignmentID, ok := paramID(c, "id")
	if !ok {
		return
	}
	member, ok := currentStaff(c, h.staff)
	if !ok {
		return
	}

	a, err := h.assignments.Confirm(c.Request.Context(), assignmentID, member.ID)
	if err != nil {
		respondServiceError(c, err, "Confirm: Error from assignmentService.Confirm")
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *AssignmentHandler) MyAssignments(c *gin.Context) {
	member, ok := currentStaff(c, h.staff)
	if !ok {
		return
	}
	list, err := h.assignments.ListForStaff(c.Request.Context(), member.ID)
	if err != nil {
		respondServiceError(c, err, "MyAssignments: Error from assignmentService.ListForStaff")
		return
	}
	if list == nil {
		list = []models.ShiftAssignment{}
	}
	c.JSON(http.StatusOK, list)
}

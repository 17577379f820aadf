package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/services"
	"event_staffing_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps a service error onto the API error envelope by
// its category. Unknown errors are reported as internal without details.
func respondServiceError(c *gin.Context, err error, op string) {
	utils.LogError(err, op)

	var conflict *services.ShiftConflictError
	if errors.As(err, &conflict) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict,
			"Staff member is already assigned to an overlapping shift.", err.Error()).WithData(conflict.Report))
		return
	}

	switch code := services.ErrorCode(err); code {
	case utils.ErrCodeValidationFailed:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, code, "Validation failed.", err.Error()))
	case utils.ErrCodeConflict:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, code, "Request conflicts with current state.", err.Error()))
	case utils.ErrCodeForbidden:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, code, "Not authorized for this action.", err.Error()))
	case utils.ErrCodeNotFound:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, code, "Resource not found.", err.Error()))
	case utils.ErrCodeDependencyDegraded:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, code, "A dependency is unavailable.", err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Internal error.", "Internal error"))
	}
}

func respondBindError(c *gin.Context, err error, op string) {
	utils.LogError(err, op+": Failed to bind JSON")
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
}

// paramID parses a positive int64 path parameter. It responds and returns
// false when the value is malformed.
func paramID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			fmt.Sprintf("Invalid %s format.", name), raw))
		return 0, false
	}
	return id, true
}

// currentUserID reads the user id AuthMiddleware put on the context.
func currentUserID(c *gin.Context) (int64, bool) {
	raw, exists := c.Get("userID")
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return 0, false
	}
	userID, ok := raw.(int64)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User ID format incorrect.", "Invalid user ID format in context"))
		return 0, false
	}
	return userID, true
}

// currentStaff resolves the staff member linked to the authenticated user.
func currentStaff(c *gin.Context, staff services.StaffService) (*models.StaffMember, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	member, err := staff.GetStaffMemberByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden,
				"No staff profile is linked to this account.", err.Error()))
			return nil, false
		}
		respondServiceError(c, err, "currentStaff: Error resolving staff for user "+utils.Int64ToStr(userID))
		return nil, false
	}
	return member, true
}

// parseEntryFilter reads staff_id, event_id, status, from, to and limit query
// parameters. Times are RFC3339.
func parseEntryFilter(c *gin.Context) (models.EntryFilter, error) {
	var f models.EntryFilter
	var err error
	if f.StaffID, err = utils.OptionalInt64(c.Query("staff_id")); err != nil {
		return f, fmt.Errorf("staff_id: %w", err)
	}
	if f.EventID, err = utils.OptionalInt64(c.Query("event_id")); err != nil {
		return f, fmt.Errorf("event_id: %w", err)
	}
	if s := strings.TrimSpace(c.Query("status")); s != "" {
		status := models.TimeclockStatus(s)
		f.Status = &status
	}
	if f.From, err = optionalTime(c.Query("from")); err != nil {
		return f, fmt.Errorf("from: %w", err)
	}
	if f.To, err = optionalTime(c.Query("to")); err != nil {
		return f, fmt.Errorf("to: %w", err)
	}
	if s := c.Query("limit"); s != "" {
		if f.Limit, err = strconv.Atoi(s); err != nil {
			return f, fmt.Errorf("limit: %w", err)
		}
	}
	return f, nil
}

func optionalTime(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

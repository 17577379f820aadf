package handlers

import (
	"net/http"

	"event_staffing_backend/internal/models"
	"event_staffing_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// SettingHandler manages the auto-break policy stored in application settings.
type SettingHandler struct {
	policy services.BreakPolicyService
}

// NewSettingHandler creates a new SettingHandler.
func NewSettingHandler(ps services.BreakPolicyService) *SettingHandler {
	return &SettingHandler{policy: ps}
}

// GetBreakPolicy returns the policy in effect. A stored policy that cannot
// be read is reported as degraded rather than silently replaced.
func (h *SettingHandler) GetBreakPolicy(c *gin.Context) {
	policy, err := h.policy.Current(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetBreakPolicy: Error from breakPolicyService.Current")
		return
	}
	c.JSON(http.StatusOK, policy)
}

// UpdateBreakPolicy replaces the whole policy.
func (h *SettingHandler) UpdateBreakPolicy(c *gin.Context) {
	var req models.BreakPolicySetting
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateBreakPolicy")
		return
	}
	policy, err := h.policy.Update(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "UpdateBreakPolicy: Error from breakPolicyService.Update")
		return
	}
	c.JSON(http.StatusOK, policy)
}

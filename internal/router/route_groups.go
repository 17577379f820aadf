package router

import (
	"event_staffing_backend/internal/handlers"
	"event_staffing_backend/internal/middleware"
	"event_staffing_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupKioskRoutes sets up the shared-terminal routes. They authenticate by
// personal code and the optional kiosk token, not by JWT.
func SetupKioskRoutes(apiGroup *gin.RouterGroup, timeclockHandler *handlers.TimeclockHandler) {
	kioskRoutes := apiGroup.Group("/kiosk")
	{
		kioskRoutes.POST("/clock-in", timeclockHandler.KioskClockIn)
		kioskRoutes.POST("/clock-out", timeclockHandler.KioskClockOut)
		kioskRoutes.POST("/status", timeclockHandler.KioskStatus)
	}
}

// SetupSelfServiceRoutes sets up the routes a staff member uses for their
// own assignments and time entries.
func SetupSelfServiceRoutes(authenticatedGroup *gin.RouterGroup, assignmentHandler *handlers.AssignmentHandler, timeclockHandler *handlers.TimeclockHandler) {
	meRoutes := authenticatedGroup.Group("/me")
	meRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		meRoutes.GET("/assignments", assignmentHandler.MyAssignments)
		meRoutes.POST("/assignments/:id/confirm", assignmentHandler.Confirm)

		meRoutes.POST("/timeclock/clock-in", timeclockHandler.ClockIn)
		meRoutes.POST("/timeclock/clock-out", timeclockHandler.ClockOut)
		meRoutes.GET("/timeclock/status", timeclockHandler.Status)
	}
}

// SetupUserRoutes sets up login account administration.
func SetupUserRoutes(authenticatedGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	userRoutes := authenticatedGroup.Group("/users")
	userRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		userRoutes.POST("", authHandler.CreateUser)
	}
}

// SetupStaffRoutes sets up staff member and reference data routes.
func SetupStaffRoutes(authenticatedGroup *gin.RouterGroup, staffHandler *handlers.StaffHandler) {
	admin := authenticatedGroup.Group("")
	admin.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		admin.POST("/staff", staffHandler.CreateStaffMember)
		admin.GET("/staff/:id", staffHandler.GetStaffMemberByID)
		admin.PUT("/staff/:id/kiosk-code", staffHandler.SetKioskCode)
		admin.PATCH("/staff/:id/active", staffHandler.SetStaffActive)

		admin.POST("/qualifications", staffHandler.CreateQualification)
		admin.POST("/positions", staffHandler.CreatePosition)
	}
}

// SetupEventRoutes sets up event and invitation routes.
func SetupEventRoutes(authenticatedGroup *gin.RouterGroup, staffHandler *handlers.StaffHandler) {
	eventRoutes := authenticatedGroup.Group("/events")
	eventRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		eventRoutes.POST("", staffHandler.CreateEvent)
		eventRoutes.PUT("/:id/invitations/:staffId", staffHandler.SetInvitation)
	}
}

// SetupShiftRoutes sets up shift and assignment routes.
func SetupShiftRoutes(authenticatedGroup *gin.RouterGroup, staffHandler *handlers.StaffHandler, assignmentHandler *handlers.AssignmentHandler) {
	shiftRoutes := authenticatedGroup.Group("/shifts")
	shiftRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		shiftRoutes.POST("", staffHandler.CreateShift)
		shiftRoutes.GET("/:id", staffHandler.GetShiftByID)

		shiftRoutes.GET("/:id/assignments", assignmentHandler.ListForShift)
		shiftRoutes.POST("/:id/assignments", assignmentHandler.Assign)
		shiftRoutes.POST("/:id/assignments/bulk", assignmentHandler.BulkAssign)
		shiftRoutes.DELETE("/:id/assignments/:staffId", assignmentHandler.Unassign)
		shiftRoutes.GET("/:id/staffing/:staffId", assignmentHandler.Evaluate)
	}
}

// SetupTimeclockAdminRoutes sets up manual entry, correction and export routes.
func SetupTimeclockAdminRoutes(authenticatedGroup *gin.RouterGroup, timeclockHandler *handlers.TimeclockHandler, reportHandler *handlers.ReportHandler) {
	timeclockRoutes := authenticatedGroup.Group("/timeclock")
	timeclockRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		timeclockRoutes.POST("/entries", timeclockHandler.CreateManualEntry)
		timeclockRoutes.GET("/entries", timeclockHandler.ListEntries)
		timeclockRoutes.PATCH("/entries/:id", timeclockHandler.CorrectEntry)
		timeclockRoutes.GET("/export", reportHandler.ExportEntries)
	}
}

// SetupSettingsRoutes sets up the settings routes.
func SetupSettingsRoutes(authenticatedGroup *gin.RouterGroup, settingHandler *handlers.SettingHandler) {
	settingsRoutes := authenticatedGroup.Group("/settings")
	settingsRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		settingsRoutes.GET("/break-policy", settingHandler.GetBreakPolicy)
		settingsRoutes.PUT("/break-policy", settingHandler.UpdateBreakPolicy)
	}
}

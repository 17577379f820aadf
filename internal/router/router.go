package router

import (
	"database/sql"
	"time"

	"event_staffing_backend/internal/handlers"
	"event_staffing_backend/internal/middleware"
	"event_staffing_backend/internal/notifications"
	"event_staffing_backend/internal/repositories"
	"event_staffing_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Options carries the runtime knobs the services need.
type Options struct {
	KioskStaticToken      string
	KioskCodeSecret       string
	BreakPolicyTimeout    time.Duration
	InvitationGateTimeout time.Duration
	NotifyClockOutSummary bool

	// Dispatcher defaults to logging through the global logger.
	Dispatcher notifications.Dispatcher
	// Now defaults to time.Now.
	Now func() time.Time
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB, opts Options) {
	if opts.Dispatcher == nil {
		opts.Dispatcher = notifications.NewLogDispatcher(log.Logger)
	}

	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	staffRepo := repositories.NewStaffRepository(db)
	invitationRepo := repositories.NewInvitationRepository(db)
	assignmentRepo := repositories.NewAssignmentRepository(db)
	timeclockRepo := repositories.NewTimeclockRepository(db)
	settingRepo := repositories.NewSettingRepository(db)

	// Initialize Services
	breakPolicy := services.NewBreakPolicyService(settingRepo, db, services.DefaultBreakPolicy)
	calculator := services.NewWorkingTimeCalculator(breakPolicy, opts.BreakPolicyTimeout)
	gate := services.NewInvitationGate(invitationRepo, db)

	authService := services.NewAuthService(authRepo, db)
	staffService := services.NewStaffService(db, staffRepo, invitationRepo, opts.KioskCodeSecret)
	assignmentService := services.NewAssignmentService(db, staffRepo, assignmentRepo, gate, opts.InvitationGateTimeout, opts.Dispatcher, opts.Now)
	timeclockService := services.NewTimeclockService(db, staffRepo, timeclockRepo, calculator, opts.Dispatcher, services.TimeclockOptions{
		KioskCodeSecret:       opts.KioskCodeSecret,
		KioskStaticToken:      opts.KioskStaticToken,
		NotifyClockOutSummary: opts.NotifyClockOutSummary,
	}, opts.Now)
	reportService := services.NewReportService(db, timeclockRepo)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	staffHandler := handlers.NewStaffHandler(staffService)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService, staffService)
	timeclockHandler := handlers.NewTimeclockHandler(timeclockService, staffService)
	reportHandler := handlers.NewReportHandler(reportService)
	settingHandler := handlers.NewSettingHandler(breakPolicy)

	apiV1 := engine.Group("/api/v1")

	// Public routes
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)
	SetupKioskRoutes(apiV1, timeclockHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupSelfServiceRoutes(authenticated, assignmentHandler, timeclockHandler)

		SetupUserRoutes(authenticated, authHandler)
		SetupStaffRoutes(authenticated, staffHandler)
		SetupEventRoutes(authenticated, staffHandler)
		SetupShiftRoutes(authenticated, staffHandler, assignmentHandler)
		SetupTimeclockAdminRoutes(authenticated, timeclockHandler, reportHandler)
		SetupSettingsRoutes(authenticated, settingHandler)
	}
}

func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.LoginUser)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
}

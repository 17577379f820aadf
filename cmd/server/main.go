package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event_staffing_backend/internal/config"
	"event_staffing_backend/internal/database"
	"event_staffing_backend/internal/notifications"
	"event_staffing_backend/internal/router"
	"event_staffing_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger("info", "console")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize Logger
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	utils.ConfigureJWT(cfg.JWTSecret, cfg.JWTExpiration)
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	// Initialize Database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to initialize database")
	}
	defer db.Close()
	utils.LogInfo("Database initialized", map[string]interface{}{"driver": cfg.DBDriver})

	engine := gin.New()
	engine.Use(gin.Recovery())
	// Add GinLogger middleware for request logging
	engine.Use(utils.GinLogger())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Kiosk-Token", utils.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{utils.RequestIDHeader, "Content-Disposition"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.Setup(engine, db, router.Options{
		KioskStaticToken:      cfg.KioskStaticToken,
		KioskCodeSecret:       cfg.KioskCodeSecret,
		BreakPolicyTimeout:    cfg.BreakPolicyTimeout,
		InvitationGateTimeout: cfg.InvitationGateTimeout,
		NotifyClockOutSummary: cfg.NotifyClockOutSummary,
		Dispatcher:            notifications.NewLogDispatcher(log.Logger),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Server shutdown failed")
	}
}

// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/smartotem/totem-backend/internal/cache"
	"github.com/smartotem/totem-backend/internal/config"
	"github.com/smartotem/totem-backend/internal/database"
	"github.com/smartotem/totem-backend/internal/i18n"
	"github.com/smartotem/totem-backend/internal/router"
	"github.com/smartotem/totem-backend/internal/storage"
	"github.com/smartotem/totem-backend/internal/vision"
	"github.com/smartotem/totem-backend/internal/vision/opencv"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogging(cfg.Environment)

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}
	if err := database.SeedInitialData(db, cfg.Staff); err != nil {
		logrus.WithError(err).Fatal("Failed to seed initial data")
	}

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cacheProvider, closeCache := cache.New(ctx, cfg.Redis)
	defer closeCache()

	reports, err := storage.New(cfg.AWS)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize report storage")
	}

	analyzer, closeVision := newAnalyzer(cfg.Vision)
	defer closeVision()

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Initialize(db, cfg, router.Infrastructure{
		Cache:    cacheProvider,
		Reports:  reports,
		Analyzer: analyzer,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}

func configureLogging(environment string) {
	logrus.SetOutput(os.Stdout)
	if environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
		logrus.SetLevel(logrus.InfoLevel)
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(logrus.DebugLevel)
}

// newAnalyzer prefers the local Haar cascade for faces and falls back to the
// sidecar. Pose landmarks come only from the sidecar or the kiosk itself.
func newAnalyzer(cfg config.VisionConfig) (*vision.Analyzer, func()) {
	visionCfg := vision.DefaultConfig()
	visionCfg.Downscale = cfg.Downscale
	visionCfg.MaxDimension = cfg.MaxDimension
	visionCfg.MinFaceConfidence = cfg.MinFaceConfidence
	visionCfg.MinPoseConfidence = cfg.MinPoseConfidence

	var sidecar *vision.SidecarClient
	if cfg.SidecarURL != "" {
		sidecar = vision.NewSidecarClient(cfg.SidecarURL, time.Duration(cfg.SidecarTimeoutMs)*time.Millisecond)
	}

	var faces vision.FaceDetector
	var pose vision.PoseDetector
	closer := func() {}

	cascade, err := opencv.NewCascadeFaceDetector(cfg.CascadePath)
	switch {
	case err == nil:
		faces = cascade
		closer = func() { cascade.Close() }
	case sidecar != nil:
		logrus.WithError(err).Warn("Face cascade unavailable, using landmark sidecar for faces")
		faces = sidecar
	default:
		logrus.WithError(err).Warn("Face cascade unavailable and no sidecar configured, face detection disabled")
	}
	if sidecar != nil {
		pose = sidecar
	}

	return vision.NewAnalyzer(visionCfg, opencv.Decoder{}, faces, pose), closer
}

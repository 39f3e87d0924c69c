// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/smartotem/totem-backend/internal/cache"
	"github.com/smartotem/totem-backend/internal/config"
	"github.com/smartotem/totem-backend/internal/handlers"
	"github.com/smartotem/totem-backend/internal/middleware"
	"github.com/smartotem/totem-backend/internal/services"
	"github.com/smartotem/totem-backend/internal/storage"
	"github.com/smartotem/totem-backend/internal/utils"
	"github.com/smartotem/totem-backend/internal/vision"
)

const version = "1.0.0"

// Infrastructure carries the clients built in main that services share.
type Infrastructure struct {
	Cache    cache.Provider
	Reports  storage.ReportStore
	Analyzer *vision.Analyzer
}

func Initialize(db *gorm.DB, cfg *config.Config, infra Infrastructure) *gin.Engine {
	if infra.Cache == nil {
		infra.Cache = cache.NewMemoryProvider()
	}
	maxUploadBytes := cfg.Vision.MaxUploadMB << 20

	// Initialize services
	provisioner := services.NewProvisioner(cfg.Tracking.StrictProvisioning)
	trackingService := services.NewTrackingService(db, provisioner)
	recommendationService := services.NewRecommendationService(db, trackingService, cfg.Tracking.DefaultLimit, cfg.Tracking.MaxLimit)
	searchService := services.NewSearchService(db, trackingService, infra.Cache, cfg.Tracking.MaxLimit)
	shiftService := services.NewShiftService(db, provisioner, infra.Reports)
	visionService := services.NewVisionService(db, infra.Analyzer, provisioner, trackingService, shiftService, recommendationService, maxUploadBytes)
	voiceService := services.NewVoiceService(db, provisioner, trackingService, searchService, recommendationService)
	sessionService := services.NewSessionService(db, provisioner)
	ratingService := services.NewRatingService(db, provisioner)
	catalogService := services.NewCatalogService(db, infra.Cache)
	authService := services.NewAuthService(db, cfg)

	// Initialize handlers
	visionHandler := handlers.NewVisionHandler(visionService, maxUploadBytes, cfg.Vision.StreamMaxClients)
	voiceHandler := handlers.NewVoiceHandler(voiceService)
	recommendationHandler := handlers.NewRecommendationHandler(recommendationService, trackingService)
	searchHandler := handlers.NewSearchHandler(searchService)
	trackingHandler := handlers.NewTrackingHandler(trackingService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	ratingHandler := handlers.NewRatingHandler(ratingService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	authHandler := handlers.NewAuthHandler(authService)
	shiftHandler := handlers.NewShiftHandler(shiftService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(corsConfig(cfg.Server.AllowedOrigin)))
	r.Use(middleware.I18nMiddleware())
	r.Use(limit(middleware.GeneralRateLimit()))
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "unreachable"
		}
		c.JSON(status, gin.H{
			"status":   http.StatusText(status),
			"version":  version,
			"database": dbStatus,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Kiosk routes
		visionGroup := v1.Group("/vision")
		{
			visionGroup.POST("/analyze", limit(middleware.FrameRateLimit()), visionHandler.Analyze)
			visionGroup.GET("/stream", visionHandler.Stream)
		}

		v1.POST("/voice", voiceHandler.Process)

		recommendations := v1.Group("/recommendations")
		{
			recommendations.GET("/category/:name", recommendationHandler.ByCategory)
			recommendations.GET("/brand/:name", recommendationHandler.ByBrand)
			recommendations.GET("/color/:color", recommendationHandler.ByColor)
			recommendations.GET("/price", recommendationHandler.ByPriceRange)
			recommendations.GET("/budget", recommendationHandler.Budget)
			recommendations.GET("/seasonal/:season", recommendationHandler.Seasonal)
			recommendations.GET("/trending", recommendationHandler.Trending)
			recommendations.GET("/similar/:variant_id", recommendationHandler.Similar)
			recommendations.GET("/cross-sell/:variant_id", recommendationHandler.CrossSell)
			recommendations.POST("/personalized", recommendationHandler.Personalized)
			recommendations.GET("/:id/verify-price/:variant_id", recommendationHandler.VerifyPrice)
		}

		search := v1.Group("/search")
		{
			search.GET("", searchHandler.Search)
			search.GET("/suggestions", searchHandler.Suggestions)
		}

		tracking := v1.Group("/tracking")
		{
			tracking.POST("/interaction", trackingHandler.TrackInteraction)
			tracking.POST("/view", trackingHandler.TrackView)
			tracking.POST("/click", trackingHandler.TrackClick)
			tracking.GET("/sessions/:id/recent", trackingHandler.RecentActivity)
			tracking.GET("/sessions/:id/metrics", middleware.StaffRequired(), trackingHandler.SessionMetrics)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", sessionHandler.Start)
			sessions.GET("/:id", sessionHandler.Get)
			sessions.POST("/:id/end", sessionHandler.End)
			sessions.POST("/:id/reset", sessionHandler.Reset)
		}

		ratings := v1.Group("/ratings")
		{
			ratings.POST("", ratingHandler.Rate)
			ratings.POST("/group", ratingHandler.RateGroup)
			ratings.GET("/stats", middleware.StaffRequired(), ratingHandler.Stats)
		}

		catalog := v1.Group("/catalog")
		{
			catalog.GET("/categories", catalogHandler.Categories)
			catalog.GET("/variants/:id", catalogHandler.GetVariant)

			// Staff routes
			protected := catalog.Group("")
			protected.Use(middleware.StaffRequired())
			{
				protected.POST("/products", catalogHandler.CreateProduct)
				protected.PUT("/variants/:id/price", catalogHandler.UpdatePrice)
				protected.PUT("/variants/:id/image", catalogHandler.UpdateImage)
			}
		}

		// Authentication routes
		auth := v1.Group("/auth")
		{
			auth.POST("/login", limit(middleware.LoginRateLimit()), authHandler.Login)
			auth.GET("/me", middleware.StaffRequired(), authHandler.Me)
			auth.POST("/staff", middleware.StaffRequired(), middleware.AdminRequired(), authHandler.CreateStaff)
		}

		shifts := v1.Group("/shifts")
		shifts.Use(middleware.StaffRequired())
		{
			shifts.GET("", shiftHandler.List)
			shifts.POST("", shiftHandler.Create)
			shifts.GET("/current", shiftHandler.Current)
			shifts.GET("/day/:date", shiftHandler.Day)
			shifts.GET("/:id/stats", shiftHandler.Stats)
			shifts.POST("/:id/close", shiftHandler.Close)
			shifts.GET("/:id/summary", shiftHandler.Summary)
			shifts.POST("/:id/summary", shiftHandler.GenerateSummary)
			shifts.GET("/:id/report-url", shiftHandler.ReportURL)
		}
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept-Language", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-Total-Count"},
		AllowWebSockets:  true,
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// limit drops per-IP throttling under gin.TestMode so API suites can hammer one address.
func limit(h gin.HandlerFunc) gin.HandlerFunc {
	if gin.Mode() == gin.TestMode {
		return func(c *gin.Context) { c.Next() }
	}
	return h
}

package router

import (
	"context"
	"time"

	"github.com/forkcast/forkcast-api/internal/ai"
	"github.com/forkcast/forkcast-api/internal/config"
	"github.com/forkcast/forkcast-api/internal/geo"
	"github.com/forkcast/forkcast-api/internal/handlers"
	"github.com/forkcast/forkcast-api/internal/logger"
	"github.com/forkcast/forkcast-api/internal/middleware"
	"github.com/forkcast/forkcast-api/internal/query"
	"github.com/forkcast/forkcast-api/internal/repository"
	"github.com/forkcast/forkcast-api/internal/search"
	"github.com/forkcast/forkcast-api/internal/service"
	"github.com/forkcast/forkcast-api/internal/ws"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter sets up the Gin router.
func SetupRouter(ctx context.Context, cfg *config.Config, database *gorm.DB) (*gin.Engine, error) {
	// Create default Gin router
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowCredentials = true
	corsConfig.AllowOrigins = []string{
		"https://api.forkcast.ge",
		"https://forkcast.ge",
		"https://www.forkcast.ge",
	}
	r.Use(cors.New(corsConfig))

	// Add request ID middleware for request correlation
	r.Use(logger.RequestIDMiddleware())

	// Optional app identifier check, for deployments behind a gateway
	if cfg.EnvVars.IDHeader != "" {
		r.Use(middleware.CheckIDHeader(cfg.EnvVars.IDHeader))
	}

	// Ping route for testing
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Recommendation pipeline setup
	provider, err := ai.NewGeminiProvider(ctx, cfg.EnvVars.GeminiAPIKey, cfg.EnvVars.GeminiModel, cfg.EnvVars.UpstreamTimeout)
	if err != nil {
		return nil, err
	}
	builder := query.NewBuilder(cfg.Prompts)
	historyRepo := repository.NewSearchHistoryRepository(database)
	recService := service.NewRecommendationService(cfg, builder, provider, historyRepo)

	// Server-side location fallback for clients without a device fix
	locator := geo.NewIPLocateProvider(cfg.EnvVars.GeoEndpoint)
	manager := search.NewManager(recService, locator, recService)

	sessionHandler := handlers.NewSessionHandler(cfg)
	searchHandler := handlers.NewSearchHandler(recService, manager)

	// Group for API routes that don't require token verification
	apiPublic := r.Group("/v1")
	{
		// Create an anonymous client session
		apiPublic.POST("/session", sessionHandler.CreateSession)
		// Refresh an access token
		apiPublic.POST("/session/refresh", sessionHandler.RefreshSession)
	}

	// Group for API routes that require token verification
	apiProtected := r.Group("/v1")
	{
		apiProtected.Use(middleware.VerifyTokenMiddleware(cfg))

		// Search starts fan out to a paid upstream, so they carry a
		// tighter per-IP limit than the read-only routes.
		searchLimiter := middleware.RateLimitByIP(1, 5, 10*time.Minute, time.Hour)

		// Begin a city/category search
		apiProtected.POST("/search/city", searchLimiter, searchHandler.StartCitySearch)
		// Begin a position-based search
		apiProtected.POST("/search/gps", searchLimiter, searchHandler.StartGPSSearch)
		// Update criteria without starting a search
		apiProtected.PATCH("/search/criteria", searchHandler.UpdateCriteria)
		// Get the current session state
		apiProtected.GET("/search/state", searchHandler.GetState)
		// Get recent recorded searches
		apiProtected.GET("/search/history", searchHandler.GetHistory)
	}

	// WebSocket routes (authenticated via query param token)
	hub := ws.NewHub()
	go hub.Run()
	streamHandler := ws.NewStreamHandler(hub, cfg.EnvVars.JwtSecretKey, manager)
	r.GET("/v1/ws/search", streamHandler.HandleSearchStream)

	return r, nil
}

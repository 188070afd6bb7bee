package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/servimatch/skilltest-backend/internal/config"
	"github.com/servimatch/skilltest-backend/internal/handler"
	"github.com/servimatch/skilltest-backend/internal/middleware"
	"github.com/servimatch/skilltest-backend/internal/response"
	"github.com/servimatch/skilltest-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	ProviderPortal *handler.ProviderPortalHandler
	CatalogAdmin   *handler.CatalogAdminHandler
	WS             *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", middleware.ServiceKeyHeader}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for attempt starts: session churn is expensive.
	startLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── 1. Provider Group (JWT) ───────────────────────────────────────
	providerAPI := router.Group("/api/v1/provider")
	providerAPI.Use(middleware.RequireProviderJWT(authService))
	{
		providerAPI.GET("/tests", handlers.ProviderPortal.GetTestPreview)
		providerAPI.POST("/attempts", startLimiter.Middleware(), handlers.ProviderPortal.StartAttempt)
		providerAPI.GET("/attempts/active", handlers.ProviderPortal.GetActiveAttempt)
		providerAPI.PUT("/attempts/active/answer", handlers.ProviderPortal.RecordAnswer)
		providerAPI.POST("/attempts/active/advance", handlers.ProviderPortal.Advance)
		providerAPI.POST("/attempts/active/back", handlers.ProviderPortal.GoBack)
		providerAPI.POST("/attempts/active/submit", handlers.ProviderPortal.Submit)
		providerAPI.GET("/attempts/active/result", handlers.ProviderPortal.GetResult)
		providerAPI.DELETE("/attempts/active", handlers.ProviderPortal.DismissAttempt)
	}

	// ─── 2. WebSocket Group (Provider WS Auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireProviderWSAuth(authService))
	{
		ws.GET("/provider/attempts/stream", handlers.WS.AttemptStream)
	}

	// ─── 3. Catalog Group (Service Key) ────────────────────────────────
	catalogAPI := router.Group("/api/v1/catalog")
	catalogAPI.Use(middleware.RequireServiceKey(cfg.ServiceKeyHash))
	{
		catalogAPI.POST("/tests", handlers.CatalogAdmin.CreateTest)
		catalogAPI.GET("/tests/:test_id", handlers.CatalogAdmin.GetTest)
		catalogAPI.POST("/tests/:test_id/publish", handlers.CatalogAdmin.PublishTest)
		catalogAPI.POST("/tests/:test_id/archive", handlers.CatalogAdmin.ArchiveTest)
		catalogAPI.GET("/tests/:test_id/results", handlers.CatalogAdmin.ListResults)
	}

	return router
}

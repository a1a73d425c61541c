// api/router.go
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-query-gateway/api/handlers"
	"github.com/Annany2002/nebula-query-gateway/api/middleware"
	"github.com/Annany2002/nebula-query-gateway/config"
	"github.com/Annany2002/nebula-query-gateway/internal/auth"
)

const healthPath = "/health"

// SetupRouter initializes the Gin router and sets up all routes.
func SetupRouter(cfg *config.Config, executor handlers.QueryExecutor) *gin.Engine {
	router := gin.New()

	// Outermost first: the logger sees the final status, and ErrorHandler
	// answers for errors attached by recovery, auth and handlers alike.
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(corsMiddleware(cfg))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	resolver := auth.NewResolver(cfg.ReadOnlyAPIKey, cfg.ReadWriteAPIKey)
	queryHandler := handlers.NewQueryHandler(executor)

	// --- Public Routes ---
	router.GET(healthPath, handlers.HealthCheck)

	// --- Protected Routes ---
	queryRoutes := router.Group("/query")
	if cfg.RateLimitPerMinute > 0 {
		queryRoutes.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)))
	}
	queryRoutes.Use(middleware.APIKeyAuth(resolver))
	{
		queryRoutes.POST("", queryHandler.ExecuteQuery)
	}

	return router
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	corsCfg.ExposeHeaders = []string{middleware.RequestIDHeader}

	if len(cfg.CORSAllowedOrigins) == 0 || (len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
	}
	handler := cors.New(corsCfg)

	// A disallowed Origin would get a 403; the health check must not.
	return func(c *gin.Context) {
		if c.Request.URL.Path == healthPath {
			c.Next()
			return
		}
		handler(c)
	}
}

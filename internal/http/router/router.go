// Package router assembles the gin engine: middleware chain, health check
// and the versioned API surface.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	dashboardhandler "tender_portal_backend/internal/dashboard/handler"
	workflowhandler "tender_portal_backend/internal/workflow/handler"
	"tender_portal_backend/platform/config"
	"tender_portal_backend/platform/httpkit"
	"tender_portal_backend/platform/logger"
)

type Handlers struct {
	Workflow  *workflowhandler.Handler
	Dashboard *dashboardhandler.Handler
}

func New(cfg *config.Config, log *logger.Logger, handlers Handlers) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(log))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(cfg)))

	limiter := httpkit.NewIPRateLimiter(rate.Limit(10), 30, log)
	engine.Use(limiter.RateLimit())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	v1.Use(httpkit.AuthRequired(cfg))

	handlers.Workflow.RegisterRoutes(v1)
	handlers.Dashboard.RegisterRoutes(v1)

	return engine
}

func corsConfig(cfg config.HTTPConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", httpkit.RequestIDHeader},
		ExposeHeaders:    []string{httpkit.RequestIDHeader},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.GetCORSOrigins()
	}
	return corsCfg
}

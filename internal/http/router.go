package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/asowa/marketplace/internal/auth"
	"github.com/asowa/marketplace/internal/entities"
	"github.com/asowa/marketplace/internal/logging"
	"github.com/asowa/marketplace/internal/uploads"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	router := gin.New()
	setTrustedProxies(router, cfg.TrustedProxies, log)
	router.Use(gin.Recovery())
	router.Use(logging.GinLogger(log))
	router.Use(cfg.Metrics.Middleware())
	if corsMiddleware := newCORS(cfg.CORSAllowedOrigins); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.HSTSMaxAge > 0 {
		router.Use(auth.StrictTransportSecurityMiddleware(cfg.HSTSMaxAge))
	}

	gate := auth.NewGate(cfg.Tokens, cfg.Accounts, log, cfg.Metrics)
	adminOnly := []gin.HandlerFunc{gate.Protect(), gate.RequireRole(entities.RoleAdmin)}

	health := NewHealthController(cfg.Database, cfg.Version)
	authController := auth.NewAuthController(cfg.AuthService, cfg.LoginLimiter, cfg.Audit, log, cfg.Metrics)
	designsController := NewDesignsController(cfg.Designs, cfg.Images, cfg.MaxImageBytes, cfg.Audit, log)
	usersController := NewUsersController(cfg.Accounts, log)
	statsController := NewStatsController(cfg.Accounts, cfg.Designs, log)

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Asowa API is running...")
	})

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Auth endpoints
	authController.RegisterRoutes(router, gate)

	api := router.Group("/api")

	// Designs: public reads, admin writes
	api.GET("/designs", designsController.List)
	api.GET("/designs/:id", designsController.Get)
	api.POST("/designs", append(adminOnly, designsController.Create)...)
	api.PUT("/designs/:id", append(adminOnly, designsController.Update)...)
	api.DELETE("/designs/:id", append(adminOnly, designsController.Delete)...)

	// Users and stats
	api.GET("/users", append(adminOnly, usersController.List)...)
	api.GET("/stats", gate.Protect(), statsController.Get)

	if cfg.Audit != nil {
		api.GET("/audit", append(adminOnly, NewAuditController(cfg.Audit, log).List)...)
	}

	// Uploaded images
	if cfg.UploadDir != "" {
		router.Static(uploads.PublicPrefix, cfg.UploadDir)
	}

	return router
}

// newCORS returns nil when no origins are configured.
// setTrustedProxies limits which peers may report the client IP through
// X-Forwarded-For. gin trusts every peer unless told otherwise.
func setTrustedProxies(router *gin.Engine, proxies []string, log logrus.FieldLogger) {
	if len(proxies) == 0 {
		proxies = nil
	}
	if err := router.SetTrustedProxies(proxies); err != nil {
		log.WithError(err).Error("invalid trusted proxies, using peer address as client IP")
		_ = router.SetTrustedProxies(nil)
	}
}

func newCORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return nil
	}

	corsConfig := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			corsConfig.AllowAllOrigins = true
			return cors.New(corsConfig)
		}
	}
	corsConfig.AllowOrigins = origins
	return cors.New(corsConfig)
}

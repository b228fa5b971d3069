package server

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"visapath-backend/internal/chat"
	"visapath-backend/internal/research"
	"visapath-backend/internal/scoring"
	"visapath-backend/internal/sessions"
	"visapath-backend/internal/shared/config"
	"visapath-backend/internal/shared/metrics"
	"visapath-backend/internal/shared/server/middleware"
	"visapath-backend/internal/shared/storage/cache"
)

// RouterDeps carries everything the router needs. Handler fields may be nil;
// their routes are simply not registered.
type RouterDeps struct {
	Config   config.Config
	DB       *sql.DB
	Cache    *cache.Client
	Scoring  *scoring.Handler
	Sessions *sessions.Handler
	Research *research.Handler
	Chat     *chat.Handler
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Identity(),
		middleware.RateLimit(rateLimitConfig()),
	)

	router.GET("/health", healthHandler(deps))
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api/v1")
	if deps.Scoring != nil {
		deps.Scoring.RegisterRoutes(api)
	}
	if deps.Sessions != nil {
		deps.Sessions.RegisterRoutes(api)
	}
	if deps.Research != nil {
		deps.Research.RegisterRoutes(api)
	}
	if deps.Chat != nil {
		deps.Chat.RegisterRoutes(api)
	}

	return router
}

// Addr returns the listen address for the configured port.
func Addr(cfg config.Config) string {
	port := strings.TrimSpace(cfg.Port)
	if port == "" {
		port = "8080"
	}
	return ":" + port
}

// rateLimitConfig throttles oracle-backed routes harder than plain reads.
func rateLimitConfig() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"ORACLE":  {Rate: 0.5, Burst: 3},
			"DEFAULT": {Rate: 10, Burst: 20},
		},
		DefaultGroup: "DEFAULT",
		GroupFor: func(c *gin.Context) string {
			path := c.Request.URL.Path
			switch {
			case strings.HasPrefix(path, "/api/v1/eligibility"),
				strings.HasPrefix(path, "/api/v1/chat"):
				return "ORACLE"
			case c.Request.Method == http.MethodPost && strings.HasPrefix(path, "/api/v1/research/"):
				// Forced refresh always hits the oracle.
				return "ORACLE"
			}
			return "DEFAULT"
		},
	}
}

func healthHandler(deps RouterDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		health := gin.H{"status": "ok"}
		status := http.StatusOK

		if deps.DB != nil {
			if err := deps.DB.PingContext(ctx); err != nil {
				health["database"] = "down"
				health["status"] = "degraded"
				status = http.StatusServiceUnavailable
			} else {
				health["database"] = "up"
			}
		} else {
			health["database"] = "memory"
		}

		if deps.Cache != nil {
			if err := deps.Cache.Ping(ctx); err != nil {
				health["redis"] = "down"
			} else {
				health["redis"] = "up"
			}
		}

		c.JSON(status, health)
	}
}

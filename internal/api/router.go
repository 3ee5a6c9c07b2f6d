package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/askcite/internal/api/admin"
	"github.com/liliang-cn/askcite/internal/api/answer"
	"github.com/liliang-cn/askcite/internal/api/document"
	"github.com/liliang-cn/askcite/internal/api/middleware"
	"github.com/liliang-cn/askcite/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	APIKey          string
	AllowOrigins    []string
	RateLimit       bool
	RequestsPerHour int
	Logger          *zap.Logger
}

// SetupRouter sets up the Gin router
func SetupRouter(
	answerService *service.AnswerService,
	documentService *service.DocumentService,
	cfg RouterConfig,
) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public API
	public := r.Group("/api")
	if cfg.RateLimit && cfg.RequestsPerHour > 0 {
		public.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RequestsPerHour, time.Hour)))
	}
	answer.NewHandler(answerService).RegisterRoutes(public)

	// Page links are called by resolvers, so they sit outside the client rate limit
	document.NewHandler(documentService).RegisterRoutes(r.Group("/api"))

	// Admin API (requires API key)
	adminGroup := r.Group("/api/admin")
	adminGroup.Use(middleware.Auth(cfg.APIKey))
	admin.NewHandler(documentService).RegisterRoutes(adminGroup)

	return r
}

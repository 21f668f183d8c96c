package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"audiopress/internal/delivery/http/middleware"
	"audiopress/internal/usecase"
)

// maxSubmitBodyBytes bounds the submit request body; a URL submission has
// no business being larger than this.
const maxSubmitBodyBytes = 4 * 1024

// RouterDeps carries everything the router needs.
type RouterDeps struct {
	SubmitUC        *usecase.SubmitJobUsecase
	GetJobUC        *usecase.GetJobUsecase
	Logger          *zap.Logger
	RateLimitPerMin int
	DownloadsDir    string
}

// NewRouter creates and configures the Gin router with all routes and middleware.
func NewRouter(deps *RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(deps.Logger))

	// Metrics endpoint (no rate limiting)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Finished artifacts, named <job_id>.mp3
	router.Static(downloadsBasePath, deps.DownloadsDir)

	healthHandler := NewHealthHandler(deps.Logger)
	router.GET("/", healthHandler.Root)

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Health)

		jobHandler := NewJobHandler(deps.SubmitUC, deps.GetJobUC, deps.Logger)
		v1.POST("/jobs",
			middleware.RateLimiter(deps.RateLimitPerMin),
			middleware.BodySizeLimit(maxSubmitBodyBytes),
			jobHandler.Submit)
		v1.GET("/jobs/:id", jobHandler.GetByID)
		v1.GET("/jobs/:id/result", jobHandler.GetResult)

		// WebSocket for real-time updates
		wsHandler := NewWebSocketHandler(deps.GetJobUC, deps.Logger)
		v1.GET("/jobs/:id/events", wsHandler.Stream)
	}

	return router
}

package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/examtrack/examtrack-backend/internal/config"
	"github.com/examtrack/examtrack-backend/internal/handler"
	"github.com/examtrack/examtrack-backend/internal/middleware"
	"github.com/examtrack/examtrack-backend/internal/response"
	"github.com/examtrack/examtrack-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Room      *handler.RoomHandler
	Attempt   *handler.AttemptHandler
	Proctor   *handler.ProctorHandler
	MonitorWS *handler.MonitorWSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	tokens *service.TokenService,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for room verification: it accepts human-typed codes
	// and is the only guessable surface (30 requests per minute per IP).
	roomLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Rooms (admission) ──────────────────────────────────────────
	rooms := router.Group("/api/v1/rooms")
	{
		rooms.POST("/verify",
			roomLimiter.Middleware(),
			middleware.OptionalParticipant(tokens),
			handlers.Room.VerifyRoom,
		)
		rooms.POST("/join", middleware.RequireParticipant(tokens), handlers.Room.Join)
	}

	// ─── 2. Attempts (participant) ─────────────────────────────────────
	attempts := router.Group("/api/v1/attempts")
	attempts.Use(middleware.RequireParticipant(tokens))
	{
		attempts.POST("/:attempt_id/start", handlers.Attempt.Start)
		attempts.POST("/:attempt_id/answer", handlers.Attempt.SaveAnswer)
		attempts.POST("/:attempt_id/submit", handlers.Attempt.Submit)
		attempts.POST("/:attempt_id/events", handlers.Proctor.RecordEvent)
	}

	// ─── 3. Results (participant) ──────────────────────────────────────
	results := router.Group("/api/v1/results")
	results.Use(middleware.RequireParticipant(tokens))
	{
		results.GET("/my", handlers.Attempt.MyResults)
	}

	// ─── 4. Assessments (instructor) ───────────────────────────────────
	assessments := router.Group("/api/v1/assessments")
	assessments.Use(middleware.RequireInstructor(tokens))
	{
		assessments.GET("/:assessment_id/violations", handlers.Proctor.Violations)
	}

	// ─── 5. WebSocket (instructor WS auth) ─────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireInstructorWSAuth(tokens))
	{
		ws.GET("/assessments/:assessment_id/monitor", handlers.MonitorWS.MonitorStream)
	}

	return router
}

package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"denticare/handlers"
	"denticare/middleware"
)

// RegisterConversationRoutes registers the chat and voice entry points.
func RegisterConversationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.POST("/chat", hb.ChatHandler)
		api.POST("/chat/confirm", hb.ChatConfirmHandler)
		api.POST("/voice", hb.VoiceHandler)
	}
}

// RegisterSchedulingRoutes registers the front-desk read endpoints.
func RegisterSchedulingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.GET("/bookings", hb.ListBookingsHandler)
		api.GET("/availability", hb.AvailabilityHandler)
	}
}

// RegisterDiagnosticsRoutes registers health and annealing endpoints.
func RegisterDiagnosticsRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
	api := r.Group("/api")
	{
		api.GET("/annealing/analyze", hb.AnnealingHandler)
		api.GET("/diagnostics", hb.DiagnosticsHandler)
	}
}

// SetupRoutes configures middleware and registers all route groups.
func SetupRoutes(r *gin.Engine, hb *handlers.HandlerBundle, requestsPerMinute int) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestLogger())
	r.Use(middleware.RateLimitMiddleware(requestsPerMinute))

	RegisterConversationRoutes(r, hb)
	RegisterSchedulingRoutes(r, hb)
	RegisterDiagnosticsRoutes(r, hb)
}

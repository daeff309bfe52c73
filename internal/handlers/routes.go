package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/healthcare-portal/internal/middleware"
	"github.com/harentsoaR/healthcare-portal/internal/models"
	"github.com/harentsoaR/healthcare-portal/internal/relay"
	"github.com/harentsoaR/healthcare-portal/internal/utils"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Tokens          *utils.TokenManager
	Relay           *relay.Handler // nil disables the chat endpoint
	CORSOrigins     []string
	RateLimitPerMin int
}

// NewRouter builds the gin engine with global middleware and every route.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(h.Log), middleware.Recovery(h.Log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     opts.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RateLimit(opts.RateLimitPerMin, h.Log))
	router.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "Route not found")
	})

	RegisterRoutes(router.Group("/api"), h, opts)
	return router
}

// RegisterRoutes mounts every endpoint under api.
func RegisterRoutes(api *gin.RouterGroup, h *Handler, opts RouterOptions) {
	auth := middleware.AuthMiddleware(opts.Tokens)

	api.GET("/health", h.Health)
	api.GET("/config/goal-targets", h.GoalTargets)

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/login", h.Login)
		authRoutes.GET("/me", auth, h.GetMe)
		authRoutes.PUT("/profile", auth, h.UpdateProfile)
		authRoutes.PUT("/basic-info", auth, h.UpdateBasicInfo)
	}

	patient := api.Group("/patient", auth, middleware.Authorize(models.RolePatient))
	{
		patient.GET("/dashboard", h.Dashboard)
		patient.POST("/goals", h.UpdateGoals)
		patient.GET("/goals/history", h.GoalHistory)
		patient.GET("/reminders", h.GetReminders)
		patient.PUT("/reminders/:id/complete", h.CompleteReminder)
		patient.GET("/providers", h.GetAvailableProviders)
		patient.GET("/provider", h.GetAssignedProvider)
		patient.POST("/provider/:providerId", h.AssignProvider)
		patient.DELETE("/provider", h.UnassignProvider)
	}

	provider := api.Group("/provider", auth, middleware.Authorize(models.RoleProvider))
	{
		provider.GET("/patients", h.GetPatients)
		provider.GET("/patients/:id", h.GetPatientDetails)
		provider.POST("/patients/:id/reminders", h.CreateReminder)
	}

	admin := api.Group("/admin", auth, middleware.Authorize(models.RoleAdmin))
	{
		admin.GET("/stats", h.Stats)
		admin.GET("/providers", h.ListProviders)
		admin.POST("/providers", h.CreateProvider)
		admin.GET("/providers/:id", h.GetProvider)
		admin.PUT("/providers/:id", h.UpdateProvider)
		admin.DELETE("/providers/:id", h.DeleteProvider)
		admin.PUT("/providers/:id/reset-password", h.ResetProviderPassword)
		admin.GET("/patients", h.ListPatients)
	}

	api.GET("/messages/:userId", auth, h.GetMessages)
	if opts.Relay != nil {
		api.GET("/chat/ws", auth, opts.Relay.Connect)
	}
}

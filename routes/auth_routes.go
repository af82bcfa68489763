package routes

import (
	"corpvox/internal/handlers"
	"corpvox/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes wires account and session endpoints.
func SetupAuthRoutes(r *gin.RouterGroup, authHandler *handlers.AuthHandler, jwtSecret string, sessions middleware.SessionChecker) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	protected := r.Group("/auth")
	protected.Use(middleware.AuthRequired(jwtSecret, sessions))
	{
		protected.POST("/logout", authHandler.Logout)
		protected.GET("/me", authHandler.Me)
	}
}

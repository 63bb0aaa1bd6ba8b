package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/upline-crm/upline_backend/controllers"
	"github.com/upline-crm/upline_backend/middleware"
)

// RegisterAuthRoutes sets up signup, login and token management routes.
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	auth := e.Group("/api/auth")

	auth.POST("/signup", authController.Signup)
	auth.POST("/login", authController.Login)
	auth.POST("/refresh", authController.RefreshToken)

	protected := auth.Group("")
	protected.Use(middleware.JWTMiddleware())
	protected.POST("/logout", authController.Logout)
}

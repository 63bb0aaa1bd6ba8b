package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/upline-crm/upline_backend/config"
	"github.com/upline-crm/upline_backend/controllers"
	"github.com/upline-crm/upline_backend/middleware"
	"github.com/upline-crm/upline_backend/repositories"
	"github.com/upline-crm/upline_backend/routes"
	"github.com/upline-crm/upline_backend/services"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis (optional; stats caching degrades gracefully)
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		AllowedDomains: []string{"*"},
		AllowInlineJS:  false,
	}))

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Upline Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Start token blacklist cleanup
	go middleware.CleanupBlacklist()

	// Initialize repositories
	memberRepo := repositories.NewMemberRepository(client)
	slabRepo := repositories.NewSlabRepository(client)
	earningsRepo := repositories.NewEarningsRepository(client)
	settingsRepo := repositories.NewSettingsRepository(client)

	// Initialize services
	auditSink := services.AuditSink(services.LogAuditSink)
	subtreeService := services.NewSubtreeService(memberRepo, redisClient)
	commissionService := services.NewCommissionService(memberRepo, slabRepo, earningsRepo, auditSink)
	integrityService := services.NewIntegrityService(memberRepo)

	// Initialize controllers
	authController := controllers.NewAuthController(client, memberRepo, subtreeService, auditSink)
	memberController := controllers.NewMemberController(client, memberRepo, settingsRepo)
	networkController := controllers.NewNetworkController(subtreeService)
	earningsController := controllers.NewEarningsController(commissionService, earningsRepo, auditSink)
	adminController := controllers.NewAdminController(client, memberRepo, slabRepo, integrityService, subtreeService, auditSink)

	// Register routes
	routes.RegisterAuthRoutes(e, authController)
	routes.RegisterMemberRoutes(e, client, memberController, earningsController)
	routes.RegisterNetworkRoutes(e, client, networkController)
	routes.RegisterAdminRoutes(e, adminController, earningsController)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

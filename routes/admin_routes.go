package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/upline-crm/upline_backend/controllers"
	"github.com/upline-crm/upline_backend/middleware"
)

// RegisterAdminRoutes sets up all admin-only routes.
func RegisterAdminRoutes(e *echo.Echo, adminController *controllers.AdminController, earningsController *controllers.EarningsController) {
	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireAdmin())

	// Structural mutations
	admin.POST("/members/root", adminController.CreateRoot)
	admin.POST("/members/:id/reparent", adminController.Reparent)
	admin.PUT("/members/:id/status", adminController.UpdateMemberStatus)

	// Commission configuration and payouts
	admin.GET("/slabs/:projectId", adminController.GetSlab)
	admin.PUT("/slabs/:projectId", adminController.UpsertSlab)
	admin.POST("/earnings", earningsController.RecordEarnings)
	admin.PUT("/earnings/:id/status", earningsController.UpdateStatus)

	// Hierarchy maintenance
	admin.POST("/integrity/check", adminController.RunIntegrityCheck)
}

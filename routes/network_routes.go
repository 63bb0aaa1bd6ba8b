package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/upline-crm/upline_backend/controllers"
	"github.com/upline-crm/upline_backend/middleware"
)

// RegisterNetworkRoutes sets up subtree and children query routes. The
// subtree service enforces the subtree boundary for non-admin callers.
func RegisterNetworkRoutes(e *echo.Echo, client *mongo.Client, networkController *controllers.NetworkController) {
	network := e.Group("/api/network")
	network.Use(middleware.JWTMiddleware())
	network.Use(middleware.RequireActiveMember(client))

	network.GET("/children/:id", networkController.GetChildren)
	network.GET("/subtree/:id", networkController.GetSubtreeIDs)
	network.GET("/subtree/:id/details", networkController.GetSubtreeDetails)
	network.GET("/stats/:id", networkController.GetStats)
}

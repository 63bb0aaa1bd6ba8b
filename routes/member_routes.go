package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/upline-crm/upline_backend/controllers"
	"github.com/upline-crm/upline_backend/middleware"
)

// RegisterMemberRoutes sets up profile, visibility and earnings routes.
func RegisterMemberRoutes(e *echo.Echo, client *mongo.Client, memberController *controllers.MemberController, earningsController *controllers.EarningsController) {
	members := e.Group("/api/members")
	members.Use(middleware.JWTMiddleware())
	members.Use(middleware.RequireActiveMember(client))

	members.GET("/:id", memberController.GetProfile)
	members.PUT("/visibility", memberController.UpdateVisibility)
	members.GET("/:id/earnings", earningsController.ListMemberEarnings)
}

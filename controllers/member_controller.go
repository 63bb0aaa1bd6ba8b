package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/upline-crm/upline_backend/models"
	"github.com/upline-crm/upline_backend/repositories"
	"github.com/upline-crm/upline_backend/services"
	"github.com/upline-crm/upline_backend/utils"
)

type MemberController struct {
	db       *mongo.Client
	members  *repositories.MemberRepository
	settings *repositories.SettingsRepository
}

func NewMemberController(db *mongo.Client, members *repositories.MemberRepository, settings *repositories.SettingsRepository) *MemberController {
	return &MemberController{db: db, members: members, settings: settings}
}

// GetProfile returns a member's profile with the target's visibility
// preferences applied against the viewer's position in the tree.
func (mc *MemberController) GetProfile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid member ID format",
		})
	}

	viewer, err := utils.GetMemberFromToken(c, mc.db)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	target, err := mc.members.GetMember(ctx, targetID)
	if err != nil {
		return respondError(c, err)
	}

	prefs, err := mc.settings.GetVisibility(ctx, targetID)
	if err != nil {
		return respondError(c, err)
	}

	profile := services.ApplyVisibility(target, prefs, viewer, utils.IsAdminRequest(c))

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile retrieved",
		Data:    profile,
	})
}

// UpdateVisibility changes the caller's own visibility preferences.
func (mc *MemberController) UpdateVisibility(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	viewer, err := utils.GetMemberFromToken(c, mc.db)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var req models.UpdateVisibilityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	settings := &models.VisibilitySettings{
		MemberID: viewer.ID,
		Phone:    models.VisibilityLevel(req.Phone),
		Email:    models.VisibilityLevel(req.Email),
		City:     models.VisibilityLevel(req.City),
	}
	for _, level := range []models.VisibilityLevel{settings.Phone, settings.Email, settings.City} {
		if level != "" && !level.IsValid() {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Unknown visibility level: " + string(level),
			})
		}
	}

	if err := mc.settings.UpdateVisibility(ctx, settings); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Visibility preferences updated",
		Data:    settings,
	})
}

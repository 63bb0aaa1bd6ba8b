package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-crm/upline_backend/middleware"
	"github.com/upline-crm/upline_backend/models"
	"github.com/upline-crm/upline_backend/services"
	"github.com/upline-crm/upline_backend/utils"
)

// NetworkController exposes subtree and children queries. Access control
// lives in the subtree service: non-admins stay inside their own subtree.
type NetworkController struct {
	subtree *services.SubtreeService
}

func NewNetworkController(subtree *services.SubtreeService) *NetworkController {
	return &NetworkController{subtree: subtree}
}

func viewerFromContext(c echo.Context) (services.Viewer, error) {
	memberID, err := middleware.ExtractMemberID(c)
	if err != nil {
		return services.Viewer{}, err
	}
	objID, err := primitive.ObjectIDFromHex(memberID)
	if err != nil {
		return services.Viewer{}, err
	}
	return services.Viewer{ID: objID, IsAdmin: utils.IsAdminRequest(c)}, nil
}

func (nc *NetworkController) parseRequest(c echo.Context) (services.Viewer, primitive.ObjectID, error) {
	viewer, err := viewerFromContext(c)
	if err != nil {
		return services.Viewer{}, primitive.NilObjectID, err
	}
	rootID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return services.Viewer{}, primitive.NilObjectID, err
	}
	return viewer, rootID, nil
}

// GetChildren returns the direct children of a member.
func (nc *NetworkController) GetChildren(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	viewer, rootID, err := nc.parseRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	children, err := nc.subtree.DirectChildren(ctx, viewer, rootID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Children retrieved",
		Data:    children,
	})
}

// GetSubtreeIDs returns the ids of every member under a root.
func (nc *NetworkController) GetSubtreeIDs(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	viewer, rootID, err := nc.parseRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	ids, err := nc.subtree.SubtreeIDs(ctx, viewer, rootID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Subtree retrieved",
		Data: map[string]interface{}{
			"rootId": rootID,
			"ids":    ids,
			"count":  len(ids),
		},
	})
}

// GetSubtreeDetails returns full member records for reporting. Demo
// members are excluded unless includeDemo=true is passed by an admin.
func (nc *NetworkController) GetSubtreeDetails(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	viewer, rootID, err := nc.parseRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	filter := services.ExcludeDemo
	if viewer.IsAdmin && c.QueryParam("includeDemo") == "true" {
		filter = nil
	}

	members, err := nc.subtree.SubtreeWithDetails(ctx, viewer, rootID, filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Subtree details retrieved",
		Data:    members,
	})
}

// GetStats returns the cached dashboard counts for a member's network.
func (nc *NetworkController) GetStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	viewer, rootID, err := nc.parseRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	stats, err := nc.subtree.NetworkStats(ctx, viewer, rootID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Network stats retrieved",
		Data:    stats,
	})
}

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

// AdminController groups the administrative operations: re-parenting,
// member status changes, slab configuration, root seeding and the
// on-demand hierarchy integrity check.
type AdminController struct {
	db        *mongo.Client
	members   *repositories.MemberRepository
	slabs     *repositories.SlabRepository
	integrity *services.IntegrityService
	subtree   *services.SubtreeService
	audit     services.AuditSink
}

func NewAdminController(db *mongo.Client, members *repositories.MemberRepository, slabs *repositories.SlabRepository, integrity *services.IntegrityService, subtree *services.SubtreeService, audit services.AuditSink) *AdminController {
	if audit == nil {
		audit = services.LogAuditSink
	}
	return &AdminController{
		db:        db,
		members:   members,
		slabs:     slabs,
		integrity: integrity,
		subtree:   subtree,
		audit:     audit,
	}
}

// Reparent moves a member and their whole subtree under a new sponsor.
// This rewrites the materialized path of every descendant, so it is the
// costliest mutation in the system; the repository applies it atomically.
func (ac *AdminController) Reparent(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	memberID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid member ID format",
		})
	}

	var req models.ReparentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	newSponsorID, err := primitive.ObjectIDFromHex(req.NewSponsorID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid sponsor ID format",
		})
	}

	admin, err := viewerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	// Capture the old ancestor chain for cache invalidation before the
	// move rewrites it.
	before, err := ac.members.GetMember(ctx, memberID)
	if err != nil {
		return respondError(c, err)
	}

	result, err := ac.members.Reparent(ctx, memberID, newSponsorID)
	if err != nil {
		return respondError(c, err)
	}

	after, err := ac.members.GetMember(ctx, memberID)
	if err == nil {
		stale := append(append([]primitive.ObjectID{memberID}, before.Path...), after.Path...)
		ac.subtree.InvalidateStats(ctx, stale...)
	}

	ac.audit(ctx, services.NewAuditFact("member.reparented", admin.ID, memberID, before.SponsorID, result.NewSponsorID))

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Member reparented",
		Data:    result,
	})
}

// UpdateMemberStatus freezes, reactivates or removes a member.
func (ac *AdminController) UpdateMemberStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	memberID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid member ID format",
		})
	}

	var req models.UpdateMemberStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	status := models.MemberStatus(req.Status)
	switch status {
	case models.StatusActive, models.StatusFrozen, models.StatusRemoved:
	default:
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Status must be active, frozen or removed",
		})
	}

	admin, err := viewerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	before, err := ac.members.UpdateStatus(ctx, memberID, status)
	if err != nil {
		return respondError(c, err)
	}

	ac.audit(ctx, services.NewAuditFact("member.status", admin.ID, memberID, before.Status, status))
	ac.subtree.InvalidateStats(ctx, append([]primitive.ObjectID{memberID}, before.Path...)...)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Member status updated",
	})
}

// CreateRoot seeds a new forest root member.
func (ac *AdminController) CreateRoot(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.CreateRootRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	role := models.Role(req.Role)
	if !role.IsValid() {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Unknown role: " + req.Role,
		})
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process password",
		})
	}
	memberCode, err := utils.GenerateMemberCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate member code",
		})
	}

	admin, err := viewerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	root, err := ac.members.CreateRoot(ctx, &models.Member{
		MemberCode: memberCode,
		FullName:   req.FullName,
		Email:      req.Email,
		Password:   hashedPassword,
		Role:       role,
		Status:     models.StatusActive,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Email or member code already registered",
			})
		}
		return respondError(c, err)
	}

	ac.audit(ctx, services.NewAuditFact("member.root_created", admin.ID, root.ID, nil, root))

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Root member created",
		Data:    root,
	})
}

// GetSlab returns a project's percentage slab, falling back to the system
// defaults when none is configured.
func (ac *AdminController) GetSlab(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	projectID, err := primitive.ObjectIDFromHex(c.Param("projectId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid project ID format",
		})
	}

	slab, err := ac.slabs.SlabForProject(ctx, projectID)
	if err != nil {
		slab = models.DefaultSlab()
		slab.ProjectID = projectID
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "No slab configured; system defaults apply",
			Data:    slab,
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Slab retrieved",
		Data:    slab,
	})
}

// UpsertSlab creates or replaces a project's percentage slab.
func (ac *AdminController) UpsertSlab(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	projectID, err := primitive.ObjectIDFromHex(c.Param("projectId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid project ID format",
		})
	}

	var req models.UpdateSlabRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	rolePct := make(map[models.Role]int64, len(req.RolePct))
	for roleName, pct := range req.RolePct {
		role := models.Role(roleName)
		if !role.IsValid() {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Unknown role in slab: " + roleName,
			})
		}
		if pct < 0 || pct > 10000 {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Percentages must be 0-10000 basis points",
			})
		}
		rolePct[role] = pct
	}

	admin, err := viewerFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	slab := &models.PercentageSlab{
		ProjectID:       projectID,
		RolePct:         rolePct,
		UplineBonus1Pct: req.UplineBonus1Pct,
		UplineBonus2Pct: req.UplineBonus2Pct,
		UpdatedBy:       admin.ID,
	}

	before, err := ac.slabs.UpsertSlab(ctx, slab)
	if err != nil {
		return respondError(c, err)
	}

	ac.audit(ctx, services.NewAuditFact("slab.updated", admin.ID, projectID, before, slab))

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Slab updated",
		Data:    slab,
	})
}

// RunIntegrityCheck performs the full-forest scan and returns the report.
// The check never mutates data; repair is a separate manual action.
func (ac *AdminController) RunIntegrityCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	report, err := ac.integrity.Check(ctx)
	if err != nil {
		return respondError(c, err)
	}

	message := "Hierarchy is consistent"
	if !report.Clean() {
		message = "Integrity violations found"
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: message,
		Data: map[string]interface{}{
			"report":       report,
			"countsByKind": report.CountByKind(),
		},
	})
}

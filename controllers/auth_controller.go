package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/upline-crm/upline_backend/middleware"
	"github.com/upline-crm/upline_backend/models"
	"github.com/upline-crm/upline_backend/repositories"
	"github.com/upline-crm/upline_backend/services"
	"github.com/upline-crm/upline_backend/utils"
)

type AuthController struct {
	db      *mongo.Client
	members *repositories.MemberRepository
	subtree *services.SubtreeService
	audit   services.AuditSink
}

func NewAuthController(db *mongo.Client, members *repositories.MemberRepository, subtree *services.SubtreeService, audit services.AuditSink) *AuthController {
	if audit == nil {
		audit = services.LogAuditSink
	}
	return &AuthController{db: db, members: members, subtree: subtree, audit: audit}
}

// Signup registers a new member under the sponsor named by sponsorCode.
// New joiners always start at the lowest role.
func (ac *AuthController) Signup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
			Data:    err.Error(),
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	sponsor, err := ac.members.GetMemberByCode(ctx, req.SponsorCode)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Sponsor code not recognized",
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

	member := &models.Member{
		MemberCode: memberCode,
		FullName:   req.FullName,
		Email:      req.Email,
		Phone:      req.Phone,
		City:       req.City,
		Password:   hashedPassword,
		Role:       models.RoleBDM,
		Status:     models.StatusActive,
	}

	created, err := ac.members.CreateMember(ctx, sponsor.ID, member)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Email or member code already registered",
			})
		}
		return respondError(c, err)
	}

	ac.audit(ctx, services.NewAuditFact("member.joined", sponsor.ID, created.ID, nil, created))
	ac.subtree.InvalidateStats(ctx, created.Path...)

	token, refreshToken, err := middleware.GenerateJWT(created.ID.Hex(), created.MemberCode, string(created.Role), created.IsAdmin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Member created but token generation failed",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Member registered successfully",
		Data: map[string]interface{}{
			"member":       created,
			"token":        token,
			"refreshToken": refreshToken,
		},
	})
}

// Login authenticates a member by email and password.
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.LoginRequest
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

	member, err := ac.members.GetMemberByEmail(ctx, req.Email)
	if err != nil || !utils.CheckPasswordHash(req.Password, member.Password) {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	if member.Status != models.StatusActive {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Account is not active",
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(member.ID.Hex(), member.MemberCode, string(member.Role), member.IsAdmin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: map[string]interface{}{
			"member":       member,
			"token":        token,
			"refreshToken": refreshToken,
		},
	})
}

// RefreshToken exchanges a valid refresh token for a fresh token pair.
func (ac *AuthController) RefreshToken(c echo.Context) error {
	var req models.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	claims, err := middleware.ParseToken(req.RefreshToken)
	if err != nil || middleware.IsTokenBlacklisted(req.RefreshToken) {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid refresh token",
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(claims.MemberID, claims.MemberCode, claims.Role, claims.IsAdmin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Token refreshed",
		Data: map[string]interface{}{
			"token":        token,
			"refreshToken": refreshToken,
		},
	})
}

// Logout blacklists the presented token.
func (ac *AuthController) Logout(c echo.Context) error {
	auth := c.Request().Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		middleware.BlacklistToken(auth[len(prefix):], time.Now().Add(7*24*time.Hour))
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logged out",
	})
}

// utils/auth.go
package utils

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/upline-crm/upline_backend/config"
	"github.com/upline-crm/upline_backend/middleware"
	"github.com/upline-crm/upline_backend/models"
)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a plaintext password against its bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GetMemberFromToken loads the full member record for the authenticated
// request.
func GetMemberFromToken(c echo.Context, db *mongo.Client) (*models.Member, error) {
	memberID, err := middleware.ExtractMemberID(c)
	if err != nil {
		return nil, err
	}

	objID, err := primitive.ObjectIDFromHex(memberID)
	if err != nil {
		return nil, errors.New("invalid member ID in token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var member models.Member
	err = config.GetCollection(db, "members").FindOne(ctx, bson.M{"_id": objID}).Decode(&member)
	if err != nil {
		return nil, errors.New("member not found")
	}
	return &member, nil
}

// IsAdminRequest reports whether the current request carries the admin flag.
func IsAdminRequest(c echo.Context) bool {
	isAdmin, ok := c.Get("isAdmin").(bool)
	return ok && isAdmin
}

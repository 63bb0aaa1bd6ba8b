// middleware/jwt_middleware.go
package middleware

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/upline-crm/upline_backend/config"
)

// JwtCustomClaims carries the authenticated member's identity. The core
// never authenticates credentials itself; this is the "current viewer"
// context handed to every operation.
type JwtCustomClaims struct {
	MemberID   string `json:"memberId"`
	MemberCode string `json:"memberCode"`
	Role       string `json:"role"`
	IsAdmin    bool   `json:"isAdmin"`
	jwt.StandardClaims
}

// Valid implements the Claims interface for Echo's JWT middleware.
func (c JwtCustomClaims) Valid() error {
	if c.ExpiresAt > 0 && time.Now().Unix() > c.ExpiresAt {
		return errors.New("token is expired")
	}
	if c.NotBefore > 0 && time.Now().Unix() < c.NotBefore {
		return errors.New("token used before valid")
	}
	return nil
}

// Token blacklist for logout/invalidation. Written by request handlers and
// swept by the cleanup goroutine, so every access holds the mutex.
var (
	blacklistMu    sync.Mutex
	tokenBlacklist = make(map[string]time.Time)
)

// CleanupBlacklist periodically removes expired tokens from the blacklist.
func CleanupBlacklist() {
	for {
		time.Sleep(1 * time.Hour)
		sweepBlacklist(time.Now())
	}
}

func sweepBlacklist(now time.Time) {
	blacklistMu.Lock()
	defer blacklistMu.Unlock()
	for token, expiry := range tokenBlacklist {
		if now.After(expiry) {
			delete(tokenBlacklist, token)
		}
	}
}

// BlacklistToken adds a token to the blacklist.
func BlacklistToken(token string, expiry time.Time) {
	blacklistMu.Lock()
	defer blacklistMu.Unlock()
	tokenBlacklist[token] = expiry
}

// IsTokenBlacklisted checks if a token is blacklisted.
func IsTokenBlacklisted(token string) bool {
	blacklistMu.Lock()
	defer blacklistMu.Unlock()
	_, exists := tokenBlacklist[token]
	return exists
}

// GetJWTSecret returns the JWT secret from environment variables.
func GetJWTSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET environment variable is required")
	}
	return secret
}

// JWTMiddleware returns a configured JWT middleware.
func JWTMiddleware() echo.MiddlewareFunc {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Printf("Warning: JWT_SECRET environment variable is not set")
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "JWT configuration error")
			}
		}
	}

	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey: []byte(secret),
		Claims:     &JwtCustomClaims{},
		SuccessHandler: func(c echo.Context) {
			user := c.Get("user").(*jwt.Token)

			if IsTokenBlacklisted(user.Raw) {
				c.Error(echo.NewHTTPError(echo.ErrUnauthorized.Code, "Token has been invalidated"))
				return
			}

			claims := user.Claims.(*JwtCustomClaims)
			c.Set("memberId", claims.MemberID)
			c.Set("memberCode", claims.MemberCode)
			c.Set("role", claims.Role)
			c.Set("isAdmin", claims.IsAdmin)
		},
		ErrorHandler: func(err error) error {
			log.Printf("JWT middleware error: %v", err)
			return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Please provide valid credentials")
		},
	})
}

// RequireAdmin rejects requests whose token does not carry the admin flag.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			isAdmin, ok := c.Get("isAdmin").(bool)
			if !ok || !isAdmin {
				return echo.NewHTTPError(echo.ErrForbidden.Code, "Administrator access required")
			}
			return next(c)
		}
	}
}

// RequireActiveMember verifies the member behind the token is still active
// in the database, so tokens of frozen or removed accounts stop working.
func RequireActiveMember(client *mongo.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			memberID, ok := c.Get("memberId").(string)
			if !ok || memberID == "" {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Invalid token")
			}

			objID, err := primitive.ObjectIDFromHex(memberID)
			if err != nil {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Invalid member ID in token")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			var member struct {
				Status string `bson:"status"`
			}
			err = config.GetCollection(client, "members").FindOne(ctx, bson.M{"_id": objID}).Decode(&member)
			if err != nil || member.Status != "active" {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Member account is inactive")
			}
			return next(c)
		}
	}
}

// GenerateJWT generates a token pair for a member. The access token lives
// for 24 hours, the refresh token for 7 days.
func GenerateJWT(memberID, memberCode, role string, isAdmin bool) (string, string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", "", errors.New("JWT_SECRET environment variable is required")
	}

	claims := &JwtCustomClaims{
		MemberID:   memberID,
		MemberCode: memberCode,
		Role:       role,
		IsAdmin:    isAdmin,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	refreshClaims := &JwtCustomClaims{
		MemberID:   memberID,
		MemberCode: memberCode,
		Role:       role,
		IsAdmin:    isAdmin,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(7 * 24 * time.Hour).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}
	refreshTokenString, err := refreshToken.SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}
	return tokenString, refreshTokenString, nil
}

// ParseToken validates a raw token string and returns its claims.
func ParseToken(tokenString string) (*JwtCustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(GetJWTSecret()), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*JwtCustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// GetUserFromToken extracts member claims from the request context.
func GetUserFromToken(c echo.Context) *JwtCustomClaims {
	user := c.Get("user")
	if user == nil {
		return nil
	}
	token, ok := user.(*jwt.Token)
	if !ok {
		return nil
	}
	claims, ok := token.Claims.(*JwtCustomClaims)
	if !ok {
		return nil
	}
	return claims
}

// ExtractMemberID returns the authenticated member's id from the context.
func ExtractMemberID(c echo.Context) (string, error) {
	if memberID, ok := c.Get("memberId").(string); ok && memberID != "" {
		return memberID, nil
	}
	if claims := GetUserFromToken(c); claims != nil {
		return claims.MemberID, nil
	}
	return "", errors.New("invalid member ID in token")
}

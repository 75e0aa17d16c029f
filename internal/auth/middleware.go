package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID    = "user_id"
	ctxUserEmail = "user_email"
	ctxUserRole  = "user_role"
)

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"code":    "UNAUTHORIZED",
		"message": message,
	})
}

func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
			unauthorized(c, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			unauthorized(c, "Token is empty")
			return
		}

		claims, err := ParseAccessToken(tokenString, accessTokenSecret)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				unauthorized(c, "Token expired")
			case errors.Is(err, ErrInvalidTokenType):
				unauthorized(c, "Access token required")
			default:
				unauthorized(c, "Invalid or malformed token")
			}
			return
		}

		SetActor(c, claims.UserID, claims.Email, claims.Role)
		c.Next()
	}
}

func SetActor(c *gin.Context, userID int, email string, role Role) {
	c.Set(ctxUserID, userID)
	c.Set(ctxUserEmail, email)
	c.Set(ctxUserRole, role)
}

// RequireRole admits callers holding any of the given roles.
func RequireRole(roles ...Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			unauthorized(c, "User role not found")
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"code":    "ACCESS_DENIED",
			"message": "Insufficient permissions",
		})
	}
}

func GetUserID(c *gin.Context) (int, bool) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}

	id, ok := userID.(int)
	return id, ok
}

func GetUserRole(c *gin.Context) (Role, bool) {
	v, exists := c.Get(ctxUserRole)
	if !exists {
		return "", false
	}

	role, ok := v.(Role)
	return role, ok
}

// GetActor combines id and role; both are set together by AuthMiddleware.
func GetActor(c *gin.Context) (Actor, bool) {
	id, ok := GetUserID(c)
	if !ok {
		return Actor{}, false
	}
	role, ok := GetUserRole(c)
	if !ok {
		return Actor{}, false
	}
	return Actor{UserID: id, Role: role}, true
}

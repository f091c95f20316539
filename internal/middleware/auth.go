package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/synesthesie/catalog/internal/services"
)

// Context keys set by Auth and OptionalAuth.
const (
	ContextUserID  = "userID"
	ContextIsAdmin = "isAdmin"
	ContextClaims  = "claims"
)

// Auth requires a valid bearer token and loads the caller.
func Auth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "not authorized, no token")
			return
		}
		if !authenticate(c, authService, token) {
			return
		}
		c.Next()
	}
}

// OptionalAuth loads the caller when a bearer token is present and lets
// anonymous requests through. A token that is present but invalid is still
// rejected.
func OptionalAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		if !authenticate(c, authService, token) {
			return
		}
		c.Next()
	}
}

// AdminOnly must run after Auth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ContextIsAdmin) {
			abort(c, http.StatusForbidden, "not authorized as an admin")
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, authService *services.AuthService, token string) bool {
	claims, err := authService.ValidateAccessToken(c.Request.Context(), token)
	if err != nil {
		abort(c, http.StatusUnauthorized, "not authorized, token failed")
		return false
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		abort(c, http.StatusUnauthorized, "not authorized, token failed")
		return false
	}

	user, err := authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if services.IsKind(err, services.KindNotFound) {
			abort(c, http.StatusUnauthorized, "not authorized, user not found")
			return false
		}
		abort(c, http.StatusInternalServerError, "failed to load user")
		return false
	}

	c.Set(ContextUserID, user.ID)
	c.Set(ContextIsAdmin, user.IsAdmin)
	c.Set(ContextClaims, claims)
	return true
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"message": message,
		"status":  "error",
	})
}

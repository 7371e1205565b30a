// Package middleware provides HTTP middleware for the Gin router.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys for storing authenticated user data.
const (
	UserIDKey   = "user_id"
	UserRoleKey = "user_role"

	RoleClient   = "client"
	RoleProvider = "provider"
)

// MockAuth extracts user info from the Authorization header.
// Format: "Bearer <user-id>" where user-id starts with "client-" or
// "provider-". This stands in for the session layer, which owns real token
// verification and is outside this subsystem.
func MockAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			c.Abort()
			return
		}

		userID := parts[1]
		var role string

		switch {
		case strings.HasPrefix(userID, "client-"):
			role = RoleClient
		case strings.HasPrefix(userID, "provider-"):
			role = RoleProvider
		default:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id format"})
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(UserRoleKey, role)
		c.Next()
	}
}

// RequireClient ensures the authenticated user is a client. Must be used
// after MockAuth() in the chain.
func RequireClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(UserRoleKey)
		if !exists || role != RoleClient {
			c.JSON(http.StatusForbidden, gin.H{"error": "client access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireProvider ensures the authenticated user is a provider.
func RequireProvider() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(UserRoleKey)
		if !exists || role != RoleProvider {
			c.JSON(http.StatusForbidden, gin.H{"error": "provider access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID retrieves the user ID previously set by MockAuth middleware.
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get(UserIDKey)
	return userID.(string)
}

// GetUserRole retrieves the user role ("client" or "provider") from context.
func GetUserRole(c *gin.Context) string {
	role, _ := c.Get(UserRoleKey)
	return role.(string)
}

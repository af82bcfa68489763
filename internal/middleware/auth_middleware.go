package middleware

import (
	"context"
	"net/http"
	"strings"

	"corpvox/internal/models"
	"corpvox/internal/services"
	"corpvox/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ContextUserID    = "user_id"
	ContextUserType  = "user_type"
	ContextSessionID = "session_id"
)

// SessionChecker answers whether a session id from a token still exists
// in the server-side store.
type SessionChecker interface {
	SessionValid(ctx context.Context, sessionID string) (bool, error)
}

// AuthRequired validates the bearer token and confirms its session is
// still live. A signed, unexpired token with a revoked session is
// rejected; logout takes effect immediately.
func AuthRequired(jwtSecret string, sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header required")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token required")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			c.Abort()
			return
		}

		valid, err := sessions.SessionValid(c.Request.Context(), claims.SessionID)
		if err != nil {
			utils.InternalServerErrorResponse(c)
			c.Abort()
			return
		}
		if !valid {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Session has been revoked")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserType, claims.UserType)
		c.Set(ContextSessionID, claims.SessionID)

		c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userType, exists := c.Get(ContextUserType)
		if !exists || userType != string(models.UserTypeAdmin) {
			utils.ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentActor rebuilds the acting identity from the request context.
func CurrentActor(c *gin.Context) (services.Actor, bool) {
	userID, exists := c.Get(ContextUserID)
	if !exists {
		return services.Actor{}, false
	}

	id, ok := userID.(primitive.ObjectID)
	if !ok {
		return services.Actor{}, false
	}

	userType, _ := c.Get(ContextUserType)
	typeStr, _ := userType.(string)

	return services.Actor{
		ID:        id,
		Type:      models.UserType(typeStr),
		IPAddress: c.ClientIP(),
	}, true
}

// CurrentSessionID returns the session behind the authenticated request.
func CurrentSessionID(c *gin.Context) string {
	sessionID, _ := c.Get(ContextSessionID)
	str, _ := sessionID.(string)
	return str
}

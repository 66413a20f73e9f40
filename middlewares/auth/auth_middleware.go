package auth

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/servicehub/logger"
	"github.com/joy095/servicehub/utils"
	"github.com/joy095/servicehub/utils/jwt_parse"
)

// AuthMiddleware validates the bearer token and stores user_id and role in the context.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := jwt_parse.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			logger.ErrorLogger.Errorf("Rejected request to %s: %v", c.FullPath(), err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "code": "UNAUTHORIZED", "error": err.Error()})
			return
		}

		identity, err := jwt_parse.ParseJWTToken(tokenString, secret)
		if err != nil {
			logger.ErrorLogger.Errorf("Failed to parse JWT token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "code": "INVALID_TOKEN", "error": "Invalid token"})
			return
		}

		if _, err := uuid.Parse(identity.UserID); err != nil {
			logger.ErrorLogger.Errorf("Token user id %q is not a UUID", identity.UserID)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "code": "INVALID_TOKEN", "error": "Invalid user ID in token"})
			return
		}

		c.Set(utils.ContextUserIDKey, identity.UserID)
		c.Set(utils.ContextRoleKey, identity.Role)
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := utils.GetRoleFromContext(c)
		if !slices.Contains(roles, role) {
			utils.RespondError(c, utils.Forbidden("this action requires one of the roles %v", roles))
			return
		}
		c.Next()
	}
}

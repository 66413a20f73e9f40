// servicehub/utils/context.go
package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/servicehub/logger"
)

const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "role"
)

const (
	RoleCustomer     = "customer"
	RoleProfessional = "professional"
	RoleAdmin        = "admin"
)

// GetUserIDFromContext extracts the user ID set by the auth middleware as a string
// under "user_id" and parses it into a uuid.UUID.
func GetUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(ContextUserIDKey)
	if !exists {
		logger.ErrorLogger.Error("User ID not found in context.")
		return uuid.Nil, ErrUserIDNotFound
	}

	userIDStr, ok := raw.(string)
	if !ok {
		logger.ErrorLogger.Errorf("User ID in context is not a string, actual type: %T", raw)
		return uuid.Nil, fmt.Errorf("invalid user ID format in context")
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to parse user ID string '%s' to UUID: %v", userIDStr, err)
		return uuid.Nil, fmt.Errorf("invalid user ID format: %w", err)
	}
	return userID, nil
}

// GetRoleFromContext returns the role claim, or "" when the token carried none.
func GetRoleFromContext(c *gin.Context) string {
	role, _ := c.Get(ContextRoleKey)
	s, _ := role.(string)
	return s
}

// ParseUUIDParam parses a path parameter, returning a validation error when malformed.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, Validation("invalid %s", name)
	}
	return id, nil
}

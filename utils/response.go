package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joy095/servicehub/logger"
)

// RespondError writes the stable error envelope for err and aborts the request.
func RespondError(c *gin.Context, err error) {
	kind := KindOf(err)
	if kind == KindInternal {
		logger.ErrorLogger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}

	c.AbortWithStatusJSON(StatusFor(kind), gin.H{
		"success": false,
		"code":    kind,
		"error":   MessageOf(err),
	})
}

// RespondUnauthorized is used when the auth middleware did not populate the caller.
func RespondUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"code":    "UNAUTHORIZED",
		"error":   ErrUserIDNotFound.Error(),
	})
}

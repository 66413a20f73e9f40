package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/servicehub/middlewares/auth"
)

// RegisterRoutes mounts every route group.
func RegisterRoutes(r *gin.Engine, d *Deps) {
	RegisterJobRoutes(r, d)
	RegisterPaymentRoutes(r, d)
	RegisterPayoutRoutes(r, d)
	RegisterBankAccountRoutes(r, d)
}

func authenticated(d *Deps) gin.HandlerFunc {
	return auth.AuthMiddleware([]byte(d.Config.JWTSecret))
}

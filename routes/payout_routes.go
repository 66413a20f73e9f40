package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/servicehub/controllers/payout_controller"
	middleware "github.com/joy095/servicehub/middlewares"
	"github.com/joy095/servicehub/middlewares/auth"
	"github.com/joy095/servicehub/models/earnings_models"
	"github.com/joy095/servicehub/utils"
)

func RegisterPayoutRoutes(r *gin.Engine, d *Deps) {
	payoutController := payout_controller.NewPayoutController(d.Payouts, d.Banks, earnings_models.NewLedger(d.Jobs, d.Payouts),
		d.Notifier, d.Events, d.Config.MinPayoutAmount)

	payouts := r.Group("/payouts")
	payouts.Use(authenticated(d), auth.RequireRole(utils.RoleProfessional))
	{
		payouts.POST("", middleware.NewRateLimiter(d.Config.PayoutRateLimit, "payout-request"), payoutController.RequestPayout)
		payouts.GET("", payoutController.ListPayouts)
		payouts.GET("/balance", payoutController.GetBalance)
	}

	admin := r.Group("/admin")
	admin.Use(authenticated(d), auth.RequireRole(utils.RoleAdmin))
	{
		admin.PATCH("/payouts/:id/status", payoutController.UpdatePayoutStatus)
	}
}

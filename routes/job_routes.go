package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/servicehub/controllers/job_controller"
	"github.com/joy095/servicehub/middlewares/auth"
	"github.com/joy095/servicehub/utils"
	"github.com/joy095/servicehub/utils/commission"
)

func RegisterJobRoutes(r *gin.Engine, d *Deps) {
	jobController := job_controller.NewJobController(d.Jobs, commission.NewCalculator(d.Config.CommissionRate), d.Notifier, d.Events)
	jobController.Attempts = d.Attempts

	jobs := r.Group("/jobs")
	jobs.Use(authenticated(d))
	{
		jobs.POST("", auth.RequireRole(utils.RoleCustomer), jobController.CreateJob)
		jobs.GET("/:id", jobController.GetJob)
		jobs.POST("/:id/accept", auth.RequireRole(utils.RoleProfessional), jobController.AcceptJob)
		jobs.POST("/:id/start", jobController.StartJob)
		jobs.POST("/:id/cancel", jobController.CancelJob)
		jobs.POST("/:id/complete", jobController.CompleteJob)

		jobs.POST("/:id/cash/received", jobController.MarkCashReceived)
		jobs.POST("/:id/cash/confirm", jobController.ConfirmCashPayment)
		jobs.POST("/:id/cash/dispute", jobController.RaiseDispute)
	}
}

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/servicehub/controllers/bank_account_controller"
	"github.com/joy095/servicehub/middlewares/auth"
	"github.com/joy095/servicehub/utils"
)

func RegisterBankAccountRoutes(r *gin.Engine, d *Deps) {
	bankAccountController := bank_account_controller.NewBankAccountController(d.Banks)

	api := r.Group("/bank-accounts")
	api.Use(authenticated(d), auth.RequireRole(utils.RoleProfessional))
	{
		api.PUT("", bankAccountController.SaveBankAccount)
		api.GET("", bankAccountController.GetBankAccount)
	}
}

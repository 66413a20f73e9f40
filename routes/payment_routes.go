package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/servicehub/controllers/payment_controller"
	middleware "github.com/joy095/servicehub/middlewares"
)

func RegisterPaymentRoutes(r *gin.Engine, d *Deps) {
	paymentController := payment_controller.NewPaymentController(d.Jobs, d.Gateway, d.Webhooks, d.Notifier, d.Events,
		d.Config.Currency, d.Config.RazorpayKeyID)

	// Public: authenticated by the gateway signature
	r.POST("/webhook/razorpay", paymentController.RazorpayWebhook)

	payments := r.Group("/jobs/:id/payment")
	payments.Use(authenticated(d))
	{
		payments.POST("/order", middleware.NewRateLimiter("10-1m", "payment-order"), paymentController.CreateOrder)
		payments.POST("/verify", middleware.NewRateLimiter("10-1m", "payment-verify"), paymentController.VerifyPayment)
	}
}

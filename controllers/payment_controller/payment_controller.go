package payment_controller

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joy095/servicehub/clients"
	"github.com/joy095/servicehub/logger"
	"github.com/joy095/servicehub/middlewares/metrics"
	"github.com/joy095/servicehub/models/job_models"
	"github.com/joy095/servicehub/models/notification_models"
	"github.com/joy095/servicehub/models/payment_models"
	"github.com/joy095/servicehub/utils"
	"github.com/joy095/servicehub/utils/notify"
)

const signatureHeader = "X-Razorpay-Signature"

type PaymentController struct {
	Jobs     job_models.Store
	Gateway  clients.PaymentGateway
	Webhooks payment_models.WebhookLog
	Notifier notify.Notifier
	Events   clients.EventPublisher
	Currency string
	KeyID    string

	Now func() time.Time
}

func NewPaymentController(jobs job_models.Store, gateway clients.PaymentGateway, webhooks payment_models.WebhookLog,
	notifier notify.Notifier, events clients.EventPublisher, currency, keyID string) *PaymentController {
	if events == nil {
		events = clients.NoopPublisher{}
	}
	return &PaymentController{
		Jobs:     jobs,
		Gateway:  gateway,
		Webhooks: webhooks,
		Notifier: notifier,
		Events:   events,
		Currency: currency,
		KeyID:    keyID,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpayOrderId" binding:"required"`
	RazorpayPaymentID string `json:"razorpayPaymentId" binding:"required"`
	RazorpaySignature string `json:"razorpaySignature" binding:"required"`
}

// CreateOrder - POST /jobs/:id/payment/order
//
// Opens a gateway order for a completed online job. An order already attached
// to the job is returned again instead of creating a second one, including
// after a declined attempt, so retries capture against the same order.
func (pc *PaymentController) CreateOrder(c *gin.Context) {
	actor, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.RespondUnauthorized(c)
		return
	}
	jobID, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	job, err := pc.Jobs.Get(ctx, jobID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := job.CheckPayableOnline(actor); err != nil {
		utils.RespondError(c, err)
		return
	}

	if job.RazorpayOrderID == nil {
		orderID, err := pc.Gateway.CreateOrder(job.FinalPrice.Decimal, pc.Currency, job.ID.String(), map[string]interface{}{
			"job_id": job.ID.String(),
		})
		if err != nil {
			logger.ErrorLogger.Errorf("Failed to create gateway order for job %s: %v", job.ID, err)
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"success": false, "code": "gateway_error", "error": "failed to create payment order"})
			return
		}

		job.AttachGatewayOrder(orderID, pc.Now())
		if err := pc.Jobs.Update(ctx, job); err != nil {
			utils.RespondError(c, err)
			return
		}
		logger.InfoLogger.Infof("Gateway order %s created for job %s", orderID, job.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"orderId":  *job.RazorpayOrderID,
		"amount":   clients.ToSubunits(job.FinalPrice.Decimal),
		"currency": pc.Currency,
		"keyId":    pc.KeyID,
	})
}

// VerifyPayment - POST /jobs/:id/payment/verify
func (pc *PaymentController) VerifyPayment(c *gin.Context) {
	actor, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.RespondUnauthorized(c)
		return
	}
	jobID, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.Validation("invalid request: %v", err))
		return
	}

	if !pc.Gateway.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		metrics.SignatureFailures.WithLabelValues("checkout").Inc()
		logger.WarnLogger.Warnf("Invalid payment signature for job %s order %s", jobID, req.RazorpayOrderID)
		utils.RespondError(c, utils.ErrInvalidSignature)
		return
	}

	ctx := c.Request.Context()
	job, err := pc.Jobs.Get(ctx, jobID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if !job.IsCustomer(actor) {
		utils.RespondError(c, utils.Forbidden("only the job's customer can verify its payment"))
		return
	}
	if job.RazorpayOrderID == nil || *job.RazorpayOrderID != req.RazorpayOrderID {
		utils.RespondError(c, utils.Validation("order does not belong to this job"))
		return
	}

	if err := pc.markPaid(ctx, job, req.RazorpayPaymentID); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "job": job})
}

// markPaid applies a verified capture. Replays leave the job untouched.
func (pc *PaymentController) markPaid(ctx context.Context, job *job_models.Job, paymentID string) error {
	changed, err := job.MarkOnlinePaid(paymentID, pc.Now())
	if err != nil || !changed {
		return err
	}
	if err := pc.Jobs.Update(ctx, job); err != nil {
		return err
	}

	metrics.PaymentTransitions.WithLabelValues(string(job_models.PaymentPaid)).Inc()
	logger.InfoLogger.Infof("Online payment %s captured for job %s", paymentID, job.ID)
	if job.ProfessionalID != nil {
		notify.Send(ctx, pc.Notifier, *job.ProfessionalID, notification_models.TypePaymentReceived,
			"Payment received for "+job.Title+": "+job.Commission.ProviderEarnings.StringFixed(2)+" credited to your earnings", &job.ID)
	}
	pc.Events.Publish(ctx, clients.EventOnlinePaymentPaid, job.ID.String(), gin.H{
		"jobId":            job.ID,
		"paymentId":        paymentID,
		"providerEarnings": job.Commission.ProviderEarnings,
	})
	return nil
}

func (pc *PaymentController) markFailed(ctx context.Context, job *job_models.Job, reason string) error {
	changed, err := job.MarkOnlineFailed(pc.Now())
	if err != nil || !changed {
		return err
	}
	if err := pc.Jobs.Update(ctx, job); err != nil {
		return err
	}

	metrics.PaymentTransitions.WithLabelValues(string(job_models.PaymentFailed)).Inc()
	logger.WarnLogger.Warnf("Online payment failed for job %s: %s", job.ID, reason)
	notify.Send(ctx, pc.Notifier, job.CustomerID, notification_models.TypePaymentFailed,
		"Your payment for "+job.Title+" failed", &job.ID)
	pc.Events.Publish(ctx, clients.EventOnlinePaymentFailed, job.ID.String(), gin.H{"jobId": job.ID, "reason": reason})
	return nil
}

// RazorpayWebhook - POST /webhook/razorpay
//
// Signature failures are rejected. Everything else is acknowledged with 200 once
// stored, so the gateway does not retry events this service cannot act on.
func (pc *PaymentController) RazorpayWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to read webhook body: %v", err)
		utils.RespondError(c, utils.Validation("invalid body"))
		return
	}

	if !pc.Gateway.VerifyWebhookSignature(string(body), c.GetHeader(signatureHeader)) {
		metrics.SignatureFailures.WithLabelValues("webhook").Inc()
		logger.WarnLogger.Warn("Rejected Razorpay webhook with invalid signature")
		utils.RespondError(c, utils.ErrInvalidSignature)
		return
	}

	event, err := payment_models.ParseWebhookEvent(body)
	if err != nil {
		logger.ErrorLogger.Errorf("Invalid webhook payload: %v", err)
		utils.RespondError(c, utils.Validation("invalid payload"))
		return
	}

	ctx := c.Request.Context()
	if pc.Webhooks != nil {
		// logged for audit; processing continues if this fails
		_ = pc.Webhooks.LogWebhookEvent(ctx, event.Event, body)
	}

	entity := event.Payload.Payment.Entity
	switch event.Event {
	case payment_models.EventPaymentCaptured, payment_models.EventOrderPaid:
		err = pc.applyToOrder(ctx, entity.OrderID, func(job *job_models.Job) error {
			return pc.markPaid(ctx, job, entity.ID)
		})
	case payment_models.EventPaymentFailed:
		err = pc.applyToOrder(ctx, entity.OrderID, func(job *job_models.Job) error {
			return pc.markFailed(ctx, job, entity.ErrorReason)
		})
	default:
		logger.InfoLogger.Infof("Unhandled webhook event type received: %s", event.Event)
	}

	if err != nil && utils.KindOf(err) == utils.KindInternal {
		// let the gateway retry transient failures
		utils.RespondError(c, err)
		return
	}
	if err != nil {
		logger.WarnLogger.Warnf("Webhook %s for order %s not applied: %v", event.Event, entity.OrderID, err)
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

func (pc *PaymentController) applyToOrder(ctx context.Context, orderID string, fn func(job *job_models.Job) error) error {
	if orderID == "" {
		return utils.Validation("webhook has no order id")
	}
	job, err := pc.Jobs.GetByRazorpayOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	return fn(job)
}

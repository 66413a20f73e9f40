package job_controller

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/servicehub/badwords"
	"github.com/joy095/servicehub/clients"
	"github.com/joy095/servicehub/logger"
	"github.com/joy095/servicehub/middlewares/metrics"
	"github.com/joy095/servicehub/models/job_models"
	"github.com/joy095/servicehub/models/notification_models"
	"github.com/joy095/servicehub/utils"
	"github.com/joy095/servicehub/utils/commission"
	"github.com/joy095/servicehub/utils/notify"
	"github.com/joy095/servicehub/utils/shared_utils"
	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"
)

type JobController struct {
	Jobs     job_models.Store
	Calc     *commission.Calculator
	Notifier notify.Notifier
	Events   clients.EventPublisher
	// Attempts throttles wrong cash verification codes. Nil disables it.
	Attempts shared_utils.AttemptStore

	Now          func() time.Time
	GenerateCode func() (string, error)
}

func NewJobController(jobs job_models.Store, calc *commission.Calculator, notifier notify.Notifier, events clients.EventPublisher) *JobController {
	if events == nil {
		events = clients.NoopPublisher{}
	}
	return &JobController{
		Jobs:         jobs,
		Calc:         calc,
		Notifier:     notifier,
		Events:       events,
		Now:          func() time.Time { return time.Now().UTC() },
		GenerateCode: utils.GenerateVerificationCode,
	}
}

type budgetRequest struct {
	Min *decimal.Decimal `json:"min"`
	Max *decimal.Decimal `json:"max"`
}

type CreateJobRequest struct {
	Title       string        `json:"title" binding:"required"`
	Description string        `json:"description"`
	Budget      budgetRequest `json:"budget"`
}

type CancelJobRequest struct {
	Reason string `json:"reason"`
}

type CompleteJobRequest struct {
	FinalPrice    *decimal.Decimal         `json:"finalPrice" binding:"required"`
	PaymentMethod commission.PaymentMethod `json:"paymentMethod" binding:"required"`
}

type MarkCashReceivedRequest struct {
	ReceiptPhotos []string `json:"receiptPhotos"`
}

type ConfirmCashPaymentRequest struct {
	TipAmount        *decimal.Decimal `json:"tipAmount"`
	VerificationCode string           `json:"verificationCode"`
}

type RaiseDisputeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.RespondError(c, utils.Validation("invalid request: %v", err))
		return false
	}
	return true
}

// bindOptionalJSON tolerates an empty body for endpoints whose fields are all optional.
func bindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, req)
}

// mutate loads the job named by :id, applies fn and saves it under the
// version check. On failure it has already written the response and returns nil.
func (jc *JobController) mutate(c *gin.Context, fn func(job *job_models.Job, actor uuid.UUID, now time.Time) error) *job_models.Job {
	actor, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.RespondUnauthorized(c)
		return nil
	}
	jobID, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return nil
	}

	ctx := c.Request.Context()
	job, err := jc.Jobs.Get(ctx, jobID)
	if err != nil {
		utils.RespondError(c, err)
		return nil
	}

	if err := fn(job, actor, jc.Now()); err != nil {
		utils.RespondError(c, err)
		return nil
	}

	if err := jc.Jobs.Update(ctx, job); err != nil {
		utils.RespondError(c, err)
		return nil
	}
	return job
}

func (jc *JobController) notify(c *gin.Context, recipient uuid.UUID, typ notification_models.Type, job *job_models.Job, format string, args ...any) {
	notify.Send(c.Request.Context(), jc.Notifier, recipient, typ, fmt.Sprintf(format, args...), &job.ID)
}

func (jc *JobController) publish(c *gin.Context, eventType string, job *job_models.Job) {
	jc.Events.Publish(c.Request.Context(), eventType, job.ID.String(), gin.H{
		"jobId":          job.ID,
		"customerId":     job.CustomerID,
		"professionalId": job.ProfessionalID,
		"paymentMethod":  job.PaymentMethod,
		"paymentStatus":  job.PaymentStatus,
		"finalPrice":     job.FinalPrice,
		"commission":     job.Commission,
	})
}

// CreateJob - POST /jobs
func (jc *JobController) CreateJob(c *gin.Context) {
	customerID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.RespondUnauthorized(c)
		return
	}

	var req CreateJobRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := badwords.Check("title", req.Title, "description", req.Description); err != nil {
		utils.RespondError(c, err)
		return
	}

	var budget job_models.Budget
	if req.Budget.Min != nil {
		budget.Min = decimal.NewNullDecimal(*req.Budget.Min)
	}
	if req.Budget.Max != nil {
		budget.Max = decimal.NewNullDecimal(*req.Budget.Max)
	}

	job, err := job_models.NewJob(customerID, req.Title, req.Description, budget)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := jc.Jobs.Create(c.Request.Context(), job); err != nil {
		utils.RespondError(c, err)
		return
	}

	logger.InfoLogger.Infof("Job %s created by customer %s", job.ID, customerID)
	c.JSON(http.StatusCreated, gin.H{"success": true, "job": job})
}

// GetJob - GET /jobs/:id
func (jc *JobController) GetJob(c *gin.Context) {
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

	job, err := jc.Jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if !job.IsParty(actor) && utils.GetRoleFromContext(c) != utils.RoleAdmin {
		utils.RespondError(c, utils.Forbidden("you are not a party to this job"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "job": job})
}

// AcceptJob - POST /jobs/:id/accept
func (jc *JobController) AcceptJob(c *gin.Context) {
	job := jc.mutate(c, func(job *job_models.Job, actor uuid.UUID, now time.Time) error {
		return job.Accept(actor, now)
	})
	if job == nil {
		return
	}

	jc.notify(c, job.CustomerID, notification_models.TypeJobAccepted, job, "Your job %q has been accepted", job.Title)
	c.JSON(http.StatusOK, gin.H{"success": true, "job": job})
}

// StartJob - POST /jobs/:id/start
func (jc *JobController) StartJob(c *gin.Context) {
	job := jc.mutate(c, func(job *job_models.Job, actor uuid.UUID, now time.Time) error {
		return job.Start(actor, now)
	})
	if job == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "job": job})
}

// CancelJob - POST /jobs/:id/cancel
func (jc *JobController) CancelJob(c *gin.Context) {
	var req CancelJobRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	var cancelledBy uuid.UUID
	job := jc.mutate(c, func(job *job_models.Job, actor uuid.UUID, now time.Time) error {
		cancelledBy = actor
		return job.Cancel(actor, req.Reason, now)
	})
	if job == nil {
		return
	}

	if counterparty := counterpartyOf(job, cancelledBy); counterparty != uuid.Nil {
		jc.notify(c, counterparty, notification_models.TypeJobCancelled, job, "Job %q was cancelled", job.Title)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "job": job})
}

// CompleteJob - POST /jobs/:id/complete
//
// Fixes the price and payment method and stamps the commission breakdown. For
// cash jobs the response carries the verification code, shown only this once.
func (jc *JobController) CompleteJob(c *gin.Context) {
	var req CompleteJobRequest
	if !bindJSON(c, &req) {
		return
	}

	var code string
	if req.PaymentMethod == commission.PaymentMethodCash {
		var err error
		if code, err = jc.GenerateCode(); err != nil {
			utils.RespondError(c, utils.Internal(err, "failed to generate verification code"))
			return
		}
	}

	job := jc.mutate(c, func(job *job_models.Job, actor uuid.UUID, now time.Time) error {
		return job.Complete(actor, job_models.Completion{
			FinalPrice:       *req.FinalPrice,
			PaymentMethod:    req.PaymentMethod,
			VerificationCode: code,
		}, jc.Calc, now)
	})
	if job == nil {
		return
	}

	metrics.JobsCompleted.WithLabelValues(string(job.PaymentMethod)).Inc()
	logger.InfoLogger.Infof("Job %s completed: method=%s total=%s fee=%s earnings=%s",
		job.ID, job.PaymentMethod, job.Commission.Total, job.Commission.CompanyFee, job.Commission.ProviderEarnings)

	jc.notify(c, job.CustomerID, notification_models.TypeJobCompleted, job,
		"Job %q was completed for %s (%s)", job.Title, job.Commission.Total.StringFixed(2), job.PaymentMethod)
	jc.publish(c, clients.EventJobCompleted, job)

	resp := gin.H{
		"success":  true,
		"message":  "Job completed",
		"job":      job,
		"earnings": job.Commission,
	}
	if code != "" {
		resp["verificationCode"] = code
		if png, err := qrcode.Encode(verificationPayload(job.ID, code), qrcode.Medium, 256); err != nil {
			logger.WarnLogger.Warnf("Failed to render verification QR for job %s: %v", job.ID, err)
		} else {
			resp["verificationQr"] = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func verificationPayload(jobID uuid.UUID, code string) string {
	return fmt.Sprintf("servicehub://jobs/%s/cash/confirm?code=%s", jobID, code)
}

// MarkCashReceived - POST /jobs/:id/cash/received
func (jc *JobController) MarkCashReceived(c *gin.Context) {
	var req MarkCashReceivedRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	job := jc.mutate(c, func(job *job_models.Job, actor uuid.UUID, now time.Time) error {
		return job.MarkCashReceived(actor, req.ReceiptPhotos, now)
	})
	if job == nil {
		return
	}

	logger.InfoLogger.Infof("Cash marked received for job %s", job.ID)
	jc.notify(c, job.CustomerID, notification_models.TypeCashReceived, job,
		"Your professional marked cash of %s as received. Please confirm the payment.", job.CashPaymentDetails.Amount.StringFixed(2))
	jc.publish(c, clients.EventCashMarkedReceived, job)

	c.JSON(http.StatusOK, gin.H{"success": true, "job": job})
}

// ConfirmCashPayment - POST /jobs/:id/cash/confirm
//
// Wrong verification codes are counted per job; once the limit is reached the
// job refuses codes until the window expires.
func (jc *JobController) ConfirmCashPayment(c *gin.Context) {
	var req ConfirmCashPaymentRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	tip := decimal.Zero
	if req.TipAmount != nil {
		tip = *req.TipAmount
	}

	ctx := c.Request.Context()
	attemptsKey := shared_utils.VerificationAttemptsKey(c.Param("id"))
	if req.VerificationCode != "" && jc.lockedOut(ctx, attemptsKey) {
		utils.RespondError(c, utils.ErrTooManyAttempts)
		return
	}

	var codeRejected bool
	job := jc.mutate(c, func(job *job_models.Job, actor uuid.UUID, now time.Time) error {
		err := job.ConfirmCashPayment(actor, tip, req.VerificationCode, now)
		codeRejected = errors.Is(err, utils.ErrInvalidVerificationCode)
		return err
	})
	if job == nil {
		if codeRejected {
			jc.recordFailedCode(ctx, attemptsKey)
		}
		return
	}
	if req.VerificationCode != "" && jc.Attempts != nil {
		_ = jc.Attempts.Clear(ctx, attemptsKey)
	}

	metrics.PaymentTransitions.WithLabelValues(string(job_models.PaymentCashVerified)).Inc()
	logger.InfoLogger.Infof("Cash payment verified for job %s: amount=%s tip=%s",
		job.ID, job.CashPaymentDetails.Amount, job.CashPaymentDetails.TipAmount)

	if job.ProfessionalID != nil {
		jc.notify(c, *job.ProfessionalID, notification_models.TypeCashConfirmed, job,
			"The customer confirmed a cash payment of %s for %q", job.CashPaymentDetails.Amount.StringFixed(2), job.Title)
	}
	jc.publish(c, clients.EventCashVerified, job)

	c.JSON(http.StatusOK, gin.H{"success": true, "job": job})
}

// lockedOut fails open when the attempt store is unavailable.
func (jc *JobController) lockedOut(ctx context.Context, key string) bool {
	if jc.Attempts == nil {
		return false
	}
	n, err := jc.Attempts.Attempts(ctx, key)
	if err != nil {
		return false
	}
	return n >= shared_utils.MAX_VERIFICATION_ATTEMPTS
}

func (jc *JobController) recordFailedCode(ctx context.Context, key string) {
	if jc.Attempts == nil {
		return
	}
	n, err := jc.Attempts.RecordFailure(ctx, key)
	if err != nil {
		return
	}
	logger.WarnLogger.Warnf("Wrong cash verification code for %s (%d/%d)", key, n, shared_utils.MAX_VERIFICATION_ATTEMPTS)
}

// RaiseDispute - POST /jobs/:id/cash/dispute
func (jc *JobController) RaiseDispute(c *gin.Context) {
	var req RaiseDisputeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := badwords.Check("reason", req.Reason); err != nil {
		utils.RespondError(c, err)
		return
	}

	var raisedBy uuid.UUID
	job := jc.mutate(c, func(job *job_models.Job, actor uuid.UUID, now time.Time) error {
		raisedBy = actor
		return job.RaiseDispute(actor, req.Reason, now)
	})
	if job == nil {
		return
	}

	logger.WarnLogger.Warnf("Cash dispute raised on job %s by %s", job.ID, raisedBy)
	if counterparty := counterpartyOf(job, raisedBy); counterparty != uuid.Nil {
		jc.notify(c, counterparty, notification_models.TypeDisputeRaised, job,
			"A dispute was raised on the cash payment for %q: %s", job.Title, job.CashPaymentDetails.DisputeDetails.Reason)
	}
	jc.publish(c, clients.EventCashDisputed, job)

	c.JSON(http.StatusOK, gin.H{"success": true, "job": job})
}

func counterpartyOf(job *job_models.Job, actor uuid.UUID) uuid.UUID {
	if job.IsCustomer(actor) {
		if job.ProfessionalID != nil {
			return *job.ProfessionalID
		}
		return uuid.Nil
	}
	return job.CustomerID
}

package job_models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/servicehub/utils"
	"github.com/joy095/servicehub/utils/commission"
	"github.com/shopspring/decimal"
)

// Transitions mutate the job in memory only. Callers persist with Store.Update,
// which rejects the write if another request changed the job meanwhile.

func validateNewJob(title string, budget Budget) error {
	if strings.TrimSpace(title) == "" {
		return utils.Validation("title is required")
	}
	if budget.Min.Valid && budget.Min.Decimal.IsNegative() {
		return utils.Validation("budget minimum cannot be negative")
	}
	if budget.Max.Valid && budget.Max.Decimal.IsNegative() {
		return utils.Validation("budget maximum cannot be negative")
	}
	if budget.Min.Valid && budget.Max.Valid && budget.Min.Decimal.GreaterThan(budget.Max.Decimal) {
		return utils.Validation("budget minimum cannot exceed maximum")
	}
	return nil
}

func (j *Job) touch(now time.Time) {
	j.UpdatedAt = now
}

// Accept assigns the job to a professional.
func (j *Job) Accept(professionalID uuid.UUID, now time.Time) error {
	if j.CustomerID == professionalID {
		return utils.Forbidden("customers cannot accept their own job")
	}
	if j.Status != StatusPending {
		return utils.Conflict("job cannot be accepted from status %s", j.Status)
	}

	j.ProfessionalID = &professionalID
	j.Status = StatusAccepted
	j.touch(now)
	return nil
}

func (j *Job) Start(actor uuid.UUID, now time.Time) error {
	if !j.IsProfessional(actor) {
		return utils.Forbidden("only the assigned professional can start this job")
	}
	if j.Status != StatusAccepted {
		return utils.Conflict("job cannot be started from status %s", j.Status)
	}

	j.Status = StatusInProgress
	j.touch(now)
	return nil
}

// Cancel is terminal and allowed from any state except completed.
func (j *Job) Cancel(actor uuid.UUID, reason string, now time.Time) error {
	if !j.IsParty(actor) {
		return utils.Forbidden("only the job's customer or professional can cancel it")
	}
	if j.Status == StatusCompleted || j.Status == StatusCancelled {
		return utils.Conflict("job cannot be cancelled from status %s", j.Status)
	}

	j.Status = StatusCancelled
	j.CancelledAt = &now
	if reason = strings.TrimSpace(reason); reason != "" {
		j.CancellationReason = &reason
	}
	j.touch(now)
	return nil
}

type Completion struct {
	FinalPrice    decimal.Decimal
	PaymentMethod commission.PaymentMethod
	// VerificationCode is only used for cash jobs.
	VerificationCode string
}

// Complete fixes price and payment method and stamps the commission. The
// breakdown is written exactly once; a completed job can never be completed again.
func (j *Job) Complete(actor uuid.UUID, in Completion, calc *commission.Calculator, now time.Time) error {
	if !j.IsProfessional(actor) {
		return utils.Forbidden("only the assigned professional can complete this job")
	}
	if j.Status != StatusAccepted && j.Status != StatusInProgress {
		return utils.Conflict("job cannot be completed from status %s", j.Status)
	}
	if j.Commission != nil {
		return utils.Conflict("commission already recorded for this job")
	}
	if !in.PaymentMethod.Valid() {
		return utils.Validation("payment method must be cash or online")
	}
	if in.FinalPrice.IsNegative() {
		return utils.Validation("final price cannot be negative")
	}
	if !in.FinalPrice.Equal(in.FinalPrice.Round(2)) {
		return utils.Validation("final price cannot have more than two decimal places")
	}
	if !j.Budget.Contains(in.FinalPrice) {
		return utils.Validation("final price %s is outside the job budget", in.FinalPrice.StringFixed(2))
	}
	if in.PaymentMethod == commission.PaymentMethodCash && in.VerificationCode == "" {
		return utils.Validation("cash completion requires a verification code")
	}

	breakdown, err := calc.Calculate(in.FinalPrice, in.PaymentMethod)
	if err != nil {
		return err
	}

	j.Status = StatusCompleted
	j.FinalPrice = decimal.NewNullDecimal(breakdown.Total)
	j.PaymentMethod = in.PaymentMethod
	j.Commission = &breakdown
	j.CompletedAt = &now

	if in.PaymentMethod == commission.PaymentMethodCash {
		j.PaymentStatus = PaymentCashPending
		j.CashPaymentDetails = &CashPaymentDetails{
			Amount:        breakdown.Total,
			TipAmount:     decimal.Zero,
			ReceiptPhotos: []string{},
		}
		j.VerificationCodeHash = utils.HashVerificationCode(in.VerificationCode, j.ID.String())
	}

	j.touch(now)
	return nil
}

func (j *Job) requireCompletedCash() error {
	if j.Status != StatusCompleted {
		return utils.Conflict("job is not completed")
	}
	if j.PaymentMethod != commission.PaymentMethodCash || j.CashPaymentDetails == nil {
		return utils.Conflict("job was not paid in cash")
	}
	return nil
}

// MarkCashReceived records the professional's acknowledgement. It is
// informational and does not move the payment status.
func (j *Job) MarkCashReceived(actor uuid.UUID, receiptPhotos []string, now time.Time) error {
	if !j.IsProfessional(actor) {
		return utils.Forbidden("only the assigned professional can mark cash as received")
	}
	if err := j.requireCompletedCash(); err != nil {
		return err
	}
	details := j.CashPaymentDetails
	if details.ProfessionalMarkedReceived {
		return utils.Conflict("cash already marked as received")
	}

	details.ProfessionalMarkedReceived = true
	details.ProfessionalReceivedAt = &now
	for _, p := range receiptPhotos {
		if p = strings.TrimSpace(p); p != "" {
			details.ReceiptPhotos = append(details.ReceiptPhotos, p)
		}
	}
	j.touch(now)
	return nil
}

// ConfirmCashPayment is the customer's acknowledgement, which alone verifies
// the cash payment. A tip widens the final price but leaves the commission
// breakdown as computed at completion.
func (j *Job) ConfirmCashPayment(actor uuid.UUID, tip decimal.Decimal, code string, now time.Time) error {
	if !j.IsCustomer(actor) {
		return utils.Forbidden("only the job's customer can confirm the cash payment")
	}
	if err := j.requireCompletedCash(); err != nil {
		return err
	}
	if j.PaymentStatus != PaymentCashPending {
		return utils.Conflict("cash payment cannot be confirmed from payment status %s", j.PaymentStatus)
	}
	if tip.IsNegative() {
		return utils.Validation("tip amount cannot be negative")
	}
	if code != "" && !utils.VerifyCode(code, j.ID.String(), j.VerificationCodeHash) {
		return utils.ErrInvalidVerificationCode
	}

	details := j.CashPaymentDetails
	details.CustomerConfirmed = true
	details.CustomerConfirmedAt = &now

	if tip = tip.Round(2); tip.IsPositive() {
		details.TipAmount = tip
		details.Amount = details.Amount.Add(tip)
		j.FinalPrice = decimal.NewNullDecimal(j.FinalPrice.Decimal.Add(tip))
	}

	j.PaymentStatus = PaymentCashVerified
	j.touch(now)
	return nil
}

// RaiseDispute flags a pending cash payment. Nothing else in the state
// machine is frozen; resolution happens outside this service.
func (j *Job) RaiseDispute(actor uuid.UUID, reason string, now time.Time) error {
	var role string
	switch {
	case j.IsCustomer(actor):
		role = utils.RoleCustomer
	case j.IsProfessional(actor):
		role = utils.RoleProfessional
	default:
		return utils.Forbidden("only the job's customer or professional can raise a dispute")
	}
	if err := j.requireCompletedCash(); err != nil {
		return err
	}
	if j.PaymentStatus != PaymentCashPending {
		return utils.Conflict("disputes can only be raised while the cash payment is pending")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return utils.Validation("a reason is required to raise a dispute")
	}
	if j.CashPaymentDetails.DisputeRaised {
		return utils.Conflict("a dispute is already open for this job")
	}

	j.CashPaymentDetails.DisputeRaised = true
	j.CashPaymentDetails.DisputeDetails = &DisputeDetails{
		RaisedBy:     actor,
		RaisedByRole: role,
		Reason:       reason,
		RaisedAt:     now,
		Status:       DisputeStatusPending,
	}
	j.touch(now)
	return nil
}

func (j *Job) requireCompletedOnline() error {
	if j.Status != StatusCompleted {
		return utils.Conflict("job is not completed")
	}
	if j.PaymentMethod != commission.PaymentMethodOnline {
		return utils.Conflict("job is not an online payment")
	}
	return nil
}

// CheckPayableOnline reports whether actor may open a gateway order for this job.
// A failed attempt leaves the job payable so the customer can retry.
func (j *Job) CheckPayableOnline(actor uuid.UUID) error {
	if !j.IsCustomer(actor) {
		return utils.Forbidden("only the job's customer can pay for it")
	}
	if err := j.requireCompletedOnline(); err != nil {
		return err
	}
	if j.PaymentStatus != PaymentPending && j.PaymentStatus != PaymentFailed {
		return utils.Conflict("job payment is already %s", j.PaymentStatus)
	}
	return nil
}

func (j *Job) AttachGatewayOrder(orderID string, now time.Time) {
	j.RazorpayOrderID = &orderID
	j.touch(now)
}

// MarkOnlinePaid applies a verified gateway capture. Replays of the same
// outcome are no-ops and report changed=false. A capture after a failed
// attempt on the same order is a successful retry; paid is terminal.
func (j *Job) MarkOnlinePaid(paymentID string, now time.Time) (bool, error) {
	if err := j.requireCompletedOnline(); err != nil {
		return false, err
	}
	switch j.PaymentStatus {
	case PaymentPaid:
		return false, nil
	case PaymentPending, PaymentFailed:
	default:
		return false, utils.Conflict("online payment cannot be marked paid from %s", j.PaymentStatus)
	}

	j.PaymentStatus = PaymentPaid
	if paymentID != "" {
		j.RazorpayPaymentID = &paymentID
	}
	j.touch(now)
	return true, nil
}

func (j *Job) MarkOnlineFailed(now time.Time) (bool, error) {
	if err := j.requireCompletedOnline(); err != nil {
		return false, err
	}
	switch j.PaymentStatus {
	case PaymentFailed, PaymentPaid:
		// a late failure for an earlier attempt never undoes a capture
		return false, nil
	case PaymentPending:
	default:
		return false, utils.Conflict("online payment cannot be marked failed from %s", j.PaymentStatus)
	}

	j.PaymentStatus = PaymentFailed
	j.touch(now)
	return true, nil
}

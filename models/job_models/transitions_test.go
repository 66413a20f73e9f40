package job_models

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/servicehub/utils"
	"github.com/joy095/servicehub/utils/commission"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var calc = commission.NewCalculator(decimal.RequireFromString("0.10"))

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func budget(min, max string) Budget {
	var b Budget
	if min != "" {
		b.Min = decimal.NewNullDecimal(d(min))
	}
	if max != "" {
		b.Max = decimal.NewNullDecimal(d(max))
	}
	return b
}

// acceptedJob returns a job already accepted by a fresh professional.
func acceptedJob(t *testing.T, b Budget) (*Job, uuid.UUID) {
	t.Helper()
	job, err := NewJob(uuid.New(), "Paint the hallway", "two coats", b)
	require.NoError(t, err)
	pro := uuid.New()
	require.NoError(t, job.Accept(pro, time.Now()))
	return job, pro
}

func completeCash(t *testing.T, job *Job, pro uuid.UUID, price string) {
	t.Helper()
	require.NoError(t, job.Complete(pro, Completion{
		FinalPrice:       d(price),
		PaymentMethod:    commission.PaymentMethodCash,
		VerificationCode: "482913",
	}, calc, time.Now()))
}

func TestNewJobValidation(t *testing.T) {
	_, err := NewJob(uuid.New(), "  ", "", Budget{})
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	_, err = NewJob(uuid.New(), "Fix tap", "", budget("500", "100"))
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	_, err = NewJob(uuid.New(), "Fix tap", "", budget("-1", ""))
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	job, err := NewJob(uuid.New(), "Fix tap", "", budget("100", "500"))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, PaymentPending, job.PaymentStatus)
	assert.Equal(t, 1, job.Version)
}

func TestJobLifecycle(t *testing.T) {
	job, err := NewJob(uuid.New(), "Fix tap", "", Budget{})
	require.NoError(t, err)

	err = job.Accept(job.CustomerID, time.Now())
	assert.Equal(t, utils.KindAuthorization, utils.KindOf(err))

	pro := uuid.New()
	require.NoError(t, job.Accept(pro, time.Now()))
	assert.Equal(t, utils.KindStateConflict, utils.KindOf(job.Accept(uuid.New(), time.Now())))

	assert.Equal(t, utils.KindAuthorization, utils.KindOf(job.Start(job.CustomerID, time.Now())))
	require.NoError(t, job.Start(pro, time.Now()))
	assert.Equal(t, StatusInProgress, job.Status)

	assert.Equal(t, utils.KindAuthorization, utils.KindOf(job.Cancel(uuid.New(), "", time.Now())))
	require.NoError(t, job.Cancel(job.CustomerID, " changed plans ", time.Now()))
	assert.Equal(t, StatusCancelled, job.Status)
	require.NotNil(t, job.CancellationReason)
	assert.Equal(t, "changed plans", *job.CancellationReason)
	assert.Equal(t, utils.KindStateConflict, utils.KindOf(job.Cancel(pro, "", time.Now())))
}

func TestCompleteOnline(t *testing.T) {
	job, pro := acceptedJob(t, budget("500", "1500"))

	require.NoError(t, job.Complete(pro, Completion{
		FinalPrice:    d("1000"),
		PaymentMethod: commission.PaymentMethodOnline,
	}, calc, time.Now()))

	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, PaymentPending, job.PaymentStatus, "online status waits for the gateway")
	require.NotNil(t, job.Commission)
	assert.True(t, job.Commission.Total.Equal(d("1000")))
	assert.True(t, job.Commission.CompanyFee.Equal(d("100")))
	assert.True(t, job.Commission.ProviderEarnings.Equal(d("900")))
	assert.True(t, job.Commission.CommissionRate.Equal(d("0.10")))
	assert.Nil(t, job.CashPaymentDetails)
	assert.NotNil(t, job.CompletedAt)
}

func TestCompleteRejections(t *testing.T) {
	tests := []struct {
		name string
		in   Completion
		kind utils.Kind
	}{
		{"above budget", Completion{FinalPrice: d("2000"), PaymentMethod: commission.PaymentMethodOnline}, utils.KindValidation},
		{"below budget", Completion{FinalPrice: d("100"), PaymentMethod: commission.PaymentMethodOnline}, utils.KindValidation},
		{"negative", Completion{FinalPrice: d("-5"), PaymentMethod: commission.PaymentMethodOnline}, utils.KindValidation},
		{"sub-paisa price", Completion{FinalPrice: d("1499.995"), PaymentMethod: commission.PaymentMethodOnline}, utils.KindValidation},
		{"unknown method", Completion{FinalPrice: d("800"), PaymentMethod: "barter"}, utils.KindValidation},
		{"cash without code", Completion{FinalPrice: d("800"), PaymentMethod: commission.PaymentMethodCash}, utils.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, pro := acceptedJob(t, budget("500", "1500"))
			err := job.Complete(pro, tt.in, calc, time.Now())
			assert.Equal(t, tt.kind, utils.KindOf(err))
			assert.Equal(t, StatusAccepted, job.Status, "failed completion leaves the job untouched")
			assert.Nil(t, job.Commission)
		})
	}
}

func TestCompleteAcceptsTrailingZeros(t *testing.T) {
	job, pro := acceptedJob(t, budget("500", "1500"))
	require.NoError(t, job.Complete(pro, Completion{FinalPrice: d("1500.000"), PaymentMethod: commission.PaymentMethodOnline}, calc, time.Now()))
	assert.True(t, job.FinalPrice.Decimal.Equal(d("1500")))
}

func TestCompleteOnlyOnce(t *testing.T) {
	job, pro := acceptedJob(t, Budget{})
	completeCash(t, job, pro, "500")
	first := *job.Commission

	err := job.Complete(pro, Completion{FinalPrice: d("900"), PaymentMethod: commission.PaymentMethodOnline}, calc, time.Now())
	assert.Equal(t, utils.KindStateConflict, utils.KindOf(err))
	assert.Equal(t, first, *job.Commission, "commission is immutable once set")
}

func TestCompleteByNonProfessional(t *testing.T) {
	job, _ := acceptedJob(t, Budget{})
	err := job.Complete(job.CustomerID, Completion{FinalPrice: d("10"), PaymentMethod: commission.PaymentMethodOnline}, calc, time.Now())
	assert.Equal(t, utils.KindAuthorization, utils.KindOf(err))
}

func TestCashHappyPath(t *testing.T) {
	job, pro := acceptedJob(t, Budget{})
	completeCash(t, job, pro, "500")

	assert.Equal(t, PaymentCashPending, job.PaymentStatus)
	assert.True(t, job.Commission.CommissionRate.IsZero())
	assert.True(t, job.Commission.ProviderEarnings.Equal(d("500")))
	assert.NotEmpty(t, job.VerificationCodeHash)
	assert.NotEqual(t, "482913", job.VerificationCodeHash)
	assert.True(t, job.EarnedAmount().IsZero())

	require.NoError(t, job.MarkCashReceived(pro, []string{"https://cdn.example/r1.jpg", " "}, time.Now()))
	assert.Equal(t, PaymentCashPending, job.PaymentStatus, "professional acknowledgement does not gate")
	assert.True(t, job.CashPaymentDetails.ProfessionalMarkedReceived)
	assert.Equal(t, []string{"https://cdn.example/r1.jpg"}, job.CashPaymentDetails.ReceiptPhotos)
	assert.True(t, job.EarnedAmount().IsZero())

	require.NoError(t, job.ConfirmCashPayment(job.CustomerID, decimal.Zero, "482913", time.Now()))
	assert.Equal(t, PaymentCashVerified, job.PaymentStatus)
	assert.True(t, job.CashPaymentDetails.CustomerConfirmed)
	assert.True(t, job.EarnedAmount().Equal(d("500")))
}

func TestMarkCashReceivedRules(t *testing.T) {
	job, pro := acceptedJob(t, Budget{})
	assert.Equal(t, utils.KindStateConflict, utils.KindOf(job.MarkCashReceived(pro, nil, time.Now())), "not completed")

	completeCash(t, job, pro, "500")
	assert.Equal(t, utils.KindAuthorization, utils.KindOf(job.MarkCashReceived(job.CustomerID, nil, time.Now())))
	require.NoError(t, job.MarkCashReceived(pro, nil, time.Now()))
	assert.Equal(t, utils.KindStateConflict, utils.KindOf(job.MarkCashReceived(pro, nil, time.Now())))
}

func TestConfirmWithoutProfessionalAcknowledgement(t *testing.T) {
	job, pro := acceptedJob(t, Budget{})
	completeCash(t, job, pro, "500")

	require.NoError(t, job.ConfirmCashPayment(job.CustomerID, decimal.Zero, "", time.Now()))
	assert.Equal(t, PaymentCashVerified, job.PaymentStatus)
	assert.False(t, job.CashPaymentDetails.ProfessionalMarkedReceived)
}

func TestConfirmCashPaymentRules(t *testing.T) {
	job, pro := acceptedJob(t, Budget{})
	completeCash(t, job, pro, "500")

	assert.Equal(t, utils.KindAuthorization, utils.KindOf(job.ConfirmCashPayment(pro, decimal.Zero, "", time.Now())))
	assert.Equal(t, utils.KindValidation, utils.KindOf(job.ConfirmCashPayment(job.CustomerID, d("-1"), "", time.Now())))

	err := job.ConfirmCashPayment(job.CustomerID, decimal.Zero, "000000", time.Now())
	assert.True(t, errors.Is(err, utils.ErrInvalidVerificationCode))
	assert.Equal(t, PaymentCashPending, job.PaymentStatus)

	require.NoError(t, job.ConfirmCashPayment(job.CustomerID, decimal.Zero, "", time.Now()))
	err = job.ConfirmCashPayment(job.CustomerID, decimal.Zero, "", time.Now())
	assert.Equal(t, utils.KindStateConflict, utils.KindOf(err), "cash_verified is terminal")
}

func TestConfirmOnOnlineJob(t *testing.T) {
	job, pro := acceptedJob(t, Budget{})
	require.NoError(t, job.Complete(pro, Completion{FinalPrice: d("100"), PaymentMethod: commission.PaymentMethodOnline}, calc, time.Now()))

	err := job.ConfirmCashPayment(job.CustomerID, decimal.Zero, "", time.Now())
	assert.Equal(t, utils.KindStateConflict, utils.KindOf(err))
}

func TestTipBypassesCommission(t *testing.T) {
	job, pro := acceptedJob(t, Budget{})
	completeCash(t, job, pro, "500")
	before := *job.Commission

	require.NoError(t, job.ConfirmCashPayment(job.CustomerID, d("50"), "", time.Now()))

	assert.True(t, job.FinalPrice.Decimal.Equal(d("550")))
	assert.True(t, job.CashPaymentDetails.Amount.Equal(d("550")))
	assert.True(t, job.CashPaymentDetails.TipAmount.Equal(d("50")))
	assert.Equal(t, before, *job.Commission)
	assert.True(t, job.EarnedAmount().Equal(d("550")))
}

func TestRaiseDispute(t *testing.T) {
	job, pro := acceptedJob(t, Budget{})
	completeCash(t, job, pro, "500")

	assert.Equal(t, utils.KindAuthorization, utils.KindOf(job.RaiseDispute(uuid.New(), "no cash", time.Now())))
	assert.Equal(t, utils.KindValidation, utils.KindOf(job.RaiseDispute(pro, "  ", time.Now())))

	require.NoError(t, job.RaiseDispute(pro, "customer paid short", time.Now()))
	details := job.CashPaymentDetails
	assert.True(t, details.DisputeRaised)
	assert.Equal(t, utils.RoleProfessional, details.DisputeDetails.RaisedByRole)
	assert.Equal(t, DisputeStatusPending, details.DisputeDetails.Status)
	assert.Equal(t, PaymentCashPending, job.PaymentStatus, "dispute freezes nothing else")

	assert.Equal(t, utils.KindStateConflict, utils.KindOf(job.RaiseDispute(job.CustomerID, "again", time.Now())))

	require.NoError(t, job.ConfirmCashPayment(job.CustomerID, decimal.Zero, "", time.Now()))
	assert.Equal(t, PaymentCashVerified, job.PaymentStatus)
}

func TestDisputeAfterVerification(t *testing.T) {
	job, pro := acceptedJob(t, Budget{})
	completeCash(t, job, pro, "500")
	require.NoError(t, job.ConfirmCashPayment(job.CustomerID, decimal.Zero, "", time.Now()))

	assert.Equal(t, utils.KindStateConflict, utils.KindOf(job.RaiseDispute(job.CustomerID, "late", time.Now())))
}

func TestOnlinePaymentOutcomes(t *testing.T) {
	job, pro := acceptedJob(t, Budget{})
	require.NoError(t, job.Complete(pro, Completion{FinalPrice: d("1000"), PaymentMethod: commission.PaymentMethodOnline}, calc, time.Now()))

	changed, err := job.MarkOnlinePaid("pay_123", time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, PaymentPaid, job.PaymentStatus)
	assert.Equal(t, "pay_123", *job.RazorpayPaymentID)
	assert.True(t, job.EarnedAmount().Equal(d("900")))

	changed, err = job.MarkOnlinePaid("pay_123", time.Now())
	require.NoError(t, err)
	assert.False(t, changed, "replayed capture is a no-op")

	changed, err = job.MarkOnlineFailed(time.Now())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, PaymentPaid, job.PaymentStatus, "late failure never undoes a capture")
}

func TestOnlineRetryAfterFailedAttempt(t *testing.T) {
	job, pro := acceptedJob(t, Budget{})
	require.NoError(t, job.Complete(pro, Completion{FinalPrice: d("1000"), PaymentMethod: commission.PaymentMethodOnline}, calc, time.Now()))
	job.AttachGatewayOrder("order_1", time.Now())

	changed, err := job.MarkOnlineFailed(time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, job.EarnedAmount().IsZero())
	assert.NoError(t, job.CheckPayableOnline(job.CustomerID), "customer may retry after a declined attempt")

	changed, err = job.MarkOnlinePaid("pay_2", time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, PaymentPaid, job.PaymentStatus)
	assert.Equal(t, "pay_2", *job.RazorpayPaymentID)
	assert.True(t, job.EarnedAmount().Equal(d("900")))

	changed, err = job.MarkOnlineFailed(time.Now())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, PaymentPaid, job.PaymentStatus, "paid is never reopened")
}

func TestOnlineTransitionsOnCashJob(t *testing.T) {
	job, pro := acceptedJob(t, Budget{})
	completeCash(t, job, pro, "500")

	_, err := job.MarkOnlinePaid("pay_1", time.Now())
	assert.Equal(t, utils.KindStateConflict, utils.KindOf(err))
}

func TestEarnedAmountNotCompleted(t *testing.T) {
	job, _ := acceptedJob(t, Budget{})
	assert.True(t, job.EarnedAmount().IsZero())
}

func TestCheckPayableOnline(t *testing.T) {
	job, pro := acceptedJob(t, Budget{})
	assert.Equal(t, utils.KindStateConflict, utils.KindOf(job.CheckPayableOnline(job.CustomerID)), "not completed yet")

	require.NoError(t, job.Complete(pro, Completion{FinalPrice: d("1000"), PaymentMethod: commission.PaymentMethodOnline}, calc, time.Now()))
	assert.NoError(t, job.CheckPayableOnline(job.CustomerID))
	assert.Equal(t, utils.KindAuthorization, utils.KindOf(job.CheckPayableOnline(pro)))

	job.AttachGatewayOrder("order_1", time.Now())
	require.NotNil(t, job.RazorpayOrderID)
	assert.Equal(t, "order_1", *job.RazorpayOrderID)

	_, err := job.MarkOnlinePaid("pay_1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, utils.KindStateConflict, utils.KindOf(job.CheckPayableOnline(job.CustomerID)), "already paid")

	cashJob, cashPro := acceptedJob(t, Budget{})
	completeCash(t, cashJob, cashPro, "300")
	assert.Equal(t, utils.KindStateConflict, utils.KindOf(cashJob.CheckPayableOnline(cashJob.CustomerID)))
}

package job_models

import (
	"time"

	"github.com/google/uuid"
	"github.com/joy095/servicehub/utils/commission"
	"github.com/shopspring/decimal"
)

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusAccepted   JobStatus = "accepted"
	StatusInProgress JobStatus = "in_progress"
	StatusCompleted  JobStatus = "completed"
	StatusCancelled  JobStatus = "cancelled"
)

// PaymentStatus meaning depends on the job's payment method: cash jobs move
// pending -> cash_pending -> cash_verified, online jobs pending -> paid|failed.
type PaymentStatus string

const (
	PaymentPending      PaymentStatus = "pending"
	PaymentCashPending  PaymentStatus = "cash_pending"
	PaymentCashVerified PaymentStatus = "cash_verified"
	PaymentReceived     PaymentStatus = "payment_received"
	PaymentConfirmed    PaymentStatus = "payment_confirmed"
	PaymentPaid         PaymentStatus = "paid"
	PaymentFailed       PaymentStatus = "failed"
)

const DisputeStatusPending = "pending"

type Budget struct {
	Min decimal.NullDecimal `json:"min"`
	Max decimal.NullDecimal `json:"max"`
}

// Contains reports whether price sits inside whichever bounds are set.
func (b Budget) Contains(price decimal.Decimal) bool {
	if b.Min.Valid && price.LessThan(b.Min.Decimal) {
		return false
	}
	if b.Max.Valid && price.GreaterThan(b.Max.Decimal) {
		return false
	}
	return true
}

type DisputeDetails struct {
	RaisedBy     uuid.UUID `json:"raisedBy"`
	RaisedByRole string    `json:"raisedByRole"`
	Reason       string    `json:"reason"`
	RaisedAt     time.Time `json:"raisedAt"`
	Status       string    `json:"status"`
}

type CashPaymentDetails struct {
	ProfessionalMarkedReceived bool            `json:"professionalMarkedReceived"`
	ProfessionalReceivedAt     *time.Time      `json:"professionalReceivedAt,omitempty"`
	CustomerConfirmed          bool            `json:"customerConfirmed"`
	CustomerConfirmedAt        *time.Time      `json:"customerConfirmedAt,omitempty"`
	Amount                     decimal.Decimal `json:"amount"`
	TipAmount                  decimal.Decimal `json:"tipAmount"`
	ReceiptPhotos              []string        `json:"receiptPhotos"`
	DisputeRaised              bool            `json:"disputeRaised"`
	DisputeDetails             *DisputeDetails `json:"disputeDetails,omitempty"`
}

// Job is the aggregate root for one service engagement.
type Job struct {
	ID             uuid.UUID  `json:"id"`
	CustomerID     uuid.UUID  `json:"customerId"`
	ProfessionalID *uuid.UUID `json:"professionalId,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         JobStatus  `json:"status"`
	Budget         Budget     `json:"budget"`

	FinalPrice         decimal.NullDecimal      `json:"finalPrice"`
	PaymentMethod      commission.PaymentMethod `json:"paymentMethod,omitempty"`
	PaymentStatus      PaymentStatus            `json:"paymentStatus"`
	Commission         *commission.Breakdown    `json:"commission,omitempty"`
	CashPaymentDetails *CashPaymentDetails      `json:"cashPaymentDetails,omitempty"`

	// Only the hash is kept; the plain code is shown once to the professional.
	VerificationCodeHash string `json:"-"`

	RazorpayOrderID    *string    `json:"razorpayOrderId,omitempty"`
	RazorpayPaymentID  *string    `json:"razorpayPaymentId,omitempty"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewJob creates a pending job posted by customerID.
func NewJob(customerID uuid.UUID, title, description string, budget Budget) (*Job, error) {
	if err := validateNewJob(title, budget); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Job{
		ID:            id,
		CustomerID:    customerID,
		Title:         title,
		Description:   description,
		Status:        StatusPending,
		Budget:        budget,
		PaymentStatus: PaymentPending,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (j *Job) IsCustomer(userID uuid.UUID) bool {
	return j.CustomerID == userID
}

func (j *Job) IsProfessional(userID uuid.UUID) bool {
	return j.ProfessionalID != nil && *j.ProfessionalID == userID
}

func (j *Job) IsParty(userID uuid.UUID) bool {
	return j.IsCustomer(userID) || j.IsProfessional(userID)
}

// EarnedAmount is what this job contributes to its professional's ledger.
// Online jobs count provider earnings once paid; cash jobs count the full
// final price only after the customer has verified the payment.
func (j *Job) EarnedAmount() decimal.Decimal {
	if j.Status != StatusCompleted {
		return decimal.Zero
	}

	switch j.PaymentMethod {
	case commission.PaymentMethodOnline:
		if j.PaymentStatus == PaymentPaid && j.Commission != nil {
			return j.Commission.ProviderEarnings
		}
	case commission.PaymentMethodCash:
		if j.PaymentStatus == PaymentCashVerified && j.FinalPrice.Valid {
			return j.FinalPrice.Decimal
		}
	}
	return decimal.Zero
}

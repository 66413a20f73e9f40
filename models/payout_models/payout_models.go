package payout_models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/servicehub/utils"
	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusFailed     PayoutStatus = "failed"
)

func (s PayoutStatus) Valid() bool {
	switch s {
	case PayoutStatusPending, PayoutStatusProcessing, PayoutStatusCompleted, PayoutStatusFailed:
		return true
	default:
		return false
	}
}

// Outstanding payouts block a new request.
func (s PayoutStatus) Outstanding() bool {
	return s == PayoutStatusPending || s == PayoutStatusProcessing
}

// DeductsBalance reports whether a payout in this status is subtracted from earnings.
func (s PayoutStatus) DeductsBalance() bool {
	return s.Outstanding() || s == PayoutStatusCompleted
}

var allowedTransitions = map[PayoutStatus][]PayoutStatus{
	PayoutStatusPending:    {PayoutStatusProcessing, PayoutStatusFailed},
	PayoutStatusProcessing: {PayoutStatusCompleted, PayoutStatusFailed},
}

func CanTransition(from, to PayoutStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// BankSnapshot is copied from the professional's profile when the payout is
// requested. Later profile edits never reach it.
type BankSnapshot struct {
	AccountHolderName string `json:"accountHolderName"`
	AccountNumber     string `json:"accountNumber"`
	IFSC              string `json:"ifsc"`
	BankName          string `json:"bankName"`
}

func (b BankSnapshot) MaskedAccountNumber() string {
	n := len(b.AccountNumber)
	if n <= 4 {
		return b.AccountNumber
	}
	return strings.Repeat("X", n-4) + b.AccountNumber[n-4:]
}

type Payout struct {
	ID             uuid.UUID       `json:"id"`
	ProfessionalID uuid.UUID       `json:"professionalId"`
	Amount         decimal.Decimal `json:"amount"`
	Status         PayoutStatus    `json:"status"`
	Notes          *string         `json:"notes,omitempty"`
	BankAccount    BankSnapshot    `json:"bankAccount"`
	Reference      *string         `json:"reference,omitempty"`
	FailureReason  *string         `json:"failureReason,omitempty"`
	ProcessedAt    *time.Time      `json:"processedAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func NewPayout(professionalID uuid.UUID, amount decimal.Decimal, notes string, bank BankSnapshot) (*Payout, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID for payout: %w", err)
	}
	now := time.Now().UTC()
	p := &Payout{
		ID:             id,
		ProfessionalID: professionalID,
		Amount:         amount,
		Status:         PayoutStatusPending,
		BankAccount:    bank,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		p.Notes = &notes
	}
	return p, nil
}

// Advance moves the payout along pending -> processing -> completed, with
// failed reachable from either non-terminal state.
func (p *Payout) Advance(to PayoutStatus, reference, failureReason string, now time.Time) error {
	if !to.Valid() {
		return utils.Validation("unknown payout status %q", to)
	}
	if !CanTransition(p.Status, to) {
		return utils.Conflict("payout cannot move from %s to %s", p.Status, to)
	}

	p.Status = to
	if reference != "" {
		p.Reference = &reference
	}
	if to == PayoutStatusFailed && failureReason != "" {
		p.FailureReason = &failureReason
	}
	if to == PayoutStatusCompleted || to == PayoutStatusFailed {
		p.ProcessedAt = &now
	}
	p.UpdatedAt = now
	return nil
}

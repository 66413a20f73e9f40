package earnings_models

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/joy095/servicehub/models/job_models"
	"github.com/joy095/servicehub/models/payout_models"
	"github.com/shopspring/decimal"
)

// Balance is always derived from jobs and payouts on read. Nothing here is stored.
type Balance struct {
	TotalEarnings    decimal.Decimal `json:"totalEarnings"`
	TotalPaidOut     decimal.Decimal `json:"totalPaidOut"`
	PendingAmount    decimal.Decimal `json:"pendingAmount"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
}

// Compute aggregates a professional's ledger. Jobs that are not completed, and
// cash jobs the customer has not verified, contribute nothing.
func Compute(jobs []job_models.Job, payouts []payout_models.Payout) Balance {
	b := Balance{
		TotalEarnings: decimal.Zero,
		TotalPaidOut:  decimal.Zero,
		PendingAmount: decimal.Zero,
	}

	seen := make(map[uuid.UUID]struct{}, len(jobs))
	for i := range jobs {
		if _, dup := seen[jobs[i].ID]; dup {
			continue
		}
		seen[jobs[i].ID] = struct{}{}
		b.TotalEarnings = b.TotalEarnings.Add(jobs[i].EarnedAmount())
	}

	for _, p := range payouts {
		if p.Status.DeductsBalance() {
			b.TotalPaidOut = b.TotalPaidOut.Add(p.Amount)
		}
		if p.Status.Outstanding() {
			b.PendingAmount = b.PendingAmount.Add(p.Amount)
		}
	}

	b.AvailableBalance = b.TotalEarnings.Sub(b.TotalPaidOut)
	return b
}

type JobSource interface {
	ListCompletedByProfessional(ctx context.Context, professionalID uuid.UUID) ([]job_models.Job, error)
}

type PayoutSource interface {
	ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]payout_models.Payout, error)
}

type Ledger struct {
	Jobs    JobSource
	Payouts PayoutSource
}

func NewLedger(jobs JobSource, payouts PayoutSource) *Ledger {
	return &Ledger{Jobs: jobs, Payouts: payouts}
}

func (l *Ledger) ComputeBalance(ctx context.Context, professionalID uuid.UUID) (Balance, error) {
	jobs, err := l.Jobs.ListCompletedByProfessional(ctx, professionalID)
	if err != nil {
		return Balance{}, fmt.Errorf("failed to load earnings: %w", err)
	}
	payouts, err := l.Payouts.ListByProfessional(ctx, professionalID)
	if err != nil {
		return Balance{}, fmt.Errorf("failed to load payouts: %w", err)
	}
	return Compute(jobs, payouts), nil
}

// ComputeWithPayouts is used under the payout lock, where payouts must be read
// through the locked transaction.
func (l *Ledger) ComputeWithPayouts(ctx context.Context, professionalID uuid.UUID, payouts []payout_models.Payout) (Balance, error) {
	jobs, err := l.Jobs.ListCompletedByProfessional(ctx, professionalID)
	if err != nil {
		return Balance{}, fmt.Errorf("failed to load earnings: %w", err)
	}
	return Compute(jobs, payouts), nil
}

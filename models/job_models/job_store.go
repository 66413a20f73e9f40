package job_models

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joy095/servicehub/logger"
	"github.com/joy095/servicehub/utils"
	"github.com/joy095/servicehub/utils/commission"
)

// Store persists jobs. Update is a compare-and-swap on Version.
type Store interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id uuid.UUID) (*Job, error)
	GetByRazorpayOrderID(ctx context.Context, orderID string) (*Job, error)
	Update(ctx context.Context, job *Job) error
	ListCompletedByProfessional(ctx context.Context, professionalID uuid.UUID) ([]Job, error)
}

type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

const jobColumns = `
	id, customer_id, professional_id, title, description, status,
	budget_min, budget_max, final_price, payment_method, payment_status,
	commission, cash_payment_details, verification_code_hash,
	razorpay_order_id, razorpay_payment_id, cancellation_reason,
	completed_at, cancelled_at, version, created_at, updated_at`

func scanJob(row pgx.Row) (*Job, error) {
	var (
		job      Job
		method   *string
		codeHash *string
	)
	err := row.Scan(
		&job.ID, &job.CustomerID, &job.ProfessionalID, &job.Title, &job.Description, &job.Status,
		&job.Budget.Min, &job.Budget.Max, &job.FinalPrice, &method, &job.PaymentStatus,
		&job.Commission, &job.CashPaymentDetails, &codeHash,
		&job.RazorpayOrderID, &job.RazorpayPaymentID, &job.CancellationReason,
		&job.CompletedAt, &job.CancelledAt, &job.Version, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if method != nil {
		job.PaymentMethod = commission.PaymentMethod(*method)
	}
	if codeHash != nil {
		job.VerificationCodeHash = *codeHash
	}
	return &job, nil
}

func nullableMethod(m commission.PaymentMethod) *string {
	if m == "" {
		return nil
	}
	s := string(m)
	return &s
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *PgStore) Create(ctx context.Context, job *Job) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO jobs (
			id, customer_id, professional_id, title, description, status,
			budget_min, budget_max, payment_status, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		job.ID, job.CustomerID, job.ProfessionalID, job.Title, job.Description, job.Status,
		job.Budget.Min, job.Budget.Max, job.PaymentStatus, job.Version, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to insert job %s: %v", job.ID, err)
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (s *PgStore) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	job, err := scanJob(s.db.QueryRow(ctx, `SELECT`+jobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.NotFound("job not found")
		}
		return nil, fmt.Errorf("failed to fetch job %s: %w", id, err)
	}
	return job, nil
}

func (s *PgStore) GetByRazorpayOrderID(ctx context.Context, orderID string) (*Job, error) {
	job, err := scanJob(s.db.QueryRow(ctx, `SELECT`+jobColumns+` FROM jobs WHERE razorpay_order_id = $1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.NotFound("no job for order %s", orderID)
		}
		return nil, fmt.Errorf("failed to fetch job for order %s: %w", orderID, err)
	}
	return job, nil
}

// Update writes every mutable column if the stored version still matches
// job.Version, then bumps the version on success.
func (s *PgStore) Update(ctx context.Context, job *Job) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE jobs SET
			professional_id = $1, status = $2, final_price = $3, payment_method = $4,
			payment_status = $5, commission = $6, cash_payment_details = $7,
			verification_code_hash = $8, razorpay_order_id = $9, razorpay_payment_id = $10,
			cancellation_reason = $11, completed_at = $12, cancelled_at = $13,
			updated_at = $14, version = version + 1
		WHERE id = $15 AND version = $16`,
		job.ProfessionalID, job.Status, job.FinalPrice, nullableMethod(job.PaymentMethod),
		job.PaymentStatus, job.Commission, job.CashPaymentDetails,
		nullableString(job.VerificationCodeHash), job.RazorpayOrderID, job.RazorpayPaymentID,
		job.CancellationReason, job.CompletedAt, job.CancelledAt,
		job.UpdatedAt, job.ID, job.Version,
	)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to update job %s: %v", job.ID, err)
		return fmt.Errorf("failed to update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return utils.Conflict("job was modified by another request, please retry")
	}

	job.Version++
	return nil
}

func (s *PgStore) ListCompletedByProfessional(ctx context.Context, professionalID uuid.UUID) ([]Job, error) {
	rows, err := s.db.Query(ctx,
		`SELECT`+jobColumns+` FROM jobs WHERE professional_id = $1 AND status = $2 ORDER BY completed_at`,
		professionalID, StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading completed jobs: %w", err)
	}
	return jobs, nil
}

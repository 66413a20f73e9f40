package payout_models

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joy095/servicehub/logger"
	"github.com/joy095/servicehub/utils"
)

// LockedTx is the view of payouts available while a professional's lock is held.
type LockedTx interface {
	ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]Payout, error)
	Insert(ctx context.Context, p *Payout) error
}

type Store interface {
	// WithProfessionalLock runs fn in a transaction that is serialised against
	// every other locked transaction for the same professional. Returning an
	// error from fn rolls back.
	WithProfessionalLock(ctx context.Context, professionalID uuid.UUID, fn func(ctx context.Context, tx LockedTx) error) error
	ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]Payout, error)
	Get(ctx context.Context, id uuid.UUID) (*Payout, error)
	// UpdateStatus persists p only if the stored status is still from.
	UpdateStatus(ctx context.Context, p *Payout, from PayoutStatus) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

const payoutColumns = `
	id, professional_id, amount, status, notes,
	account_holder_name, account_number, ifsc, bank_name,
	reference, failure_reason, processed_at, created_at, updated_at`

func scanPayout(row pgx.Row) (*Payout, error) {
	var p Payout
	err := row.Scan(
		&p.ID, &p.ProfessionalID, &p.Amount, &p.Status, &p.Notes,
		&p.BankAccount.AccountHolderName, &p.BankAccount.AccountNumber, &p.BankAccount.IFSC, &p.BankAccount.BankName,
		&p.Reference, &p.FailureReason, &p.ProcessedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func listByProfessional(ctx context.Context, q querier, professionalID uuid.UUID) ([]Payout, error) {
	rows, err := q.Query(ctx,
		`SELECT`+payoutColumns+` FROM payouts WHERE professional_id = $1 ORDER BY created_at DESC`,
		professionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payouts: %w", err)
	}
	defer rows.Close()

	var payouts []Payout
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout row: %w", err)
		}
		payouts = append(payouts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading payouts: %w", err)
	}
	return payouts, nil
}

func insert(ctx context.Context, q querier, p *Payout) error {
	_, err := q.Exec(ctx, `
		INSERT INTO payouts (
			id, professional_id, amount, status, notes,
			account_holder_name, account_number, ifsc, bank_name, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.ProfessionalID, p.Amount, p.Status, p.Notes,
		p.BankAccount.AccountHolderName, p.BankAccount.AccountNumber, p.BankAccount.IFSC, p.BankAccount.BankName,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// idx_payouts_one_outstanding backs up the application check
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return utils.ErrPayoutAlreadyPending
		}
		logger.ErrorLogger.Errorf("Failed to insert payout for professional %s: %v", p.ProfessionalID, err)
		return fmt.Errorf("failed to create payout: %w", err)
	}
	return nil
}

type pgLockedTx struct {
	tx pgx.Tx
}

func (t *pgLockedTx) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]Payout, error) {
	return listByProfessional(ctx, t.tx, professionalID)
}

func (t *pgLockedTx) Insert(ctx context.Context, p *Payout) error {
	return insert(ctx, t.tx, p)
}

func (s *PgStore) WithProfessionalLock(ctx context.Context, professionalID uuid.UUID, fn func(ctx context.Context, tx LockedTx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		logger.ErrorLogger.Errorf("[TX_BEGIN_FAIL] payout lock for %s: %v", professionalID, err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, professionalID.String()); err != nil {
		return fmt.Errorf("failed to acquire payout lock: %w", err)
	}

	if err := fn(ctx, &pgLockedTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		logger.ErrorLogger.Errorf("[TX_COMMIT_FAIL] payout lock for %s: %v", professionalID, err)
		return fmt.Errorf("failed to commit payout: %w", err)
	}
	return nil
}

func (s *PgStore) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]Payout, error) {
	return listByProfessional(ctx, s.db, professionalID)
}

func (s *PgStore) Get(ctx context.Context, id uuid.UUID) (*Payout, error) {
	p, err := scanPayout(s.db.QueryRow(ctx, `SELECT`+payoutColumns+` FROM payouts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.NotFound("payout not found")
		}
		return nil, fmt.Errorf("failed to fetch payout %s: %w", id, err)
	}
	return p, nil
}

func (s *PgStore) UpdateStatus(ctx context.Context, p *Payout, from PayoutStatus) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE payouts
		SET status = $1, reference = $2, failure_reason = $3, processed_at = $4, updated_at = $5
		WHERE id = $6 AND status = $7`,
		p.Status, p.Reference, p.FailureReason, p.ProcessedAt, p.UpdatedAt, p.ID, from,
	)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to update payout %s: %v", p.ID, err)
		return fmt.Errorf("failed to update payout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return utils.Conflict("payout was modified by another request, please retry")
	}
	return nil
}

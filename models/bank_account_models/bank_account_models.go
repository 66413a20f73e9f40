package bank_account_models

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joy095/servicehub/logger"
	"github.com/joy095/servicehub/models/payout_models"
	"github.com/joy095/servicehub/utils"
)

var (
	ifscPattern          = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	accountNumberPattern = regexp.MustCompile(`^[0-9]{9,18}$`)
)

// BankAccount is a professional's payout destination. One per user.
type BankAccount struct {
	BankID            uuid.UUID `json:"bankId"`
	UserID            uuid.UUID `json:"userId"`
	AccountHolderName string    `json:"accountHolderName"`
	AccountNumber     string    `json:"accountNumber"`
	IFSC              string    `json:"ifsc"`
	BankName          string    `json:"bankName"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Normalize trims fields and upper-cases the IFSC.
func (b *BankAccount) Normalize() {
	b.AccountHolderName = strings.TrimSpace(b.AccountHolderName)
	b.AccountNumber = strings.ReplaceAll(strings.TrimSpace(b.AccountNumber), " ", "")
	b.IFSC = strings.ToUpper(strings.TrimSpace(b.IFSC))
	b.BankName = strings.TrimSpace(b.BankName)
}

func (b *BankAccount) Validate() error {
	if b.AccountHolderName == "" {
		return utils.Validation("account holder name is required")
	}
	if !accountNumberPattern.MatchString(b.AccountNumber) {
		return utils.Validation("account number must be 9 to 18 digits")
	}
	if !ifscPattern.MatchString(b.IFSC) {
		return utils.Validation("invalid IFSC code")
	}
	if b.BankName == "" {
		return utils.Validation("bank name is required")
	}
	return nil
}

// HasPayoutDetails reports whether a payout can be sent to this account.
func (b *BankAccount) HasPayoutDetails() bool {
	return b != nil && b.AccountNumber != ""
}

// Snapshot copies the destination fields by value for a new payout.
func (b *BankAccount) Snapshot() payout_models.BankSnapshot {
	return payout_models.BankSnapshot{
		AccountHolderName: b.AccountHolderName,
		AccountNumber:     b.AccountNumber,
		IFSC:              b.IFSC,
		BankName:          b.BankName,
	}
}

func (b *BankAccount) Masked() BankAccount {
	out := *b
	out.AccountNumber = b.Snapshot().MaskedAccountNumber()
	return out
}

type Store interface {
	// GetByUser returns nil, nil when the user has no account on file.
	GetByUser(ctx context.Context, userID uuid.UUID) (*BankAccount, error)
	Upsert(ctx context.Context, acc *BankAccount) error
}

type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) GetByUser(ctx context.Context, userID uuid.UUID) (*BankAccount, error) {
	var acc BankAccount
	err := s.db.QueryRow(ctx, `
		SELECT bank_id, user_id, account_holder_name, account_number, ifsc, bank_name, created_at, updated_at
		FROM bank_accounts WHERE user_id = $1`, userID,
	).Scan(&acc.BankID, &acc.UserID, &acc.AccountHolderName, &acc.AccountNumber, &acc.IFSC, &acc.BankName, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		logger.ErrorLogger.Errorf("failed to fetch bank account for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to fetch bank account: %w", err)
	}
	return &acc, nil
}

// Upsert replaces the user's account details, keeping the original bank_id and created_at.
func (s *PgStore) Upsert(ctx context.Context, acc *BankAccount) error {
	if acc.BankID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate UUID for bank account: %w", err)
		}
		acc.BankID = id
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO bank_accounts (bank_id, user_id, account_holder_name, account_number, ifsc, bank_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			account_holder_name = EXCLUDED.account_holder_name,
			account_number = EXCLUDED.account_number,
			ifsc = EXCLUDED.ifsc,
			bank_name = EXCLUDED.bank_name,
			updated_at = NOW()
		RETURNING bank_id, created_at, updated_at`,
		acc.BankID, acc.UserID, acc.AccountHolderName, acc.AccountNumber, acc.IFSC, acc.BankName,
	).Scan(&acc.BankID, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		logger.ErrorLogger.Errorf("failed to upsert bank account for user %s: %v", acc.UserID, err)
		return fmt.Errorf("failed to save bank account: %w", err)
	}
	return nil
}

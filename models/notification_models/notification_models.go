package notification_models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joy095/servicehub/logger"
)

type Type string

const (
	TypeJobCompleted    Type = "job_completed"
	TypeCashReceived    Type = "cash_marked_received"
	TypeCashConfirmed   Type = "cash_payment_confirmed"
	TypeDisputeRaised   Type = "cash_dispute_raised"
	TypePaymentReceived Type = "payment_received"
	TypePaymentFailed   Type = "payment_failed"
	TypePayoutRequested Type = "payout_requested"
	TypePayoutStatus    Type = "payout_status_changed"
	TypeJobAccepted     Type = "job_accepted"
	TypeJobCancelled    Type = "job_cancelled"
)

type Notification struct {
	ID          uuid.UUID  `json:"id"`
	RecipientID uuid.UUID  `json:"recipientId"`
	Type        Type       `json:"type"`
	Message     string     `json:"message"`
	JobID       *uuid.UUID `json:"jobId,omitempty"`
	IsRead      bool       `json:"isRead"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func NewNotification(recipientID uuid.UUID, typ Type, message string, jobID *uuid.UUID) (*Notification, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID for notification: %w", err)
	}
	return &Notification{
		ID:          id,
		RecipientID: recipientID,
		Type:        typ,
		Message:     message,
		JobID:       jobID,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) Insert(ctx context.Context, n *Notification) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO notifications (id, recipient_id, type, message, job_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.RecipientID, n.Type, n.Message, n.JobID, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to insert notification for %s: %v", n.RecipientID, err)
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

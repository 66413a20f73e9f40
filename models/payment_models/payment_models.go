package payment_models

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joy095/servicehub/logger"
)

// Razorpay webhook events handled by the service.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"
)

// WebhookEvent is the subset of a Razorpay webhook body the service reads.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type PaymentEntity struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	ErrorReason string `json:"error_reason"`
}

func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("invalid webhook payload: missing event")
	}
	return &ev, nil
}

// WebhookLog keeps raw webhook bodies for audit and replay.
type WebhookLog interface {
	LogWebhookEvent(ctx context.Context, eventType string, raw []byte) error
}

type PgWebhookLog struct {
	db *pgxpool.Pool
}

func NewPgWebhookLog(db *pgxpool.Pool) *PgWebhookLog {
	return &PgWebhookLog{db: db}
}

func (l *PgWebhookLog) LogWebhookEvent(ctx context.Context, eventType string, raw []byte) error {
	_, err := l.db.Exec(ctx,
		`INSERT INTO webhook_events (event_type, raw_payload) VALUES ($1, $2)`,
		eventType, string(raw))
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to log webhook event %s: %v", eventType, err)
		return fmt.Errorf("failed to log webhook event: %w", err)
	}
	return nil
}

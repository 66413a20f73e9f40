package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/servicehub/logger"
	"github.com/joy095/servicehub/models/notification_models"
	"github.com/joy095/servicehub/utils/mail"
	"github.com/redis/go-redis/v9"
)

// Notifier delivers a notification to one sink.
type Notifier interface {
	Notify(ctx context.Context, n *notification_models.Notification) error
}

// Fanout delivers to every sink and joins their errors.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n *notification_models.Notification) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Send builds and delivers a notification. Failures are logged and never
// returned; the transition that triggered it has already been committed.
func Send(ctx context.Context, sink Notifier, recipient uuid.UUID, typ notification_models.Type, message string, jobID *uuid.UUID) {
	if sink == nil {
		return
	}

	n, err := notification_models.NewNotification(recipient, typ, message, jobID)
	if err != nil {
		logger.ErrorLogger.Errorf("[NOTIFY_FAIL] build %s for %s: %v", typ, recipient, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := sink.Notify(ctx, n); err != nil {
		logger.ErrorLogger.Errorf("[NOTIFY_FAIL] %s for %s: %v", typ, recipient, err)
	}
}

type notificationInserter interface {
	Insert(ctx context.Context, n *notification_models.Notification) error
}

// StoreNotifier persists in-app notifications.
type StoreNotifier struct {
	Store notificationInserter
}

func (s StoreNotifier) Notify(ctx context.Context, n *notification_models.Notification) error {
	return s.Store.Insert(ctx, n)
}

// RedisNotifier publishes to notifications:<recipient> for live clients.
type RedisNotifier struct {
	Client *redis.Client
}

func ChannelFor(recipient uuid.UUID) string {
	return "notifications:" + recipient.String()
}

func (r RedisNotifier) Notify(ctx context.Context, n *notification_models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := r.Client.Publish(ctx, ChannelFor(n.RecipientID), payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

type alertSender interface {
	SendAlert(toEmail string, data mail.AlertData) error
}

// EmailNotifier copies selected notification types to an operations mailbox.
type EmailNotifier struct {
	Sender alertSender
	To     string
	Types  map[notification_models.Type]bool
}

func (e EmailNotifier) Notify(_ context.Context, n *notification_models.Notification) error {
	if !e.Types[n.Type] {
		return nil
	}

	fields := map[string]string{
		"recipient": n.RecipientID.String(),
		"type":      string(n.Type),
	}
	if n.JobID != nil {
		fields["job"] = n.JobID.String()
	}
	return e.Sender.SendAlert(e.To, mail.AlertData{
		Subject: "[ServiceHub] " + string(n.Type),
		Message: n.Message,
		Fields:  fields,
	})
}

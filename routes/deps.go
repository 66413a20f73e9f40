package routes

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joy095/servicehub/clients"
	"github.com/joy095/servicehub/config"
	"github.com/joy095/servicehub/logger"
	"github.com/joy095/servicehub/models/bank_account_models"
	"github.com/joy095/servicehub/models/job_models"
	"github.com/joy095/servicehub/models/notification_models"
	"github.com/joy095/servicehub/models/payment_models"
	"github.com/joy095/servicehub/models/payout_models"
	"github.com/joy095/servicehub/utils/mail"
	"github.com/joy095/servicehub/utils/notify"
	"github.com/joy095/servicehub/utils/shared_utils"
	"github.com/redis/go-redis/v9"
)

// Deps holds what the route groups share. Stores are interfaces so the same
// routes can be served from memory in tests.
type Deps struct {
	Config   *config.Config
	Jobs     job_models.Store
	Payouts  payout_models.Store
	Banks    bank_account_models.Store
	Webhooks payment_models.WebhookLog
	Gateway  clients.PaymentGateway
	Notifier notify.Notifier
	Events   clients.EventPublisher
	Attempts shared_utils.AttemptStore
}

// opsAlertTypes are copied to the operations mailbox when SMTP is configured.
var opsAlertTypes = map[notification_models.Type]bool{
	notification_models.TypeDisputeRaised:   true,
	notification_models.TypePayoutRequested: true,
	notification_models.TypePaymentFailed:   true,
}

// NewDeps wires the Postgres stores and the optional collaborators. A nil
// redis client or empty broker list simply leaves that sink out.
func NewDeps(cfg *config.Config, pool *pgxpool.Pool, rdb *redis.Client) *Deps {
	sinks := notify.Fanout{notify.StoreNotifier{Store: notification_models.NewPgStore(pool)}}
	if rdb != nil {
		sinks = append(sinks, notify.RedisNotifier{Client: rdb})
	}

	sender := mail.NewSender(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.FromEmail,
	})
	if sender.Enabled() && cfg.OpsEmail != "" {
		sinks = append(sinks, notify.EmailNotifier{Sender: sender, To: cfg.OpsEmail, Types: opsAlertTypes})
		logger.InfoLogger.Infof("Ops alerts enabled for %s", cfg.OpsEmail)
	}

	var attempts shared_utils.AttemptStore
	if store, err := shared_utils.NewAttemptStore(rdb); err != nil {
		logger.WarnLogger.Warnf("Verification attempt counter is per-instance: %v", err)
		attempts = shared_utils.NewMemoryAttemptStore()
	} else {
		attempts = store
	}

	var events clients.EventPublisher = clients.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		events = clients.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.InfoLogger.Infof("Publishing payment events to kafka topic %s", cfg.KafkaTopic)
	} else {
		logger.WarnLogger.Warn("KAFKA_BROKERS not set, domain events are disabled")
	}

	return &Deps{
		Config:   cfg,
		Jobs:     job_models.NewPgStore(pool),
		Payouts:  payout_models.NewPgStore(pool),
		Banks:    bank_account_models.NewPgStore(pool),
		Webhooks: payment_models.NewPgWebhookLog(pool),
		Gateway:  clients.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret),
		Notifier: sinks,
		Events:   events,
		Attempts: attempts,
	}
}

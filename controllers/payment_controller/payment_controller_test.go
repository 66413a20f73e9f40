package payment_controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/servicehub/clients"
	"github.com/joy095/servicehub/models/job_models"
	"github.com/joy095/servicehub/models/notification_models"
	"github.com/joy095/servicehub/utils"
	"github.com/joy095/servicehub/utils/commission"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	orders     int
	createErr  error
	validSig   string
	validHook  string
	lastAmount decimal.Decimal
}

func (g *fakeGateway) CreateOrder(amount decimal.Decimal, _, _ string, _ map[string]interface{}) (string, error) {
	if g.createErr != nil {
		return "", g.createErr
	}
	g.orders++
	g.lastAmount = amount
	return "order_test_1", nil
}

func (g *fakeGateway) VerifyPaymentSignature(_, _, signature string) bool {
	return signature == g.validSig
}

func (g *fakeGateway) VerifyWebhookSignature(_, signature string) bool {
	return signature == g.validHook
}

type memWebhookLog struct {
	mu     sync.Mutex
	events []string
}

func (l *memWebhookLog) LogWebhookEvent(_ context.Context, eventType string, _ []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, eventType)
	return nil
}

type recordingNotifier struct {
	sent []*notification_models.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n *notification_models.Notification) error {
	r.sent = append(r.sent, n)
	return nil
}

type harness struct {
	router   *gin.Engine
	jobs     *job_models.MemoryStore
	gateway  *fakeGateway
	webhooks *memWebhookLog
	notifier *recordingNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{
		jobs:     job_models.NewMemoryStore(),
		gateway:  &fakeGateway{validSig: "good-sig", validHook: "good-hook"},
		webhooks: &memWebhookLog{},
		notifier: &recordingNotifier{},
	}
	pc := NewPaymentController(h.jobs, h.gateway, h.webhooks, h.notifier, clients.NoopPublisher{}, "INR", "rzp_test_key")

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set(utils.ContextUserIDKey, id)
		}
		c.Next()
	})
	r.POST("/jobs/:id/payment/order", pc.CreateOrder)
	r.POST("/jobs/:id/payment/verify", pc.VerifyPayment)
	r.POST("/webhook/razorpay", pc.RazorpayWebhook)
	h.router = r
	return h
}

// completedOnlineJob stores a job completed online for 1000.
func (h *harness) completedOnlineJob(t *testing.T) *job_models.Job {
	t.Helper()
	job, err := job_models.NewJob(uuid.New(), "AC service", "", job_models.Budget{})
	require.NoError(t, err)
	pro := uuid.New()
	require.NoError(t, job.Accept(pro, time.Now()))
	require.NoError(t, job.Complete(pro, job_models.Completion{
		FinalPrice:    decimal.NewFromInt(1000),
		PaymentMethod: commission.PaymentMethodOnline,
	}, commission.NewCalculator(decimal.RequireFromString("0.10")), time.Now()))
	require.NoError(t, h.jobs.Create(context.Background(), job))
	return job
}

func (h *harness) post(path string, user uuid.UUID, headers map[string]string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set("X-Test-User", user.String())
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func webhookBody(event, orderID, paymentID string) map[string]any {
	return map[string]any{
		"event": event,
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{"id": paymentID, "order_id": orderID, "status": "captured", "amount": 100000},
			},
		},
	}
}

func TestCreateOrderIsIdempotent(t *testing.T) {
	h := newHarness(t)
	job := h.completedOnlineJob(t)
	p := "/jobs/" + job.ID.String() + "/payment/order"

	w := h.post(p, job.CustomerID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"orderId":"order_test_1"`)
	assert.Contains(t, w.Body.String(), `"amount":100000`)
	assert.True(t, h.gateway.lastAmount.Equal(decimal.NewFromInt(1000)))

	w = h.post(p, job.CustomerID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, h.gateway.orders)

	assert.Equal(t, http.StatusForbidden, h.post(p, *job.ProfessionalID, nil, nil).Code)
}

func TestCreateOrderGatewayFailure(t *testing.T) {
	h := newHarness(t)
	h.gateway.createErr = errors.New("timeout")
	job := h.completedOnlineJob(t)

	w := h.post("/jobs/"+job.ID.String()+"/payment/order", job.CustomerID, nil, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	stored, _ := h.jobs.Get(context.Background(), job.ID)
	assert.Nil(t, stored.RazorpayOrderID)
}

func TestVerifyPayment(t *testing.T) {
	h := newHarness(t)
	job := h.completedOnlineJob(t)
	require.Equal(t, http.StatusOK, h.post("/jobs/"+job.ID.String()+"/payment/order", job.CustomerID, nil, nil).Code)
	p := "/jobs/" + job.ID.String() + "/payment/verify"

	w := h.post(p, job.CustomerID, nil, map[string]string{
		"razorpayOrderId": "order_test_1", "razorpayPaymentId": "pay_1", "razorpaySignature": "forged",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), string(utils.KindInvalidSignature))

	stored, _ := h.jobs.Get(context.Background(), job.ID)
	assert.Equal(t, job_models.PaymentPending, stored.PaymentStatus)

	w = h.post(p, job.CustomerID, nil, map[string]string{
		"razorpayOrderId": "order_test_1", "razorpayPaymentId": "pay_1", "razorpaySignature": "good-sig",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, _ = h.jobs.Get(context.Background(), job.ID)
	assert.Equal(t, job_models.PaymentPaid, stored.PaymentStatus)
	assert.True(t, stored.EarnedAmount().Equal(decimal.NewFromInt(900)))
	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, *job.ProfessionalID, h.notifier.sent[0].RecipientID)

	w = h.post(p, job.CustomerID, nil, map[string]string{
		"razorpayOrderId": "order_test_1", "razorpayPaymentId": "pay_1", "razorpaySignature": "good-sig",
	})
	assert.Equal(t, http.StatusOK, w.Code, "replayed verification is accepted")
	assert.Len(t, h.notifier.sent, 1, "and does not notify twice")
}

func TestVerifyPaymentWrongOrder(t *testing.T) {
	h := newHarness(t)
	job := h.completedOnlineJob(t)
	require.Equal(t, http.StatusOK, h.post("/jobs/"+job.ID.String()+"/payment/order", job.CustomerID, nil, nil).Code)

	w := h.post("/jobs/"+job.ID.String()+"/payment/verify", job.CustomerID, nil, map[string]string{
		"razorpayOrderId": "order_other", "razorpayPaymentId": "pay_1", "razorpaySignature": "good-sig",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookCaptured(t *testing.T) {
	h := newHarness(t)
	job := h.completedOnlineJob(t)
	require.Equal(t, http.StatusOK, h.post("/jobs/"+job.ID.String()+"/payment/order", job.CustomerID, nil, nil).Code)

	w := h.post("/webhook/razorpay", uuid.Nil, map[string]string{signatureHeader: "good-hook"},
		webhookBody("payment.captured", "order_test_1", "pay_77"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, _ := h.jobs.Get(context.Background(), job.ID)
	assert.Equal(t, job_models.PaymentPaid, stored.PaymentStatus)
	assert.Equal(t, "pay_77", *stored.RazorpayPaymentID)
	assert.Equal(t, []string{"payment.captured"}, h.webhooks.events)

	w = h.post("/webhook/razorpay", uuid.Nil, map[string]string{signatureHeader: "good-hook"},
		webhookBody("payment.failed", "order_test_1", "pay_78"))
	require.Equal(t, http.StatusOK, w.Code)
	stored, _ = h.jobs.Get(context.Background(), job.ID)
	assert.Equal(t, job_models.PaymentPaid, stored.PaymentStatus, "late failure does not undo capture")
}

func TestWebhookFailed(t *testing.T) {
	h := newHarness(t)
	job := h.completedOnlineJob(t)
	require.Equal(t, http.StatusOK, h.post("/jobs/"+job.ID.String()+"/payment/order", job.CustomerID, nil, nil).Code)

	w := h.post("/webhook/razorpay", uuid.Nil, map[string]string{signatureHeader: "good-hook"},
		webhookBody("payment.failed", "order_test_1", "pay_1"))
	require.Equal(t, http.StatusOK, w.Code)

	stored, _ := h.jobs.Get(context.Background(), job.ID)
	assert.Equal(t, job_models.PaymentFailed, stored.PaymentStatus)
	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, job.CustomerID, h.notifier.sent[0].RecipientID)
}

func TestRetryAfterFailedAttempt(t *testing.T) {
	h := newHarness(t)
	job := h.completedOnlineJob(t)
	orderPath := "/jobs/" + job.ID.String() + "/payment/order"
	require.Equal(t, http.StatusOK, h.post(orderPath, job.CustomerID, nil, nil).Code)

	w := h.post("/webhook/razorpay", uuid.Nil, map[string]string{signatureHeader: "good-hook"},
		webhookBody("payment.failed", "order_test_1", "pay_1"))
	require.Equal(t, http.StatusOK, w.Code)

	w = h.post(orderPath, job.CustomerID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"orderId":"order_test_1"`)
	assert.Equal(t, 1, h.gateway.orders, "retry reuses the job's order")

	w = h.post("/webhook/razorpay", uuid.Nil, map[string]string{signatureHeader: "good-hook"},
		webhookBody("payment.captured", "order_test_1", "pay_2"))
	require.Equal(t, http.StatusOK, w.Code)

	stored, _ := h.jobs.Get(context.Background(), job.ID)
	assert.Equal(t, job_models.PaymentPaid, stored.PaymentStatus)
	assert.Equal(t, "pay_2", *stored.RazorpayPaymentID)
	assert.True(t, stored.EarnedAmount().Equal(decimal.NewFromInt(900)))

	w = h.post("/jobs/"+job.ID.String()+"/payment/verify", job.CustomerID, nil, map[string]string{
		"razorpayOrderId": "order_test_1", "razorpayPaymentId": "pay_2", "razorpaySignature": "good-sig",
	})
	assert.Equal(t, http.StatusOK, w.Code, "checkout callback after the webhook is a replay")
}

func TestVerifyAfterFailedAttempt(t *testing.T) {
	h := newHarness(t)
	job := h.completedOnlineJob(t)
	require.Equal(t, http.StatusOK, h.post("/jobs/"+job.ID.String()+"/payment/order", job.CustomerID, nil, nil).Code)
	require.Equal(t, http.StatusOK, h.post("/webhook/razorpay", uuid.Nil, map[string]string{signatureHeader: "good-hook"},
		webhookBody("payment.failed", "order_test_1", "pay_1")).Code)

	w := h.post("/jobs/"+job.ID.String()+"/payment/verify", job.CustomerID, nil, map[string]string{
		"razorpayOrderId": "order_test_1", "razorpayPaymentId": "pay_3", "razorpaySignature": "good-sig",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, _ := h.jobs.Get(context.Background(), job.ID)
	assert.Equal(t, job_models.PaymentPaid, stored.PaymentStatus)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h := newHarness(t)

	w := h.post("/webhook/razorpay", uuid.Nil, map[string]string{signatureHeader: "forged"},
		webhookBody("payment.captured", "order_test_1", "pay_1"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, h.webhooks.events, "unsigned events are not stored")
}

func TestWebhookUnknownOrderIsAcknowledged(t *testing.T) {
	h := newHarness(t)

	w := h.post("/webhook/razorpay", uuid.Nil, map[string]string{signatureHeader: "good-hook"},
		webhookBody("payment.captured", "order_missing", "pay_1"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.post("/webhook/razorpay", uuid.Nil, map[string]string{signatureHeader: "good-hook"},
		map[string]any{"event": "refund.processed"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, h.webhooks.events, 2)
}

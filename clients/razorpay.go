package clients

import (
	"fmt"

	"github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/shopspring/decimal"
)

// PaymentGateway is the subset of Razorpay used by the payment endpoints.
// Tests substitute a fake.
type PaymentGateway interface {
	CreateOrder(amount decimal.Decimal, currency, receipt string, notes map[string]interface{}) (string, error)
	// VerifyPaymentSignature checks the checkout signature over "orderId|paymentId".
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body, signature string) bool
}

type RazorpayClient struct {
	Client        *razorpay.Client
	keySecret     string
	webhookSecret string
}

func NewRazorpayClient(keyID, keySecret, webhookSecret string) *RazorpayClient {
	return &RazorpayClient{
		Client:        razorpay.NewClient(keyID, keySecret),
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
}

// ToSubunits converts rupees to paise.
func ToSubunits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CreateOrder creates an order for amount and returns its id.
func (r *RazorpayClient) CreateOrder(amount decimal.Decimal, currency, receipt string, notes map[string]interface{}) (string, error) {
	data := map[string]interface{}{
		"amount":   ToSubunits(amount),
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}

	order, err := r.Client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay order create: %w", err)
	}
	id, ok := order["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("razorpay order create: missing order id in response")
	}
	return id, nil
}

func (r *RazorpayClient) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	// checkout signatures use the key secret with the same HMAC-SHA256 scheme as webhooks
	return utils.VerifyWebhookSignature(orderID+"|"+paymentID, signature, r.keySecret)
}

func (r *RazorpayClient) VerifyWebhookSignature(body, signature string) bool {
	return utils.VerifyWebhookSignature(body, signature, r.webhookSecret)
}

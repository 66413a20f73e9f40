package commission

import (
	"github.com/joy095/servicehub/utils"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodOnline
}

// Breakdown is stamped onto a job once, at completion.
// Invariant: CompanyFee + ProviderEarnings == Total.
type Breakdown struct {
	Total            decimal.Decimal `json:"total"`
	CompanyFee       decimal.Decimal `json:"companyFee"`
	ProviderEarnings decimal.Decimal `json:"providerEarnings"`
	CommissionRate   decimal.Decimal `json:"commissionRate"`
	PaymentMethod    PaymentMethod   `json:"paymentMethod"`
}

// Calculator splits a final price between the platform and the professional.
// Cash jobs carry no commission; online jobs pay OnlineRate.
type Calculator struct {
	OnlineRate decimal.Decimal
}

func NewCalculator(onlineRate decimal.Decimal) *Calculator {
	return &Calculator{OnlineRate: onlineRate}
}

func (c *Calculator) RateFor(method PaymentMethod) decimal.Decimal {
	if method == PaymentMethodCash {
		return decimal.Zero
	}
	return c.OnlineRate
}

// Calculate rounds the fee half-up to paise and derives earnings by subtraction,
// so the two parts always sum back to the price exactly.
func (c *Calculator) Calculate(finalPrice decimal.Decimal, method PaymentMethod) (Breakdown, error) {
	if !method.Valid() {
		return Breakdown{}, utils.Validation("unsupported payment method %q", method)
	}
	if finalPrice.IsNegative() {
		return Breakdown{}, utils.Validation("final price cannot be negative")
	}

	total := finalPrice.Round(2)
	rate := c.RateFor(method)
	fee := total.Mul(rate).Round(2)

	return Breakdown{
		Total:            total,
		CompanyFee:       fee,
		ProviderEarnings: total.Sub(fee),
		CommissionRate:   rate,
		PaymentMethod:    method,
	}, nil
}

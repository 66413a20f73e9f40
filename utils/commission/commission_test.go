package commission

import (
	"testing"

	"github.com/joy095/servicehub/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculateOnline(t *testing.T) {
	calc := NewCalculator(dec("0.10"))

	b, err := calc.Calculate(dec("1000"), PaymentMethodOnline)
	require.NoError(t, err)

	assert.True(t, b.Total.Equal(dec("1000")))
	assert.True(t, b.CompanyFee.Equal(dec("100")))
	assert.True(t, b.ProviderEarnings.Equal(dec("900")))
	assert.True(t, b.CommissionRate.Equal(dec("0.10")))
	assert.Equal(t, PaymentMethodOnline, b.PaymentMethod)
}

func TestCalculateCashHasNoCommission(t *testing.T) {
	calc := NewCalculator(dec("0.10"))

	b, err := calc.Calculate(dec("500"), PaymentMethodCash)
	require.NoError(t, err)

	assert.True(t, b.CompanyFee.IsZero())
	assert.True(t, b.ProviderEarnings.Equal(dec("500")))
	assert.True(t, b.CommissionRate.IsZero())
}

func TestCalculateRoundsHalfUp(t *testing.T) {
	calc := NewCalculator(dec("0.10"))

	// 10% of 0.05 is 0.005, which rounds up to 0.01
	b, err := calc.Calculate(dec("0.05"), PaymentMethodOnline)
	require.NoError(t, err)
	assert.True(t, b.CompanyFee.Equal(dec("0.01")), b.CompanyFee.String())
	assert.True(t, b.ProviderEarnings.Equal(dec("0.04")))
}

func TestCalculateSplitAlwaysSumsToTotal(t *testing.T) {
	rates := []string{"0.10", "0.125", "0.0333", "0.175"}
	prices := []string{"0", "0.01", "0.99", "1.05", "333.33", "999.99", "1234.56", "100000"}

	for _, r := range rates {
		calc := NewCalculator(dec(r))
		for _, p := range prices {
			for _, m := range []PaymentMethod{PaymentMethodCash, PaymentMethodOnline} {
				b, err := calc.Calculate(dec(p), m)
				require.NoError(t, err)
				assert.True(t, b.CompanyFee.Add(b.ProviderEarnings).Equal(b.Total), "rate=%s price=%s method=%s", r, p, m)
				assert.True(t, b.Total.Equal(dec(p)))
				assert.True(t, b.CompanyFee.Equal(b.CompanyFee.Round(2)), "fee must be whole paise")
			}
		}
	}
}

func TestCalculateRejectsBadInput(t *testing.T) {
	calc := NewCalculator(dec("0.10"))

	_, err := calc.Calculate(dec("-1"), PaymentMethodOnline)
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	_, err = calc.Calculate(dec("10"), PaymentMethod("cheque"))
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
}

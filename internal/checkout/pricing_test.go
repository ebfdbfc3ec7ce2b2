package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopkartlabs/shopkart-backend/pkg/config"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
)

func defaultPricingConfig() config.PricingConfig {
	return config.PricingConfig{
		TaxRate:                "0.18",
		FreeShippingAbovePaise: 50000,
		ShippingFlatFeePaise:   5000,
	}
}

func TestComputeTotals(t *testing.T) {
	pricer, err := NewPricer(defaultPricingConfig())
	require.NoError(t, err)

	tests := []struct {
		name     string
		subtotal int64
		discount int64
		want     Totals
	}{
		{
			// two units at 50000 paise each clear the free-shipping bar
			name:     "two items above free shipping threshold",
			subtotal: 100000,
			discount: 0,
			want: Totals{
				SubtotalPaise: 100000,
				TaxPaise:      18000,
				ShippingPaise: 0,
				TotalPaise:    118000,
			},
		},
		{
			name:     "below threshold pays flat shipping",
			subtotal: 40000,
			discount: 0,
			want: Totals{
				SubtotalPaise: 40000,
				TaxPaise:      7200,
				ShippingPaise: 5000,
				TotalPaise:    52200,
			},
		},
		{
			name:     "exactly at threshold still pays shipping",
			subtotal: 50000,
			discount: 0,
			want: Totals{
				SubtotalPaise: 50000,
				TaxPaise:      9000,
				ShippingPaise: 5000,
				TotalPaise:    64000,
			},
		},
		{
			name:     "discount reduces taxable base",
			subtotal: 100000,
			discount: 10000,
			want: Totals{
				SubtotalPaise: 100000,
				DiscountPaise: 10000,
				TaxPaise:      16200,
				ShippingPaise: 0,
				TotalPaise:    106200,
			},
		},
		{
			// 0.18 * 55 = 9.9 rounds to 10
			name:     "tax rounds half up",
			subtotal: 60055,
			discount: 0,
			want: Totals{
				SubtotalPaise: 60055,
				TaxPaise:      10810,
				ShippingPaise: 0,
				TotalPaise:    70865,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := pricer.Compute(tc.subtotal, tc.discount)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got.TotalPaise,
				got.SubtotalPaise-got.DiscountPaise+got.TaxPaise+got.ShippingPaise)
		})
	}
}

func TestComputeTotalsRejectsBadInput(t *testing.T) {
	pricer, err := NewPricer(defaultPricingConfig())
	require.NoError(t, err)

	cases := []struct {
		name     string
		subtotal int64
		discount int64
	}{
		{"negative subtotal", -1, 0},
		{"negative discount", 1000, -1},
		{"discount exceeds subtotal", 1000, 1001},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := pricer.Compute(tc.subtotal, tc.discount)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestNewPricerRejectsBadRate(t *testing.T) {
	_, err := NewPricer(config.PricingConfig{TaxRate: "garbage"})
	assert.Error(t, err)

	_, err = NewPricer(config.PricingConfig{TaxRate: "-0.1"})
	assert.Error(t, err)
}

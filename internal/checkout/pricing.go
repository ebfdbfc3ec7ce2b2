package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shopkartlabs/shopkart-backend/pkg/config"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
)

// Totals is the order pricing breakdown in paise.
// TotalPaise = SubtotalPaise - DiscountPaise + TaxPaise + ShippingPaise.
type Totals struct {
	SubtotalPaise int64
	DiscountPaise int64
	TaxPaise      int64
	ShippingPaise int64
	TotalPaise    int64
}

// Pricer computes order totals from the configured tax rate and shipping
// thresholds. The tax rate is parsed once at construction.
type Pricer struct {
	taxRate           decimal.Decimal
	freeShippingAbove int64
	shippingFlatFee   int64
}

func NewPricer(cfg config.PricingConfig) (*Pricer, error) {
	rate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return nil, fmt.Errorf("invalid tax rate %q: %w", cfg.TaxRate, err)
	}
	if rate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative")
	}
	return &Pricer{
		taxRate:           rate,
		freeShippingAbove: cfg.FreeShippingAbovePaise,
		shippingFlatFee:   cfg.ShippingFlatFeePaise,
	}, nil
}

// Compute prices an order. Tax is the configured rate applied to the
// discounted subtotal, rounded half-up to the nearest paisa. Shipping is
// waived when the subtotal exceeds the free-shipping threshold.
func (p *Pricer) Compute(subtotalPaise, discountPaise int64) (Totals, error) {
	if subtotalPaise < 0 {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must not be negative")
	}
	if discountPaise < 0 {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}
	if discountPaise > subtotalPaise {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds subtotal")
	}

	discounted := decimal.NewFromInt(subtotalPaise - discountPaise)
	tax := discounted.Mul(p.taxRate).Round(0).IntPart()

	var shipping int64
	if subtotalPaise <= p.freeShippingAbove {
		shipping = p.shippingFlatFee
	}

	return Totals{
		SubtotalPaise: subtotalPaise,
		DiscountPaise: discountPaise,
		TaxPaise:      tax,
		ShippingPaise: shipping,
		TotalPaise:    subtotalPaise - discountPaise + tax + shipping,
	}, nil
}

// Package fees computes the platform fee split for a booking price.
// The calculator is pure: no I/O, no randomness. A booking's frozen
// breakdown is never recomputed here; FromBooking reconstructs it from
// stored columns only.
package fees

import (
	"github.com/shopspring/decimal"

	domainerr "zeen/internal/errors"
	"zeen/internal/models"
)

// DefaultPolicy returns the built-in tier rates, used when no settings
// override them.
func DefaultPolicy() Policy {
	return Policy{
		Tiers: map[models.Tier]TierPolicy{
			models.TierStarter:    {ZeenFeeRate: 3.00, RequiresDeposit: true, MinDepositPercent: 20.00},
			models.TierPremium:    {ZeenFeeRate: 2.00, RequiresDeposit: true, MinDepositPercent: 10.00},
			models.TierEnterprise: {ZeenFeeRate: 1.50, RequiresDeposit: false},
		},
		GatewayFeeRate: 4.00,
	}
}

// Calculator produces fee breakdowns under one policy.
type Calculator struct {
	policy Policy
}

// NewCalculator returns a calculator for the given policy.
func NewCalculator(policy Policy) *Calculator {
	if policy.Tiers == nil {
		policy = DefaultPolicy()
	}
	return &Calculator{policy: policy}
}

// round applies round-half-up to 2 decimal places.
func round(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func percentOf(base decimal.Decimal, rate float64) decimal.Decimal {
	return base.Mul(decimal.NewFromFloat(rate)).Div(decimal.NewFromInt(100))
}

// Calculate computes a fresh breakdown for an unbooked price. Never call
// this for an existing booking; use FromBooking instead.
func (c *Calculator) Calculate(tier models.Tier, price float64, settings models.BookingSettings) (*Breakdown, error) {
	if price < 0 {
		return nil, domainerr.ErrInvalidAmount.WithDetail("price %.2f", price)
	}
	tierPolicy, ok := c.policy.Tiers[tier]
	if !ok {
		return nil, domainerr.ErrUnknownTier.WithDetail("%q", tier)
	}

	feePayer := models.FeePayerClient
	if settings.FeePayer != nil {
		feePayer = *settings.FeePayer
	}
	if !feePayer.Valid() {
		return nil, domainerr.ErrInvalidAmount.WithDetail("unknown fee payer %q", feePayer)
	}

	p := decimal.NewFromFloat(price)
	zeenFee := decimal.NewFromFloat(round(percentOf(p, tierPolicy.ZeenFeeRate)))

	// The gateway applies its rate to the full amount it processes. When
	// the client pays the fees, that amount includes the zeen fee.
	processingBase := p
	if feePayer == models.FeePayerClient {
		processingBase = p.Add(zeenFee)
	}
	gatewayFee := decimal.NewFromFloat(round(percentOf(processingBase, c.policy.GatewayFeeRate)))

	b := &Breakdown{
		ServicePrice:  round(p),
		ZeenFee:       round(zeenFee),
		GatewayFee:    round(gatewayFee),
		DepositAmount: c.depositAmount(tierPolicy, p, settings),
		FeePayer:      feePayer,
	}

	switch feePayer {
	case models.FeePayerClient:
		// The convenience fee is the gateway fee plus the zeen fee under
		// the client-facing label; the provider is insulated entirely.
		convenience := zeenFee.Add(gatewayFee)
		b.ConvenienceFee = round(convenience)
		b.ClientPays = round(p.Add(convenience))
		b.ProviderReceives = round(p)
	case models.FeePayerProvider:
		b.ClientPays = round(p)
		b.ProviderReceives = round(p.Sub(zeenFee).Sub(gatewayFee))
	}
	b.AmountToGateway = b.ClientPays

	return b, nil
}

func (c *Calculator) depositAmount(tierPolicy TierPolicy, price decimal.Decimal, settings models.BookingSettings) float64 {
	if !tierPolicy.RequiresDeposit {
		return 0
	}

	depositType := models.DepositPercentage
	if settings.DepositType != nil {
		depositType = *settings.DepositType
	}
	var value float64
	if settings.DepositValue != nil {
		value = *settings.DepositValue
	}

	minAmount := percentOf(price, tierPolicy.MinDepositPercent)

	switch depositType {
	case models.DepositFixed:
		fixed := decimal.NewFromFloat(value)
		if fixed.LessThan(minAmount) {
			return round(minAmount)
		}
		return round(fixed)
	default:
		// Percentage (and "none", which lower tiers may not opt out of):
		// clamp the requested percent to the tier minimum.
		percent := value
		if percent < tierPolicy.MinDepositPercent {
			percent = tierPolicy.MinDepositPercent
		}
		return round(percentOf(price, percent))
	}
}

// FromBooking reconstructs the breakdown from a booking's frozen columns.
// It must never consult current tier rates; the stored amounts are the
// ground truth even if the provider's tier has changed since booking.
func FromBooking(b *models.Booking) *Breakdown {
	out := &Breakdown{
		ServicePrice:   b.ServicePrice,
		ZeenFee:        b.ZeenFee,
		GatewayFee:     b.GatewayFee,
		ConvenienceFee: b.ConvenienceFee,
		DepositAmount:  b.DepositAmount,
		FeePayer:       b.FeePayer,
	}
	price := decimal.NewFromFloat(b.ServicePrice)
	switch b.FeePayer {
	case models.FeePayerClient:
		out.ClientPays = round(price.Add(decimal.NewFromFloat(b.ConvenienceFee)))
		out.ProviderReceives = b.ServicePrice
	default:
		out.ClientPays = b.ServicePrice
		out.ProviderReceives = round(price.
			Sub(decimal.NewFromFloat(b.ZeenFee)).
			Sub(decimal.NewFromFloat(b.GatewayFee)))
	}
	out.AmountToGateway = out.ClientPays
	return out
}

// EffectiveGatewayRate back-derives the gateway percentage for display.
// Money movement must never depend on this value; the stored absolute
// amounts are authoritative.
func (b *Breakdown) EffectiveGatewayRate() float64 {
	base := b.ServicePrice
	if b.FeePayer == models.FeePayerClient {
		base = b.ServicePrice + b.ZeenFee
	}
	if base <= 0 {
		return 0
	}
	rate := decimal.NewFromFloat(b.GatewayFee).
		Div(decimal.NewFromFloat(base)).
		Mul(decimal.NewFromInt(100))
	return round(rate)
}

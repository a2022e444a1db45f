package fees

import (
	"zeen/internal/models"
)

// TierPolicy is the fee policy attached to one subscription tier.
// Rates are percentages with 2-decimal precision (3.00 means 3%).
type TierPolicy struct {
	ZeenFeeRate       float64
	RequiresDeposit   bool
	MinDepositPercent float64
}

// Policy carries every rate the calculator needs. It is resolved fresh
// for each calculation so a tier change is picked up immediately;
// nothing in the calculator caches it.
type Policy struct {
	Tiers          map[models.Tier]TierPolicy
	GatewayFeeRate float64
}

// Breakdown is the complete fee split for one price. All money fields
// are rounded half-up to 2 decimal places.
type Breakdown struct {
	ServicePrice   float64         `json:"service_price"`
	ZeenFee        float64         `json:"zeen_fee"`
	GatewayFee     float64         `json:"gateway_fee"`
	ConvenienceFee float64         `json:"convenience_fee"`
	DepositAmount  float64         `json:"deposit_amount"`
	FeePayer       models.FeePayer `json:"fee_payer"`

	ClientPays       float64 `json:"client_pays"`
	ProviderReceives float64 `json:"provider_receives"`
	AmountToGateway  float64 `json:"amount_to_gateway"`
}

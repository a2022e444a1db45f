package models

import (
	"time"
)

// Tier is a provider's subscription level. It determines the platform
// commission rate, deposit policy and team-slot entitlements.
type Tier string

const (
	TierStarter    Tier = "starter"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// Valid reports whether t is a known subscription tier.
func (t Tier) Valid() bool {
	switch t {
	case TierStarter, TierPremium, TierEnterprise:
		return true
	}
	return false
}

// Provider is a seller on the marketplace. The tier column is the source
// of truth for fee calculations and is re-read for every fresh calculation.
type Provider struct {
	ID           uint   `gorm:"primarykey"`
	BusinessName string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	Tier         Tier   `gorm:"not null;default:'starter'"`
	Rating       float64
	TeamSlots    int `gorm:"default:1"`

	// Disbursement details. PayoutGateway selects the adapter used by the
	// payout worker; the recipient fields are gateway-specific.
	PayoutGateway   string `gorm:"default:''"`
	PayoutRecipient string `gorm:"default:''"` // bank account / connected account / recipient code
	PayoutBankCode  string `gorm:"default:''"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPayoutDetails reports whether the provider can receive disbursements.
func (p *Provider) HasPayoutDetails() bool {
	return p.PayoutGateway != "" && p.PayoutRecipient != ""
}

package fees

import (
	"zeen/internal/models"
)

// SettingsSource is the subset of the settings cache the fee policy
// reads. Satisfied by *config.Settings.
type SettingsSource interface {
	GetFloat(key string, defaultVal float64) float64
}

// Settings keys for rate overrides.
const (
	SettingStarterRate       = "fees.starter_zeen_rate"
	SettingPremiumRate       = "fees.premium_zeen_rate"
	SettingEnterpriseRate    = "fees.enterprise_zeen_rate"
	SettingGatewayRate       = "fees.gateway_rate"
	SettingStarterMinDeposit = "fees.starter_min_deposit_percent"
	SettingPremiumMinDeposit = "fees.premium_min_deposit_percent"
)

// PolicyFromSettings resolves the current rates, falling back to the
// defaults for any unset key. Callers resolve a fresh policy per
// calculation; the result must not be cached across requests.
func PolicyFromSettings(s SettingsSource) Policy {
	def := DefaultPolicy()
	if s == nil {
		return def
	}
	return Policy{
		Tiers: map[models.Tier]TierPolicy{
			models.TierStarter: {
				ZeenFeeRate:       s.GetFloat(SettingStarterRate, def.Tiers[models.TierStarter].ZeenFeeRate),
				RequiresDeposit:   true,
				MinDepositPercent: s.GetFloat(SettingStarterMinDeposit, def.Tiers[models.TierStarter].MinDepositPercent),
			},
			models.TierPremium: {
				ZeenFeeRate:       s.GetFloat(SettingPremiumRate, def.Tiers[models.TierPremium].ZeenFeeRate),
				RequiresDeposit:   true,
				MinDepositPercent: s.GetFloat(SettingPremiumMinDeposit, def.Tiers[models.TierPremium].MinDepositPercent),
			},
			models.TierEnterprise: {
				ZeenFeeRate: s.GetFloat(SettingEnterpriseRate, def.Tiers[models.TierEnterprise].ZeenFeeRate),
			},
		},
		GatewayFeeRate: s.GetFloat(SettingGatewayRate, def.GatewayFeeRate),
	}
}

package models

import (
	"time"
)

// FeePayer controls who absorbs the platform and gateway fees for a booking.
type FeePayer string

const (
	FeePayerProvider FeePayer = "provider"
	FeePayerClient   FeePayer = "client"
)

// Valid reports whether f is a known fee payer.
func (f FeePayer) Valid() bool {
	return f == FeePayerProvider || f == FeePayerClient
}

// DepositType selects how a service's deposit requirement is expressed.
type DepositType string

const (
	DepositNone       DepositType = "none"
	DepositPercentage DepositType = "percentage"
	DepositFixed      DepositType = "fixed"
)

// BookingSettings are the per-service overrides of the provider defaults.
// Nil pointer fields mean "use the provider default"; override resolution
// always picks the most specific non-nil value.
type BookingSettings struct {
	DepositType        *DepositType `gorm:"type:varchar(16)" json:"deposit_type,omitempty"`
	DepositValue       *float64     `json:"deposit_value,omitempty"`
	FeePayer           *FeePayer    `gorm:"type:varchar(16)" json:"fee_payer,omitempty"`
	CancellationWindow *int         `json:"cancellation_window,omitempty"` // hours
}

// Service is a bookable offering that belongs to a provider.
type Service struct {
	ID         uint    `gorm:"primarykey"`
	ProviderID uint    `gorm:"index;not null"`
	Name       string  `gorm:"not null"`
	Price      float64 `gorm:"not null"`
	Currency   string  `gorm:"default:'USD'"`
	Duration   int     // minutes

	// UseProviderDefaults short-circuits the per-field override resolution.
	UseProviderDefaults bool            `gorm:"default:true"`
	Settings            BookingSettings `gorm:"embedded;embeddedPrefix:setting_"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Provider Provider `gorm:"foreignKey:ProviderID"`
}

// ResolvedSettings merges the service overrides over the given provider
// defaults, field by field.
func (s *Service) ResolvedSettings(defaults BookingSettings) BookingSettings {
	if s.UseProviderDefaults {
		return defaults
	}
	out := defaults
	if s.Settings.DepositType != nil {
		out.DepositType = s.Settings.DepositType
	}
	if s.Settings.DepositValue != nil {
		out.DepositValue = s.Settings.DepositValue
	}
	if s.Settings.FeePayer != nil {
		out.FeePayer = s.Settings.FeePayer
	}
	if s.Settings.CancellationWindow != nil {
		out.CancellationWindow = s.Settings.CancellationWindow
	}
	return out
}

package payout

import "time"

// Config tunes the scheduler. Zero values fall back to the defaults.
type Config struct {
	// MinimumAmount is the smallest eligible balance worth disbursing.
	MinimumAmount float64
	// HoldPeriod is how long a ledger credit must age before it counts
	// toward a payout, covering the refund and dispute window.
	HoldPeriod time.Duration
	// MaxRetries bounds automatic retries of retryable failures.
	MaxRetries int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MinimumAmount: 50,
		HoldPeriod:    7 * 24 * time.Hour,
		MaxRetries:    3,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinimumAmount <= 0 {
		c.MinimumAmount = d.MinimumAmount
	}
	if c.HoldPeriod <= 0 {
		c.HoldPeriod = d.HoldPeriod
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	return c
}

// BatchResult summarizes one processing run. Failed counts items whose
// disbursement did not succeed this run; they stay queued for retry
// unless the failure was terminal or retries ran out.
type BatchResult struct {
	BatchID   string `json:"batch_id,omitempty"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
}

package models

import (
	"time"
)

// WebhookEvent is the audit record of a processed gateway webhook.
// The (gateway, event id) pair is unique so a replayed webhook can be
// detected even after the redis dedupe key expires.
type WebhookEvent struct {
	ID            uint   `gorm:"primarykey"`
	Gateway       string `gorm:"uniqueIndex:idx_webhook_gateway_event;not null"`
	EventID       string `gorm:"uniqueIndex:idx_webhook_gateway_event;not null"`
	EventType     string `gorm:"index"`
	TransactionID string `gorm:"index"`
	Payload       JSON   `gorm:"type:jsonb"`
	CreatedAt     time.Time
}

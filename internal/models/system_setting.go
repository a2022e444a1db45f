package models

import (
	"time"
)

// SystemSetting is a key/value row backing the in-process settings cache.
type SystemSetting struct {
	ID        uint   `gorm:"primarykey"`
	Key       string `gorm:"uniqueIndex;not null"`
	Value     string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

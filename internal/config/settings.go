package config

import (
	"strconv"
	"sync"

	"gorm.io/gorm"

	"zeen/internal/models"
)

// Settings is an in-process cache over the system_settings table. It is
// constructed once at startup and injected into the services that need
// it; writes go through Set so the cache is invalidated explicitly
// rather than expiring.
type Settings struct {
	db *gorm.DB

	mu     sync.RWMutex
	values map[string]string
}

// NewSettings loads all settings eagerly and returns the cache.
func NewSettings(db *gorm.DB) (*Settings, error) {
	s := &Settings{db: db, values: make(map[string]string)}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the cached values with the current table contents.
func (s *Settings) Reload() error {
	var rows []models.SystemSetting
	if err := s.db.Find(&rows).Error; err != nil {
		return err
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

// Get returns the setting for key, or defaultVal when unset.
func (s *Settings) Get(key, defaultVal string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return defaultVal
}

// GetFloat returns a numeric setting, or defaultVal when unset or invalid.
func (s *Settings) GetFloat(key string, defaultVal float64) float64 {
	raw := s.Get(key, "")
	if raw == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

// GetInt returns an integer setting, or defaultVal when unset or invalid.
func (s *Settings) GetInt(key string, defaultVal int) int {
	raw := s.Get(key, "")
	if raw == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}
	return i
}

// Set writes the setting through to the table and updates the cache.
func (s *Settings) Set(key, value string) error {
	setting := models.SystemSetting{Key: key, Value: value}
	err := s.db.Where(models.SystemSetting{Key: key}).
		Assign(models.SystemSetting{Value: value}).
		FirstOrCreate(&setting).Error
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

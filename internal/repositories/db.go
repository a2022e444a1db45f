// Package repositories provides data access layer implementations.
// It handles all database operations and data persistence logic.
package repositories

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"zeen/internal/config"
	"zeen/internal/models"
	"zeen/internal/repositories/cache"
)

// DB is the global database instance used across the application.
var DB *gorm.DB

// CacheService is the shared redis-backed cache.
var CacheService *cache.Service

// InitDB initializes the PostgreSQL connection, runs migrations and
// wires the redis cache.
func InitDB() error {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		config.GetEnv("DB_HOST", "localhost"),
		config.GetEnv("DB_USER", "zeen"),
		config.GetEnv("DB_PASSWORD", ""),
		config.GetEnv("DB_NAME", "zeen"),
		config.GetEnv("DB_PORT", "5432"),
		config.GetEnv("DB_SSLMODE", "disable"),
	)

	logLevel := logger.Warn
	if !config.IsProduction() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	DB = db

	redisCfg := &cache.RedisConfig{
		Host:     config.GetEnv("REDIS_HOST", "localhost"),
		Port:     config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	}
	CacheService = cache.NewService(cache.NewRedisClient(redisCfg), 24*time.Hour)

	if err := migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("database initialized")
	return nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Provider{},
		&models.Service{},
		&models.Booking{},
		&models.Payment{},
		&models.LedgerEntry{},
		&models.ScheduledPayout{},
		&models.WebhookEvent{},
		&models.SystemSetting{},
	); err != nil {
		return err
	}

	// At most one non-terminal payout per provider. Enforced in the
	// database because two scheduler runs may race.
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_payouts_one_active_per_provider
		 ON scheduled_payouts (provider_id)
		 WHERE status IN ('pending', 'processing', 'failed')`,
	).Error
}

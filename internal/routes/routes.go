// Package routes defines the API routing configuration.
// It wires repositories, services and handlers together and groups the
// routes by concern, with authentication on everything except webhooks
// and health.
package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"zeen/internal/config"
	"zeen/internal/handlers"
	"zeen/internal/middleware"
	"zeen/internal/models"
	"zeen/internal/repositories"
	"zeen/internal/services/gateway"
	"zeen/internal/services/ledger"
	"zeen/internal/services/notification"
	"zeen/internal/services/payment"
	"zeen/internal/services/payout"
)

// BuildRegistry constructs the gateway registry from environment
// configuration. Shared by the API server and the payout worker.
func BuildRegistry() *gateway.Registry {
	return gateway.NewRegistry(
		gateway.NewStripeGateway(gateway.StripeConfig{
			SecretKey:     config.GetEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: config.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		}),
		gateway.NewPaystackGateway(gateway.PaystackConfig{
			SecretKey: config.GetEnv("PAYSTACK_SECRET_KEY", ""),
			BaseURL:   config.GetEnv("PAYSTACK_BASE_URL", ""),
		}),
	)
}

// PayoutConfig resolves the payout scheduler tuning from settings with
// environment fallbacks.
func PayoutConfig(settings *config.Settings) payout.Config {
	def := payout.DefaultConfig()
	cfg := payout.Config{
		MinimumAmount: config.GetFloatEnv("PAYOUT_MINIMUM_AMOUNT", def.MinimumAmount),
		HoldPeriod:    config.GetDurationEnv("PAYOUT_HOLD_PERIOD", def.HoldPeriod),
		MaxRetries:    config.GetIntEnv("PAYOUT_MAX_RETRIES", def.MaxRetries),
	}
	if settings != nil {
		cfg.MinimumAmount = settings.GetFloat("payouts.minimum_amount", cfg.MinimumAmount)
		cfg.MaxRetries = settings.GetInt("payouts.max_retries", cfg.MaxRetries)
	}
	return cfg
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	settings, err := config.NewSettings(db)
	if err != nil {
		settings = nil
	}

	registry := BuildRegistry()
	notifier := notification.NewLogNotifier()

	ledgerRepo := repositories.NewLedgerRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	payoutRepo := repositories.NewPayoutRepository(db)

	ledgerService := ledger.NewService(ledgerRepo)
	paymentService := payment.NewService(paymentRepo, registry, repositories.CacheService, notifier)
	payoutCfg := PayoutConfig(settings)
	payoutService := payout.NewService(payoutRepo, ledgerService, registry, notifier, payoutCfg)

	paymentHandler := handlers.NewPaymentHandler(paymentService)
	webhookHandler := handlers.NewWebhookHandler(paymentService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService, payoutCfg.HoldPeriod)
	payoutHandler := handlers.NewPayoutHandler(payoutService)
	feeHandler := handlers.NewFeeHandler(settings)
	healthHandler := handlers.NewHealthHandler(registry)

	api := app.Group("/api")

	// Public endpoints: gateway webhooks authenticate with their own
	// signatures, the callback leg carries only an order reference.
	api.Post("/webhooks/:gateway", webhookHandler.Receive)
	api.Get("/payments/callback", paymentHandler.Callback)
	app.Get("/health", healthHandler.Check)

	authMiddleware := middleware.NewAuthMiddleware(config.GetEnv("JWT_SECRET", "zeen"))
	protected := api.Use(authMiddleware.Handler)

	payments := protected.Group("/payments")
	payments.Post("/", middleware.HasPermission(models.PermissionPaymentsWrite), paymentHandler.Initialize)
	payments.Get("/:id", middleware.HasPermission(models.PermissionPaymentsRead), paymentHandler.Get)
	payments.Post("/:id/refund", middleware.HasPermission(models.PermissionRefundsWrite), paymentHandler.Refund)

	protected.Post("/fees/quote", middleware.HasPermission(models.PermissionPaymentsRead), feeHandler.Quote)

	providers := protected.Group("/providers/:providerId")
	providers.Get("/balance", middleware.HasPermission(models.PermissionLedgerRead), ledgerHandler.Balance)
	providers.Get("/ledger", middleware.HasPermission(models.PermissionLedgerRead), ledgerHandler.Entries)
	providers.Post("/holds", middleware.HasPermission(models.PermissionLedgerWrite), ledgerHandler.Hold)
	providers.Post("/holds/:holdId/release", middleware.HasPermission(models.PermissionLedgerWrite), ledgerHandler.ReleaseHold)
	providers.Post("/payouts", middleware.HasPermission(models.PermissionPayoutsWrite), payoutHandler.ScheduleForProvider)

	payouts := protected.Group("/payouts")
	payouts.Get("/:id", middleware.HasPermission(models.PermissionPayoutsRead), payoutHandler.Get)
	payouts.Post("/:id/retry", middleware.HasPermission(models.PermissionPayoutsWrite), payoutHandler.Retry)
	payouts.Post("/:id/cancel", middleware.HasPermission(models.PermissionPayoutsWrite), payoutHandler.Cancel)

	admin := protected.Group("/admin", middleware.AdminOnly)
	admin.Post("/payouts/schedule", payoutHandler.RunSchedule)
	admin.Post("/payouts/process", payoutHandler.RunProcess)
	admin.Post("/payouts/batches/:batchId/process", payoutHandler.ProcessBatch)
}

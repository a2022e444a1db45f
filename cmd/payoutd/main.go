// Package main is the payout worker. It runs the scheduling sweep, the
// disbursement runs and the stuck-payment reconciliation on cron
// schedules, or executes one full cycle and exits when started with
// -once (exit status 1 if any payout failed, for the job runner).
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"zeen/internal/config"
	"zeen/internal/logging"
	"zeen/internal/repositories"
	"zeen/internal/routes"
	"zeen/internal/services/ledger"
	"zeen/internal/services/notification"
	"zeen/internal/services/payment"
	"zeen/internal/services/payout"
)

func main() {
	once := flag.Bool("once", false, "run one schedule+process+reconcile cycle and exit")
	flag.Parse()

	config.LoadEnv()
	logging.Setup(config.GetEnv("LOG_LEVEL", "info"), !config.IsProduction())
	log := logging.Logger()

	if err := repositories.InitDB(); err != nil {
		log.Fatal().Err(err).Msg("database initialization failed")
	}

	settings, err := config.NewSettings(repositories.DB)
	if err != nil {
		log.Warn().Err(err).Msg("settings unavailable, using defaults")
		settings = nil
	}

	registry := routes.BuildRegistry()
	notifier := notification.NewLogNotifier()
	ledgerService := ledger.NewService(repositories.NewLedgerRepository(repositories.DB))
	paymentService := payment.NewService(
		repositories.NewPaymentRepository(repositories.DB), registry, repositories.CacheService, notifier)
	payoutService := payout.NewService(
		repositories.NewPayoutRepository(repositories.DB), ledgerService, registry, notifier,
		routes.PayoutConfig(settings))

	reconcileAge := config.GetDurationEnv("RECONCILE_AGE", 15*time.Minute)

	if *once {
		os.Exit(runOnce(payoutService, paymentService, reconcileAge))
	}

	c := cron.New()
	mustSchedule(c, config.GetEnv("PAYOUT_SCHEDULE_CRON", "0 2 * * *"), func() {
		ctx := context.Background()
		scheduled, err := payoutService.SchedulePayouts(ctx)
		if err != nil {
			log.Error().Err(err).Msg("payout scheduling sweep failed")
			return
		}
		log.Info().Int("scheduled", scheduled).Msg("payout scheduling sweep finished")
	})
	mustSchedule(c, config.GetEnv("PAYOUT_PROCESS_CRON", "0 3 * * *"), func() {
		result, err := payoutService.ProcessDuePayouts(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("payout processing run failed")
			return
		}
		log.Info().
			Int("total", result.Total).
			Int("processed", result.Processed).
			Int("failed", result.Failed).
			Msg("payout processing run finished")
	})
	mustSchedule(c, config.GetEnv("RECONCILE_CRON", "*/30 * * * *"), func() {
		settled, err := paymentService.ReconcilePending(context.Background(), reconcileAge)
		if err != nil {
			log.Error().Err(err).Msg("payment reconciliation failed")
			return
		}
		if settled > 0 {
			log.Info().Int("settled", settled).Msg("payment reconciliation finished")
		}
	})

	log.Info().Msg("payout worker started")
	c.Run()
}

func mustSchedule(c *cron.Cron, spec string, job func()) {
	if _, err := c.AddFunc(spec, job); err != nil {
		logging.Logger().Fatal().Err(err).Str("spec", spec).Msg("invalid cron spec")
	}
}

func runOnce(payouts payout.Service, payments payment.Service, reconcileAge time.Duration) int {
	ctx := context.Background()
	log := logging.Logger()

	scheduled, err := payouts.SchedulePayouts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("payout scheduling sweep failed")
		return 1
	}
	result, err := payouts.ProcessDuePayouts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("payout processing run failed")
		return 1
	}
	settled, err := payments.ReconcilePending(ctx, reconcileAge)
	if err != nil {
		log.Error().Err(err).Msg("payment reconciliation failed")
		return 1
	}

	log.Info().
		Int("scheduled", scheduled).
		Int("processed", result.Processed).
		Int("failed", result.Failed).
		Int("reconciled", settled).
		Msg("payout cycle finished")

	if result.Failed > 0 {
		return 1
	}
	return 0
}

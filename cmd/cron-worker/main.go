package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/churchconnect/churchconnect-backend/internal/attendance"
	"github.com/churchconnect/churchconnect-backend/internal/billing"
	"github.com/churchconnect/churchconnect-backend/internal/churches"
	"github.com/churchconnect/churchconnect-backend/internal/cron"
	"github.com/churchconnect/churchconnect-backend/internal/followups"
	"github.com/churchconnect/churchconnect-backend/internal/members"
	"github.com/churchconnect/churchconnect-backend/pkg/config"
	"github.com/churchconnect/churchconnect-backend/pkg/db"
	"github.com/churchconnect/churchconnect-backend/pkg/logger"
	"github.com/churchconnect/churchconnect-backend/pkg/metrics"
	"github.com/churchconnect/churchconnect-backend/pkg/migrate"
	"github.com/churchconnect/churchconnect-backend/pkg/redis"
	"github.com/churchconnect/churchconnect-backend/pkg/square"
)

const lockKeyFormat = "cron-worker:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap square client", err)
		os.Exit(1)
	}

	churchRepo := churches.NewRepository(dbClient.DB())
	memberRepo := members.NewRepository(dbClient.DB())
	attendanceRepo := attendance.NewRepository(dbClient.DB())
	followUpRepo := followups.NewRepository(dbClient.DB())
	billingRepo := billing.NewRepository(dbClient.DB())

	followUpService, err := followups.NewService(followUpRepo, memberRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create follow-up service", err)
		os.Exit(1)
	}

	provider, err := billing.NewSquareProvider(squareClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create billing provider", err)
		os.Exit(1)
	}
	billingService, err := billing.NewService(billing.ServiceParams{
		Repo:     billingRepo,
		Provider: provider,
		Churches: churchRepo,
		Runner:   dbClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	trialExpiry, err := cron.NewTrialExpiryJob(cron.TrialExpiryJobParams{
		Logger:     logg,
		ChurchRepo: churchRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create trial expiry job", err)
		os.Exit(1)
	}
	absenceScan, err := cron.NewAbsenceScanJob(cron.AbsenceScanJobParams{
		Logger:         logg,
		ChurchRepo:     churchRepo,
		MemberRepo:     memberRepo,
		AttendanceRepo: attendanceRepo,
		FollowUps:      followUpService,
		WeekThreshold:  cfg.Cron.AbsenceWeekThreshold,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create absence scan job", err)
		os.Exit(1)
	}
	reconcile, err := cron.NewSubscriptionReconcileJob(cron.SubscriptionReconcileJobParams{
		Logger:      logg,
		BillingRepo: billingRepo,
		Billing:     billingService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription reconcile job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockKey(cfg.App.Env)), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(trialExpiry, absenceScan, reconcile),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/churchconnect/churchconnect-backend/api/routes"
	"github.com/churchconnect/churchconnect-backend/internal/admins"
	"github.com/churchconnect/churchconnect-backend/internal/attendance"
	internalauth "github.com/churchconnect/churchconnect-backend/internal/auth"
	"github.com/churchconnect/churchconnect-backend/internal/billing"
	"github.com/churchconnect/churchconnect-backend/internal/churches"
	"github.com/churchconnect/churchconnect-backend/internal/entitlements"
	"github.com/churchconnect/churchconnect-backend/internal/followups"
	"github.com/churchconnect/churchconnect-backend/internal/lifecycle"
	"github.com/churchconnect/churchconnect-backend/internal/members"
	"github.com/churchconnect/churchconnect-backend/internal/stats"
	"github.com/churchconnect/churchconnect-backend/internal/superadmins"
	"github.com/churchconnect/churchconnect-backend/internal/visitors"
	"github.com/churchconnect/churchconnect-backend/pkg/auth/session"
	"github.com/churchconnect/churchconnect-backend/pkg/config"
	"github.com/churchconnect/churchconnect-backend/pkg/db"
	"github.com/churchconnect/churchconnect-backend/pkg/logger"
	"github.com/churchconnect/churchconnect-backend/pkg/metrics"
	"github.com/churchconnect/churchconnect-backend/pkg/migrate"
	"github.com/churchconnect/churchconnect-backend/pkg/redis"
	"github.com/churchconnect/churchconnect-backend/pkg/square"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}
	kiosk, err := session.NewKiosk(redisClient, cfg.Kiosk)
	if err != nil {
		logg.Error(context.Background(), "failed to create kiosk session store", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	wipeMetrics := metrics.NewTenantWipeMetrics(registry)

	churchRepo := churches.NewRepository(dbClient.DB())
	adminRepo := admins.NewRepository(dbClient.DB())
	superAdminRepo := superadmins.NewRepository(dbClient.DB())
	memberRepo := members.NewRepository(dbClient.DB())
	attendanceRepo := attendance.NewRepository(dbClient.DB())
	visitorRepo := visitors.NewRepository(dbClient.DB())
	followUpRepo := followups.NewRepository(dbClient.DB())
	billingRepo := billing.NewRepository(dbClient.DB())

	entitlementService, err := entitlements.NewService(churchRepo, memberRepo)
	if err != nil {
		fatal(logg, "failed to create entitlement service", err)
	}
	memberService, err := members.NewService(memberRepo, entitlementService)
	if err != nil {
		fatal(logg, "failed to create member service", err)
	}
	attendanceService, err := attendance.NewService(attendanceRepo, memberRepo, entitlementService)
	if err != nil {
		fatal(logg, "failed to create attendance service", err)
	}
	visitorService, err := visitors.NewService(visitorRepo, memberService, entitlementService)
	if err != nil {
		fatal(logg, "failed to create visitor service", err)
	}
	followUpService, err := followups.NewService(followUpRepo, memberRepo)
	if err != nil {
		fatal(logg, "failed to create follow-up service", err)
	}
	statsService, err := stats.NewService(churchRepo, memberRepo, attendanceRepo, visitorRepo, followUpRepo, adminRepo)
	if err != nil {
		fatal(logg, "failed to create stats service", err)
	}
	lifecycleService, err := lifecycle.NewService(lifecycle.NewStore(dbClient), redisClient, logg, wipeMetrics)
	if err != nil {
		fatal(logg, "failed to create lifecycle service", err)
	}
	churchService, err := churches.NewService(churchRepo, kiosk, lifecycleService, cfg.Kiosk)
	if err != nil {
		fatal(logg, "failed to create church service", err)
	}

	provider, err := billing.NewSquareProvider(squareClient)
	if err != nil {
		fatal(logg, "failed to create billing provider", err)
	}
	billingService, err := billing.NewService(billing.ServiceParams{
		Repo:     billingRepo,
		Provider: provider,
		Churches: churchRepo,
		Runner:   dbClient,
		Logger:   logg,
	})
	if err != nil {
		fatal(logg, "failed to create billing service", err)
	}
	if err := billingService.SeedDefaultPlans(context.Background()); err != nil {
		fatal(logg, "failed to seed billing plans", err)
	}

	authService, err := internalauth.NewService(internalauth.ServiceParams{
		AdminRepo:      adminRepo,
		SuperAdminRepo: superAdminRepo,
		ChurchRepo:     churchRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		fatal(logg, "failed to create auth service", err)
	}
	registerService, err := internalauth.NewRegisterService(internalauth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
		TrialConfig:    cfg.Trial,
	})
	if err != nil {
		fatal(logg, "failed to create register service", err)
	}

	handler := routes.NewRouter(routes.RouterParams{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		Sessions: sessionManager,
		Registry: registry,

		AuthService:        authService,
		RegisterService:    registerService,
		ChurchService:      churchService,
		MemberService:      memberService,
		AttendanceService:  attendanceService,
		VisitorService:     visitorService,
		FollowUpService:    followUpService,
		StatsService:       statsService,
		EntitlementService: entitlementService,
		BillingService:     billingService,
		LifecycleService:   lifecycleService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shut down gracefully")
}

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}

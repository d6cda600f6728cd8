package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/aasta/aasta-backend/api/routes"
	"github.com/aasta/aasta-backend/internal/auth"
	"github.com/aasta/aasta-backend/internal/payments"
	"github.com/aasta/aasta-backend/pkg/config"
	"github.com/aasta/aasta-backend/pkg/db"
	"github.com/aasta/aasta-backend/pkg/fxrate"
	"github.com/aasta/aasta-backend/pkg/instance"
	"github.com/aasta/aasta-backend/pkg/logger"
	"github.com/aasta/aasta-backend/pkg/metrics"
	"github.com/aasta/aasta-backend/pkg/migrate"
	"github.com/aasta/aasta-backend/pkg/razorpay"
	"github.com/aasta/aasta-backend/pkg/redis"
)

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
		Console:     strings.EqualFold(cfg.App.LogFormat, "console"),
		Fields:      map[string]any{"env": cfg.App.Env, "instance": instance.GetID()},
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	paymentMetrics := metrics.NewPaymentMetrics(reg)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()
	if sqlDB, sqlErr := dbClient.SQL(); sqlErr == nil {
		reg.MustRegister(collectors.NewDBStatsCollector(sqlDB, "aasta"))
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	deps := routes.Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
	}

	var rateStore redis.RateStore
	if cfg.Redis.Enabled() {
		redisClient, redisErr := redis.New(ctx, cfg.Redis, logg)
		if redisErr != nil {
			return redisErr
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		deps.Redis = redisClient
		deps.Limiter = redisClient
		rateStore = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, rate limiting and fx mirror disabled")
	}

	fxOpts := []fxrate.Option{
		fxrate.WithTTL(cfg.FX.TTL),
		fxrate.WithDefaultRate(cfg.FX.DefaultRate),
		fxrate.WithLogger(logg),
		fxrate.WithMetrics(paymentMetrics),
	}
	if rateStore != nil {
		fxOpts = append(fxOpts, fxrate.WithMirror(fxrate.NewRedisMirror(rateStore, cfg.FX.Base, cfg.FX.Quote, cfg.FX.TTL)))
	}
	rates := fxrate.New(fxrate.NewUpstream(cfg.FX, resty.New()), fxOpts...)
	go warmRates(ctx, rates, cfg.FX.TTL, logg)

	orderParams := payments.OrderServiceParams{
		DefaultCurrency:  cfg.Payments.Currency,
		MinimumAmount:    cfg.Payments.MinimumOrderMinorUnits,
		OrderDescription: cfg.Payments.OrderDescription,
		Logger:           logg,
		Metrics:          paymentMetrics,
	}
	gateway, err := razorpay.NewClient(cfg.Razorpay, razorpay.WithMetrics(paymentMetrics))
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "razorpay not configured, order creation disabled")
	} else {
		orderParams.Gateway = gateway
	}
	if !cfg.Razorpay.Configured() {
		logg.Warn(ctx, "razorpay key secret missing, payment verification will be refused")
	}

	repo := payments.NewRepository(dbClient.DB())

	orderService, err := payments.NewOrderService(orderParams)
	if err != nil {
		return err
	}
	verifyService, err := payments.NewVerificationService(payments.VerificationParams{
		Repo:              repo,
		Secret:            cfg.Razorpay.KeySecret,
		Currency:          cfg.Payments.Currency,
		MinimumInvestment: cfg.Payments.MinimumInvestment,
		Logger:            logg,
		Metrics:           paymentMetrics,
	})
	if err != nil {
		return err
	}
	summaryService, err := payments.NewSummaryService(repo, rates, cfg.Payments.RecentInvestorsLimit, logg)
	if err != nil {
		return err
	}
	ledgerService, err := payments.NewLedgerService(repo)
	if err != nil {
		return err
	}
	authService, err := auth.NewService(auth.ServiceParams{
		Admin:     cfg.Admin,
		JWTConfig: cfg.JWT,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	deps.Orders = orderService
	deps.Verify = verifyService
	deps.Summary = summaryService
	deps.Ledger = ledgerService
	deps.Auth = authService

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logCtx := logg.WithField(ctx, "addr", addr)
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// warmRates refreshes the conversion rate in the background so summary
// requests rarely wait on the upstream.
func warmRates(ctx context.Context, rates *fxrate.Cache, ttl time.Duration, logg *logger.Logger) {
	if ttl <= 0 {
		ttl = fxrate.DefaultTTL
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		if err := rates.RefreshIfStale(ctx); err != nil && ctx.Err() == nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "fx rate warm-up failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

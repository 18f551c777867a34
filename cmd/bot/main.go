package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/rental-intake-bot/cmd/mainconfig"
	"github.com/wolfman30/rental-intake-bot/internal/api/router"
	"github.com/wolfman30/rental-intake-bot/internal/app/bootstrap"
	appconfig "github.com/wolfman30/rental-intake-bot/internal/config"
	"github.com/wolfman30/rental-intake-bot/internal/dialogue"
	"github.com/wolfman30/rental-intake-bot/internal/listings"
	"github.com/wolfman30/rental-intake-bot/internal/notify"
	"github.com/wolfman30/rental-intake-bot/internal/observability/metrics"
	"github.com/wolfman30/rental-intake-bot/internal/session"
	"github.com/wolfman30/rental-intake-bot/internal/telegram"
	"github.com/wolfman30/rental-intake-bot/pkg/logging"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("starting rental intake bot",
		"env", cfg.Env,
		"port", cfg.Port,
		"session_backend", cfg.SessionBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	botMetrics := metrics.NewBotMetrics(nil)
	checks := map[string]router.Pinger{}

	// Conversation state
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		checks["redis"] = router.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	stores, err := bootstrap.BuildSessionStore(cfg, redisClient, logger)
	if err != nil {
		logger.Error("failed to build session store", "error", err)
		os.Exit(1)
	}
	if stores.Memory != nil {
		stores.Memory.StartJanitor(ctx, janitorInterval(cfg.SessionTTL), botMetrics.ObserveSessionsEvicted)
	}

	// Listings
	pool, err := bootstrap.BuildPgxPool(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
		checks["postgres"] = pool
	}
	catalog := listings.NewCatalog(bootstrap.BuildListingRepository(cfg, pool, logger), logger)

	// Transport
	api, err := telegram.Connect(cfg.TelegramBotToken, cfg.TelegramDebug)
	if err != nil {
		logger.Error("failed to authorize telegram bot", "error", err)
		os.Exit(1)
	}
	logger.Info("telegram bot authorized", "username", api.Self.UserName)
	seq := session.NewSequencer(logger, session.WithMaxSessions(cfg.MaxSessions))
	bot := telegram.New(api, nil, seq,
		telegram.WithPollTimeout(cfg.TelegramPollTimeout),
		telegram.WithLogger(logger),
	)

	// Notifications
	email, err := bootstrap.BuildEmailSender(ctx, cfg, func(ctx context.Context) (*sesv2.Client, error) {
		return mainconfig.NewSESClient(ctx, cfg)
	}, logger)
	if err != nil {
		logger.Error("failed to build email sender", "error", err)
		os.Exit(1)
	}
	dispatcher, err := bootstrap.BuildDispatcher(cfg, bot, email,
		[]notify.DispatcherOption{notify.WithDeliveryObserver(botMetrics)}, logger)
	if err != nil {
		logger.Error("failed to build notification dispatcher", "error", err)
		os.Exit(1)
	}

	engine := dialogue.NewEngine(
		dialogue.Config{AdminID: cfg.AdminUserID, ChannelID: cfg.ListingsChannelID},
		stores.Store, catalog, dispatcher,
		dialogue.WithBroadcaster(bot),
		dialogue.WithMetrics(botMetrics),
		dialogue.WithLogger(logger),
	)
	bot.SetHandler(engine)

	// Operational HTTP surface
	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(&router.Config{
			Logger:         logger,
			MetricsHandler: promhttp.Handler(),
			Checks:         checks,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	if err := bot.Run(ctx); err != nil {
		logger.Error("telegram polling stopped", "error", err)
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	seq.Close()
	drained := make(chan struct{})
	go func() {
		seq.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out with events in flight", "sessions", seq.Pending())
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	logger.Info("bot stopped")
}

// janitorInterval sweeps often enough that an abandoned conversation
// outlives its TTL by at most a tenth of it.
func janitorInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	interval := ttl / 10
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}

// Command bot polls the homework review status API and relays review
// verdicts to a Telegram chat.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homework-bot/internal/domain/entity"
	"homework-bot/internal/infra/notifier"
	"homework-bot/internal/infra/practicum"
	workerPkg "homework-bot/internal/infra/worker"
	"homework-bot/internal/observability/logging"
	"homework-bot/internal/usecase/notify"
	"homework-bot/internal/usecase/poll"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, prometheus.DefaultRegisterer, prometheus.DefaultGatherer); err != nil {
		os.Exit(1)
	}
}

// run wires every component and blocks until ctx is canceled.
// A configuration error is returned before any network activity.
//
// Parameters:
//   - ctx: Canceled on SIGINT/SIGTERM
//   - reg: Registerer for all application metrics
//   - gatherer: Source for the /metrics endpoint
//
// Returns:
//   - error: *entity.ConfigError on bad configuration, a server error if a
//     listener fails, nil on graceful shutdown
func run(ctx context.Context, reg prometheus.Registerer, gatherer prometheus.Gatherer) error {
	// Existing environment wins over .env
	dotenvErr := godotenv.Load()

	logger := logging.NewLogger()
	slog.SetDefault(logger)
	if dotenvErr != nil && !errors.Is(dotenvErr, fs.ErrNotExist) {
		logger.Warn("failed to load .env file", logging.Err(dotenvErr))
	}

	workerMetrics := workerPkg.NewWorkerMetrics(reg)
	cfg, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logConfigError(logger, err)
		return err
	}
	logger.Info("worker configuration loaded", slog.Any("config", cfg))

	loop, notifyService, err := buildLoop(cfg, reg, workerMetrics, logger)
	if err != nil {
		logConfigError(logger, err)
		return err
	}

	healthServer := workerPkg.NewHealthServer(
		fmt.Sprintf(":%d", cfg.HealthPort),
		logger,
		workerPkg.LoopReadiness(loop.Status, cfg.StaleAfter(time.Now()), time.Now),
	)
	metricsServer := newMetricsServer(fmt.Sprintf(":%d", cfg.MetricsPort), gatherer, notifyService, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return metricsServer.Start(gctx) })
	g.Go(func() error { return healthServer.Start(gctx) })
	g.Go(func() error {
		healthServer.SetReady(true)
		defer healthServer.SetReady(false)
		return loop.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped with error", logging.Err(err))
		return err
	}
	logger.Info("worker stopped", slog.Int64("cursor", loop.Cursor()))
	return nil
}

// buildLoop creates the API client, the Telegram transport, the delivery
// service and the poll loop. None of them touches the network here.
func buildLoop(cfg *workerPkg.WorkerConfig, reg prometheus.Registerer, observer poll.Observer, logger *slog.Logger) (*poll.Loop, *notify.Service, error) {
	client, err := practicum.NewClient(practicum.Config{
		Endpoint: cfg.Endpoint,
		Token:    cfg.PracticumToken,
		Timeout:  cfg.HTTPTimeout,
	}, practicum.WithMetrics(practicum.NewMetrics(reg)))
	if err != nil {
		return nil, nil, configErr(workerPkg.EnvPracticumEndpoint, err)
	}

	tgConfig := notifier.DefaultTelegramConfig(cfg.TelegramToken)
	tgConfig.APIURL = cfg.TelegramAPIURL
	tgConfig.Timeout = telegramAttemptTimeout(cfg.TelegramTimeout)
	telegram, err := notifier.NewTelegramNotifier(tgConfig)
	if err != nil {
		return nil, nil, configErr(workerPkg.EnvTelegramToken, err)
	}

	notifyService := notify.NewService(telegram, notify.WithMetrics(notify.NewMetrics(reg)))

	schedule, err := cfg.Schedule()
	if err != nil {
		return nil, nil, configErr(workerPkg.EnvPollSchedule, err)
	}

	loop, err := poll.NewLoop(client, notifyService, poll.Config{
		ChatID:             cfg.ChatID,
		InitialCursor:      cfg.FromDate,
		Schedule:           schedule,
		ErrorNotifications: cfg.ErrorNotifyEnabled,
		DedupErrors:        cfg.ErrorNotifyDedup,
	}, poll.WithObserver(observer), poll.WithLogger(logger))
	if err != nil {
		return nil, nil, configErr(workerPkg.EnvPracticumFromDate, err)
	}

	return loop, notifyService, nil
}

// telegramAttemptTimeout caps a single Bot API request at the delivery
// timeout: telebot sends without a context, so the HTTP client timeout is
// the only bound on a request in flight.
func telegramAttemptTimeout(configured time.Duration) time.Duration {
	return min(configured, notify.DefaultSendTimeout)
}

func configErr(key string, err error) error {
	return &entity.ConfigError{Reason: entity.ErrInvalidSetting, Keys: []string{key}, Err: err}
}

func logConfigError(logger *slog.Logger, err error) {
	attrs := []any{logging.Err(err)}
	var cfgErr *entity.ConfigError
	if errors.As(err, &cfgErr) {
		attrs = append(attrs, slog.Any("keys", cfgErr.Keys))
	}
	logger.Error("invalid configuration, exiting", attrs...)
}

package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Tommy88/xparser/internal/config"
	"github.com/Tommy88/xparser/internal/infra/adapter/persistence/jsonfile"
	pgRepo "github.com/Tommy88/xparser/internal/infra/adapter/persistence/postgres"
	sqliteRepo "github.com/Tommy88/xparser/internal/infra/adapter/persistence/sqlite"
	"github.com/Tommy88/xparser/internal/infra/db"
	"github.com/Tommy88/xparser/internal/infra/scraper"
	workerPkg "github.com/Tommy88/xparser/internal/infra/worker"
	"github.com/Tommy88/xparser/internal/observability/logging"
	"github.com/Tommy88/xparser/internal/observability/tracing"
	"github.com/Tommy88/xparser/internal/repository"
	"github.com/Tommy88/xparser/internal/resilience/retry"
	"github.com/Tommy88/xparser/internal/usecase/catalog"
	"github.com/Tommy88/xparser/internal/usecase/notify"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.Setup(logger)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to shut down tracing", logging.Error(err))
		}
	}()

	appConfig, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", logging.Error(err))
		return 1
	}

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", logging.Error(err))
		return 1
	}
	loc, err := workerConfig.Location()
	if err != nil {
		logger.Error("invalid timezone", slog.String("timezone", workerConfig.Timezone), logging.Error(err))
		return 1
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("pass_timeout", workerConfig.PassTimeout),
		slog.Bool("run_once", workerConfig.RunOnce),
		slog.String("storage", appConfig.StorageDriver),
		slog.Duration("retention", appConfig.EffectiveRetention()))

	store, database, err := openStore(ctx, logger, appConfig)
	if err != nil {
		logger.Error("failed to open snapshot store", logging.Error(err))
		return 1
	}
	if database != nil {
		defer func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", logging.Error(err))
			}
		}()
	}

	profile, err := appConfig.Profile()
	if err != nil {
		logger.Error("failed to load scraper profile", logging.Error(err))
		return 1
	}
	fetcher := scraper.NewPageFetcher(createHTTPClient(), profile.Headers)
	crawler := scraper.NewCrawler(fetcher, profile)
	logger.Info("scraper initialized",
		slog.String("profile", profile.Name),
		slog.String("url", profile.URL),
		slog.String("key_scheme", profile.KeyScheme),
		slog.Int("max_pages", profile.MaxPages))

	channel, err := notify.NewTelegramChannel(appConfig.TelegramConfig(), logger)
	if err != nil {
		logger.Error("failed to initialize Telegram channel", logging.Error(err))
		return 1
	}
	pipeline := notify.NewPipeline(channel, notify.PipelineConfig{Logger: logger})
	logger.Info("delivery pipeline initialized",
		slog.String("channel", channel.Name()),
		slog.Bool("enabled", channel.IsEnabled()))

	svc := catalog.NewService(crawler, store, jsonfile.NewDiffStore(appConfig.DiffPath()), pipeline, catalog.Config{
		Retention: appConfig.EffectiveRetention(),
		Suppress:  notify.NewSuppressSet(appConfig.SuppressValues...),
		Location:  loc,
	})
	job := func(ctx context.Context) error {
		if database != nil {
			defer db.ReportStats(database)
		}
		_, err := svc.RunPass(ctx)
		return err
	}

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerConfig.HealthPort), logger)
	if database != nil {
		healthServer.AddCheck("database", database.PingContext)
	}
	scheduler := workerPkg.NewScheduler(workerConfig, job, workerMetrics, healthServer, logger)

	if workerConfig.RunOnce {
		if err := scheduler.RunOnce(ctx); err != nil {
			return 1
		}
		return 0
	}

	statusServer := workerPkg.NewStatusServer(fmt.Sprintf(":%d", workerConfig.MetricsPort), logger, workerPkg.StatusSources{
		Channels: func() []workerPkg.ChannelStatus {
			h := pipeline.Health()
			return []workerPkg.ChannelStatus{{
				Name:                h.Name,
				Enabled:             h.Enabled,
				Healthy:             h.ConsecutiveFailures < notify.DefaultMaxAttempts,
				ConsecutiveFailures: h.ConsecutiveFailures,
				LastError:           h.LastError,
				LastDeliveryAt:      h.LastDeliveryAt,
			}}
		},
		Breakers: func() []workerPkg.BreakerStatus {
			cb := fetcher.Breaker()
			return []workerPkg.BreakerStatus{{Name: cb.Name(), State: cb.State().String()}}
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreClosed(healthServer.Start(gctx)) })
	g.Go(func() error { return ignoreClosed(statusServer.Start(gctx)) })
	g.Go(func() error { return scheduler.Run(gctx) })

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped with error", logging.Error(err))
		return 1
	}
	logger.Info("worker stopped")
	return 0
}

// openStore builds the snapshot repository for the configured driver. The
// returned *sql.DB is nil for the JSON file store.
func openStore(ctx context.Context, logger *slog.Logger, cfg config.AppConfig) (repository.SnapshotRepository, *sql.DB, error) {
	switch cfg.StorageDriver {
	case config.StorageSQLite:
		database, err := openDatabase(ctx, logger, db.DriverSQLite, cfg.SQLitePath())
		if err != nil {
			return nil, nil, err
		}
		return sqliteRepo.NewSnapshotRepo(database, logger), database, nil
	case config.StoragePostgres:
		database, err := openDatabase(ctx, logger, db.DriverPostgres, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pgRepo.NewSnapshotRepo(database, logger), database, nil
	default:
		logger.Info("using JSON snapshot store", slog.String("path", cfg.SnapshotPath()))
		return jsonfile.NewSnapshotStore(cfg.SnapshotPath(), logger), nil, nil
	}
}

// openDatabase connects and creates the schema, retrying while the database
// is still starting up.
func openDatabase(ctx context.Context, logger *slog.Logger, driver, dsn string) (*sql.DB, error) {
	var database *sql.DB
	err := retry.WithBackoff(ctx, retry.DBStartupConfig(), func() error {
		d, err := db.Open(ctx, driver, dsn)
		if err != nil {
			logger.Warn("database not reachable yet", slog.String("driver", driver), logging.Error(err))
			return err
		}
		if err := db.MigrateUp(d); err != nil {
			_ = d.Close()
			return fmt.Errorf("migrate %s: %w", driver, err)
		}
		database = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("database ready", slog.String("driver", driver))
	return database, nil
}

// createHTTPClient creates the catalog HTTP client. TLS 1.2+ is enforced.
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

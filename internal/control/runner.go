// Package control wires the processors, storage backends and transaction
// source into a running application.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/vietddude/chainsink/internal/control/health"
	"github.com/vietddude/chainsink/internal/core/config"
	"github.com/vietddude/chainsink/internal/core/domain"
	redisclient "github.com/vietddude/chainsink/internal/infra/redis"
	"github.com/vietddude/chainsink/internal/infra/storage"
	"github.com/vietddude/chainsink/internal/infra/storage/postgres"
	"github.com/vietddude/chainsink/internal/processing"
	"github.com/vietddude/chainsink/internal/processing/ans"
	"github.com/vietddude/chainsink/internal/processing/coin"
	"github.com/vietddude/chainsink/internal/processing/fungibleasset"
	"github.com/vietddude/chainsink/internal/processing/metrics"
	"github.com/vietddude/chainsink/internal/processing/tokenclaims"
)

// lockTTL bounds how long a crashed instance blocks its processors.
const lockTTL = 5 * time.Minute

// Config holds the application configuration.
type Config struct {
	Port       int
	Database   postgres.Config
	Redis      redisclient.Config
	Source     config.SourceConfig
	Processors config.ProcessorsConfig
}

// App is the main application struct that manages the processing lifecycle.
type App struct {
	cfg          Config
	db           *postgres.DB
	redisClient  *redisclient.Client
	source       BatchSource
	processors   []processing.Processor
	statusRepo   storage.ProcessorStatusRepository
	failedRepos  map[string]storage.FailedBatchRepository
	healthServer *health.Server
	rec          metrics.Recorder
	log          *slog.Logger
}

// NewApp creates a new App instance with all dependencies initialized.
func NewApp(cfg Config) (*App, error) {
	log := slog.Default()

	db, err := postgres.NewDB(context.Background(), cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to init db: %w", err)
	}

	// Run migrations
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, err
	}
	if err := goose.Up(db.DB.DB, "migrations"); err != nil {
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}

	redisClient, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to init redis: %w", err)
	}

	rec := metrics.NewPrometheus()
	statusRepo := postgres.NewStatusRepo(db)

	enabled := cfg.Processors.Enabled
	if len(enabled) == 0 {
		enabled = []string{
			coin.ProcessorName,
			ans.ProcessorName,
			fungibleasset.ProcessorName,
			tokenclaims.ProcessorName,
		}
	}

	processors := make([]processing.Processor, 0, len(enabled))
	failedRepos := make(map[string]storage.FailedBatchRepository, len(enabled))
	names := make([]string, 0, len(enabled))
	for _, name := range enabled {
		var p processing.Processor
		switch name {
		case coin.ProcessorName:
			p = coin.NewBatchProcessor(postgres.NewCoinRepo(db, rec), rec, log)
		case ans.ProcessorName:
			p = ans.NewBatchProcessor(postgres.NewAnsRepo(db, rec), cfg.Processors.ANS, rec, log)
		case fungibleasset.ProcessorName:
			p = fungibleasset.NewBatchProcessor(postgres.NewFungibleAssetRepo(db, rec), rec, log)
		case tokenclaims.ProcessorName:
			p = tokenclaims.NewBatchProcessor(postgres.NewTokenClaimsRepo(db, rec), cfg.Processors.TokenClaims, rec, log)
		default:
			return nil, fmt.Errorf("unknown processor: %s", name)
		}
		processors = append(processors, p)
		failedRepos[name] = redisclient.NewFailedBatchRepo(redisClient, name)
		names = append(names, name)
	}

	monitor := health.NewMonitor(names, statusRepo, failedRepos, db, redisClient)

	return &App{
		cfg:          cfg,
		db:           db,
		redisClient:  redisClient,
		source:       NewFileSource(cfg.Source, log),
		processors:   processors,
		statusRepo:   statusRepo,
		failedRepos:  failedRepos,
		healthServer: health.NewServer(monitor, cfg.Port),
		rec:          rec,
		log:          log,
	}, nil
}

// Run drives the batch loop until the context is cancelled. It acquires
// the per-processor run locks first so concurrent instances cannot race
// each other's watermarks.
func (a *App) Run(ctx context.Context) error {
	a.db.StartMetricsCollector(ctx)

	go func() {
		if err := a.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	for _, p := range a.processors {
		ok, err := a.redisClient.AcquireLock(ctx, p.Name(), lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("processor %s is locked by another instance", p.Name())
		}
		defer a.redisClient.ReleaseLock(context.Background(), p.Name())
	}

	if err := a.resume(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		for _, p := range a.processors {
			if err := a.redisClient.RefreshLock(ctx, p.Name(), lockTTL); err != nil {
				a.log.Warn("Failed to refresh lock", "processor", p.Name(), "error", err)
			}
		}

		batch, err := a.source.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if len(batch) == 0 {
			a.retryFailed(ctx)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(a.cfg.Source.PollInterval):
			}
			continue
		}

		a.processBatch(ctx, batch)
	}
}

// resume fast-forwards the source past everything all processors have
// already persisted. The slowest watermark governs; faster processors
// re-persist idempotently.
func (a *App) resume(ctx context.Context) error {
	lowest := uint64(0)
	haveAll := true
	for i, p := range a.processors {
		status, err := a.statusRepo.Get(ctx, p.Name())
		if err != nil {
			return err
		}
		if status == nil {
			haveAll = false
			break
		}
		next := status.LastSuccessVersion + 1
		if i == 0 || next < lowest {
			lowest = next
		}
	}
	if haveAll && len(a.processors) > 0 {
		a.source.SkipTo(lowest)
		a.log.Info("Resuming from watermark", "version", lowest)
	}
	return nil
}

func (a *App) processBatch(ctx context.Context, batch []*domain.Transaction) {
	start := batch[0].Version
	end := batch[len(batch)-1].Version

	for _, p := range a.processors {
		res, err := p.ProcessBatch(ctx, batch, start, end)
		if err != nil {
			a.rec.BatchFailed(p.Name())
			a.log.Error("Batch processing failed",
				"processor", p.Name(), "start_version", start, "end_version", end, "error", err)
			if _, qerr := a.failedRepos[p.Name()].Add(ctx, start, end, err); qerr != nil {
				a.log.Error("Failed to enqueue failed batch",
					"processor", p.Name(), "error", qerr)
			}
			continue
		}

		a.rec.BatchProcessed(p.Name())
		if err := a.statusRepo.Save(ctx, p.Name(), res.EndVersion, res.LastTransactionTimestamp); err != nil {
			a.log.Error("Failed to save watermark", "processor", p.Name(), "error", err)
			continue
		}
		a.log.Info("Batch processed",
			"processor", p.Name(),
			"start_version", res.StartVersion,
			"end_version", res.EndVersion,
			"processing", res.ProcessingDuration,
			"db_insertion", res.DBInsertionDuration)
	}
}

// retryFailed drains at most one dead-letter entry per processor per idle
// cycle, replaying the range from the source.
func (a *App) retryFailed(ctx context.Context) {
	replayer, ok := a.source.(Replayer)
	if !ok {
		return
	}

	for _, p := range a.processors {
		repo := a.failedRepos[p.Name()]
		fb, err := repo.GetNext(ctx)
		if err != nil || fb == nil {
			continue
		}

		txns, err := replayer.Replay(ctx, fb.StartVersion, fb.EndVersion)
		if err != nil {
			a.log.Error("Failed to replay batch", "processor", p.Name(), "id", fb.ID, "error", err)
			_ = repo.IncrementRetry(ctx, fb.ID)
			continue
		}

		res, err := p.ProcessBatch(ctx, txns, fb.StartVersion, fb.EndVersion)
		if err != nil {
			a.rec.BatchFailed(p.Name())
			a.log.Warn("Retry failed",
				"processor", p.Name(), "id", fb.ID, "retries", fb.RetryCount, "error", err)
			_ = repo.IncrementRetry(ctx, fb.ID)
			continue
		}

		a.rec.BatchProcessed(p.Name())
		if err := repo.MarkResolved(ctx, fb.ID); err != nil {
			a.log.Error("Failed to resolve batch", "processor", p.Name(), "id", fb.ID, "error", err)
		}
		if err := a.statusRepo.Save(ctx, p.Name(), res.EndVersion, res.LastTransactionTimestamp); err != nil {
			a.log.Error("Failed to save watermark", "processor", p.Name(), "error", err)
		}
		a.log.Info("Retried batch",
			"processor", p.Name(), "start_version", fb.StartVersion, "end_version", fb.EndVersion)
	}
}

// Stop shuts the application down gracefully.
func (a *App) Stop(ctx context.Context) error {
	if err := a.healthServer.Stop(ctx); err != nil {
		a.log.Warn("Health server shutdown", "error", err)
	}
	if src, ok := a.source.(*FileSource); ok {
		src.Close()
	}
	if err := a.redisClient.Close(); err != nil {
		a.log.Warn("Redis shutdown", "error", err)
	}
	return a.db.Close()
}

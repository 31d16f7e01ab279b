package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"EGPScanner/internal/config"
	"EGPScanner/internal/domain"
	"EGPScanner/internal/infrastructure/download"
	"EGPScanner/internal/infrastructure/feed"
	"EGPScanner/internal/infrastructure/pdftext"
	"EGPScanner/internal/infrastructure/storage"
	"EGPScanner/internal/logging"
	"EGPScanner/internal/usecase"
	"EGPScanner/pkg/logger"
)

// Application wires configs to use cases and owns the database handle.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sql.DB
	repo     *storage.SQLiteRepository
	ingestor *usecase.Ingestor
	pipeline *usecase.Pipeline
}

// New opens storage, ensures the schema, and builds the use cases.
// The caller must Close the application on every exit path.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	repo := storage.NewSQLiteRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	collector := feed.NewCollector(cfg.Feed, nil, baseLogger.With("component", "feed"))
	fetcher := download.NewFetcher(cfg.Download, nil, baseLogger.With("component", "download"))

	ingestor := usecase.NewIngestor(collector, repo, baseLogger.With("component", "ingestor"))
	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Repository: repo,
		Fetcher:    fetcher,
		Reader:     pdftext.NewReader(),
		Logger:     baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		db:       db,
		repo:     repo,
		ingestor: ingestor,
		pipeline: pipeline,
	}, nil
}

// Close releases the database handle.
func (a *Application) Close() error {
	return a.db.Close()
}

// Config returns the effective configuration.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Repository exposes the storage layer to the CLI surface.
func (a *Application) Repository() *storage.SQLiteRepository {
	return a.repo
}

// Ingestor exposes the feed-to-storage workflow.
func (a *Application) Ingestor() *usecase.Ingestor {
	return a.ingestor
}

// Pipeline exposes the download-and-extract workflow.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// Watch runs scheduled feed ingestion for every configured department
// until the context is cancelled.
func (a *Application) Watch(ctx context.Context) error {
	scheduler := cron.New(
		cron.WithLocation(a.cfg.Scheduler.Location()),
		cron.WithLogger(cron.VerbosePrintfLogger(logger.New("cron"))),
	)

	job := func() {
		for _, dept := range a.cfg.Departments {
			count, err := a.ingestor.Ingest(ctx, domain.FeedFilter{DeptID: dept.ID})
			if err != nil {
				a.logger.Error("scheduled ingest failed", "dept_id", dept.ID, "error", err)
				continue
			}
			a.logger.Info("scheduled ingest finished", "dept_id", dept.ID, "stored", count)
		}
	}

	if _, err := scheduler.AddFunc(a.cfg.Scheduler.CronExpression, job); err != nil {
		return fmt.Errorf("schedule ingest: %w", err)
	}

	a.logger.Info("watch started",
		"cron", a.cfg.Scheduler.CronExpression,
		"departments", len(a.cfg.Departments))
	scheduler.Start()

	<-ctx.Done()
	<-scheduler.Stop().Done()
	return nil
}

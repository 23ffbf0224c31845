package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/court-docket/internal/config"
	"github.com/kirillkom/court-docket/internal/core/ports"
	"github.com/kirillkom/court-docket/internal/core/usecase"
	"github.com/kirillkom/court-docket/internal/infrastructure/queue/nats"
	"github.com/kirillkom/court-docket/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/court-docket/internal/infrastructure/resilience"
	"github.com/kirillkom/court-docket/internal/infrastructure/spreadsheet"
	"github.com/kirillkom/court-docket/internal/infrastructure/staging"
	"github.com/kirillkom/court-docket/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/court-docket/internal/observability/metrics"
)

const notifierDrainTimeout = 5 * time.Second

type App struct {
	Config  config.Config
	DB      *sql.DB
	Metrics *metrics.HTTPServerMetrics

	ProcessUC *usecase.ProcessSpreadsheetUseCase
	UploadUC  *usecase.UploadUseCase
	ImportUC  *usecase.ImportCasesUseCase
	DisplayUC *usecase.DisplayUseCase
	Cases     *postgres.CaseRepository
	Courts    *postgres.CourtRepository

	// Subscriber is nil when live updates are disabled.
	Subscriber ports.DisplaySubscriber

	closeFn func()
}

// NewProcessor wires the spreadsheet pipeline alone; it needs no database.
func NewProcessor(cfg config.Config, logger *slog.Logger) (*usecase.ProcessSpreadsheetUseCase, error) {
	dict, err := config.LoadHeaderDictionary(cfg.HeaderDictionaryPath)
	if err != nil {
		return nil, fmt.Errorf("load header dictionary: %w", err)
	}
	stagedFiles, err := localfs.New(cfg.StagingPath)
	if err != nil {
		return nil, fmt.Errorf("init staging storage: %w", err)
	}
	return usecase.NewProcessSpreadsheetUseCase(
		spreadsheet.NewReader(),
		dict,
		staging.NewStore(stagedFiles),
		cfg.EssentialColumns,
		logger,
	), nil
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	processUC, err := NewProcessor(cfg, logger)
	if err != nil {
		return nil, err
	}
	stagedFiles, err := localfs.New(cfg.StagingPath)
	if err != nil {
		return nil, fmt.Errorf("init staging storage: %w", err)
	}
	uploads, err := localfs.New(cfg.UploadPath)
	if err != nil {
		return nil, fmt.Errorf("init upload storage: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	m := metrics.NewHTTPServerMetrics("api")
	cases := postgres.NewCaseRepository(db)
	courts := postgres.NewCourtRepository(db)

	app := &App{
		Config:    cfg,
		DB:        db,
		Metrics:   m,
		ProcessUC: processUC,
		UploadUC:  usecase.NewUploadUseCase(uploads, processUC),
		ImportUC:  usecase.NewImportCasesUseCase(staging.NewStore(stagedFiles), cases, logger),
		Cases:     cases,
		Courts:    courts,
	}

	var notifier ports.DisplayNotifier = nats.NoopNotifier{}
	closers := []func(){}
	if cfg.NATSURL != "" {
		executor := resilience.NewExecutor(resilience.PublishConfig()).WithStateObserver(m.BreakerStateChanged)
		bus, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubjectPrefix, nats.Options{ResilienceExecutor: executor})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init display bus: %w", err)
		}
		async := nats.NewNotifier(bus, cfg.NotifierBuffer, logger, m.DisplayEvent)
		notifier = async
		app.Subscriber = bus
		closers = append(closers, func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), notifierDrainTimeout)
			defer cancel()
			if err := async.Close(drainCtx); err != nil {
				logger.Warn("display_notifier_drain_incomplete", "error", err)
			}
			bus.Close()
		})
	} else {
		logger.Info("live_updates_disabled")
	}
	app.DisplayUC = usecase.NewDisplayUseCase(postgres.NewDisplayRepository(db), postgres.NewDisplaySettingsRepository(db), courts, notifier)

	app.closeFn = func() {
		for _, closeFn := range closers {
			closeFn()
		}
		_ = db.Close()
	}
	return app, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

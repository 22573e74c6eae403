package cli

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vbonduro/shelflife/internal/changefeed"
	"github.com/vbonduro/shelflife/internal/config"
	"github.com/vbonduro/shelflife/internal/db"
	"github.com/vbonduro/shelflife/internal/logging"
	"github.com/vbonduro/shelflife/internal/metrics"
	"github.com/vbonduro/shelflife/internal/reminder"
	"github.com/vbonduro/shelflife/internal/service"
	"github.com/vbonduro/shelflife/internal/store"
	"github.com/vbonduro/shelflife/internal/viewmodel"
)

// app holds the wiring shared by every command. It is built once per
// invocation in the root command's PersistentPreRunE.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	database  *sql.DB
	feed      *changefeed.Feed
	products  *service.ProductService
	reminders *store.ReminderStore
	scheduler *reminder.Scheduler
	registry  *prometheus.Registry
	recorder  *metrics.PrometheusRecorder

	closers []func()
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, cleanupLog, err := logging.New(cfg.LogLevel, cfg.LogFile, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, closers: []func(){cleanupLog}}

	a.database, err = db.Open(cfg.DBPath)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := a.database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	})

	a.registry = prometheus.NewRegistry()
	a.recorder, err = metrics.NewPrometheusRecorder(a.registry)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	a.feed = changefeed.New()
	a.products = service.NewProductService(store.NewProductStore(a.database), a.feed, logger)
	a.reminders = store.NewReminderStore(a.database)
	a.scheduler = reminder.NewScheduler(a.reminders, cfg.NotificationsEnabled, cfg.ReminderLeadTime, logger)
	return a, nil
}

// controllerOptions configures controllers for a one-shot command: work runs
// inline and the retry backoff comes from the config.
func (a *app) controllerOptions() []viewmodel.BaseOption {
	return []viewmodel.BaseOption{
		viewmodel.WithLogger(a.logger),
		viewmodel.WithRecorder(a.recorder),
		viewmodel.WithBaseDelay(a.cfg.RetryBaseDelay),
	}
}

func (a *app) alertsConfig() viewmodel.AlertsConfig {
	return viewmodel.AlertsConfig{
		SoonExpiringDays: a.cfg.SoonExpiringDays,
		UpcomingDays:     a.cfg.UpcomingDays,
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"SwingSentinel/internal/collector"
	"SwingSentinel/internal/config"
	"SwingSentinel/internal/exit"
	"SwingSentinel/internal/ledger"
	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/notifier"
	"SwingSentinel/internal/recorder"
	"SwingSentinel/internal/report"
)

// App is a Runner wired from configuration together with the resources it owns.
type App struct {
	Runner   *Runner
	Metrics  *metrics.Metrics
	Telegram *notifier.TelegramNotifier // nil when Telegram is not configured

	store ledger.Store
	rec   recorder.Recorder
}

// Build wires every collaborator named by cfg. push enables the Pushgateway
// when cfg.Metrics.PushgatewayURL is set.
func Build(ctx context.Context, cfg *config.Config, push bool, log *zap.Logger) (*App, error) {
	fetcher, err := collector.New(cfg.DataSource.Provider, cfg.DataSource.BaseURL,
		cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.SymbolSuffix)
	if err != nil {
		return nil, fmt.Errorf("data source: %w", err)
	}

	costs, err := exit.NewCostModel(cfg.Fees.Schedule, cfg.Fees.FeeSchedule)
	if err != nil {
		return nil, err
	}

	store, err := ledger.OpenStore(ctx, ledger.Options{
		Backend:   cfg.Ledger.Backend,
		Path:      cfg.Ledger.Path,
		RedisAddr: cfg.Ledger.RedisAddr,
		RedisKey:  cfg.Ledger.RedisKey,
	})
	if err != nil {
		return nil, fmt.Errorf("ledger store: %w", err)
	}

	app := &App{Metrics: metrics.NewMetrics(), store: store}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sqliteRec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn("sqlite recorder unavailable, history disabled", zap.Error(err))
		} else {
			rec = sqliteRec
		}
	}
	app.rec = rec

	var notify notifier.Notifier = notifier.NoopNotifier{}
	if cfg.TelegramEnabled() {
		app.Telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		notify = app.Telegram
	} else {
		log.Info("telegram not configured, notifications disabled")
	}

	reports := report.NewWriter(cfg.Report.Dir)
	opts := Options{
		Symbols:   cfg.Symbols,
		Source:    collector.NewCollector(fetcher, cfg.DataSource.Interval, cfg.DataSource.Lookback),
		Windows:   cfg.Indicators.Windows,
		Rule:      cfg.Indicators.Rule,
		Ledger:    ledger.New(store, cfg.Ledger.DefaultUnits),
		Evaluator: exit.NewEvaluator(cfg.Exit, costs),
		Reports:   reports,
		Notifier:  notify,
		Recorder:  rec,
		Metrics:   app.Metrics,
		PushJob:   cfg.Metrics.Job,
	}
	if push {
		opts.PushURL = cfg.Metrics.PushgatewayURL
	}
	app.Runner = NewRunner(opts, log)

	log.Info("pipeline ready",
		zap.Strings("symbols", cfg.Symbols),
		zap.String("provider", fetcher.Name()),
		zap.String("ledger", string(cfg.Ledger.Backend)),
		zap.String("reports", reports.Dir()))
	return app, nil
}

// Close releases the ledger store and the history recorder.
func (a *App) Close() error {
	recErr := a.rec.Close()
	if err := a.store.Close(); err != nil {
		return err
	}
	return recErr
}

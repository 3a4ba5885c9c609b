package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"SwingSentinel/internal/config"
	apperr "SwingSentinel/internal/errors"
	"SwingSentinel/internal/logger"
	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/notifier"
	"SwingSentinel/internal/pipeline"
	"SwingSentinel/internal/scheduler"
)

func main() {
	cmd := &cli.Command{
		Name:  "sentinel",
		Usage: "Classify swing-trade signals and track open positions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config `FILE`",
				Value:   config.DefaultPath,
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
		},
		Action: runAction,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run one classification pass and exit",
				Action: runAction,
			},
			{
				Name:  "serve",
				Usage: "Run on a cron schedule with Telegram commands and a metrics endpoint",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "run-on-start",
						Usage:   "Run once immediately after starting",
						Sources: cli.EnvVars("RUN_ON_START"),
					},
				},
				Action: serveAction,
			},
			{
				Name:   "positions",
				Usage:  "Print the open positions ledger",
				Action: positionsAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "sentinel: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a fatal error to the process exit status.
func exitCode(err error) int {
	if apperr.HasCode(err, apperr.CodeInvalidConfig) {
		return 2
	}
	return 1
}

type env struct {
	cfg *config.Config
	log *zap.Logger
	app *pipeline.App
}

func setup(ctx context.Context, cmd *cli.Command, push bool) (*env, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app, err := pipeline.Build(ctx, cfg, push, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return &env{cfg: cfg, log: log, app: app}, nil
}

func (e *env) close() {
	if err := e.app.Close(); err != nil {
		e.log.Warn("close failed", zap.Error(err))
	}
	_ = e.log.Sync()
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer e.close()

	res, err := e.app.Runner.Run(ctx)
	if err != nil {
		e.log.Error("run failed", zap.Error(err))
		return err
	}
	if len(res.Failures) > 0 {
		e.log.Warn("some symbols were skipped", zap.Int("failed", len(res.Failures)))
	}
	return nil
}

func positionsAction(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer e.close()

	positions, err := e.app.Runner.OpenPositions(ctx)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		fmt.Println("no open positions")
		return nil
	}
	fmt.Printf("%-36s  %-12s  %12s  %-20s  %s\n", "ID", "SYMBOL", "ENTRY", "SINCE", "UNITS")
	for _, p := range positions {
		fmt.Printf("%-36s  %-12s  %12.2f  %-20s  %d\n",
			p.ID, p.Symbol, p.EntryPrice, p.EntryTime.Format(time.RFC3339), p.Units)
	}
	return nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer e.close()

	health := metrics.NewHealthStatus()
	srv := metrics.NewServer(e.cfg.Metrics.Addr, e.app.Metrics, health, e.log)
	srv.Start()

	sched := scheduler.NewScheduler(ctx, e.app.Runner, health, e.log)
	if err := sched.Register(e.cfg.Schedule.Cron); err != nil {
		return apperr.Wrap(apperr.CodeInvalidConfig, "register schedule", err)
	}
	sched.Start()

	if e.app.Telegram != nil {
		go e.app.Telegram.StartPolling(ctx, notifier.CommandHandler(sched.HandleCommand))
		e.log.Info("telegram polling started")
	}

	if cmd.Bool("run-on-start") {
		e.log.Info("run-on-start enabled, running now")
		go sched.RunNow()
	}

	e.log.Info("sentinel is running", zap.String("cron", e.cfg.Schedule.Cron), zap.String("metrics", e.cfg.Metrics.Addr))
	<-ctx.Done()

	e.log.Info("shutdown signal received, stopping")
	sched.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		e.log.Warn("metrics server shutdown", zap.Error(err))
	}
	return nil
}

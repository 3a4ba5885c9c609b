package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/model"
	"SwingSentinel/internal/notifier"
	"SwingSentinel/internal/pipeline"
)

// Job is the work a cron tick triggers.
type Job interface {
	Run(ctx context.Context) (*pipeline.Result, error)
	OpenPositions(ctx context.Context) ([]model.Position, error)
}

// Scheduler triggers runs on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron   *cron.Cron
	Job    Job
	Health *metrics.HealthStatus
	Ctx    context.Context
	log    *zap.Logger
}

// NewScheduler creates a Scheduler whose ticks are skipped while the previous
// run is still in progress.
func NewScheduler(ctx context.Context, job Job, health *metrics.HealthStatus, log *zap.Logger) *Scheduler {
	log = log.Named("scheduler")
	cronLog := cron.PrintfLogger(zap.NewStdLog(log))
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cronLog))),
		Job:    job,
		Health: health,
		Ctx:    ctx,
		log:    log,
	}
}

// Register schedules a run on spec (six fields, with seconds).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.RunNow); err != nil {
		return fmt.Errorf("register run task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started", zap.Int("entries", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow executes one run immediately.
func (s *Scheduler) RunNow() {
	_, _ = s.run(s.Ctx)
}

func (s *Scheduler) run(ctx context.Context) (*pipeline.Result, error) {
	s.log.Info("running")
	res, err := s.Job.Run(ctx)
	if s.Health != nil {
		s.Health.RecordRun(time.Now(), err)
	}
	if err != nil {
		s.log.Error("run failed", zap.Error(err))
		return res, err
	}
	s.log.Info("run finished",
		zap.Int("classified", len(res.Classifications)),
		zap.Int("opened", len(res.Opened)),
		zap.Int("exits", len(res.Exits)),
		zap.Int("failed", len(res.Failures)))
	return res, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	var cmd string
	if fields := strings.Fields(command); len(fields) > 0 {
		// "/run@SomeBot" in group chats
		cmd, _, _ = strings.Cut(fields[0], "@")
	}

	switch cmd {
	case "/positions":
		positions, err := s.Job.OpenPositions(ctx)
		if err != nil {
			return fmt.Sprintf("❌ ledger unavailable: %v", err)
		}
		return notifier.FormatPositions(positions)
	case "/run":
		res, err := s.run(ctx)
		if err != nil {
			return fmt.Sprintf("❌ run failed: %v", err)
		}
		return fmt.Sprintf("✅ run finished: %d classified, %d opened, %d exits",
			len(res.Classifications), len(res.Opened), len(res.Exits))
	default:
		return notifier.FormatHelp()
	}
}

// Package pipeline runs one classification pass over the configured symbols.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"SwingSentinel/internal/calculator"
	"SwingSentinel/internal/collector"
	apperr "SwingSentinel/internal/errors"
	"SwingSentinel/internal/exit"
	"SwingSentinel/internal/ledger"
	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/model"
	"SwingSentinel/internal/notifier"
	"SwingSentinel/internal/recorder"
	"SwingSentinel/internal/strategy"
)

// BarSource returns cleaned bars for one symbol.
type BarSource interface {
	Collect(ctx context.Context, symbol string) ([]model.Bar, error)
}

// ReportSink renders the outcome of a run.
type ReportSink interface {
	Write(at time.Time, signals []model.Classification, exits []model.ExitEvent) error
}

// SymbolFailure is a symbol skipped in a run.
type SymbolFailure struct {
	Symbol string
	Err    error
}

// Result is the outcome of one Run.
type Result struct {
	At              time.Time
	Classifications []model.Classification
	Opened          []model.Position
	Exits           []model.ExitEvent
	Open            []model.Position
	Failures        []SymbolFailure
}

// Options carries the collaborators of a Runner. Notifier, Recorder and
// Metrics are optional.
type Options struct {
	Symbols   []string
	Source    BarSource
	Windows   calculator.Windows
	Rule      strategy.Rule
	Ledger    *ledger.Ledger
	Evaluator *exit.Evaluator
	Reports   ReportSink
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	PushURL   string
	PushJob   string
	Now       func() time.Time
}

// Runner executes runs one at a time.
type Runner struct {
	mu   sync.Mutex
	opts Options
	log  *zap.Logger
}

func NewRunner(opts Options, log *zap.Logger) *Runner {
	if opts.Notifier == nil {
		opts.Notifier = notifier.NoopNotifier{}
	}
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{opts: opts, log: log.Named("pipeline")}
}

// Run performs one invocation: load the ledger, classify every symbol, open
// positions for BUYs, evaluate exits, save the ledger, then write reports,
// notifications, history and metrics. Only a ledger save failure is returned
// as an error; every other failure is logged and the run continues.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := r.opts.Now()
	res, err := r.run(ctx, started)
	r.observe(ctx, started, res, err)
	return res, err
}

func (r *Runner) run(ctx context.Context, at time.Time) (*Result, error) {
	res := &Result{At: at}

	if err := r.opts.Ledger.Load(ctx); err != nil {
		r.log.Warn("ledger load failed, continuing with empty ledger", zap.Error(err))
	}

	prices := make(map[string]float64, len(r.opts.Symbols))
	for _, symbol := range r.opts.Symbols {
		c, price, err := r.processSymbol(ctx, symbol)
		if price > 0 {
			prices[symbol] = price
		}
		if err != nil {
			r.log.Warn("symbol skipped", zap.String("symbol", symbol), zap.Error(err))
			res.Failures = append(res.Failures, SymbolFailure{Symbol: symbol, Err: err})
			continue
		}
		res.Classifications = append(res.Classifications, c)
	}

	res.Opened = r.opts.Ledger.RecordBuys(res.Classifications)
	for _, p := range res.Opened {
		r.log.Info("position opened", zap.String("symbol", p.Symbol), zap.String("id", p.ID), zap.Float64("price", p.EntryPrice))
	}

	remaining, exits := r.opts.Evaluator.Evaluate(r.opts.Ledger.Positions(), prices)
	for _, e := range exits {
		r.log.Info("position closed", zap.String("symbol", e.Symbol), zap.String("action", string(e.Action)),
			zap.Float64("net_profit", e.NetProfit))
	}
	res.Exits = exits

	r.opts.Ledger.Replace(remaining)
	// a shutdown mid-run must not drop the positions opened above
	if err := r.opts.Ledger.Save(context.WithoutCancel(ctx)); err != nil {
		r.log.Error("ledger save failed", zap.Error(err))
		return res, err
	}
	res.Open = remaining

	if err := r.opts.Reports.Write(at, res.Classifications, res.Exits); err != nil {
		r.log.Error("report write failed", zap.Error(err))
	}
	r.notify(ctx, res)
	r.record(ctx, res)
	return res, nil
}

// processSymbol fetches and classifies one symbol. price is the latest close
// whenever bars were fetched, even if there were too few to classify. A panic
// is converted into a CodeSymbolFailure error.
func (r *Runner) processSymbol(ctx context.Context, symbol string) (c model.Classification, price float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = apperr.Newf(apperr.CodeSymbolFailure, "panic processing %s: %v", symbol, p)
		}
	}()

	bars, err := r.opts.Source.Collect(ctx, symbol)
	if err != nil {
		return c, 0, err
	}
	price, _ = collector.LastClose(bars)

	snaps, err := calculator.CalculateSnapshots(bars, r.opts.Windows)
	if err != nil {
		return c, price, apperr.Wrapf(apperr.CodeSymbolFailure, err, "indicators for %s", symbol)
	}
	c, ok := strategy.Evaluate(symbol, snaps, r.opts.Rule)
	if !ok {
		return c, price, apperr.Newf(apperr.CodeDataUnavailable,
			"%s: %d bars, need %d", symbol, len(bars), r.opts.Windows.MinBars()+1)
	}
	r.log.Debug("classified", zap.String("symbol", symbol), zap.String("label", string(c.Label)))
	return c, price, nil
}

func (r *Runner) notify(ctx context.Context, res *Result) {
	var messages []string
	for _, c := range res.Classifications {
		if c.IsBuy() {
			messages = append(messages, notifier.FormatBuy(c))
		}
	}
	for _, e := range res.Exits {
		messages = append(messages, notifier.FormatExit(e))
	}
	messages = append(messages, notifier.FormatSummary(notifier.Summary{
		At:              res.At,
		Classifications: res.Classifications,
		Exits:           res.Exits,
		OpenPositions:   len(res.Open),
		FailedSymbols:   lo.Map(res.Failures, func(f SymbolFailure, _ int) string { return f.Symbol }),
	}))

	for _, msg := range messages {
		if err := r.opts.Notifier.Send(ctx, msg); err != nil {
			r.log.Warn("notification failed", zap.Error(err))
			if r.opts.Metrics != nil {
				r.opts.Metrics.NotifyFailuresTotal.Inc()
			}
		}
	}
}

func (r *Runner) record(ctx context.Context, res *Result) {
	if err := r.opts.Recorder.RecordClassifications(ctx, res.At, res.Classifications); err != nil {
		r.log.Warn("record classifications failed", zap.Error(err))
	}
	if len(res.Exits) > 0 {
		if err := r.opts.Recorder.RecordExits(ctx, res.Exits); err != nil {
			r.log.Warn("record exits failed", zap.Error(err))
		}
	}
}

func (r *Runner) observe(ctx context.Context, started time.Time, res *Result, err error) {
	m := r.opts.Metrics
	if m == nil {
		return
	}
	for _, c := range res.Classifications {
		m.ClassificationsTotal.WithLabelValues(string(c.Label)).Inc()
	}
	for _, e := range res.Exits {
		m.ExitsTotal.WithLabelValues(string(e.Action)).Inc()
	}
	for _, f := range res.Failures {
		m.SymbolFailuresTotal.WithLabelValues(apperr.GetCode(f.Err).String()).Inc()
	}
	if err == nil {
		m.OpenPositions.Set(float64(len(res.Open)))
	}
	m.ObserveRun(started, err)

	if r.opts.PushURL != "" {
		if perr := m.Push(ctx, r.opts.PushURL, r.opts.PushJob); perr != nil {
			r.log.Warn("metrics push failed", zap.Error(perr))
		}
	}
}

// OpenPositions loads and returns the stored ledger without running.
func (r *Runner) OpenPositions(ctx context.Context) ([]model.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.opts.Ledger.Load(ctx); err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return r.opts.Ledger.Positions(), nil
}

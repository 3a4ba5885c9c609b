package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"SwingSentinel/internal/calculator"
	apperr "SwingSentinel/internal/errors"
	"SwingSentinel/internal/exit"
	"SwingSentinel/internal/ledger"
	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/model"
	"SwingSentinel/internal/strategy"
)

type mockSource struct{ mock.Mock }

func (m *mockSource) Collect(ctx context.Context, symbol string) ([]model.Bar, error) {
	args := m.Called(ctx, symbol)
	bars, _ := args.Get(0).([]model.Bar)
	return bars, args.Error(1)
}

type mockReports struct{ mock.Mock }

func (m *mockReports) Write(at time.Time, signals []model.Classification, exits []model.ExitEvent) error {
	return m.Called(at, signals, exits).Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Send(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) Load(ctx context.Context) ([]model.Position, error) {
	args := m.Called(ctx)
	positions, _ := args.Get(0).([]model.Position)
	return positions, args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, positions []model.Position) error {
	return m.Called(ctx, positions).Error(0)
}

func (m *mockStore) Close() error { return nil }

// buyCloses ends with the RSI crossing up through 30 (24 -> 32) while MACD
// stays below its signal line on both of the last two bars.
var buyCloses = []float64{
	100.0, 99.0, 98.5, 97.5, 96.5, 97.0, 97.5, 98.0, 96.5, 95.5,
	96.0, 96.5, 97.5, 97.0, 96.0, 96.5, 97.5, 97.0, 97.5, 97.0,
	97.5, 96.5, 95.5, 94.0, 93.0, 92.0, 91.0, 90.0, 88.5, 89.0,
	90.0, 89.0, 88.5, 88.0, 86.5, 85.5, 86.0, 87.0, 86.5, 87.5,
}

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func barsFrom(closes []float64) []model.Bar {
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{Time: day0.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return bars
}

func rising(n int, from float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)
	}
	return out
}

type RunnerTestSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	source   *mockSource
	reports  *mockReports
	notifier *mockNotifier
	metrics  *metrics.Metrics
	path     string
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

func (suite *RunnerTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.now = time.Date(2024, 2, 9, 16, 0, 0, 0, time.UTC)
	suite.source = new(mockSource)
	suite.reports = new(mockReports)
	suite.notifier = new(mockNotifier)
	suite.metrics = metrics.NewMetrics()
	suite.path = filepath.Join(suite.T().TempDir(), "ledger.json")

	suite.source.On("Collect", mock.Anything, "BUYME").Return(barsFrom(buyCloses), nil)
	suite.source.On("Collect", mock.Anything, "RISE").Return(barsFrom(rising(40, 100)), nil)
	suite.source.On("Collect", mock.Anything, "DOWN").Return(nil, errors.New("connection refused"))
	suite.source.On("Collect", mock.Anything, "SHORT").Return(barsFrom([]float64{200, 195, 190}), nil)
	suite.source.On("Collect", mock.Anything, "PANIC").Panic("malformed payload")
}

func (suite *RunnerTestSuite) runner(store ledger.Store) *Runner {
	clock := func() time.Time { return suite.now }
	return NewRunner(Options{
		Symbols:   []string{"BUYME", "RISE", "DOWN", "SHORT", "PANIC"},
		Source:    suite.source,
		Windows:   calculator.DefaultWindows(),
		Rule:      strategy.DefaultRule(),
		Ledger:    ledger.New(store, 1),
		Evaluator: exit.NewEvaluator(exit.DefaultThresholds(), exit.ZeroFees{}).WithClock(clock),
		Reports:   suite.reports,
		Notifier:  suite.notifier,
		Metrics:   suite.metrics,
		Now:       clock,
	}, zap.NewNop())
}

func (suite *RunnerTestSuite) seedLedger() {
	err := ledger.NewFileStore(suite.path).Save(suite.ctx, []model.Position{
		{ID: "rise-1", Symbol: "RISE", EntryPrice: 130, EntryTime: day0, Units: 1},
		{ID: "short-1", Symbol: "SHORT", EntryPrice: 200, EntryTime: day0, Units: 1},
		{ID: "other-1", Symbol: "UNTRACKED", EntryPrice: 10, EntryTime: day0, Units: 1},
	})
	suite.Require().NoError(err)
}

func symbols[T any](items []T, symbol func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = symbol(it)
	}
	return out
}

func (suite *RunnerTestSuite) TestFullRun() {
	suite.seedLedger()
	suite.reports.On("Write", suite.now, mock.Anything, mock.Anything).Return(nil)
	suite.notifier.On("Send", mock.Anything, mock.Anything).Return(nil)

	res, err := suite.runner(ledger.NewFileStore(suite.path)).Run(suite.ctx)
	suite.Require().NoError(err)

	suite.Require().Len(res.Classifications, 2)
	suite.Equal("BUYME", res.Classifications[0].Symbol)
	suite.Equal(model.LabelBuy, res.Classifications[0].Label)
	suite.Equal(87.5, res.Classifications[0].Price)
	suite.Equal(model.LabelNone, res.Classifications[1].Label)
	suite.True(res.Classifications[1].RSI.IsNone(), "rising series has undefined RSI")

	suite.Equal([]string{"DOWN", "SHORT", "PANIC"}, symbols(res.Failures, func(f SymbolFailure) string { return f.Symbol }))
	suite.True(apperr.HasCode(res.Failures[1].Err, apperr.CodeDataUnavailable))
	suite.True(apperr.HasCode(res.Failures[2].Err, apperr.CodeSymbolFailure))

	suite.Require().Len(res.Opened, 1)
	suite.Equal(87.5, res.Opened[0].EntryPrice)

	// RISE: 139 vs 130 books profit; SHORT: too little history to classify
	// but its last close still prices the open position (190 vs 200).
	suite.Require().Len(res.Exits, 2)
	suite.Equal("rise-1", res.Exits[0].PositionID)
	suite.Equal(model.ExitProfitBook, res.Exits[0].Action)
	suite.Equal("short-1", res.Exits[1].PositionID)
	suite.Equal(model.ExitStopLoss, res.Exits[1].Action)
	suite.Equal(suite.now, res.Exits[1].ExitTime)

	suite.Equal([]string{"UNTRACKED", "BUYME"}, symbols(res.Open, func(p model.Position) string { return p.Symbol }))
	stored, err := ledger.NewFileStore(suite.path).Load(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(res.Open, stored)

	suite.reports.AssertCalled(suite.T(), "Write", suite.now, res.Classifications, res.Exits)
	// one BUY, two exits, one summary
	suite.notifier.AssertNumberOfCalls(suite.T(), "Send", 4)

	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.ClassificationsTotal.WithLabelValues("BUY")))
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.ExitsTotal.WithLabelValues("STOP_LOSS")))
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.SymbolFailuresTotal.WithLabelValues("SYMBOL_FAILURE")))
	suite.Equal(2.0, testutil.ToFloat64(suite.metrics.OpenPositions))
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.RunsTotal.WithLabelValues("ok")))
}

func (suite *RunnerTestSuite) TestSecondRunDoesNotRepeatExits() {
	suite.seedLedger()
	suite.reports.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	suite.notifier.On("Send", mock.Anything, mock.Anything).Return(nil)
	r := suite.runner(ledger.NewFileStore(suite.path))

	first, err := r.Run(suite.ctx)
	suite.Require().NoError(err)
	second, err := r.Run(suite.ctx)
	suite.Require().NoError(err)

	suite.Equal(first.Classifications, second.Classifications)
	suite.Len(first.Exits, 2)
	suite.Empty(second.Exits)
	// repeated BUYs are not deduplicated
	suite.Equal([]string{"UNTRACKED", "BUYME", "BUYME"}, symbols(second.Open, func(p model.Position) string { return p.Symbol }))
	suite.reports.AssertCalled(suite.T(), "Write", suite.now, second.Classifications, []model.ExitEvent(nil))
}

func (suite *RunnerTestSuite) TestLedgerSaveFailureIsFatal() {
	store := new(mockStore)
	store.On("Load", mock.Anything).Return([]model.Position{}, nil)
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("read-only file system"))

	res, err := suite.runner(store).Run(suite.ctx)

	suite.Require().Error(err)
	suite.True(apperr.HasCode(err, apperr.CodeLedgerWrite))
	suite.NotNil(res)
	suite.reports.AssertNotCalled(suite.T(), "Write", mock.Anything, mock.Anything, mock.Anything)
	suite.notifier.AssertNotCalled(suite.T(), "Send", mock.Anything, mock.Anything)
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.RunsTotal.WithLabelValues("failed")))
}

func (suite *RunnerTestSuite) TestLedgerSavedAfterCancellation() {
	ctx, cancel := context.WithCancel(suite.ctx)
	cancel()

	store := new(mockStore)
	store.On("Load", mock.Anything).Return([]model.Position{}, nil)
	store.On("Save", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything).
		Return(nil).Once()
	suite.reports.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	suite.notifier.On("Send", mock.Anything, mock.Anything).Return(nil)

	res, err := suite.runner(store).Run(ctx)

	suite.Require().NoError(err)
	suite.Require().Len(res.Opened, 1)
	store.AssertExpectations(suite.T())
}

func (suite *RunnerTestSuite) TestCorruptLedgerStartsEmpty() {
	suite.Require().NoError(os.WriteFile(suite.path, []byte("{{{"), 0o644))
	suite.reports.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	suite.notifier.On("Send", mock.Anything, mock.Anything).Return(nil)

	res, err := suite.runner(ledger.NewFileStore(suite.path)).Run(suite.ctx)

	suite.Require().NoError(err)
	suite.Empty(res.Exits)
	suite.Equal([]string{"BUYME"}, symbols(res.Open, func(p model.Position) string { return p.Symbol }))
}

func (suite *RunnerTestSuite) TestReportAndNotificationFailuresAreNotFatal() {
	suite.seedLedger()
	suite.reports.On("Write", mock.Anything, mock.Anything, mock.Anything).
		Return(apperr.New(apperr.CodeReportFailure, "disk full"))
	suite.notifier.On("Send", mock.Anything, mock.Anything).
		Return(apperr.New(apperr.CodeNotificationFailure, "telegram down"))

	res, err := suite.runner(ledger.NewFileStore(suite.path)).Run(suite.ctx)

	suite.Require().NoError(err)
	suite.Len(res.Exits, 2)
	suite.notifier.AssertNumberOfCalls(suite.T(), "Send", 4)
	suite.Equal(4.0, testutil.ToFloat64(suite.metrics.NotifyFailuresTotal))
}

func (suite *RunnerTestSuite) TestOpenPositions() {
	suite.seedLedger()
	positions, err := suite.runner(ledger.NewFileStore(suite.path)).OpenPositions(suite.ctx)
	suite.Require().NoError(err)
	suite.Len(positions, 3)

	_, err = suite.runner(ledger.NewFileStore(filepath.Join(suite.T().TempDir(), "absent", "x.json"))).OpenPositions(suite.ctx)
	suite.NoError(err, "missing ledger is empty")
}

package scheduler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/model"
	"SwingSentinel/internal/pipeline"
)

type mockJob struct {
	mock.Mock
}

func (m *mockJob) Run(ctx context.Context) (*pipeline.Result, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*pipeline.Result)
	return res, args.Error(1)
}

func (m *mockJob) OpenPositions(ctx context.Context) ([]model.Position, error) {
	args := m.Called(ctx)
	positions, _ := args.Get(0).([]model.Position)
	return positions, args.Error(1)
}

func newTestScheduler(job Job, health *metrics.HealthStatus) *Scheduler {
	return NewScheduler(context.Background(), job, health, zap.NewNop())
}

func TestRegister_RejectsBadSpec(t *testing.T) {
	s := newTestScheduler(&mockJob{}, nil)
	assert.Error(t, s.Register("not a cron spec"))
	assert.Empty(t, s.Cron.Entries())

	require.NoError(t, s.Register("0 45 15 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)
}

func TestRunNow_RecordsHealth(t *testing.T) {
	job := &mockJob{}
	job.On("Run", mock.Anything).Return(nil, errors.New("ledger write failed")).Once()
	health := metrics.NewHealthStatus()

	s := newTestScheduler(job, health)
	s.RunNow()

	rec := httptest.NewRecorder()
	health.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	job.AssertExpectations(t)
}

func TestHandleCommand_Positions(t *testing.T) {
	job := &mockJob{}
	job.On("OpenPositions", mock.Anything).Return([]model.Position{
		{ID: "p1", Symbol: "INFY", EntryPrice: 1450.5, EntryTime: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), Units: 2},
	}, nil)

	reply := newTestScheduler(job, nil).HandleCommand(context.Background(), "/positions")
	assert.Contains(t, reply, "INFY × 2 @ 1450.50 since 2024-03-01")
}

func TestHandleCommand_PositionsError(t *testing.T) {
	job := &mockJob{}
	job.On("OpenPositions", mock.Anything).Return(nil, errors.New("corrupt"))

	reply := newTestScheduler(job, nil).HandleCommand(context.Background(), "/positions@SentinelBot")
	assert.Contains(t, reply, "ledger unavailable: corrupt")
}

func TestHandleCommand_Run(t *testing.T) {
	job := &mockJob{}
	job.On("Run", mock.Anything).Return(&pipeline.Result{
		Classifications: make([]model.Classification, 3),
		Opened:          make([]model.Position, 1),
	}, nil).Once()
	job.On("Run", mock.Anything).Return(nil, errors.New("boom")).Once()

	s := newTestScheduler(job, metrics.NewHealthStatus())
	assert.Equal(t, "✅ run finished: 3 classified, 1 opened, 0 exits", s.HandleCommand(context.Background(), "/run"))
	assert.Equal(t, "❌ run failed: boom", s.HandleCommand(context.Background(), "/run now"))
	job.AssertExpectations(t)
}

func TestHandleCommand_Help(t *testing.T) {
	s := newTestScheduler(&mockJob{}, nil)
	for _, cmd := range []string{"/help", "/start", "hello", ""} {
		assert.Contains(t, s.HandleCommand(context.Background(), cmd), "/positions", cmd)
	}
}

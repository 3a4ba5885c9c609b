package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthStatus tracks the outcome of the most recent run.
type HealthStatus struct {
	mu        sync.RWMutex
	startedAt time.Time
	lastRun   time.Time
	lastErr   string
}

func NewHealthStatus() *HealthStatus {
	return &HealthStatus{startedAt: time.Now()}
}

// RecordRun stores the result of a finished run.
func (h *HealthStatus) RecordRun(at time.Time, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastRun = at
	h.lastErr = ""
	if err != nil {
		h.lastErr = err.Error()
	}
}

// ServeHTTP handles the /healthz endpoint. A failed last run reports 503.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := struct {
		Status    string `json:"status"`
		Uptime    string `json:"uptime"`
		LastRunAt string `json:"last_run_at,omitempty"`
		LastError string `json:"last_error,omitempty"`
	}{
		Status:    "healthy",
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		LastError: h.lastErr,
	}
	if !h.lastRun.IsZero() {
		status.LastRunAt = h.lastRun.Format(time.RFC3339)
	}

	code := http.StatusOK
	if h.lastErr != "" {
		status.Status = "degraded"
		code = http.StatusServiceUnavailable
	}

	body, _ := sonic.Marshal(status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
	log  *zap.Logger
}

// NewServer creates a metrics and health server.
func NewServer(addr string, m *Metrics, health *HealthStatus, log *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)

	return &Server{
		addr: addr,
		log:  log.Named("metrics"),
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("server listening", zap.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server error", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

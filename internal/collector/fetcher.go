package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"SwingSentinel/internal/model"
)

// Bar intervals understood by every Fetcher.
const (
	IntervalDaily  = "1d"
	IntervalWeekly = "1wk"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchBars returns up to lookback bars for symbol, oldest first.
	FetchBars(ctx context.Context, symbol, interval string, lookback int) ([]model.Bar, error)
	Name() string
}

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func lastN(bars []model.Bar, n int) []model.Bar {
	if n > 0 && len(bars) > n {
		return bars[len(bars)-n:]
	}
	return bars
}

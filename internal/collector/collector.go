package collector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	apperr "SwingSentinel/internal/errors"
	"SwingSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols without an entry in Bars get a generated oscillating series.
type MockFetcher struct {
	Price  float64
	Bars   map[string][]model.Bar
	Errors map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, symbol, interval string, lookback int) ([]model.Bar, error) {
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	step := 24 * time.Hour
	if interval == IntervalWeekly {
		step *= 7
	}
	return generateMockBars(m.Price, lookback, step), nil
}

func generateMockBars(basePrice float64, count int, step time.Duration) []model.Bar {
	if basePrice <= 0 {
		basePrice = 100
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.05*math.Sin(float64(i)/5))
		bars[i] = model.Bar{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches bars for one symbol at a time and cleans them up.
type Collector struct {
	Fetcher  Fetcher
	Interval string
	Lookback int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, interval string, lookback int) *Collector {
	return &Collector{Fetcher: fetcher, Interval: interval, Lookback: lookback}
}

// Collect fetches bars for symbol and returns them sorted by time with
// duplicate timestamps collapsed to the last occurrence. An empty result or a
// bar with a non-finite or non-positive close is a CodeDataUnavailable error.
func (c *Collector) Collect(ctx context.Context, symbol string) ([]model.Bar, error) {
	bars, err := c.Fetcher.FetchBars(ctx, symbol, c.Interval, c.Lookback)
	if err != nil {
		return nil, apperr.Wrapf(apperr.CodeDataUnavailable, err, "%s: fetch %s bars for %s", c.Fetcher.Name(), c.Interval, symbol)
	}
	if len(bars) == 0 {
		return nil, apperr.Newf(apperr.CodeDataUnavailable, "%s: no bars for %s", c.Fetcher.Name(), symbol)
	}
	return sanitize(symbol, bars)
}

func sanitize(symbol string, bars []model.Bar) ([]model.Bar, error) {
	sorted := make([]model.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	out := make([]model.Bar, 0, len(sorted))
	for _, b := range sorted {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) || b.Close <= 0 {
			return nil, apperr.Newf(apperr.CodeDataUnavailable, "malformed close %v for %s at %s", b.Close, symbol, b.Time.Format(time.RFC3339))
		}
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// LastClose returns the close of the latest bar, if any.
func LastClose(bars []model.Bar) (float64, bool) {
	return lo.LastOrEmpty(bars).Close, len(bars) > 0
}

// New builds the Fetcher for provider.
func New(provider, baseURL, apiKey, proxyURL, suffix string) (Fetcher, error) {
	switch provider {
	case "yahoo", "":
		return NewYahooFetcher(proxyURL, suffix), nil
	case "rest":
		if baseURL == "" {
			return nil, fmt.Errorf("rest provider requires base_url")
		}
		return NewRESTFetcher(baseURL, apiKey, proxyURL), nil
	case "polygon":
		return NewPolygonFetcher(apiKey)
	case "mock":
		return &MockFetcher{Price: 100}, nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", provider)
	}
}

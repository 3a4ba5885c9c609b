package collector

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"SwingSentinel/internal/model"
)

type aggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonFetcher implements Fetcher using Polygon.io aggregates.
type PolygonFetcher struct {
	listAggs func(ctx context.Context, params *models.ListAggsParams) aggsIterator
	now      func() time.Time
}

func NewPolygonFetcher(apiKey string) (*PolygonFetcher, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("polygon api key is required")
	}
	client := polygon.New(apiKey)
	return &PolygonFetcher{
		listAggs: func(ctx context.Context, params *models.ListAggsParams) aggsIterator {
			return client.ListAggs(ctx, params)
		},
		now: time.Now,
	}, nil
}

func (f *PolygonFetcher) Name() string { return "polygon" }

// polygonWindow maps an interval to a timespan and a calendar window wide
// enough to hold lookback sessions across weekends and holidays.
func polygonWindow(interval string, lookback int) (models.Timespan, time.Duration) {
	if interval == IntervalWeekly {
		return models.Week, time.Duration(lookback+2) * 7 * 24 * time.Hour
	}
	return models.Day, time.Duration(lookback*3/2+10) * 24 * time.Hour
}

func (f *PolygonFetcher) FetchBars(ctx context.Context, symbol, interval string, lookback int) ([]model.Bar, error) {
	timespan, window := polygonWindow(interval, lookback)
	end := f.now()

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   timespan,
		From:       models.Millis(end.Add(-window)),
		To:         models.Millis(end),
	}.WithLimit(50000)

	iter := f.listAggs(ctx, params)
	var bars []model.Bar
	for iter.Next() {
		agg := iter.Item()
		bars = append(bars, model.Bar{
			Time:   time.Time(agg.Timestamp).UTC(),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("polygon aggregates %s: %w", symbol, err)
	}
	return lastN(bars, lookback), nil
}

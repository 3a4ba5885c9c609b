package recorder

import (
	"context"
	"time"

	"SwingSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordClassifications(context.Context, time.Time, []model.Classification) error {
	return nil
}
func (n *NoopRecorder) RecordExits(context.Context, []model.ExitEvent) error { return nil }
func (n *NoopRecorder) Close() error                                         { return nil }

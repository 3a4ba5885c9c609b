package recorder

import (
	"context"
	"time"

	"SwingSentinel/internal/model"
)

// Recorder appends run history for later analysis. Nothing in a run reads it back.
type Recorder interface {
	RecordClassifications(ctx context.Context, runAt time.Time, classifications []model.Classification) error
	RecordExits(ctx context.Context, exits []model.ExitEvent) error
	Close() error
}

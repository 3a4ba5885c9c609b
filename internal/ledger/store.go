package ledger

import (
	"context"

	"github.com/bytedance/sonic"

	"SwingSentinel/internal/model"
)

// Store persists the full set of open positions. Save replaces the stored
// set atomically: a reader sees either the previous set or the new one.
type Store interface {
	Load(ctx context.Context) ([]model.Position, error)
	Save(ctx context.Context, positions []model.Position) error
	Close() error
}

// document is the on-disk and in-Redis layout of the ledger.
type document struct {
	Positions []model.Position `json:"positions"`
}

func encode(positions []model.Position) ([]byte, error) {
	if positions == nil {
		positions = []model.Position{}
	}
	return sonic.ConfigStd.MarshalIndent(document{Positions: positions}, "", "  ")
}

func decode(data []byte) ([]model.Position, error) {
	var doc document
	if err := sonic.ConfigStd.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Positions, nil
}

// Package ledger tracks open positions across independent runs.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	apperr "SwingSentinel/internal/errors"
	"SwingSentinel/internal/model"
)

// Ledger holds the open positions of one run between Load and Save.
type Ledger struct {
	mu           sync.Mutex
	store        Store
	positions    []model.Position
	defaultUnits int64
	newID        func() string
}

// New creates a Ledger over store. Positions opened by RecordBuys get
// defaultUnits units (at least 1).
func New(store Store, defaultUnits int64) *Ledger {
	if defaultUnits < 1 {
		defaultUnits = 1
	}
	return &Ledger{
		store:        store,
		defaultUnits: defaultUnits,
		newID:        func() string { return uuid.NewString() },
	}
}

// Load replaces the in-memory positions with the stored set. When the store
// cannot be read or decoded the ledger starts empty and the returned error
// carries CodeCorruptLedger; callers log it and continue.
func (l *Ledger) Load(ctx context.Context) error {
	positions, err := l.store.Load(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.positions = nil
		return apperr.Wrap(apperr.CodeCorruptLedger, "ledger unreadable, starting empty", err)
	}
	l.positions = positions
	return nil
}

// RecordBuys appends one new position per BUY classification and returns the
// positions it opened. Repeated BUYs for a symbol each open their own position.
func (l *Ledger) RecordBuys(classifications []model.Classification) []model.Position {
	buys := lo.Filter(classifications, func(c model.Classification, _ int) bool { return c.IsBuy() })

	l.mu.Lock()
	defer l.mu.Unlock()

	opened := make([]model.Position, 0, len(buys))
	for _, c := range buys {
		opened = append(opened, model.Position{
			ID:         l.newID(),
			Symbol:     c.Symbol,
			EntryPrice: c.Price,
			EntryTime:  c.Time,
			Units:      l.defaultUnits,
		})
	}
	l.positions = append(l.positions, opened...)
	return opened
}

// Positions returns a copy of the open positions in ledger order.
func (l *Ledger) Positions() []model.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Position, len(l.positions))
	copy(out, l.positions)
	return out
}

// Replace installs positions as the open set, typically the remainder after
// exit evaluation.
func (l *Ledger) Replace(positions []model.Position) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.positions = append([]model.Position(nil), positions...)
}

// Save persists the open set. Failure carries CodeLedgerWrite.
func (l *Ledger) Save(ctx context.Context) error {
	positions := l.Positions()
	if err := l.store.Save(ctx, positions); err != nil {
		return apperr.Wrapf(apperr.CodeLedgerWrite, err, "save %d positions", len(positions))
	}
	return nil
}

// Backend selects a Store implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
)

// Options configures OpenStore.
type Options struct {
	Backend   Backend
	Path      string
	RedisAddr string
	RedisKey  string
}

// OpenStore builds the Store named by opts.Backend.
func OpenStore(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStore(opts.Path), nil
	case BackendSQLite:
		return NewSQLiteStore(opts.Path)
	case BackendRedis:
		return NewRedisStore(ctx, opts.RedisAddr, opts.RedisKey)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", opts.Backend)
	}
}

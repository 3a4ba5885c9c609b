package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"SwingSentinel/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *zap.Logger) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (dashboards read while runs write).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.Named("recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS classifications (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_at      INTEGER NOT NULL,
			bar_time    INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			price       REAL,
			macd        REAL,
			macd_signal REAL,
			rsi         REAL,
			label       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_classifications_symbol ON classifications(symbol, bar_time)`,

		`CREATE TABLE IF NOT EXISTS exit_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			position_id TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			action      TEXT NOT NULL,
			entry_price REAL,
			exit_price  REAL,
			unit_count  INTEGER,
			profit_pct  REAL,
			net_profit  REAL,
			total_cost  REAL,
			entry_time  INTEGER,
			exit_time   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exit_events_ts ON exit_events(exit_time)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordClassifications(ctx context.Context, runAt time.Time, classifications []model.Classification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for _, c := range classifications {
		// NULL when RSI is undefined
		var rsi sql.NullFloat64
		if v, err := c.RSI.Take(); err == nil {
			rsi = sql.NullFloat64{Float64: v, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO classifications
			(run_at, bar_time, symbol, price, macd, macd_signal, rsi, label)
			VALUES (?,?,?,?,?,?,?,?)`,
			runAt.Unix(), c.Time.Unix(), c.Symbol, c.Price, c.MACD, c.MACDSignal, rsi, string(c.Label),
		); err != nil {
			return fmt.Errorf("insert classification %s: %w", c.Symbol, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordExits(ctx context.Context, exits []model.ExitEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range exits {
		_, err := r.db.ExecContext(ctx, `INSERT INTO exit_events
			(position_id, symbol, action, entry_price, exit_price, unit_count,
			 profit_pct, net_profit, total_cost, entry_time, exit_time)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			e.PositionID, e.Symbol, string(e.Action), e.EntryPrice, e.ExitPrice, e.Units,
			e.ProfitPct, e.NetProfit, e.TotalCost, e.EntryTime.Unix(), e.ExitTime.Unix(),
		)
		if err != nil {
			return fmt.Errorf("insert exit %s: %w", e.PositionID, err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}

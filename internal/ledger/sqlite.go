package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"SwingSentinel/internal/model"
)

// SQLiteStore keeps the ledger in a single table, rewritten per save.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS positions (
		seq         INTEGER PRIMARY KEY,
		id          TEXT NOT NULL UNIQUE,
		symbol      TEXT NOT NULL,
		entry_price REAL NOT NULL,
		entry_time  INTEGER NOT NULL,
		unit_count  INTEGER NOT NULL
	)`)
	return err
}

// Load returns positions in the order they were saved.
func (s *SQLiteStore) Load(ctx context.Context) ([]model.Position, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, symbol, entry_price, entry_time, unit_count FROM positions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	var positions []model.Position
	for rows.Next() {
		var (
			p     model.Position
			nanos int64
		)
		if err := rows.Scan(&p.ID, &p.Symbol, &p.EntryPrice, &nanos, &p.Units); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		p.EntryTime = time.Unix(0, nanos).UTC()
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// Save replaces every row inside one transaction.
func (s *SQLiteStore) Save(ctx context.Context, positions []model.Position) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM positions`); err != nil {
		return fmt.Errorf("clear positions: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO positions
		(seq, id, symbol, entry_price, entry_time, unit_count) VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range positions {
		if _, err := stmt.ExecContext(ctx, i, p.ID, p.Symbol, p.EntryPrice, p.EntryTime.UnixNano(), p.Units); err != nil {
			return fmt.Errorf("insert position %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"

	_ "modernc.org/sqlite"
)

// SQLiteHistory keeps published snapshots in a local SQLite file.
type SQLiteHistory struct {
	db *sql.DB
}

var _ domrepo.HistoryRecorder = (*SQLiteHistory)(nil)

// NewSQLiteHistory opens (or creates) the database at path.
func NewSQLiteHistory(path string) (*SQLiteHistory, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	return &SQLiteHistory{db: db}, nil
}

func (h *SQLiteHistory) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id        TEXT NOT NULL,
			published_at    INTEGER NOT NULL,
			company_id      INTEGER NOT NULL,
			symbol          TEXT NOT NULL,
			name            TEXT,
			last_day_price  REAL,
			current_price   REAL,
			predicted_price REAL,
			computed_at     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_symbol_ts ON predictions(symbol, published_at)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_cycle ON predictions(cycle_id)`,
	}
	for _, s := range stmts {
		if _, err := h.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// RecordSnapshot writes all records of snap in one transaction.
func (h *SQLiteHistory) RecordSnapshot(ctx context.Context, snap *models.Snapshot) error {
	if snap == nil || len(snap.Records) == 0 {
		return nil
	}
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO predictions
		(cycle_id, published_at, company_id, symbol, name, last_day_price, current_price, predicted_price, computed_at)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range snap.Records {
		if _, err := stmt.ExecContext(ctx,
			snap.CycleID, snap.PublishedAt.UnixMilli(), r.ID, r.Symbol, r.Name,
			r.LastDayPrice, r.CurrentPrice, r.PredictedPrice, r.ComputedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("insert %s: %w", r.Symbol, err)
		}
	}
	return tx.Commit()
}

func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

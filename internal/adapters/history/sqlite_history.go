package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/credit-explainer/internal/core"
	"go.uber.org/zap"
)

// SQLiteHistory is a SQLite implementation of the HistoryRepository interface
type SQLiteHistory struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteHistory opens (creating if needed) a SQLite run history
func NewSQLiteHistory(dbPath string, logger *zap.Logger) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS explanation_runs (
			id TEXT PRIMARY KEY,
			started_at TEXT,
			finished_at TEXT,
			model_path TEXT,
			data_path TEXT,
			report_path TEXT,
			classes INTEGER,
			instances INTEGER,
			features INTEGER,
			baseline TEXT,
			status TEXT,
			error TEXT
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_started_at ON explanation_runs(started_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteHistory{db: db, logger: logger}, nil
}

// Save stores a run record
func (h *SQLiteHistory) Save(ctx context.Context, record *core.RunRecord) error {
	args, err := recordArgs(record)
	if err != nil {
		return err
	}
	_, err = h.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO explanation_runs (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to insert run record: %w", err)
	}
	return nil
}

// Get retrieves a run by ID
func (h *SQLiteHistory) Get(ctx context.Context, id string) (*core.RunRecord, error) {
	row := h.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM explanation_runs
		WHERE id = ?
	`, id)
	return scanRecord(row)
}

// List returns up to limit runs, most recent first
func (h *SQLiteHistory) List(ctx context.Context, limit int) ([]*core.RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM explanation_runs
		ORDER BY started_at DESC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	return scanRecords(rows)
}

// Prune removes runs started before the cutoff
func (h *SQLiteHistory) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := h.db.ExecContext(ctx, `
		DELETE FROM explanation_runs
		WHERE started_at < ?
	`, formatTime(before))
	if err != nil {
		return 0, fmt.Errorf("failed to prune run history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		h.logger.Warn("Failed to get rows affected during prune", zap.Error(err))
		return 0, nil
	}
	h.logger.Debug("Pruned run history", zap.Int64("removed_count", rowsAffected))
	return rowsAffected, nil
}

// Close closes the database connection
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

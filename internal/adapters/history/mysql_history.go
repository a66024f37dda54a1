package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/credit-explainer/internal/core"
	"go.uber.org/zap"
)

// MySQLHistory is a MySQL implementation of the HistoryRepository interface
type MySQLHistory struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLHistory connects to MySQL and ensures the run table exists
func NewMySQLHistory(dsn string, logger *zap.Logger) (*MySQLHistory, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	h, err := newMySQLHistory(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

func newMySQLHistory(db *sql.DB, logger *zap.Logger) (*MySQLHistory, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS explanation_runs (
			id VARCHAR(64) PRIMARY KEY,
			started_at VARCHAR(32),
			finished_at VARCHAR(32),
			model_path TEXT,
			data_path TEXT,
			report_path TEXT,
			classes INT,
			instances INT,
			features INT,
			baseline TEXT,
			status VARCHAR(16),
			error TEXT,
			INDEX idx_started_at (started_at)
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &MySQLHistory{db: db, logger: logger}, nil
}

// Save stores a run record
func (h *MySQLHistory) Save(ctx context.Context, record *core.RunRecord) error {
	args, err := recordArgs(record)
	if err != nil {
		return err
	}
	_, err = h.db.ExecContext(ctx, `
		INSERT INTO explanation_runs (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			finished_at = VALUES(finished_at),
			report_path = VALUES(report_path),
			classes = VALUES(classes),
			instances = VALUES(instances),
			features = VALUES(features),
			baseline = VALUES(baseline),
			status = VALUES(status),
			error = VALUES(error)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to insert run record: %w", err)
	}
	return nil
}

// Get retrieves a run by ID
func (h *MySQLHistory) Get(ctx context.Context, id string) (*core.RunRecord, error) {
	row := h.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM explanation_runs
		WHERE id = ?
	`, id)
	return scanRecord(row)
}

// List returns up to limit runs, most recent first
func (h *MySQLHistory) List(ctx context.Context, limit int) ([]*core.RunRecord, error) {
	if limit <= 0 {
		// MySQL has no unbounded LIMIT
		limit = 1<<31 - 1
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
func (h *MySQLHistory) Prune(ctx context.Context, before time.Time) (int64, error) {
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
func (h *MySQLHistory) Close() error {
	return h.db.Close()
}

package factory

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mikey/credit-explainer/internal/adapters/history"
	"github.com/mikey/credit-explainer/internal/config"
	"github.com/mikey/credit-explainer/internal/ports"
	"go.uber.org/zap"
)

// HistoryFactory creates run history repositories based on configuration
type HistoryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewHistoryFactory creates a new history factory
func NewHistoryFactory(cfg *config.Config, logger *zap.Logger) *HistoryFactory {
	return &HistoryFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateHistoryRepository creates a history repository based on the configuration
func (f *HistoryFactory) CreateHistoryRepository() (ports.HistoryRepository, error) {
	historyCfg := f.cfg.GetHistory()

	switch historyCfg.Type {
	case "", "none":
		return history.NewNopHistory(), nil
	case "memory":
		return history.NewMemoryHistory(f.logger), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(historyCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return history.NewSQLiteHistory(historyCfg.SQLitePath, f.logger)
	case "mysql":
		return history.NewMySQLHistory(historyCfg.MySQLDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported history type: %s", historyCfg.Type)
	}
}

// GetRetention returns the configured history retention
func (f *HistoryFactory) GetRetention() (time.Duration, error) {
	return f.cfg.GetDuration("history.retention")
}

package ports

import (
	"context"
	"time"

	"github.com/mikey/credit-explainer/internal/core"
)

// HistoryRepository records explanation runs
type HistoryRepository interface {
	// Save stores a run record, replacing any record with the same ID
	Save(ctx context.Context, record *core.RunRecord) error

	// Get retrieves a run by ID
	Get(ctx context.Context, id string) (*core.RunRecord, error)

	// List returns up to limit runs, most recent first
	List(ctx context.Context, limit int) ([]*core.RunRecord, error)

	// Prune removes runs started before the cutoff and reports how many were removed
	Prune(ctx context.Context, before time.Time) (int64, error)
}

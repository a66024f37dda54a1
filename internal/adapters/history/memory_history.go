package history

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mikey/credit-explainer/internal/core"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a run record is not found
	ErrNotFound = errors.New("run record not found")
)

// MemoryHistory is an in-memory implementation of the HistoryRepository interface
type MemoryHistory struct {
	records map[string]*core.RunRecord
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMemoryHistory creates a new in-memory history
func NewMemoryHistory(logger *zap.Logger) *MemoryHistory {
	return &MemoryHistory{
		records: make(map[string]*core.RunRecord),
		logger:  logger,
	}
}

// Save stores a run record
func (h *MemoryHistory) Save(ctx context.Context, record *core.RunRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	stored := *record
	stored.Baseline = append([]float64(nil), record.Baseline...)
	h.records[record.ID] = &stored
	return nil
}

// Get retrieves a run by ID
func (h *MemoryHistory) Get(ctx context.Context, id string) (*core.RunRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	record, ok := h.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *record
	return &out, nil
}

// List returns up to limit runs, most recent first
func (h *MemoryHistory) List(ctx context.Context, limit int) ([]*core.RunRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*core.RunRecord, 0, len(h.records))
	for _, record := range h.records {
		r := *record
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Prune removes runs started before the cutoff
func (h *MemoryHistory) Prune(ctx context.Context, before time.Time) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var removed int64
	for id, record := range h.records {
		if record.StartedAt.Before(before) {
			delete(h.records, id)
			removed++
		}
	}

	h.logger.Debug("Pruned run history", zap.Int64("removed_count", removed))
	return removed, nil
}

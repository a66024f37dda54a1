package history

import (
	"context"
	"time"

	"github.com/mikey/credit-explainer/internal/core"
)

// NopHistory discards every record. It backs history.type "none".
type NopHistory struct{}

// NewNopHistory creates a history that stores nothing
func NewNopHistory() *NopHistory {
	return &NopHistory{}
}

// Save discards the record
func (NopHistory) Save(ctx context.Context, record *core.RunRecord) error {
	return nil
}

// Get always fails with ErrNotFound
func (NopHistory) Get(ctx context.Context, id string) (*core.RunRecord, error) {
	return nil, ErrNotFound
}

// List returns no records
func (NopHistory) List(ctx context.Context, limit int) ([]*core.RunRecord, error) {
	return nil, nil
}

// Prune removes nothing
func (NopHistory) Prune(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

// Package history persists the bounded, newest-first list of past analyses.
package history

import (
	"context"
	"errors"

	"github.com/terra-clan/hiresense/internal/models"
)

// DefaultCapacity is the number of entries kept when none is configured
const DefaultCapacity = 100

// ErrClosed is returned by Save after the store has been closed
var ErrClosed = errors.New("history store is closed")

// Repository defines the interface for analysis history persistence
type Repository interface {
	// Save prepends entry and drops everything beyond the capacity
	Save(ctx context.Context, entry models.HistoryEntry) error

	// List returns the stored entries, newest first
	List(ctx context.Context) ([]models.HistoryEntry, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}

func capacityOrDefault(capacity int) int {
	if capacity <= 0 {
		return DefaultCapacity
	}
	return capacity
}

// Package events fans completed analyses out to subscribers and brokers.
package events

import (
	"context"
	"errors"
	"log/slog"

	"github.com/terra-clan/hiresense/internal/models"
)

// Publisher delivers a completed analysis
type Publisher interface {
	Publish(ctx context.Context, entry models.HistoryEntry) error
}

// Multi publishes to every publisher and joins their errors
type Multi []Publisher

// Publish implements Publisher
func (m Multi) Publish(ctx context.Context, entry models.HistoryEntry) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, entry); err != nil {
			slog.Warn("failed to publish analysis event", "id", entry.ID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

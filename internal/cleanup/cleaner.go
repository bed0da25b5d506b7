// Package cleanup removes reports that have outlived their retention.
package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper deletes stored items last modified before cutoff
type Sweeper interface {
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// Cleaner periodically sweeps reports older than the retention
type Cleaner struct {
	store     Sweeper
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewCleaner creates a new retention worker
func NewCleaner(store Sweeper, retention, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = time.Hour
	}

	return &Cleaner{
		store:     store,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Start begins the worker in a goroutine. A zero retention keeps reports forever.
func (c *Cleaner) Start(ctx context.Context) {
	if c.retention <= 0 {
		slog.Info("report retention disabled")
		return
	}
	go c.run(ctx)
}

func (c *Cleaner) run(ctx context.Context) {
	slog.Info("report cleanup worker started", "interval", c.interval, "retention", c.retention)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.Cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("report cleanup worker stopped")
			return
		case <-ticker.C:
			c.Cleanup(ctx)
		}
	}
}

// Cleanup runs one sweep and returns the number of removed reports
func (c *Cleaner) Cleanup(ctx context.Context) int {
	cutoff := c.now().Add(-c.retention)
	slog.Debug("running report cleanup", "cutoff", cutoff)

	removed, err := c.store.Sweep(ctx, cutoff)
	if err != nil {
		slog.Error("failed to sweep reports", "error", err, "removed", removed)
		return removed
	}

	if removed > 0 {
		slog.Info("expired reports deleted", "count", removed)
	}
	return removed
}

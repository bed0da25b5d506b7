package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/hiresense/internal/models"
)

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN         string
	MaxConns    int32
	MinConns    int32
	MaxLifetime time.Duration
	Capacity    int
}

// PostgresStore keeps the history in the analysis_history table.
// Rows are ordered by a bigserial sequence so entries saved within the same
// second keep their insertion order.
type PostgresStore struct {
	pool     *pgxpool.Pool
	capacity int
}

// NewPostgresStore creates a connection pool and verifies it
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = 10
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPostgresStoreFromPool(pool, cfg.Capacity), nil
}

// NewPostgresStoreFromPool wraps an existing pool
func NewPostgresStoreFromPool(pool *pgxpool.Pool, capacity int) *PostgresStore {
	return &PostgresStore{pool: pool, capacity: capacityOrDefault(capacity)}
}

// Pool exposes the pool for migrations
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Save implements Repository. Insert and prune share one transaction.
func (s *PostgresStore) Save(ctx context.Context, entry models.HistoryEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO analysis_history (id, source, payload) VALUES ($1, $2, $3)`,
		entry.ID, entry.Source, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM analysis_history
		WHERE seq NOT IN (
			SELECT seq FROM analysis_history ORDER BY seq DESC LIMIT $1
		)
	`, s.capacity)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit history entry: %w", err)
	}

	return nil
}

// List implements Repository
func (s *PostgresStore) List(ctx context.Context) ([]models.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM analysis_history ORDER BY seq DESC LIMIT $1`,
		s.capacity,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		var entry models.HistoryEntry
		if err := json.Unmarshal(payload, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return entries, nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the database connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

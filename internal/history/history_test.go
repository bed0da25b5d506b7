package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/hiresense/internal/models"
)

func entry(i int) models.HistoryEntry {
	return models.HistoryEntry{
		ID:         fmt.Sprintf("%08x", i),
		UploadedAt: "2024-05-01 10:00",
		Source:     models.SourceJSON,
		AnalysisResult: models.AnalysisResult{
			ATSScore:         float64(i),
			RecommendedRoles: []string{},
			RoleScores:       []models.RoleScore{},
			MissingSkills:    []string{},
			ExtractedSkills:  []string{"python"},
		},
	}
}

func ids(entries []models.HistoryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func newFileStore(t *testing.T, capacity int) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "history.json")
	s, err := NewFileStore(path, capacity)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestFileStoreMissingFile(t *testing.T) {
	s, _ := newFileStore(t, 3)

	entries, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestFileStoreCapacity(t *testing.T) {
	s, _ := newFileStore(t, 3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Save(ctx, entry(i)))
	}

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"00000005", "00000004", "00000003"}, ids(entries))
	assert.Equal(t, []string{"python"}, entries[0].ExtractedSkills)
}

func TestFileStoreCorruptFile(t *testing.T) {
	s, path := newFileStore(t, 5)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, s.Save(ctx, entry(1)))
	entries, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"00000001"}, ids(entries))
}

func TestFileStoreEmptyFile(t *testing.T) {
	s, path := newFileStore(t, 5)
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	entries, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStoreConcurrentSaves(t *testing.T) {
	s, _ := newFileStore(t, 100)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Save(ctx, entry(i)))
		}(i)
	}
	wg.Wait()

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 40)
}

func TestFileStoreClosed(t *testing.T) {
	s, _ := newFileStore(t, 5)
	require.NoError(t, s.Close())

	err := s.Save(context.Background(), entry(1))
	assert.ErrorIs(t, err, ErrClosed)
}

func newRedisStore(t *testing.T, capacity int) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreFromClient(client, "", capacity)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisStoreCapacity(t *testing.T) {
	s, mr := newRedisStore(t, 2)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		require.NoError(t, s.Save(ctx, entry(i)))
	}

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"00000004", "00000003"}, ids(entries))

	items, err := mr.List(DefaultRedisKey)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.NoError(t, s.Ping(ctx))
}

func TestRedisStoreSkipsUndecodable(t *testing.T) {
	s, mr := newRedisStore(t, 10)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, entry(1)))
	_, err := mr.Lpush(DefaultRedisKey, "garbage")
	require.NoError(t, err)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"00000001"}, ids(entries))
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	ctx := context.Background()

	s, err := NewPostgresStore(ctx, PostgresConfig{DSN: dsn, Capacity: 2})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, RunMigrations(ctx, s.Pool(), "../../migrations"))
	_, err = s.Pool().Exec(ctx, `TRUNCATE analysis_history`)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Save(ctx, entry(i)))
	}

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"00000003", "00000002"}, ids(entries))
}

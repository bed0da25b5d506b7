package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/terra-clan/hiresense/internal/models"
)

type saveRequest struct {
	entry models.HistoryEntry
	done  chan error
}

// FileStore keeps the history in a single JSON file.
// All writes go through one goroutine; readers see either the old or the new
// file because writes replace it with a rename.
type FileStore struct {
	path     string
	capacity int

	requests  chan saveRequest
	quit      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewFileStore creates the parent directory and starts the writer goroutine
func NewFileStore(path string, capacity int) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	s := &FileStore{
		path:     path,
		capacity: capacityOrDefault(capacity),
		requests: make(chan saveRequest),
		quit:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()

	return s, nil
}

func (s *FileStore) run() {
	defer s.wg.Done()

	for {
		select {
		case req := <-s.requests:
			req.done <- s.write(req.entry)
		case <-s.quit:
			return
		}
	}
}

func (s *FileStore) write(entry models.HistoryEntry) error {
	entries := s.read()

	entries = append([]models.HistoryEntry{entry}, entries...)
	if len(entries) > s.capacity {
		entries = entries[:s.capacity]
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".history-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	return nil
}

// read never fails: a missing, empty or corrupt file is an empty history
func (s *FileStore) read() []models.HistoryEntry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to read history file", "path", s.path, "error", err)
		}
		return []models.HistoryEntry{}
	}

	var entries []models.HistoryEntry
	if len(data) == 0 {
		return []models.HistoryEntry{}
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("history file is corrupt, treating as empty", "path", s.path, "error", err)
		return []models.HistoryEntry{}
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return entries
}

// Save implements Repository
func (s *FileStore) Save(ctx context.Context, entry models.HistoryEntry) error {
	req := saveRequest{entry: entry, done: make(chan error, 1)}

	select {
	case s.requests <- req:
	case <-s.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	// the write is already in progress; wait for it even if ctx ends
	return <-req.done
}

// List implements Repository
func (s *FileStore) List(_ context.Context) ([]models.HistoryEntry, error) {
	entries := s.read()
	if len(entries) > s.capacity {
		entries = entries[:s.capacity]
	}
	return entries, nil
}

// Ping checks that the history directory is writable
func (s *FileStore) Ping(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

// Close stops the writer goroutine
func (s *FileStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	s.wg.Wait()
	return nil
}

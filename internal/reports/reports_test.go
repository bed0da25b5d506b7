package reports

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/hiresense/internal/models"
)

func sampleEntry() models.HistoryEntry {
	return models.HistoryEntry{
		ID:         "0a1b2c3d",
		UploadedAt: "2024-05-01 10:00",
		Filename:   "jörg_cv.pdf",
		Source:     models.SourceFile,
		AnalysisResult: models.AnalysisResult{
			ATSScore:         65,
			RecommendedRoles: []string{"Backend Developer"},
			RoleScores:       []models.RoleScore{{Role: "Backend Developer", Score: 65}},
			MissingSkills:    []string{"sql"},
			JDMatch:          42.5,
			TargetRole:       "Backend Developer",
		},
	}
}

func TestRender(t *testing.T) {
	data, err := Render(sampleEntry())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	empty, err := Render(models.HistoryEntry{ID: "00000000"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(empty, []byte("%PDF")))
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("0a1b2c3d"))
	assert.False(t, ValidID("0A1B2C3D"))
	assert.False(t, ValidID("../etc"))
	assert.False(t, ValidID("0a1b2c3d4"))
}

func TestDiskStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(filepath.Join(t.TempDir(), "reports"))
	require.NoError(t, err)
	require.NoError(t, s.Ping(ctx))

	require.NoError(t, s.Put(ctx, "0a1b2c3d", []byte("%PDF-1.3 test")))
	assert.ErrorIs(t, s.Put(ctx, "../x", nil), ErrInvalidID)

	rc, err := s.Open(ctx, "0a1b2c3d")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 test", string(data))

	_, err = s.Open(ctx, "ffffffff")
	assert.ErrorIs(t, err, ErrReportNotFound)
	_, err = s.Open(ctx, "../../secret")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestDiskStoreSweep(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewDiskStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "00000001", []byte("old")))
	require.NoError(t, s.Put(ctx, "00000002", []byte("new")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o644))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "00000001.pdf"), old, old))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "notes.txt"), old, old))

	removed, err := s.Sweep(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = s.Open(ctx, "00000001")
	assert.ErrorIs(t, err, ErrReportNotFound)
	_, err = s.Open(ctx, "00000002")
	assert.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

// fakeS3 serves the path-style object calls the store makes
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/reports-bucket/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(body)
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{objects: make(map[string][]byte)}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	s, err := NewS3Store(ctx, S3Config{
		Bucket:    "reports-bucket",
		Endpoint:  srv.URL,
		Region:    "us-east-1",
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "0a1b2c3d", []byte("%PDF-1.3 s3")))
	fake.mu.Lock()
	_, stored := fake.objects["reports/0a1b2c3d.pdf"]
	fake.mu.Unlock()
	assert.True(t, stored)

	rc, err := s.Open(ctx, "0a1b2c3d")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 s3", string(data))

	_, err = s.Open(ctx, "ffffffff")
	assert.ErrorIs(t, err, ErrReportNotFound)

	assert.NoError(t, s.Ping(ctx))
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.Error(t, err)
}

package reports

import (
	"context"
	"errors"
	"io"
	"regexp"
	"time"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrInvalidID      = errors.New("invalid report id")
)

var validID = regexp.MustCompile(`^[a-f0-9]{8}$`)

// ValidID reports whether id has the analysis id shape
func ValidID(id string) bool {
	return validID.MatchString(id)
}

// Store persists rendered reports by analysis id
type Store interface {
	Put(ctx context.Context, id string, data []byte) error
	// Open returns ErrReportNotFound when no report exists for id
	Open(ctx context.Context, id string) (io.ReadCloser, error)
	// Sweep deletes reports last modified before cutoff and returns how many were removed
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
	Ping(ctx context.Context) error
}

func objectName(id string) string {
	return id + ".pdf"
}

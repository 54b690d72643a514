// Package storage persists run artifacts. It defines the Store port and
// implementations for the local run directory and an optional S3 mirror.
package storage

import (
	"context"
	"errors"
)

// ErrMirrorNotConfigured is returned by Mirror when no remote mirror is
// configured. Callers treat it as "mirroring disabled", not a failure.
var ErrMirrorNotConfigured = errors.New("storage: artifact mirror is not configured")

// Store defines the interface for persisting run artifacts.
type Store interface {
	// SaveArtifact writes an artifact into the run directory and returns
	// its full path.
	SaveArtifact(ctx context.Context, runDir, name string, data []byte) (path string, err error)

	// Mirror uploads an artifact to the configured remote mirror and
	// returns its URL. Returns ErrMirrorNotConfigured when no mirror is set.
	Mirror(ctx context.Context, runID, name string, data []byte) (url string, err error)
}

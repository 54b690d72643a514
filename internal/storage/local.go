package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore implements the Store interface on local disk. It writes
// artifacts into the run directory and does not support mirroring unless
// wrapped by S3Store.
type LocalStore struct{}

// Compile-time interface implementation check.
var _ Store = (*LocalStore)(nil)

// NewLocalStore creates a new LocalStore.
func NewLocalStore() *LocalStore {
	return &LocalStore{}
}

// SaveArtifact writes data to <runDir>/<name>, creating the run directory
// if needed.
func (s *LocalStore) SaveArtifact(ctx context.Context, runDir, name string, data []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("storage: context cancelled: %w", ctx.Err())
	default:
	}

	if err := os.MkdirAll(runDir, 0o750); err != nil {
		return "", fmt.Errorf("storage: create run directory: %w", err)
	}

	path := filepath.Join(runDir, name)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("storage: write artifact %s: %w", name, err)
	}

	return path, nil
}

// Mirror is not supported by LocalStore and returns ErrMirrorNotConfigured.
func (s *LocalStore) Mirror(_ context.Context, _, _ string, _ []byte) (string, error) {
	return "", ErrMirrorNotConfigured
}

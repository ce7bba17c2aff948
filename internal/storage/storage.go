// Package storage persists run artifacts under slash-separated keys.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/txsift/internal/config"
)

// ErrNotFound reports a missing object.
var ErrNotFound = errors.New("object not found")

// Store reads and writes whole objects.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// Open returns the store selected by cfg. A relative local root is
// resolved against repoRoot.
func Open(cfg config.StorageConfig, repoRoot string) (Store, error) {
	switch cfg.Backend {
	case config.StorageLocal, "":
		root := cfg.Root
		if !filepath.IsAbs(root) {
			root = filepath.Join(repoRoot, root)
		}
		return NewLocal(root), nil
	case config.StorageS3:
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// cleanKey rejects keys that are absolute or escape the store root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("invalid object key %q", key)
		}
	}
	return key, nil
}

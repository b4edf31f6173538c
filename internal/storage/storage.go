package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/aleister1102/mediascout/internal/common"
	"github.com/aleister1102/mediascout/internal/config"
	"github.com/rs/zerolog"
)

// Storage holds blobs (downloaded assets, previews, bundles) under
// slash-separated keys.
type Storage interface {
	// Put writes r under key, replacing any previous object, and returns the bytes written.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (int64, error)
	// Open returns a reader for key. Missing keys yield an error matching common.ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	// Location describes where key lives: a filesystem path or an s3:// URI.
	Location(key string) string
}

// CleanKey validates a storage key and returns its canonical form.
func CleanKey(key string) (string, error) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if trimmed == "" {
		return "", common.NewValidationError("key", key, "storage key is empty")
	}
	for _, segment := range strings.Split(trimmed, "/") {
		if segment == ".." {
			return "", common.NewValidationError("key", key, "storage key escapes its root")
		}
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+trimmed), "/")
	if cleaned == "" {
		return "", common.NewValidationError("key", key, "storage key is empty")
	}
	return cleaned, nil
}

// New builds the configured backend for one area (downloads or previews).
// For the filesystem backend dir is the root directory; for S3 it becomes a
// key prefix below the configured one.
func New(ctx context.Context, cfg config.StorageConfig, dir string, logger zerolog.Logger) (Storage, error) {
	switch cfg.Backend {
	case "", "filesystem":
		fs, err := NewFileSystem(dir, logger)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case "s3":
		s3Store, err := NewS3(ctx, cfg.S3, dir, logger)
		if err != nil {
			return nil, err
		}
		return s3Store, nil
	default:
		return nil, common.WrapErrorf(common.ErrInvalidConfiguration, "unsupported storage backend: %s", cfg.Backend)
	}
}

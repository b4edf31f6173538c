package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aleister1102/mediascout/internal/common"
	"github.com/rs/zerolog"
)

// FileSystem stores objects as files below a root directory.
type FileSystem struct {
	root   string
	logger zerolog.Logger
}

// NewFileSystem creates the root directory if needed.
func NewFileSystem(root string, logger zerolog.Logger) (*FileSystem, error) {
	if root == "" {
		return nil, common.NewValidationError("root", root, "filesystem storage root is empty")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, common.WrapError(err, "failed to resolve storage root")
	}
	if err := os.MkdirAll(absRoot, 0755); err != nil {
		return nil, common.WrapError(err, "failed to create storage root")
	}

	fsLogger := logger.With().Str("component", "FileSystemStorage").Logger()
	fsLogger.Debug().Str("root", absRoot).Msg("Filesystem storage initialized")

	return &FileSystem{root: absRoot, logger: fsLogger}, nil
}

// Root returns the absolute root directory.
func (s *FileSystem) Root() string {
	return s.root
}

func (s *FileSystem) pathFor(key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

// Put writes to a temporary file next to the target and renames it into place.
func (s *FileSystem) Put(ctx context.Context, key string, r io.Reader, _ string) (int64, error) {
	target, err := s.pathFor(key)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return 0, common.WrapError(err, "failed to create object directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".partial-*")
	if err != nil {
		return 0, common.WrapError(err, "failed to create temporary file")
	}
	tmpName := tmp.Name()

	written, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		if copyErr != nil {
			return written, common.WrapError(copyErr, "failed to write object")
		}
		return written, common.WrapError(closeErr, "failed to close object")
	}

	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return written, common.WrapError(err, "failed to move object into place")
	}

	s.logger.Debug().Str("key", key).Int64("bytes", written).Msg("Object stored")
	return written, nil
}

func (s *FileSystem) Open(_ context.Context, key string) (io.ReadCloser, error) {
	target, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.WrapErrorf(common.ErrNotFound, "object '%s'", key)
		}
		return nil, common.WrapError(err, "failed to open object")
	}
	return file, nil
}

func (s *FileSystem) Exists(_ context.Context, key string) (bool, error) {
	target, err := s.pathFor(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(target)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, common.WrapError(err, "failed to stat object")
}

// Delete is a no-op for missing keys.
func (s *FileSystem) Delete(_ context.Context, key string) error {
	target, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return common.WrapError(err, "failed to delete object")
	}
	return nil
}

func (s *FileSystem) Location(key string) string {
	target, err := s.pathFor(key)
	if err != nil {
		return fmt.Sprintf("%s (invalid key)", key)
	}
	return target
}

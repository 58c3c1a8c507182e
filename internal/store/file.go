package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/linuxmatters/voxrisk/internal/model"
)

const (
	bundlesDir     = "bundles"
	currentFile    = "current"
	lockFile       = ".lock"
	scalerFile     = "scaler.msgpack"
	classifierFile = "classifier.msgpack"

	lockRetry = 50 * time.Millisecond
)

// FileStore keeps each bundle in its own directory and names the active one
// in a pointer file replaced by rename, so readers see the old or the new
// bundle and never a mix. A file lock serialises writers across processes.
//
//	<dir>/bundles/<timestamp>-<id>/scaler.msgpack
//	<dir>/bundles/<timestamp>-<id>/classifier.msgpack
//	<dir>/current
type FileStore struct {
	dir    string
	keep   int
	lock   *flock.Flock
	logger zerolog.Logger
}

// OpenFileStore prepares dir for bundle storage
func OpenFileStore(dir string, keep int, logger zerolog.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("store directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, bundlesDir), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{
		dir:    dir,
		keep:   max(keep, 1),
		lock:   flock.New(filepath.Join(dir, lockFile)),
		logger: logger.With().Str("store", dir).Logger(),
	}, nil
}

// Load reads the bundle named by the current pointer
func (s *FileStore) Load(ctx context.Context) (*model.Bundle, error) {
	locked, err := s.lock.TryRLockContext(ctx, lockRetry)
	if err != nil {
		return nil, fmt.Errorf("lock store: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock store: %s busy", s.dir)
	}
	defer func() { _ = s.lock.Unlock() }()

	pointer, err := os.ReadFile(filepath.Join(s.dir, currentFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read current pointer: %w", err)
	}
	name := strings.TrimSpace(string(pointer))
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, absent("invalid current pointer %q", name)
	}

	bundleDir := filepath.Join(s.dir, bundlesDir, name)
	scaler, err := os.ReadFile(filepath.Join(bundleDir, scalerFile))
	if err != nil {
		return nil, absent("bundle %s scaler: %v", name, err)
	}
	classifier, err := os.ReadFile(filepath.Join(bundleDir, classifierFile))
	if err != nil {
		return nil, absent("bundle %s classifier: %v", name, err)
	}

	b, err := model.DecodeBundle(scaler, classifier)
	if err != nil {
		return nil, absent("bundle %s: %v", name, err)
	}
	return b, nil
}

// Save writes a new bundle directory, swaps the current pointer to it and
// prunes bundles beyond the retention count
func (s *FileStore) Save(ctx context.Context, b *model.Bundle) error {
	scaler, classifier, err := b.Encode()
	if err != nil {
		return err
	}

	locked, err := s.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("lock store: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock store: %s busy", s.dir)
	}
	defer func() { _ = s.lock.Unlock() }()

	name := b.CreatedAt.UTC().Format("20060102T150405.000000000Z") + "-" + b.ID
	bundleDir := filepath.Join(s.dir, bundlesDir, name)
	if err := os.MkdirAll(bundleDir, 0o755); err != nil {
		return fmt.Errorf("create bundle directory: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(bundleDir, scalerFile), scaler); err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(bundleDir, classifierFile), classifier); err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(s.dir, currentFile), []byte(name+"\n")); err != nil {
		return err
	}

	s.logger.Debug().Str("bundle", b.ID).Str("dir", name).Msg("bundle saved")
	s.prune(name)
	return nil
}

// prune removes the oldest bundle directories beyond keep, never the current one
func (s *FileStore) prune(current string) {
	entries, err := os.ReadDir(filepath.Join(s.dir, bundlesDir))
	if err != nil {
		s.logger.Warn().Err(err).Msg("list bundles for pruning")
		return
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != current {
			names = append(names, e.Name())
		}
	}
	// Timestamp prefixes sort chronologically
	sort.Strings(names)

	excess := len(names) - (s.keep - 1)
	for i := 0; i < excess; i++ {
		if err := os.RemoveAll(filepath.Join(s.dir, bundlesDir, names[i])); err != nil {
			s.logger.Warn().Err(err).Str("dir", names[i]).Msg("prune bundle")
			continue
		}
		s.logger.Debug().Str("dir", names[i]).Msg("bundle pruned")
	}
}

// Close releases the lock file handle
func (s *FileStore) Close() error {
	return s.lock.Close()
}

// writeFileAtomic writes data to a temporary file in the same directory and
// renames it over path
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

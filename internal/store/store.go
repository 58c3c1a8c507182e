// Package store persists model bundles. A bundle's scaler and classifier
// are always written and read as a pair; a half-written or mismatched pair
// is reported as ErrNotFound.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/linuxmatters/voxrisk/internal/model"
)

// ErrNotFound is returned when no complete bundle is stored
var ErrNotFound = errors.New("no stored model")

// Store loads and saves the current model bundle
type Store interface {
	Load(ctx context.Context) (*model.Bundle, error)
	Save(ctx context.Context, b *model.Bundle) error
	Close() error
}

// Backend names accepted by Open
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Options selects and configures a backend
type Options struct {
	Backend string
	Dir     string
	Keep    int // bundles retained after a save, minimum 1
}

// Open creates the configured store under opts.Dir
func Open(opts Options, logger zerolog.Logger) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		return OpenFileStore(opts.Dir, opts.Keep, logger)
	case BackendSQLite:
		return OpenSQLiteStore(filepath.Join(opts.Dir, "models.db"), opts.Keep, logger)
	}
	return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
}

// absent wraps a load failure caused by missing or inconsistent data
func absent(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}

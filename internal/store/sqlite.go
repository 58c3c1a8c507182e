package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/linuxmatters/voxrisk/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS bundles (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    bundle_id  TEXT NOT NULL UNIQUE,
    created_at INTEGER NOT NULL,
    scaler     BLOB NOT NULL,
    classifier BLOB NOT NULL
)`

// SQLiteStore keeps each bundle as one row holding both blobs, so a pair
// is committed or rolled back as a unit
type SQLiteStore struct {
	db     *sql.DB
	path   string
	keep   int
	logger zerolog.Logger
}

// OpenSQLiteStore opens or creates the database at path
func OpenSQLiteStore(path string, keep int, logger zerolog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		path:   path,
		keep:   max(keep, 1),
		logger: logger.With().Str("store", path).Logger(),
	}, nil
}

// Load returns the most recently saved bundle
func (s *SQLiteStore) Load(ctx context.Context) (*model.Bundle, error) {
	var id string
	var scaler, classifier []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT bundle_id, scaler, classifier FROM bundles ORDER BY seq DESC LIMIT 1`,
	).Scan(&id, &scaler, &classifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query bundle: %w", err)
	}

	b, err := model.DecodeBundle(scaler, classifier)
	if err != nil {
		return nil, absent("bundle %s: %v", id, err)
	}
	return b, nil
}

// Save inserts the bundle and prunes older rows in one transaction
func (s *SQLiteStore) Save(ctx context.Context, b *model.Bundle) error {
	scaler, classifier, err := b.Encode()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bundles (bundle_id, created_at, scaler, classifier) VALUES (?, ?, ?, ?)`,
		b.ID, b.CreatedAt.UTC().UnixNano(), scaler, classifier,
	); err != nil {
		return fmt.Errorf("insert bundle %s: %w", b.ID, err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM bundles WHERE seq NOT IN (SELECT seq FROM bundles ORDER BY seq DESC LIMIT ?)`,
		s.keep,
	)
	if err != nil {
		return fmt.Errorf("prune bundles: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bundle %s: %w", b.ID, err)
	}

	pruned, _ := res.RowsAffected()
	s.logger.Debug().Str("bundle", b.ID).Int64("pruned", pruned).Msg("bundle saved")
	return nil
}

// count returns the number of retained bundles
func (s *SQLiteStore) count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bundles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count bundles: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

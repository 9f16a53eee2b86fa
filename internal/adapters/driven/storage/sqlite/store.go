package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragguard/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
	"github.com/custodia-labs/ragguard/internal/logger"
)

// Store owns the SQLite database shared by the vector index and run history.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the database at path and brings its schema up
// to date.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL lets a watcher index while ask reads.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	steps, err := migrations.All()
	if err == nil {
		err = upgrade(db, steps)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// VectorIndex returns a vector index over one collection. The index embeds
// with embedder and does not own it.
func (s *Store) VectorIndex(collection string, embedder driven.EmbeddingService) *VectorIndex {
	return &VectorIndex{store: s, collection: collection, embedder: embedder}
}

// RunHistory returns a RunHistoryStore backed by this store.
func (s *Store) RunHistory() driven.RunHistoryStore {
	return &runHistoryStore{store: s}
}

// SchemaVersion returns the version of the last applied migration.
func (s *Store) SchemaVersion() (int, error) {
	return schemaVersion(s.db)
}

func schemaVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// upgrade applies every step newer than the database's user_version. Each
// step and its version bump commit together.
func upgrade(db *sql.DB, steps []migrations.Migration) error {
	current, err := schemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range steps {
		if m.Version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		logger.Debug("sqlite: applied migration %s", m.Name)
		current = m.Version
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// SQLite implements BlobStore on a local SQLite database. Version tokens
// are random UUIDs regenerated on every write.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) Read(ctx context.Context, key string) (*Blob, error) {
	var b Blob
	err := s.db.QueryRowContext(ctx,
		`SELECT content, version FROM state_blobs WHERE key = ?`, key,
	).Scan(&b.Content, &b.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read state blob: %w", err)
	}
	return &b, nil
}

func (s *SQLite) Write(ctx context.Context, key string, content []byte, version string) (string, error) {
	next := uuid.New().String()
	now := time.Now().UTC()

	var (
		result sql.Result
		err    error
	)
	if version == "" {
		result, err = s.db.ExecContext(ctx,
			`INSERT INTO state_blobs (key, content, version, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(key) DO NOTHING`,
			key, content, next, now, now,
		)
	} else {
		result, err = s.db.ExecContext(ctx,
			`UPDATE state_blobs SET content = ?, version = ?, updated_at = ?
			 WHERE key = ? AND version = ?`,
			content, next, now, key, version,
		)
	}
	if err != nil {
		return "", fmt.Errorf("write state blob: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return "", fmt.Errorf("%w: %q at version %q", ErrVersionConflict, key, version)
	}
	return next, nil
}

func (s *SQLite) Delete(ctx context.Context, key string, version string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM state_blobs WHERE key = ? AND version = ?`, key, version,
	)
	if err != nil {
		return fmt.Errorf("delete state blob: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %q at version %q", ErrVersionConflict, key, version)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

package repo

import (
	"context"
	"database/sql"
	"os"

	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

// SQLiteStorage implements Storage on a single sqlite database file, which
// keeps current snapshot and backups in one place on hosts where a data
// directory full of JSON files is unwelcome.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (and if needed creates) the database at path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite database")
	}
	// modernc.org/sqlite serializes writers itself, a single connection
	// avoids SQLITE_BUSY under concurrent history writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			key        TEXT PRIMARY KEY,
			data       BLOB NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create snapshots table")
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Write(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, data) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET data = excluded.data
	`, key, data)
	return err
}

func (s *SQLiteStorage) Read(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, os.ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *SQLiteStorage) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM snapshots
		WHERE key LIKE ? || '%'
		ORDER BY key DESC
	`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *SQLiteStorage) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, key)
	return err
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

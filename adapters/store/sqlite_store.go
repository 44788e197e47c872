package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/truthmemes/gatekeeper/core"
)

// SQLiteAdminStore persists admin credentials in SQLite. The UNIQUE
// constraint on username is the authority for duplicate registrations.
type SQLiteAdminStore struct {
	db *sql.DB
}

// NewSQLiteAdminStore opens (or creates) the credential database at path.
func NewSQLiteAdminStore(path string) (*SQLiteAdminStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode tolerates concurrent readers during sign-in bursts.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS admins (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteAdminStore{db: db}, nil
}

// Create persists a credential. A username collision surfaces as
// core.ErrUsernameTaken.
func (s *SQLiteAdminStore) Create(ctx context.Context, cred *core.AdminCredential) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (id, username, password_hash) VALUES (?, ?, ?)`,
		cred.ID, cred.Username, cred.PasswordHash,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return core.ErrUsernameTaken
		}
		return fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	return nil
}

// FindByUsername looks up a credential by username.
func (s *SQLiteAdminStore) FindByUsername(ctx context.Context, username string) (*core.AdminCredential, error) {
	cred := &core.AdminCredential{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM admins WHERE username = ?`,
		username,
	).Scan(&cred.ID, &cred.Username, &cred.PasswordHash, &cred.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	return cred, nil
}

// Ping checks database connectivity.
func (s *SQLiteAdminStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database handle.
func (s *SQLiteAdminStore) Close() error {
	return s.db.Close()
}

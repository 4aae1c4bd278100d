// Package sqlite implements the local durable storage tier: one partition
// (table) per ledger, persisting only the durable subset of fields.
// Transient session timers, loading flags and the session credential tier
// never touch disk.
//
// The driver is modernc.org/sqlite (pure Go, no CGO) behind jmoiron/sqlx.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
)

// schema creates the ledger partitions.
// Wrong questions and syllabus progress are row-per-record; the progress
// snapshot is stored as one JSON document per identity, mirroring the
// wire payload.
const schema = `
CREATE TABLE IF NOT EXISTS progress (
	user_id         TEXT PRIMARY KEY,
	snapshot        TEXT NOT NULL,
	last_heart_loss INTEGER,
	updated_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS wrong_questions (
	row_id       TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	record_key   TEXT NOT NULL,
	record       TEXT NOT NULL,
	UNIQUE (user_id, record_key)
);
CREATE INDEX IF NOT EXISTS idx_wrong_questions_user ON wrong_questions (user_id);

CREATE TABLE IF NOT EXISTS syllabus_progress (
	user_id     TEXT NOT NULL,
	syllabus_id TEXT NOT NULL,
	record      TEXT NOT NULL,
	PRIMARY KEY (user_id, syllabus_id)
);

CREATE TABLE IF NOT EXISTS credentials (
	user_id TEXT PRIMARY KEY,
	token   TEXT NOT NULL
);
`

// Store is the durable local store shared by all ledger partitions.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the local database and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	// Single local writer; serialize access instead of erroring on busy.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PurgeIdentity deletes every partition row belonging to the identity.
// Called at logout so state cannot leak across identities on a shared
// device; the durable copy is scrubbed, not just the in-memory one.
func (s *Store) PurgeIdentity(ctx context.Context, userID shared.UserID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("purge identity: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"progress", "wrong_questions", "syllabus_progress", "credentials"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = ?", userID.String()); err != nil {
			return fmt.Errorf("purge %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("purge identity: %w", err)
	}

	s.logger.Info("durable state purged", "user_id", userID.String())
	return nil
}

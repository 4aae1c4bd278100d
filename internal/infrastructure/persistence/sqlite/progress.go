package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/learnhub/learning-progress-hub/internal/domain/learner"
	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
)

// progressRow maps the progress partition.
type progressRow struct {
	UserID        string        `db:"user_id"`
	Snapshot      string        `db:"snapshot"`
	LastHeartLoss sql.NullInt64 `db:"last_heart_loss"`
	UpdatedAt     int64         `db:"updated_at"`
}

// SaveSnapshot upserts the progress snapshot for the identity.
// The heart-loss clock travels in its own column: it is a local-only
// field excluded from the wire document.
func (s *Store) SaveSnapshot(ctx context.Context, userID shared.UserID, snap learner.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	var lastLoss sql.NullInt64
	if snap.LastHeartLoss != nil {
		lastLoss = sql.NullInt64{Int64: snap.LastHeartLoss.Unix(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO progress (user_id, snapshot, last_heart_loss, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			snapshot        = excluded.snapshot,
			last_heart_loss = excluded.last_heart_loss,
			updated_at      = excluded.updated_at`,
		userID.String(), string(doc), lastLoss, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot for the identity.
// Returns shared.ErrNotFound when the identity has no stored progress.
func (s *Store) LoadSnapshot(ctx context.Context, userID shared.UserID) (learner.Snapshot, error) {
	var row progressRow
	err := s.db.GetContext(ctx, &row,
		"SELECT user_id, snapshot, last_heart_loss, updated_at FROM progress WHERE user_id = ?",
		userID.String())
	if errors.Is(err, sql.ErrNoRows) {
		return learner.Snapshot{}, shared.ErrNotFound
	}
	if err != nil {
		return learner.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	var snap learner.Snapshot
	if err := json.Unmarshal([]byte(row.Snapshot), &snap); err != nil {
		return learner.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if row.LastHeartLoss.Valid {
		t := time.Unix(row.LastHeartLoss.Int64, 0).UTC()
		snap.LastHeartLoss = &t
	}
	snap.Normalize()
	return snap, nil
}

package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
	"github.com/learnhub/learning-progress-hub/internal/domain/syllabus"
)

// SaveSyllabusProgress replaces the per-syllabus progress partition for
// the identity.
func (s *Store) SaveSyllabusProgress(ctx context.Context, userID shared.UserID, records []syllabus.ProgressRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save syllabus progress: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM syllabus_progress WHERE user_id = ?", userID.String()); err != nil {
		return fmt.Errorf("clear syllabus progress: %w", err)
	}

	for i := range records {
		doc, err := json.Marshal(records[i])
		if err != nil {
			return fmt.Errorf("marshal syllabus progress %s: %w", records[i].SyllabusID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO syllabus_progress (user_id, syllabus_id, record)
			VALUES (?, ?, ?)`,
			userID.String(), string(records[i].SyllabusID), string(doc)); err != nil {
			return fmt.Errorf("save syllabus progress %s: %w", records[i].SyllabusID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save syllabus progress: %w", err)
	}
	return nil
}

// LoadSyllabusProgress returns the stored per-syllabus progress records
// for the identity.
func (s *Store) LoadSyllabusProgress(ctx context.Context, userID shared.UserID) ([]syllabus.ProgressRecord, error) {
	var docs []string
	err := s.db.SelectContext(ctx, &docs,
		"SELECT record FROM syllabus_progress WHERE user_id = ?", userID.String())
	if err != nil {
		return nil, fmt.Errorf("load syllabus progress: %w", err)
	}

	records := make([]syllabus.ProgressRecord, 0, len(docs))
	for _, doc := range docs {
		var rec syllabus.ProgressRecord
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, fmt.Errorf("decode syllabus progress: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/learnhub/learning-progress-hub/internal/domain/mistake"
	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
)

// SaveWrongQuestions replaces the wrong-question partition for the
// identity with the given records. Replace-all keeps the durable copy an
// exact mirror of the in-memory ledger, including deletions.
func (s *Store) SaveWrongQuestions(ctx context.Context, userID shared.UserID, records []mistake.Record) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save wrong questions: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM wrong_questions WHERE user_id = ?", userID.String()); err != nil {
		return fmt.Errorf("clear wrong questions: %w", err)
	}

	for i := range records {
		doc, err := json.Marshal(records[i])
		if err != nil {
			return fmt.Errorf("marshal wrong question %s: %w", records[i].ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO wrong_questions (row_id, user_id, record_key, record)
			VALUES (?, ?, ?, ?)`,
			uuid.NewString(), userID.String(), records[i].ID, string(doc)); err != nil {
			return fmt.Errorf("save wrong question %s: %w", records[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save wrong questions: %w", err)
	}
	return nil
}

// LoadWrongQuestions returns the stored wrong-question records for the
// identity. An identity with no records yields an empty slice, not an
// error.
func (s *Store) LoadWrongQuestions(ctx context.Context, userID shared.UserID) ([]mistake.Record, error) {
	var docs []string
	err := s.db.SelectContext(ctx, &docs,
		"SELECT record FROM wrong_questions WHERE user_id = ?", userID.String())
	if err != nil {
		return nil, fmt.Errorf("load wrong questions: %w", err)
	}

	records := make([]mistake.Record, 0, len(docs))
	for _, doc := range docs {
		var rec mistake.Record
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, fmt.Errorf("decode wrong question: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

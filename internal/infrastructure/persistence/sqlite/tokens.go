package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
)

// The credentials partition is the durable tier of the credential store.
// Tokens land here only when the learner opted in at login.

// SaveToken persists the bearer token for a learner.
func (s *Store) SaveToken(ctx context.Context, userID shared.UserID, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (user_id, token) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET token = excluded.token`,
		userID.String(), token)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// LoadToken returns the persisted token, or "" when none is stored.
func (s *Store) LoadToken(ctx context.Context, userID shared.UserID) (string, error) {
	var token string
	err := s.db.GetContext(ctx, &token,
		"SELECT token FROM credentials WHERE user_id = ?", userID.String())
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the persisted token.
func (s *Store) DeleteToken(ctx context.Context, userID shared.UserID) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM credentials WHERE user_id = ?", userID.String()); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

package syncer

import (
	"context"
	"sync"

	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
)

// DurableTokenStore is the persistence contract for the durable credential
// tier. Implemented by the sqlite store.
type DurableTokenStore interface {
	// SaveToken persists the bearer token for a learner.
	SaveToken(ctx context.Context, userID shared.UserID, token string) error

	// LoadToken returns the persisted token, or "" when none is stored.
	LoadToken(ctx context.Context, userID shared.UserID) (string, error)

	// DeleteToken removes the persisted token.
	DeleteToken(ctx context.Context, userID shared.UserID) error
}

// CredentialStore holds the two credential tiers:
//   - a session tier kept only in memory, deliberately lost on restart;
//   - a durable tier that survives restarts (sqlite).
//
// The split is an intentional security/scope boundary: callers choose at
// login whether the token outlives the process.
type CredentialStore struct {
	mu      sync.RWMutex
	userID  shared.UserID
	session string
	durable DurableTokenStore
}

// NewCredentialStore creates a credential store.
// durable may be nil, leaving only the session tier.
func NewCredentialStore(durable DurableTokenStore) *CredentialStore {
	return &CredentialStore{durable: durable}
}

// Bind attaches the store to a learner identity.
func (s *CredentialStore) Bind(userID shared.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

// Identity returns the bound learner id.
func (s *CredentialStore) Identity() shared.UserID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Store saves the token into the session tier, and into the durable tier
// as well when remember is set.
func (s *CredentialStore) Store(ctx context.Context, token string, remember bool) error {
	s.mu.Lock()
	s.session = token
	userID := s.userID
	s.mu.Unlock()

	if remember && s.durable != nil && userID != "" {
		return s.durable.SaveToken(ctx, userID, token)
	}
	return nil
}

// Token resolves the current credential: session tier first, then the
// durable tier. Returns "" when no credential is available.
func (s *CredentialStore) Token(ctx context.Context) string {
	s.mu.RLock()
	session := s.session
	userID := s.userID
	s.mu.RUnlock()

	if session != "" {
		return session
	}
	if s.durable == nil || userID == "" {
		return ""
	}
	token, err := s.durable.LoadToken(ctx, userID)
	if err != nil {
		return ""
	}
	return token
}

// Clear drops both tiers. Called at logout before the identity switch.
func (s *CredentialStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.session = ""
	userID := s.userID
	s.userID = ""
	s.mu.Unlock()

	if s.durable != nil && userID != "" {
		return s.durable.DeleteToken(ctx, userID)
	}
	return nil
}

package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
)

type memoryTokenStore struct {
	tokens  map[shared.UserID]string
	loadErr error
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: map[shared.UserID]string{}}
}

func (s *memoryTokenStore) SaveToken(_ context.Context, userID shared.UserID, token string) error {
	s.tokens[userID] = token
	return nil
}

func (s *memoryTokenStore) LoadToken(_ context.Context, userID shared.UserID) (string, error) {
	if s.loadErr != nil {
		return "", s.loadErr
	}
	return s.tokens[userID], nil
}

func (s *memoryTokenStore) DeleteToken(_ context.Context, userID shared.UserID) error {
	delete(s.tokens, userID)
	return nil
}

func TestCredentialStore_SessionTierOnly(t *testing.T) {
	durable := newMemoryTokenStore()
	store := NewCredentialStore(durable)
	store.Bind("user-1")
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "tok", false))

	assert.Equal(t, "tok", store.Token(ctx))
	// remember=false keeps the durable tier empty.
	assert.Empty(t, durable.tokens)
}

func TestCredentialStore_DurableTierSurvivesSessionLoss(t *testing.T) {
	durable := newMemoryTokenStore()
	store := NewCredentialStore(durable)
	store.Bind("user-1")
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "tok", true))
	assert.Equal(t, "tok", durable.tokens["user-1"])

	// A fresh store simulates a process restart: the session tier is
	// gone, the durable tier answers.
	restarted := NewCredentialStore(durable)
	restarted.Bind("user-1")
	assert.Equal(t, "tok", restarted.Token(ctx))
}

func TestCredentialStore_SessionTierWins(t *testing.T) {
	durable := newMemoryTokenStore()
	durable.tokens["user-1"] = "old-durable"

	store := NewCredentialStore(durable)
	store.Bind("user-1")
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "fresh-session", false))
	assert.Equal(t, "fresh-session", store.Token(ctx))
}

func TestCredentialStore_ClearDropsBothTiers(t *testing.T) {
	durable := newMemoryTokenStore()
	store := NewCredentialStore(durable)
	store.Bind("user-1")
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "tok", true))
	require.NoError(t, store.Clear(ctx))

	assert.Empty(t, store.Token(ctx))
	assert.Empty(t, store.Identity())
	assert.Empty(t, durable.tokens)
}

func TestCredentialStore_DurableLoadFailureMeansNoToken(t *testing.T) {
	durable := newMemoryTokenStore()
	durable.loadErr = errors.New("disk gone")

	store := NewCredentialStore(durable)
	store.Bind("user-1")

	assert.Empty(t, store.Token(context.Background()))
}

func TestCredentialStore_NoDurableTier(t *testing.T) {
	store := NewCredentialStore(nil)
	store.Bind("user-1")
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "tok", true))
	assert.Equal(t, "tok", store.Token(ctx))
	require.NoError(t, store.Clear(ctx))
	assert.Empty(t, store.Token(ctx))
}

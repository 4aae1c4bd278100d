// Package application wires the domain ledgers to storage and sync: the
// learner session lifecycle, write commands and event observers.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/learnhub/learning-progress-hub/internal/domain/learner"
	"github.com/learnhub/learning-progress-hub/internal/domain/mistake"
	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
	"github.com/learnhub/learning-progress-hub/internal/domain/syllabus"
	"github.com/learnhub/learning-progress-hub/internal/infrastructure/syncer"
	"github.com/learnhub/learning-progress-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION
// The learner session lifecycle: login (load remote state, fall back to
// the durable local copy when offline), logout (final sync, then scrub
// every trace of the identity), and host teardown (final sync only).
// ══════════════════════════════════════════════════════════════════════════════

// SessionStore is the durable local storage contract used by the session
// lifecycle. Implemented by the sqlite store.
type SessionStore interface {
	LoadSnapshot(ctx context.Context, userID shared.UserID) (learner.Snapshot, error)
	LoadWrongQuestions(ctx context.Context, userID shared.UserID) ([]mistake.Record, error)
	LoadSyllabusProgress(ctx context.Context, userID shared.UserID) ([]syllabus.ProgressRecord, error)
	PurgeIdentity(ctx context.Context, userID shared.UserID) error
}

// SessionConfig contains session configuration.
type SessionConfig struct {
	// Retry governs the login fetch against the remote store.
	Retry retry.Config

	// Logger for structured logging.
	Logger *slog.Logger
}

// Session owns the ledgers of the single active learner and drives their
// lifecycle against the remote store and the durable local copy.
type Session struct {
	progress    *learner.Ledger
	mistakes    *mistake.Ledger
	syllabi     *syllabus.Tracker
	store       SessionStore
	client      *syncer.Client
	creds       *syncer.CredentialStore
	coordinator *syncer.Coordinator

	logger *slog.Logger
	config SessionConfig
}

// NewSession creates the session service.
func NewSession(
	progress *learner.Ledger,
	mistakes *mistake.Ledger,
	syllabi *syllabus.Tracker,
	store SessionStore,
	client *syncer.Client,
	creds *syncer.CredentialStore,
	coordinator *syncer.Coordinator,
	config SessionConfig,
) *Session {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Retry.MaxAttempts <= 0 {
		config.Retry = retry.DefaultConfig()
	}
	return &Session{
		progress:    progress,
		mistakes:    mistakes,
		syllabi:     syllabi,
		store:       store,
		client:      client,
		creds:       creds,
		coordinator: coordinator,
		logger:      config.Logger,
		config:      config,
	}
}

// LoginResult reports what happened during login.
type LoginResult struct {
	// Offline indicates the remote fetch failed and the session runs on
	// the durable local copy.
	Offline bool

	// FirstLoginXP is the one-time first-login reward, 0 if already claimed.
	FirstLoginXP int

	// DailyRewardXP is the daily login reward, 0 if already claimed today.
	DailyRewardXP int

	// HeartsRestored is the number of hearts regenerated while away.
	HeartsRestored int
}

// Login establishes the learner session.
//
// The durable local copy is restored first so the session works offline,
// then the authoritative server snapshot overwrites it. An unauthorized
// response is terminal: credentials are discarded and the login fails.
// Any other fetch failure degrades to offline mode on the local copy.
func (s *Session) Login(ctx context.Context, userID shared.UserID, token string, remember bool) (*LoginResult, error) {
	if !userID.IsValid() {
		return nil, errors.New("login: user id is required")
	}
	if token == "" {
		return nil, errors.New("login: token is required")
	}

	s.creds.Bind(userID)
	if err := s.creds.Store(ctx, token, remember); err != nil {
		s.logger.Warn("failed to persist credential", "error", err)
	}

	s.progress.BindIdentity(userID)
	s.mistakes.BindIdentity(userID)
	s.syllabi.BindIdentity(userID)

	s.restoreLocal(ctx, userID)

	result := &LoginResult{}

	var payload *syncer.Payload
	err := retry.Do(ctx, s.config.Retry, func(ctx context.Context) error {
		fetched, err := s.client.FetchProgress(ctx, token)
		if errors.Is(err, shared.ErrUnauthorized) {
			return retry.Permanent(err)
		}
		if err != nil {
			return err
		}
		payload = fetched
		return nil
	})
	switch {
	case errors.Is(err, shared.ErrUnauthorized):
		s.unbind(ctx, userID)
		return nil, fmt.Errorf("login: %w", shared.ErrUnauthorized)
	case err != nil:
		s.logger.Warn("remote fetch failed, continuing offline", "error", err)
		result.Offline = true
	default:
		s.progress.LoadFromServer(payload.Snapshot)
		s.mistakes.Load(payload.WrongQuestions)
	}

	result.HeartsRestored = s.progress.CheckAndRestoreHearts()
	if xp, ok := s.progress.ClaimFirstLoginReward(); ok {
		result.FirstLoginXP = xp
	}
	if xp, ok := s.progress.ClaimDailyLoginReward(); ok {
		result.DailyRewardXP = xp
	}

	s.progress.StartSession()

	s.logger.Info("session started",
		"user_id", userID.String(),
		"offline", result.Offline,
		"hearts_restored", result.HeartsRestored,
	)
	return result, nil
}

// Logout ends the session: one final synchronous write of the current
// state, then every trace of the identity is removed from the device.
//
// The order matters. Identities are unbound before the ledgers reset so
// the change observer sees guest state and cannot schedule a write of the
// zeroed ledgers over the just-synced server copy.
func (s *Session) Logout(ctx context.Context) error {
	userID := s.progress.Identity()
	if userID == "" {
		return nil
	}

	token := s.creds.Token(ctx)
	if err := s.coordinator.ForceImmediateSync(ctx, s.buildPayload(), token); err != nil {
		s.logger.Warn("final sync failed, local changes may be lost", "error", err)
	}

	s.unbind(ctx, userID)
	s.logger.Info("session ended", "user_id", userID.String())
	return nil
}

// Teardown flushes the current state without ending the session. Called
// when the host process is shutting down; the identity and the durable
// copy stay intact for the next start.
func (s *Session) Teardown(ctx context.Context) error {
	if s.progress.Identity() == "" {
		return nil
	}
	return s.coordinator.ForceImmediateSync(ctx, s.buildPayload(), "")
}

// Progress exposes the progress ledger.
func (s *Session) Progress() *learner.Ledger { return s.progress }

// Mistakes exposes the wrong-question ledger.
func (s *Session) Mistakes() *mistake.Ledger { return s.mistakes }

// Syllabi exposes the per-curriculum tracker.
func (s *Session) Syllabi() *syllabus.Tracker { return s.syllabi }

// buildPayload assembles the full sync payload from ledger state.
func (s *Session) buildPayload() syncer.Payload {
	return syncer.NewPayload(s.progress.Snapshot(), s.mistakes.Records())
}

// restoreLocal loads the durable local copy, if any. Missing partitions
// are a normal first-login condition, not an error.
func (s *Session) restoreLocal(ctx context.Context, userID shared.UserID) {
	snap, err := s.store.LoadSnapshot(ctx, userID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
	case err != nil:
		s.logger.Warn("failed to restore local snapshot", "error", err)
	default:
		s.progress.LoadFromDevice(snap)
	}

	if records, err := s.store.LoadWrongQuestions(ctx, userID); err != nil {
		s.logger.Warn("failed to restore wrong questions", "error", err)
	} else if len(records) > 0 {
		s.mistakes.Load(records)
	}

	if records, err := s.store.LoadSyllabusProgress(ctx, userID); err != nil {
		s.logger.Warn("failed to restore syllabus progress", "error", err)
	} else if len(records) > 0 {
		s.syllabi.Load(records)
	}
}

// unbind drops the identity from every ledger, resets in-memory state,
// scrubs the durable partitions and clears both credential tiers.
func (s *Session) unbind(ctx context.Context, userID shared.UserID) {
	s.coordinator.CancelPending()

	s.progress.BindIdentity("")
	s.mistakes.BindIdentity("")
	s.syllabi.BindIdentity("")

	s.progress.Reset()
	s.mistakes.Reset()
	s.syllabi.Reset()

	if err := s.store.PurgeIdentity(ctx, userID); err != nil {
		s.logger.Warn("failed to purge durable state", "error", err)
	}
	if err := s.creds.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear credentials", "error", err)
	}
}

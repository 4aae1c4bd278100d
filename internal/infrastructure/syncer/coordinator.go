package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COORDINATOR
// ══════════════════════════════════════════════════════════════════════════════

// DefaultDebounceInterval is the trailing-edge debounce window.
const DefaultDebounceInterval = 5 * time.Second

// CoordinatorConfig contains configuration for the Coordinator.
type CoordinatorConfig struct {
	// DebounceInterval is the trailing-edge debounce window.
	DebounceInterval time.Duration

	// WriteTimeout bounds a background write.
	WriteTimeout time.Duration

	// Scheduler for delayed execution; tests inject a fake.
	Scheduler Scheduler

	// Logger for structured logging.
	Logger *slog.Logger

	// OnSyncStateChange, when set, is called with true while a write is
	// in flight. Feeds the ledger's in-flight-sync flag.
	OnSyncStateChange func(inFlight bool)
}

// Coordinator reconciles the local snapshot with the remote store without
// blocking the caller. Writes are best-effort: background failures are
// swallowed and recovery relies on the next mutation re-arming the
// debounce cycle.
//
// Known ordering hazard, accepted by design: an in-flight request started
// from an older snapshot is never cancelled when a newer one is scheduled.
// If the older request completes after the newer one, it overwrites
// fresher remote state with stale data. Scheduling picks the most recent
// snapshot; completion order is not enforced.
type Coordinator struct {
	client *Client
	creds  *CredentialStore
	config CoordinatorConfig
	logger *slog.Logger

	mu            sync.Mutex
	cancelPending func() bool
}

// NewCoordinator creates a sync coordinator.
func NewCoordinator(client *Client, creds *CredentialStore, config CoordinatorConfig) *Coordinator {
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = DefaultDebounceInterval
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 15 * time.Second
	}
	if config.Scheduler == nil {
		config.Scheduler = TimerScheduler{}
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Coordinator{
		client: client,
		creds:  creds,
		config: config,
		logger: config.Logger,
	}
}

// DebouncedSave schedules a background write of the payload, cancelling
// any not-yet-fired scheduled write. Only the most recently scheduled
// payload is ever sent (trailing-edge debounce).
func (c *Coordinator) DebouncedSave(payload Payload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelPending != nil {
		c.cancelPending()
	}
	c.cancelPending = c.config.Scheduler.Schedule(c.config.DebounceInterval, func() {
		c.flush(payload)
	})
}

// flush performs one background write. All failures are terminal for the
// attempt: a 401 is dropped outright, other errors are logged and
// swallowed. There is no retry queue - the next mutation re-arms the
// debounce cycle.
func (c *Coordinator) flush(payload Payload) {
	correlationID := uuid.NewString()

	ctx, cancel := context.WithTimeout(context.Background(), c.config.WriteTimeout)
	defer cancel()

	token := c.creds.Token(ctx)
	if token == "" {
		c.logger.Debug("sync skipped: no credential", "correlation_id", correlationID)
		return
	}

	c.setSyncing(true)
	defer c.setSyncing(false)

	err := c.client.SaveProgress(ctx, token, payload)
	switch {
	case err == nil:
		c.logger.Debug("progress synced", "correlation_id", correlationID)
	case errors.Is(err, shared.ErrUnauthorized):
		c.logger.Warn("sync dropped: unauthorized", "correlation_id", correlationID)
	default:
		c.logger.Warn("sync failed", "correlation_id", correlationID, "error", err)
	}
}

// ForceImmediateSync bypasses debouncing; used at logout and at session
// teardown. Credential precedence: the explicit token parameter wins over
// the session tier, which wins over the durable tier - at logout the
// stored tiers may already be cleared by the time this fires.
//
// The call completes (success or failure) before returning, so callers
// can safely discard credentials afterwards. When the primary write
// fails for any reason other than 401, the payload is handed to the
// fire-and-forget fallback transport.
func (c *Coordinator) ForceImmediateSync(ctx context.Context, payload Payload, explicitToken string) error {
	c.mu.Lock()
	if c.cancelPending != nil {
		c.cancelPending()
		c.cancelPending = nil
	}
	c.mu.Unlock()

	token := explicitToken
	if token == "" {
		token = c.creds.Token(ctx)
	}
	if token == "" {
		return shared.ErrNoIdentity
	}

	c.setSyncing(true)
	defer c.setSyncing(false)

	err := c.client.SaveProgress(ctx, token, payload)
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrUnauthorized) {
		// Terminal: the fallback would be rejected as well.
		return err
	}

	if data, merr := payload.Marshal(); merr == nil {
		c.client.BeaconSave(data, token)
	}
	return err
}

// CancelPending drops a scheduled-but-unfired write, if any.
func (c *Coordinator) CancelPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelPending != nil {
		c.cancelPending()
		c.cancelPending = nil
	}
}

func (c *Coordinator) setSyncing(v bool) {
	if c.config.OnSyncStateChange != nil {
		c.config.OnSyncStateChange(v)
	}
}

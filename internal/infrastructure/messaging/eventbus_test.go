package messaging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
)

func TestPublish_DeliversToTypeAndAllHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	var typed, all []shared.EventType
	require.NoError(t, bus.Subscribe(shared.EventXPGained, func(e shared.Event) error {
		typed = append(typed, e.EventType())
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		all = append(all, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventXPGained, "u1")))
	require.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventHeartsChanged, "u1")))

	assert.Equal(t, []shared.EventType{shared.EventXPGained}, typed)
	assert.Equal(t, []shared.EventType{shared.EventXPGained, shared.EventHeartsChanged}, all)
}

func TestPublish_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	delivered := false
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		return errors.New("observer failed")
	}))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		delivered = true
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventXPGained, "u1")))
	assert.True(t, delivered)
}

func TestPublish_IsSynchronous(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	handled := false
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		handled = true
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventXPGained, "u1")))
	// Inline delivery: the handler has run by the time Publish returns.
	assert.True(t, handled)
}

func TestClose_RejectsFurtherUse(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewBaseEvent(shared.EventXPGained, "u1")), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
}

func TestSubscribe_NilHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	assert.Error(t, bus.Subscribe(shared.EventXPGained, nil))
	assert.Error(t, bus.SubscribeAll(nil))
}

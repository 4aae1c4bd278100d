package shared

import "time"

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the mutation-to-sync wiring.
// Every durable state change publishes one of these; the sync observer
// subscribes to all of them.
const (
	// Progress events
	EventXPGained            EventType = "progress.xp_gained"
	EventAchievementUnlocked EventType = "progress.achievement_unlocked"
	EventHeartsChanged       EventType = "progress.hearts_changed"
	EventStreakUpdated       EventType = "progress.streak_updated"
	EventQuizRecorded        EventType = "progress.quiz_recorded"
	EventChapterCompleted    EventType = "progress.chapter_completed"
	EventCourseCompleted     EventType = "progress.course_completed"
	EventRewardClaimed       EventType = "progress.reward_claimed"
	EventProgressUpdated     EventType = "progress.updated"
	EventProgressReset       EventType = "progress.reset"
	EventProgressLoaded      EventType = "progress.loaded"

	// Mistake-book events
	EventWrongQuestionRecorded EventType = "mistake.recorded"
	EventWrongQuestionResolved EventType = "mistake.resolved"

	// Syllabus events
	EventSyllabusProgressChanged EventType = "syllabus.progress_changed"

	// System events
	EventSyncCompleted EventType = "system.sync_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the id of the learner that produced this event.
	// Empty for anonymous/guest state.
	AggregateID() string
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// EventHandler processes a published event.
type EventHandler func(event Event) error

// EventPublisher is the write side of the event bus.
// Domain ledgers publish through this interface; they never subscribe.
type EventPublisher interface {
	Publish(event Event) error
}

// EventBus is the full publish/subscribe contract.
// Implementations live in infrastructure/messaging.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error

	// Close shuts the bus down; further publishes fail.
	Close() error
}

// NopPublisher discards all events. Useful in tests and for ledgers that
// are not wired to a bus yet.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }

package status_effects

import (
	"context"

	"rift-and-ruin/server/logging"
)

const (
	// EventApplied is emitted when a status effect lands on an actor.
	EventApplied logging.EventType = "status_effects.applied"
	// EventRefreshed is emitted when a reapplication resets the remaining duration.
	EventRefreshed logging.EventType = "status_effects.refreshed"
	// EventStacked is emitted when a reapplication adds a stack.
	EventStacked logging.EventType = "status_effects.stacked"
	// EventBlocked is emitted when immunity or a conflicting effect prevents application.
	EventBlocked logging.EventType = "status_effects.blocked"
	// EventTick is emitted for each periodic damage or heal pulse.
	EventTick logging.EventType = "status_effects.tick"
	// EventExpired is emitted when an effect runs out naturally.
	EventExpired logging.EventType = "status_effects.expired"
	// EventRemoved is emitted when an effect is dispelled before expiry.
	EventRemoved logging.EventType = "status_effects.removed"
)

// AppliedPayload captures details about a status effect application.
type AppliedPayload struct {
	StatusEffect string  `json:"statusEffect"`
	SourceID     string  `json:"sourceId,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
	Stacks       int     `json:"stacks,omitempty"`
	Displaced    string  `json:"displaced,omitempty"`
}

// BlockedPayload explains why an application was rejected.
type BlockedPayload struct {
	StatusEffect string `json:"statusEffect"`
	Reason       string `json:"reason"`
	BlockedBy    string `json:"blockedBy,omitempty"`
}

// TickPayload captures one periodic pulse.
type TickPayload struct {
	StatusEffect string  `json:"statusEffect"`
	Amount       float64 `json:"amount"`
	Healing      bool    `json:"healing,omitempty"`
	TargetHealth float64 `json:"targetHealth"`
}

// EndedPayload describes an effect leaving an actor.
type EndedPayload struct {
	StatusEffect string `json:"statusEffect"`
	Reason       string `json:"reason,omitempty"`
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, tick uint64, severity logging.Severity, actor logging.EntityRef, target logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: severity,
		Category: logging.CategoryStatusEffects,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Applied publishes a status effect application event.
func Applied(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload AppliedPayload, extra map[string]any) {
	publish(ctx, pub, EventApplied, tick, logging.SeverityInfo, actor, target, payload, extra)
}

// Refreshed publishes a duration refresh event.
func Refreshed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload AppliedPayload, extra map[string]any) {
	publish(ctx, pub, EventRefreshed, tick, logging.SeverityDebug, actor, target, payload, extra)
}

// Stacked publishes a stack accumulation event.
func Stacked(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload AppliedPayload, extra map[string]any) {
	publish(ctx, pub, EventStacked, tick, logging.SeverityDebug, actor, target, payload, extra)
}

// Blocked publishes a rejected application event.
func Blocked(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload BlockedPayload, extra map[string]any) {
	publish(ctx, pub, EventBlocked, tick, logging.SeverityDebug, actor, target, payload, extra)
}

// Tick publishes a periodic pulse event.
func Tick(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload TickPayload, extra map[string]any) {
	publish(ctx, pub, EventTick, tick, logging.SeverityDebug, actor, target, payload, extra)
}

// Expired publishes a natural expiry event.
func Expired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload EndedPayload, extra map[string]any) {
	publish(ctx, pub, EventExpired, tick, logging.SeverityDebug, actor, target, payload, extra)
}

// Removed publishes an early removal event.
func Removed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload EndedPayload, extra map[string]any) {
	publish(ctx, pub, EventRemoved, tick, logging.SeverityInfo, actor, target, payload, extra)
}

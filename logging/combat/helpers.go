package combat

import (
	"context"

	"rift-and-ruin/server/logging"
)

const (
	// EventInvocation is emitted when an effect invocation resolves its targets.
	EventInvocation logging.EventType = "combat.invocation"
	// EventDamage is emitted when an effect deals damage to a target.
	EventDamage logging.EventType = "combat.damage"
	// EventHeal is emitted when an effect restores health to a target.
	EventHeal logging.EventType = "combat.heal"
	// EventDefeat is emitted when an actor is defeated.
	EventDefeat logging.EventType = "combat.defeat"
)

// InvocationPayload summarises a resolved effect invocation.
type InvocationPayload struct {
	Ability     string   `json:"ability,omitempty"`
	Tags        []string `json:"tags"`
	Geometry    string   `json:"geometry"`
	TargetCount int      `json:"targetCount"`
}

// DamagePayload captures the amount dealt to a single target.
type DamagePayload struct {
	Ability      string  `json:"ability,omitempty"`
	Amount       float64 `json:"amount"`
	Absorbed     float64 `json:"absorbed,omitempty"`
	TargetHealth float64 `json:"targetHealth"`
	StatusEffect string  `json:"statusEffect,omitempty"`
}

// HealPayload captures the amount restored to a single target.
type HealPayload struct {
	Ability      string  `json:"ability,omitempty"`
	Amount       float64 `json:"amount"`
	TargetHealth float64 `json:"targetHealth"`
}

// DefeatPayload describes the context for a fatal blow.
type DefeatPayload struct {
	Ability      string `json:"ability,omitempty"`
	StatusEffect string `json:"statusEffect,omitempty"`
}

// Invocation publishes a resolved invocation event.
func Invocation(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, invocationID string, payload InvocationPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:         EventInvocation,
		Tick:         tick,
		Actor:        actor,
		Targets:      targets,
		Severity:     logging.SeverityInfo,
		Category:     logging.CategoryCombat,
		Payload:      payload,
		Extra:        extra,
		InvocationID: invocationID,
	}
	pub.Publish(ctx, event)
}

// Damage publishes a combat damage event for a single target.
func Damage(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, invocationID string, payload DamagePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:         EventDamage,
		Tick:         tick,
		Actor:        actor,
		Targets:      []logging.EntityRef{target},
		Severity:     logging.SeverityInfo,
		Category:     logging.CategoryCombat,
		Payload:      payload,
		Extra:        extra,
		InvocationID: invocationID,
	}
	pub.Publish(ctx, event)
}

// Heal publishes a combat heal event for a single target.
func Heal(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, invocationID string, payload HealPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:         EventHeal,
		Tick:         tick,
		Actor:        actor,
		Targets:      []logging.EntityRef{target},
		Severity:     logging.SeverityInfo,
		Category:     logging.CategoryCombat,
		Payload:      payload,
		Extra:        extra,
		InvocationID: invocationID,
	}
	pub.Publish(ctx, event)
}

// Defeat publishes a combat defeat event for the eliminated actor.
func Defeat(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, invocationID string, payload DefeatPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:         EventDefeat,
		Tick:         tick,
		Actor:        actor,
		Targets:      []logging.EntityRef{target},
		Severity:     logging.SeverityInfo,
		Category:     logging.CategoryCombat,
		Payload:      payload,
		Extra:        extra,
		InvocationID: invocationID,
	}
	pub.Publish(ctx, event)
}

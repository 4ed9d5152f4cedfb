package world

import (
	"github.com/google/uuid"

	"rift-and-ruin/server/combat/geometry"
	"rift-and-ruin/server/combat/status"
)

const (
	DefaultMaxHealth = 100.0
	DefaultMoveSpeed = 4.0

	// knockbackFriction is the fraction of a knockback impulse shed per second.
	knockbackFriction = 5.0
	impulseEpsilon    = 1e-3
)

// ActorSpec describes an actor to spawn. Zero fields fall back to defaults.
type ActorSpec struct {
	ID          string
	Name        string
	Category    string
	X, Y        float64
	Facing      geometry.Vec2
	Health      float64
	MoveSpeed   float64
	Resistances map[string]float64
}

// Actor is a living entity in the arena: a position, a health pool and a
// status manager. It satisfies the combat capability interfaces, so the
// effect executor can damage, push and afflict it without knowing the
// concrete type.
type Actor struct {
	id          string
	name        string
	category    string
	pos         geometry.Vec2
	facing      geometry.Vec2
	intent      geometry.Vec2
	impulse     geometry.Vec2
	health      float64
	maxHealth   float64
	moveSpeed   float64
	resistances map[string]float64
	statuses    *status.Manager
}

func newActor(spec ActorSpec) *Actor {
	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}
	name := spec.Name
	if name == "" {
		name = id
	}
	category := spec.Category
	if category == "" {
		category = "enemy"
	}
	maxHealth := spec.Health
	if maxHealth <= 0 {
		maxHealth = DefaultMaxHealth
	}
	moveSpeed := spec.MoveSpeed
	if moveSpeed <= 0 {
		moveSpeed = DefaultMoveSpeed
	}
	facing := spec.Facing
	if facing.IsZero() {
		facing = geometry.Vec2{X: 1}
	}
	return &Actor{
		id:          id,
		name:        name,
		category:    category,
		pos:         geometry.Vec2{X: spec.X, Y: spec.Y},
		facing:      facing.Normalize(),
		health:      maxHealth,
		maxHealth:   maxHealth,
		moveSpeed:   moveSpeed,
		resistances: spec.Resistances,
	}
}

func (a *Actor) ID() string   { return a.id }
func (a *Actor) Name() string { return a.name }

func (a *Actor) Alive() bool { return a.health > 0 }

func (a *Actor) Position() geometry.Vec2 { return a.pos }

func (a *Actor) CombatCategory() string { return a.category }

func (a *Actor) Facing() geometry.Vec2 { return a.facing }

// Velocity reports the actor's effective velocity this tick: the movement
// intent scaled by speed and status modifiers, plus any live knockback.
func (a *Actor) Velocity() geometry.Vec2 {
	return a.intent.Scale(a.currentSpeed()).Add(a.impulse)
}

func (a *Actor) Health() float64    { return a.health }
func (a *Actor) MaxHealth() float64 { return a.maxHealth }

// ApplyHealthDelta adjusts health, clamped to [0, max]. Damage arrives as
// a negative delta.
func (a *Actor) ApplyHealthDelta(delta float64, _ string) {
	a.health += delta
	if a.health < 0 {
		a.health = 0
	}
	if a.health > a.maxHealth {
		a.health = a.maxHealth
	}
}

func (a *Actor) StatusManager() *status.Manager { return a.statuses }

// ApplyImpulse adds a knockback impulse that decays over subsequent ticks.
func (a *Actor) ApplyImpulse(direction geometry.Vec2, force float64) {
	a.impulse = a.impulse.Add(direction.Normalize().Scale(force))
}

// StatusResistance reports the duration multiplier for a status tag.
// Unlisted tags take full effect.
func (a *Actor) StatusResistance(tag string) float64 {
	if a.resistances == nil {
		return 1
	}
	if mult, ok := a.resistances[tag]; ok {
		return mult
	}
	return 1
}

// SetMoveIntent points the actor's movement for subsequent steps. The
// vector is normalized; zero stops the actor.
func (a *Actor) SetMoveIntent(direction geometry.Vec2) {
	a.intent = direction.Normalize()
	if !a.intent.IsZero() {
		a.facing = a.intent
	}
}

func (a *Actor) currentSpeed() float64 {
	return a.moveSpeed * a.statuses.SpeedMultiplier()
}

func (a *Actor) step(dt float64, width, height float64) {
	velocity := a.Velocity()
	if !velocity.IsZero() {
		a.pos = a.pos.Add(velocity.Scale(dt))
		a.pos.X = clamp(a.pos.X, 0, width)
		a.pos.Y = clamp(a.pos.Y, 0, height)
	}

	decay := 1 - knockbackFriction*dt
	if decay < 0 {
		decay = 0
	}
	a.impulse = a.impulse.Scale(decay)
	if a.impulse.Length() < impulseEpsilon {
		a.impulse = geometry.Vec2{}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

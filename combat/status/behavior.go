package status

import "rift-and-ruin/server/combat/tags"

// Owner is the slice of an entity a status manager needs: identity for
// event attribution, health for pulse application.
type Owner interface {
	ID() string
	Health() float64
	ApplyHealthDelta(delta float64, sourceID string)
}

// Resistant is an optional owner capability. The returned multiplier
// scales incoming status durations; 0 blocks the application outright.
type Resistant interface {
	StatusResistance(tag string) float64
}

// pulse is the health change one periodic tick produces.
type pulse struct {
	damage  float64
	healing float64
}

// behavior binds a status tag to its periodic effect. Presence-derived
// semantics (immobilize, speed, damage multipliers, absorb pools) live on
// the Manager's query methods instead; most entries only need onPulse.
type behavior struct {
	onApply func(m *Manager, inst *Instance)
	onPulse func(m *Manager, inst *Instance) pulse
	onEnd   func(m *Manager, inst *Instance, reason string)
}

// damagePerStack reads the named parameter and multiplies by the stack
// count, so stacking DoTs scale linearly.
func damagePerStack(param string) func(m *Manager, inst *Instance) pulse {
	return func(_ *Manager, inst *Instance) pulse {
		amount := inst.Params.FloatOr(param, 0)
		if amount <= 0 {
			return pulse{}
		}
		stacks := inst.Stacks
		if stacks < 1 {
			stacks = 1
		}
		return pulse{damage: amount * float64(stacks)}
	}
}

func healPerStack(param string) func(m *Manager, inst *Instance) pulse {
	return func(_ *Manager, inst *Instance) pulse {
		amount := inst.Params.FloatOr(param, 0)
		if amount <= 0 {
			return pulse{}
		}
		stacks := inst.Stacks
		if stacks < 1 {
			stacks = 1
		}
		return pulse{healing: amount * float64(stacks)}
	}
}

// behaviors is the built-in table. Status tags absent from it are still
// tracked and queried by presence; they just have no scripted reaction.
var behaviors = map[string]behavior{
	tags.TagBurn:   {onPulse: damagePerStack("burn_damage")},
	tags.TagBleed:  {onPulse: damagePerStack("bleed_damage")},
	tags.TagPoison: {onPulse: damagePerStack("poison_damage")},
	tags.TagShock:  {onPulse: damagePerStack("shock_damage")},

	tags.TagRegeneration: {onPulse: healPerStack("regeneration_heal")},

	tags.TagShield: {
		onApply: func(_ *Manager, inst *Instance) {
			inst.Pool = inst.Params.FloatOr("shield_amount", 0)
		},
	},
}

func behaviorFor(tag string) behavior {
	return behaviors[tag]
}

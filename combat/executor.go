// Package combat resolves tag-driven effects end to end: parse the tag
// list, find the targets the geometry selects, then apply damage, healing,
// knockback and status effects to each of them.
package combat

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"rift-and-ruin/server/combat/geometry"
	"rift-and-ruin/server/combat/parse"
	"rift-and-ruin/server/combat/status"
	"rift-and-ruin/server/combat/tags"
	"rift-and-ruin/server/logging"
	logcombat "rift-and-ruin/server/logging/combat"
)

// Target is the minimum surface an entity needs to be selected by an
// effect. Optional capabilities below unlock the rest.
type Target = geometry.Target

// Damageable lets effects change an entity's health. Damage arrives as a
// negative delta so the entity owns its own clamping and death rules.
type Damageable interface {
	Health() float64
	ApplyHealthDelta(delta float64, sourceID string)
}

// StatusHost exposes an entity's status manager to effect resolution.
type StatusHost interface {
	StatusManager() *status.Manager
}

// Pushable lets knockback effects shove an entity away from the source.
type Pushable interface {
	ApplyImpulse(direction geometry.Vec2, force float64)
}

// RNG is the randomness the executor consumes for critical and on-hit
// status rolls. *rand.Rand satisfies it.
type RNG interface {
	Float64() float64
}

// TickSource supplies the current simulation tick for event stamping.
type TickSource func() uint64

// TargetResult records what one invocation did to one target.
type TargetResult struct {
	TargetID string
	Damage   float64
	Absorbed float64
	Healing  float64
	Critical bool
	Defeated bool
	Statuses []string
}

// Invocation is the record of one resolved effect: the parsed
// configuration plus the per-target outcomes, keyed by a fresh ID that
// also stamps every event the resolution emitted.
type Invocation struct {
	ID        string
	SourceID  string
	PrimaryID string
	Tick      uint64
	At        time.Time
	Config    *parse.Config
	Results   []TargetResult
}

// TargetIDs returns the affected target IDs in application order.
func (inv *Invocation) TargetIDs() []string {
	if inv == nil {
		return nil
	}
	ids := make([]string, 0, len(inv.Results))
	for _, result := range inv.Results {
		ids = append(ids, result.TargetID)
	}
	return ids
}

// TotalDamage sums the post-mitigation damage across all targets.
func (inv *Invocation) TotalDamage() float64 {
	if inv == nil {
		return 0
	}
	var total float64
	for _, result := range inv.Results {
		total += result.Damage
	}
	return total
}

// Executor wires the parser, the target finder and the registry together.
type Executor struct {
	reg    *tags.Registry
	parser *parse.Parser
	finder *geometry.Finder
	pub    logging.Publisher
	rng    RNG
	tick   TickSource
}

// NewExecutor builds an executor over the registry. A nil rng falls back
// to a time-seeded source; a nil tick source stamps events with tick 0.
func NewExecutor(reg *tags.Registry, pub logging.Publisher, rng RNG, tick TickSource) (*Executor, error) {
	parser, err := parse.NewParser(reg, pub)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Executor{
		reg:    reg,
		parser: parser,
		finder: geometry.NewFinder(pub),
		pub:    pub,
		rng:    rng,
		tick:   tick,
	}, nil
}

// ExecuteEffect resolves one effect invocation: parse the tags, select
// targets, then apply damage (category bonus, outgoing and incoming
// multipliers, critical roll, shield absorption), healing, knockback,
// listed status effects and chance-based on-hit statuses from the damage
// tags. Targets that lack a capability simply skip that part. A geometry
// that selects nobody falls back to the primary target, provided the
// primary itself is alive and matches the context.
func (e *Executor) ExecuteEffect(source, primary Target, tagList []string, params tags.Params, candidates []Target) *Invocation {
	cfg := e.parser.Parse(tagList, params)
	targets := e.finder.FindTargets(cfg.Geometry, source, primary, cfg.Params, cfg.Context, candidates)
	if len(targets) == 0 && primary != nil && primary.Alive() && geometry.Matches(primary, cfg.Context) {
		targets = []Target{primary}
	}

	inv := &Invocation{ID: uuid.NewString(), Tick: e.tickNow(), At: time.Now(), Config: cfg}
	if source != nil {
		inv.SourceID = source.ID()
	}
	if primary != nil {
		inv.PrimaryID = primary.ID()
	}
	ability := strings.Join(cfg.Tags, "+")

	targetRefs := make([]logging.EntityRef, 0, len(targets))
	for _, target := range targets {
		targetRefs = append(targetRefs, entityRef(target.ID()))
	}
	var extra map[string]any
	if len(cfg.Warnings) > 0 {
		extra = map[string]any{"warnings": cfg.Warnings}
	}
	logcombat.Invocation(context.Background(), e.pub, e.tickNow(), entityRef(inv.SourceID), targetRefs, inv.ID, logcombat.InvocationPayload{
		Ability:     ability,
		Tags:        cfg.Tags,
		Geometry:    cfg.Geometry,
		TargetCount: len(targets),
	}, extra)

	outgoing := 1.0
	if host, ok := source.(StatusHost); ok {
		outgoing = host.StatusManager().OutgoingDamageMultiplier()
	}

	for _, target := range targets {
		inv.Results = append(inv.Results, e.applyToTarget(inv, cfg, ability, outgoing, source, target))
	}
	return inv
}

func (e *Executor) applyToTarget(inv *Invocation, cfg *parse.Config, ability string, outgoing float64, source, target Target) TargetResult {
	result := TargetResult{TargetID: target.ID()}
	var mgr *status.Manager
	if host, ok := target.(StatusHost); ok {
		mgr = host.StatusManager()
	}

	if cfg.BaseDamage > 0 {
		damage := cfg.BaseDamage * outgoing
		if categorized, ok := target.(geometry.Categorized); ok {
			category := strings.ToLower(strings.TrimSpace(categorized.CombatCategory()))
			if category != "" {
				damage *= 1 + cfg.Params.FloatOr("bonus_vs_"+category, 0)
			}
		}
		if cfg.HasSpecial(tags.TagCritical) && e.rng.Float64() < cfg.Params.FloatOr("critical_chance", 0) {
			damage *= cfg.Params.FloatOr("critical_multiplier", 2.0)
			result.Critical = true
		}
		damage *= mgr.DamageTakenMultiplier()
		afterShield := mgr.AbsorbDamage(damage)
		result.Absorbed = damage - afterShield
		damage = afterShield

		if damage > 0 {
			if damageable, ok := target.(Damageable); ok {
				damageable.ApplyHealthDelta(-damage, inv.SourceID)
			}
			result.Damage = damage
			if cfg.HasSpecial(tags.TagLifesteal) {
				if healer, ok := source.(Damageable); ok {
					if heal := damage * cfg.Params.FloatOr("lifesteal_ratio", 0); heal > 0 {
						healer.ApplyHealthDelta(heal, inv.SourceID)
					}
				}
			}
		}
		logcombat.Damage(context.Background(), e.pub, e.tickNow(), entityRef(inv.SourceID), entityRef(target.ID()), inv.ID, logcombat.DamagePayload{
			Ability:      ability,
			Amount:       result.Damage,
			Absorbed:     result.Absorbed,
			TargetHealth: healthOf(target),
		}, nil)

		if !target.Alive() {
			result.Defeated = true
			logcombat.Defeat(context.Background(), e.pub, e.tickNow(), entityRef(inv.SourceID), entityRef(target.ID()), inv.ID, logcombat.DefeatPayload{
				Ability: ability,
			}, nil)
		}
	}

	if cfg.BaseHealing > 0 {
		if damageable, ok := target.(Damageable); ok {
			damageable.ApplyHealthDelta(cfg.BaseHealing, inv.SourceID)
			result.Healing = cfg.BaseHealing
			logcombat.Heal(context.Background(), e.pub, e.tickNow(), entityRef(inv.SourceID), entityRef(target.ID()), inv.ID, logcombat.HealPayload{
				Ability:      ability,
				Amount:       cfg.BaseHealing,
				TargetHealth: healthOf(target),
			}, nil)
		}
	}

	if cfg.HasSpecial(tags.TagKnockback) && source != nil {
		if pushable, ok := target.(Pushable); ok {
			direction := target.Position().Sub(source.Position()).Normalize()
			force := cfg.Params.FloatOr("knockback_force", 0)
			if !direction.IsZero() && force > 0 {
				pushable.ApplyImpulse(direction, force)
			}
		}
	}

	for _, statusTag := range cfg.Statuses {
		if mgr.Apply(statusTag, cfg.Params, inv.SourceID) {
			result.Statuses = append(result.Statuses, statusTag)
		}
	}

	if result.Damage > 0 {
		for _, damageTag := range cfg.DamageTypes {
			def, ok := e.reg.Definition(damageTag)
			if !ok || !def.AutoApply.Enabled() {
				continue
			}
			if e.rng.Float64() >= def.AutoApply.Chance {
				continue
			}
			if mgr.Apply(def.AutoApply.Status, cfg.Params, inv.SourceID) {
				result.Statuses = append(result.Statuses, def.AutoApply.Status)
			}
		}
	}
	return result
}

func (e *Executor) tickNow() uint64 {
	if e.tick == nil {
		return 0
	}
	return e.tick()
}

func entityRef(id string) logging.EntityRef {
	if id == "" {
		return logging.EntityRef{}
	}
	return logging.EntityRef{ID: id, Kind: logging.EntityKindUnknown}
}

func healthOf(target Target) float64 {
	if damageable, ok := target.(Damageable); ok {
		return damageable.Health()
	}
	return 0
}

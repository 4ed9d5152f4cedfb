package status

import (
	"context"
	"strings"

	"rift-and-ruin/server/combat/tags"
	"rift-and-ruin/server/logging"
	logstatus "rift-and-ruin/server/logging/status_effects"
)

// Manager owns every status effect on one entity. Nothing here is shared:
// each entity gets its own manager, and managers only meet through the
// read-only registry, so per-entity updates can run without locking.
type Manager struct {
	owner  Owner
	reg    *tags.Registry
	pub    logging.Publisher
	tickFn func() uint64

	// active preserves application order so pulses, absorb draining and
	// queries iterate deterministically.
	active []*Instance
	index  map[string]*Instance
}

// NewManager builds a manager for one entity. The publisher and tick
// supplier are optional; without them the manager stays silent.
func NewManager(owner Owner, reg *tags.Registry, pub logging.Publisher, tickFn func() uint64) *Manager {
	return &Manager{
		owner:  owner,
		reg:    reg,
		pub:    pub,
		tickFn: tickFn,
		index:  make(map[string]*Instance),
	}
}

// Apply adds or re-applies a status effect. Stacking follows the registry
// declaration: additive effects gain a stack up to their cap and refresh,
// refresh effects reset their timer, and everything else is replaced.
// Applying a tag removes active tags the registry marks as mutually
// exclusive with it, and fails while an active tag grants immunity against
// it. An owner implementing Resistant scales the incoming duration; a zero
// result blocks the application. Returns false when the tag is not a known
// status or the application was blocked.
func (m *Manager) Apply(tag string, params tags.Params, sourceID string) bool {
	if m == nil || m.reg == nil || m.owner == nil {
		return false
	}
	canonical := m.reg.ResolveAlias(strings.ToLower(strings.TrimSpace(tag)))
	def, ok := m.reg.Definition(canonical)
	if !ok || !def.IsStatus() {
		return false
	}

	for _, holder := range m.active {
		holderDef, ok := m.reg.Definition(holder.Tag)
		if !ok {
			continue
		}
		for _, immune := range holderDef.GrantsImmunity {
			if immune == canonical {
				m.emitBlocked(canonical, "immune", holder.Tag)
				return false
			}
		}
	}

	merged := def.Defaults.Merge(params)
	duration := resolveDuration(canonical, def, merged)
	resisted := false
	if resistant, ok := m.owner.(Resistant); ok {
		mult := resistant.StatusResistance(canonical)
		if mult < 0 {
			mult = 0
		}
		if mult != 1 {
			duration *= mult
			scaleDurationParams(merged, canonical, mult)
			resisted = mult == 0
		}
	}
	if duration <= 0 {
		reason := "zero_duration"
		if resisted {
			reason = "resisted"
		}
		m.emitBlocked(canonical, reason, "")
		return false
	}

	if existing, found := m.index[canonical]; found {
		existing.Params = existing.Params.Merge(params)
		existing.SourceID = sourceID
		switch def.Stacking {
		case tags.StackAdditive:
			existing.Duration = duration
			existing.Remaining = duration
			if def.MaxStacks <= 0 || existing.Stacks < def.MaxStacks {
				existing.Stacks++
				m.emitReapplied(logstatus.Stacked, existing)
			} else {
				m.emitReapplied(logstatus.Refreshed, existing)
			}
			return true
		case tags.StackRefresh:
			existing.Duration = duration
			existing.Remaining = duration
			m.emitReapplied(logstatus.Refreshed, existing)
			return true
		default:
			m.end(existing, "replaced")
		}
	}

	var displaced []string
	for _, inst := range m.snapshot() {
		if inst.Tag == canonical || !inst.Active() {
			continue
		}
		if m.reg.MutuallyExclusive(canonical, inst.Tag) {
			displaced = append(displaced, inst.Tag)
			m.end(inst, "displaced")
		}
	}

	inst := &Instance{
		Tag:       canonical,
		SourceID:  sourceID,
		Stacks:    1,
		Duration:  duration,
		Remaining: duration,
		TickEvery: def.TickEvery,
		Params:    merged,
		untilTick: def.TickEvery,
	}
	m.active = append(m.active, inst)
	m.index[canonical] = inst
	if b := behaviorFor(canonical); b.onApply != nil {
		b.onApply(m, inst)
	}
	logstatus.Applied(context.Background(), m.pub, m.tickNow(), m.sourceRef(sourceID), m.ownerRef(), logstatus.AppliedPayload{
		StatusEffect: inst.Tag,
		SourceID:     sourceID,
		Duration:     inst.Duration,
		Stacks:       inst.Stacks,
		Displaced:    strings.Join(displaced, ","),
	}, nil)
	return true
}

// Remove clears the tag immediately. Returns false when no instance of it
// is active.
func (m *Manager) Remove(tag string) bool {
	if m == nil || m.reg == nil {
		return false
	}
	canonical := m.reg.ResolveAlias(strings.ToLower(strings.TrimSpace(tag)))
	inst, ok := m.index[canonical]
	if !ok {
		return false
	}
	m.end(inst, "removed")
	return true
}

// Update advances every active effect by dt seconds: periodic pulses fire
// as their interval elapses (catching up if dt spans several intervals),
// then effects whose remaining time hit zero expire.
func (m *Manager) Update(dt float64) {
	if m == nil || dt <= 0 {
		return
	}
	for _, inst := range m.snapshot() {
		if !inst.Active() {
			continue
		}
		inst.Remaining -= dt
		if inst.TickEvery > 0 {
			inst.untilTick -= dt
			for inst.untilTick <= 0 && inst.Active() {
				m.pulse(inst)
				inst.untilTick += inst.TickEvery
			}
		}
		if inst.Active() && inst.Remaining <= 0 {
			m.end(inst, "expired")
		}
	}
}

// Has reports whether an instance of the tag is active. Aliases resolve.
func (m *Manager) Has(tag string) bool {
	if m == nil || m.reg == nil {
		return false
	}
	_, ok := m.index[m.reg.ResolveAlias(strings.ToLower(strings.TrimSpace(tag)))]
	return ok
}

// Get returns a copy of the active instance for the tag.
func (m *Manager) Get(tag string) (Instance, bool) {
	if m == nil || m.reg == nil {
		return Instance{}, false
	}
	inst, ok := m.index[m.reg.ResolveAlias(strings.ToLower(strings.TrimSpace(tag)))]
	if !ok {
		return Instance{}, false
	}
	copied := *inst
	copied.Params = inst.Params.Clone()
	return copied, true
}

// Active returns copies of every live instance in application order.
func (m *Manager) Active() []Instance {
	if m == nil {
		return nil
	}
	out := make([]Instance, 0, len(m.active))
	for _, inst := range m.active {
		copied := *inst
		copied.Params = inst.Params.Clone()
		out = append(out, copied)
	}
	return out
}

// Count reports the number of active instances.
func (m *Manager) Count() int {
	if m == nil {
		return 0
	}
	return len(m.active)
}

// Clear removes every active effect.
func (m *Manager) Clear() {
	if m == nil {
		return
	}
	for _, inst := range m.snapshot() {
		m.end(inst, "cleared")
	}
}

// ClearDebuffs removes active effects whose registry category is debuff;
// buffs stay.
func (m *Manager) ClearDebuffs() {
	if m == nil || m.reg == nil {
		return
	}
	for _, inst := range m.snapshot() {
		if m.reg.CategoryOf(inst.Tag) == tags.CategoryStatusDebuff {
			m.end(inst, "cleared")
		}
	}
}

// IsCrowdControlled reports whether any control effect is active,
// including slow.
func (m *Manager) IsCrowdControlled() bool {
	return m.hasAny(tags.TagFreeze, tags.TagStun, tags.TagRoot, tags.TagSlow)
}

// IsImmobilized reports whether movement is fully disabled.
func (m *Manager) IsImmobilized() bool {
	return m.hasAny(tags.TagFreeze, tags.TagStun, tags.TagRoot)
}

// IsSilenced reports whether actions are disabled.
func (m *Manager) IsSilenced() bool {
	return m.hasAny(tags.TagFreeze, tags.TagStun)
}

// SpeedMultiplier folds movement modifiers into one factor: 0 while
// immobilized, otherwise slow and haste amounts multiplied together.
func (m *Manager) SpeedMultiplier() float64 {
	if m == nil {
		return 1
	}
	if m.IsImmobilized() {
		return 0
	}
	mult := 1.0
	if inst, ok := m.index[tags.TagSlow]; ok {
		factor := 1 - inst.Params.FloatOr("slow_amount", 0)
		if factor < 0 {
			factor = 0
		}
		mult *= factor
	}
	if inst, ok := m.index[tags.TagHaste]; ok {
		mult *= 1 + inst.Params.FloatOr("haste_amount", 0)
	}
	return mult
}

// DamageTakenMultiplier scales incoming damage, above 1 while vulnerable.
func (m *Manager) DamageTakenMultiplier() float64 {
	if m == nil {
		return 1
	}
	mult := 1.0
	if inst, ok := m.index[tags.TagVulnerable]; ok {
		mult *= 1 + inst.Params.FloatOr("vulnerable_amount", 0)
	}
	return mult
}

// OutgoingDamageMultiplier scales damage dealt, below 1 while weakened.
func (m *Manager) OutgoingDamageMultiplier() float64 {
	if m == nil {
		return 1
	}
	mult := 1.0
	if inst, ok := m.index[tags.TagWeaken]; ok {
		factor := 1 - inst.Params.FloatOr("weaken_amount", 0)
		if factor < 0 {
			factor = 0
		}
		mult *= factor
	}
	return mult
}

// AbsorbDamage drains shield pools in application order and returns the
// damage left over once they are spent. Depleted shields are removed.
func (m *Manager) AbsorbDamage(amount float64) float64 {
	if m == nil || amount <= 0 {
		return amount
	}
	remaining := amount
	for _, inst := range m.snapshot() {
		if !inst.Active() || inst.Pool <= 0 {
			continue
		}
		absorb := inst.Pool
		if absorb > remaining {
			absorb = remaining
		}
		inst.Pool -= absorb
		remaining -= absorb
		if inst.Pool <= 0 {
			m.end(inst, "depleted")
		}
		if remaining <= 0 {
			break
		}
	}
	return remaining
}

func (m *Manager) snapshot() []*Instance {
	return append([]*Instance(nil), m.active...)
}

func (m *Manager) hasAny(tagList ...string) bool {
	if m == nil {
		return false
	}
	for _, tag := range tagList {
		if _, ok := m.index[tag]; ok {
			return true
		}
	}
	return false
}

func (m *Manager) pulse(inst *Instance) {
	b := behaviorFor(inst.Tag)
	if b.onPulse == nil {
		return
	}
	p := b.onPulse(m, inst)
	if p.damage > 0 {
		m.owner.ApplyHealthDelta(-p.damage, inst.SourceID)
		m.emitTick(inst, p.damage, false)
	}
	if p.healing > 0 {
		m.owner.ApplyHealthDelta(p.healing, inst.SourceID)
		m.emitTick(inst, p.healing, true)
	}
}

// end finalizes an instance exactly once: state transition, behavior
// cleanup, unlink, event.
func (m *Manager) end(inst *Instance, reason string) {
	if inst == nil || !inst.Active() {
		return
	}
	if reason == "expired" {
		inst.state = StateExpired
	} else {
		inst.state = StateRemoved
	}
	if b := behaviorFor(inst.Tag); b.onEnd != nil {
		b.onEnd(m, inst, reason)
	}
	delete(m.index, inst.Tag)
	for i, candidate := range m.active {
		if candidate == inst {
			m.active = append(m.active[:i], m.active[i+1:]...)
			break
		}
	}
	payload := logstatus.EndedPayload{StatusEffect: inst.Tag, Reason: reason}
	if reason == "expired" {
		logstatus.Expired(context.Background(), m.pub, m.tickNow(), m.sourceRef(inst.SourceID), m.ownerRef(), payload, nil)
		return
	}
	logstatus.Removed(context.Background(), m.pub, m.tickNow(), m.sourceRef(inst.SourceID), m.ownerRef(), payload, nil)
}

func resolveDuration(tag string, def tags.Definition, params tags.Params) float64 {
	return params.FloatOr(tag+"_duration", params.FloatOr("duration", def.Duration))
}

// scaleDurationParams applies the resistance multiplier to every
// duration-named parameter so stored params agree with the scaled timer.
func scaleDurationParams(params tags.Params, tag string, mult float64) {
	for _, key := range []string{"duration", tag + "_duration"} {
		if value, ok := params.Float(key); ok {
			params[key] = value * mult
		}
	}
}

func (m *Manager) tickNow() uint64 {
	if m == nil || m.tickFn == nil {
		return 0
	}
	return m.tickFn()
}

func (m *Manager) ownerRef() logging.EntityRef {
	if m == nil || m.owner == nil {
		return logging.EntityRef{}
	}
	return logging.EntityRef{ID: m.owner.ID(), Kind: logging.EntityKindUnknown}
}

func (m *Manager) sourceRef(id string) logging.EntityRef {
	if id == "" {
		return logging.EntityRef{}
	}
	return logging.EntityRef{ID: id, Kind: logging.EntityKindUnknown}
}

func (m *Manager) emitBlocked(tag, reason, blockedBy string) {
	logstatus.Blocked(context.Background(), m.pub, m.tickNow(), logging.EntityRef{}, m.ownerRef(), logstatus.BlockedPayload{
		StatusEffect: tag,
		Reason:       reason,
		BlockedBy:    blockedBy,
	}, nil)
}

func (m *Manager) emitReapplied(kind func(context.Context, logging.Publisher, uint64, logging.EntityRef, logging.EntityRef, logstatus.AppliedPayload, map[string]any), inst *Instance) {
	kind(context.Background(), m.pub, m.tickNow(), m.sourceRef(inst.SourceID), m.ownerRef(), logstatus.AppliedPayload{
		StatusEffect: inst.Tag,
		SourceID:     inst.SourceID,
		Duration:     inst.Duration,
		Stacks:       inst.Stacks,
	}, nil)
}

func (m *Manager) emitTick(inst *Instance, amount float64, healing bool) {
	logstatus.Tick(context.Background(), m.pub, m.tickNow(), m.sourceRef(inst.SourceID), m.ownerRef(), logstatus.TickPayload{
		StatusEffect: inst.Tag,
		Amount:       amount,
		Healing:      healing,
		TargetHealth: m.owner.Health(),
	}, nil)
}

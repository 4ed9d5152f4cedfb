package geometry

import "strings"

// TargetContext names the eligibility filter applied to candidates.
type TargetContext string

const (
	ContextEnemy      TargetContext = "enemy"
	ContextAlly       TargetContext = "ally"
	ContextPlayer     TargetContext = "player"
	ContextTurret     TargetContext = "turret"
	ContextDevice     TargetContext = "device"
	ContextConstruct  TargetContext = "construct"
	ContextUndead     TargetContext = "undead"
	ContextMechanical TargetContext = "mechanical"
	ContextAll        TargetContext = "all"
	ContextSelf       TargetContext = "self"
)

// Target is the minimum capability every candidate must expose. Callers
// are responsible for supplying only positionable entities; there is no
// runtime probing fallback.
type Target interface {
	ID() string
	Alive() bool
	Position() Vec2
}

// Categorized is implemented by entities that declare their combat
// classification explicitly. The declared category always wins over the
// name heuristic.
type Categorized interface {
	CombatCategory() string
}

// Oriented is implemented by entities that track a facing direction.
type Oriented interface {
	Facing() Vec2
}

// Moving is implemented by entities that track a velocity.
type Moving interface {
	Velocity() Vec2
}

// contextKeywords drives the structural fallback: when an entity declares
// no category, its identifier is scanned for these substrings.
var contextKeywords = map[TargetContext][]string{
	ContextEnemy:      {"enemy", "hostile", "mob", "monster"},
	ContextAlly:       {"ally", "friendly", "companion"},
	ContextPlayer:     {"player"},
	ContextTurret:     {"turret"},
	ContextDevice:     {"device", "trap"},
	ContextConstruct:  {"construct", "golem"},
	ContextUndead:     {"undead", "skeleton", "zombie", "ghoul"},
	ContextMechanical: {"mech", "robot", "drone"},
}

// Matches reports whether the candidate satisfies the context filter.
// The explicit category is consulted first; when absent, the candidate's
// identifier is matched against per-context keywords. The "self" context
// matches nothing here: this predicate cannot identify the source among
// the candidates, so callers needing self-targeting resolve it themselves.
func Matches(candidate Target, ctx TargetContext) bool {
	if candidate == nil {
		return false
	}
	switch ctx {
	case "", ContextAll:
		return true
	case ContextSelf:
		return false
	}

	if categorized, ok := candidate.(Categorized); ok {
		if category := strings.ToLower(strings.TrimSpace(categorized.CombatCategory())); category != "" {
			return category == string(ctx)
		}
	}

	keywords, ok := contextKeywords[ctx]
	if !ok {
		return false
	}
	id := strings.ToLower(candidate.ID())
	for _, keyword := range keywords {
		if strings.Contains(id, keyword) {
			return true
		}
	}
	return false
}

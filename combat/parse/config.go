package parse

import (
	"fmt"

	"rift-and-ruin/server/combat/geometry"
	"rift-and-ruin/server/combat/tags"
)

// Config is the parsed behavior profile of one tag list. The executor reads
// it instead of re-interpreting raw tags: the geometry winner, the inferred
// context, the per-category buckets and the fully merged parameter map.
type Config struct {
	// RawTags is the caller's tag list exactly as supplied.
	RawTags []string

	// Tags holds the canonical resolved tags in input order, with alias
	// spellings replaced and implied parent tags inserted ahead of their
	// children. Unknown tags are absent.
	Tags []string

	// Geometry is the single winning geometry tag, single_target when the
	// input named none.
	Geometry string

	// DroppedGeometry lists geometry tags discarded by priority resolution.
	DroppedGeometry []string

	DamageTypes []string
	Statuses    []string
	Specials    []string
	Triggers    []string

	// Contexts holds explicit context tags as listed; Context is the one
	// the effect resolves against. ExplicitContext distinguishes a caller
	// choice from shape inference.
	Contexts        []string
	Context         geometry.TargetContext
	ExplicitContext bool

	// AutoTags lists parent tags that were implied rather than supplied.
	AutoTags []string

	// Params is the merged parameter map: tag defaults layered in list
	// order, caller parameters on top, synergy bonuses applied.
	Params tags.Params

	// BaseDamage and BaseHealing are extracted from Params after the merge
	// and synergy passes; zero when absent.
	BaseDamage  float64
	BaseHealing float64

	Warnings []string
	Notes    []string
}

// HasTag reports whether the canonical tag survived resolution, including
// implied parents and geometry tags that later lost conflict resolution.
func (c *Config) HasTag(tag string) bool {
	return c != nil && contains(c.Tags, tag)
}

// HasStatus reports whether the status tag is part of the effect.
func (c *Config) HasStatus(tag string) bool {
	return c != nil && contains(c.Statuses, tag)
}

// HasDamageType reports whether the damage tag is part of the effect.
func (c *Config) HasDamageType(tag string) bool {
	return c != nil && contains(c.DamageTypes, tag)
}

// HasSpecial reports whether the special modifier tag is part of the effect.
func (c *Config) HasSpecial(tag string) bool {
	return c != nil && contains(c.Specials, tag)
}

// HasTrigger reports whether the trigger tag is part of the effect.
func (c *Config) HasTrigger(tag string) bool {
	return c != nil && contains(c.Triggers, tag)
}

func contains(list []string, tag string) bool {
	for _, entry := range list {
		if entry == tag {
			return true
		}
	}
	return false
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func (c *Config) notef(format string, args ...any) {
	c.Notes = append(c.Notes, fmt.Sprintf(format, args...))
}

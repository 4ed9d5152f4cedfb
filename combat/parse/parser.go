package parse

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"rift-and-ruin/server/combat/geometry"
	"rift-and-ruin/server/combat/tags"
	"rift-and-ruin/server/logging"
	logparse "rift-and-ruin/server/logging/parse"
)

var errNilRegistry = errors.New("registry must not be nil")

// Parser turns raw tag lists into effect configurations. It never mutates
// the registry and never fails on content: malformed input degrades to
// warnings on the returned Config. The optional publisher receives debug
// and warning events describing each pass.
type Parser struct {
	reg *tags.Registry
	pub logging.Publisher
}

// NewParser constructs a Parser over the given registry. A nil publisher
// disables diagnostics.
func NewParser(reg *tags.Registry, pub logging.Publisher) (*Parser, error) {
	if reg == nil {
		return nil, fmt.Errorf("parse: %w", errNilRegistry)
	}
	return &Parser{reg: reg, pub: pub}, nil
}

// MustNewParser is NewParser for wiring paths where the registry is known
// to exist.
func MustNewParser(reg *tags.Registry, pub logging.Publisher) *Parser {
	parser, err := NewParser(reg, pub)
	if err != nil {
		panic(err)
	}
	return parser
}

// Parse resolves the tag list into a Config. The passes run in a fixed
// order: alias and parent resolution, category partition, geometry
// conflict resolution, parameter merge, context inference, synergy
// bonuses, advisory exclusion checks. Output is deterministic for a given
// tag order and caller parameter map.
func (p *Parser) Parse(rawTags []string, callerParams tags.Params) *Config {
	cfg := &Config{
		RawTags: append([]string(nil), rawTags...),
		Context: geometry.ContextEnemy,
	}

	geometryTags := p.resolveTags(rawTags, cfg)
	p.resolveGeometry(geometryTags, cfg)
	p.mergeParams(cfg, callerParams)
	p.inferContext(cfg)
	p.applySynergies(cfg)
	p.extractBaseValues(cfg)
	exclusives := p.checkExclusions(cfg)
	p.checkRequired(cfg)

	logparse.Resolved(context.Background(), p.pub, 0, logging.EntityRef{}, "", logparse.ResolvedPayload{
		Input:      cfg.RawTags,
		Geometry:   cfg.Geometry,
		Context:    string(cfg.Context),
		AutoTags:   cfg.AutoTags,
		Dropped:    cfg.DroppedGeometry,
		Exclusives: exclusives,
	}, nil)
	return cfg
}

// resolveTags lowercases, alias-resolves and dedupes the input, inserting
// implied parent tags ahead of their children, and partitions the result
// into the per-category buckets. Unknown tags are dropped with a warning.
// The geometry bucket is returned separately for conflict resolution.
func (p *Parser) resolveTags(rawTags []string, cfg *Config) []string {
	seen := make(map[string]struct{}, len(rawTags))
	var geometryTags []string

	add := func(tag string, implied bool) {
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		cfg.Tags = append(cfg.Tags, tag)
		if implied {
			cfg.AutoTags = append(cfg.AutoTags, tag)
		}
		switch p.reg.CategoryOf(tag) {
		case tags.CategoryGeometry:
			geometryTags = append(geometryTags, tag)
		case tags.CategoryDamageType:
			cfg.DamageTypes = append(cfg.DamageTypes, tag)
		case tags.CategoryStatusBuff, tags.CategoryStatusDebuff:
			cfg.Statuses = append(cfg.Statuses, tag)
		case tags.CategoryContext:
			cfg.Contexts = append(cfg.Contexts, tag)
		case tags.CategorySpecial:
			cfg.Specials = append(cfg.Specials, tag)
		case tags.CategoryTrigger:
			cfg.Triggers = append(cfg.Triggers, tag)
		case tags.CategoryEquipment:
			cfg.notef("equipment tag %q describes the carrying item, not the effect", tag)
		}
	}

	for _, raw := range rawTags {
		trimmed := strings.ToLower(strings.TrimSpace(raw))
		if trimmed == "" {
			continue
		}
		canonical := p.reg.ResolveAlias(trimmed)
		if p.reg.CategoryOf(canonical) == tags.CategoryUnknown {
			cfg.warnf("unknown tag %q ignored", raw)
			logparse.UnknownTag(context.Background(), p.pub, 0, logging.EntityRef{}, "", logparse.UnknownTagPayload{Tag: raw}, nil)
			continue
		}
		for _, parent := range p.parentChain(canonical) {
			add(parent, true)
		}
		add(canonical, false)
	}
	return geometryTags
}

// parentChain walks Parent links from the tag to the root and returns the
// ancestors root-first, so a child's defaults layer over its parents'.
func (p *Parser) parentChain(tag string) []string {
	var chain []string
	visited := map[string]struct{}{tag: {}}
	current := tag
	for {
		def, ok := p.reg.Definition(current)
		if !ok || def.Parent == "" {
			break
		}
		if _, cycle := visited[def.Parent]; cycle {
			break
		}
		visited[def.Parent] = struct{}{}
		chain = append(chain, def.Parent)
		current = def.Parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

func (p *Parser) resolveGeometry(geometryTags []string, cfg *Config) {
	switch len(geometryTags) {
	case 0:
		cfg.Geometry = tags.TagSingleTarget
	case 1:
		cfg.Geometry = geometryTags[0]
	default:
		cfg.Geometry = p.reg.ResolveGeometryConflict(geometryTags)
		keptDef, _ := p.reg.Definition(cfg.Geometry)
		for _, tag := range geometryTags {
			if tag == cfg.Geometry {
				continue
			}
			cfg.DroppedGeometry = append(cfg.DroppedGeometry, tag)
			logparse.Conflict(context.Background(), p.pub, 0, logging.EntityRef{}, "", logparse.ConflictPayload{
				Kept:     cfg.Geometry,
				Dropped:  tag,
				Priority: keptDef.Priority,
			}, nil)
		}
		cfg.notef("geometry conflict: kept %q, dropped %s", cfg.Geometry, strings.Join(cfg.DroppedGeometry, ", "))
	}
}

// mergeParams layers each effective tag's defaults in list order, with
// later tags winning key collisions, then overlays the caller's parameters.
// Geometry tags dropped by conflict resolution contribute nothing. Legacy
// camel-case spellings of the base value keys are folded into canonical
// form, with the canonical spelling winning when both appear.
func (p *Parser) mergeParams(cfg *Config, callerParams tags.Params) {
	dropped := make(map[string]struct{}, len(cfg.DroppedGeometry))
	for _, tag := range cfg.DroppedGeometry {
		dropped[tag] = struct{}{}
	}

	var merged tags.Params
	for _, tag := range cfg.Tags {
		if _, skip := dropped[tag]; skip {
			continue
		}
		merged = merged.Merge(p.reg.DefaultParams(tag))
	}
	merged = merged.Merge(callerParams)
	if merged == nil {
		merged = tags.Params{}
	}

	for legacy, canonical := range map[string]string{
		"baseDamage":  "base_damage",
		"baseHealing": "base_healing",
	} {
		value, present := merged[legacy]
		if !present {
			continue
		}
		if !merged.Has(canonical) {
			merged[canonical] = value
		}
		delete(merged, legacy)
	}
	cfg.Params = merged
}

// inferContext picks the explicit context when one was listed and derives
// one from the effect's shape otherwise: damage or debuffs imply enemy,
// healing implies ally, and enemy is the final default.
func (p *Parser) inferContext(cfg *Config) {
	if len(cfg.Contexts) > 0 {
		cfg.Context = geometry.TargetContext(cfg.Contexts[0])
		cfg.ExplicitContext = true
		p.warnSuspiciousContext(cfg)
		return
	}
	switch {
	case len(cfg.DamageTypes) > 0 || p.anyStatusOf(cfg.Statuses, tags.CategoryStatusDebuff):
		cfg.Context = geometry.ContextEnemy
	case cfg.Params.Has("base_healing") || p.anyStatusOf(cfg.Statuses, tags.CategoryStatusBuff):
		cfg.Context = geometry.ContextAlly
	default:
		cfg.Context = geometry.ContextEnemy
	}
}

func (p *Parser) anyStatusOf(statuses []string, category tags.Category) bool {
	for _, tag := range statuses {
		if p.reg.CategoryOf(tag) == category {
			return true
		}
	}
	return false
}

// warnSuspiciousContext flags explicit contexts that contradict the
// effect's shape, like a pure heal aimed at enemies. Advisory only.
func (p *Parser) warnSuspiciousContext(cfg *Config) {
	healing := cfg.Params.Has("base_healing") || p.anyStatusOf(cfg.Statuses, tags.CategoryStatusBuff)
	damaging := len(cfg.DamageTypes) > 0 || cfg.Params.Has("base_damage")

	switch cfg.Context {
	case geometry.ContextEnemy:
		if healing && !damaging {
			cfg.warnf("healing effect explicitly targets %q", cfg.Context)
		}
	case geometry.ContextAlly, geometry.ContextSelf:
		if damaging && !healing {
			cfg.warnf("damaging effect explicitly targets %q", cfg.Context)
		}
	}
}

// applySynergies multiplies the named parameters by (1 + bonus) for every
// synergy pair present in the effective tag set. Partner and parameter
// names are visited in sorted order so output is deterministic.
func (p *Parser) applySynergies(cfg *Config) {
	present := make(map[string]struct{}, len(cfg.Tags))
	for _, tag := range cfg.Tags {
		present[tag] = struct{}{}
	}
	for _, tag := range cfg.DroppedGeometry {
		delete(present, tag)
	}

	for _, tag := range cfg.Tags {
		if _, active := present[tag]; !active {
			continue
		}
		def, ok := p.reg.Definition(tag)
		if !ok || len(def.Synergies) == 0 {
			continue
		}
		partners := make([]string, 0, len(def.Synergies))
		for partner := range def.Synergies {
			partners = append(partners, partner)
		}
		sort.Strings(partners)
		for _, partner := range partners {
			if _, active := present[partner]; !active {
				continue
			}
			bonuses := def.Synergies[partner]
			names := make([]string, 0, len(bonuses))
			for name := range bonuses {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				value, has := cfg.Params.Float(name)
				if !has {
					continue
				}
				bonus := bonuses[name]
				cfg.Params[name] = value * (1 + bonus)
				cfg.notef("synergy: %s + %s boosts %s by %g%%", tag, partner, name, bonus*100)
			}
		}
	}
}

func (p *Parser) extractBaseValues(cfg *Config) {
	cfg.BaseDamage = cfg.Params.FloatOr("base_damage", 0)
	cfg.BaseHealing = cfg.Params.FloatOr("base_healing", 0)
}

// checkExclusions warns about mutually exclusive pairs across the damage,
// status, context and special buckets. Nothing is removed; downstream
// application order decides which one sticks, so the warning names the
// later tag as the survivor.
func (p *Parser) checkExclusions(cfg *Config) []string {
	var domain []string
	for _, tag := range cfg.Tags {
		switch p.reg.CategoryOf(tag) {
		case tags.CategoryDamageType, tags.CategoryStatusBuff, tags.CategoryStatusDebuff,
			tags.CategoryContext, tags.CategorySpecial:
			domain = append(domain, tag)
		}
	}

	var exclusives []string
	for i := 0; i < len(domain); i++ {
		for j := i + 1; j < len(domain); j++ {
			if !p.reg.MutuallyExclusive(domain[i], domain[j]) {
				continue
			}
			cfg.warnf("mutually exclusive tags %q and %q: %q overrides %q", domain[i], domain[j], domain[j], domain[i])
			exclusives = append(exclusives, domain[i]+"+"+domain[j])
		}
	}
	return exclusives
}

// checkRequired warns for declared-required parameters absent after the
// full merge.
func (p *Parser) checkRequired(cfg *Config) {
	dropped := make(map[string]struct{}, len(cfg.DroppedGeometry))
	for _, tag := range cfg.DroppedGeometry {
		dropped[tag] = struct{}{}
	}
	for _, tag := range cfg.Tags {
		if _, skip := dropped[tag]; skip {
			continue
		}
		def, ok := p.reg.Definition(tag)
		if !ok {
			continue
		}
		for _, required := range def.Requires {
			if !cfg.Params.Has(required) {
				cfg.warnf("tag %q missing required parameter %q", tag, required)
			}
		}
	}
}

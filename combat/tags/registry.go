package tags

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	errNoDefinitions   = errors.New("registry requires at least one definition")
	errDuplicateName   = errors.New("duplicate tag name")
	errDuplicateAlias  = errors.New("alias already in use")
	errAliasShadowsTag = errors.New("alias collides with a canonical tag name")
	errUnknownRef      = errors.New("reference to unknown tag")
	errBadAutoStatus   = errors.New("auto-apply status must be a status tag")
)

// Registry is the immutable tag catalog. Built once at startup, read-only
// afterwards; safe for concurrent reads.
type Registry struct {
	defs       map[string]Definition
	aliases    map[string]string
	byCategory map[Category][]string
	exclusions map[string]map[string]struct{}
}

// NewRegistry validates the definitions and builds the lookup indexes.
// Validation failures are returned as errors; callers treat them as fatal
// because no tag semantics can be resolved without a valid registry.
func NewRegistry(definitions []Definition) (*Registry, error) {
	if len(definitions) == 0 {
		return nil, fmt.Errorf("tags: %w", errNoDefinitions)
	}

	defs := make(map[string]Definition, len(definitions))
	for _, def := range definitions {
		if err := def.validate(); err != nil {
			return nil, fmt.Errorf("tags: %w", err)
		}
		normalized := normalizeDefinition(def)
		if _, exists := defs[normalized.Name]; exists {
			return nil, fmt.Errorf("tags: %w: %q", errDuplicateName, normalized.Name)
		}
		defs[normalized.Name] = normalized
	}

	aliases := make(map[string]string)
	for name, def := range defs {
		for _, alias := range def.Aliases {
			if alias == "" {
				continue
			}
			if _, isTag := defs[alias]; isTag {
				return nil, fmt.Errorf("tags: %w: %q on %q", errAliasShadowsTag, alias, name)
			}
			if owner, taken := aliases[alias]; taken && owner != name {
				return nil, fmt.Errorf("tags: %w: %q claimed by %q and %q", errDuplicateAlias, alias, owner, name)
			}
			aliases[alias] = name
		}
	}

	if err := validateReferences(defs); err != nil {
		return nil, err
	}

	byCategory := make(map[Category][]string)
	for name, def := range defs {
		byCategory[def.Category] = append(byCategory[def.Category], name)
	}
	for category := range byCategory {
		sort.Strings(byCategory[category])
	}

	exclusions := make(map[string]map[string]struct{})
	mark := func(a, b string) {
		if exclusions[a] == nil {
			exclusions[a] = make(map[string]struct{})
		}
		exclusions[a][b] = struct{}{}
	}
	for name, def := range defs {
		for _, other := range def.Conflicts {
			mark(name, other)
			mark(other, name)
		}
	}

	return &Registry{
		defs:       defs,
		aliases:    aliases,
		byCategory: byCategory,
		exclusions: exclusions,
	}, nil
}

// MustNewRegistry builds a registry and panics on validation failure.
func MustNewRegistry(definitions []Definition) *Registry {
	reg, err := NewRegistry(definitions)
	if err != nil {
		panic(err)
	}
	return reg
}

func validateReferences(defs map[string]Definition) error {
	for name, def := range defs {
		if def.Parent != "" {
			if _, ok := defs[def.Parent]; !ok {
				return fmt.Errorf("tags: %w: %q parent %q", errUnknownRef, name, def.Parent)
			}
		}
		for _, other := range def.Conflicts {
			if _, ok := defs[other]; !ok {
				return fmt.Errorf("tags: %w: %q conflicts with %q", errUnknownRef, name, other)
			}
		}
		for _, other := range def.GrantsImmunity {
			target, ok := defs[other]
			if !ok {
				return fmt.Errorf("tags: %w: %q grants immunity to %q", errUnknownRef, name, other)
			}
			if !target.IsStatus() {
				return fmt.Errorf("tags: %w: %q grants immunity to non-status %q", errUnknownRef, name, other)
			}
		}
		for partner := range def.Synergies {
			if _, ok := defs[partner]; !ok {
				return fmt.Errorf("tags: %w: %q synergises with %q", errUnknownRef, name, partner)
			}
		}
		if def.AutoApply.Enabled() {
			target, ok := defs[def.AutoApply.Status]
			if !ok {
				return fmt.Errorf("tags: %w: %q auto-applies %q", errUnknownRef, name, def.AutoApply.Status)
			}
			if !target.IsStatus() {
				return fmt.Errorf("tags: %w: %q auto-applies %q", errBadAutoStatus, name, def.AutoApply.Status)
			}
		}
	}
	return nil
}

// ResolveAlias maps any spelling onto the canonical tag name. Unrecognised
// input passes through unchanged, so resolution is idempotent.
func (r *Registry) ResolveAlias(tag string) string {
	if r == nil {
		return tag
	}
	trimmed := strings.ToLower(strings.TrimSpace(tag))
	if _, ok := r.defs[trimmed]; ok {
		return trimmed
	}
	if canonical, ok := r.aliases[trimmed]; ok {
		return canonical
	}
	return trimmed
}

// Definition returns a copy of the canonical definition for tag, resolving
// aliases first.
func (r *Registry) Definition(tag string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	def, ok := r.defs[r.ResolveAlias(tag)]
	if !ok {
		return Definition{}, false
	}
	return cloneDefinition(def), true
}

// CategoryOf returns the tag's category, CategoryUnknown when unrecognised.
func (r *Registry) CategoryOf(tag string) Category {
	if r == nil {
		return CategoryUnknown
	}
	if def, ok := r.defs[r.ResolveAlias(tag)]; ok {
		return def.Category
	}
	return CategoryUnknown
}

func (r *Registry) IsGeometry(tag string) bool {
	return r.CategoryOf(tag) == CategoryGeometry
}

func (r *Registry) IsDamage(tag string) bool {
	return r.CategoryOf(tag) == CategoryDamageType
}

func (r *Registry) IsStatus(tag string) bool {
	return r.CategoryOf(tag).IsStatus()
}

func (r *Registry) IsContext(tag string) bool {
	return r.CategoryOf(tag) == CategoryContext
}

// TagsByCategory returns the sorted canonical names in the category.
func (r *Registry) TagsByCategory(category Category) []string {
	if r == nil {
		return nil
	}
	names := r.byCategory[category]
	if len(names) == 0 {
		return nil
	}
	return append([]string(nil), names...)
}

// Names returns every canonical tag name, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveGeometryConflict picks the winning geometry tag by registry
// priority; ties keep the earliest supplied tag. When no candidate is a
// known geometry tag the first supplied tag is returned unchanged.
func (r *Registry) ResolveGeometryConflict(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	if r == nil {
		return candidates[0]
	}
	best := ""
	bestPriority := 0
	for _, candidate := range candidates {
		resolved := r.ResolveAlias(candidate)
		def, ok := r.defs[resolved]
		if !ok || def.Category != CategoryGeometry {
			continue
		}
		if best == "" || def.Priority > bestPriority {
			best = resolved
			bestPriority = def.Priority
		}
	}
	if best == "" {
		return candidates[0]
	}
	return best
}

// MutuallyExclusive reports whether the two tags conflict. Symmetric.
func (r *Registry) MutuallyExclusive(a, b string) bool {
	if r == nil {
		return false
	}
	ra, rb := r.ResolveAlias(a), r.ResolveAlias(b)
	if ra == rb {
		return false
	}
	if set, ok := r.exclusions[ra]; ok {
		if _, conflicting := set[rb]; conflicting {
			return true
		}
	}
	return false
}

// DefaultParams returns a copy of the tag's default parameters.
func (r *Registry) DefaultParams(tag string) Params {
	def, ok := r.Definition(tag)
	if !ok {
		return nil
	}
	return def.Defaults
}

// MergeParams layers user parameters over the tag defaults; user wins.
func (r *Registry) MergeParams(tag string, user Params) Params {
	defaults := r.DefaultParams(tag)
	return defaults.Merge(user)
}

func cloneDefinition(def Definition) Definition {
	cloned := def
	cloned.Requires = append([]string(nil), def.Requires...)
	cloned.Conflicts = append([]string(nil), def.Conflicts...)
	cloned.Aliases = append([]string(nil), def.Aliases...)
	cloned.GrantsImmunity = append([]string(nil), def.GrantsImmunity...)
	cloned.Defaults = def.Defaults.Clone()
	if def.Synergies != nil {
		synergies := make(map[string]map[string]float64, len(def.Synergies))
		for partner, bonuses := range def.Synergies {
			copied := make(map[string]float64, len(bonuses))
			for param, bonus := range bonuses {
				copied[param] = bonus
			}
			synergies[partner] = copied
		}
		cloned.Synergies = synergies
	}
	return cloned
}

// normalizeDefinition lowercases every tag reference so catalog-authored
// casing cannot diverge from the lowercase lookup path.
func normalizeDefinition(def Definition) Definition {
	normalized := cloneDefinition(def)
	normalized.Name = lowerTag(def.Name)
	normalized.Parent = lowerTag(def.Parent)
	normalized.AutoApply.Status = lowerTag(def.AutoApply.Status)
	normalized.Requires = lowerTags(normalized.Requires)
	normalized.Conflicts = lowerTags(normalized.Conflicts)
	normalized.Aliases = lowerTags(normalized.Aliases)
	normalized.GrantsImmunity = lowerTags(normalized.GrantsImmunity)
	if normalized.Synergies != nil {
		synergies := make(map[string]map[string]float64, len(normalized.Synergies))
		for partner, bonuses := range normalized.Synergies {
			synergies[lowerTag(partner)] = bonuses
		}
		normalized.Synergies = synergies
	}
	return normalized
}

func lowerTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func lowerTags(values []string) []string {
	out := values[:0]
	for _, value := range values {
		if lowered := lowerTag(value); lowered != "" {
			out = append(out, lowered)
		}
	}
	return out
}

package tags

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type source interface {
	Load() ([]byte, error)
	Path() string
}

type fileSource struct {
	path string
}

func (f fileSource) Load() ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f fileSource) Path() string {
	return f.path
}

// CatalogEntry is one designer-authored tag definition as it appears on
// disk. The struct is exported so tooling (e.g. schema generators) can
// reflect over the configuration contract shared with designers.
type CatalogEntry struct {
	Name           string                        `json:"name" jsonschema:"title=Tag Name,description=Canonical lowercase tag name.,pattern=^[a-z0-9_]+$,minLength=1,required"`
	Category       string                        `json:"category,omitempty" jsonschema:"title=Category,description=Tag category. May be omitted when overlaying a built-in tag.,enum=geometry,enum=damage_type,enum=status_buff,enum=status_debuff,enum=context,enum=special,enum=trigger,enum=equipment"`
	Description    string                        `json:"description,omitempty" jsonschema:"title=Description,description=Designer-facing summary of the tag."`
	Priority       int                           `json:"priority,omitempty" jsonschema:"title=Priority,description=Geometry conflict priority; higher wins."`
	Requires       []string                      `json:"requires,omitempty" jsonschema:"title=Required Parameters,description=Parameters the tag needs but supplies no default for."`
	Defaults       map[string]any                `json:"defaults,omitempty" jsonschema:"title=Default Parameters,description=Parameter defaults layered under caller-supplied values."`
	Conflicts      []string                      `json:"conflicts,omitempty" jsonschema:"title=Conflicts,description=Tags mutually exclusive with this one."`
	Aliases        []string                      `json:"aliases,omitempty" jsonschema:"title=Aliases,description=Alternate spellings resolving to this tag."`
	Parent         string                        `json:"parent,omitempty" jsonschema:"title=Parent,description=Broader tag this one specialises."`
	GrantsImmunity []string                      `json:"grantsImmunity,omitempty" jsonschema:"title=Grants Immunity,description=Status tags that cannot land while this status is active."`
	Synergies      map[string]map[string]float64 `json:"synergies,omitempty" jsonschema:"title=Synergies,description=Partner tag to parameter bonus fractions."`
	AutoApply      *AutoApply                    `json:"autoApply,omitempty" jsonschema:"title=Auto Apply,description=Status a damage tag may attach on hit."`
	Stacking       string                        `json:"stacking,omitempty" jsonschema:"title=Stacking,description=Reapplication behavior for status tags.,enum=none,enum=additive,enum=refresh"`
	MaxStacks      int                           `json:"maxStacks,omitempty" jsonschema:"title=Max Stacks,description=Stack cap for additive statuses."`
	Duration       float64                       `json:"duration,omitempty" jsonschema:"title=Duration,description=Baseline status duration in seconds."`
	TickEvery      float64                       `json:"tickEvery,omitempty" jsonschema:"title=Tick Interval,description=Seconds between periodic pulses; zero disables ticking."`
}

// DefaultPaths returns the canonical catalog locations relative to the
// server module root.
func DefaultPaths() []string {
	return []string{
		filepath.Join("config", "tags", "definitions.json"),
		filepath.Join("..", "config", "tags", "definitions.json"),
	}
}

// ExistingDefaultPaths filters DefaultPaths down to files present on disk.
func ExistingDefaultPaths() []string {
	var existing []string
	for _, path := range DefaultPaths() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			existing = append(existing, path)
		}
	}
	return existing
}

// LoadCatalog parses catalog files into overlay definitions. Every named
// path must exist and parse; a configured source that cannot be read is a
// load error, which callers treat as fatal at startup.
func LoadCatalog(paths ...string) ([]Definition, error) {
	sources := make([]source, 0, len(paths))
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		sources = append(sources, fileSource{path: trimmed})
	}
	return loadCatalog(sources...)
}

func loadCatalog(sources ...source) ([]Definition, error) {
	var overlay []Definition
	for _, src := range sources {
		data, err := src.Load()
		if err != nil {
			return nil, fmt.Errorf("catalog: failed loading %s: %w", src.Path(), err)
		}
		entries, err := decodeCatalog(data)
		if err != nil {
			return nil, fmt.Errorf("catalog: failed parsing %s: %w", src.Path(), err)
		}
		seen := make(map[string]struct{}, len(entries))
		for _, entry := range entries {
			name := lowerTag(entry.Name)
			if name == "" {
				return nil, fmt.Errorf("catalog: entry missing name in %s", src.Path())
			}
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("catalog: duplicate name %q in %s", name, src.Path())
			}
			seen[name] = struct{}{}
			def, err := entry.toDefinition()
			if err != nil {
				return nil, fmt.Errorf("catalog: entry %q in %s: %w", name, src.Path(), err)
			}
			overlay = append(overlay, def)
		}
	}
	return overlay, nil
}

// categoryUnset marks an overlay entry that inherits the base category.
const categoryUnset = Category(0xff)

func (e CatalogEntry) toDefinition() (Definition, error) {
	def := Definition{
		Name:           e.Name,
		Description:    e.Description,
		Priority:       e.Priority,
		Requires:       e.Requires,
		Conflicts:      e.Conflicts,
		Aliases:        e.Aliases,
		Parent:         e.Parent,
		GrantsImmunity: e.GrantsImmunity,
		Synergies:      e.Synergies,
		MaxStacks:      e.MaxStacks,
		Duration:       e.Duration,
		TickEvery:      e.TickEvery,
	}
	if len(e.Defaults) > 0 {
		def.Defaults = Params(e.Defaults).Clone()
	}
	if e.AutoApply != nil {
		def.AutoApply = *e.AutoApply
	}
	if e.Category == "" {
		def.Category = categoryUnset
	} else {
		category, err := ParseCategory(e.Category)
		if err != nil {
			return Definition{}, err
		}
		def.Category = category
	}
	stacking, err := ParseStacking(e.Stacking)
	if err != nil {
		return Definition{}, err
	}
	def.Stacking = stacking
	if e.Stacking == "" {
		// Preserve "field not present" so the overlay merge can tell an
		// omitted stacking apart from an explicit "none".
		def.Stacking = stackingUnset
	}
	return def, nil
}

const stackingUnset = Stacking(0xff)

// Overlay merges override definitions onto the base set by name. Overlay
// entries touch only the fields they set; list fields replace wholesale,
// default parameter maps merge per key. Unknown names append new tags.
func Overlay(base []Definition, overrides []Definition) []Definition {
	index := make(map[string]int, len(base))
	merged := make([]Definition, len(base))
	copy(merged, base)
	for i, def := range merged {
		index[lowerTag(def.Name)] = i
	}
	for _, override := range overrides {
		name := lowerTag(override.Name)
		i, exists := index[name]
		if !exists {
			out := override
			if out.Category == categoryUnset {
				out.Category = CategoryUnknown
			}
			if out.Stacking == stackingUnset {
				out.Stacking = StackNone
			}
			index[name] = len(merged)
			merged = append(merged, out)
			continue
		}
		merged[i] = mergeDefinition(merged[i], override)
	}
	return merged
}

func mergeDefinition(base, override Definition) Definition {
	out := base
	if override.Category != categoryUnset {
		out.Category = override.Category
	}
	if override.Description != "" {
		out.Description = override.Description
	}
	if override.Priority != 0 {
		out.Priority = override.Priority
	}
	if len(override.Requires) > 0 {
		out.Requires = override.Requires
	}
	if len(override.Defaults) > 0 {
		out.Defaults = out.Defaults.Merge(override.Defaults)
	}
	if len(override.Conflicts) > 0 {
		out.Conflicts = override.Conflicts
	}
	if len(override.Aliases) > 0 {
		out.Aliases = override.Aliases
	}
	if override.Parent != "" {
		out.Parent = override.Parent
	}
	if len(override.GrantsImmunity) > 0 {
		out.GrantsImmunity = override.GrantsImmunity
	}
	if len(override.Synergies) > 0 {
		out.Synergies = override.Synergies
	}
	if override.AutoApply.Status != "" || override.AutoApply.Chance != 0 {
		out.AutoApply = override.AutoApply
	}
	if override.Stacking != stackingUnset {
		out.Stacking = override.Stacking
	}
	if override.MaxStacks != 0 {
		out.MaxStacks = override.MaxStacks
	}
	if override.Duration != 0 {
		out.Duration = override.Duration
	}
	if override.TickEvery != 0 {
		out.TickEvery = override.TickEvery
	}
	return out
}

// LoadRegistry builds the registry from the built-in canon plus the named
// catalog overlays. With no paths the canon is used alone.
func LoadRegistry(paths ...string) (*Registry, error) {
	overlay, err := LoadCatalog(paths...)
	if err != nil {
		return nil, err
	}
	return NewRegistry(Overlay(Default(), overlay))
}

func decodeCatalog(data []byte) ([]CatalogEntry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var entries []CatalogEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	case '{':
		var object map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &object); err != nil {
			return nil, err
		}
		names := make([]string, 0, len(object))
		for name := range object {
			names = append(names, name)
		}
		sort.Strings(names)
		entries := make([]CatalogEntry, 0, len(names))
		for _, name := range names {
			var entry CatalogEntry
			if err := json.Unmarshal(object[name], &entry); err != nil {
				return nil, fmt.Errorf("entry %q: %w", name, err)
			}
			if entry.Name == "" {
				entry.Name = name
			} else if entry.Name != name {
				return nil, fmt.Errorf("entry name %q does not match key %q", entry.Name, name)
			}
			entries = append(entries, entry)
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("unexpected json token %q", string(trimmed[:1]))
	}
}

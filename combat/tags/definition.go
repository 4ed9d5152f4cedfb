package tags

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errEmptyName       = errors.New("tag name must not be empty")
	errUnknownCategory = errors.New("tag category must be a known category")
	errSelfAlias       = errors.New("tag must not alias itself")
	errBadAutoApply    = errors.New("auto-apply chance must be within [0, 1]")
	errBadMaxStacks    = errors.New("max stacks must not be negative")
)

// AutoApply describes a status a damage tag may attach on hit.
type AutoApply struct {
	Chance float64 `json:"chance,omitempty"`
	Status string  `json:"status,omitempty"`
}

// Enabled reports whether the auto-apply roll should happen at all.
func (a AutoApply) Enabled() bool {
	return a.Status != "" && a.Chance > 0
}

// Definition carries the full semantics of one canonical tag.
type Definition struct {
	Name        string
	Category    Category
	Description string

	// Priority orders geometry tags during conflict resolution; higher wins.
	Priority int

	// Requires names parameters the tag needs but supplies no default for.
	// A missing required parameter downgrades to a parse warning.
	Requires []string

	// Defaults are layered under caller-supplied parameters during merge.
	Defaults Params

	// Conflicts lists tags that are mutually exclusive with this one.
	Conflicts []string

	// Aliases are alternate spellings resolving to this tag.
	Aliases []string

	// Parent optionally names a broader tag this one specialises.
	Parent string

	// GrantsImmunity lists status tags that cannot be applied while a
	// status instance of this tag is active.
	GrantsImmunity []string

	// Synergies maps a partner tag to parameter bonus fractions: when both
	// tags appear in one invocation, each named parameter is multiplied by
	// (1 + bonus). Declared on one side of the pair only.
	Synergies map[string]map[string]float64

	// AutoApply gives damage tags a chance to attach a status per hit.
	AutoApply AutoApply

	// Stacking fields drive the status manager for status-category tags.
	Stacking  Stacking
	MaxStacks int

	// Duration and TickEvery are the tag's baseline timing in seconds for
	// status-category tags; zero TickEvery means no periodic pulse.
	Duration  float64
	TickEvery float64
}

func (d Definition) validate() error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return errEmptyName
	}
	if _, ok := categoryNames[d.Category]; !ok {
		return fmt.Errorf("%w: %q", errUnknownCategory, d.Name)
	}
	for _, alias := range d.Aliases {
		if alias == d.Name {
			return fmt.Errorf("%w: %q", errSelfAlias, d.Name)
		}
	}
	if d.AutoApply.Chance < 0 || d.AutoApply.Chance > 1 {
		return fmt.Errorf("%w: %q has chance %v", errBadAutoApply, d.Name, d.AutoApply.Chance)
	}
	if d.MaxStacks < 0 {
		return fmt.Errorf("%w: %q", errBadMaxStacks, d.Name)
	}
	return nil
}

// IsStatus reports whether the definition describes a status effect.
func (d Definition) IsStatus() bool {
	return d.Category.IsStatus()
}

package tags

import (
	"encoding/json"
	"fmt"
)

// Category classifies a tag. The set is closed: catalog data carrying a
// category outside this enum is rejected at load time.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryGeometry
	CategoryDamageType
	CategoryStatusBuff
	CategoryStatusDebuff
	CategoryContext
	CategorySpecial
	CategoryTrigger
	CategoryEquipment
)

var categoryNames = map[Category]string{
	CategoryUnknown:      "unknown",
	CategoryGeometry:     "geometry",
	CategoryDamageType:   "damage_type",
	CategoryStatusBuff:   "status_buff",
	CategoryStatusDebuff: "status_debuff",
	CategoryContext:      "context",
	CategorySpecial:      "special",
	CategoryTrigger:      "trigger",
	CategoryEquipment:    "equipment",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// IsStatus reports whether the category is either status variant.
func (c Category) IsStatus() bool {
	return c == CategoryStatusBuff || c == CategoryStatusDebuff
}

// ParseCategory maps the wire spelling onto the enum. Unrecognised input is
// an error so malformed catalog data fails at load rather than at lookup.
func ParseCategory(raw string) (Category, error) {
	for category, name := range categoryNames {
		if name == raw {
			return category, nil
		}
	}
	return CategoryUnknown, fmt.Errorf("tags: unknown category %q", raw)
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseCategory(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Stacking selects what happens when a status effect is applied while an
// instance of the same tag is already active.
type Stacking uint8

const (
	// StackNone replaces the existing instance with the new one.
	StackNone Stacking = iota
	// StackAdditive adds a stack up to the maximum and refreshes duration.
	StackAdditive
	// StackRefresh resets the remaining duration without adding stacks.
	StackRefresh
)

var stackingNames = map[Stacking]string{
	StackNone:     "none",
	StackAdditive: "additive",
	StackRefresh:  "refresh",
}

func (s Stacking) String() string {
	if name, ok := stackingNames[s]; ok {
		return name
	}
	return "none"
}

// ParseStacking maps the wire spelling onto the enum. Empty input selects
// StackNone so catalog entries may omit the field.
func ParseStacking(raw string) (Stacking, error) {
	if raw == "" {
		return StackNone, nil
	}
	for stacking, name := range stackingNames {
		if name == raw {
			return stacking, nil
		}
	}
	return StackNone, fmt.Errorf("tags: unknown stacking %q", raw)
}

func (s Stacking) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Stacking) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStacking(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

package tags

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "definitions.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed writing catalog fixture: %v", err)
	}
	return path
}

func TestLoadCatalog_ArrayForm(t *testing.T) {
	path := writeCatalog(t, `[
		{"name": "frostfire", "category": "damage_type", "aliases": ["coldflame"]},
		{"name": "burn", "duration": 9.0}
	]`)
	defs, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 overlay definitions, got %d", len(defs))
	}
	if defs[0].Name != "frostfire" || defs[0].Category != CategoryDamageType {
		t.Fatalf("unexpected first definition: %+v", defs[0])
	}
}

func TestLoadCatalog_ObjectForm(t *testing.T) {
	path := writeCatalog(t, `{
		"burn": {"duration": 9.0},
		"frostfire": {"category": "damage_type"}
	}`)
	defs, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 overlay definitions, got %d", len(defs))
	}
	// Object keys are processed in sorted order.
	if defs[0].Name != "burn" || defs[1].Name != "frostfire" {
		t.Fatalf("unexpected order: %q, %q", defs[0].Name, defs[1].Name)
	}
}

func TestLoadCatalog_NameKeyMismatch(t *testing.T) {
	path := writeCatalog(t, `{"burn": {"name": "bleed"}}`)
	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected mismatched entry name to fail")
	}
}

func TestLoadCatalog_MissingPathFails(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")
	if _, err := LoadCatalog(missing); err == nil {
		t.Fatal("expected configured missing path to fail loading")
	}
}

func TestLoadCatalog_RejectsUnknownCategory(t *testing.T) {
	path := writeCatalog(t, `[{"name": "odd", "category": "sideways"}]`)
	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected unknown category to fail loading")
	}
}

func TestLoadCatalog_RejectsUnknownStacking(t *testing.T) {
	path := writeCatalog(t, `[{"name": "odd", "category": "special", "stacking": "sideways"}]`)
	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected unknown stacking to fail loading")
	}
}

func TestOverlay_MergesOntoCanon(t *testing.T) {
	path := writeCatalog(t, `[
		{"name": "burn", "duration": 9.0, "defaults": {"burn_damage": 6.0}},
		{"name": "frostfire", "category": "damage_type", "autoApply": {"chance": 0.5, "status": "freeze"}}
	]`)
	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}

	burn, ok := reg.Definition(TagBurn)
	if !ok {
		t.Fatal("expected burn to survive the overlay")
	}
	if burn.Duration != 9.0 {
		t.Fatalf("expected overlaid duration 9.0, got %v", burn.Duration)
	}
	if got := burn.Defaults.FloatOr("burn_damage", 0); got != 6.0 {
		t.Fatalf("expected overlaid burn_damage 6.0, got %v", got)
	}
	if burn.Category != CategoryStatusDebuff {
		t.Fatalf("expected category to be inherited, got %s", burn.Category)
	}
	if burn.Stacking != StackAdditive {
		t.Fatalf("expected stacking to be inherited, got %s", burn.Stacking)
	}
	if len(burn.Aliases) == 0 {
		t.Fatal("expected canon aliases to be inherited")
	}

	frostfire, ok := reg.Definition("frostfire")
	if !ok {
		t.Fatal("expected new tag to be appended")
	}
	if frostfire.AutoApply.Status != TagFreeze || frostfire.AutoApply.Chance != 0.5 {
		t.Fatalf("unexpected auto-apply: %+v", frostfire.AutoApply)
	}
}

func TestOverlay_ExplicitStackingNoneOverrides(t *testing.T) {
	path := writeCatalog(t, `[{"name": "burn", "stacking": "none"}]`)
	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}
	burn, _ := reg.Definition(TagBurn)
	if burn.Stacking != StackNone {
		t.Fatalf("expected explicit stacking none to override, got %s", burn.Stacking)
	}
}

func TestLoadRegistry_NoPathsUsesCanonAlone(t *testing.T) {
	reg, err := LoadRegistry()
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}
	if _, ok := reg.Definition(TagChain); !ok {
		t.Fatal("expected canon tags to be present")
	}
}

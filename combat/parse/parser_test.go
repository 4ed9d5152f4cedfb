package parse

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"rift-and-ruin/server/combat/geometry"
	"rift-and-ruin/server/combat/tags"
	"rift-and-ruin/server/logging"
	logparse "rift-and-ruin/server/logging/parse"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	parser, err := NewParser(tags.MustNewRegistry(tags.Default()), nil)
	if err != nil {
		t.Fatalf("NewParser returned error: %v", err)
	}
	return parser
}

func TestNewParser_RequiresRegistry(t *testing.T) {
	if _, err := NewParser(nil, nil); err == nil {
		t.Fatalf("expected error for nil registry")
	}
}

func TestParse_FireChainBurn(t *testing.T) {
	parser := newTestParser(t)
	cfg := parser.Parse([]string{"fire", "chain", "burn"}, tags.Params{
		"baseDamage":    30.0,
		"chain_count":   2.0,
		"chain_range":   5.0,
		"burn_duration": 3.0,
	})

	if cfg.Geometry != tags.TagChain {
		t.Fatalf("geometry = %q want chain", cfg.Geometry)
	}
	if cfg.Context != geometry.ContextEnemy || cfg.ExplicitContext {
		t.Fatalf("context = %q explicit=%v want inferred enemy", cfg.Context, cfg.ExplicitContext)
	}
	if !reflect.DeepEqual(cfg.DamageTypes, []string{"fire"}) {
		t.Fatalf("damage types = %v", cfg.DamageTypes)
	}
	if !reflect.DeepEqual(cfg.Statuses, []string{"burn"}) {
		t.Fatalf("statuses = %v", cfg.Statuses)
	}
	if cfg.BaseDamage != 30 {
		t.Fatalf("base damage = %v want 30", cfg.BaseDamage)
	}
	if got := cfg.Params.IntOr("chain_count", 0); got != 2 {
		t.Fatalf("chain_count = %d want caller override 2", got)
	}
	if got := cfg.Params.FloatOr("burn_duration", 0); got != 3.0 {
		t.Fatalf("burn_duration = %v want 3", got)
	}
	if len(cfg.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", cfg.Warnings)
	}
}

func TestParse_AliasResolution(t *testing.T) {
	parser := newTestParser(t)
	cfg := parser.Parse([]string{"AoE", " flame "}, nil)

	if cfg.Geometry != tags.TagCircle {
		t.Fatalf("geometry = %q want circle", cfg.Geometry)
	}
	if !reflect.DeepEqual(cfg.DamageTypes, []string{"fire"}) {
		t.Fatalf("damage types = %v", cfg.DamageTypes)
	}
	if got := cfg.Params.FloatOr("radius", 0); got != 4.0 {
		t.Fatalf("radius default = %v want 4", got)
	}
}

func TestParse_UnknownTagWarnsAndDrops(t *testing.T) {
	parser := newTestParser(t)
	cfg := parser.Parse([]string{"fire", "sparkle"}, nil)

	if !reflect.DeepEqual(cfg.Tags, []string{"fire"}) {
		t.Fatalf("tags = %v want only fire", cfg.Tags)
	}
	if len(cfg.Warnings) != 1 || !strings.Contains(cfg.Warnings[0], "sparkle") {
		t.Fatalf("warnings = %v", cfg.Warnings)
	}
}

func TestParse_DuplicateTagsCollapse(t *testing.T) {
	parser := newTestParser(t)
	cfg := parser.Parse([]string{"fire", "flame", "fire"}, nil)

	if !reflect.DeepEqual(cfg.Tags, []string{"fire"}) {
		t.Fatalf("tags = %v", cfg.Tags)
	}
	if len(cfg.DamageTypes) != 1 {
		t.Fatalf("damage types = %v", cfg.DamageTypes)
	}
}

func TestParse_GeometryConflictKeepsHighestPriority(t *testing.T) {
	parser := newTestParser(t)
	cfg := parser.Parse([]string{"cone", "chain"}, nil)

	if cfg.Geometry != tags.TagChain {
		t.Fatalf("geometry = %q want chain", cfg.Geometry)
	}
	if !reflect.DeepEqual(cfg.DroppedGeometry, []string{"cone"}) {
		t.Fatalf("dropped = %v", cfg.DroppedGeometry)
	}
	if cfg.Params.Has("cone_range") {
		t.Fatalf("dropped geometry still contributed defaults: %v", cfg.Params)
	}
	if got := cfg.Params.FloatOr("chain_range", 0); got != 5.0 {
		t.Fatalf("chain_range default = %v", got)
	}
	var noted bool
	for _, note := range cfg.Notes {
		if strings.Contains(note, "cone") {
			noted = true
		}
	}
	if !noted {
		t.Fatalf("no conflict note in %v", cfg.Notes)
	}

	reversed := parser.Parse([]string{"chain", "cone"}, nil)
	if reversed.Geometry != tags.TagChain {
		t.Fatalf("winner depends on input order: %q", reversed.Geometry)
	}
}

func TestParse_NoGeometryDefaultsToSingleTarget(t *testing.T) {
	parser := newTestParser(t)
	cfg := parser.Parse([]string{"fire"}, nil)
	if cfg.Geometry != tags.TagSingleTarget {
		t.Fatalf("geometry = %q want single_target", cfg.Geometry)
	}
}

func TestParse_ContextInference(t *testing.T) {
	parser := newTestParser(t)
	cases := []struct {
		name   string
		input  []string
		params tags.Params
		want   geometry.TargetContext
	}{
		{"damage implies enemy", []string{"fire"}, nil, geometry.ContextEnemy},
		{"debuff implies enemy", []string{"slow"}, nil, geometry.ContextEnemy},
		{"buff implies ally", []string{"regeneration"}, nil, geometry.ContextAlly},
		{"healing param implies ally", nil, tags.Params{"base_healing": 10.0}, geometry.ContextAlly},
		{"legacy healing param implies ally", nil, tags.Params{"baseHealing": 10.0}, geometry.ContextAlly},
		{"bare default is enemy", []string{"knockback"}, nil, geometry.ContextEnemy},
		{"damage beats buff", []string{"fire", "haste"}, nil, geometry.ContextEnemy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := parser.Parse(tc.input, tc.params)
			if cfg.Context != tc.want {
				t.Fatalf("context = %q want %q", cfg.Context, tc.want)
			}
			if cfg.ExplicitContext {
				t.Fatalf("context marked explicit for inferred input")
			}
		})
	}
}

func TestParse_ExplicitContextWins(t *testing.T) {
	parser := newTestParser(t)
	cfg := parser.Parse([]string{"fire", "mechanical"}, nil)

	if cfg.Context != geometry.ContextMechanical || !cfg.ExplicitContext {
		t.Fatalf("context = %q explicit=%v", cfg.Context, cfg.ExplicitContext)
	}
}

func TestParse_SuspiciousContextWarns(t *testing.T) {
	parser := newTestParser(t)

	cfg := parser.Parse([]string{"enemy"}, tags.Params{"base_healing": 20.0})
	if len(cfg.Warnings) != 1 || !strings.Contains(cfg.Warnings[0], "healing") {
		t.Fatalf("warnings = %v", cfg.Warnings)
	}

	cfg = parser.Parse([]string{"ally", "fire"}, nil)
	if len(cfg.Warnings) != 1 || !strings.Contains(cfg.Warnings[0], "damaging") {
		t.Fatalf("warnings = %v", cfg.Warnings)
	}

	cfg = parser.Parse([]string{"enemy", "fire", "lifesteal"}, tags.Params{"base_healing": 5.0})
	if len(cfg.Warnings) != 0 {
		t.Fatalf("mixed effect flagged: %v", cfg.Warnings)
	}
}

func TestParse_LaterTagWinsDefaultCollision(t *testing.T) {
	parser := newTestParser(t)

	cfg := parser.Parse([]string{"beam", "piercing"}, nil)
	if got := cfg.Params.IntOr("pierce_count", -99); got != 2 {
		t.Fatalf("pierce_count = %d want later tag's 2", got)
	}

	cfg = parser.Parse([]string{"piercing", "beam"}, nil)
	if got := cfg.Params.IntOr("pierce_count", -99); got != 0 {
		t.Fatalf("pierce_count = %d want later tag's 0", got)
	}
}

func TestParse_CallerParamsAlwaysWin(t *testing.T) {
	parser := newTestParser(t)
	cfg := parser.Parse([]string{"chain"}, tags.Params{"chain_range": 9.0})

	if got := cfg.Params.FloatOr("chain_range", 0); got != 9.0 {
		t.Fatalf("chain_range = %v want caller's 9", got)
	}
	if got := cfg.Params.FloatOr("chain_count", 0); got != 3.0 {
		t.Fatalf("chain_count = %v want default 3", got)
	}
}

func TestParse_LegacyBaseKeysFold(t *testing.T) {
	parser := newTestParser(t)

	cfg := parser.Parse([]string{"fire"}, tags.Params{"baseDamage": 25.0})
	if cfg.BaseDamage != 25 {
		t.Fatalf("base damage = %v want 25", cfg.BaseDamage)
	}
	if !cfg.Params.Has("base_damage") || cfg.Params.Has("baseDamage") {
		t.Fatalf("legacy key not folded: %v", cfg.Params)
	}

	cfg = parser.Parse([]string{"fire"}, tags.Params{"baseDamage": 10.0, "base_damage": 40.0})
	if cfg.BaseDamage != 40 {
		t.Fatalf("base damage = %v want canonical spelling to win", cfg.BaseDamage)
	}
}

func TestParse_SynergyBoostsParams(t *testing.T) {
	parser := newTestParser(t)

	cfg := parser.Parse([]string{"lightning", "chain"}, nil)
	if got := cfg.Params.FloatOr("chain_count", 0); got != 4.5 {
		t.Fatalf("chain_count = %v want 3 * 1.5", got)
	}
	var noted bool
	for _, note := range cfg.Notes {
		if strings.Contains(note, "lightning + chain") {
			noted = true
		}
	}
	if !noted {
		t.Fatalf("no synergy note in %v", cfg.Notes)
	}

	cfg = parser.Parse([]string{"fire", "explosive"}, tags.Params{"base_damage": 30.0})
	if cfg.BaseDamage != 45 {
		t.Fatalf("base damage = %v want synergy-boosted 45", cfg.BaseDamage)
	}

	cfg = parser.Parse([]string{"fire", "explosive"}, nil)
	if cfg.BaseDamage != 0 {
		t.Fatalf("base damage = %v want 0 when nothing to boost", cfg.BaseDamage)
	}
}

func TestParse_ExclusionWarningsAreAdvisory(t *testing.T) {
	parser := newTestParser(t)
	cfg := parser.Parse([]string{"fire", "ice"}, nil)

	if len(cfg.Warnings) != 1 {
		t.Fatalf("warnings = %v", cfg.Warnings)
	}
	if !strings.Contains(cfg.Warnings[0], `"ice" overrides "fire"`) {
		t.Fatalf("warning = %q", cfg.Warnings[0])
	}
	if len(cfg.DamageTypes) != 2 {
		t.Fatalf("exclusion removed a tag: %v", cfg.DamageTypes)
	}

	cfg = parser.Parse([]string{"freeze", "burn"}, nil)
	if len(cfg.Warnings) != 1 || !strings.Contains(cfg.Warnings[0], `"burn" overrides "freeze"`) {
		t.Fatalf("warnings = %v", cfg.Warnings)
	}
}

func TestParse_EquipmentTagNoted(t *testing.T) {
	parser := newTestParser(t)
	cfg := parser.Parse([]string{"weapon", "fire"}, nil)

	if len(cfg.DamageTypes) != 1 || cfg.DamageTypes[0] != "fire" {
		t.Fatalf("damage types = %v", cfg.DamageTypes)
	}
	var noted bool
	for _, note := range cfg.Notes {
		if strings.Contains(note, "weapon") {
			noted = true
		}
	}
	if !noted {
		t.Fatalf("no equipment note in %v", cfg.Notes)
	}
	if len(cfg.Warnings) != 0 {
		t.Fatalf("equipment tag warned: %v", cfg.Warnings)
	}
}

func TestParse_RequiredParameterWarns(t *testing.T) {
	defs := append(tags.Default(), tags.Definition{
		Name:     "detonate",
		Category: tags.CategorySpecial,
		Requires: []string{"fuse_time"},
	})
	parser := MustNewParser(tags.MustNewRegistry(defs), nil)

	cfg := parser.Parse([]string{"detonate"}, nil)
	if len(cfg.Warnings) != 1 || !strings.Contains(cfg.Warnings[0], "fuse_time") {
		t.Fatalf("warnings = %v", cfg.Warnings)
	}

	cfg = parser.Parse([]string{"detonate"}, tags.Params{"fuse_time": 1.5})
	if len(cfg.Warnings) != 0 {
		t.Fatalf("warnings = %v", cfg.Warnings)
	}
}

func TestParse_ParentTagsImplied(t *testing.T) {
	defs := append(tags.Default(), tags.Definition{
		Name:     "hellfire",
		Category: tags.CategoryDamageType,
		Parent:   tags.TagFire,
		Defaults: tags.Params{"base_damage": 12.0},
	})
	parser := MustNewParser(tags.MustNewRegistry(defs), nil)

	cfg := parser.Parse([]string{"hellfire"}, nil)
	if !reflect.DeepEqual(cfg.Tags, []string{"fire", "hellfire"}) {
		t.Fatalf("tags = %v want parent ahead of child", cfg.Tags)
	}
	if !reflect.DeepEqual(cfg.AutoTags, []string{"fire"}) {
		t.Fatalf("auto tags = %v", cfg.AutoTags)
	}
	if cfg.BaseDamage != 12 {
		t.Fatalf("base damage = %v want child default", cfg.BaseDamage)
	}
}

func TestParse_DeterministicOutput(t *testing.T) {
	parser := newTestParser(t)
	input := []string{"fire", "explosive", "chain", "burn", "lifesteal"}
	params := tags.Params{"base_damage": 20.0}

	first := parser.Parse(input, params)
	second := parser.Parse(input, params)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("parse is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestParse_DoesNotMutateRegistryDefaults(t *testing.T) {
	parser := newTestParser(t)

	first := parser.Parse([]string{"circle"}, nil)
	first.Params["radius"] = 99.0

	second := parser.Parse([]string{"circle"}, nil)
	if got := second.Params.FloatOr("radius", 0); got != 4.0 {
		t.Fatalf("radius = %v; registry defaults were mutated", got)
	}
}

func TestParse_EmitsDiagnosticEvents(t *testing.T) {
	var events []logging.Event
	pub := logging.PublisherFunc(func(_ context.Context, evt logging.Event) {
		events = append(events, evt)
	})
	parser := MustNewParser(tags.MustNewRegistry(tags.Default()), pub)

	parser.Parse([]string{"cone", "chain", "sparkle"}, nil)

	counts := map[logging.EventType]int{}
	for _, evt := range events {
		counts[evt.Type]++
	}
	if counts[logparse.EventUnknownTag] != 1 {
		t.Fatalf("unknown tag events = %d", counts[logparse.EventUnknownTag])
	}
	if counts[logparse.EventConflict] != 1 {
		t.Fatalf("conflict events = %d", counts[logparse.EventConflict])
	}
	if counts[logparse.EventResolved] != 1 {
		t.Fatalf("resolved events = %d", counts[logparse.EventResolved])
	}
}

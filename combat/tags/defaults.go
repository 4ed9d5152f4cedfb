package tags

// Canonical tag names referenced by gameplay code. Exported so the parser,
// geometry finder, and status manager never duplicate string literals.
const (
	TagSingleTarget = "single_target"
	TagCircle       = "circle"
	TagCone         = "cone"
	TagBeam         = "beam"
	TagChain        = "chain"

	TagFire      = "fire"
	TagIce       = "ice"
	TagLightning = "lightning"
	TagPhysical  = "physical"
	TagArcane    = "arcane"
	TagHoly      = "holy"
	TagVoid      = "void"

	TagBurn         = "burn"
	TagBleed        = "bleed"
	TagPoison       = "poison"
	TagShock        = "shock"
	TagFreeze       = "freeze"
	TagStun         = "stun"
	TagSlow         = "slow"
	TagRoot         = "root"
	TagWeaken       = "weaken"
	TagVulnerable   = "vulnerable"
	TagRegeneration = "regeneration"
	TagShield       = "shield"
	TagHaste        = "haste"

	TagEnemy      = "enemy"
	TagAlly       = "ally"
	TagPlayer     = "player"
	TagTurret     = "turret"
	TagDevice     = "device"
	TagConstruct  = "construct"
	TagUndead     = "undead"
	TagMechanical = "mechanical"
	TagAll        = "all"
	TagSelf       = "self"

	TagExplosive = "explosive"
	TagPiercing  = "piercing"
	TagKnockback = "knockback"
	TagLifesteal = "lifesteal"
	TagCritical  = "critical"

	TagOnHit  = "on_hit"
	TagOnKill = "on_kill"
	TagOnCrit = "on_crit"

	TagWeapon = "weapon"
	TagArmor  = "armor"
)

// Default returns the built-in tag canon. Catalog overlays are merged on
// top of this set before the registry is constructed.
func Default() []Definition {
	return []Definition{
		// Geometry. Priority decides which shape wins when an invocation
		// carries more than one; higher wins, single_target is the floor.
		{
			Name:        TagChain,
			Category:    CategoryGeometry,
			Description: "Jumps from the primary target to nearby victims.",
			Priority:    90,
			Defaults:    Params{"chain_range": 5.0, "chain_count": 3.0},
			Aliases:     []string{"bounce", "arc"},
		},
		{
			Name:        TagBeam,
			Category:    CategoryGeometry,
			Description: "Hits everything along a straight line from the source.",
			Priority:    80,
			Defaults:    Params{"beam_range": 12.0, "beam_width": 1.0, "pierce_count": 0.0},
			Aliases:     []string{"line", "ray"},
		},
		{
			Name:        TagCone,
			Category:    CategoryGeometry,
			Description: "Sweeps an arc in front of the source.",
			Priority:    70,
			Defaults:    Params{"cone_range": 6.0, "cone_angle": 90.0},
			Aliases:     []string{"spray", "fan"},
		},
		{
			Name:        TagCircle,
			Category:    CategoryGeometry,
			Description: "Hits everything within a radius of the impact point.",
			Priority:    60,
			Defaults:    Params{"radius": 4.0, "max_targets": 0.0, "origin": "target"},
			Aliases:     []string{"aoe", "area", "burst", "nova"},
		},
		{
			Name:        TagSingleTarget,
			Category:    CategoryGeometry,
			Description: "Affects only the primary target.",
			Priority:    10,
			Aliases:     []string{"single", "focus"},
		},

		// Damage types.
		{
			Name:        TagFire,
			Category:    CategoryDamageType,
			Description: "Fire damage. May ignite the victim.",
			Aliases:     []string{"flame", "flames"},
			Conflicts:   []string{TagIce},
			Synergies:   map[string]map[string]float64{TagExplosive: {"base_damage": 0.5}},
			AutoApply:   AutoApply{Chance: 0.25, Status: TagBurn},
		},
		{
			Name:        TagIce,
			Category:    CategoryDamageType,
			Description: "Cold damage. May freeze the victim solid.",
			Aliases:     []string{"frost", "cold"},
			AutoApply:   AutoApply{Chance: 0.15, Status: TagFreeze},
		},
		{
			Name:        TagLightning,
			Category:    CategoryDamageType,
			Description: "Electrical damage, strong against machines.",
			Aliases:     []string{"electric", "zap"},
			Defaults:    Params{"bonus_vs_mechanical": 0.25},
			Synergies:   map[string]map[string]float64{TagChain: {"chain_count": 0.5}},
			AutoApply:   AutoApply{Chance: 0.3, Status: TagShock},
		},
		{
			Name:        TagPhysical,
			Category:    CategoryDamageType,
			Description: "Plain kinetic damage. May open a bleeding wound.",
			Aliases:     []string{"kinetic"},
			AutoApply:   AutoApply{Chance: 0.2, Status: TagBleed},
		},
		{
			Name:        TagArcane,
			Category:    CategoryDamageType,
			Description: "Raw magical damage, strong against constructs.",
			Aliases:     []string{"magic"},
			Defaults:    Params{"bonus_vs_construct": 0.25},
		},
		{
			Name:        TagHoly,
			Category:    CategoryDamageType,
			Description: "Radiant damage, strong against the undead.",
			Aliases:     []string{"radiant", "light"},
			Defaults:    Params{"bonus_vs_undead": 0.5},
			Synergies:   map[string]map[string]float64{TagRegeneration: {"base_healing": 0.5}},
		},
		{
			Name:        TagVoid,
			Category:    CategoryDamageType,
			Description: "Entropic damage that saps the victim's strength.",
			Aliases:     []string{"shadow", "dark"},
			AutoApply:   AutoApply{Chance: 0.15, Status: TagWeaken},
		},

		// Damage-over-time debuffs.
		{
			Name:        TagBurn,
			Category:    CategoryStatusDebuff,
			Description: "Periodic fire damage.",
			Aliases:     []string{"ignite", "burning"},
			Conflicts:   []string{TagFreeze},
			Defaults:    Params{"burn_damage": 4.0},
			Stacking:    StackAdditive,
			MaxStacks:   3,
			Duration:    4.0,
			TickEvery:   1.0,
		},
		{
			Name:        TagBleed,
			Category:    CategoryStatusDebuff,
			Description: "Periodic physical damage.",
			Aliases:     []string{"hemorrhage"},
			Defaults:    Params{"bleed_damage": 2.0},
			Synergies:   map[string]map[string]float64{TagPoison: {"bleed_damage": 0.5}},
			Stacking:    StackAdditive,
			MaxStacks:   5,
			Duration:    6.0,
			TickEvery:   1.0,
		},
		{
			Name:        TagPoison,
			Category:    CategoryStatusDebuff,
			Description: "Slow periodic poison damage.",
			Aliases:     []string{"venom", "toxin"},
			Defaults:    Params{"poison_damage": 1.5},
			Stacking:    StackAdditive,
			MaxStacks:   5,
			Duration:    8.0,
			TickEvery:   2.0,
		},
		{
			Name:        TagShock,
			Category:    CategoryStatusDebuff,
			Description: "Rapid electrical pulses.",
			Aliases:     []string{"electrified"},
			Defaults:    Params{"shock_damage": 2.0},
			Stacking:    StackRefresh,
			Duration:    3.0,
			TickEvery:   0.5,
		},

		// Crowd control.
		{
			Name:           TagFreeze,
			Category:       CategoryStatusDebuff,
			Description:    "Encases the victim in ice; no movement or actions.",
			Aliases:        []string{"frozen"},
			Conflicts:      []string{TagBurn, TagStun},
			GrantsImmunity: []string{TagSlow},
			Duration:       2.0,
		},
		{
			Name:        TagStun,
			Category:    CategoryStatusDebuff,
			Description: "Briefly prevents movement and actions.",
			Aliases:     []string{"stunned", "daze"},
			Duration:    1.5,
		},
		{
			Name:        TagSlow,
			Category:    CategoryStatusDebuff,
			Description: "Reduces movement speed.",
			Aliases:     []string{"chill", "cripple"},
			Defaults:    Params{"slow_amount": 0.4},
			Stacking:    StackRefresh,
			Duration:    4.0,
		},
		{
			Name:        TagRoot,
			Category:    CategoryStatusDebuff,
			Description: "Pins the victim in place; actions still allowed.",
			Aliases:     []string{"entangle", "snare"},
			Stacking:    StackRefresh,
			Duration:    2.0,
		},

		// Stat debuffs.
		{
			Name:        TagWeaken,
			Category:    CategoryStatusDebuff,
			Description: "Reduces the victim's outgoing damage.",
			Aliases:     []string{"enfeeble"},
			Defaults:    Params{"weaken_amount": 0.25},
			Stacking:    StackRefresh,
			Duration:    5.0,
		},
		{
			Name:        TagVulnerable,
			Category:    CategoryStatusDebuff,
			Description: "Increases the damage the victim takes.",
			Aliases:     []string{"exposed"},
			Defaults:    Params{"vulnerable_amount": 0.25},
			Stacking:    StackRefresh,
			Duration:    5.0,
		},

		// Buffs.
		{
			Name:        TagRegeneration,
			Category:    CategoryStatusBuff,
			Description: "Periodic healing.",
			Aliases:     []string{"regen"},
			Defaults:    Params{"regeneration_heal": 2.0},
			Stacking:    StackRefresh,
			Duration:    10.0,
			TickEvery:   1.0,
		},
		{
			Name:        TagShield,
			Category:    CategoryStatusBuff,
			Description: "Absorbs incoming damage until depleted or expired.",
			Aliases:     []string{"barrier", "ward"},
			Defaults:    Params{"shield_amount": 25.0},
			Duration:    6.0,
		},
		{
			Name:        TagHaste,
			Category:    CategoryStatusBuff,
			Description: "Increases movement speed.",
			Aliases:     []string{"swift"},
			Conflicts:   []string{TagSlow},
			Defaults:    Params{"haste_amount": 0.3},
			Stacking:    StackRefresh,
			Duration:    5.0,
		},

		// Targeting contexts.
		{Name: TagEnemy, Category: CategoryContext, Description: "Hostile targets only.", Aliases: []string{"enemies", "hostile"}},
		{Name: TagAlly, Category: CategoryContext, Description: "Friendly targets only.", Aliases: []string{"allies", "friendly"}},
		{Name: TagPlayer, Category: CategoryContext, Description: "Player-controlled targets only.", Aliases: []string{"players"}},
		{Name: TagTurret, Category: CategoryContext, Description: "Turret emplacements only.", Aliases: []string{"turrets"}},
		{Name: TagDevice, Category: CategoryContext, Description: "Interactive devices only.", Aliases: []string{"devices"}},
		{Name: TagConstruct, Category: CategoryContext, Description: "Animated constructs only.", Aliases: []string{"constructs"}},
		{Name: TagUndead, Category: CategoryContext, Description: "Undead targets only."},
		{Name: TagMechanical, Category: CategoryContext, Description: "Mechanical targets only.", Aliases: []string{"mech", "machine"}},
		{Name: TagAll, Category: CategoryContext, Description: "No target filtering.", Aliases: []string{"any", "everyone"}},
		{Name: TagSelf, Category: CategoryContext, Description: "The source itself. Callers must resolve self-identity; the target finder matches nothing for this context."},

		// Specials.
		{
			Name:        TagExplosive,
			Category:    CategorySpecial,
			Description: "Detonates on impact.",
			Aliases:     []string{"explode", "blast"},
		},
		{
			Name:        TagPiercing,
			Category:    CategorySpecial,
			Description: "Passes through targets.",
			Aliases:     []string{"pierce"},
			Defaults:    Params{"pierce_count": 2.0},
		},
		{
			Name:        TagKnockback,
			Category:    CategorySpecial,
			Description: "Shoves victims away from the source.",
			Aliases:     []string{"push"},
			Defaults:    Params{"knockback_force": 5.0},
		},
		{
			Name:        TagLifesteal,
			Category:    CategorySpecial,
			Description: "Heals the source for a fraction of damage dealt.",
			Aliases:     []string{"leech", "vampiric"},
			Defaults:    Params{"lifesteal_ratio": 0.25},
		},
		{
			Name:        TagCritical,
			Category:    CategorySpecial,
			Description: "Chance to multiply the damage dealt.",
			Aliases:     []string{"crit"},
			Defaults:    Params{"critical_chance": 0.15, "critical_multiplier": 2.0},
		},

		// Triggers, recorded for downstream systems.
		{Name: TagOnHit, Category: CategoryTrigger, Description: "Fires when the effect lands.", Aliases: []string{"onhit"}},
		{Name: TagOnKill, Category: CategoryTrigger, Description: "Fires when the effect defeats a target.", Aliases: []string{"onkill"}},
		{Name: TagOnCrit, Category: CategoryTrigger, Description: "Fires when the effect lands critically.", Aliases: []string{"oncrit"}},

		// Equipment markers describing the carrying item, not the effect.
		{Name: TagWeapon, Category: CategoryEquipment, Description: "Carried by a weapon."},
		{Name: TagArmor, Category: CategoryEquipment, Description: "Carried by armor."},
	}
}

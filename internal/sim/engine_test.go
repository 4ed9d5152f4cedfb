package sim

import (
	"testing"

	"rift-and-ruin/server/combat/tags"
	"rift-and-ruin/server/internal/world"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	reg := tags.MustNewRegistry(tags.Default())
	engine, err := NewEngine(reg, world.Config{Width: 50, Height: 50, Seed: "test"}, Deps{})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func joinCmd(id, name string, x, y float64) Command {
	return Command{ActorID: id, Type: CommandJoin, Join: &JoinCommand{Name: name, X: x, Y: y}}
}

func TestApply_JoinSpawnsOnce(t *testing.T) {
	engine := newTestEngine(t)

	if err := engine.Apply([]Command{joinCmd("hero", "Hero", 5, 5)}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	actor, ok := engine.World().Actor("hero")
	if !ok || actor.Name() != "Hero" || actor.CombatCategory() != "player" {
		t.Fatalf("join did not spawn a player: %+v ok=%v", actor, ok)
	}

	engine.Apply([]Command{joinCmd("hero", "Impostor", 0, 0)})
	actor, _ = engine.World().Actor("hero")
	if actor.Name() != "Hero" {
		t.Fatalf("second join replaced actor: %q", actor.Name())
	}
}

func TestApply_LeaveRemoves(t *testing.T) {
	engine := newTestEngine(t)
	engine.Apply([]Command{joinCmd("hero", "Hero", 5, 5)})

	engine.Apply([]Command{{ActorID: "hero", Type: CommandLeave}})

	if _, ok := engine.World().Actor("hero"); ok {
		t.Fatalf("actor still present after leave")
	}
}

func TestApply_MoveThenStep(t *testing.T) {
	engine := newTestEngine(t)
	engine.Apply([]Command{joinCmd("hero", "Hero", 10, 10)})

	engine.Apply([]Command{{ActorID: "hero", Type: CommandMove, Move: &MoveCommand{DX: 1}}})
	engine.Step(0.5)

	actor, _ := engine.World().Actor("hero")
	if got := actor.Position().X; got != 12 {
		t.Fatalf("x = %v want 12 at default speed", got)
	}
	if engine.CurrentTick() != 1 {
		t.Fatalf("tick = %d", engine.CurrentTick())
	}
}

func TestApply_CastDamagesNamedTarget(t *testing.T) {
	engine := newTestEngine(t)
	engine.Apply([]Command{joinCmd("hero", "Hero", 0, 0)})
	engine.World().Spawn(world.ActorSpec{ID: "goblin", Category: "enemy", X: 2, Y: 0})

	engine.Apply([]Command{{ActorID: "hero", Type: CommandCast, Cast: &CastCommand{
		Tags:     []string{"arcane"},
		Params:   tags.Params{"base_damage": 10.0},
		TargetID: "goblin",
	}}})

	goblin, _ := engine.World().Actor("goblin")
	if got := goblin.Health(); got != 90 {
		t.Fatalf("goblin health = %v want 90", got)
	}
}

func TestApply_CastDefaultsToNearestTarget(t *testing.T) {
	engine := newTestEngine(t)
	engine.Apply([]Command{joinCmd("hero", "Hero", 0, 0)})
	engine.World().Spawn(world.ActorSpec{ID: "near", Category: "enemy", X: 2, Y: 0})
	engine.World().Spawn(world.ActorSpec{ID: "far", Category: "enemy", X: 9, Y: 0})

	engine.Apply([]Command{{ActorID: "hero", Type: CommandCast, Cast: &CastCommand{
		Tags:   []string{"arcane"},
		Params: tags.Params{"base_damage": 10.0},
	}}})

	near, _ := engine.World().Actor("near")
	far, _ := engine.World().Actor("far")
	if near.Health() != 90 || far.Health() != 100 {
		t.Fatalf("near=%v far=%v want nearest hit only", near.Health(), far.Health())
	}
}

func TestApply_SilencedActorCannotCast(t *testing.T) {
	engine := newTestEngine(t)
	engine.Apply([]Command{joinCmd("hero", "Hero", 0, 0)})
	engine.World().Spawn(world.ActorSpec{ID: "goblin", Category: "enemy", X: 2, Y: 0})

	hero, _ := engine.World().Actor("hero")
	hero.StatusManager().Apply("stun", nil, "trap")

	engine.Apply([]Command{{ActorID: "hero", Type: CommandCast, Cast: &CastCommand{
		Tags:     []string{"arcane"},
		Params:   tags.Params{"base_damage": 10.0},
		TargetID: "goblin",
	}}})

	goblin, _ := engine.World().Actor("goblin")
	if goblin.Health() != 100 {
		t.Fatalf("stunned caster still dealt damage: %v", goblin.Health())
	}
}

func TestSnapshot_CopiesActorsAndStatuses(t *testing.T) {
	engine := newTestEngine(t)
	engine.Apply([]Command{joinCmd("hero", "Hero", 5, 5)})
	hero, _ := engine.World().Actor("hero")
	hero.StatusManager().Apply("haste", nil, "potion")
	engine.Step(1.0)

	snapshot := engine.Snapshot()

	if snapshot.Tick != 1 || len(snapshot.Actors) != 1 {
		t.Fatalf("snapshot = %+v", snapshot)
	}
	view, ok := snapshot.Actor("hero")
	if !ok || view.Name != "Hero" || !view.Alive {
		t.Fatalf("view = %+v", view)
	}
	if len(view.Statuses) != 1 || view.Statuses[0].Tag != "haste" {
		t.Fatalf("statuses = %+v", view.Statuses)
	}
}

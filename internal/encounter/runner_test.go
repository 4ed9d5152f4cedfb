package encounter

import (
	"context"
	"testing"

	"rift-and-ruin/server/combat/tags"
	"rift-and-ruin/server/internal/sim"
	"rift-and-ruin/server/internal/world"
	"rift-and-ruin/server/logging"
	logsim "rift-and-ruin/server/logging/simulation"
)

func newRunnerEngine(t *testing.T, pub logging.Publisher) *sim.Engine {
	t.Helper()
	reg := tags.MustNewRegistry(tags.Default())
	engine, err := sim.NewEngine(reg, world.Config{Width: 50, Height: 50, Seed: "test"}, sim.Deps{Publisher: pub})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func TestAdvance_SpawnsInitialActors(t *testing.T) {
	engine := newRunnerEngine(t, nil)
	script := &Script{
		Name: "ambush",
		Spawns: []Spawn{
			{ID: "pyro", Category: "player", X: 0, Y: 0},
			{ID: "goblin", Category: "enemy", X: 2, Y: 0},
		},
	}
	runner := NewRunner(script, engine)

	runner.Advance(0)

	if _, ok := engine.World().Actor("pyro"); !ok {
		t.Fatal("initial caster was not spawned")
	}
	if _, ok := engine.World().Actor("goblin"); !ok {
		t.Fatal("initial goblin was not spawned")
	}
	if !runner.Done() {
		t.Fatal("script with no waves or casts should be done after start")
	}
}

func TestAdvance_FiresWaveAtItsTime(t *testing.T) {
	engine := newRunnerEngine(t, nil)
	script := &Script{
		Name:   "waves",
		Spawns: []Spawn{{ID: "pyro", Category: "player"}},
		Waves: []Wave{{
			Number: 1,
			At:     1.0,
			Spawns: []Spawn{{ID: "goblin-2", Category: "enemy", X: 4}},
		}},
	}
	runner := NewRunner(script, engine)

	runner.Advance(0.5)
	if _, ok := engine.World().Actor("goblin-2"); ok {
		t.Fatal("wave fired before its trigger time")
	}
	if runner.Done() {
		t.Fatal("runner reported done with a wave pending")
	}

	runner.Advance(0.6)
	if _, ok := engine.World().Actor("goblin-2"); !ok {
		t.Fatal("wave did not fire after its trigger time")
	}
	if !runner.Done() {
		t.Fatal("runner should be done after the last wave")
	}
}

func TestAdvance_ExecutesScriptedCast(t *testing.T) {
	engine := newRunnerEngine(t, nil)
	script := &Script{
		Name: "scripted-cast",
		Spawns: []Spawn{
			{ID: "pyro", Category: "player", X: 0, Y: 0},
			{ID: "goblin", Category: "enemy", X: 2, Y: 0},
		},
		Casts: []Cast{{
			At:       1.0,
			CasterID: "pyro",
			Tags:     []string{"arcane"},
			Params:   tags.Params{"base_damage": 10.0},
			TargetID: "goblin",
		}},
	}
	runner := NewRunner(script, engine)

	runner.Advance(1.0)

	goblin, ok := engine.World().Actor("goblin")
	if !ok {
		t.Fatal("goblin missing")
	}
	if goblin.Health() != 90 {
		t.Fatalf("goblin health = %v, want 90 after scripted bolt", goblin.Health())
	}
	if !runner.Done() {
		t.Fatal("runner should be done after the last cast")
	}
}

func TestAdvance_EmitsStartEventOnce(t *testing.T) {
	var events []logging.Event
	pub := logging.PublisherFunc(func(_ context.Context, evt logging.Event) {
		events = append(events, evt)
	})
	engine := newRunnerEngine(t, pub)
	script := &Script{
		Name:   "ambush",
		Spawns: []Spawn{{ID: "pyro", Category: "player"}},
		Waves: []Wave{{
			Number: 1,
			At:     1.0,
			Spawns: []Spawn{{ID: "goblin", Category: "enemy"}},
		}},
	}
	runner := NewRunner(script, engine)

	runner.Advance(0)
	runner.Advance(2.0)

	started := 0
	for _, evt := range events {
		if evt.Type != logsim.EventEncounterStarted {
			continue
		}
		started++
		payload, ok := evt.Payload.(logsim.EncounterStartedPayload)
		if !ok {
			t.Fatalf("unexpected payload type %T", evt.Payload)
		}
		if payload.Encounter != "ambush" || payload.Waves != 1 {
			t.Fatalf("unexpected payload %+v", payload)
		}
	}
	if started != 1 {
		t.Fatalf("encounter start emitted %d times, want once", started)
	}
}

func TestRunner_NilScriptIsDone(t *testing.T) {
	runner := NewRunner(nil, nil)
	runner.Advance(1.0)
	if !runner.Done() {
		t.Fatal("runner without a script should report done")
	}

	var nilRunner *Runner
	nilRunner.Advance(1.0)
	if !nilRunner.Done() {
		t.Fatal("nil runner should report done")
	}
}

// Package sim drives the fixed-timestep simulation: a bounded command
// queue feeding an engine that steps the world and resolves casts
// through the combat pipeline, all on a single goroutine.
package sim

import (
	"fmt"

	"rift-and-ruin/server/combat"
	"rift-and-ruin/server/combat/geometry"
	"rift-and-ruin/server/combat/tags"
	"rift-and-ruin/server/internal/world"
)

// EngineCore is the surface the loop drives each tick.
type EngineCore interface {
	Deps() Deps
	Apply([]Command) error
	Step(dt float64)
	Snapshot() Snapshot
}

// Engine applies commands to the world and resolves cast effects.
type Engine struct {
	deps     Deps
	world    *world.World
	executor *combat.Executor
	tick     uint64
}

// NewEngine wires a world and an effect executor over the registry.
func NewEngine(reg *tags.Registry, worldCfg world.Config, deps Deps) (*Engine, error) {
	if reg == nil {
		return nil, fmt.Errorf("sim: nil registry")
	}
	deps = deps.normalized()
	engine := &Engine{deps: deps}

	w, err := world.New(reg, worldCfg, world.Deps{
		Publisher: deps.Publisher,
		Tick:      engine.CurrentTick,
	})
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	engine.world = w

	rng := deps.RNG
	if rng == nil {
		rng = w.SubsystemRNG("combat")
	}
	executor, err := combat.NewExecutor(reg, deps.Publisher, rng, engine.CurrentTick)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	engine.executor = executor
	return engine, nil
}

// Deps returns the injected dependencies.
func (e *Engine) Deps() Deps {
	if e == nil {
		return Deps{}
	}
	return e.deps
}

// World exposes the arena for local wiring (encounter scripts, tests).
func (e *Engine) World() *world.World {
	if e == nil {
		return nil
	}
	return e.world
}

// Executor exposes the effect executor for scripted casts.
func (e *Engine) Executor() *combat.Executor {
	if e == nil {
		return nil
	}
	return e.executor
}

// CurrentTick reports the last completed tick.
func (e *Engine) CurrentTick() uint64 {
	if e == nil {
		return 0
	}
	return e.tick
}

// Apply executes the staged commands in order. Commands referencing
// unknown actors are skipped; the queue never stops the simulation.
func (e *Engine) Apply(commands []Command) error {
	if e == nil {
		return nil
	}
	for _, cmd := range commands {
		switch cmd.Type {
		case CommandJoin:
			e.applyJoin(cmd)
		case CommandLeave:
			e.world.Remove(cmd.ActorID)
		case CommandMove:
			e.applyMove(cmd)
		case CommandCast:
			e.applyCast(cmd)
		}
	}
	return nil
}

// Step advances the completed-tick counter and the world.
func (e *Engine) Step(dt float64) {
	if e == nil {
		return
	}
	e.tick++
	e.world.Step(dt)
}

// Snapshot copies the arena into a broadcast-safe view.
func (e *Engine) Snapshot() Snapshot {
	if e == nil {
		return Snapshot{}
	}
	actors := e.world.Actors()
	snapshot := Snapshot{Tick: e.tick, Actors: make([]ActorView, 0, len(actors))}
	for _, actor := range actors {
		view := ActorView{
			ID:        actor.ID(),
			Name:      actor.Name(),
			Category:  actor.CombatCategory(),
			X:         actor.Position().X,
			Y:         actor.Position().Y,
			Health:    actor.Health(),
			MaxHealth: actor.MaxHealth(),
			Alive:     actor.Alive(),
		}
		for _, inst := range actor.StatusManager().Active() {
			view.Statuses = append(view.Statuses, StatusView{
				Tag:       inst.Tag,
				Remaining: inst.Remaining,
				Stacks:    inst.Stacks,
			})
		}
		snapshot.Actors = append(snapshot.Actors, view)
	}
	return snapshot
}

func (e *Engine) applyJoin(cmd Command) {
	if cmd.Join == nil || cmd.ActorID == "" {
		return
	}
	if _, exists := e.world.Actor(cmd.ActorID); exists {
		return
	}
	category := cmd.Join.Category
	if category == "" {
		category = "player"
	}
	e.world.Spawn(world.ActorSpec{
		ID:       cmd.ActorID,
		Name:     cmd.Join.Name,
		Category: category,
		X:        cmd.Join.X,
		Y:        cmd.Join.Y,
	})
}

func (e *Engine) applyMove(cmd Command) {
	if cmd.Move == nil {
		return
	}
	actor, ok := e.world.Actor(cmd.ActorID)
	if !ok || !actor.Alive() {
		return
	}
	actor.SetMoveIntent(geometry.Vec2{X: cmd.Move.DX, Y: cmd.Move.DY})
}

func (e *Engine) applyCast(cmd Command) {
	if cmd.Cast == nil {
		return
	}
	source, ok := e.world.Actor(cmd.ActorID)
	if !ok || !source.Alive() {
		return
	}
	if source.StatusManager().IsSilenced() {
		return
	}
	candidates := e.world.CandidatesFor(cmd.ActorID)
	primary := e.resolvePrimary(source, cmd.Cast.TargetID, candidates)
	e.executor.ExecuteEffect(source, primary, cmd.Cast.Tags, cmd.Cast.Params, candidates)
}

// resolvePrimary picks the explicit target when named and alive, else
// the nearest live candidate.
func (e *Engine) resolvePrimary(source *world.Actor, targetID string, candidates []geometry.Target) geometry.Target {
	if targetID != "" {
		if actor, ok := e.world.Actor(targetID); ok && actor.Alive() {
			return actor
		}
		return nil
	}
	var nearest geometry.Target
	best := 0.0
	for _, candidate := range candidates {
		dist := candidate.Position().DistanceSquared(source.Position())
		if nearest == nil || dist < best {
			nearest = candidate
			best = dist
		}
	}
	return nearest
}

var _ EngineCore = (*Engine)(nil)

package encounter

import (
	"context"

	"rift-and-ruin/server/internal/sim"
	"rift-and-ruin/server/internal/world"
	logsim "rift-and-ruin/server/logging/simulation"
)

// Runner replays a script against an engine: initial spawns on start,
// then waves and casts as their trigger times pass. It must be driven
// from the simulation goroutine.
type Runner struct {
	script *Script
	engine *sim.Engine

	elapsed float64
	started bool
	waveIdx int
	castIdx int
}

// NewRunner binds a script to an engine. Nil arguments yield a runner
// that does nothing.
func NewRunner(script *Script, engine *sim.Engine) *Runner {
	return &Runner{script: script, engine: engine}
}

// Advance moves script time forward and fires everything that came due.
func (r *Runner) Advance(dt float64) {
	if r == nil || r.script == nil || r.engine == nil {
		return
	}
	if !r.started {
		r.start()
	}
	if dt > 0 {
		r.elapsed += dt
	}
	for r.waveIdx < len(r.script.Waves) && r.script.Waves[r.waveIdx].At <= r.elapsed {
		for _, spawn := range r.script.Waves[r.waveIdx].Spawns {
			r.spawn(spawn)
		}
		r.waveIdx++
	}
	for r.castIdx < len(r.script.Casts) && r.script.Casts[r.castIdx].At <= r.elapsed {
		r.cast(r.script.Casts[r.castIdx])
		r.castIdx++
	}
}

// Done reports whether every wave and cast has fired.
func (r *Runner) Done() bool {
	if r == nil || r.script == nil {
		return true
	}
	return r.waveIdx >= len(r.script.Waves) && r.castIdx >= len(r.script.Casts)
}

// Elapsed reports the script time consumed so far.
func (r *Runner) Elapsed() float64 {
	if r == nil {
		return 0
	}
	return r.elapsed
}

func (r *Runner) start() {
	r.started = true
	for _, spawn := range r.script.Spawns {
		r.spawn(spawn)
	}
	logsim.EncounterStarted(context.Background(), r.engine.Deps().Publisher, r.engine.CurrentTick(),
		logsim.EncounterStartedPayload{
			Encounter: r.script.Name,
			Waves:     len(r.script.Waves),
		}, nil)
}

func (r *Runner) spawn(spawn Spawn) {
	r.engine.World().Spawn(world.ActorSpec{
		ID:          spawn.ID,
		Name:        spawn.Name,
		Category:    spawn.Category,
		X:           spawn.X,
		Y:           spawn.Y,
		Health:      spawn.Health,
		MoveSpeed:   spawn.MoveSpeed,
		Resistances: spawn.Resistances,
	})
}

// cast routes through the engine's command path so scripted casts obey
// the same rules as player casts.
func (r *Runner) cast(cast Cast) {
	_ = r.engine.Apply([]sim.Command{{
		OriginTick: r.engine.CurrentTick(),
		ActorID:    cast.CasterID,
		Type:       sim.CommandCast,
		Cast: &sim.CastCommand{
			Tags:     cast.Tags,
			Params:   cast.Params,
			TargetID: cast.TargetID,
		},
	}})
}

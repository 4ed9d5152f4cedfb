// Package world owns the arena state: the set of live actors, their
// movement, and the per-actor status managers the combat pipeline writes
// into. All mutation happens from the single simulation goroutine.
package world

import (
	"fmt"
	"math/rand"
	"strings"

	"rift-and-ruin/server/combat/geometry"
	"rift-and-ruin/server/combat/status"
	"rift-and-ruin/server/combat/tags"
	"rift-and-ruin/server/logging"
)

const (
	DefaultSeed   = "arena"
	DefaultWidth  = 100.0
	DefaultHeight = 100.0
)

// RNGFactory produces deterministic RNG instances for world subsystems.
type RNGFactory func(rootSeed, label string) *rand.Rand

// Config captures the arena dimensions and the deterministic seed.
type Config struct {
	Width  float64
	Height float64
	Seed   string
}

func (cfg Config) normalized() Config {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = DefaultSeed
	}
	if normalized.Width <= 0 {
		normalized.Width = DefaultWidth
	}
	if normalized.Height <= 0 {
		normalized.Height = DefaultHeight
	}
	return normalized
}

// Deps bundles the runtime dependencies a World needs.
type Deps struct {
	Publisher logging.Publisher
	RNG       RNGFactory
	Tick      func() uint64
}

// World holds every actor in the arena, keyed by ID with spawn order
// preserved so iteration stays deterministic.
type World struct {
	config    Config
	registry  *tags.Registry
	publisher logging.Publisher
	rng       *rand.Rand
	factory   RNGFactory
	tick      func() uint64

	actors map[string]*Actor
	order  []string
}

// New constructs an empty world over the tag registry.
func New(reg *tags.Registry, cfg Config, deps Deps) (*World, error) {
	if reg == nil {
		return nil, fmt.Errorf("world: nil registry")
	}
	normalized := cfg.normalized()
	factory := deps.RNG
	if factory == nil {
		factory = NewDeterministicRNG
	}
	return &World{
		config:    normalized,
		registry:  reg,
		publisher: deps.Publisher,
		rng:       factory(normalized.Seed, "world"),
		factory:   factory,
		tick:      deps.Tick,
		actors:    make(map[string]*Actor),
	}, nil
}

// Config returns the normalized configuration captured at construction.
func (w *World) Config() Config {
	if w == nil {
		return Config{}
	}
	return w.config
}

// RNG exposes the world's root RNG.
func (w *World) RNG() *rand.Rand {
	if w == nil {
		return nil
	}
	return w.rng
}

// SubsystemRNG derives an independent deterministic RNG for a named
// subsystem, so one consumer's draws never perturb another's.
func (w *World) SubsystemRNG(label string) *rand.Rand {
	if w == nil {
		return nil
	}
	return w.factory(w.config.Seed, label)
}

// Spawn adds an actor to the arena and returns it. The spawn position is
// clamped to the arena bounds.
func (w *World) Spawn(spec ActorSpec) *Actor {
	if w == nil {
		return nil
	}
	actor := newActor(spec)
	actor.pos.X = clamp(actor.pos.X, 0, w.config.Width)
	actor.pos.Y = clamp(actor.pos.Y, 0, w.config.Height)
	actor.statuses = status.NewManager(actor, w.registry, w.publisher, w.tick)
	if _, exists := w.actors[actor.id]; !exists {
		w.order = append(w.order, actor.id)
	}
	w.actors[actor.id] = actor
	return actor
}

// Remove deletes an actor from the arena.
func (w *World) Remove(id string) bool {
	if w == nil {
		return false
	}
	if _, ok := w.actors[id]; !ok {
		return false
	}
	delete(w.actors, id)
	for i, existing := range w.order {
		if existing == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return true
}

// Actor looks up an actor by ID.
func (w *World) Actor(id string) (*Actor, bool) {
	if w == nil {
		return nil, false
	}
	actor, ok := w.actors[id]
	return actor, ok
}

// Actors returns every actor in spawn order.
func (w *World) Actors() []*Actor {
	if w == nil {
		return nil
	}
	out := make([]*Actor, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.actors[id])
	}
	return out
}

// CandidatesFor returns the live actors an effect from sourceID may
// target, in spawn order.
func (w *World) CandidatesFor(sourceID string) []geometry.Target {
	if w == nil {
		return nil
	}
	out := make([]geometry.Target, 0, len(w.order))
	for _, id := range w.order {
		if id == sourceID {
			continue
		}
		actor := w.actors[id]
		if actor == nil || !actor.Alive() {
			continue
		}
		out = append(out, actor)
	}
	return out
}

// Step advances the arena by dt seconds: movement with status-derived
// speed modifiers, knockback decay, then every live actor's status
// manager. Actors that died this step have their remaining statuses
// cleared so nothing ticks on a corpse.
func (w *World) Step(dt float64) {
	if w == nil || dt <= 0 {
		return
	}
	for _, id := range w.order {
		actor := w.actors[id]
		if actor == nil || !actor.Alive() {
			continue
		}
		actor.step(dt, w.config.Width, w.config.Height)
		actor.statuses.Update(dt)
		if !actor.Alive() && actor.statuses.Count() > 0 {
			actor.statuses.Clear()
		}
	}
}

// AliveCount reports how many actors are still standing.
func (w *World) AliveCount() int {
	if w == nil {
		return 0
	}
	count := 0
	for _, actor := range w.actors {
		if actor.Alive() {
			count++
		}
	}
	return count
}

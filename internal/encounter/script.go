package encounter

import (
	"fmt"
	"sort"

	"rift-and-ruin/server/combat/tags"
)

// Spawn describes one actor a script places in the arena.
type Spawn struct {
	ID          string
	Name        string
	Category    string
	X, Y        float64
	Health      float64
	MoveSpeed   float64
	Resistances map[string]float64
}

// Wave is a timed group of spawns.
type Wave struct {
	Number int
	At     float64
	Spawns []Spawn
}

// Cast is a timed scripted effect invocation.
type Cast struct {
	At       float64
	CasterID string
	Tags     []string
	Params   tags.Params
	TargetID string
}

// Script is a compiled encounter: the initial spawns plus the timed
// waves and casts that drive it. Immutable after loading.
type Script struct {
	Name        string
	Description string
	Spawns      []Spawn
	Waves       []Wave
	Casts       []Cast
}

func (s *Script) validate() error {
	if s.Name == "" {
		return fmt.Errorf("encounter: script has no name")
	}
	declared := make(map[string]bool)
	for i, spawn := range s.Spawns {
		if spawn.ID == "" {
			return fmt.Errorf("encounter %s: spawn %d has no id", s.Name, i)
		}
		if declared[spawn.ID] {
			return fmt.Errorf("encounter %s: duplicate spawn id %q", s.Name, spawn.ID)
		}
		declared[spawn.ID] = true
	}
	for _, wave := range s.Waves {
		if wave.At < 0 {
			return fmt.Errorf("encounter %s: wave %d at negative time", s.Name, wave.Number)
		}
		for i, spawn := range wave.Spawns {
			if spawn.ID == "" {
				return fmt.Errorf("encounter %s: wave %d spawn %d has no id", s.Name, wave.Number, i)
			}
			if declared[spawn.ID] {
				return fmt.Errorf("encounter %s: duplicate spawn id %q", s.Name, spawn.ID)
			}
			declared[spawn.ID] = true
		}
	}
	for i, cast := range s.Casts {
		if cast.At < 0 {
			return fmt.Errorf("encounter %s: cast %d at negative time", s.Name, i)
		}
		if cast.CasterID == "" {
			return fmt.Errorf("encounter %s: cast %d has no caster", s.Name, i)
		}
		if !declared[cast.CasterID] {
			return fmt.Errorf("encounter %s: cast %d caster %q is not spawned by the script", s.Name, i, cast.CasterID)
		}
		if len(cast.Tags) == 0 {
			return fmt.Errorf("encounter %s: cast %d has no tags", s.Name, i)
		}
	}
	return nil
}

// normalize orders waves and casts by their trigger time so the runner
// can consume them with a moving index.
func (s *Script) normalize() {
	sort.SliceStable(s.Waves, func(i, j int) bool {
		if s.Waves[i].At != s.Waves[j].At {
			return s.Waves[i].At < s.Waves[j].At
		}
		return s.Waves[i].Number < s.Waves[j].Number
	})
	sort.SliceStable(s.Casts, func(i, j int) bool {
		return s.Casts[i].At < s.Casts[j].At
	})
}

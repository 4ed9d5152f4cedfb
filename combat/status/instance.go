package status

import "rift-and-ruin/server/combat/tags"

// State tracks an instance through its lifecycle. Active instances count
// down; everything else is terminal.
type State uint8

const (
	StateActive State = iota
	StateExpired
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateRemoved:
		return "removed"
	}
	return "unknown"
}

// Instance is one live status effect on one entity. All timing is in
// seconds and advanced by Manager.Update.
type Instance struct {
	Tag      string
	SourceID string

	Stacks    int
	Duration  float64
	Remaining float64
	TickEvery float64

	// Pool is the absorb budget for shield-like effects; unused otherwise.
	Pool float64

	// Params is the merged parameter view the behavior reads its numbers
	// from: tag defaults under the application parameters.
	Params tags.Params

	state     State
	untilTick float64
}

// State reports the lifecycle state.
func (i *Instance) State() State {
	if i == nil {
		return StateRemoved
	}
	return i.state
}

// Active reports whether the instance still counts down.
func (i *Instance) Active() bool {
	return i != nil && i.state == StateActive
}

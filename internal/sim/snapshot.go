package sim

// StatusView is the broadcast form of one active status effect.
type StatusView struct {
	Tag       string  `json:"tag"`
	Remaining float64 `json:"remaining"`
	Stacks    int     `json:"stacks"`
}

// ActorView is the broadcast form of one actor.
type ActorView struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Category  string       `json:"category"`
	X         float64      `json:"x"`
	Y         float64      `json:"y"`
	Health    float64      `json:"health"`
	MaxHealth float64      `json:"maxHealth"`
	Alive     bool         `json:"alive"`
	Statuses  []StatusView `json:"statuses,omitempty"`
}

// Snapshot is an immutable copy of the arena at the end of a tick, safe
// to hand to other goroutines.
type Snapshot struct {
	Tick   uint64      `json:"tick"`
	Actors []ActorView `json:"actors"`
}

// Actor finds a view by ID.
func (s Snapshot) Actor(id string) (ActorView, bool) {
	for _, actor := range s.Actors {
		if actor.ID == id {
			return actor, true
		}
	}
	return ActorView{}, false
}

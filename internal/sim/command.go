package sim

import (
	"time"

	"rift-and-ruin/server/combat/tags"
)

// CommandType enumerates the supported simulation commands.
type CommandType string

const (
	CommandJoin  CommandType = "Join"
	CommandLeave CommandType = "Leave"
	CommandMove  CommandType = "Move"
	CommandCast  CommandType = "Cast"
)

// JoinCommand spawns an actor for a newly connected client.
type JoinCommand struct {
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// MoveCommand carries the desired movement direction.
type MoveCommand struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// CastCommand triggers a tag-driven effect. TargetID may be empty, in
// which case the engine picks the nearest live candidate as the primary.
type CastCommand struct {
	Tags     []string    `json:"tags"`
	Params   tags.Params `json:"params,omitempty"`
	TargetID string      `json:"targetId,omitempty"`
}

// Command represents an intent captured for processing on the next tick.
type Command struct {
	OriginTick uint64       `json:"originTick"`
	ActorID    string       `json:"actorId"`
	Type       CommandType  `json:"type"`
	IssuedAt   time.Time    `json:"issuedAt"`
	Join       *JoinCommand `json:"join,omitempty"`
	Move       *MoveCommand `json:"move,omitempty"`
	Cast       *CastCommand `json:"cast,omitempty"`
}

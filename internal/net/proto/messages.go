// Package proto defines the JSON frames exchanged with arena clients.
package proto

import (
	"rift-and-ruin/server/combat/tags"
	"rift-and-ruin/server/internal/sim"
	"rift-and-ruin/server/logging"
)

// ProtocolVersion stamps every server frame so clients can detect drift.
const ProtocolVersion = 1

// ClientMessage is the union of every inbound frame. Type selects which
// fields are meaningful.
type ClientMessage struct {
	Ver      int            `json:"ver,omitempty"`
	Type     string         `json:"type"`
	Seq      uint64         `json:"seq,omitempty"`
	DX       float64        `json:"dx,omitempty"`
	DY       float64        `json:"dy,omitempty"`
	Tags     []string       `json:"tags,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
	TargetID string         `json:"target,omitempty"`
	SentAt   int64          `json:"sentAt,omitempty"`
}

// JoinResponse answers the HTTP join handshake.
type JoinResponse struct {
	Ver      int          `json:"ver"`
	ID       string       `json:"id"`
	TickRate int          `json:"tickRate"`
	Snapshot sim.Snapshot `json:"snapshot"`
}

// StateMessage is the per-tick broadcast: the arena snapshot plus the
// combat events since the previous frame.
type StateMessage struct {
	Ver        int             `json:"ver"`
	Type       string          `json:"type"`
	Tick       uint64          `json:"tick"`
	ServerTime int64           `json:"serverTime"`
	Actors     []sim.ActorView `json:"actors"`
	Events     []logging.Event `json:"events,omitempty"`
}

// CommandAckMessage confirms a sequenced client command was staged.
type CommandAckMessage struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
	Tick uint64 `json:"tick,omitempty"`
}

// CommandRejectMessage reports why a sequenced command was refused.
type CommandRejectMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Seq    uint64 `json:"seq"`
	Reason string `json:"reason"`
	Retry  bool   `json:"retry,omitempty"`
}

// HeartbeatMessage acknowledges a client heartbeat with timing data.
type HeartbeatMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

// DiagnosticsEntry reports connection health for one actor.
type DiagnosticsEntry struct {
	ID            string `json:"id"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
	RTTMillis     int64  `json:"rttMillis"`
}

// ClientCommand converts an inbound frame into a simulation command.
// Heartbeats and unknown types return false; the caller stamps actor,
// tick and time before enqueueing.
func ClientCommand(msg ClientMessage) (sim.Command, bool) {
	switch msg.Type {
	case "input":
		return sim.Command{
			Type: sim.CommandMove,
			Move: &sim.MoveCommand{DX: msg.DX, DY: msg.DY},
		}, true
	case "cast":
		if len(msg.Tags) == 0 {
			return sim.Command{}, false
		}
		cast := &sim.CastCommand{
			Tags:     append([]string(nil), msg.Tags...),
			TargetID: msg.TargetID,
		}
		if len(msg.Params) > 0 {
			cast.Params = tags.Params(msg.Params).Clone()
		}
		return sim.Command{Type: sim.CommandCast, Cast: cast}, true
	default:
		return sim.Command{}, false
	}
}

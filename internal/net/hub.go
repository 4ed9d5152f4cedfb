// Package net exposes the arena over HTTP and websockets: a join
// handshake, per-client command ingestion feeding the simulation queue,
// and a per-tick state broadcast carrying the combat event feed.
package net

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"rift-and-ruin/server/internal/net/proto"
	"rift-and-ruin/server/internal/sim"
	"rift-and-ruin/server/logging"
	lognet "rift-and-ruin/server/logging/network"
)

const (
	defaultWriteTimeout     = 10 * time.Second
	defaultSendQueueSize    = 32
	defaultHeartbeatTimeout = 6 * time.Second
)

const (
	// RejectUnknownActor indicates the sender has not joined the arena.
	RejectUnknownActor = "unknown_actor"
	// RejectInvalidMessage indicates the frame did not map to a command.
	RejectInvalidMessage = "invalid_message"
)

// HubConfig tunes connection handling and spawn placement.
type HubConfig struct {
	TickRate         int
	WriteTimeout     time.Duration
	HeartbeatTimeout time.Duration
	SendQueueSize    int
	SpawnX           float64
	SpawnY           float64
}

// DefaultHubConfig mirrors the loop defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		TickRate:         15,
		WriteTimeout:     defaultWriteTimeout,
		HeartbeatTimeout: defaultHeartbeatTimeout,
		SendQueueSize:    defaultSendQueueSize,
		SpawnX:           50,
		SpawnY:           50,
	}
}

func (c HubConfig) normalized() HubConfig {
	if c.TickRate <= 0 {
		c.TickRate = 15
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = defaultHeartbeatTimeout
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = defaultSendQueueSize
	}
	return c
}

type presence struct {
	lastHeartbeat time.Time
	lastRTT       time.Duration
}

// Hub tracks connected clients and relays between them and the
// simulation loop. Commands flow in through the loop's queue; snapshots
// and events flow out through per-subscriber send queues.
type Hub struct {
	config    HubConfig
	logger    *log.Logger
	clock     logging.Clock
	publisher logging.Publisher
	feed      *Feed
	loop      *sim.Loop

	mu          sync.Mutex
	subscribers map[string]*subscriber
	presence    map[string]*presence
	latest      sim.Snapshot

	nextID atomic.Uint64
}

// NewHub creates a hub; Bind attaches the simulation loop before use.
func NewHub(cfg HubConfig, feed *Feed) *Hub {
	return &Hub{
		config:      cfg.normalized(),
		logger:      log.Default(),
		clock:       logging.SystemClock{},
		feed:        feed,
		subscribers: make(map[string]*subscriber),
		presence:    make(map[string]*presence),
	}
}

// Bind attaches the simulation loop and adopts its injected
// dependencies. Call once during startup, before serving traffic.
func (h *Hub) Bind(loop *sim.Loop) {
	if h == nil || loop == nil {
		return
	}
	h.loop = loop
	deps := loop.Deps()
	if deps.Logger != nil {
		h.logger = deps.Logger
	}
	if deps.Clock != nil {
		h.clock = deps.Clock
	}
	h.publisher = deps.Publisher
}

// Join allocates an identity, stages the spawn command and returns the
// handshake payload. False means the command queue refused the join.
func (h *Hub) Join(name string) (proto.JoinResponse, bool) {
	if h == nil || h.loop == nil {
		return proto.JoinResponse{}, false
	}
	id := fmt.Sprintf("player-%d", h.nextID.Add(1))
	if name == "" {
		name = id
	}
	cmd := sim.Command{
		ActorID:  id,
		Type:     sim.CommandJoin,
		IssuedAt: h.clock.Now(),
		Join: &sim.JoinCommand{
			Name:     name,
			Category: "player",
			X:        h.config.SpawnX,
			Y:        h.config.SpawnY,
		},
	}
	if ok, reason := h.loop.Enqueue(cmd); !ok {
		h.logger.Printf("join refused for %s: %s", id, reason)
		return proto.JoinResponse{}, false
	}

	h.mu.Lock()
	h.presence[id] = &presence{lastHeartbeat: h.clock.Now()}
	snapshot := h.latest
	h.mu.Unlock()

	return proto.JoinResponse{
		Ver:      proto.ProtocolVersion,
		ID:       id,
		TickRate: h.config.TickRate,
		Snapshot: snapshot,
	}, true
}

// Subscribe attaches a connection to a joined actor, replacing any
// previous connection. Returns the snapshot for the welcome frame.
func (h *Hub) Subscribe(actorID string, conn subscriberConn) (*subscriber, sim.Snapshot, bool) {
	if h == nil || conn == nil {
		return nil, sim.Snapshot{}, false
	}

	h.mu.Lock()
	state, known := h.presence[actorID]
	if !known {
		h.mu.Unlock()
		return nil, sim.Snapshot{}, false
	}
	state.lastHeartbeat = h.clock.Now()

	if existing, ok := h.subscribers[actorID]; ok {
		existing.Close()
	}
	sub := newSubscriber(conn, h.clock, h.config.WriteTimeout, h.config.SendQueueSize, func(queued int) {
		lognet.BroadcastDropped(context.Background(), h.publisher, h.latestTick(),
			logging.EntityRef{ID: actorID, Kind: logging.EntityKindPlayer},
			lognet.BroadcastDroppedPayload{Queued: queued}, nil)
	})
	h.subscribers[actorID] = sub
	snapshot := h.latest
	h.mu.Unlock()

	lognet.ClientConnected(context.Background(), h.publisher, snapshot.Tick,
		logging.EntityRef{ID: actorID, Kind: logging.EntityKindPlayer},
		lognet.ClientPayload{}, nil)
	return sub, snapshot, true
}

// Disconnect drops an actor's connection and presence and stages the
// despawn. Reason feeds the disconnect event.
func (h *Hub) Disconnect(actorID, reason string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	sub, hadSub := h.subscribers[actorID]
	if hadSub {
		delete(h.subscribers, actorID)
	}
	_, hadPresence := h.presence[actorID]
	if hadPresence {
		delete(h.presence, actorID)
	}
	tick := h.latest.Tick
	h.mu.Unlock()

	if hadSub {
		sub.Close()
	}
	if !hadPresence {
		return
	}
	if h.loop != nil {
		h.loop.Enqueue(sim.Command{ActorID: actorID, Type: sim.CommandLeave, IssuedAt: h.clock.Now()})
	}
	lognet.ClientDisconnected(context.Background(), h.publisher, tick,
		logging.EntityRef{ID: actorID, Kind: logging.EntityKindPlayer},
		lognet.ClientPayload{Reason: reason}, nil)
}

// StageCommand validates an inbound frame, stamps it and enqueues it.
// The reason string is non-empty when ok is false.
func (h *Hub) StageCommand(actorID string, msg proto.ClientMessage) (sim.Command, bool, string) {
	var zero sim.Command
	if h == nil || h.loop == nil {
		return zero, false, sim.CommandRejectQueueFull
	}

	cmd, ok := proto.ClientCommand(msg)
	if !ok {
		h.rejectCommand(actorID, msg.Type, RejectInvalidMessage)
		return zero, false, RejectInvalidMessage
	}

	h.mu.Lock()
	_, known := h.presence[actorID]
	tick := h.latest.Tick
	h.mu.Unlock()
	if !known {
		h.rejectCommand(actorID, msg.Type, RejectUnknownActor)
		return zero, false, RejectUnknownActor
	}

	cmd.ActorID = actorID
	cmd.OriginTick = tick
	cmd.IssuedAt = h.clock.Now()

	if ok, reason := h.loop.Enqueue(cmd); !ok {
		return zero, false, reason
	}
	return cmd, true, ""
}

// Heartbeat records liveness and computes the round trip when the
// client echoed a believable send time.
func (h *Hub) Heartbeat(actorID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	if h == nil {
		return 0, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.presence[actorID]
	if !ok {
		return 0, false
	}
	state.lastHeartbeat = receivedAt

	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			state.lastRTT = rtt
		}
	}
	return state.lastRTT, true
}

// HandleStep is the loop's AfterStep hook: cache the snapshot, expire
// silent clients and broadcast the frame with the drained event feed.
func (h *Hub) HandleStep(result sim.LoopStepResult) {
	if h == nil {
		return
	}
	now := h.clock.Now()

	h.mu.Lock()
	h.latest = result.Snapshot
	var stale []string
	for id, state := range h.presence {
		if now.Sub(state.lastHeartbeat) > h.config.HeartbeatTimeout {
			stale = append(stale, id)
		}
	}
	h.mu.Unlock()

	for _, id := range stale {
		h.logger.Printf("disconnecting %s due to heartbeat timeout", id)
		h.Disconnect(id, "heartbeat_timeout")
	}

	h.Broadcast(result.Snapshot)
}

// Broadcast sends a state frame to every subscriber. Events collected
// since the previous frame ride along.
func (h *Hub) Broadcast(snapshot sim.Snapshot) {
	if h == nil {
		return
	}
	var events []logging.Event
	if h.feed != nil {
		events = h.feed.Drain()
	}
	msg := proto.StateMessage{
		Ver:        proto.ProtocolVersion,
		Type:       "state",
		Tick:       snapshot.Tick,
		ServerTime: h.clock.Now().UnixMilli(),
		Actors:     snapshot.Actors,
		Events:     events,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("failed to marshal state frame: %v", err)
		return
	}

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if sub.Closed() {
			h.Disconnect(id, "write_failed")
			continue
		}
		sub.Send(data)
	}
}

// Snapshot returns the most recent completed-tick snapshot.
func (h *Hub) Snapshot() sim.Snapshot {
	if h == nil {
		return sim.Snapshot{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// SubscriberCount reports attached connections.
func (h *Hub) SubscriberCount() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// DiagnosticsSnapshot exposes heartbeat data for the diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() []proto.DiagnosticsEntry {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := make([]proto.DiagnosticsEntry, 0, len(h.presence))
	for id, state := range h.presence {
		entries = append(entries, proto.DiagnosticsEntry{
			ID:            id,
			LastHeartbeat: state.lastHeartbeat.UnixMilli(),
			RTTMillis:     state.lastRTT.Milliseconds(),
		})
	}
	return entries
}

func (h *Hub) latestTick() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest.Tick
}

func (h *Hub) rejectCommand(actorID, msgType, reason string) {
	lognet.CommandRejected(context.Background(), h.publisher, h.latestTick(),
		logging.EntityRef{ID: actorID, Kind: logging.EntityKindPlayer},
		lognet.CommandRejectedPayload{Command: msgType, Reason: reason}, nil)
}

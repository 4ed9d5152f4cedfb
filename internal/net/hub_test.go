package net

import (
	"encoding/json"
	"testing"
	"time"

	"rift-and-ruin/server/combat/tags"
	"rift-and-ruin/server/internal/net/proto"
	"rift-and-ruin/server/internal/sim"
	"rift-and-ruin/server/internal/world"
	"rift-and-ruin/server/logging"
)

type hubFixture struct {
	hub  *Hub
	loop *sim.Loop
	feed *Feed
	now  *time.Time
}

func newHubFixture(t *testing.T, loopCfg sim.LoopConfig) *hubFixture {
	t.Helper()
	base := time.Unix(1_700_000_000, 0).UTC()
	now := &base
	clock := logging.ClockFunc(func() time.Time { return *now })

	reg := tags.MustNewRegistry(tags.Default())
	engine, err := sim.NewEngine(reg, world.Config{Width: 100, Height: 100, Seed: "test"}, sim.Deps{Clock: clock})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	loop := sim.NewLoop(engine, loopCfg, sim.LoopHooks{})

	feed := NewFeed(16)
	hub := NewHub(DefaultHubConfig(), feed)
	hub.Bind(loop)
	return &hubFixture{hub: hub, loop: loop, feed: feed, now: now}
}

// step drains the queue through one tick and hands the result to the hub.
func (f *hubFixture) step() sim.LoopStepResult {
	result := f.loop.Advance(sim.LoopTickContext{Now: *f.now, Delta: 1.0 / 15})
	f.hub.HandleStep(result)
	return result
}

func TestJoin_SpawnsPlayerThroughQueue(t *testing.T) {
	f := newHubFixture(t, sim.LoopConfig{CommandCapacity: 8, PerActorLimit: 4})

	join, ok := f.hub.Join("Ana")
	if !ok {
		t.Fatal("join refused")
	}
	if join.ID != "player-1" || join.Ver != proto.ProtocolVersion {
		t.Fatalf("unexpected join response %+v", join)
	}
	if f.loop.Pending() != 1 {
		t.Fatalf("pending = %d, want the staged join", f.loop.Pending())
	}

	f.step()

	actor, found := f.hub.Snapshot().Actor("player-1")
	if !found {
		t.Fatal("player missing from snapshot after tick")
	}
	if actor.Name != "Ana" || actor.Category != "player" {
		t.Fatalf("unexpected actor view %+v", actor)
	}
	if actor.X != 50 || actor.Y != 50 {
		t.Fatalf("spawned at (%v, %v), want arena center", actor.X, actor.Y)
	}

	second, _ := f.hub.Join("")
	if second.ID != "player-2" {
		t.Fatalf("second id = %q, want player-2", second.ID)
	}
}

func TestStageCommand_RequiresJoin(t *testing.T) {
	f := newHubFixture(t, sim.LoopConfig{CommandCapacity: 8, PerActorLimit: 4})

	_, ok, reason := f.hub.StageCommand("ghost", proto.ClientMessage{Type: "input", DX: 1})
	if ok || reason != RejectUnknownActor {
		t.Fatalf("ok=%v reason=%q, want unknown actor rejection", ok, reason)
	}
}

func TestStageCommand_RejectsUnmappableFrames(t *testing.T) {
	f := newHubFixture(t, sim.LoopConfig{CommandCapacity: 8, PerActorLimit: 4})
	f.hub.Join("Ana")

	_, ok, reason := f.hub.StageCommand("player-1", proto.ClientMessage{Type: "dance"})
	if ok || reason != RejectInvalidMessage {
		t.Fatalf("ok=%v reason=%q, want invalid message", ok, reason)
	}
	_, ok, reason = f.hub.StageCommand("player-1", proto.ClientMessage{Type: "cast"})
	if ok || reason != RejectInvalidMessage {
		t.Fatalf("cast without tags: ok=%v reason=%q", ok, reason)
	}
}

func TestStageCommand_ThrottlesPerActor(t *testing.T) {
	f := newHubFixture(t, sim.LoopConfig{CommandCapacity: 8, PerActorLimit: 2})
	f.hub.Join("Ana")
	f.step()

	input := proto.ClientMessage{Type: "input", DX: 1}
	if _, ok, _ := f.hub.StageCommand("player-1", input); !ok {
		t.Fatal("first command should pass")
	}
	if _, ok, _ := f.hub.StageCommand("player-1", input); !ok {
		t.Fatal("second command should pass")
	}
	_, ok, reason := f.hub.StageCommand("player-1", input)
	if ok || reason != sim.CommandRejectQueueLimit {
		t.Fatalf("ok=%v reason=%q, want per-actor throttle", ok, reason)
	}

	f.step()
	if _, ok, _ := f.hub.StageCommand("player-1", input); !ok {
		t.Fatal("throttle should reset after the tick drains the queue")
	}
}

func TestStageCommand_ReportsQueueFull(t *testing.T) {
	f := newHubFixture(t, sim.LoopConfig{CommandCapacity: 1, PerActorLimit: 8})
	f.hub.Join("Ana")

	_, ok, reason := f.hub.StageCommand("player-1", proto.ClientMessage{Type: "input", DX: 1})
	if ok || reason != sim.CommandRejectQueueFull {
		t.Fatalf("ok=%v reason=%q, want saturated queue", ok, reason)
	}
}

func TestStageCommand_CastReachesTarget(t *testing.T) {
	f := newHubFixture(t, sim.LoopConfig{CommandCapacity: 8, PerActorLimit: 4})
	f.hub.Join("Ana")
	f.step()

	f.loop.Enqueue(sim.Command{
		ActorID: "goblin",
		Type:    sim.CommandJoin,
		Join:    &sim.JoinCommand{Name: "Goblin", Category: "enemy", X: 52, Y: 50},
	})
	f.step()

	msg := proto.ClientMessage{
		Type:     "cast",
		Tags:     []string{"arcane"},
		Params:   map[string]any{"base_damage": 10.0},
		TargetID: "goblin",
	}
	if _, ok, reason := f.hub.StageCommand("player-1", msg); !ok {
		t.Fatalf("cast rejected: %s", reason)
	}
	f.step()

	goblin, _ := f.hub.Snapshot().Actor("goblin")
	if goblin.Health != 90 {
		t.Fatalf("goblin health = %v, want 90 after the bolt", goblin.Health)
	}
}

func TestHeartbeat_TracksRoundTrip(t *testing.T) {
	f := newHubFixture(t, sim.LoopConfig{CommandCapacity: 8, PerActorLimit: 4})
	f.hub.Join("Ana")

	received := time.Unix(1_700_000_100, 0).UTC()
	sent := received.Add(-50 * time.Millisecond).UnixMilli()
	rtt, ok := f.hub.Heartbeat("player-1", received, sent)
	if !ok || rtt != 50*time.Millisecond {
		t.Fatalf("rtt=%v ok=%v, want 50ms", rtt, ok)
	}

	if _, ok := f.hub.Heartbeat("ghost", received, sent); ok {
		t.Fatal("heartbeat for unknown actor should fail")
	}
}

func TestHandleStep_ExpiresSilentClients(t *testing.T) {
	f := newHubFixture(t, sim.LoopConfig{CommandCapacity: 8, PerActorLimit: 4})
	f.hub.Join("Ana")
	f.step()

	*f.now = f.now.Add(10 * time.Second)
	f.step()

	if entries := f.hub.DiagnosticsSnapshot(); len(entries) != 0 {
		t.Fatalf("expected presence cleared, got %+v", entries)
	}
	if f.loop.Pending() != 1 {
		t.Fatalf("pending = %d, want the staged leave", f.loop.Pending())
	}
	f.step()
	if _, found := f.hub.Snapshot().Actor("player-1"); found {
		t.Fatal("actor should despawn after the timeout leave")
	}
}

func TestSubscribe_RequiresJoin(t *testing.T) {
	f := newHubFixture(t, sim.LoopConfig{CommandCapacity: 8, PerActorLimit: 4})

	if _, _, ok := f.hub.Subscribe("nobody", &recordingConn{}); ok {
		t.Fatal("subscribe should fail before join")
	}
}

func TestSubscribe_ReplacesExistingConnection(t *testing.T) {
	f := newHubFixture(t, sim.LoopConfig{CommandCapacity: 8, PerActorLimit: 4})
	f.hub.Join("Ana")

	first := &recordingConn{}
	sub1, _, ok := f.hub.Subscribe("player-1", first)
	if !ok {
		t.Fatal("first subscribe failed")
	}
	second := &recordingConn{}
	if _, _, ok := f.hub.Subscribe("player-1", second); !ok {
		t.Fatal("second subscribe failed")
	}

	if !sub1.Closed() {
		t.Fatal("first subscriber should be closed on replacement")
	}
	if f.hub.SubscriberCount() != 1 {
		t.Fatalf("subscriber count = %d, want 1", f.hub.SubscriberCount())
	}
}

func TestBroadcast_DeliversSnapshotAndDrainsFeed(t *testing.T) {
	f := newHubFixture(t, sim.LoopConfig{CommandCapacity: 8, PerActorLimit: 4})
	f.hub.Join("Ana")
	conn := &recordingConn{}
	f.hub.Subscribe("player-1", conn)

	f.feed.Write(logging.Event{Type: "combat.damage", Tick: 7})
	f.hub.Broadcast(sim.Snapshot{Tick: 7, Actors: []sim.ActorView{{ID: "player-1", Health: 100}}})
	conn.waitWrites(t, 1)

	writes, _, _ := conn.snapshot()
	var frame proto.StateMessage
	if err := json.Unmarshal(writes[0], &frame); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if frame.Type != "state" || frame.Tick != 7 || frame.Ver != proto.ProtocolVersion {
		t.Fatalf("unexpected frame header %+v", frame)
	}
	if len(frame.Actors) != 1 || frame.Actors[0].ID != "player-1" {
		t.Fatalf("unexpected actors %+v", frame.Actors)
	}
	if len(frame.Events) != 1 || frame.Events[0].Type != "combat.damage" {
		t.Fatalf("expected the fed event to ride along, got %+v", frame.Events)
	}

	f.hub.Broadcast(sim.Snapshot{Tick: 8})
	conn.waitWrites(t, 2)
	writes, _, _ = conn.snapshot()
	frame = proto.StateMessage{}
	if err := json.Unmarshal(writes[1], &frame); err != nil {
		t.Fatalf("unmarshal second frame: %v", err)
	}
	if len(frame.Events) != 0 {
		t.Fatalf("feed should drain once, got %+v", frame.Events)
	}
}

func TestDisconnect_RemovesPresenceAndStagesLeave(t *testing.T) {
	f := newHubFixture(t, sim.LoopConfig{CommandCapacity: 8, PerActorLimit: 4})
	f.hub.Join("Ana")
	f.step()
	conn := &recordingConn{}
	f.hub.Subscribe("player-1", conn)

	f.hub.Disconnect("player-1", "read_failed")

	if f.hub.SubscriberCount() != 0 {
		t.Fatalf("subscriber count = %d, want 0", f.hub.SubscriberCount())
	}
	if len(f.hub.DiagnosticsSnapshot()) != 0 {
		t.Fatal("presence should be cleared")
	}
	if f.loop.Pending() != 1 {
		t.Fatalf("pending = %d, want the staged leave", f.loop.Pending())
	}

	f.hub.Disconnect("player-1", "read_failed")
	if f.loop.Pending() != 1 {
		t.Fatal("second disconnect should be a no-op")
	}
}

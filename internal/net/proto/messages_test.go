package proto

import (
	"testing"

	"rift-and-ruin/server/internal/sim"
)

func TestClientCommand_MapsInput(t *testing.T) {
	cmd, ok := ClientCommand(ClientMessage{Type: "input", DX: 1, DY: -0.5})
	if !ok {
		t.Fatal("input frame should map")
	}
	if cmd.Type != sim.CommandMove || cmd.Move == nil {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if cmd.Move.DX != 1 || cmd.Move.DY != -0.5 {
		t.Fatalf("move intent = (%v, %v)", cmd.Move.DX, cmd.Move.DY)
	}
}

func TestClientCommand_MapsCast(t *testing.T) {
	msg := ClientMessage{
		Type:     "cast",
		Tags:     []string{"fire", "chain"},
		Params:   map[string]any{"base_damage": 30.0},
		TargetID: "goblin-2",
	}
	cmd, ok := ClientCommand(msg)
	if !ok {
		t.Fatal("cast frame should map")
	}
	if cmd.Type != sim.CommandCast || cmd.Cast == nil {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if len(cmd.Cast.Tags) != 2 || cmd.Cast.Tags[0] != "fire" {
		t.Fatalf("tags = %v", cmd.Cast.Tags)
	}
	if cmd.Cast.TargetID != "goblin-2" {
		t.Fatalf("target = %q", cmd.Cast.TargetID)
	}

	msg.Tags[0] = "ice"
	msg.Params["base_damage"] = 999.0
	if cmd.Cast.Tags[0] != "fire" {
		t.Fatal("command shares the caller's tag slice")
	}
	if got, _ := cmd.Cast.Params.Float("base_damage"); got != 30 {
		t.Fatalf("command shares the caller's params map: %v", got)
	}
}

func TestClientCommand_RejectsCastWithoutTags(t *testing.T) {
	if _, ok := ClientCommand(ClientMessage{Type: "cast", TargetID: "goblin"}); ok {
		t.Fatal("tagless cast should not map")
	}
}

func TestClientCommand_IgnoresNonCommandFrames(t *testing.T) {
	for _, typ := range []string{"heartbeat", "hello", ""} {
		if _, ok := ClientCommand(ClientMessage{Type: typ, DX: 1}); ok {
			t.Fatalf("%q frame should not map to a command", typ)
		}
	}
}

package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rift-and-ruin/server/logging"
)

func sampleEvent(tick uint64, typ logging.EventType) logging.Event {
	return logging.Event{
		Type:     typ,
		Tick:     tick,
		Time:     time.Unix(1_700_000_000, 0).UTC(),
		Actor:    logging.EntityRef{ID: "warden", Kind: logging.EntityKindTurret},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  map[string]any{"amount": 12.5},
	}
}

func TestMemorySink_CopiesOnWriteAndRead(t *testing.T) {
	sink := NewMemorySink()
	event := sampleEvent(3, "combat.damage")
	event.Extra = map[string]any{"reason": "test"}
	if err := sink.Write(event); err != nil {
		t.Fatalf("write: %v", err)
	}
	event.Extra["reason"] = "mutated"

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Extra["reason"] != "test" {
		t.Fatalf("sink shares the caller's extra map: %v", events[0].Extra)
	}
	events[0].Tick = 99
	if sink.Events()[0].Tick != 3 {
		t.Fatal("returned slice should not alias the capture")
	}
}

func TestMemorySink_FiltersByType(t *testing.T) {
	sink := NewMemorySink()
	sink.Write(sampleEvent(1, "combat.damage"))
	sink.Write(sampleEvent(2, "combat.heal"))
	sink.Write(sampleEvent(3, "combat.damage"))

	damage := sink.EventsOfType("combat.damage")
	if len(damage) != 2 || damage[0].Tick != 1 || damage[1].Tick != 3 {
		t.Fatalf("unexpected filter result %+v", damage)
	}

	sink.Reset()
	if len(sink.Events()) != 0 {
		t.Fatal("reset should clear the capture")
	}
}

func TestConsoleSink_FormatsEventLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, logging.ConsoleConfig{})

	event := sampleEvent(12, "combat.damage")
	event.Targets = []logging.EntityRef{{ID: "goblin-1", Kind: logging.EntityKindNPC}}
	event.InvocationID = "inv-9"
	if err := sink.Write(event); err != nil {
		t.Fatalf("write: %v", err)
	}

	line := buf.String()
	for _, want := range []string{
		"[combat.damage]",
		"tick=12",
		"actor=turret:warden",
		"severity=info",
		"targets=npc:goblin-1",
		"invocation=inv-9",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
}

func TestJSONSink_WritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSON(&buf, 0)

	event := sampleEvent(7, "combat.damage")
	event.InvocationID = "inv-1"
	if err := sink.Write(event); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sink.Write(sampleEvent(8, "combat.heal")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal first line: %v", err)
	}
	if first["type"] != "combat.damage" || first["severity"] != "info" {
		t.Fatalf("unexpected first line %v", first)
	}
	if first["invocationId"] != "inv-1" {
		t.Fatalf("invocation id missing: %v", first)
	}
	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("unmarshal second line: %v", err)
	}
	if _, present := second["invocationId"]; present {
		t.Fatal("events without an invocation should omit the field")
	}
}

func TestJSONSink_CloseFlushesBufferedEvents(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSON(&buf, time.Hour)

	if err := sink.Write(sampleEvent(1, "combat.damage")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("event reached the writer before a flush: %q", buf.String())
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !strings.Contains(buf.String(), "combat.damage") {
		t.Fatalf("close did not flush: %q", buf.String())
	}
}

func TestJournal_RequiresPath(t *testing.T) {
	if _, err := NewJournal("  ", logging.JournalConfig{}); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestJournal_BatchesAndFlushesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	journal, err := NewJournal(path, logging.JournalConfig{MaxBatch: 2})
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}

	for tick := uint64(1); tick <= 3; tick++ {
		if err := journal.Write(sampleEvent(tick, "combat.damage")); err != nil {
			t.Fatalf("write %d: %v", tick, err)
		}
	}

	records, err := journal.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records before close = %d, want the flushed batch of 2", len(records))
	}

	if err := journal.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewJournal(path, logging.JournalConfig{MaxBatch: 2})
	if err != nil {
		t.Fatalf("reopen journal: %v", err)
	}
	t.Cleanup(func() {
		if err := reopened.Close(context.Background()); err != nil {
			t.Fatalf("close reopened: %v", err)
		}
	})

	records, err = reopened.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent after reopen: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3 once close flushed the remainder", len(records))
	}
	if records[0].Tick != 3 || records[2].Tick != 1 {
		t.Fatalf("unexpected order %+v", records)
	}
	if records[0].ActorID != "warden" || records[0].Severity != "info" {
		t.Fatalf("unexpected record %+v", records[0])
	}
	if records[0].Type != "combat.damage" || records[0].Category != "combat" {
		t.Fatalf("unexpected record %+v", records[0])
	}
}

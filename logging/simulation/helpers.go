package simulation

import (
	"context"

	"rift-and-ruin/server/logging"
)

const (
	// EventTickBudgetOverrun is emitted when the simulation loop exceeds the allotted tick budget.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
	// EventCommandDropped is emitted when an actor exceeds its per-tick command allowance.
	EventCommandDropped logging.EventType = "simulation.command_dropped"
	// EventEncounterStarted is emitted when a scripted encounter begins.
	EventEncounterStarted logging.EventType = "simulation.encounter_started"
)

// TickBudgetOverrunPayload captures timing details for a tick budget breach.
type TickBudgetOverrunPayload struct {
	DurationMillis int64   `json:"durationMillis"`
	BudgetMillis   int64   `json:"budgetMillis"`
	Ratio          float64 `json:"ratio"`
	Streak         uint64  `json:"streak"`
}

// CommandDroppedPayload names the throttled command.
type CommandDroppedPayload struct {
	Command string `json:"command"`
	Queued  int    `json:"queued"`
	Limit   int    `json:"limit"`
}

// EncounterStartedPayload describes the encounter entering play.
type EncounterStartedPayload struct {
	Encounter string `json:"encounter"`
	Waves     int    `json:"waves,omitempty"`
}

// TickBudgetOverrun publishes a warning when the simulation exceeds the configured tick budget.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetOverrunPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickBudgetOverrun,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
		Extra:    extra,
	})
}

// CommandDropped publishes a debug event when a command is throttled.
func CommandDropped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CommandDroppedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCommandDropped,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategorySimulation,
		Payload:  payload,
		Extra:    extra,
	})
}

// EncounterStarted publishes an info event when an encounter script begins.
func EncounterStarted(ctx context.Context, pub logging.Publisher, tick uint64, payload EncounterStartedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventEncounterStarted,
		Tick:     tick,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySimulation,
		Payload:  payload,
		Extra:    extra,
	})
}

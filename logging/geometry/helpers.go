package geometry

import (
	"context"

	"rift-and-ruin/server/logging"
)

const (
	// EventTargetsSelected is emitted after a geometry query finishes.
	EventTargetsSelected logging.EventType = "geometry.targets_selected"
)

// TargetsSelectedPayload summarises one geometry query.
type TargetsSelectedPayload struct {
	Geometry   string  `json:"geometry"`
	Context    string  `json:"context"`
	Candidates int     `json:"candidates"`
	Selected   int     `json:"selected"`
	Range      float64 `json:"range,omitempty"`
}

// TargetsSelected publishes a debug event describing a geometry query result.
func TargetsSelected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, invocationID string, payload TargetsSelectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:         EventTargetsSelected,
		Tick:         tick,
		Actor:        actor,
		Targets:      targets,
		Severity:     logging.SeverityDebug,
		Category:     logging.CategoryGeometry,
		Payload:      payload,
		Extra:        extra,
		InvocationID: invocationID,
	})
}

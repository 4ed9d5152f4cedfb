package parse

import (
	"context"

	"rift-and-ruin/server/logging"
)

const (
	// EventResolved is emitted when a tag list has been parsed into a behavior profile.
	EventResolved logging.EventType = "parse.resolved"
	// EventUnknownTag is emitted once per unrecognised tag in an invocation.
	EventUnknownTag logging.EventType = "parse.unknown_tag"
	// EventConflict is emitted when a lower-priority tag is discarded.
	EventConflict logging.EventType = "parse.conflict"
)

// ResolvedPayload summarises one parse pass.
type ResolvedPayload struct {
	Input      []string `json:"input"`
	Geometry   string   `json:"geometry"`
	Context    string   `json:"context"`
	AutoTags   []string `json:"autoTags,omitempty"`
	Dropped    []string `json:"dropped,omitempty"`
	Exclusives []string `json:"exclusives,omitempty"`
}

// UnknownTagPayload names the tag that did not resolve.
type UnknownTagPayload struct {
	Tag string `json:"tag"`
}

// ConflictPayload records one priority decision.
type ConflictPayload struct {
	Kept     string `json:"kept"`
	Dropped  string `json:"dropped"`
	Priority int    `json:"priority"`
}

// Resolved publishes a parse summary event.
func Resolved(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, invocationID string, payload ResolvedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:         EventResolved,
		Tick:         tick,
		Actor:        actor,
		Severity:     logging.SeverityDebug,
		Category:     logging.CategoryParse,
		Payload:      payload,
		Extra:        extra,
		InvocationID: invocationID,
	})
}

// UnknownTag publishes a warning for a tag absent from the registry.
func UnknownTag(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, invocationID string, payload UnknownTagPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:         EventUnknownTag,
		Tick:         tick,
		Actor:        actor,
		Severity:     logging.SeverityWarn,
		Category:     logging.CategoryParse,
		Payload:      payload,
		Extra:        extra,
		InvocationID: invocationID,
	})
}

// Conflict publishes a debug event for a dropped geometry tag.
func Conflict(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, invocationID string, payload ConflictPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:         EventConflict,
		Tick:         tick,
		Actor:        actor,
		Severity:     logging.SeverityDebug,
		Category:     logging.CategoryParse,
		Payload:      payload,
		Extra:        extra,
		InvocationID: invocationID,
	})
}

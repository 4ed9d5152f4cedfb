package network

import (
	"context"

	"rift-and-ruin/server/logging"
)

const (
	// EventClientConnected is emitted when a websocket client joins the arena.
	EventClientConnected logging.EventType = "network.client_connected"
	// EventClientDisconnected is emitted when a websocket client drops.
	EventClientDisconnected logging.EventType = "network.client_disconnected"
	// EventCommandRejected is emitted when an inbound message fails validation.
	EventCommandRejected logging.EventType = "network.command_rejected"
	// EventBroadcastDropped is emitted when a subscriber's send queue overflows.
	EventBroadcastDropped logging.EventType = "network.broadcast_dropped"
)

// ClientPayload identifies the remote endpoint.
type ClientPayload struct {
	RemoteAddr string `json:"remoteAddr,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// CommandRejectedPayload names the rejected message.
type CommandRejectedPayload struct {
	Command string `json:"command"`
	Reason  string `json:"reason"`
}

// ClientConnected publishes an info event for a new connection.
func ClientConnected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ClientPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventClientConnected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}

// ClientDisconnected publishes an info event for a dropped connection.
func ClientDisconnected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ClientPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventClientDisconnected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}

// CommandRejected publishes a warning for an invalid inbound message.
func CommandRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CommandRejectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCommandRejected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}

// BroadcastDroppedPayload records how deep the queue was when a frame fell.
type BroadcastDroppedPayload struct {
	Queued int `json:"queued"`
}

// BroadcastDropped publishes a warning when a slow subscriber misses a frame.
func BroadcastDropped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload BroadcastDroppedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventBroadcastDropped,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}

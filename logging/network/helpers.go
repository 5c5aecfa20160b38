package network

import (
	"context"

	"drift-and-delve/server/logging"
)

const (
	// EventClientConnected is emitted when a websocket client attaches.
	EventClientConnected logging.EventType = "network.client_connected"
	// EventClientDisconnected is emitted when a websocket client detaches.
	EventClientDisconnected logging.EventType = "network.client_disconnected"
	// EventCommandRejected is emitted when a client command fails validation.
	EventCommandRejected logging.EventType = "network.command_rejected"
)

// ClientConnectedPayload captures connection metadata.
type ClientConnectedPayload struct {
	RemoteAddr string `json:"remoteAddr,omitempty"`
}

// ClientDisconnectedPayload captures why a client left.
type ClientDisconnectedPayload struct {
	Reason string `json:"reason,omitempty"`
}

// CommandRejectedPayload captures the rejected command and the reason.
type CommandRejectedPayload struct {
	Command string `json:"command"`
	Reason  string `json:"reason"`
	Seq     uint64 `json:"seq,omitempty"`
}

// ClientConnected publishes a client attach event.
func ClientConnected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ClientConnectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventClientConnected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// ClientDisconnected publishes a client detach event.
func ClientDisconnected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ClientDisconnectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventClientDisconnected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// CommandRejected publishes a debug event for a rejected client command.
func CommandRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CommandRejectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventCommandRejected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

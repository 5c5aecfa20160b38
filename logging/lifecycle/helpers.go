package lifecycle

import (
	"context"

	"drift-and-delve/server/logging"
)

const (
	// EventAgentSpawned is emitted when an agent enters the world.
	EventAgentSpawned logging.EventType = "lifecycle.agent_spawned"
	// EventAgentRemoved is emitted when an agent leaves the world.
	EventAgentRemoved logging.EventType = "lifecycle.agent_removed"
	// EventWorldReset is emitted when the world is rebuilt from a new config.
	EventWorldReset logging.EventType = "lifecycle.world_reset"
)

// AgentSpawnedPayload captures spawn placement for a new agent.
type AgentSpawnedPayload struct {
	SpawnX float64 `json:"spawnX"`
	SpawnY float64 `json:"spawnY"`
}

// AgentRemovedPayload captures the reason an agent left.
type AgentRemovedPayload struct {
	Reason string `json:"reason"`
}

// WorldResetPayload captures the parameters of the rebuilt world.
type WorldResetPayload struct {
	Seed string `json:"seed"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

// AgentSpawned publishes an agent spawn event.
func AgentSpawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload AgentSpawnedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventAgentSpawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// AgentRemoved publishes an agent removal event.
func AgentRemoved(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload AgentRemovedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventAgentRemoved,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// WorldReset publishes a world rebuild event.
func WorldReset(ctx context.Context, pub logging.Publisher, tick uint64, payload WorldResetPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventWorldReset,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

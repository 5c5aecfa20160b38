package navigation

import (
	"context"

	"drift-and-delve/server/logging"
)

const (
	// EventPathComputed is emitted when a search produces a path.
	EventPathComputed logging.EventType = "navigation.path_computed"
	// EventPathFailed is emitted when a search reports no path.
	EventPathFailed logging.EventType = "navigation.path_failed"
	// EventAgentStalled is emitted when an agent stops making progress toward its waypoint.
	EventAgentStalled logging.EventType = "navigation.agent_stalled"
	// EventWindowShrunk is emitted when a search tightened its window to fit the node budget.
	EventWindowShrunk logging.EventType = "navigation.window_shrunk"
)

// PathComputedPayload captures the shape of a successful search.
type PathComputedPayload struct {
	GoalX     float64 `json:"goalX"`
	GoalY     float64 `json:"goalY"`
	Waypoints int     `json:"waypoints"`
	Cost      float64 `json:"cost"`
	Truncated bool    `json:"truncated,omitempty"`
}

// PathFailedPayload captures why a search produced nothing.
type PathFailedPayload struct {
	GoalX  float64 `json:"goalX"`
	GoalY  float64 `json:"goalY"`
	Reason string  `json:"reason,omitempty"`
}

// AgentStalledPayload captures where an agent got stuck.
type AgentStalledPayload struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	StallTicks uint8   `json:"stallTicks"`
}

// WindowShrunkPayload captures how many margin steps a search gave up.
type WindowShrunkPayload struct {
	GoalX   float64 `json:"goalX"`
	GoalY   float64 `json:"goalY"`
	Shrinks int     `json:"shrinks"`
}

// PathComputed publishes a debug event for a successful search.
func PathComputed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PathComputedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPathComputed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNavigation,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// PathFailed publishes a warning event for a failed search.
func PathFailed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PathFailedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPathFailed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNavigation,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// AgentStalled publishes a debug event when follow progress stalls.
func AgentStalled(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload AgentStalledPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventAgentStalled,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNavigation,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// WindowShrunk publishes a debug event when the search region was reduced
// below the initial margin.
func WindowShrunk(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload WindowShrunkPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventWindowShrunk,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNavigation,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

package world

import (
	"drift-and-delve/server/internal/nav"
	"drift-and-delve/server/internal/tile"
)

// AgentSnapshot is the wire form of one agent.
type AgentSnapshot struct {
	ID     string      `json:"id"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Facing string      `json:"facing"`
	Goal   *nav.Point  `json:"goal,omitempty"`
	Path   []nav.Point `json:"path,omitempty"`
}

// Snapshot is the per-tick state sent to subscribers.
type Snapshot struct {
	Tick     uint64          `json:"tick"`
	Seed     string          `json:"seed"`
	Cols     int             `json:"cols"`
	Rows     int             `json:"rows"`
	TileSize float64         `json:"tileSize"`
	Agents   []AgentSnapshot `json:"agents"`
}

// Snapshot captures the current simulation state in spawn order. Waypoints
// already consumed are dropped; the slices are copies, safe to marshal after
// the world lock is released.
func (w *World) Snapshot() Snapshot {
	if w == nil || w.tiles == nil {
		return Snapshot{}
	}
	cols, rows := w.tiles.Dims()
	snap := Snapshot{
		Tick:     w.tick,
		Seed:     w.seed,
		Cols:     cols,
		Rows:     rows,
		TileSize: w.tiles.TileSize(),
		Agents:   make([]AgentSnapshot, 0, len(w.order)),
	}
	for _, id := range w.order {
		st := w.agents[id]
		entry := AgentSnapshot{
			ID:     st.ID,
			X:      st.X,
			Y:      st.Y,
			Facing: st.Facing,
		}
		if st.Path != nil && st.Path.Index < len(st.Path.Path) {
			goal := st.Path.Goal
			entry.Goal = &goal
			entry.Path = append([]nav.Point(nil), st.Path.Path[st.Path.Index:]...)
		}
		snap.Agents = append(snap.Agents, entry)
	}
	return snap
}

// MapSnapshot exports the static tile layer.
func (w *World) MapSnapshot() tile.Snapshot {
	if w == nil || w.tiles == nil {
		return tile.Snapshot{}
	}
	return w.tiles.Snapshot()
}

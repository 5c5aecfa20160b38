package world

import (
	"context"
	"math"

	"drift-and-delve/server/internal/agent"
	"drift-and-delve/server/internal/nav"
	"drift-and-delve/server/logging"
	navlog "drift-and-delve/server/logging/navigation"
)

// searchOptions applies to every agent search. Agents may pass through
// doors; diagonal movement follows the engine's corner rules.
var searchOptions = nav.SearchOptions{
	AllowDiagonal: true,
	CanOpenDoors:  true,
	AgentRadius:   agent.AgentHalf,
}

const closestWalkableLimit = 6

// SetIntent stores the movement intent for an agent.
func (w *World) SetIntent(actorID string, dx, dy float64) {
	if w == nil {
		return
	}
	if st := w.agents[actorID]; st != nil {
		st.IntentX = dx
		st.IntentY = dy
	}
}

// SetFacing updates an agent's facing when the value is valid.
func (w *World) SetFacing(actorID string, facing string) {
	if w == nil {
		return
	}
	st := w.agents[actorID]
	if st == nil {
		return
	}
	if parsed, ok := ParseFacing(facing); ok {
		st.Facing = string(parsed)
	}
}

// DeriveFacing maps a movement vector onto the dominant facing direction.
func (w *World) DeriveFacing(dx, dy float64, fallback string) string {
	return string(DeriveFacing(dx, dy, FacingDirection(fallback)))
}

// ComputePath resolves a route for one agent, treating tiles under the other
// agents as blocked.
func (w *World) ComputePath(actorID string, target nav.Point) ([]nav.Point, nav.Point, bool) {
	if w == nil {
		return nil, nav.Point{}, false
	}
	st := w.agents[actorID]
	if st == nil {
		return nil, nav.Point{}, false
	}
	return w.computePathFrom(nav.Point{X: st.X, Y: st.Y}, target, actorID)
}

// ProbePath resolves a route between two arbitrary points without attributing
// the search to an agent. Every agent counts as a blocker.
func (w *World) ProbePath(start, goal nav.Point) ([]nav.Point, nav.Point, bool) {
	if w == nil {
		return nil, nav.Point{}, false
	}
	return w.computePathFrom(start, goal, "")
}

// computePathFrom runs the search, repairing a start stuck inside an object
// footprint and probing a ring of alternate goals when the target itself is
// unreachable.
func (w *World) computePathFrom(start, target nav.Point, excludeID string) ([]nav.Point, nav.Point, bool) {
	if w.tiles == nil || w.finder == nil {
		return nil, nav.Point{}, false
	}

	blocked := w.dynamicBlockers(excludeID, start, target)

	startPos := nav.Locate(w.tiles, start)
	if w.tiles.InBounds(startPos.Col, startPos.Row) && !w.walkableCell(startPos) {
		repaired, ok := nav.ClosestWalkable(w.tiles, startPos, searchOptions, closestWalkableLimit)
		if !ok {
			w.publishPathFailed(excludeID, target, "start-unwalkable")
			return nil, nav.Point{}, false
		}
		start = nav.Center(w.tiles, repaired)
	}

	before := w.finder.Stats()
	path, ok := w.finder.FindPathAvoiding(w.tiles, start, target, searchOptions, blocked)
	after := w.finder.Stats()
	if shrinks := after.WindowShrinks - before.WindowShrinks; shrinks > 0 {
		w.publishWindowShrunk(excludeID, target, int(shrinks))
	}
	if ok {
		w.publishPathComputed(excludeID, target, path, after.Truncated > before.Truncated)
		return path, target, true
	}

	size := w.tiles.TileSize()
	offsets := [...]nav.Point{
		{X: size, Y: 0},
		{X: -size, Y: 0},
		{X: 0, Y: size},
		{X: 0, Y: -size},
		{X: size, Y: size},
		{X: size, Y: -size},
		{X: -size, Y: size},
		{X: -size, Y: -size},
		{X: 2 * size, Y: 0},
		{X: -2 * size, Y: 0},
		{X: 0, Y: 2 * size},
		{X: 0, Y: -2 * size},
	}

	width, height := w.Dimensions()
	bestScore := math.MaxFloat64
	var bestPath []nav.Point
	var bestGoal nav.Point
	for _, offset := range offsets {
		alt := nav.Point{
			X: Clamp(target.X+offset.X, agent.AgentHalf, width-agent.AgentHalf),
			Y: Clamp(target.Y+offset.Y, agent.AgentHalf, height-agent.AgentHalf),
		}
		if math.Hypot(alt.X-target.X, alt.Y-target.Y) < 1 {
			continue
		}
		candidate, ok := w.finder.FindPathAvoiding(w.tiles, start, alt, searchOptions, blocked)
		if !ok {
			continue
		}
		score := math.Hypot(alt.X-target.X, alt.Y-target.Y) + nav.PathCost(candidate)/size
		if score < bestScore {
			bestScore = score
			bestGoal = alt
			bestPath = candidate
		}
	}
	if len(bestPath) == 0 {
		w.publishPathFailed(excludeID, target, "unreachable")
		return nil, nav.Point{}, false
	}
	w.publishPathComputed(excludeID, bestGoal, bestPath, false)
	return bestPath, bestGoal, true
}

// dynamicBlockers masks tiles occupied by every other agent. Start and goal
// tiles stay open so a crowded doorstep cannot wedge the search.
func (w *World) dynamicBlockers(excludeID string, start, goal nav.Point) map[nav.GridPos]struct{} {
	if len(w.agents) == 0 {
		return nil
	}
	positions := make([]nav.Point, 0, len(w.agents))
	for _, id := range w.order {
		if id == excludeID {
			continue
		}
		st := w.agents[id]
		positions = append(positions, nav.Point{X: st.X, Y: st.Y})
	}
	if len(positions) == 0 {
		return nil
	}
	return nav.BlockedCells(w.tiles, positions,
		nav.Locate(w.tiles, start), nav.Locate(w.tiles, goal))
}

// walkableCell applies the movement rule: the terrain must be walkable and
// any object must be passable or an openable door.
func (w *World) walkableCell(pos nav.GridPos) bool {
	if w == nil || w.tiles == nil {
		return false
	}
	walkable, _ := w.tiles.TerrainAt(pos.Col, pos.Row)
	if !walkable {
		return false
	}
	present, passable, door := w.tiles.ObjectAt(pos.Col, pos.Row)
	if !present {
		return true
	}
	return passable || door
}

func (w *World) canOccupy(x, y float64) bool {
	return w.walkableCell(nav.Locate(w.tiles, nav.Point{X: x, Y: y}))
}

func (w *World) publishPathComputed(actorID string, goal nav.Point, path []nav.Point, truncated bool) {
	navlog.PathComputed(context.Background(), w.publisher, w.tick, logging.EntityRef{
		ID:   actorID,
		Kind: logging.EntityKindAgent,
	}, navlog.PathComputedPayload{
		GoalX:     goal.X,
		GoalY:     goal.Y,
		Waypoints: len(path),
		Cost:      nav.PathCost(path),
		Truncated: truncated,
	}, nil)
}

func (w *World) publishWindowShrunk(actorID string, target nav.Point, shrinks int) {
	navlog.WindowShrunk(context.Background(), w.publisher, w.tick, logging.EntityRef{
		ID:   actorID,
		Kind: logging.EntityKindAgent,
	}, navlog.WindowShrunkPayload{
		GoalX:   target.X,
		GoalY:   target.Y,
		Shrinks: shrinks,
	}, nil)
}

func (w *World) publishPathFailed(actorID string, target nav.Point, reason string) {
	navlog.PathFailed(context.Background(), w.publisher, w.tick, logging.EntityRef{
		ID:   actorID,
		Kind: logging.EntityKindAgent,
	}, navlog.PathFailedPayload{
		GoalX:  target.X,
		GoalY:  target.Y,
		Reason: reason,
	}, nil)
}

func (w *World) publishAgentStalled(st *agentState) {
	navlog.AgentStalled(context.Background(), w.publisher, w.tick, logging.EntityRef{
		ID:   st.ID,
		Kind: logging.EntityKindAgent,
	}, navlog.AgentStalledPayload{
		X:          st.X,
		Y:          st.Y,
		StallTicks: st.StuckCounter,
	}, nil)
}

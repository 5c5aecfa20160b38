package world

import (
	"math"

	"drift-and-delve/server/internal/agent"
	"drift-and-delve/server/internal/nav"
)

const (
	// DefaultAgentSpeed is the walk speed in world units per second.
	DefaultAgentSpeed = 120.0

	wanderIdleMinTicks = 30
	wanderIdleMaxTicks = 120
	wanderRadiusTiles  = 8
	wanderTargetTries  = 10

	// stalledEventThreshold matches the stuck-counter level that triggers a
	// forced recalculation on the next follow tick.
	stalledEventThreshold = 8
)

// Step advances the simulation by one tick: wander decisions, path
// following, then movement integration.
func (w *World) Step(dt float64) {
	if w == nil || w.tiles == nil || dt <= 0 {
		return
	}
	w.tick++
	tick := w.tick

	actors := make([]*agent.Actor, 0, len(w.order))
	for _, id := range w.order {
		st := w.agents[id]
		w.updateWander(st, tick)
		actors = append(actors, &st.Actor)
	}

	agent.Advance(actors, tick, w)

	for _, id := range w.order {
		w.moveAgent(w.agents[id], dt)
	}
}

// updateWander hands an idle agent a fresh destination once its pause runs
// out. Agents steered by a client keep their manual target until they reach
// it, then fall back to wandering after a pause.
func (w *World) updateWander(st *agentState, tick uint64) {
	if st == nil {
		return
	}
	if st.manual {
		if st.Path != nil && st.Path.Target != (nav.Point{}) {
			return
		}
		st.manual = false
		st.nextWanderTick = tick + randomTickInterval(w.wanderRNG, wanderIdleMinTicks, wanderIdleMaxTicks)
		return
	}
	if st.Path != nil && len(st.Path.Path) > 0 {
		return
	}
	if tick < st.nextWanderTick {
		return
	}

	target, ok := w.randomWanderTarget(st)
	if !ok {
		st.nextWanderTick = tick + wanderIdleMinTicks
		return
	}
	agent.EnsurePath(&st.Actor, target, tick, w)
	st.nextWanderTick = tick + randomTickInterval(w.wanderRNG, wanderIdleMinTicks, wanderIdleMaxTicks)
}

// randomWanderTarget draws a walkable tile center near the agent's home.
func (w *World) randomWanderTarget(st *agentState) (nav.Point, bool) {
	rng := w.wanderRNG
	if rng == nil {
		rng = w.SubsystemRNG("agents.wander")
		w.wanderRNG = rng
	}

	size := w.tiles.TileSize()
	for attempt := 0; attempt < wanderTargetTries; attempt++ {
		angle := RandomAngle(rng)
		dist := RandomDistance(rng, size, wanderRadiusTiles*size)
		candidate := nav.Point{
			X: st.home.X + math.Cos(angle)*dist,
			Y: st.home.Y + math.Sin(angle)*dist,
		}
		pos := nav.Locate(w.tiles, candidate)
		if !w.walkableCell(pos) {
			continue
		}
		return nav.Center(w.tiles, pos), true
	}
	return nav.Point{}, false
}

// moveAgent integrates intent into position, one axis at a time, refusing
// steps onto tiles the agent cannot occupy. Blocked ticks feed the stuck
// counter that eventually forces a path recalculation.
func (w *World) moveAgent(st *agentState, dt float64) {
	if st == nil {
		return
	}

	dx := st.IntentX
	dy := st.IntentY
	length := math.Hypot(dx, dy)
	if length == 0 {
		st.StuckCounter = 0
		return
	}
	dx /= length
	dy /= length

	speed := st.Speed
	if speed <= 0 {
		speed = DefaultAgentSpeed
	}

	width, height := w.Dimensions()
	newX := Clamp(st.X+dx*speed*dt, agent.AgentHalf, width-agent.AgentHalf)
	if !w.canOccupy(newX, st.Y) {
		newX = st.X
	}
	newY := Clamp(st.Y+dy*speed*dt, agent.AgentHalf, height-agent.AgentHalf)
	if !w.canOccupy(newX, newY) {
		newY = st.Y
	}

	if newX == st.X && newY == st.Y {
		if st.StuckCounter < math.MaxUint8 {
			st.StuckCounter++
		}
		if st.StuckCounter == stalledEventThreshold {
			w.publishAgentStalled(st)
		}
	} else {
		st.StuckCounter = 0
	}
	st.X = newX
	st.Y = newY
}

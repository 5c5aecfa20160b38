// Package world owns the simulation: the generated tile map, the pathfinder,
// and every autonomous agent walking the map. The world is deterministic for
// a given configuration; all randomness flows from seeded subsystem RNGs.
// Methods are not safe for concurrent use, the hub serializes callers.
package world

import (
	"context"
	"fmt"
	"math/rand"

	"drift-and-delve/server/internal/agent"
	"drift-and-delve/server/internal/nav"
	"drift-and-delve/server/internal/tile"
	"drift-and-delve/server/logging"
	"drift-and-delve/server/logging/lifecycle"
	"drift-and-delve/server/tiles/catalog"
)

// Deps bundles runtime dependencies required to construct a World instance.
type Deps struct {
	Publisher logging.Publisher
	RNG       RNGFactory
	Catalog   *catalog.Resolver
}

// World owns the deterministic RNG root, the tile map, and the agent roster.
type World struct {
	config Config
	seed   string

	publisher  logging.Publisher
	rngFactory RNGFactory
	rng        *rand.Rand

	tiles   *tile.Map
	finder  *nav.Pathfinder
	catalog *catalog.Resolver

	agents map[string]*agentState
	order  []string

	tick        uint64
	nextAgentID uint64
	spawnRNG    *rand.Rand
	wanderRNG   *rand.Rand
}

// agentState extends the shared follow-state with world-side movement data.
type agentState struct {
	agent.Actor

	IntentX float64
	IntentY float64
	Speed   float64

	home           nav.Point
	manual         bool
	nextWanderTick uint64
}

// New constructs a world instance with normalized configuration, a seeded
// RNG hierarchy, a generated map, and the configured number of agents.
func New(cfg Config, deps Deps) (*World, error) {
	normalized := cfg.normalized()

	factory := deps.RNG
	if factory == nil {
		factory = NewDeterministicRNG
	}

	publisher := deps.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}

	resolver := deps.Catalog
	if resolver == nil {
		var err error
		resolver, err = catalog.NewResolver()
		if err != nil {
			return nil, fmt.Errorf("world: builtin catalog: %w", err)
		}
	}

	seed := normalized.Seed

	w := &World{
		config:     normalized,
		seed:       seed,
		publisher:  publisher,
		rngFactory: factory,
		rng:        factory(seed, "world"),
		finder:     nav.NewPathfinder(),
		catalog:    resolver,
		agents:     make(map[string]*agentState),
	}

	tiles, err := w.generateMap()
	if err != nil {
		return nil, err
	}
	w.tiles = tiles

	w.spawnRNG = w.SubsystemRNG("agents.spawn")
	w.wanderRNG = w.SubsystemRNG("agents.wander")

	for i := 0; i < normalized.AgentCount; i++ {
		if _, err := w.SpawnAgent(); err != nil {
			return nil, err
		}
	}

	cols, rows := w.tiles.Dims()
	lifecycle.WorldReset(context.Background(), w.publisher, w.tick, lifecycle.WorldResetPayload{
		Seed: seed,
		Cols: cols,
		Rows: rows,
	}, nil)

	return w, nil
}

// Config returns the normalized configuration captured at construction time.
func (w *World) Config() Config {
	if w == nil {
		return Config{}
	}
	return w.config
}

// Seed reports the deterministic seed applied to the world RNG hierarchy.
func (w *World) Seed() string {
	if w == nil {
		return ""
	}
	return w.seed
}

// RNG exposes the root RNG instance seeded for the world.
func (w *World) RNG() *rand.Rand {
	if w == nil {
		return nil
	}
	if w.rng == nil {
		w.rng = w.ensureFactory()(w.seed, "world")
	}
	return w.rng
}

// SubsystemRNG returns a deterministic RNG derived from the world seed.
func (w *World) SubsystemRNG(label string) *rand.Rand {
	if w == nil {
		return NewDeterministicRNG(DefaultSeed, label)
	}
	seed := w.seed
	if seed == "" {
		seed = DefaultSeed
	}
	return w.ensureFactory()(seed, label)
}

func (w *World) ensureFactory() RNGFactory {
	if w == nil || w.rngFactory == nil {
		return NewDeterministicRNG
	}
	return w.rngFactory
}

// Tick reports the current simulation tick.
func (w *World) Tick() uint64 {
	if w == nil {
		return 0
	}
	return w.tick
}

// Tiles exposes the generated tile map.
func (w *World) Tiles() *tile.Map {
	if w == nil {
		return nil
	}
	return w.tiles
}

// Dimensions reports the playable extent in world units.
func (w *World) Dimensions() (float64, float64) {
	if w == nil || w.tiles == nil {
		return 0, 0
	}
	cols, rows := w.tiles.Dims()
	size := w.tiles.TileSize()
	return float64(cols) * size, float64(rows) * size
}

// SearchStats returns the pathfinder counters accumulated so far.
func (w *World) SearchStats() nav.SearchStats {
	if w == nil || w.finder == nil {
		return nav.SearchStats{}
	}
	return w.finder.Stats()
}

// AgentCount reports how many agents are currently simulated.
func (w *World) AgentCount() int {
	if w == nil {
		return 0
	}
	return len(w.agents)
}

// AgentIDs returns the agent identifiers in spawn order.
func (w *World) AgentIDs() []string {
	if w == nil {
		return nil
	}
	ids := make([]string, len(w.order))
	copy(ids, w.order)
	return ids
}

// SpawnAgent places a new agent on a free walkable tile near the map center
// and returns its identifier.
func (w *World) SpawnAgent() (string, error) {
	if w == nil || w.tiles == nil {
		return "", fmt.Errorf("world: not initialized")
	}
	if len(w.agents) >= maxAgentCount {
		return "", fmt.Errorf("world: agent limit %d reached", maxAgentCount)
	}

	pos, ok := w.freeSpawnTile()
	if !ok {
		return "", fmt.Errorf("world: no free spawn tile")
	}

	w.nextAgentID++
	id := fmt.Sprintf("agent-%d", w.nextAgentID)
	center := nav.Center(w.tiles, pos)

	st := &agentState{
		Actor: agent.Actor{
			ID:     id,
			X:      center.X,
			Y:      center.Y,
			Facing: string(DefaultFacing),
			Path:   &agent.PathState{ArriveRadius: agent.DefaultArriveRadius},
		},
		Speed: DefaultAgentSpeed,
		home:  center,
	}
	if w.wanderRNG != nil {
		st.nextWanderTick = w.tick + randomTickInterval(w.wanderRNG, wanderIdleMinTicks, wanderIdleMaxTicks)
	}

	w.agents[id] = st
	w.order = append(w.order, id)

	lifecycle.AgentSpawned(context.Background(), w.publisher, w.tick, logging.EntityRef{
		ID:   id,
		Kind: logging.EntityKindAgent,
	}, lifecycle.AgentSpawnedPayload{SpawnX: center.X, SpawnY: center.Y}, nil)

	return id, nil
}

// RemoveAgent drops an agent from the simulation.
func (w *World) RemoveAgent(actorID, reason string) bool {
	if w == nil {
		return false
	}
	if _, ok := w.agents[actorID]; !ok {
		return false
	}
	delete(w.agents, actorID)
	for i, id := range w.order {
		if id == actorID {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}

	lifecycle.AgentRemoved(context.Background(), w.publisher, w.tick, logging.EntityRef{
		ID:   actorID,
		Kind: logging.EntityKindAgent,
	}, lifecycle.AgentRemovedPayload{Reason: reason}, nil)

	return true
}

// Reject reasons returned by SetAgentTarget. The transport forwards them to
// clients verbatim.
const (
	CommandRejectUnavailable  = "world-unavailable"
	CommandRejectUnknownAgent = "unknown-agent"
	CommandRejectUnreachable  = "unreachable"
)

// SetAgentTarget routes an agent toward a world-space destination. It
// reports whether a path was installed; on failure the target sticks and the
// follow layer keeps retrying on its cooldown.
func (w *World) SetAgentTarget(actorID string, target nav.Point) (bool, string) {
	if w == nil {
		return false, CommandRejectUnavailable
	}
	st := w.agents[actorID]
	if st == nil {
		return false, CommandRejectUnknownAgent
	}

	width, height := w.Dimensions()
	clamped := nav.Point{
		X: Clamp(target.X, agent.AgentHalf, width-agent.AgentHalf),
		Y: Clamp(target.Y, agent.AgentHalf, height-agent.AgentHalf),
	}

	st.manual = true
	if !agent.EnsurePath(&st.Actor, clamped, w.tick, w) {
		return false, CommandRejectUnreachable
	}
	return true, ""
}

// ClearAgentTarget cancels a manual destination and returns the agent to
// wandering after an idle pause.
func (w *World) ClearAgentTarget(actorID string) bool {
	if w == nil {
		return false
	}
	st := w.agents[actorID]
	if st == nil {
		return false
	}
	st.manual = false
	agent.ClearPath(&st.Actor, w)
	if w.wanderRNG != nil {
		st.nextWanderTick = w.tick + randomTickInterval(w.wanderRNG, wanderIdleMinTicks, wanderIdleMaxTicks)
	}
	return true
}

// AgentPosition reports an agent's current location.
func (w *World) AgentPosition(actorID string) (nav.Point, bool) {
	if w == nil {
		return nav.Point{}, false
	}
	st := w.agents[actorID]
	if st == nil {
		return nav.Point{}, false
	}
	return nav.Point{X: st.X, Y: st.Y}, true
}

// freeSpawnTile picks a walkable unoccupied tile, preferring the central
// region of the map.
func (w *World) freeSpawnTile() (nav.GridPos, bool) {
	cols, rows := w.tiles.Dims()
	rng := w.spawnRNG
	if rng == nil {
		rng = w.SubsystemRNG("agents.spawn")
		w.spawnRNG = rng
	}

	minCol, maxCol := centralSpan(cols)
	minRow, maxRow := centralSpan(rows)
	for attempt := 0; attempt < spawnAttemptLimit; attempt++ {
		pos := nav.GridPos{
			Col: randomSpan(rng, minCol, maxCol),
			Row: randomSpan(rng, minRow, maxRow),
		}
		if w.walkableCell(pos) && !w.tileOccupied(pos) {
			return pos, true
		}
	}

	// Dense maps fall back to a full scan.
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			pos := nav.GridPos{Col: col, Row: row}
			if w.walkableCell(pos) && !w.tileOccupied(pos) {
				return pos, true
			}
		}
	}
	return nav.GridPos{}, false
}

func (w *World) tileOccupied(pos nav.GridPos) bool {
	for _, st := range w.agents {
		if nav.Locate(w.tiles, nav.Point{X: st.X, Y: st.Y}) == pos {
			return true
		}
	}
	return false
}

// centralSpan returns the middle half of a grid axis.
func centralSpan(extent int) (int, int) {
	min := extent / 4
	max := extent - 1 - extent/4
	if max < min {
		max = min
	}
	return min, max
}

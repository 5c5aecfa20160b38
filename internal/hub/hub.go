// Package hub connects the deterministic world simulation to live clients.
// The hub owns the tick loop, serializes all world access behind its mutex,
// and fans state snapshots out to subscribed websocket connections.
package hub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"drift-and-delve/server/internal/nav"
	"drift-and-delve/server/internal/telemetry"
	"drift-and-delve/server/internal/tile"
	"drift-and-delve/server/internal/world"
	"drift-and-delve/server/logging"
	simlog "drift-and-delve/server/logging/simulation"
)

const (
	// ProtocolVersion tags every message exchanged with clients.
	ProtocolVersion = 1

	writeWait         = 10 * time.Second
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval

	// DefaultTickRate drives the simulation at 15 Hz.
	DefaultTickRate = 15
	minTickRate     = 5
	maxTickRate     = 60
)

// Hub owns the live world, the connected client sessions, and the tick loop.
type Hub struct {
	mu       sync.Mutex
	world    *world.World
	deps     world.Deps
	clients  map[string]*clientState
	tickRate int

	publisher logging.Publisher
	counters  *telemetry.Counters
	logger    telemetry.Logger
}

// clientState tracks one joined client. Autonomous agents never appear here;
// only agents spawned through Join carry heartbeat bookkeeping.
type clientState struct {
	sub           *Subscriber
	lastHeartbeat time.Time
	lastRTT       time.Duration
}

// Subscriber wraps a websocket connection with a write lock and the last
// acknowledged command sequence for duplicate detection.
type Subscriber struct {
	conn    *websocket.Conn
	mu      sync.Mutex
	lastSeq uint64
}

// WriteMessage serializes writes and applies the shared write deadline.
func (s *Subscriber) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// LastCommandSeq returns the highest acknowledged command sequence.
func (s *Subscriber) LastCommandSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeq
}

// StoreLastCommandSeq records a newly acknowledged command sequence.
func (s *Subscriber) StoreLastCommandSeq(seq uint64) {
	s.mu.Lock()
	if seq > s.lastSeq {
		s.lastSeq = seq
	}
	s.mu.Unlock()
}

// Close tears down the underlying connection.
func (s *Subscriber) Close() error {
	return s.conn.Close()
}

// Options carries the hub dependencies that fall back to safe defaults.
type Options struct {
	TickRate  int
	Publisher logging.Publisher
	Counters  *telemetry.Counters
	Logger    telemetry.Logger
	WorldDeps world.Deps
}

// New builds a hub around a freshly generated world.
func New(cfg world.Config, opts Options) (*Hub, error) {
	if opts.Publisher == nil {
		opts.Publisher = logging.NopPublisher()
	}
	if opts.Counters == nil {
		opts.Counters = telemetry.NewCounters()
	}
	if opts.Logger == nil {
		opts.Logger = telemetry.LoggerFunc(log.Printf)
	}
	if opts.WorldDeps.Publisher == nil {
		opts.WorldDeps.Publisher = opts.Publisher
	}
	tickRate := opts.TickRate
	if tickRate == 0 {
		tickRate = DefaultTickRate
	}
	if tickRate < minTickRate {
		tickRate = minTickRate
	}
	if tickRate > maxTickRate {
		tickRate = maxTickRate
	}

	w, err := world.New(cfg, opts.WorldDeps)
	if err != nil {
		return nil, err
	}

	return &Hub{
		world:     w,
		deps:      opts.WorldDeps,
		clients:   make(map[string]*clientState),
		tickRate:  tickRate,
		publisher: opts.Publisher,
		counters:  opts.Counters,
		logger:    opts.Logger,
	}, nil
}

// JoinResponse carries everything a freshly joined client needs to render.
type JoinResponse struct {
	Ver             int            `json:"ver"`
	ID              string         `json:"id"`
	State           world.Snapshot `json:"state"`
	Map             tile.Snapshot  `json:"map"`
	Config          world.Config   `json:"config"`
	TickRate        int            `json:"tickRate"`
	HeartbeatMillis int64          `json:"heartbeatMillis"`
}

type stateMessage struct {
	Ver        int            `json:"ver"`
	Type       string         `json:"type"`
	ServerTime int64          `json:"serverTime"`
	State      world.Snapshot `json:"state"`
}

// Join spawns a client-owned agent and returns the latest snapshot.
func (h *Hub) Join() (JoinResponse, error) {
	h.mu.Lock()
	id, err := h.world.SpawnAgent()
	if err != nil {
		h.mu.Unlock()
		return JoinResponse{}, err
	}
	h.clients[id] = &clientState{lastHeartbeat: time.Now()}
	state := h.world.Snapshot()
	mapSnap := h.world.MapSnapshot()
	cfg := h.world.Config()
	h.mu.Unlock()

	h.counters.Add("hub.joins", 1)
	go h.BroadcastState(nil)

	return JoinResponse{
		Ver:             ProtocolVersion,
		ID:              id,
		State:           state,
		Map:             mapSnap,
		Config:          cfg,
		TickRate:        h.tickRate,
		HeartbeatMillis: heartbeatInterval.Milliseconds(),
	}, nil
}

// Subscribe associates a websocket connection with a joined agent. An
// existing connection for the same agent is closed and replaced.
func (h *Hub) Subscribe(agentID string, conn *websocket.Conn) (*Subscriber, world.Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cl, ok := h.clients[agentID]
	if !ok {
		return nil, world.Snapshot{}, false
	}

	cl.lastHeartbeat = time.Now()

	if cl.sub != nil {
		cl.sub.Close()
	}

	sub := &Subscriber{conn: conn}
	cl.sub = sub
	return sub, h.world.Snapshot(), true
}

// Disconnect removes a client, despawns its agent, and closes any open
// connection. Unknown agents report false.
func (h *Hub) Disconnect(agentID string) bool {
	h.mu.Lock()
	cl, ok := h.clients[agentID]
	var sub *Subscriber
	if ok {
		sub = cl.sub
		delete(h.clients, agentID)
		h.world.RemoveAgent(agentID, "disconnect")
	}
	h.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	if ok {
		h.counters.Add("hub.disconnects", 1)
	}
	return ok
}

// SetAgentTarget forwards a movement command to the world and reports the
// tick it applied on.
func (h *Hub) SetAgentTarget(agentID string, target nav.Point) (uint64, bool, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ok, reason := h.world.SetAgentTarget(agentID, target)
	return h.world.Tick(), ok, reason
}

// ClearAgentTarget cancels a manual destination and returns the agent to
// autonomous wandering.
func (h *Hub) ClearAgentTarget(agentID string) (uint64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.Tick(), h.world.ClearAgentTarget(agentID)
}

// UpdateHeartbeat records the most recent heartbeat time and RTT for a client.
func (h *Hub) UpdateHeartbeat(agentID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cl, ok := h.clients[agentID]
	if !ok {
		return 0, false
	}

	cl.lastHeartbeat = receivedAt

	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			cl.lastRTT = rtt
		}
	}

	return cl.lastRTT, true
}

// advance prunes heartbeat-stale clients, steps the world, and returns the
// post-step snapshot plus the subscribers to close outside the lock.
func (h *Hub) advance(now time.Time, dt float64) (world.Snapshot, []*Subscriber) {
	h.mu.Lock()

	var toClose []*Subscriber
	for id, cl := range h.clients {
		if now.Sub(cl.lastHeartbeat) > disconnectAfter {
			if cl.sub != nil {
				toClose = append(toClose, cl.sub)
			}
			delete(h.clients, id)
			h.world.RemoveAgent(id, "heartbeat-timeout")
			h.logger.Printf("disconnecting %s due to heartbeat timeout", id)
		}
	}

	h.world.Step(dt)
	snap := h.world.Snapshot()
	h.mu.Unlock()

	return snap, toClose
}

// RunSimulation drives the fixed-rate tick loop until the stop channel closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	interval := time.Second / time.Duration(h.tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = 1.0 / float64(h.tickRate)
			}
			last = now

			snap, toClose := h.advance(now, dt)
			for _, sub := range toClose {
				sub.Close()
			}

			if elapsed := time.Since(now); elapsed > interval {
				h.counters.Add("hub.tick_overruns", 1)
				simlog.TickBudgetOverrun(context.Background(), h.publisher, snap.Tick, simlog.TickBudgetOverrunPayload{
					DurationMillis: elapsed.Milliseconds(),
					BudgetMillis:   interval.Milliseconds(),
					Ratio:          float64(elapsed) / float64(interval),
				}, nil)
			}
			h.counters.Add("hub.ticks", 1)

			h.BroadcastState(&snap)
		}
	}
}

// BroadcastState sends a snapshot to every subscriber. A nil snapshot
// broadcasts a freshly taken one.
func (h *Hub) BroadcastState(snap *world.Snapshot) {
	h.mu.Lock()
	if snap == nil {
		latest := h.world.Snapshot()
		snap = &latest
	}
	subs := make(map[string]*Subscriber, len(h.clients))
	for id, cl := range h.clients {
		if cl.sub != nil {
			subs[id] = cl.sub
		}
	}
	h.mu.Unlock()

	if len(subs) == 0 {
		return
	}

	data, err := marshalState(*snap)
	if err != nil {
		h.logger.Printf("failed to marshal state message: %v", err)
		return
	}

	for id, sub := range subs {
		if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Printf("failed to send update to %s: %v", id, err)
			h.counters.Add("hub.broadcast_errors", 1)
			if h.Disconnect(id) {
				go h.BroadcastState(nil)
			}
		}
	}
}

// MarshalState encodes a snapshot as a state message for a single write.
func (h *Hub) MarshalState(snap world.Snapshot) ([]byte, error) {
	return marshalState(snap)
}

func marshalState(snap world.Snapshot) ([]byte, error) {
	msg := stateMessage{
		Ver:        ProtocolVersion,
		Type:       "state",
		ServerTime: time.Now().UnixMilli(),
		State:      snap,
	}
	return json.Marshal(msg)
}

// ProbePath runs a one-shot route query against the live world.
func (h *Hub) ProbePath(start, goal nav.Point) ([]nav.Point, nav.Point, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.ProbePath(start, goal)
}

// MapSnapshot exposes the static tile grid for the map endpoint.
func (h *Hub) MapSnapshot() tile.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.MapSnapshot()
}

// CurrentConfig reports the normalized configuration of the live world.
func (h *Hub) CurrentConfig() world.Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.Config()
}

// Tick reports the current simulation tick.
func (h *Hub) Tick() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.Tick()
}

// ResetWorld replaces the live world with a freshly generated one. Every
// client session is dropped; their connections close so clients rejoin.
func (h *Hub) ResetWorld(cfg world.Config) (world.Config, error) {
	normalized := cfg.Normalized()
	replacement, err := world.New(normalized, h.deps)
	if err != nil {
		return world.Config{}, err
	}

	h.mu.Lock()
	var toClose []*Subscriber
	for _, cl := range h.clients {
		if cl.sub != nil {
			toClose = append(toClose, cl.sub)
		}
	}
	h.clients = make(map[string]*clientState)
	h.world = replacement
	h.mu.Unlock()

	for _, sub := range toClose {
		sub.Close()
	}
	h.counters.Add("hub.resets", 1)
	return normalized, nil
}

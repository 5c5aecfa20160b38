package hub

import (
	"drift-and-delve/server/internal/nav"
)

// DiagnosticsClient exposes heartbeat data for one connected client.
type DiagnosticsClient struct {
	Ver           int    `json:"ver"`
	ID            string `json:"id"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
	RTTMillis     int64  `json:"rttMillis"`
	LastAck       uint64 `json:"lastAck"`
}

// Diagnostics aggregates the health data served by the diagnostics endpoint.
type Diagnostics struct {
	Ver             int                 `json:"ver"`
	Tick            uint64              `json:"tick"`
	TickRate        int                 `json:"tickRate"`
	HeartbeatMillis int64               `json:"heartbeatMillis"`
	AgentCount      int                 `json:"agentCount"`
	ClientCount     int                 `json:"clientCount"`
	Clients         []DiagnosticsClient `json:"clients"`
	Search          nav.SearchStats     `json:"search"`
	Counters        map[string]uint64   `json:"counters,omitempty"`
}

// DiagnosticsSnapshot collects heartbeat, search, and counter data.
func (h *Hub) DiagnosticsSnapshot() Diagnostics {
	h.mu.Lock()

	clients := make([]DiagnosticsClient, 0, len(h.clients))
	for id, cl := range h.clients {
		entry := DiagnosticsClient{
			Ver:           ProtocolVersion,
			ID:            id,
			LastHeartbeat: cl.lastHeartbeat.UnixMilli(),
			RTTMillis:     cl.lastRTT.Milliseconds(),
		}
		if cl.sub != nil {
			entry.LastAck = cl.sub.LastCommandSeq()
		}
		clients = append(clients, entry)
	}

	diag := Diagnostics{
		Ver:             ProtocolVersion,
		Tick:            h.world.Tick(),
		TickRate:        h.tickRate,
		HeartbeatMillis: heartbeatInterval.Milliseconds(),
		AgentCount:      h.world.AgentCount(),
		ClientCount:     len(h.clients),
		Clients:         clients,
		Search:          h.world.SearchStats(),
	}
	h.mu.Unlock()

	diag.Counters = h.counters.Snapshot()
	return diag
}

// Package ws runs the websocket command loop: clients steer their agent with
// target and cancel commands and keep the session alive with heartbeats.
package ws

import (
	"context"
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	"drift-and-delve/server/internal/hub"
	"drift-and-delve/server/internal/nav"
	"drift-and-delve/server/internal/telemetry"
	"drift-and-delve/server/internal/world"
	"drift-and-delve/server/logging"
	netlog "drift-and-delve/server/logging/network"
)

type subscription interface {
	WriteMessage(messageType int, data []byte) error
	LastCommandSeq() uint64
	StoreLastCommandSeq(seq uint64)
}

type HandlerConfig struct {
	Logger    telemetry.Logger
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
}

type Handler struct {
	hub       *hub.Hub
	logger    telemetry.Logger
	publisher logging.Publisher
	metrics   telemetry.Metrics
	upgrader  websocket.Upgrader
}

func NewHandler(h *hub.Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(log.Printf)
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		hub:       h,
		logger:    logger,
		publisher: publisher,
		metrics:   cfg.Metrics,
		upgrader:  upgrader,
	}
}

func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	agentID := r.URL.Query().Get("id")
	if agentID == "" {
		nethttp.Error(w, "missing id", nethttp.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", agentID, err)
		return
	}

	sub, snapshot, ok := h.hub.Subscribe(agentID, conn)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown agent")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	session := subscription(sub)

	actor := logging.EntityRef{ID: agentID, Kind: logging.EntityKindClient}
	netlog.ClientConnected(context.Background(), h.publisher, snapshot.Tick, actor,
		netlog.ClientConnectedPayload{RemoteAddr: r.RemoteAddr}, nil)
	if h.metrics != nil {
		h.metrics.Add("network.connects", 1)
	}

	disconnect := func(reason string) {
		if h.hub.Disconnect(agentID) {
			netlog.ClientDisconnected(context.Background(), h.publisher, h.hub.Tick(), actor,
				netlog.ClientDisconnectedPayload{Reason: reason}, nil)
			if h.metrics != nil {
				h.metrics.Add("network.disconnects", 1)
			}
			go h.hub.BroadcastState(nil)
		}
	}

	data, err := h.hub.MarshalState(snapshot)
	if err != nil {
		h.logger.Printf("failed to marshal initial state for %s: %v", agentID, err)
		disconnect("marshal-error")
		return
	}
	if err := session.WriteMessage(websocket.TextMessage, data); err != nil {
		disconnect("write-error")
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			disconnect("connection-closed")
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", agentID, err)
			continue
		}

		normalizedSeq := uint64(0)
		if msg.CommandSeq != nil && *msg.CommandSeq > 0 {
			normalizedSeq = *msg.CommandSeq
		}

		writeJSON := func(payload any) bool {
			data, err := json.Marshal(payload)
			if err != nil {
				h.logger.Printf("failed to marshal response for %s: %v", agentID, err)
				return true
			}
			if err := session.WriteMessage(websocket.TextMessage, data); err != nil {
				disconnect("write-error")
				return false
			}
			return true
		}

		sendDuplicateAck := func() bool {
			if normalizedSeq == 0 {
				return true
			}
			ack := commandAckMessage{Ver: hub.ProtocolVersion, Type: "commandAck", Seq: normalizedSeq}
			return writeJSON(ack)
		}

		sendCommandAck := func(tick uint64) bool {
			if normalizedSeq == 0 {
				return true
			}
			ack := commandAckMessage{Ver: hub.ProtocolVersion, Type: "commandAck", Seq: normalizedSeq, Tick: tick}
			if !writeJSON(ack) {
				return false
			}
			session.StoreLastCommandSeq(normalizedSeq)
			return true
		}

		sendCommandReject := func(command, reason string, retry bool, tick uint64) bool {
			netlog.CommandRejected(context.Background(), h.publisher, tick, actor,
				netlog.CommandRejectedPayload{Command: command, Reason: reason, Seq: normalizedSeq}, nil)
			if h.metrics != nil {
				h.metrics.Add("network.rejects", 1)
			}
			if normalizedSeq == 0 {
				return true
			}
			reject := commandRejectMessage{
				Ver:    hub.ProtocolVersion,
				Type:   "commandReject",
				Seq:    normalizedSeq,
				Reason: reason,
				Tick:   tick,
			}
			if retry {
				reject.Retry = true
			}
			return writeJSON(reject)
		}

		switch msg.Type {
		case "target":
			if normalizedSeq > 0 {
				if last := session.LastCommandSeq(); last > 0 && normalizedSeq <= last {
					if !sendDuplicateAck() {
						return
					}
					continue
				}
			}
			tick, ok, reason := h.hub.SetAgentTarget(agentID, nav.Point{X: msg.X, Y: msg.Y})
			if ok {
				if h.metrics != nil {
					h.metrics.Add("network.commands", 1)
				}
				if !sendCommandAck(tick) {
					return
				}
			} else {
				retry := reason == world.CommandRejectUnavailable
				if !sendCommandReject("target", reason, retry, tick) {
					return
				}
				if reason == world.CommandRejectUnknownAgent {
					h.logger.Printf("target ignored for unknown agent %s", agentID)
				}
			}
		case "cancel":
			if normalizedSeq > 0 {
				if last := session.LastCommandSeq(); last > 0 && normalizedSeq <= last {
					if !sendDuplicateAck() {
						return
					}
					continue
				}
			}
			tick, ok := h.hub.ClearAgentTarget(agentID)
			if ok {
				if h.metrics != nil {
					h.metrics.Add("network.commands", 1)
				}
				if !sendCommandAck(tick) {
					return
				}
			} else {
				if !sendCommandReject("cancel", world.CommandRejectUnknownAgent, false, tick) {
					return
				}
				h.logger.Printf("cancel ignored for unknown agent %s", agentID)
			}
		case "heartbeat":
			now := time.Now()
			rtt, ok := h.hub.UpdateHeartbeat(agentID, now, msg.SentAt)
			if !ok {
				continue
			}
			if h.metrics != nil {
				h.metrics.Add("network.heartbeats", 1)
			}

			ack := heartbeatMessage{
				Ver:        hub.ProtocolVersion,
				Type:       "heartbeat",
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			}

			data, err := json.Marshal(ack)
			if err != nil {
				h.logger.Printf("failed to marshal heartbeat ack for %s: %v", agentID, err)
				continue
			}
			if err := session.WriteMessage(websocket.TextMessage, data); err != nil {
				disconnect("write-error")
				return
			}
		default:
			h.logger.Printf("unknown message type %q from %s", msg.Type, agentID)
		}
	}
}

type clientMessage struct {
	Ver        int     `json:"ver,omitempty"`
	Type       string  `json:"type"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	SentAt     int64   `json:"sentAt"`
	CommandSeq *uint64 `json:"seq,omitempty"`
}

type commandAckMessage struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
	Tick uint64 `json:"tick,omitempty"`
}

type commandRejectMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Seq    uint64 `json:"seq"`
	Reason string `json:"reason"`
	Retry  bool   `json:"retry,omitempty"`
	Tick   uint64 `json:"tick,omitempty"`
}

type heartbeatMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

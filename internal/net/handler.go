package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	"rift-and-ruin/server/internal/net/proto"
	"rift-and-ruin/server/internal/sim"
)

// wsTextConn adapts a websocket connection to the subscriber's narrow
// write surface. Every frame is a text message.
type wsTextConn struct {
	conn *websocket.Conn
}

func (c wsTextConn) Write(data []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c wsTextConn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

func (c wsTextConn) Close() error {
	return c.conn.Close()
}

// WSHandler upgrades /ws requests and runs the per-client read loop.
type WSHandler struct {
	hub      *Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler builds the websocket endpoint for the hub.
func NewWSHandler(hub *Hub, logger *log.Logger) *WSHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &WSHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
	}
}

func (h *WSHandler) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	actorID := r.URL.Query().Get("id")
	if actorID == "" {
		nethttp.Error(w, "missing id", nethttp.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", actorID, err)
		return
	}

	sub, snapshot, ok := h.hub.Subscribe(actorID, wsTextConn{conn: conn})
	if !ok {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown player")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	welcome := proto.StateMessage{
		Ver:        proto.ProtocolVersion,
		Type:       "state",
		Tick:       snapshot.Tick,
		ServerTime: time.Now().UnixMilli(),
		Actors:     snapshot.Actors,
	}
	data, err := json.Marshal(welcome)
	if err != nil {
		h.logger.Printf("failed to marshal welcome for %s: %v", actorID, err)
		h.hub.Disconnect(actorID, "welcome_failed")
		return
	}
	if !sub.Send(data) {
		h.hub.Disconnect(actorID, "write_failed")
		return
	}

	h.readLoop(actorID, conn, sub)
}

func (h *WSHandler) readLoop(actorID string, conn *websocket.Conn, sub *subscriber) {
	writeJSON := func(payload any) bool {
		data, err := json.Marshal(payload)
		if err != nil {
			h.logger.Printf("failed to marshal response for %s: %v", actorID, err)
			return true
		}
		if !sub.Send(data) {
			return !sub.Closed()
		}
		return true
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.Disconnect(actorID, "read_failed")
			return
		}

		var msg proto.ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", actorID, err)
			continue
		}

		switch msg.Type {
		case "input", "cast":
			if msg.Seq > 0 {
				if last := sub.LastCommandSeq(); last > 0 && msg.Seq <= last {
					ack := proto.CommandAckMessage{Ver: proto.ProtocolVersion, Type: "commandAck", Seq: msg.Seq}
					if !writeJSON(ack) {
						h.hub.Disconnect(actorID, "write_failed")
						return
					}
					continue
				}
			}
			cmd, ok, reason := h.hub.StageCommand(actorID, msg)
			if msg.Seq > 0 {
				if ok {
					ack := proto.CommandAckMessage{Ver: proto.ProtocolVersion, Type: "commandAck", Seq: msg.Seq}
					if cmd.OriginTick > 0 {
						ack.Tick = cmd.OriginTick
					}
					if !writeJSON(ack) {
						h.hub.Disconnect(actorID, "write_failed")
						return
					}
					sub.StoreLastCommandSeq(msg.Seq)
				} else {
					reject := proto.CommandRejectMessage{
						Ver:    proto.ProtocolVersion,
						Type:   "commandReject",
						Seq:    msg.Seq,
						Reason: reason,
						Retry:  reason == sim.CommandRejectQueueLimit,
					}
					if !writeJSON(reject) {
						h.hub.Disconnect(actorID, "write_failed")
						return
					}
				}
			}
			if !ok && reason == RejectUnknownActor {
				h.logger.Printf("%s ignored for unknown player %s", msg.Type, actorID)
			}
		case "heartbeat":
			now := time.Now()
			rtt, ok := h.hub.Heartbeat(actorID, now, msg.SentAt)
			if !ok {
				continue
			}
			ack := proto.HeartbeatMessage{
				Ver:        proto.ProtocolVersion,
				Type:       "heartbeat",
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			}
			if !writeJSON(ack) {
				h.hub.Disconnect(actorID, "write_failed")
				return
			}
		default:
			h.logger.Printf("unknown message type %q from %s", msg.Type, actorID)
		}
	}
}

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	realtimePort "fundsync/internal/ports/realtime"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const clientSendBuffer = 16

// Hub broadcasts published payloads to websocket subscribers per channel.
// Delivery is at-most-once: a subscriber that cannot keep up is dropped.
type Hub struct {
	Logger *zap.Logger

	mu       sync.RWMutex
	channels map[string]map[*client]struct{}
	upgrader websocket.Upgrader
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		Logger:   logger,
		channels: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Publish marshals the payload and fans it out to the channel's subscribers.
func (h *Hub) Publish(ctx context.Context, channel string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal realtime payload: %w", err)
	}

	h.mu.RLock()
	subscribers := h.channels[channel]
	var dropped []*client
	for c := range subscribers {
		select {
		case c.send <- raw:
		default:
			dropped = append(dropped, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range dropped {
		h.Logger.Warn("⚠️ Dropping slow realtime subscriber", zap.String("channel", channel))
		h.remove(channel, c)
	}
	return nil
}

// Subscribe upgrades the request to a websocket and streams the channel's
// events until the peer disconnects. Channel comes from the ?channel query
// parameter.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		channel = realtimePort.ChannelFundraiserUpdates
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("⚠️ Websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientSendBuffer)}
	h.mu.Lock()
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*client]struct{})
	}
	h.channels[channel][c] = struct{}{}
	h.mu.Unlock()

	h.Logger.Info("🔌 Realtime subscriber connected", zap.String("channel", channel))

	go h.writePump(channel, c)
	h.readPump(channel, c)
}

// ServeHTTP makes the hub mountable directly on a router.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Subscribe(w, r)
}

// SubscriberCount تعداد مشترکین یک کانال
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) writePump(channel string, c *client) {
	for raw := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			h.remove(channel, c)
			return
		}
	}
}

// readPump discards inbound frames; it exists to notice the peer closing.
func (h *Hub) readPump(channel string, c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(channel, c)
			return
		}
	}
}

func (h *Hub) remove(channel string, c *client) {
	h.mu.Lock()
	if subscribers, ok := h.channels[channel]; ok {
		if _, present := subscribers[c]; present {
			delete(subscribers, c)
			close(c.send)
		}
	}
	h.mu.Unlock()
	c.conn.Close()
}

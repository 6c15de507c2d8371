// Package hub is the realtime fan-out layer: connections subscribe to opaque
// channel names and receive every frame broadcast on them. Delivery is
// best-effort, at-most-once; a subscriber that is gone simply misses frames.
package hub

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// clientMessage is everything a client may send over the socket.
type clientMessage struct {
	Type     string `json:"type"`
	Channel  string `json:"channel,omitempty"`
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
}

// Conn wraps one websocket connection. Writes are serialized through the
// connection's own mutex so broadcasts from different topics cannot
// interleave a frame.
type Conn struct {
	ws *websocket.Conn

	writeMu  sync.Mutex
	userID   string
	username string
}

func (c *Conn) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Hub maps channel names to subscriber sets.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Conn]struct{}
	conns    map[*Conn]map[string]struct{}

	logger *log.Logger
}

func New(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		channels: make(map[string]map[*Conn]struct{}),
		conns:    make(map[*Conn]map[string]struct{}),
		logger:   logger.WithPrefix("hub"),
	}
}

// HandleWebSocket upgrades the request and runs the read loop until the
// client goes away. Malformed frames are skipped, not fatal.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade failed", "err", err)
		return
	}
	conn := &Conn{ws: ws}

	h.mu.Lock()
	h.conns[conn] = make(map[string]struct{})
	h.mu.Unlock()

	defer func() {
		h.dropConn(conn)
		ws.Close()
	}()

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.logger.Warn("bad client frame", "err", err)
			continue
		}
		switch msg.Type {
		case "identify":
			conn.userID = msg.UserID
			conn.username = msg.Username
		case "subscribe":
			if msg.Channel != "" {
				h.Subscribe(conn, msg.Channel)
			}
		case "unsubscribe":
			if msg.Channel != "" {
				h.Unsubscribe(conn, msg.Channel)
			}
		}
	}
}

// Subscribe adds the connection to a channel's subscriber set.
func (h *Hub) Subscribe(c *Conn, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*Conn]struct{})
	}
	h.channels[channel][c] = struct{}{}
	if subs, ok := h.conns[c]; ok {
		subs[channel] = struct{}{}
	}
}

// Unsubscribe removes the connection from a channel, dropping the channel
// entry once it empties.
func (h *Hub) Unsubscribe(c *Conn, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribeLocked(c, channel)
}

func (h *Hub) unsubscribeLocked(c *Conn, channel string) {
	if subs, ok := h.channels[channel]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
	if subs, ok := h.conns[c]; ok {
		delete(subs, channel)
	}
}

func (h *Hub) dropConn(c *Conn) {
	h.mu.Lock()
	for channel := range h.conns[c] {
		h.unsubscribeLocked(c, channel)
	}
	delete(h.conns, c)
	h.mu.Unlock()
}

// Broadcast fans a frame out to every subscriber of a channel. The frame is
// {channel, type, ...payload}, marshalled once. Broadcasts run on the
// emitting goroutine, so frames on one channel reach each subscriber in
// publish order.
func (h *Hub) Broadcast(channel, msgType string, payload map[string]any) {
	frame := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		frame[k] = v
	}
	frame["channel"] = channel
	frame["type"] = msgType

	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("frame marshal failed", "channel", channel, "type", msgType, "err", err)
		return
	}

	h.mu.RLock()
	subs := make([]*Conn, 0, len(h.channels[channel]))
	for c := range h.channels[channel] {
		subs = append(subs, c)
	}
	h.mu.RUnlock()

	for _, c := range subs {
		if err := c.write(data); err != nil {
			h.logger.Warn("dropping unreachable subscriber", "channel", channel, "err", err)
			h.dropConn(c)
			c.ws.Close()
		}
	}
}

// SubscriberCount reports the subscriber total for a channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Package stream 将事件总线桥接到 websocket 客户端。
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/dushixiang/leverquest/internal/event"
	"github.com/dushixiang/leverquest/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
	busBufferSize  = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	subs map[string]bool
	mu   sync.RWMutex
}

// subscribeMsg 客户端发送的订阅消息
// {"action":"subscribe","topics":["price.*","position.liquidated"]}
type subscribeMsg struct {
	Action string   `json:"action"` // subscribe/unsubscribe
	Topics []string `json:"topics"`
}

// envelope 推送给客户端的消息
type envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	At      time.Time   `json:"at"`
}

// Hub websocket 客户端管理，按订阅主题推送总线事件
type Hub struct {
	logger     *zap.Logger
	sub        *event.Subscription
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	done       chan struct{} // Run 退出后关闭
	mu         sync.RWMutex
	startedAt  time.Time
}

func NewHub(logger *zap.Logger, bus *event.Bus) *Hub {
	return &Hub{
		logger:     logger,
		sub:        bus.Subscribe(busBufferSize),
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		startedAt:  time.Now(),
	}
}

// Run 主循环，ctx 取消时断开所有客户端
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.sub.Close()
		h.disconnectAll()
		close(h.done)
	}()
	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.StreamClients.Set(float64(total))
			h.logger.Debug("stream client connected", zap.Int("total_clients", total))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			metrics.StreamClients.Set(float64(total))
			h.logger.Debug("stream client disconnected", zap.Int("total_clients", total))

		case e, ok := <-h.sub.C:
			if !ok {
				return
			}
			h.broadcast(e)
		}
	}
}

func (h *Hub) disconnectAll() {
	h.mu.Lock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()
	metrics.StreamClients.Set(0)
}

func (h *Hub) join(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) broadcast(e event.Event) {
	data, err := json.Marshal(envelope{Type: string(e.Topic), Payload: e.Payload, At: e.At})
	if err != nil {
		h.logger.Error("stream marshal failed", zap.String("topic", string(e.Topic)), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.isSubscribed(e.Topic) {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Warn("stream dropping message for slow client", zap.String("topic", string(e.Topic)))
		}
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handle GET /api/stream
func (h *Hub) Handle(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("stream upgrade failed", zap.Error(err))
		return nil
	}

	cl := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		subs: map[string]bool{"*": true},
	}
	for _, t := range c.QueryParams()["topic"] {
		if len(cl.subs) == 1 && cl.subs["*"] {
			delete(cl.subs, "*")
		}
		cl.subs[t] = true
	}

	if !h.join(cl) {
		_ = conn.Close()
		return nil
	}
	cl.sendHello()

	go cl.writePump()
	go cl.readPump()
	return nil
}

func (c *client) sendHello() {
	topics := make([]string, 0, len(c.subs))
	c.mu.RLock()
	for t := range c.subs {
		topics = append(topics, t)
	}
	c.mu.RUnlock()

	msg, err := json.Marshal(envelope{
		Type: "hello",
		Payload: map[string]interface{}{
			"topics":         topics,
			"uptime_seconds": int64(time.Since(c.hub.startedAt).Seconds()),
		},
		At: time.Now(),
	})
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("stream unexpected close", zap.Error(err))
			}
			return
		}

		var sub subscribeMsg
		if err := json.Unmarshal(message, &sub); err == nil && sub.Action != "" {
			c.handleSubscription(sub)
		}
	}
}

func (c *client) handleSubscription(msg subscribeMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch msg.Action {
	case "subscribe":
		// 首次显式订阅时取消默认的全部订阅
		if len(c.subs) == 1 && c.subs["*"] && len(msg.Topics) > 0 {
			delete(c.subs, "*")
		}
		for _, t := range msg.Topics {
			c.subs[t] = true
		}
	case "unsubscribe":
		for _, t := range msg.Topics {
			delete(c.subs, t)
		}
	}
}

func (c *client) isSubscribed(topic event.Topic) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for pattern := range c.subs {
		if event.Match(pattern, topic) {
			return true
		}
	}
	return false
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

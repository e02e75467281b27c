package ws

import (
	"Pulseboard/internal/model"
	"Pulseboard/internal/pkg/consts"
	"context"
	log "log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub 把入库事件推送给所有 WebSocket 连接。
// 配置了 Redis 时经由频道转发，多个实例的连接都能收到
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	rdb     *redis.Client
}

func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		rdb:     rdb,
	}
}

// Publish 发布一条入库事件
func (h *Hub) Publish(ctx context.Context, evt model.IngestEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if h.rdb != nil {
		return h.rdb.Publish(ctx, consts.IngestEventChannel, payload).Err()
	}
	h.Broadcast(payload)
	return nil
}

// Broadcast 非阻塞投递，缓冲区已满的连接会被断开
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	slow := make([]*client, 0)
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.Warn("WS 客户端过慢，断开连接", "remote", c.conn.RemoteAddr().String())
		h.unregister(c)
	}
}

// Run 订阅 Redis 频道并转发给本实例的连接，未配置 Redis 时直接等待退出
func (h *Hub) Run(ctx context.Context) error {
	if h.rdb == nil {
		<-ctx.Done()
		h.closeAll()
		return nil
	}

	pubsub := h.rdb.Subscribe(ctx, consts.IngestEventChannel)
	defer func() {
		_ = pubsub.Close()
	}()
	log.Info("WS hub subscribed", "channel", consts.IngestEventChannel)

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			h.Broadcast([]byte(msg.Payload))
		case <-ctx.Done():
			h.closeAll()
			return nil
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve 升级连接并阻塞到连接断开
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "WS 协议升级失败", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.InfoContext(r.Context(), "WS 连接已建立", "remote", conn.RemoteAddr().String(), "clients", h.Clients())

	go h.readLoop(c)
	h.writeLoop(c)
	log.InfoContext(r.Context(), "WS 连接已断开", "remote", conn.RemoteAddr().String())
}

// readLoop 只处理 pong 与客户端断开
func (h *Hub) readLoop(c *client) {
	defer h.unregister(c)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

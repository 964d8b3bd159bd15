package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"mindmosaic-backend/internal/middleware"
	"mindmosaic-backend/internal/models"
)

const writeWait = 10 * time.Second

// Frame is a message sent by the browser: scroll position reports and key
// presses in the chat input.
type Frame struct {
	Type         string  `json:"type"` // "scroll" | "key"
	ScrollTop    float64 `json:"scroll_top,omitempty"`
	ClientHeight float64 `json:"client_height,omitempty"`
	ScrollHeight float64 `json:"scroll_height,omitempty"`
	Key          string  `json:"key,omitempty"`
	Shift        bool    `json:"shift,omitempty"`
	Text         string  `json:"text,omitempty"`
}

// FrameHandler processes one inbound frame. A non-nil reply is written back to
// the sending connection only.
type FrameHandler func(ctx context.Context, clientID string, frame Frame) *models.WSMessage

type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

type Hub struct {
	mu          sync.RWMutex
	connections map[string][]*conn
	cancelFuncs map[string]context.CancelFunc
	redisClient *redis.Client
	upgrader    websocket.Upgrader
	onFrame     FrameHandler
}

// NewHub creates a hub. With a nil Redis client updates are delivered only to
// connections held by this process.
func NewHub(redisClient *redis.Client, allowedOrigin string) *Hub {
	return &Hub{
		connections: make(map[string][]*conn),
		cancelFuncs: make(map[string]context.CancelFunc),
		redisClient: redisClient,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "" || origin == allowedOrigin
			},
		},
	}
}

// OnFrame installs the inbound frame handler.
func (h *Hub) OnFrame(fn FrameHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onFrame = fn
}

func channelName(clientID string) string {
	return "client_updates:" + clientID
}

// HandleWebSocket upgrades the request. The visitor is identified by the
// client id cookie, resolved by middleware.ClientID.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientID := middleware.GetClientID(r.Context())
	if clientID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	c := &conn{ws: ws}
	h.registerConnection(clientID, c)

	go func() {
		defer h.unregisterConnection(clientID, c)
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			h.handleFrame(clientID, c, data)
		}
	}()
}

func (h *Hub) handleFrame(clientID string, c *conn, data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		log.Printf("[ws] bad frame from %s: %v", clientID, err)
		return
	}

	h.mu.RLock()
	fn := h.onFrame
	h.mu.RUnlock()
	if fn == nil {
		return
	}

	reply := fn(context.Background(), clientID, frame)
	if reply == nil {
		return
	}
	out, err := json.Marshal(reply)
	if err != nil {
		return
	}
	c.write(out)
}

func (h *Hub) registerConnection(clientID string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[clientID] = append(h.connections[clientID], c)

	// first connection for this visitor subscribes to its channel
	if h.redisClient != nil && len(h.connections[clientID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[clientID] = cancel
		go h.subscribeToPubSub(ctx, clientID)
	}

	log.Printf("[ws] connected: client %s (total: %d)", clientID, len(h.connections[clientID]))
}

func (h *Hub) unregisterConnection(clientID string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.ws.Close()

	conns := h.connections[clientID]
	for i, existing := range conns {
		if existing == c {
			h.connections[clientID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[clientID]) == 0 {
		delete(h.connections, clientID)
		if cancel, ok := h.cancelFuncs[clientID]; ok {
			cancel()
			delete(h.cancelFuncs, clientID)
		}
	}

	log.Printf("[ws] disconnected: client %s", clientID)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, clientID string) {
	pubsub := h.redisClient.Subscribe(ctx, channelName(clientID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(clientID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(clientID string, data []byte) {
	h.mu.RLock()
	conns := append([]*conn(nil), h.connections[clientID]...)
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.write(data); err != nil {
			log.Printf("[ws] write to %s failed: %v", clientID, err)
		}
	}
}

// Publish delivers msg to every connection of the visitor, across processes
// when Redis is configured.
func (h *Hub) Publish(ctx context.Context, clientID string, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if h.redisClient != nil {
		return h.redisClient.Publish(ctx, channelName(clientID), data).Err()
	}
	h.broadcast(clientID, data)
	return nil
}

// Connections reports how many sockets a visitor has open.
func (h *Hub) Connections(clientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[clientID])
}

// Package stream pushes freshly produced signals to WebSocket clients.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/pkg/logger"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Envelope is one message on the wire
type Envelope struct {
	Type    string            `json:"type"` // "signal"
	Initial bool              `json:"initial,omitempty"`
	Signal  *contracts.Signal `json:"signal"`
	Sent    time.Time         `json:"sent"`
}

// Hub fans signals out to connected clients.
// Slow clients drop messages instead of blocking Publish.
// ⭐ SSOT: 실시간 시그널 푸시는 이 Hub에서만
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger
	snapshot func() []*contracts.Signal

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub. snapshot, if set, supplies the signals sent to a
// client right after it connects.
func NewHub(log *logger.Logger, snapshot func() []*contracts.Signal) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:   log.WithComponent("stream"),
		snapshot: snapshot,
		clients:  make(map[*client]struct{}),
	}
}

// Publish implements pipeline.Publisher
func (h *Hub) Publish(sig *contracts.Signal) {
	if sig == nil {
		return
	}
	msg, err := encode(sig, false)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode signal")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.WithField("symbol", sig.Symbol).Warn("Client buffer full, dropping signal")
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams signals until the peer leaves
// GET /api/signals/stream
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if h.snapshot != nil {
		for _, sig := range h.snapshot() {
			if msg, err := encode(sig, true); err == nil {
				select {
				case c.send <- msg:
				default:
				}
			}
		}
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.WithField("clients", h.ClientCount()).Debug("Client connected")

	go h.writePump(c)
	h.readPump(c)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only services control frames; clients send nothing meaningful
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
		h.logger.Debug("Client disconnected")
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func encode(sig *contracts.Signal, initial bool) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:    "signal",
		Initial: initial,
		Signal:  sig,
		Sent:    time.Now().UTC(),
	})
}

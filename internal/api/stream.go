package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/mlb-predictor/internal/metrics"
	"github.com/yourusername/mlb-predictor/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 4
)

// StreamMessage is pushed to every subscriber when the slate changes.
type StreamMessage struct {
	Op    string         `json:"op"`
	Slate *service.Slate `json:"slate,omitempty"`
}

// SlateHub fans refreshed slates out to websocket subscribers.
type SlateHub struct {
	upgrader websocket.Upgrader
	logger   *logrus.Entry
	latest   func() *service.Slate

	mu      sync.RWMutex
	clients map[*subscriber]struct{}
	closed  bool
}

type subscriber struct {
	conn *websocket.Conn
	send chan StreamMessage
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// NewSlateHub creates a hub. latest supplies the slate sent on connect and
// may return nil.
func NewSlateHub(latest func() *service.Slate, logger *logrus.Logger) *SlateHub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SlateHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger.WithField("component", "stream"),
		latest:  latest,
		clients: make(map[*subscriber]struct{}),
	}
}

// Broadcast queues slate for every subscriber. Subscribers whose buffer is
// full are dropped.
func (h *SlateHub) Broadcast(slate *service.Slate) {
	msg := StreamMessage{Op: "slate", Slate: slate}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("Dropping slow stream subscriber")
			delete(h.clients, c)
			c.close()
		}
	}
	metrics.UpdateStreamSubscribers(len(h.clients))
}

// Subscribers returns the number of connected clients.
func (h *SlateHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber and rejects new ones.
func (h *SlateHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	metrics.UpdateStreamSubscribers(0)
}

// ServeHTTP upgrades the request and streams slates until the client leaves.
func (h *SlateHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}

	c := &subscriber{conn: conn, send: make(chan StreamMessage, sendBufferSize)}
	if h.latest != nil {
		if slate := h.latest(); slate != nil {
			c.send <- StreamMessage{Op: "slate", Slate: slate}
		}
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	metrics.UpdateStreamSubscribers(len(h.clients))
	h.mu.Unlock()

	h.logger.WithField("remote", r.RemoteAddr).Info("Stream subscriber connected")

	go h.writeMessages(c)
	h.readMessages(c)
}

// readMessages discards client frames and unregisters on disconnect.
func (h *SlateHub) readMessages(c *subscriber) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			c.close()
		}
		metrics.UpdateStreamSubscribers(len(h.clients))
		h.mu.Unlock()
		h.logger.Debug("Stream subscriber disconnected")
	}()

	c.conn.SetReadLimit(512)
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

func (h *SlateHub) writeMessages(c *subscriber) {
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
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				h.logger.WithError(err).Debug("Stream write failed")
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

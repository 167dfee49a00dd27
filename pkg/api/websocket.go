package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/waveline/waveline/pkg/eventbus"
	"github.com/waveline/waveline/pkg/logger"
	"github.com/waveline/waveline/pkg/metrics"
)

const (
	defaultWSMaxConnections = 100
	defaultPingInterval     = 30 * time.Second
	defaultPongTimeout      = 10 * time.Second
	defaultWriteTimeout     = 10 * time.Second
	defaultSendBuffer       = 32
)

// StreamConfig configures the websocket batch stream.
type StreamConfig struct {
	AllowedOrigins []string
	MaxConnections int
	PingInterval   time.Duration
	PongTimeout    time.Duration
}

// incomingMessage is a client -> server control message.
type incomingMessage struct {
	Type      string `json:"type"` // "subscribe" or "unsubscribe"
	ChannelID string `json:"channel_id,omitempty"`
}

type wsClient struct {
	conn          *websocket.Conn
	send          chan []byte
	subscriptions map[string]struct{}
	mu            sync.RWMutex
	closeOnce     sync.Once
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{
		conn:          conn,
		send:          make(chan []byte, defaultSendBuffer),
		subscriptions: make(map[string]struct{}),
	}
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *wsClient) subscribe(channelID string) {
	if channelID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[channelID] = struct{}{}
}

func (c *wsClient) unsubscribe(channelID string) {
	if channelID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, channelID)
}

// shouldReceive reports whether the client wants events for channelID. A
// client with no explicit subscriptions receives everything.
func (c *wsClient) shouldReceive(channelID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.subscriptions) == 0 {
		return true
	}
	_, ok := c.subscriptions[channelID]
	return ok
}

// StreamHandler streams committed batch events to websocket clients.
type StreamHandler struct {
	cfg      StreamConfig
	bus      *eventbus.MemoryBus
	upgrader websocket.Upgrader
	log      logger.Logger
	metrics  *metrics.Manager

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// NewStreamHandler creates the websocket stream handler. The handler
// subscribes to the bus when Run is started.
func NewStreamHandler(cfg StreamConfig, bus *eventbus.MemoryBus, log logger.Logger, m *metrics.Manager) *StreamHandler {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = defaultWSMaxConnections
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = defaultPongTimeout
	}
	if m == nil {
		m = metrics.NoOpManager()
	}
	h := &StreamHandler{
		cfg:     cfg,
		bus:     bus,
		log:     log,
		metrics: m,
		clients: make(map[*wsClient]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Run subscribes to the bus and fans committed batch events out to connected
// clients until ctx is done.
func (h *StreamHandler) Run(ctx context.Context) error {
	sub, err := h.bus.Subscribe(eventbus.SubjectPrefix+".>", 256)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Close() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub.C():
			if !ok {
				return nil
			}
			h.broadcast(msg)
		}
	}
}

func (h *StreamHandler) broadcast(msg eventbus.Message) {
	// Subject layout: waveform.batch.<channel>.
	channelID := ""
	if parts := strings.SplitN(msg.Subject, ".", 3); len(parts) == 3 {
		channelID = parts[2]
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if !client.shouldReceive(channelID) {
			continue
		}
		select {
		case client.send <- msg.Payload:
		default:
			// slow client, drop the event
		}
	}
}

// ServeHTTP upgrades the connection and starts the client's pumps.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	full := len(h.clients) >= h.cfg.MaxConnections
	h.mu.RUnlock()
	if full {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := newWSClient(conn)
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.metrics.WSConnectionOpened()

	go h.writePump(client)
	go h.readPump(client)
}

func (h *StreamHandler) removeClient(client *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		h.metrics.WSConnectionClosed()
	}
	h.mu.Unlock()
	client.close()
}

func (h *StreamHandler) readPump(client *wsClient) {
	defer h.removeClient(client)

	client.conn.SetReadLimit(4096)
	_ = client.conn.SetReadDeadline(time.Now().Add(h.cfg.PingInterval + h.cfg.PongTimeout))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(h.cfg.PingInterval + h.cfg.PongTimeout))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg incomingMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "subscribe":
			client.subscribe(msg.ChannelID)
		case "unsubscribe":
			client.unsubscribe(msg.ChannelID)
		}
	}
}

func (h *StreamHandler) writePump(client *wsClient) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()
	defer h.removeClient(client)

	for {
		select {
		case payload, ok := <-client.send:
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			_ = client.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// checkOrigin enforces the configured origin allowlist. An empty list allows
// all origins.
func (h *StreamHandler) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(u.Host, allowed) || strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

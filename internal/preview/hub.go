package preview

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	gocache "github.com/patrickmn/go-cache"
)

// Sync hub connection tuning.
const (
	hubWriteTimeout   = 10 * time.Second
	hubPongTimeout    = 60 * time.Second
	hubPingInterval   = 30 * time.Second
	hubMaxMessageSize = 1 << 20
)

// DefaultReplayTTL is how long the hub replays a channel's last payload
// to late joiners.
const DefaultReplayTTL = 5 * time.Minute

// Sync hub message types.
const (
	msgSubscribe   = "subscribe"
	msgUnsubscribe = "unsubscribe"
	msgPublish     = "publish"
)

// envelope is the sync hub wire format. Payloads are opaque JSON
// documents; the hub relays them without looking inside.
type envelope struct {
	Type    string          `json:"type"`
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// HubConfig configures the sync hub.
type HubConfig struct {
	// Secret enables HS256 bearer auth on hub connections when set.
	Secret string

	// ReplayTTL is the last-payload replay window per channel.
	// Default: DefaultReplayTTL.
	ReplayTTL time.Duration

	// Logger is the hub logger. Default: slog.Default().
	Logger *slog.Logger
}

// Hub relays opaque store payloads between connected preview processes.
// Clients subscribe to channels by name; a publish on a channel reaches
// every other subscriber, and the last payload per channel is replayed
// to late joiners so a fresh process starts from current state.
type Hub struct {
	logger   *slog.Logger
	secret   []byte
	replay   *gocache.Cache
	upgrader websocket.Upgrader
	metrics  *metrics

	mu     sync.Mutex
	rooms  map[string]map[*hubClient]struct{}
	conns  map[*hubClient]struct{}
	closed bool
}

// NewHub creates a sync hub.
func NewHub(cfg HubConfig) *Hub {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.ReplayTTL
	if ttl <= 0 {
		ttl = DefaultReplayTTL
	}

	var secret []byte
	if cfg.Secret != "" {
		secret = []byte(cfg.Secret)
	}

	return &Hub{
		logger: logger.With("component", "sync-hub"),
		secret: secret,
		replay: gocache.New(ttl, 2*ttl),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The hub is a dev tool bound to loopback; browsers on any
			// origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]map[*hubClient]struct{}),
		conns: make(map[*hubClient]struct{}),
	}
}

// setMetrics wires the preview metrics into the hub.
func (h *Hub) setMetrics(m *metrics) {
	h.metrics = m
}

// ServeHTTP upgrades the request to a websocket and runs the client's
// read loop until the connection drops.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r); err != nil {
		h.logger.Warn("rejected sync connection", "error", err, "remote", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &hubClient{
		id:       uuid.NewString(),
		hub:      h,
		conn:     conn,
		channels: make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	client.logger = h.logger.With("client", client.id)

	if !h.register(client) {
		conn.Close()
		return
	}

	client.logger.Debug("sync client connected", "remote", r.RemoteAddr)

	go client.pingLoop()
	client.readLoop()
}

// authorize validates the bearer token when the hub has a secret.
// Tokens ride the Authorization header, or the token query parameter
// for clients that cannot set headers.
func (h *Hub) authorize(r *http.Request) error {
	if h.secret == nil {
		return nil
	}

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return errMissingToken
	}

	_, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	return err
}

var errMissingToken = errors.New("missing bearer token")

func (h *Hub) register(client *hubClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[client] = struct{}{}
	if h.metrics != nil {
		h.metrics.syncClients.Inc()
	}
	return true
}

func (h *Hub) drop(client *hubClient) {
	h.mu.Lock()
	if _, ok := h.conns[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, client)
	for channel := range client.channels {
		h.leaveLocked(client, channel)
	}
	if h.metrics != nil {
		h.metrics.syncClients.Dec()
	}
	h.mu.Unlock()

	client.close()
}

// subscribe joins client to channel and replays the channel's last
// payload if one is cached.
func (h *Hub) subscribe(client *hubClient, channel string) {
	h.mu.Lock()
	if h.rooms[channel] == nil {
		h.rooms[channel] = make(map[*hubClient]struct{})
	}
	h.rooms[channel][client] = struct{}{}
	client.channels[channel] = struct{}{}
	h.mu.Unlock()

	if cached, ok := h.replay.Get(channel); ok {
		client.send(envelope{Type: msgPublish, Channel: channel, Data: cached.(json.RawMessage)})
		if h.metrics != nil {
			h.metrics.syncMessages.WithLabelValues("replay").Inc()
		}
	}
}

func (h *Hub) unsubscribe(client *hubClient, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(client.channels, channel)
	h.leaveLocked(client, channel)
}

func (h *Hub) leaveLocked(client *hubClient, channel string) {
	room := h.rooms[channel]
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, channel)
	}
}

// broadcast relays data to every subscriber on channel except origin and
// caches it for replay. A nil origin reaches everyone; the server's own
// rebuild notifications use that.
func (h *Hub) broadcast(channel string, data json.RawMessage, origin *hubClient) {
	h.replay.SetDefault(channel, data)

	h.mu.Lock()
	receivers := make([]*hubClient, 0, len(h.rooms[channel]))
	for client := range h.rooms[channel] {
		if client != origin {
			receivers = append(receivers, client)
		}
	}
	h.mu.Unlock()

	env := envelope{Type: msgPublish, Channel: channel, Data: data}
	for _, client := range receivers {
		client.send(env)
		if h.metrics != nil {
			h.metrics.syncMessages.WithLabelValues("outbound").Inc()
		}
	}
}

// Publish broadcasts data on channel from the server side, reaching
// every subscriber.
func (h *Hub) Publish(channel string, data []byte) {
	h.broadcast(channel, json.RawMessage(data), nil)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects every client and stops accepting new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*hubClient, 0, len(h.conns))
	for client := range h.conns {
		clients = append(clients, client)
	}
	h.conns = make(map[*hubClient]struct{})
	h.rooms = make(map[string]map[*hubClient]struct{})
	h.mu.Unlock()

	for _, client := range clients {
		client.close()
	}
}

// hubClient is one connected sync peer.
type hubClient struct {
	id       string
	hub      *Hub
	conn     *websocket.Conn
	logger   *slog.Logger
	channels map[string]struct{}
	done     chan struct{}

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

// readLoop consumes envelopes until the connection drops.
func (c *hubClient) readLoop() {
	defer c.hub.drop(c)

	c.conn.SetReadLimit(hubMaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(hubPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(hubPongTimeout))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.logger.Error("read error", "error", err)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			c.logger.Warn("dropping malformed envelope", "error", err)
			continue
		}
		if env.Channel == "" {
			c.logger.Warn("dropping envelope without channel", "type", env.Type)
			continue
		}

		switch env.Type {
		case msgSubscribe:
			c.hub.subscribe(c, env.Channel)

		case msgUnsubscribe:
			c.hub.unsubscribe(c, env.Channel)

		case msgPublish:
			if c.hub.metrics != nil {
				c.hub.metrics.syncMessages.WithLabelValues("inbound").Inc()
			}
			c.hub.broadcast(env.Channel, env.Data, c)

		default:
			c.logger.Warn("unknown envelope type", "type", env.Type)
		}
	}
}

// pingLoop keeps the connection alive until the client closes.
func (c *hubClient) pingLoop() {
	ticker := time.NewTicker(hubPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// send writes an envelope to the peer. Write failures close the
// connection; the read loop then notices and drops the client.
func (c *hubClient) send(env envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		c.logger.Error("marshaling envelope", "error", err)
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logger.Debug("write failed, closing", "error", err)
		c.conn.Close()
	}
}

func (c *hubClient) close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	c.conn.Close()
}

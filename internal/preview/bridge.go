package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pigmentlabs/pigment/pkg/pubsub"
)

const bridgeBufferSize = 64

// BridgeOption configures a Bridge.
type BridgeOption func(*bridgeConfig)

type bridgeConfig struct {
	logger *slog.Logger
	token  string
}

// WithBridgeLogger sets the bridge logger. Default: slog.Default().
func WithBridgeLogger(l *slog.Logger) BridgeOption {
	return func(c *bridgeConfig) {
		c.logger = l
	}
}

// WithBridgeToken sends token as a bearer credential when dialing a hub
// that requires auth.
func WithBridgeToken(token string) BridgeOption {
	return func(c *bridgeConfig) {
		c.token = token
	}
}

// Bridge connects a preview process to a sync hub and exposes hub
// channels as pubsub endpoints, so stores in this process mirror state
// with stores in every other process on the hub exactly like sibling
// tabs on a broker.
//
// A bridge carries at most one endpoint per topic; Channel returns the
// existing endpoint until it is closed. Payloads must be JSON documents,
// which store snapshots always are.
type Bridge struct {
	logger *slog.Logger
	conn   *websocket.Conn

	writeMu sync.Mutex

	mu       sync.Mutex
	channels map[string]*bridgeChannel
	closed   bool
}

// DialBridge connects to the sync hub at url (ws://host:port/sync).
func DialBridge(ctx context.Context, url string, opts ...BridgeOption) (*Bridge, error) {
	cfg := &bridgeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	var header http.Header
	if cfg.token != "" {
		header = http.Header{"Authorization": []string{"Bearer " + cfg.token}}
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing sync hub %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dialing sync hub %s: %w", url, err)
	}

	b := &Bridge{
		logger:   logger.With("component", "sync-bridge"),
		conn:     conn,
		channels: make(map[string]*bridgeChannel),
	}
	go b.readLoop()
	return b, nil
}

// Channel returns the pubsub endpoint for topic, subscribing on first
// use. Closing the endpoint unsubscribes; a later Channel call opens a
// fresh one.
func (b *Bridge) Channel(topic string) pubsub.Channel {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.channels[topic]; ok {
		return ch
	}

	ch := &bridgeChannel{
		bridge: b,
		topic:  topic,
		ch:     make(chan []byte, bridgeBufferSize),
	}
	if b.closed {
		close(ch.ch)
		ch.closed = true
		return ch
	}
	b.channels[topic] = ch

	if err := b.send(envelope{Type: msgSubscribe, Channel: topic}); err != nil {
		b.logger.Warn("subscribe failed", "topic", topic, "error", err)
	}
	return ch
}

// Mirror pumps the given broker topics through the hub in both
// directions. Local publishes reach remote processes and remote
// publishes land on the local broker, without echoing back to their
// source. Mirroring stops when either side closes.
func (b *Bridge) Mirror(broker *pubsub.Broker, topics ...string) {
	for _, topic := range topics {
		local := broker.Channel(topic)
		remote := b.Channel(topic)

		go func() {
			for data := range local.Messages() {
				remote.Publish(data)
			}
			remote.Close()
		}()
		go func() {
			for data := range remote.Messages() {
				local.Publish(data)
			}
			local.Close()
		}()
	}
}

// Close drops the hub connection and closes every endpoint's Messages
// channel.
func (b *Bridge) Close() {
	channels := b.teardown()
	for _, ch := range channels {
		ch.markClosed()
	}
	b.conn.Close()
}

func (b *Bridge) teardown() []*bridgeChannel {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	channels := make([]*bridgeChannel, 0, len(b.channels))
	for _, ch := range b.channels {
		channels = append(channels, ch)
	}
	b.channels = make(map[string]*bridgeChannel)
	return channels
}

// readLoop demuxes hub envelopes onto their topic endpoints until the
// connection drops, then closes every endpoint.
func (b *Bridge) readLoop() {
	defer func() {
		for _, ch := range b.teardown() {
			ch.markClosed()
		}
	}()

	for {
		_, msg, err := b.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				b.logger.Error("read error", "error", err)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			b.logger.Warn("dropping malformed envelope", "error", err)
			continue
		}
		if env.Type != msgPublish {
			continue
		}

		b.mu.Lock()
		ch := b.channels[env.Channel]
		b.mu.Unlock()
		if ch != nil {
			ch.deliver([]byte(env.Data))
		}
	}
}

func (b *Bridge) send(env envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	b.conn.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

func (b *Bridge) detach(ch *bridgeChannel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.channels[ch.topic] != ch {
		return
	}
	delete(b.channels, ch.topic)
	if err := b.send(envelope{Type: msgUnsubscribe, Channel: ch.topic}); err != nil {
		b.logger.Debug("unsubscribe failed", "topic", ch.topic, "error", err)
	}
}

// bridgeChannel is the Bridge's pubsub.Channel implementation.
type bridgeChannel struct {
	bridge *Bridge
	topic  string
	ch     chan []byte

	mu     sync.Mutex
	closed bool
}

// Publish broadcasts data to the topic's subscribers on other hub
// connections. Non-JSON payloads are dropped: the hub wire format
// carries JSON documents only.
func (c *bridgeChannel) Publish(data []byte) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	if !json.Valid(data) {
		c.bridge.logger.Warn("dropping non-JSON payload", "topic", c.topic)
		return
	}
	if err := c.bridge.send(envelope{Type: msgPublish, Channel: c.topic, Data: json.RawMessage(data)}); err != nil {
		c.bridge.logger.Warn("publish failed", "topic", c.topic, "error", err)
	}
}

// Messages returns the stream of payloads published by other hub
// connections on this topic.
func (c *bridgeChannel) Messages() <-chan []byte {
	return c.ch
}

// deliver queues an inbound payload. Holding mu keeps the queue open
// against a concurrent Close.
func (c *bridgeChannel) deliver(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.ch <- data:
	default:
		// Buffer full, drop rather than stall the reader.
	}
}

// Close unsubscribes the endpoint and closes its Messages channel.
func (c *bridgeChannel) Close() {
	c.bridge.detach(c)
	c.markClosed()
}

func (c *bridgeChannel) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}
